// Copyright 2025 Pharma Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gateway hosts the WebSocket transport boundary: it accepts
// connections, reads message envelopes, hands them to the dispatcher, and
// pushes the resulting payload back on the same connection. Delivery
// failures are logged and dropped, never retried.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/your-org/pharma-assistant/internal/health"
	"github.com/your-org/pharma-assistant/internal/pipeline"
	"github.com/your-org/pharma-assistant/internal/tracelog"
	"go.uber.org/zap"
)

// processingErrorText is the generic failure delivered when a message cannot
// be parsed or a pipeline fails unexpectedly.
const processingErrorText = "Error processing message"

// Dispatcher routes a parsed envelope to the pipeline its mode selects.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg pipeline.InboundMessage) (any, error)
}

// Server is the HTTP/WebSocket front of the gateway.
type Server struct {
	dispatcher Dispatcher
	traces     *tracelog.Store
	health     *health.Manager
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

// NewServer creates a gateway server. traces may be nil to disable query
// tracing.
func NewServer(dispatcher Dispatcher, traces *tracelog.Store, healthManager *health.Manager, logger *zap.Logger) *Server {
	return &Server{
		dispatcher: dispatcher,
		traces:     traces,
		health:     healthManager,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine with the health and WebSocket routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	router.GET("/ws", s.handleWebSocket)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	report := s.health.Check(c.Request.Context())

	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// handleWebSocket owns one connection: upgrade, read loop, teardown. Each
// inbound envelope is dispatched synchronously and the payload delivered on
// the same connection.
func (s *Server) handleWebSocket(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = ws.Close() }()

	connectionID := uuid.New().String()
	s.logger.Info("WebSocket client connected", zap.String("connection_id", connectionID))

	if !s.deliver(ws, connectionID, gin.H{"action": "connected", "connectionId": connectionID}) {
		return
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			s.logger.Info("WebSocket client disconnected",
				zap.String("connection_id", connectionID),
				zap.String("reason", err.Error()))
			return
		}

		var msg pipeline.InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("Malformed message envelope",
				zap.String("connection_id", connectionID),
				zap.Error(err))
			s.deliver(ws, connectionID, gin.H{"error": processingErrorText})
			continue
		}

		payload, err := s.dispatcher.Dispatch(c.Request.Context(), msg)
		if err != nil {
			s.logger.Error("Message dispatch failed",
				zap.String("connection_id", connectionID),
				zap.Error(err))
			s.recordTrace(connectionID, msg, nil, err.Error())
			s.deliver(ws, connectionID, gin.H{"error": processingErrorText})
			continue
		}

		s.recordTrace(connectionID, msg, payload, "")
		s.deliver(ws, connectionID, payload)
	}
}

// deliver pushes a payload to the connection. Failures are logged only; the
// response is already computed and a dropped delivery must not fail the
// request.
func (s *Server) deliver(ws *websocket.Conn, connectionID string, payload any) bool {
	if err := ws.WriteJSON(payload); err != nil {
		s.logger.Error("Send message error",
			zap.String("connection_id", connectionID),
			zap.Error(err))
		return false
	}
	return true
}

// recordTrace stores the dispatched query best-effort.
func (s *Server) recordTrace(connectionID string, msg pipeline.InboundMessage, payload any, errText string) {
	if s.traces == nil {
		return
	}

	mode := pipeline.ModeDocument
	if msg.Mode == pipeline.ModeDatabase {
		mode = pipeline.ModeDatabase
	}

	trace := tracelog.Trace{
		ConnectionID: connectionID,
		Mode:         mode,
		Message:      msg.Message,
		Error:        errText,
	}
	if db, ok := payload.(pipeline.DatabaseResponse); ok {
		trace.SQLQuery = db.SQLQuery
		if db.Errors != nil {
			trace.Error = *db.Errors
		}
	}

	if err := s.traces.Record(trace); err != nil {
		s.logger.Warn("Failed to record query trace", zap.Error(err))
	}
}
