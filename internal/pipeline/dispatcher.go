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

package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	// ModeDocument selects the knowledge-base pipeline.
	ModeDocument = "document"
	// ModeDatabase selects the product-catalog pipeline.
	ModeDatabase = "database"
)

// InboundMessage is the parsed client envelope. An absent or unrecognized
// mode falls back to document mode rather than failing.
type InboundMessage struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// Dispatcher routes inbound messages to the pipeline their mode selects.
type Dispatcher struct {
	document *DocumentPipeline
	database *DatabasePipeline
	logger   *zap.Logger
}

// NewDispatcher creates a mode dispatcher over the two pipelines.
func NewDispatcher(document *DocumentPipeline, database *DatabasePipeline, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		document: document,
		database: database,
		logger:   logger,
	}
}

// Dispatch selects and runs the pipeline for the message's mode and returns
// the JSON-serializable payload to deliver. Pipelines contain their own
// collaborator failures, so the returned error covers only unexpected panics;
// callers map it to a generic processing failure and never see raw pipeline
// internals.
func (d *Dispatcher) Dispatch(ctx context.Context, msg InboundMessage) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Pipeline panic recovered",
				zap.String("mode", msg.Mode),
				zap.Any("panic", r))
			payload = nil
			err = fmt.Errorf("error processing message")
		}
	}()

	switch msg.Mode {
	case ModeDatabase:
		d.logger.Info("Handling database mode")
		return d.database.Query(ctx, msg.Message), nil
	default:
		d.logger.Info("Handling document mode", zap.String("mode", msg.Mode))
		return d.document.Query(ctx, msg.Message), nil
	}
}
