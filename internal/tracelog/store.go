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

// Package tracelog records each dispatched query for the client trace panel
// and for operator debugging. It supports file-based and SQLite storage.
// Recording is best-effort; callers log store errors and move on.
package tracelog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	StorageTypeFile   = "file"
	StorageTypeSQLite = "sqlite"
)

// Trace is one recorded query dispatch.
type Trace struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connection_id"`
	Mode         string    `json:"mode"`
	Message      string    `json:"message"`
	SQLQuery     string    `json:"sql_query,omitempty"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Config holds configuration for trace storage
type Config struct {
	StorageType string
	FilePath    string
	DBPath      string
}

// Store persists query traces to the configured backend.
type Store struct {
	config Config
	logger *zap.Logger
	db     *sql.DB
	mu     sync.RWMutex
}

// NewStore creates a trace store for the configured backend.
func NewStore(config Config, logger *zap.Logger) (*Store, error) {
	s := &Store{
		config: config,
		logger: logger,
	}

	switch config.StorageType {
	case StorageTypeFile:
		if err := s.initFileStorage(); err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
	case StorageTypeSQLite:
		if err := s.initSQLiteStorage(); err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.StorageType)
	}

	return s, nil
}

func (s *Store) initFileStorage() error {
	dir := filepath.Dir(s.config.FilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create trace directory: %w", err)
	}

	if _, err := os.Stat(s.config.FilePath); os.IsNotExist(err) {
		file, err := os.Create(s.config.FilePath)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		_ = file.Close()
	}

	return nil
}

func (s *Store) initSQLiteStorage() error {
	dir := filepath.Dir(s.config.DBPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create trace database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS traces (
			id TEXT PRIMARY KEY,
			connection_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			message TEXT NOT NULL,
			sql_query TEXT,
			error TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create traces table: %w", err)
	}

	s.db = db
	return nil
}

// Record persists one trace. The ID and timestamp are assigned here.
func (s *Store) Record(trace Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trace.ID = uuid.New().String()
	trace.Timestamp = time.Now()

	var err error
	switch s.config.StorageType {
	case StorageTypeFile:
		err = s.recordToFile(trace)
	case StorageTypeSQLite:
		err = s.recordToSQLite(trace)
	default:
		err = fmt.Errorf("unsupported storage type: %s", s.config.StorageType)
	}
	if err != nil {
		return err
	}

	s.logger.Debug("Query trace recorded",
		zap.String("trace_id", trace.ID),
		zap.String("mode", trace.Mode))
	return nil
}

func (s *Store) recordToFile(trace Trace) error {
	file, err := os.OpenFile(s.config.FilePath, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = file.Close() }()

	jsonData, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	if _, err := file.WriteString(string(jsonData) + "\n"); err != nil {
		return fmt.Errorf("failed to write trace to file: %w", err)
	}

	return nil
}

func (s *Store) recordToSQLite(trace Trace) error {
	if s.db == nil {
		return fmt.Errorf("SQLite database not initialized")
	}

	insertSQL := `
		INSERT INTO traces (id, connection_id, mode, message, sql_query, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(insertSQL,
		trace.ID,
		trace.ConnectionID,
		trace.Mode,
		trace.Message,
		trace.SQLQuery,
		trace.Error,
		trace.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trace into SQLite: %w", err)
	}

	return nil
}

// Recent retrieves the most recent traces, newest first (SQLite only).
func (s *Store) Recent(limit int) ([]Trace, error) {
	if s.config.StorageType != StorageTypeSQLite {
		return nil, fmt.Errorf("Recent only supported for SQLite storage")
	}
	if s.db == nil {
		return nil, fmt.Errorf("SQLite database not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, connection_id, mode, message, sql_query, error, timestamp
		FROM traces
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query traces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var traces []Trace
	for rows.Next() {
		var trace Trace
		var sqlQuery, errText sql.NullString

		if err := rows.Scan(
			&trace.ID,
			&trace.ConnectionID,
			&trace.Mode,
			&trace.Message,
			&sqlQuery,
			&errText,
			&trace.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		trace.SQLQuery = sqlQuery.String
		trace.Error = errText.String
		traces = append(traces, trace)
	}

	return traces, rows.Err()
}

// Close releases the underlying database handle, if any.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}
