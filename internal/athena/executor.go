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

// Package athena implements the structured-query capabilities against the
// product catalog: SQL generation from natural language and query execution
// on Amazon Athena.
package athena

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/your-org/pharma-assistant/internal/pipeline"
	"go.uber.org/zap"
)

// athenaAPI is the slice of the Athena client the executor uses.
type athenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

// ExecutorConfig holds the catalog and execution settings for the executor.
type ExecutorConfig struct {
	Database       string
	Workgroup      string
	OutputLocation string
	PollInterval   time.Duration
	QueryTimeout   time.Duration
}

// Executor runs SQL against Athena and flattens the result set into the raw
// comma-delimited text block the product mapper consumes.
type Executor struct {
	client athenaAPI
	config ExecutorConfig
	logger *zap.Logger
}

// NewExecutor creates an Athena query executor.
func NewExecutor(cfg aws.Config, config ExecutorConfig, logger *zap.Logger) *Executor {
	return &Executor{
		client: athena.NewFromConfig(cfg),
		config: config,
		logger: logger,
	}
}

// Execute implements pipeline.QueryExecutor. A query the backend rejects or
// fails is reported in-band through ExecutionResult.Error; the returned error
// covers only invocation failures reaching Athena itself.
func (e *Executor) Execute(ctx context.Context, sqlQuery string) (pipeline.ExecutionResult, error) {
	result := pipeline.ExecutionResult{SQLQuery: sqlQuery}

	start, err := e.client.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(sqlQuery),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: aws.String(e.config.Database),
		},
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: aws.String(e.config.OutputLocation),
		},
		WorkGroup: aws.String(e.config.Workgroup),
	})
	if err != nil {
		return result, fmt.Errorf("start query execution: %w", err)
	}
	executionID := aws.ToString(start.QueryExecutionId)

	state, reason, err := e.waitForCompletion(ctx, executionID)
	if err != nil {
		return result, err
	}
	if state != athenatypes.QueryExecutionStateSucceeded {
		if reason == "" {
			reason = fmt.Sprintf("query %s in state %s", executionID, state)
		}
		result.Error = reason
		e.logger.Warn("Athena query did not succeed",
			zap.String("execution_id", executionID),
			zap.String("state", string(state)),
			zap.String("reason", reason))
		return result, nil
	}

	rows, err := e.fetchRows(ctx, executionID)
	if err != nil {
		return result, err
	}
	result.Response = rows

	e.logger.Info("Athena query succeeded",
		zap.String("execution_id", executionID),
		zap.Int("response_bytes", len(rows)))

	return result, nil
}

// waitForCompletion polls the query execution until it reaches a terminal
// state or the configured timeout elapses.
func (e *Executor) waitForCompletion(ctx context.Context, executionID string) (athenatypes.QueryExecutionState, string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.QueryTimeout)
	defer cancel()

	for {
		out, err := e.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(executionID),
		})
		if err != nil {
			return "", "", fmt.Errorf("get query execution: %w", err)
		}

		status := out.QueryExecution.Status
		switch status.State {
		case athenatypes.QueryExecutionStateSucceeded,
			athenatypes.QueryExecutionStateFailed,
			athenatypes.QueryExecutionStateCancelled:
			return status.State, aws.ToString(status.StateChangeReason), nil
		}

		select {
		case <-ctx.Done():
			return "", "", fmt.Errorf("query %s timed out: %w", executionID, ctx.Err())
		case <-time.After(e.config.PollInterval):
		}
	}
}

// fetchRows reads the full result set, following pagination, and flattens it
// to comma-delimited text.
func (e *Executor) fetchRows(ctx context.Context, executionID string) (string, error) {
	var rows []athenatypes.Row
	var nextToken *string
	for {
		out, err := e.client.GetQueryResults(ctx, &athena.GetQueryResultsInput{
			QueryExecutionId: aws.String(executionID),
			NextToken:        nextToken,
		})
		if err != nil {
			return "", fmt.Errorf("get query results: %w", err)
		}
		if out.ResultSet != nil {
			rows = append(rows, out.ResultSet.Rows...)
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return flattenRows(rows), nil
}

// flattenRows joins datum values with commas and rows with newlines. Athena
// returns column names as the first row of the first page; it is skipped so
// the output holds data rows only.
func flattenRows(rows []athenatypes.Row) string {
	if len(rows) <= 1 {
		return ""
	}
	lines := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		fields := make([]string, len(row.Data))
		for i, d := range row.Data {
			fields[i] = aws.ToString(d.VarCharValue)
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}
