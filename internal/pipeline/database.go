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
	"strings"

	"github.com/your-org/pharma-assistant/internal/product"
	"go.uber.org/zap"
)

// NoProductInfoFound is the user-facing text for a query that ran cleanly but
// matched no rows.
const NoProductInfoFound = "No product info found."

// narrativeInstructions is the task preamble for the summarization prompt.
// The header legend and the mapped rows are appended after it.
const narrativeInstructions = "The user asked you: %s. " +
	"Output the following information, if it pertains to multiple products, tell the user that. " +
	"If you don't know, then only output the information you receive. " +
	"If there is product info, it is in CSV format with the following headers: %s. " +
	"Briefly summarize the product information by listing out the names of the products retrieved. " +
	"Here is the prompt information:"

// DatabaseResponse is the payload for a database-mode query. Exactly one of
// the terminal shapes from the pipeline's classify step is populated; nil
// fields serialize as null.
type DatabaseResponse struct {
	ResponseText *string          `json:"response_text"`
	Data         []product.Record `json:"data"`
	Errors       *string          `json:"errors"`
	SQLQuery     string           `json:"sql_query"`
}

// DatabasePipeline runs the generate -> execute -> classify -> summarize
// chain for natural-language questions about the product catalog.
type DatabasePipeline struct {
	generator QueryGenerator
	executor  QueryExecutor
	narrator  NarrativeGenerator
	logger    *zap.Logger
}

// NewDatabasePipeline creates a database query pipeline.
func NewDatabasePipeline(generator QueryGenerator, executor QueryExecutor, narrator NarrativeGenerator, logger *zap.Logger) *DatabasePipeline {
	return &DatabasePipeline{
		generator: generator,
		executor:  executor,
		narrator:  narrator,
		logger:    logger,
	}
}

// Query translates the prompt to SQL, executes it, and summarizes the rows.
// Every failure is contained here and reported through the Errors field;
// sqlQuery tracks the last known query text so failure payloads can echo it.
// When generation itself fails no query exists yet and the field is empty.
func (p *DatabasePipeline) Query(ctx context.Context, prompt string) DatabaseResponse {
	sqlQuery := ""

	generated, err := p.generator.GenerateQuery(ctx, prompt)
	if err != nil {
		p.logger.Error("SQL generation failed", zap.Error(err))
		return p.failureResponse(sqlQuery, err)
	}
	sqlQuery = generated
	p.logger.Info("Generated SQL", zap.String("sql_query", sqlQuery))

	result, err := p.executor.Execute(ctx, sqlQuery)
	if err != nil {
		p.logger.Error("Query execution failed", zap.String("sql_query", sqlQuery), zap.Error(err))
		return p.failureResponse(sqlQuery, err)
	}
	if result.SQLQuery != "" {
		sqlQuery = result.SQLQuery
	}

	if result.Error != "" {
		errText := "Error: " + result.Error
		return DatabaseResponse{Errors: &errText, SQLQuery: sqlQuery}
	}

	if result.Response == "" {
		// The error field is echoed even on the no-rows branch so callers can
		// see the root cause of a partially failed query.
		noRows := NoProductInfoFound
		errText := "Error: " + result.Error
		return DatabaseResponse{ResponseText: &noRows, Errors: &errText, SQLQuery: sqlQuery}
	}

	records := product.MapRows(result.Response, product.DisplayHeaders)

	narrative, err := p.narrator.Generate(ctx, buildNarrativePrompt(prompt, result.Response))
	if err != nil {
		p.logger.Error("Narrative generation failed", zap.String("sql_query", sqlQuery), zap.Error(err))
		return p.failureResponse(sqlQuery, err)
	}

	p.logger.Info("Database query completed",
		zap.String("sql_query", sqlQuery),
		zap.Int("records", len(records)))

	return DatabaseResponse{
		ResponseText: &narrative,
		Data:         records,
		SQLQuery:     sqlQuery,
	}
}

func (p *DatabasePipeline) failureResponse(sqlQuery string, err error) DatabaseResponse {
	errText := "Database query error: " + err.Error()
	return DatabaseResponse{Errors: &errText, SQLQuery: sqlQuery}
}

// buildNarrativePrompt composes the summarization prompt: task instructions,
// the catalog header legend, then one humanized key/value line per row in
// column order. Column order keeps the prompt deterministic for identical
// query results.
func buildNarrativePrompt(prompt, rawRows string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(narrativeInstructions, prompt, product.ColumnList))

	humanized := strings.Split(product.HumanizeHeaders(product.ColumnList), ",")
	for _, rec := range product.MapRows(rawRows, humanized) {
		b.WriteString("\n")
		pairs := make([]string, 0, len(humanized))
		for _, h := range humanized {
			if v, ok := rec[h]; ok {
				pairs = append(pairs, h+": "+v)
			}
		}
		b.WriteString(strings.Join(pairs, ", "))
	}

	return b.String()
}
