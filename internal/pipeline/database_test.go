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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pharma-assistant/internal/product"
	"go.uber.org/zap/zaptest"
)

type fakeRetriever struct {
	result *RetrievalResult
	err    error
}

func (f *fakeRetriever) RetrieveAndGenerate(ctx context.Context, prompt string) (*RetrievalResult, error) {
	return f.result, f.err
}

type fakeQueryGenerator struct {
	sql string
	err error
}

func (f *fakeQueryGenerator) GenerateQuery(ctx context.Context, prompt string) (string, error) {
	return f.sql, f.err
}

type fakeExecutor struct {
	result ExecutionResult
	err    error
}

func (f *fakeExecutor) Execute(ctx context.Context, sqlQuery string) (ExecutionResult, error) {
	return f.result, f.err
}

type fakeNarrator struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeNarrator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

// productRows builds n full catalog rows.
func productRows(n int) string {
	rows := make([]string, n)
	for r := range rows {
		fields := make([]string, 24)
		for i := range fields {
			fields[i] = fmt.Sprintf("r%dc%d", r, i)
		}
		rows[r] = strings.Join(fields, ",")
	}
	return strings.Join(rows, "\n")
}

func newDatabasePipeline(t *testing.T, gen QueryGenerator, exec QueryExecutor, narrator NarrativeGenerator) *DatabasePipeline {
	return NewDatabasePipeline(gen, exec, narrator, zaptest.NewLogger(t))
}

func TestDatabasePipeline_ExecutionError(t *testing.T) {
	p := newDatabasePipeline(t,
		&fakeQueryGenerator{sql: "SELECT * FROM products"},
		&fakeExecutor{result: ExecutionResult{Error: "timeout", SQLQuery: "SELECT * FROM products"}},
		&fakeNarrator{},
	)

	resp := p.Query(context.Background(), "what products exist?")

	assert.Nil(t, resp.ResponseText)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Errors)
	assert.Equal(t, "Error: timeout", *resp.Errors)
	assert.Equal(t, "SELECT * FROM products", resp.SQLQuery)
}

func TestDatabasePipeline_EmptyResult(t *testing.T) {
	p := newDatabasePipeline(t,
		&fakeQueryGenerator{sql: "SELECT * FROM products WHERE 1=0"},
		&fakeExecutor{result: ExecutionResult{SQLQuery: "SELECT * FROM products WHERE 1=0"}},
		&fakeNarrator{},
	)

	resp := p.Query(context.Background(), "find nothing")

	require.NotNil(t, resp.ResponseText)
	assert.Equal(t, NoProductInfoFound, *resp.ResponseText)
	assert.Nil(t, resp.Data)
	// The error field is echoed even on the no-rows branch.
	require.NotNil(t, resp.Errors)
	assert.Equal(t, "Error: ", *resp.Errors)
	assert.Equal(t, "SELECT * FROM products WHERE 1=0", resp.SQLQuery)
}

func TestDatabasePipeline_Success(t *testing.T) {
	narrator := &fakeNarrator{out: "Two products were found."}
	p := newDatabasePipeline(t,
		&fakeQueryGenerator{sql: "SELECT * FROM products"},
		&fakeExecutor{result: ExecutionResult{
			Response: productRows(2),
			SQLQuery: "SELECT * FROM products",
		}},
		narrator,
	)

	resp := p.Query(context.Background(), "list all products")

	require.NotNil(t, resp.ResponseText)
	assert.Equal(t, "Two products were found.", *resp.ResponseText)
	assert.Nil(t, resp.Errors)
	require.Len(t, resp.Data, 2)
	assert.Len(t, resp.Data[0], 24)
	assert.Equal(t, "r0c0", resp.Data[0]["Proprietary Name"])
	assert.Equal(t, "r1c23", resp.Data[1]["Application Number"])
	assert.Equal(t, "SELECT * FROM products", resp.SQLQuery)
}

func TestDatabasePipeline_NarrativePromptContents(t *testing.T) {
	narrator := &fakeNarrator{out: "summary"}
	p := newDatabasePipeline(t,
		&fakeQueryGenerator{sql: "SELECT * FROM products"},
		&fakeExecutor{result: ExecutionResult{Response: productRows(1), SQLQuery: "SELECT * FROM products"}},
		narrator,
	)

	p.Query(context.Background(), "tell me about aspirin")

	require.Len(t, narrator.prompts, 1)
	prompt := narrator.prompts[0]
	assert.Contains(t, prompt, "The user asked you: tell me about aspirin.")
	assert.Contains(t, prompt, product.ColumnList)
	// Humanized headers label the row values.
	assert.Contains(t, prompt, "Proprietary Name: r0c0")
	assert.Contains(t, prompt, "Application Number: r0c23")
}

func TestDatabasePipeline_GenerationFailure(t *testing.T) {
	p := newDatabasePipeline(t,
		&fakeQueryGenerator{err: errors.New("model unavailable")},
		&fakeExecutor{},
		&fakeNarrator{},
	)

	resp := p.Query(context.Background(), "anything")

	assert.Nil(t, resp.ResponseText)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Errors)
	assert.Equal(t, "Database query error: model unavailable", *resp.Errors)
	// No query was generated yet; the field stays empty rather than undefined.
	assert.Equal(t, "", resp.SQLQuery)
}

func TestDatabasePipeline_ExecutorInvocationFailure(t *testing.T) {
	p := newDatabasePipeline(t,
		&fakeQueryGenerator{sql: "SELECT 1"},
		&fakeExecutor{err: errors.New("connection refused")},
		&fakeNarrator{},
	)

	resp := p.Query(context.Background(), "anything")

	require.NotNil(t, resp.Errors)
	assert.Equal(t, "Database query error: connection refused", *resp.Errors)
	assert.Equal(t, "SELECT 1", resp.SQLQuery)
}

func TestDatabasePipeline_NarrativeFailure(t *testing.T) {
	p := newDatabasePipeline(t,
		&fakeQueryGenerator{sql: "SELECT * FROM products"},
		&fakeExecutor{result: ExecutionResult{Response: productRows(1), SQLQuery: "SELECT * FROM products"}},
		&fakeNarrator{err: errors.New("throttled")},
	)

	resp := p.Query(context.Background(), "anything")

	assert.Nil(t, resp.ResponseText)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Errors)
	assert.Equal(t, "Database query error: throttled", *resp.Errors)
	assert.Equal(t, "SELECT * FROM products", resp.SQLQuery)
}

func TestDatabasePipeline_Idempotent(t *testing.T) {
	p := newDatabasePipeline(t,
		&fakeQueryGenerator{sql: "SELECT * FROM products"},
		&fakeExecutor{result: ExecutionResult{Response: productRows(3), SQLQuery: "SELECT * FROM products"}},
		&fakeNarrator{out: "stable summary"},
	)

	first, err := json.Marshal(p.Query(context.Background(), "list products"))
	require.NoError(t, err)
	second, err := json.Marshal(p.Query(context.Background(), "list products"))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}
