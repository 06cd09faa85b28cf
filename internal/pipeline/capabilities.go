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

// Package pipeline implements the dual-mode query pipelines and the mode
// dispatcher that selects between them. The external capabilities each
// pipeline depends on (retrieval, query generation, query execution,
// narrative generation) are injected as interfaces so deployments can swap
// providers and tests can substitute fakes.
package pipeline

import (
	"context"

	"github.com/your-org/pharma-assistant/internal/citation"
)

// RetrievalResult is the answer produced by the retrieval-augmented
// generation capability together with the citations that back it.
type RetrievalResult struct {
	OutputText string
	Citations  []citation.Citation
}

// RetrieveGenerator answers a prompt from the document knowledge base.
type RetrieveGenerator interface {
	RetrieveAndGenerate(ctx context.Context, prompt string) (*RetrievalResult, error)
}

// QueryGenerator translates a natural-language prompt into a structured
// query against the product catalog.
type QueryGenerator interface {
	GenerateQuery(ctx context.Context, prompt string) (string, error)
}

// ExecutionResult is the outcome of running one structured query. Response
// and Error are not simultaneously meaningful; callers check Error first.
// SQLQuery echoes the query that was run.
type ExecutionResult struct {
	Response string
	Error    string
	SQLQuery string
}

// QueryExecutor runs a structured query against the product catalog.
type QueryExecutor interface {
	Execute(ctx context.Context, sqlQuery string) (ExecutionResult, error)
}

// NarrativeGenerator turns a composed prompt into narrative text.
type NarrativeGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
