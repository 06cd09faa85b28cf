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

	"github.com/your-org/pharma-assistant/internal/citation"
	"go.uber.org/zap"
)

const (
	// NoResponseGenerated is returned when retrieval produced no answer text.
	NoResponseGenerated = "No response generated"
	// KnowledgeBaseErrorText is the whole payload for a failed document query.
	// Document mode reports failures as a bare string rather than a structured
	// object; this asymmetry with database mode is part of the client contract.
	KnowledgeBaseErrorText = "Error querying knowledge base"
)

// DocumentResponse is the payload for a successful document-mode query.
type DocumentResponse struct {
	Response string                      `json:"response"`
	Sources  []citation.NormalizedSource `json:"sources"`
}

// DocumentPipeline answers prompts from the document knowledge base and
// attaches normalized source citations.
type DocumentPipeline struct {
	retriever RetrieveGenerator
	logger    *zap.Logger
}

// NewDocumentPipeline creates a document query pipeline.
func NewDocumentPipeline(retriever RetrieveGenerator, logger *zap.Logger) *DocumentPipeline {
	return &DocumentPipeline{
		retriever: retriever,
		logger:    logger,
	}
}

// Query runs the prompt through retrieval-augmented generation. On success
// the result is a DocumentResponse; on a retrieval failure it is the plain
// error string KnowledgeBaseErrorText.
func (p *DocumentPipeline) Query(ctx context.Context, prompt string) any {
	result, err := p.retriever.RetrieveAndGenerate(ctx, prompt)
	if err != nil {
		p.logger.Error("Knowledge base query failed", zap.Error(err))
		return KnowledgeBaseErrorText
	}

	text := result.OutputText
	if text == "" {
		text = NoResponseGenerated
	}

	sources := citation.FormatSources(result.Citations)
	p.logger.Info("Knowledge base query completed",
		zap.Int("citations", len(result.Citations)),
		zap.Int("sources", len(sources)))

	return DocumentResponse{
		Response: text,
		Sources:  sources,
	}
}
