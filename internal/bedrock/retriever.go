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

// Package bedrock implements the retrieval and language-model capabilities on
// AWS Bedrock. The knowledge base retriever wraps the agent runtime
// RetrieveAndGenerate API; the generator wraps the runtime Converse API.
package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/document"
	"github.com/your-org/pharma-assistant/internal/citation"
	"github.com/your-org/pharma-assistant/internal/pipeline"
	"go.uber.org/zap"
)

// agentRuntimeAPI is the slice of the Bedrock agent runtime client the
// retriever uses, kept as an interface so tests can fake it.
type agentRuntimeAPI interface {
	RetrieveAndGenerate(ctx context.Context, params *bedrockagentruntime.RetrieveAndGenerateInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error)
}

// Retriever answers prompts from a Bedrock knowledge base. The knowledge base
// and model identifiers are deployment configuration, never user input.
type Retriever struct {
	client          agentRuntimeAPI
	knowledgeBaseID string
	modelARN        string
	logger          *zap.Logger
}

// NewRetriever creates a knowledge base retriever.
func NewRetriever(cfg aws.Config, knowledgeBaseID, modelARN string, logger *zap.Logger) *Retriever {
	return &Retriever{
		client:          bedrockagentruntime.NewFromConfig(cfg),
		knowledgeBaseID: knowledgeBaseID,
		modelARN:        modelARN,
		logger:          logger,
	}
}

// RetrieveAndGenerate implements pipeline.RetrieveGenerator.
func (r *Retriever) RetrieveAndGenerate(ctx context.Context, prompt string) (*pipeline.RetrievalResult, error) {
	out, err := r.client.RetrieveAndGenerate(ctx, &bedrockagentruntime.RetrieveAndGenerateInput{
		Input: &agenttypes.RetrieveAndGenerateInput{
			Text: aws.String(prompt),
		},
		RetrieveAndGenerateConfiguration: &agenttypes.RetrieveAndGenerateConfiguration{
			Type: agenttypes.RetrieveAndGenerateTypeKnowledgeBase,
			KnowledgeBaseConfiguration: &agenttypes.KnowledgeBaseRetrieveAndGenerateConfiguration{
				KnowledgeBaseId: aws.String(r.knowledgeBaseID),
				ModelArn:        aws.String(r.modelARN),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve and generate: %w", err)
	}

	result := &pipeline.RetrievalResult{}
	if out.Output != nil {
		result.OutputText = aws.ToString(out.Output.Text)
	}
	result.Citations = convertCitations(out.Citations)

	r.logger.Debug("Knowledge base responded",
		zap.String("knowledge_base_id", r.knowledgeBaseID),
		zap.Int("citations", len(result.Citations)))

	return result, nil
}

// convertCitations maps SDK citation records onto the internal citation
// types, preserving citation and reference order.
func convertCitations(in []agenttypes.Citation) []citation.Citation {
	out := make([]citation.Citation, 0, len(in))
	for _, c := range in {
		var converted citation.Citation
		if c.GeneratedResponsePart != nil && c.GeneratedResponsePart.TextResponsePart != nil {
			part := c.GeneratedResponsePart.TextResponsePart
			converted.GeneratedResponsePart.TextResponsePart.Text = aws.ToString(part.Text)
			if part.Span != nil {
				converted.GeneratedResponsePart.TextResponsePart.Span = &citation.Span{
					Start: int(aws.ToInt32(part.Span.Start)),
					End:   int(aws.ToInt32(part.Span.End)),
				}
			}
		}
		for _, ref := range c.RetrievedReferences {
			converted.RetrievedReferences = append(converted.RetrievedReferences, convertReference(ref))
		}
		out = append(out, converted)
	}
	return out
}

func convertReference(ref agenttypes.RetrievedReference) citation.RetrievedReference {
	var out citation.RetrievedReference
	if ref.Content != nil {
		out.Content.Text = aws.ToString(ref.Content.Text)
	}
	if ref.Location != nil {
		out.Location = convertLocation(*ref.Location)
	}
	out.Metadata = decodeMetadata(ref.Metadata)
	return out
}

func convertLocation(loc agenttypes.RetrievalResultLocation) citation.Location {
	out := citation.Location{Type: string(loc.Type)}
	if loc.WebLocation != nil {
		out.Web = &citation.WebLocation{URL: aws.ToString(loc.WebLocation.Url)}
	}
	if loc.ConfluenceLocation != nil {
		out.Confluence = &citation.ConfluenceLocation{URL: aws.ToString(loc.ConfluenceLocation.Url)}
	}
	if loc.SalesforceLocation != nil {
		out.Salesforce = &citation.SalesforceLocation{URL: aws.ToString(loc.SalesforceLocation.Url)}
	}
	if loc.SharePointLocation != nil {
		out.SharePoint = &citation.SharePointLocation{URL: aws.ToString(loc.SharePointLocation.Url)}
	}
	if loc.KendraDocumentLocation != nil {
		out.KendraDocument = &citation.KendraDocumentLocation{URI: aws.ToString(loc.KendraDocumentLocation.Uri)}
	}
	if loc.S3Location != nil {
		out.S3 = &citation.S3Location{URI: aws.ToString(loc.S3Location.Uri)}
	}
	if loc.CustomDocumentLocation != nil {
		out.CustomDocument = &citation.CustomDocumentLocation{ID: aws.ToString(loc.CustomDocumentLocation.Id)}
	}
	if loc.SqlLocation != nil {
		out.SQL = &citation.SQLLocation{Query: aws.ToString(loc.SqlLocation.Query)}
	}
	return out
}

// decodeMetadata converts smithy document values into plain JSON-compatible
// values. Entries that fail to decode are dropped rather than failing the
// whole citation.
func decodeMetadata(in map[string]document.Interface) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, doc := range in {
		var v any
		if err := doc.UnmarshalSmithyDocument(&v); err != nil {
			continue
		}
		out[k] = v
	}
	return out
}
