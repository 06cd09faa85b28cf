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

package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	runtimetypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"go.uber.org/zap"
)

// runtimeAPI is the slice of the Bedrock runtime client the generator uses.
type runtimeAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Generator produces text from a Bedrock-hosted model via the Converse API.
// It serves both narrative summarization and SQL generation prompts.
type Generator struct {
	client  runtimeAPI
	modelID string
	logger  *zap.Logger
}

// NewGenerator creates a Bedrock text generator for the given model or
// inference profile identifier.
func NewGenerator(cfg aws.Config, modelID string, logger *zap.Logger) *Generator {
	return &Generator{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		logger:  logger,
	}
}

// Generate implements pipeline.NarrativeGenerator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := g.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(g.modelID),
		Messages: []runtimetypes.Message{
			{
				Role: runtimetypes.ConversationRoleUser,
				Content: []runtimetypes.ContentBlock{
					&runtimetypes.ContentBlockMemberText{Value: prompt},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("converse: %w", err)
	}

	msg, ok := out.Output.(*runtimetypes.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("converse: unexpected output type %T", out.Output)
	}

	for _, block := range msg.Value.Content {
		if text, ok := block.(*runtimetypes.ContentBlockMemberText); ok {
			return text.Value, nil
		}
	}

	return "", fmt.Errorf("converse: no text content in model response")
}
