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

package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pharma-assistant/internal/pipeline"
	"go.uber.org/zap/zaptest"
)

type fakeChatAPI struct {
	response openai.ChatCompletionResponse
	err      error
	request  openai.ChatCompletionRequest
}

func (f *fakeChatAPI) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.request = request
	return f.response, f.err
}

// The OpenAI generator must be usable anywhere the Bedrock one is.
var _ pipeline.NarrativeGenerator = (*OpenAIGenerator)(nil)

func TestNewOpenAIGenerator_Validation(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewOpenAIGenerator("", "gpt-4o", logger)
	assert.Error(t, err)

	_, err = NewOpenAIGenerator("not-a-key", "gpt-4o", logger)
	assert.Error(t, err)

	g, err := NewOpenAIGenerator("sk-test-key", "", logger)
	require.NoError(t, err)
	assert.Equal(t, openai.GPT4o, g.model)
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	api := &fakeChatAPI{
		response: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "summary text"}},
			},
		},
	}
	g := &OpenAIGenerator{client: api, model: "gpt-4o", logger: zaptest.NewLogger(t)}

	out, err := g.Generate(context.Background(), "summarize")
	require.NoError(t, err)
	assert.Equal(t, "summary text", out)
	assert.Equal(t, "gpt-4o", api.request.Model)
	require.Len(t, api.request.Messages, 1)
	assert.Equal(t, "summarize", api.request.Messages[0].Content)
}

func TestOpenAIGenerator_NoChoices(t *testing.T) {
	g := &OpenAIGenerator{client: &fakeChatAPI{}, model: "gpt-4o", logger: zaptest.NewLogger(t)}

	_, err := g.Generate(context.Background(), "summarize")
	assert.Error(t, err)
}

func TestOpenAIGenerator_APIError(t *testing.T) {
	g := &OpenAIGenerator{client: &fakeChatAPI{err: errors.New("rate limited")}, model: "gpt-4o", logger: zaptest.NewLogger(t)}

	_, err := g.Generate(context.Background(), "summarize")
	assert.Error(t, err)
}
