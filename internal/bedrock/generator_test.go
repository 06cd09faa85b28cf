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
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	runtimetypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRuntime struct {
	output *bedrockruntime.ConverseOutput
	err    error
	input  *bedrockruntime.ConverseInput
}

func (f *fakeRuntime) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	return f.output, f.err
}

func newTestGenerator(api runtimeAPI, t *testing.T) *Generator {
	return &Generator{
		client:  api,
		modelID: "model-1",
		logger:  zaptest.NewLogger(t),
	}
}

func TestGenerator_ReturnsFirstTextBlock(t *testing.T) {
	api := &fakeRuntime{
		output: &bedrockruntime.ConverseOutput{
			Output: &runtimetypes.ConverseOutputMemberMessage{
				Value: runtimetypes.Message{
					Role: runtimetypes.ConversationRoleAssistant,
					Content: []runtimetypes.ContentBlock{
						&runtimetypes.ContentBlockMemberText{Value: "generated text"},
					},
				},
			},
		},
	}
	g := newTestGenerator(api, t)

	out, err := g.Generate(context.Background(), "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "generated text", out)

	require.NotNil(t, api.input)
	assert.Equal(t, "model-1", aws.ToString(api.input.ModelId))
	require.Len(t, api.input.Messages, 1)
	assert.Equal(t, runtimetypes.ConversationRoleUser, api.input.Messages[0].Role)
}

func TestGenerator_NoTextContent(t *testing.T) {
	api := &fakeRuntime{
		output: &bedrockruntime.ConverseOutput{
			Output: &runtimetypes.ConverseOutputMemberMessage{
				Value: runtimetypes.Message{},
			},
		},
	}
	g := newTestGenerator(api, t)

	_, err := g.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestGenerator_InvocationFailure(t *testing.T) {
	g := newTestGenerator(&fakeRuntime{err: errors.New("model not ready")}, t)

	_, err := g.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}
