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

package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSources_Empty(t *testing.T) {
	assert.Empty(t, FormatSources(nil))
	assert.Empty(t, FormatSources([]Citation{}))
}

func TestFormatSources_OneSourcePerReference(t *testing.T) {
	citations := []Citation{
		{
			GeneratedResponsePart: GeneratedResponsePart{
				TextResponsePart: TextResponsePart{
					Span: &Span{Start: 0, End: 10},
					Text: "first claim",
				},
			},
			RetrievedReferences: []RetrievedReference{
				{
					Content:  Content{Text: "passage one"},
					Location: Location{Web: &WebLocation{URL: "https://a.example.com"}},
					Metadata: map[string]any{"page": float64(3)},
				},
				{
					Content:  Content{Text: "passage two"},
					Location: Location{S3: &S3Location{URI: "s3://bucket/two"}},
				},
			},
		},
		{
			GeneratedResponsePart: GeneratedResponsePart{
				TextResponsePart: TextResponsePart{
					Span: &Span{Start: 11, End: 20},
					Text: "second claim",
				},
			},
			RetrievedReferences: []RetrievedReference{
				{
					Content:  Content{Text: "passage three"},
					Location: Location{},
				},
			},
		},
	}

	sources := FormatSources(citations)
	require.Len(t, sources, 3)

	// Citation order, then reference order within each citation.
	assert.Equal(t, "https://a.example.com", sources[0].SourceURL)
	assert.Equal(t, "s3://bucket/two", sources[1].SourceURL)
	assert.Equal(t, NoSourceURL, sources[2].SourceURL)

	assert.Equal(t, "passage one", sources[0].PageContent)
	assert.Equal(t, "passage two", sources[1].PageContent)
	assert.Equal(t, "passage three", sources[2].PageContent)

	// References under the same citation share its attributed span and text.
	assert.Equal(t, "first claim", sources[0].SourceText)
	assert.Equal(t, "first claim", sources[1].SourceText)
	assert.Equal(t, sources[0].SourceTextSpan, sources[1].SourceTextSpan)
	assert.Equal(t, "second claim", sources[2].SourceText)

	assert.Equal(t, map[string]any{"page": float64(3)}, sources[0].Metadata)
}

func TestFormatSources_Sentinels(t *testing.T) {
	citations := []Citation{
		{
			RetrievedReferences: []RetrievedReference{
				{Location: Location{}},
			},
		},
	}

	sources := FormatSources(citations)
	require.Len(t, sources, 1)
	assert.Equal(t, NoExtractedText, sources[0].SourceText)
	assert.Equal(t, NoContentAvailable, sources[0].PageContent)
	assert.Equal(t, NoSourceURL, sources[0].SourceURL)
	assert.Nil(t, sources[0].SourceTextSpan)
}

func TestFormatSources_CitationWithoutReferences(t *testing.T) {
	citations := []Citation{
		{
			GeneratedResponsePart: GeneratedResponsePart{
				TextResponsePart: TextResponsePart{Text: "orphan claim"},
			},
		},
	}

	// A citation with no retrieved references contributes no sources.
	assert.Empty(t, FormatSources(citations))
}
