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

const (
	// NoContentAvailable is used when a retrieved reference has no text body.
	NoContentAvailable = "No content available"
	// NoExtractedText is used when a citation carries no attributed answer text.
	NoExtractedText = "No extracted text"
)

// Span marks the character range of the answer attributed to a citation.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// TextResponsePart is the attributed slice of the generated answer.
type TextResponsePart struct {
	Span *Span  `json:"span,omitempty"`
	Text string `json:"text,omitempty"`
}

// GeneratedResponsePart wraps the attributed answer slice.
type GeneratedResponsePart struct {
	TextResponsePart TextResponsePart `json:"textResponsePart"`
}

// Content is the text body of a retrieved reference.
type Content struct {
	Text string `json:"text,omitempty"`
}

// RetrievedReference is one source passage backing a citation.
type RetrievedReference struct {
	Content  Content        `json:"content"`
	Location Location       `json:"location"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Citation links an attributed span of the generated answer to the retrieved
// references that support it.
type Citation struct {
	GeneratedResponsePart GeneratedResponsePart `json:"generatedResponsePart"`
	RetrievedReferences   []RetrievedReference  `json:"retrievedReferences"`
}

// NormalizedSource is the flattened, client-facing form of one retrieved
// reference. SourceURL is always populated, falling back to NoSourceURL.
type NormalizedSource struct {
	SourceTextSpan *Span          `json:"source_text_span"`
	SourceText     string         `json:"source_text"`
	SourceURL      string         `json:"source_url"`
	PageContent    string         `json:"page_content"`
	Metadata       map[string]any `json:"metadata"`
}

// FormatSources flattens citations into normalized source entries, one per
// retrieved reference. Citation order and reference order within a citation
// are preserved; references under the same citation share its attributed span
// and text.
func FormatSources(citations []Citation) []NormalizedSource {
	sources := make([]NormalizedSource, 0, len(citations))
	for _, c := range citations {
		text := c.GeneratedResponsePart.TextResponsePart.Text
		if text == "" {
			text = NoExtractedText
		}
		for _, ref := range c.RetrievedReferences {
			content := ref.Content.Text
			if content == "" {
				content = NoContentAvailable
			}
			sources = append(sources, NormalizedSource{
				SourceTextSpan: c.GeneratedResponsePart.TextResponsePart.Span,
				SourceText:     text,
				SourceURL:      ref.Location.SourceURL(),
				PageContent:    content,
				Metadata:       ref.Metadata,
			})
		}
	}
	return sources
}
