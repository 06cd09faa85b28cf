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

// Package citation normalizes retrieval citations into the source entries
// delivered to clients. A retrieved reference carries its origin in one of
// several mutually exclusive location schemas; this package folds them into a
// single canonical source URL.
package citation

// NoSourceURL is returned when a location carries none of the known schemas.
const NoSourceURL = "No source URL"

// WebLocation points at a crawled web page.
type WebLocation struct {
	URL string `json:"url,omitempty"`
}

// ConfluenceLocation points at a Confluence page.
type ConfluenceLocation struct {
	URL string `json:"url,omitempty"`
}

// SalesforceLocation points at a Salesforce article.
type SalesforceLocation struct {
	URL string `json:"url,omitempty"`
}

// SharePointLocation points at a SharePoint document.
type SharePointLocation struct {
	URL string `json:"url,omitempty"`
}

// KendraDocumentLocation points at a document indexed in Kendra.
type KendraDocumentLocation struct {
	URI string `json:"uri,omitempty"`
}

// S3Location points at an object in S3.
type S3Location struct {
	URI string `json:"uri,omitempty"`
}

// CustomDocumentLocation identifies a document ingested through the custom
// document API, which has no resolvable URL.
type CustomDocumentLocation struct {
	ID string `json:"id,omitempty"`
}

// SQLLocation carries the query text that produced a structured-data source.
type SQLLocation struct {
	Query string `json:"query,omitempty"`
}

// Location is the tagged union of source schemas a retrieved reference may
// carry. At most one variant is populated for a given reference.
type Location struct {
	Type           string                  `json:"type,omitempty"`
	Web            *WebLocation            `json:"webLocation,omitempty"`
	Confluence     *ConfluenceLocation     `json:"confluenceLocation,omitempty"`
	Salesforce     *SalesforceLocation     `json:"salesforceLocation,omitempty"`
	SharePoint     *SharePointLocation     `json:"sharePointLocation,omitempty"`
	KendraDocument *KendraDocumentLocation `json:"kendraDocumentLocation,omitempty"`
	S3             *S3Location             `json:"s3Location,omitempty"`
	CustomDocument *CustomDocumentLocation `json:"customDocumentLocation,omitempty"`
	SQL            *SQLLocation            `json:"sqlLocation,omitempty"`
}

// SourceURL resolves the single canonical identifier for a location. Variants
// are tried in a fixed priority order, human-navigable sources before raw
// storage locators, and the first non-empty value wins. The order is part of
// the output contract and must not be reordered.
func (l Location) SourceURL() string {
	if l.Web != nil && l.Web.URL != "" {
		return l.Web.URL
	}
	if l.Confluence != nil && l.Confluence.URL != "" {
		return l.Confluence.URL
	}
	if l.Salesforce != nil && l.Salesforce.URL != "" {
		return l.Salesforce.URL
	}
	if l.SharePoint != nil && l.SharePoint.URL != "" {
		return l.SharePoint.URL
	}
	if l.KendraDocument != nil && l.KendraDocument.URI != "" {
		return l.KendraDocument.URI
	}
	if l.S3 != nil && l.S3.URI != "" {
		return l.S3.URI
	}
	if l.CustomDocument != nil && l.CustomDocument.ID != "" {
		return l.CustomDocument.ID
	}
	if l.SQL != nil && l.SQL.Query != "" {
		return l.SQL.Query
	}
	return NoSourceURL
}
