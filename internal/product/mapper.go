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

// Package product maps raw tabular query output onto the fixed drug-product
// schema. The catalog exposes one row per product with 24 columns; values are
// kept as text, no type coercion happens here.
package product

import "strings"

// ColumnList is the canonical comma-joined snake_case column list of the
// product catalog, in catalog order. It keys the structured records returned
// to clients and doubles as the header legend embedded in narrative prompts.
const ColumnList = "proprietary_name,ndc_product_code,product_type_name,product_kits_flag,strength,dosage_name,market_category_name,market_status,product_market_status,fda_approved,product_fee_status,market_start_date,market_end_date,discontinue_date,submission_date,labeler_firm_name,labeler_firm_duns,labeler_ndc_code,registrant_firm_name,registrant_firm_duns,document_num,doc_type_code,applicant_firm_name,application_number"

// DisplayHeaders are the client-facing field names for a product record. They
// must stay aligned, position for position, with ColumnList or the structured
// payload and the narrative prompt drift apart.
var DisplayHeaders = []string{
	"Proprietary Name",
	"NDC Product Code",
	"Product Type Name",
	"Product Kits Flag",
	"Strength",
	"Dosage Name",
	"Market Category Name",
	"Market Status",
	"Product Market Status",
	"FDA Approved",
	"Product Fee Status",
	"Market Start Date",
	"Market End Date",
	"Discontinue Date",
	"Submission Date",
	"Labeler Firm Name",
	"Labeler Firm DUNS",
	"Labeler NDC Code",
	"Registrant Firm Name",
	"Registrant Firm DUNS",
	"Document Number",
	"Document Type Code",
	"Applicant Firm Name",
	"Application Number",
}

// Record is one product row keyed by display header.
type Record map[string]string

// MapRows splits a raw comma-delimited text block into records, zipping each
// row positionally against headers. Rows are split on newline after trailing
// whitespace is trimmed. There is no quoting or escaping: a comma inside a
// field value shifts everything after it, and a short row simply produces a
// record without the trailing keys. Both are accepted limitations of the
// upstream format, not conditions this function corrects.
func MapRows(rawText string, headers []string) []Record {
	rows := strings.Split(strings.TrimRight(rawText, " \t\r\n"), "\n")
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		fields := strings.Split(row, ",")
		rec := make(Record, len(headers))
		for i, h := range headers {
			if i >= len(fields) {
				break
			}
			rec[h] = fields[i]
		}
		records = append(records, rec)
	}
	return records
}

// HumanizeHeaders turns a comma-joined snake_case header list into Title Case
// ("proprietary_name,ndc_product_code" -> "Proprietary Name,Ndc Product
// Code"). Used only to label per-row dictionaries inside narrative prompts;
// the structured payload uses DisplayHeaders instead.
func HumanizeHeaders(snakeHeaders string) string {
	cols := strings.Split(snakeHeaders, ",")
	for i, col := range cols {
		words := strings.Split(col, "_")
		for j, w := range words {
			if w == "" {
				continue
			}
			words[j] = strings.ToUpper(w[:1]) + w[1:]
		}
		cols[i] = strings.Join(words, " ")
	}
	return strings.Join(cols, ",")
}
