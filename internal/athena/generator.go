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

package athena

import (
	"context"
	"fmt"
	"strings"

	"github.com/your-org/pharma-assistant/internal/pipeline"
	"github.com/your-org/pharma-assistant/internal/product"
	"go.uber.org/zap"
)

// queryPromptTemplate instructs the model to emit exactly one SELECT against
// the catalog table. The column legend keeps generated queries aligned with
// the fixed product schema.
const queryPromptTemplate = "You translate questions about FDA drug products into SQL. " +
	"The table %s.%s has these columns, all typed as strings: %s. " +
	"Write a single Presto SQL SELECT statement answering the question below. " +
	"Select all columns in table order. Respond with only the SQL statement, " +
	"no explanation and no formatting.\n\nQuestion: %s"

// SQLGenerator turns natural-language prompts into SQL for the product
// catalog by composing a schema-bearing prompt for the language model.
type SQLGenerator struct {
	llm      pipeline.NarrativeGenerator
	database string
	table    string
	logger   *zap.Logger
}

// NewSQLGenerator creates a SQL generator over the given model capability.
func NewSQLGenerator(llm pipeline.NarrativeGenerator, database, table string, logger *zap.Logger) *SQLGenerator {
	return &SQLGenerator{
		llm:      llm,
		database: database,
		table:    table,
		logger:   logger,
	}
}

// GenerateQuery implements pipeline.QueryGenerator.
func (g *SQLGenerator) GenerateQuery(ctx context.Context, prompt string) (string, error) {
	composed := fmt.Sprintf(queryPromptTemplate, g.database, g.table, product.ColumnList, prompt)

	raw, err := g.llm.Generate(ctx, composed)
	if err != nil {
		return "", fmt.Errorf("generate query: %w", err)
	}

	sqlQuery := stripFormatting(raw)
	if sqlQuery == "" {
		return "", fmt.Errorf("generate query: model returned no statement")
	}

	g.logger.Debug("SQL generated",
		zap.String("database", g.database),
		zap.String("table", g.table),
		zap.String("sql_query", sqlQuery))

	return sqlQuery, nil
}

// stripFormatting removes markdown code fences and surrounding whitespace
// models tend to wrap statements in, despite instructions.
func stripFormatting(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```sql")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
