// Package query answers questions against the knowledge graph. A question is
// turned into an ordered list of Cypher plans, the first plan that returns
// rows wins, and its rows become evidence lines and a subgraph for display.
package query

import (
	"context"

	"github.com/OFFIS-RIT/animekg/backend/pkg/intent"
	"github.com/OFFIS-RIT/animekg/backend/pkg/ner"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
)

// EntityRef names one resolved entity.
type EntityRef struct {
	Name string            `json:"name"`
	Type schema.EntityType `json:"type"`
}

// Plan is one parameterized graph query. Plans are built once per question
// and never modified afterwards.
type Plan struct {
	Name   string
	Cypher string
	Params map[string]any
}

// EntityResolver recognises entities in question text.
type EntityResolver interface {
	Resolve(ctx context.Context, text string) ner.Entities
}

// IntentClassifier derives the structured intent of a question.
type IntentClassifier interface {
	Classify(ctx context.Context, query string, entities map[schema.EntityType][]string) intent.Intent
}

// AnswerSynthesizer phrases the final answer from evidence lines.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, query string, lines []string) string
}
