package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/pkg/ai"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
)

type ClassifierParams struct {
	Client     ai.GraphAIClient
	Schema     *schema.Schema
	Timeout    time.Duration
	Structured bool
	// Model overrides the client's default model for both text and
	// structured classification.
	Model string
}

// Classifier asks the language model for the intent of a question.
type Classifier struct {
	client     ai.GraphAIClient
	schema     *schema.Schema
	timeout    time.Duration
	structured bool
	model      string
}

func NewClassifier(params ClassifierParams) *Classifier {
	s := params.Schema
	if s == nil {
		s = schema.Default()
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Classifier{
		client:     params.Client,
		schema:     s,
		timeout:    timeout,
		structured: params.Structured,
		model:      params.Model,
	}
}

// Classify returns the intent of query. It never fails: without a model, or
// when the model misbehaves, the empty intent is returned.
func (c *Classifier) Classify(ctx context.Context, query string, entities map[schema.EntityType][]string) Intent {
	if c == nil || c.client == nil {
		return Empty()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := fmt.Sprintf(ai.IntentPrompt, c.relationSchema(), formatEntities(entities), query)
	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(ai.IntentSystemPrompt),
		ai.WithTemperature(0),
	}
	if c.model != "" {
		opts = append(opts, ai.WithModel(c.model))
	}

	if c.structured {
		var raw Raw
		err := c.client.GenerateCompletionWithFormat(ctx, "query_intent", "Structured intent of a knowledge graph question", prompt, &raw, opts...)
		if err == nil {
			return raw.DecodeWith(c.schema)
		}
		logger.Warn("Structured intent failed, falling back to text", "err", err)
	}

	reply, err := c.client.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		logger.Error("Intent classification failed", "err", err)
		return Empty()
	}
	it := ParseWith(reply, c.schema)
	logger.Debug("Intent classified", "reply", reply, "mode", it.Mode)
	return it
}

func (c *Classifier) relationSchema() string {
	var b strings.Builder
	sections := []struct {
		title string
		group string
	}{
		{"Work 相关关系", schema.GroupWork},
		{"Character 属性关系", schema.GroupCharacterAttribute},
		{"Character 人物关系", schema.GroupCharacterRelation},
	}
	for _, sec := range sections {
		fmt.Fprintf(&b, "【%s】\n", sec.title)
		for _, r := range c.schema.RelationsInGroup(sec.group) {
			fmt.Fprintf(&b, "- %s\n", r.Name)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatEntities(entities map[schema.EntityType][]string) string {
	if len(entities) == 0 {
		return "（无）"
	}
	var lines []string
	for _, t := range schema.PriorityOrder {
		names := entities[t]
		if len(names) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", t, strings.Join(names, "、")))
	}
	if len(lines) == 0 {
		return "（无）"
	}
	return strings.Join(lines, "\n")
}
