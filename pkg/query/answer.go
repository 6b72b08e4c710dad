package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/pkg/ai"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
)

// RefusalAnswer is returned whenever the graph holds no usable evidence or
// no answer can be phrased.
const RefusalAnswer = "Cannot answer from known information."

type SynthesizerParams struct {
	Client ai.GraphAIClient
	// Timeout bounds a single model call.
	Timeout time.Duration
	// TemplateFallback answers with the first evidence line when the model
	// is unavailable instead of refusing.
	TemplateFallback bool
	// Thinking is passed to the model as the reasoning setting when set.
	Thinking string
}

// Synthesizer phrases answers from evidence with a language model.
type Synthesizer struct {
	client           ai.GraphAIClient
	timeout          time.Duration
	templateFallback bool
	thinking         string
}

func NewSynthesizer(params SynthesizerParams) *Synthesizer {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Synthesizer{
		client:           params.Client,
		timeout:          timeout,
		templateFallback: params.TemplateFallback,
		thinking:         params.Thinking,
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, query string, lines []string) string {
	if len(lines) == 0 {
		return RefusalAnswer
	}
	if s == nil || s.client == nil {
		return s.fallback(lines)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := fmt.Sprintf(ai.AnswerPrompt, strings.Join(lines, "\n"), query)
	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(ai.AnswerSystemPrompt),
		ai.WithTemperature(0.3),
	}
	if s.thinking != "" {
		opts = append(opts, ai.WithThinking(s.thinking))
	}
	answer, err := s.client.GenerateChat(ctx, []ai.ChatMessage{{Role: "user", Message: prompt}}, opts...)
	if err != nil {
		logger.Error("Answer synthesis failed", "err", err)
		return s.fallback(lines)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		logger.Warn("Model returned an empty answer")
		return s.fallback(lines)
	}
	return answer
}

func (s *Synthesizer) fallback(lines []string) string {
	if s != nil && s.templateFallback && len(lines) > 0 {
		return lines[0]
	}
	return RefusalAnswer
}
