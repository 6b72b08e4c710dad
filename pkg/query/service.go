package query

import (
	"context"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/internal/util"
	"github.com/OFFIS-RIT/animekg/backend/pkg/intent"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
	"github.com/OFFIS-RIT/animekg/backend/pkg/store"
)

// Meta describes how an answer was produced.
type Meta struct {
	Entities  map[schema.EntityType][]string `json:"entities"`
	Intent    intent.Intent                  `json:"intent"`
	Anchor    *EntityRef                     `json:"anchor"`
	Secondary *EntityRef                     `json:"secondary"`
	Plans     []string                       `json:"plans"`
	UsedPlan  string                         `json:"usedPlan"`
	Trace     []PlanAttempt                  `json:"trace"`
}

// Result is the full answer payload of one question.
type Result struct {
	Answer       string   `json:"answer"`
	Evidence     []string `json:"evidence"`
	Subgraph     Subgraph `json:"subgraph"`
	FocusNodeIDs []string `json:"focusNodeIds"`
	Meta         Meta     `json:"meta"`
}

type ServiceParams struct {
	Resolver    EntityResolver
	Classifier  IntentClassifier
	Store       store.GraphStore
	Synthesizer AnswerSynthesizer
	Schema      *schema.Schema

	EvidenceCap int
	RowLimit    int
	Tracer      Tracer
}

// Service runs the full question answering pipeline. Its collaborators are
// injected once at start-up and shared by all requests.
type Service struct {
	resolver    EntityResolver
	classifier  IntentClassifier
	store       store.GraphStore
	synthesizer AnswerSynthesizer
	planner     Planner
	attributes  map[string]struct{}
	evidenceCap int
	tracer      Tracer
}

func NewService(params ServiceParams) *Service {
	sch := params.Schema
	if sch == nil {
		sch = schema.Default()
	}
	synth := params.Synthesizer
	if synth == nil {
		synth = NewSynthesizer(SynthesizerParams{})
	}
	evidenceCap := params.EvidenceCap
	if evidenceCap <= 0 {
		evidenceCap = DefaultEvidenceCap
	}
	return &Service{
		resolver:    params.Resolver,
		classifier:  params.Classifier,
		store:       params.Store,
		synthesizer: synth,
		planner:     Planner{Schema: sch, RowLimit: params.RowLimit},
		attributes:  sch.AttributeSet(),
		evidenceCap: evidenceCap,
		tracer:      params.Tracer,
	}
}

// Answer never fails: every problem along the way narrows the result down to
// the refusal answer with empty evidence.
func (s *Service) Answer(ctx context.Context, query string) Result {
	start := time.Now()

	entities := map[schema.EntityType][]string{}
	if s.resolver != nil {
		for t, names := range s.resolver.Resolve(ctx, query) {
			if len(names) > 0 {
				entities[t] = names
			}
		}
	}

	it := intent.Empty()
	if s.classifier != nil {
		it = s.classifier.Classify(ctx, query, entities)
	}

	plans, anchor, secondary := s.planner.Build(it, entities)

	trace := NewQueryTrace()
	tracer := Tracer(trace)
	if s.tracer != nil {
		tracer = MultiTracer{trace, s.tracer}
	}
	rows, used := Execute(ctx, s.store, plans, tracer)

	ev := Assemble(rows, s.attributes, s.evidenceCap)
	focus := []string{}
	if anchor != nil {
		focus = FocusNodeIDs(ctx, s.store, anchor, secondary)
	}

	answer := RefusalAnswer
	if len(ev.Lines) > 0 {
		answer = s.synthesizer.Synthesize(ctx, query, ev.Lines)
	}

	logger.Info("Question answered",
		"query", util.TruncateRunes(query, 40),
		"anchor", anchor,
		"mode", it.Mode,
		"plans", len(plans),
		"used", used,
		"evidence", len(ev.Lines),
		"took", time.Since(start),
	)

	return Result{
		Answer:       answer,
		Evidence:     ev.Lines,
		Subgraph:     ev.Subgraph,
		FocusNodeIDs: focus,
		Meta: Meta{
			Entities:  entities,
			Intent:    it,
			Anchor:    anchor,
			Secondary: secondary,
			Plans:     PlanNames(plans),
			UsedPlan:  used,
			Trace:     trace.Snapshot(),
		},
	}
}
