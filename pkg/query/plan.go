package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/animekg/backend/pkg/intent"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
)

// Plan names, most specific first.
const (
	PlanBetween            = "between_entities"
	PlanShortestPath       = "shortest_path"
	PlanAttributePredicate = "attribute_predicate"
	PlanPredicateLabel     = "predicate_result_label"
	PlanPredicate          = "predicate"
	PlanNeighbors          = "neighbors"
)

const (
	DefaultRowLimit = 100
	MaxPathLength   = 5
)

// Planner builds the ordered plan list for a question. Only labels from the
// schema allow-list are written into Cypher text; predicate names, the
// attribute set, result labels and entity names are bound parameters.
type Planner struct {
	Schema   *schema.Schema
	RowLimit int
}

// BuildPlan plans with the compiled-in schema.
func BuildPlan(it intent.Intent, entities map[schema.EntityType][]string) ([]Plan, *EntityRef, *EntityRef) {
	return Planner{}.Build(it, entities)
}

// Build selects the anchor and, for relation questions, the secondary entity
// and returns the plans to try in order. Without an anchor there are no
// plans.
func (p Planner) Build(it intent.Intent, entities map[schema.EntityType][]string) ([]Plan, *EntityRef, *EntityRef) {
	sch := p.Schema
	if sch == nil {
		sch = schema.Default()
	}
	limit := p.RowLimit
	if limit <= 0 {
		limit = DefaultRowLimit
	}

	anchor := selectAnchor(it.SourceTypes, entities)
	if anchor == nil {
		return nil, nil, nil
	}

	var secondary *EntityRef
	if it.Mode == intent.ModeFindRelation {
		secondary = selectSecondary(*anchor, entities)
	}

	predicates := knownPredicates(sch, it.Predicates)
	if it.Mode == intent.ModeFindRelation {
		predicates = nil
	}

	b := cypherBuilder{anchor: *anchor, limit: int64(limit)}
	var plans []Plan

	switch it.Mode {
	case intent.ModeFindRelation:
		if secondary != nil {
			plans = append(plans, b.between(*secondary), b.shortestPath(*secondary))
		}
	case intent.ModeGetProperty:
		if len(predicates) > 0 {
			plans = append(plans, b.attributePredicate(predicates, sch.AttributeRelations()), b.predicate(predicates))
		}
	case intent.ModeGetEntity:
		if len(predicates) > 0 {
			if labels := resultLabels(it.ResultTypes); len(labels) > 0 {
				plans = append(plans, b.predicateLabel(predicates, labels))
			}
			plans = append(plans, b.predicate(predicates))
		}
	}
	plans = append(plans, b.neighbors())

	return plans, anchor, secondary
}

func candidates(entities map[schema.EntityType][]string, t schema.EntityType) []string {
	var out []string
	for _, name := range entities[t] {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func selectAnchor(sourceTypes []schema.EntityType, entities map[schema.EntityType][]string) *EntityRef {
	for _, t := range sourceTypes {
		if names := candidates(entities, t); len(names) > 0 {
			return &EntityRef{Name: names[0], Type: t}
		}
	}
	for _, t := range schema.PriorityOrder {
		if names := candidates(entities, t); len(names) > 0 {
			return &EntityRef{Name: names[0], Type: t}
		}
	}
	return nil
}

func selectSecondary(anchor EntityRef, entities map[schema.EntityType][]string) *EntityRef {
	same := candidates(entities, anchor.Type)
	if len(same) > 1 && same[1] != anchor.Name {
		return &EntityRef{Name: same[1], Type: anchor.Type}
	}
	for _, t := range schema.PriorityOrder {
		if t == anchor.Type {
			continue
		}
		for _, name := range candidates(entities, t) {
			if name != anchor.Name {
				return &EntityRef{Name: name, Type: t}
			}
		}
	}
	return nil
}

// knownPredicates keeps the predicates that are relations of sch. Intents
// arrive normalized, so this only guards the bound parameter.
func knownPredicates(sch *schema.Schema, in []string) []string {
	var out []string
	for _, p := range in {
		if _, ok := sch.Relation(p); ok {
			out = append(out, p)
		}
	}
	return out
}

func resultLabels(resultTypes []string) []string {
	var out []string
	for _, v := range resultTypes {
		if t, ok := schema.ParseEntityType(v); ok && !slices.Contains(out, string(t)) {
			out = append(out, string(t))
		}
	}
	return out
}

type cypherBuilder struct {
	anchor EntityRef
	limit  int64
}

func (b cypherBuilder) anchorPattern(variable string) string {
	return fmt.Sprintf("(%s%s {name: $anchor})", variable, schema.LabelClause(b.anchor.Type))
}

func (b cypherBuilder) params(extra map[string]any) map[string]any {
	params := map[string]any{
		"anchor": b.anchor.Name,
		"limit":  b.limit,
	}
	for k, v := range extra {
		params[k] = v
	}
	return params
}

func (b cypherBuilder) neighbors() Plan {
	return Plan{
		Name:   PlanNeighbors,
		Cypher: fmt.Sprintf("MATCH %s-[r]-(b) RETURN a, b, r LIMIT $limit", b.anchorPattern("a")),
		Params: b.params(nil),
	}
}

func (b cypherBuilder) predicate(predicates []string) Plan {
	return Plan{
		Name: PlanPredicate,
		Cypher: fmt.Sprintf(
			"MATCH %s-[r]-(b) WHERE type(r) IN $predicates RETURN a, b, r LIMIT $limit",
			b.anchorPattern("a"),
		),
		Params: b.params(map[string]any{"predicates": predicates}),
	}
}

func (b cypherBuilder) attributePredicate(predicates, attributes []string) Plan {
	return Plan{
		Name: PlanAttributePredicate,
		Cypher: fmt.Sprintf(
			"MATCH %s-[r]-(b) WHERE type(r) IN $predicates AND type(r) IN $attributes RETURN a, b, r LIMIT $limit",
			b.anchorPattern("a"),
		),
		Params: b.params(map[string]any{"predicates": predicates, "attributes": attributes}),
	}
}

func (b cypherBuilder) predicateLabel(predicates, labels []string) Plan {
	return Plan{
		Name: PlanPredicateLabel,
		Cypher: fmt.Sprintf(
			"MATCH %s-[r]-(b) WHERE type(r) IN $predicates AND any(l IN labels(b) WHERE l IN $resultLabels) RETURN a, b, r LIMIT $limit",
			b.anchorPattern("a"),
		),
		Params: b.params(map[string]any{"predicates": predicates, "resultLabels": labels}),
	}
}

func (b cypherBuilder) between(secondary EntityRef) Plan {
	return Plan{
		Name: PlanBetween,
		Cypher: fmt.Sprintf(
			"MATCH %s-[r]-(b%s {name: $secondary}) RETURN a, b, r LIMIT $limit",
			b.anchorPattern("a"), schema.LabelClause(secondary.Type),
		),
		Params: b.params(map[string]any{"secondary": secondary.Name}),
	}
}

func (b cypherBuilder) shortestPath(secondary EntityRef) Plan {
	return Plan{
		Name: PlanShortestPath,
		Cypher: fmt.Sprintf(
			"MATCH %s, (dst%s {name: $secondary}) "+
				"MATCH p = shortestPath((src)-[*..%d]-(dst)) "+
				"UNWIND relationships(p) AS r "+
				"RETURN startNode(r) AS a, endNode(r) AS b, r LIMIT $limit",
			b.anchorPattern("src"), schema.LabelClause(secondary.Type), MaxPathLength,
		),
		Params: b.params(map[string]any{"secondary": secondary.Name}),
	}
}

// PlanNames lists the names of plans in order.
func PlanNames(plans []Plan) []string {
	names := make([]string, 0, len(plans))
	for _, p := range plans {
		names = append(names, p.Name)
	}
	return names
}
