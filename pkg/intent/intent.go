// Package intent turns a question into a structured query intent using a
// language model. Model output is untrusted: decoding never fails, it only
// yields a less specific intent.
package intent

import (
	"slices"
	"strings"

	"github.com/OFFIS-RIT/animekg/backend/pkg/ai"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
)

// Mode is the query mode of an intent.
type Mode string

const (
	ModeGetProperty  Mode = "get_property"
	ModeGetEntity    Mode = "get_entity"
	ModeFindRelation Mode = "find_relation"
	ModeUnknown      Mode = "unknown"
)

// ParseMode maps a raw mode string to a Mode. Anything unrecognised is
// ModeUnknown.
func ParseMode(s string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeGetProperty, ModeGetEntity, ModeFindRelation:
		return m
	default:
		return ModeUnknown
	}
}

// Intent is the decoded classifier output. Multi-valued fields are split and
// deduplicated here and nowhere else.
type Intent struct {
	Mode        Mode                `json:"mode"`
	Predicates  []string            `json:"predicates"`
	SourceTypes []schema.EntityType `json:"sourceTypes"`
	ResultTypes []string            `json:"resultTypes"`
}

// Empty is the intent used when classification is unavailable.
func Empty() Intent {
	return Intent{Mode: ModeUnknown}
}

// Raw is the transport form produced by the model: every field is a
// "|"-delimited string.
type Raw struct {
	QueryMode        string `json:"query_mode" jsonschema:"enum=get_property,enum=get_entity,enum=find_relation,enum=unknown"`
	QueryPredicate   string `json:"query_predicate" jsonschema:"description=Relation names joined with |"`
	SourceEntityType string `json:"source_entity_type" jsonschema:"description=Entity types joined with |"`
	ResultValueType  string `json:"result_value_type" jsonschema:"description=Entity types or Property or Relationship joined with |"`
}

// Decode normalizes a raw intent against the compiled-in schema.
func (r Raw) Decode() Intent {
	return r.DecodeWith(schema.Default())
}

// DecodeWith normalizes a raw intent. Predicates that are not relations of s
// are dropped.
func (r Raw) DecodeWith(s *schema.Schema) Intent {
	return Intent{
		Mode:        ParseMode(r.QueryMode),
		Predicates:  knownRelations(s, splitField(r.QueryPredicate)),
		SourceTypes: entityTypes(splitField(r.SourceEntityType)),
		ResultTypes: splitField(r.ResultValueType),
	}
}

func splitField(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, "|") {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, "unknown") || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func knownRelations(s *schema.Schema, names []string) []string {
	var out []string
	for _, name := range names {
		if _, ok := s.Relation(name); ok {
			out = append(out, name)
		}
	}
	return out
}

// entityTypes keeps the values that are known entity labels.
func entityTypes(values []string) []schema.EntityType {
	var out []schema.EntityType
	for _, v := range values {
		if t, ok := schema.ParseEntityType(v); ok && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// Parse decodes a model reply with the compiled-in schema.
func Parse(reply string) Intent {
	return ParseWith(reply, schema.Default())
}

// ParseWith decodes a model reply. The first brace-delimited object is taken
// and decoded tolerantly; a reply that cannot be decoded yields Empty().
func ParseWith(reply string, s *schema.Schema) Intent {
	obj, ok := ai.ExtractJSONObject(reply)
	if !ok {
		return Empty()
	}
	var raw Raw
	if err := ai.UnmarshalFlexible(obj, &raw); err != nil {
		return Empty()
	}
	return raw.DecodeWith(s)
}
