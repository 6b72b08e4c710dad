// Package schema holds the static tables of the anime knowledge graph: the
// entity labels the graph uses, the relation vocabulary, and which relations
// are scalar node attributes rather than edges between entities.
//
// Label and relation names from this package are the only identifiers that may
// be interpolated into Cypher text. Everything else is bound as a parameter.
package schema

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// EntityType is a node label of the knowledge graph.
type EntityType string

const (
	Character    EntityType = "Character"
	Work         EntityType = "Work"
	Person       EntityType = "Person"
	Organization EntityType = "Organization"
	Group        EntityType = "Group"
	Location     EntityType = "Location"
)

// PriorityOrder is the order in which entity types are considered when the
// intent does not name a usable source type.
var PriorityOrder = []EntityType{Character, Work, Person, Organization, Group, Location}

// DictionaryOrder is the order in which the entity dictionaries are matched
// against query text. Work titles go first so that a title containing a
// character name is claimed as a whole.
var DictionaryOrder = []EntityType{Work, Character, Person, Organization, Group, Location}

// ParseEntityType returns the entity type with the given name. Matching is
// exact; labels are case sensitive in the graph.
func ParseEntityType(s string) (EntityType, bool) {
	t := EntityType(strings.TrimSpace(s))
	for _, known := range PriorityOrder {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// IsEntityType reports whether s is one of the known node labels.
func IsEntityType(s string) bool {
	_, ok := ParseEntityType(s)
	return ok
}

// LabelClause renders ":Label" for a known entity type and "" for anything
// else, so an unknown type degrades to a label-free match.
func LabelClause(t EntityType) string {
	if !IsEntityType(string(t)) {
		return ""
	}
	return ":" + string(t)
}

// Relation groups used to lay out the relation vocabulary in prompts.
const (
	GroupWork               = "work"
	GroupCharacterAttribute = "character_attribute"
	GroupCharacterRelation  = "character_relation"
)

// Relation describes one relationship type of the graph.
type Relation struct {
	Name      string `yaml:"name"`
	Group     string `yaml:"group"`
	Domain    string `yaml:"domain"`
	Range     string `yaml:"range"`
	Attribute bool   `yaml:"attribute"`
}

// Schema is the parsed relation vocabulary.
type Schema struct {
	relations  []Relation
	byName     map[string]int
	attributes []string
}

type schemaFile struct {
	Relations []Relation `yaml:"relations"`
}

var relationNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

//go:embed schema.yaml
var defaultSchema []byte

var loadDefault = sync.OnceValue(func() *Schema {
	s, err := Load(defaultSchema)
	if err != nil {
		panic(fmt.Sprintf("embedded schema is invalid: %v", err))
	}
	return s
})

// Default returns the compiled-in schema.
func Default() *Schema {
	return loadDefault()
}

// Load parses a schema document. Relation names must be plain identifiers and
// unique; domains and ranges, when set, must be known entity types.
func Load(data []byte) (*Schema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	s := &Schema{
		relations: make([]Relation, 0, len(f.Relations)),
		byName:    make(map[string]int, len(f.Relations)),
	}
	for _, r := range f.Relations {
		if !relationNamePattern.MatchString(r.Name) {
			return nil, fmt.Errorf("invalid relation name %q", r.Name)
		}
		if _, dup := s.byName[r.Name]; dup {
			return nil, fmt.Errorf("duplicate relation %q", r.Name)
		}
		if r.Domain != "" && !IsEntityType(r.Domain) {
			return nil, fmt.Errorf("relation %q has unknown domain %q", r.Name, r.Domain)
		}
		if r.Range != "" && !IsEntityType(r.Range) {
			return nil, fmt.Errorf("relation %q has unknown range %q", r.Name, r.Range)
		}
		s.byName[r.Name] = len(s.relations)
		s.relations = append(s.relations, r)
		if r.Attribute {
			s.attributes = append(s.attributes, r.Name)
		}
	}
	return s, nil
}

// Relation looks up a relation by name.
func (s *Schema) Relation(name string) (Relation, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Relation{}, false
	}
	return s.relations[i], true
}

// IsAttribute reports whether name is an attribute relation.
func (s *Schema) IsAttribute(name string) bool {
	r, ok := s.Relation(name)
	return ok && r.Attribute
}

// AttributeRelations returns the attribute relation names in schema order.
func (s *Schema) AttributeRelations() []string {
	out := make([]string, len(s.attributes))
	copy(out, s.attributes)
	return out
}

// AttributeSet returns the attribute relations as a lookup set.
func (s *Schema) AttributeSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.attributes))
	for _, name := range s.attributes {
		set[name] = struct{}{}
	}
	return set
}

// RelationsInGroup returns the relations of one group in schema order.
func (s *Schema) RelationsInGroup(group string) []Relation {
	var out []Relation
	for _, r := range s.relations {
		if r.Group == group {
			out = append(out, r)
		}
	}
	return out
}

// Relations returns every relation in schema order.
func (s *Schema) Relations() []Relation {
	out := make([]Relation, len(s.relations))
	copy(out, s.relations)
	return out
}
