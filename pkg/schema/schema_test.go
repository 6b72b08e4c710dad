package schema

import (
	"slices"
	"testing"
)

func TestDefaultSchema_AttributeRelations(t *testing.T) {
	s := Default()

	for _, name := range []string{"Height", "BirthDate", "Gender", "WorkCategory"} {
		if !s.IsAttribute(name) {
			t.Fatalf("IsAttribute(%q) got = false, want true", name)
		}
	}
	for _, name := range []string{"HasFriend", "VoiceBy", "AppearsIn", "OriginalAuthor", "NotARelation"} {
		if s.IsAttribute(name) {
			t.Fatalf("IsAttribute(%q) got = true, want false", name)
		}
	}

	set := s.AttributeSet()
	if len(set) != len(s.AttributeRelations()) {
		t.Fatalf("AttributeSet() has %d entries, AttributeRelations() has %d", len(set), len(s.AttributeRelations()))
	}
}

func TestDefaultSchema_Groups(t *testing.T) {
	s := Default()
	relations := s.RelationsInGroup(GroupCharacterRelation)
	if len(relations) == 0 {
		t.Fatal("expected character relations in default schema")
	}
	names := make([]string, 0, len(relations))
	for _, r := range relations {
		names = append(names, r.Name)
	}
	if !slices.Contains(names, "HasFriend") {
		t.Fatalf("expected HasFriend in %v", names)
	}
	if r, ok := s.Relation("VoiceBy"); !ok || r.Range != string(Person) {
		t.Fatalf("Relation(VoiceBy) got = %+v, %v", r, ok)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "injection in name", doc: "relations:\n  - {name: \"Foo]-(x) DETACH DELETE x //\"}\n"},
		{name: "duplicate", doc: "relations:\n  - {name: A}\n  - {name: A}\n"},
		{name: "unknown domain", doc: "relations:\n  - {name: A, domain: Robot}\n"},
		{name: "not yaml", doc: "relations: [\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load([]byte(tc.doc)); err == nil {
				t.Fatalf("Load() expected error for %q", tc.doc)
			}
		})
	}
}

func TestLabelClause(t *testing.T) {
	tests := []struct {
		in   EntityType
		want string
	}{
		{in: Character, want: ":Character"},
		{in: Location, want: ":Location"},
		{in: "", want: ""},
		{in: "Character) DETACH DELETE (n", want: ""},
		{in: "character", want: ""},
	}

	for _, tc := range tests {
		if got := LabelClause(tc.in); got != tc.want {
			t.Fatalf("LabelClause(%q) got = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseEntityType(t *testing.T) {
	if got, ok := ParseEntityType(" Work "); !ok || got != Work {
		t.Fatalf("ParseEntityType(\" Work \") got = %q, %v", got, ok)
	}
	if _, ok := ParseEntityType("Property"); ok {
		t.Fatal("ParseEntityType(Property) expected not ok")
	}
}
