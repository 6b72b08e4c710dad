package neo4j

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestDecodeRow(t *testing.T) {
	rec := &neo4j.Record{
		Keys: []string{"a", "b", "r"},
		Values: []any{
			neo4j.Node{ElementId: "n1", Labels: []string{"Character"}, Props: map[string]any{"name": "Conan"}},
			neo4j.Node{ElementId: "n2", Labels: []string{"Character"}, Props: map[string]any{"name": "Ran"}},
			neo4j.Relationship{
				ElementId:      "r1",
				Type:           "HasFriend",
				StartElementId: "n2",
				EndElementId:   "n1",
				Props:          map[string]any{"since": int64(1994)},
			},
		},
	}

	row, err := decodeRow(rec)
	if err != nil {
		t.Fatalf("decodeRow() unexpected error: %v", err)
	}
	if row.Anchor.Name != "Conan" || row.Other.Name != "Ran" {
		t.Fatalf("decodeRow() names got = %q/%q", row.Anchor.Name, row.Other.Name)
	}
	if row.Rel.StartID != "n2" || row.Rel.EndID != "n1" {
		t.Fatalf("decodeRow() endpoints got = %s->%s, want n2->n1", row.Rel.StartID, row.Rel.EndID)
	}
	if row.Rel.Properties.Get("since").String() != "1994" {
		t.Fatalf("decodeRow() since got = %q", row.Rel.Properties.Get("since"))
	}
}

func TestDecodeRow_Invalid(t *testing.T) {
	valid := neo4j.Node{ElementId: "n1", Labels: []string{"Work"}, Props: map[string]any{"name": "W"}}
	rel := neo4j.Relationship{ElementId: "r", Type: "AppearsIn", StartElementId: "n1", EndElementId: "n1"}

	tests := []struct {
		name string
		rec  *neo4j.Record
	}{
		{
			name: "nameless node",
			rec: &neo4j.Record{Keys: []string{"a", "b", "r"}, Values: []any{
				valid, neo4j.Node{ElementId: "n2", Labels: []string{"Character"}}, rel,
			}},
		},
		{
			name: "missing relationship",
			rec:  &neo4j.Record{Keys: []string{"a", "b"}, Values: []any{valid, valid}},
		},
		{
			name: "wrong column type",
			rec:  &neo4j.Record{Keys: []string{"a", "b", "r"}, Values: []any{"a", valid, rel}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decodeRow(tc.rec); err == nil {
				t.Fatal("decodeRow() expected error")
			}
		})
	}
}
