package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
)

// ErrNotFound is returned by lookups that match no node.
var ErrNotFound = errors.New("not found")

// Node is a decoded graph node. Label is the primary label: the first label
// that is a known entity type, or the first label when none is. Properties
// never contain "name", which is surfaced as Name.
type Node struct {
	ID         string
	Label      string
	Name       string
	Properties Properties
}

// Relationship is a decoded graph edge. StartID and EndID are the ids of the
// nodes the edge actually points from and to.
type Relationship struct {
	ID         string
	Type       string
	StartID    string
	EndID      string
	Properties Properties
}

// Row is one result row of a plan query: the node bound to the anchor side
// of the pattern, the node on the far side and the edge between them.
type Row struct {
	Anchor Node
	Other  Node
	Rel    Relationship
}

// GraphStore is the read side of the knowledge graph used by the query
// pipeline.
//
// Query runs a parameterized Cypher statement whose result columns are
// a (anchor node), b (other node) and r (relationship).
type GraphStore interface {
	Query(ctx context.Context, cypher string, params map[string]any) ([]Row, error)
	FindNodeID(ctx context.Context, name string, label schema.EntityType) (string, error)
}

// EntityCatalog exposes direct entity lookups used by the browsing endpoints
// and by dictionary loading.
type EntityCatalog interface {
	GetEntity(ctx context.Context, label schema.EntityType, name string) (Node, error)
	SearchEntities(ctx context.Context, label schema.EntityType, keyword string, limit int) ([]Node, error)
	EntityNames(ctx context.Context, label schema.EntityType) ([]string, error)
}

// DecodeNode builds a Node from raw driver data, validating that an id, a
// label and a non-empty name are present.
func DecodeNode(id string, labels []string, props map[string]any) (Node, error) {
	if id == "" {
		return Node{}, errors.New("node without id")
	}
	if len(labels) == 0 {
		return Node{}, fmt.Errorf("node %s without label", id)
	}
	name := ValueOf(props["name"])
	if name.Kind() == KindNull || name.String() == "" {
		return Node{}, fmt.Errorf("node %s without name", id)
	}

	return Node{
		ID:         id,
		Label:      PrimaryLabel(labels),
		Name:       name.String(),
		Properties: PropertiesFrom(props, "name"),
	}, nil
}

// DecodeRelationship builds a Relationship from raw driver data.
func DecodeRelationship(id, relType, startID, endID string, props map[string]any) (Relationship, error) {
	if relType == "" {
		return Relationship{}, fmt.Errorf("relationship %s without type", id)
	}
	if startID == "" || endID == "" {
		return Relationship{}, fmt.Errorf("relationship %s without endpoints", id)
	}
	return Relationship{
		ID:         id,
		Type:       relType,
		StartID:    startID,
		EndID:      endID,
		Properties: PropertiesFrom(props),
	}, nil
}

// PrimaryLabel picks the label used for display and disambiguation.
func PrimaryLabel(labels []string) string {
	if i := slices.IndexFunc(labels, schema.IsEntityType); i >= 0 {
		return labels[i]
	}
	if len(labels) == 0 {
		return ""
	}
	return labels[0]
}
