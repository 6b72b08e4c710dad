package neo4j

import (
	"fmt"

	"github.com/OFFIS-RIT/animekg/backend/pkg/store"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func decodeRow(rec *neo4j.Record) (store.Row, error) {
	a, err := nodeColumn(rec, "a")
	if err != nil {
		return store.Row{}, err
	}
	b, err := nodeColumn(rec, "b")
	if err != nil {
		return store.Row{}, err
	}
	raw, ok := rec.Get("r")
	if !ok {
		return store.Row{}, fmt.Errorf("missing column r")
	}
	rel, ok := raw.(neo4j.Relationship)
	if !ok {
		return store.Row{}, fmt.Errorf("column r is %T, not a relationship", raw)
	}
	r, err := store.DecodeRelationship(rel.ElementId, rel.Type, rel.StartElementId, rel.EndElementId, rel.Props)
	if err != nil {
		return store.Row{}, err
	}
	return store.Row{Anchor: a, Other: b, Rel: r}, nil
}

func nodeColumn(rec *neo4j.Record, key string) (store.Node, error) {
	raw, ok := rec.Get(key)
	if !ok {
		return store.Node{}, fmt.Errorf("missing column %s", key)
	}
	n, ok := raw.(neo4j.Node)
	if !ok {
		return store.Node{}, fmt.Errorf("column %s is %T, not a node", key, raw)
	}
	return store.DecodeNode(n.ElementId, n.Labels, n.Props)
}
