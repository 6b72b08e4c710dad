package query

import (
	"context"
	"sync"

	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
	"github.com/OFFIS-RIT/animekg/backend/pkg/store"
)

type fakeStore struct {
	respond func(cypher string, params map[string]any) ([]store.Row, error)
	ids     map[string]string // name -> element id

	mu    sync.Mutex
	calls []string
}

func (f *fakeStore) Query(ctx context.Context, cypher string, params map[string]any) ([]store.Row, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cypher)
	f.mu.Unlock()
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(cypher, params)
}

func (f *fakeStore) FindNodeID(ctx context.Context, name string, label schema.EntityType) (string, error) {
	if id, ok := f.ids[name]; ok {
		return id, nil
	}
	return "", store.ErrNotFound
}

func (f *fakeStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func node(id, label, name string) store.Node {
	return store.Node{ID: id, Label: label, Name: name, Properties: store.Properties{}}
}

func rel(relType, startID, endID string, props store.Properties) store.Relationship {
	if props == nil {
		props = store.Properties{}
	}
	return store.Relationship{ID: startID + "-" + relType + "-" + endID, Type: relType, StartID: startID, EndID: endID, Properties: props}
}
