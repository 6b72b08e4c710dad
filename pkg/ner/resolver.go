// Package ner recognises knowledge graph entities in free text. Names are
// matched against per-type dictionaries, including short aliases, and then
// aligned to canonical names by character TF-IDF similarity.
package ner

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
	"golang.org/x/sync/singleflight"
)

// Resolver serves recognition from the active dictionary. Reloads build a
// new dictionary off to the side and swap it in; concurrent reloads share one
// load.
type Resolver struct {
	loader Loader
	dict   atomic.Pointer[Dictionary]
	group  singleflight.Group
}

func NewResolver(loader Loader) *Resolver {
	r := &Resolver{loader: loader}
	r.dict.Store(NewDictionary(nil))
	return r
}

// NewStaticResolver serves a fixed dictionary.
func NewStaticResolver(entries map[schema.EntityType][]string) *Resolver {
	r := &Resolver{}
	r.dict.Store(NewDictionary(entries))
	return r
}

// Reload loads the dictionaries again and returns the number of names per
// type. On failure the previous dictionary stays active.
func (r *Resolver) Reload(ctx context.Context) (map[schema.EntityType]int, error) {
	if r.loader == nil {
		return nil, errors.New("resolver has no loader")
	}
	v, err, shared := r.group.Do("reload", func() (any, error) {
		entries, err := r.loader.Load(ctx)
		if err != nil {
			return nil, err
		}
		d := NewDictionary(entries)
		r.dict.Store(d)
		return d.Size(), nil
	})
	if err != nil {
		logger.Error("Failed to reload entity dictionaries", "err", err)
		return nil, err
	}
	sizes := v.(map[schema.EntityType]int)
	logger.Info("Entity dictionaries loaded", "sizes", sizes, "shared", shared)
	return sizes, nil
}

// Resolve returns the entities recognised in text, possibly none.
func (r *Resolver) Resolve(ctx context.Context, text string) Entities {
	return r.dict.Load().Recognize(text)
}

// Size reports the active dictionary size per type.
func (r *Resolver) Size() map[schema.EntityType]int {
	return r.dict.Load().Size()
}
