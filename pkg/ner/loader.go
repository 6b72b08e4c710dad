package ner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
	"github.com/OFFIS-RIT/animekg/backend/pkg/store"
	"golang.org/x/sync/errgroup"
)

// Loader produces the raw name lists a Dictionary is built from.
type Loader interface {
	Load(ctx context.Context) (map[schema.EntityType][]string, error)
}

// dictFileName is the file holding the names of one type, one per line.
func dictFileName(t schema.EntityType) string {
	return string(t) + ".txt"
}

func parseNames(data []byte) []string {
	var names []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			names = append(names, line)
		}
	}
	return names
}

// DirLoader reads <Type>.txt files from a local directory. Missing files are
// skipped.
type DirLoader struct {
	Dir string
}

func (l DirLoader) Load(ctx context.Context) (map[schema.EntityType][]string, error) {
	out := make(map[schema.EntityType][]string)
	for _, t := range schema.DictionaryOrder {
		data, err := os.ReadFile(filepath.Join(l.Dir, dictFileName(t)))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s dictionary: %w", t, err)
		}
		out[t] = parseNames(data)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no dictionary files in %s", l.Dir)
	}
	return out, nil
}

// ObjectStore is the read side of an object storage bucket.
type ObjectStore interface {
	GetFile(ctx context.Context, key string) ([]byte, error)
	ListFilesWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// BucketLoader reads <prefix>/<Type>.txt objects.
type BucketLoader struct {
	Store  ObjectStore
	Prefix string
}

func (l BucketLoader) Load(ctx context.Context) (map[schema.EntityType][]string, error) {
	keys, err := l.Store.ListFilesWithPrefix(ctx, l.Prefix)
	if err != nil {
		return nil, err
	}

	out := make(map[schema.EntityType][]string)
	for _, key := range keys {
		base := path.Base(key)
		t, ok := schema.ParseEntityType(strings.TrimSuffix(base, ".txt"))
		if !ok || base != dictFileName(t) {
			continue
		}
		data, err := l.Store.GetFile(ctx, key)
		if err != nil {
			return nil, err
		}
		out[t] = parseNames(data)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no dictionary objects under %q", l.Prefix)
	}
	return out, nil
}

// GraphLoader reads entity names straight from the graph, one query per
// type, run concurrently.
type GraphLoader struct {
	Catalog store.EntityCatalog
}

func (l GraphLoader) Load(ctx context.Context) (map[schema.EntityType][]string, error) {
	var mu sync.Mutex
	out := make(map[schema.EntityType][]string)

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range schema.DictionaryOrder {
		g.Go(func() error {
			names, err := l.Catalog.EntityNames(ctx, t)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				return nil
			}
			mu.Lock()
			out[t] = names
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
