package ner

import (
	"cmp"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
)

const (
	minAliasRunes  = 2
	nameTailRunes  = 2
	nameTailMinLen = 3
	nameSeparator  = "·"
)

type trieNode struct {
	children  map[rune]*trieNode
	canonical string
	full      bool
}

func (n *trieNode) insert(alias []rune, canonical string, full bool) {
	node := n
	for _, r := range alias {
		next, ok := node.children[r]
		if !ok {
			next = &trieNode{children: make(map[rune]*trieNode)}
			node.children[r] = next
		}
		node = next
	}
	// a full name always beats a derived alias, otherwise first one wins
	switch {
	case full && !node.full:
		node.canonical, node.full = canonical, true
	case node.canonical == "":
		node.canonical = canonical
	}
}

type match struct {
	start, end int // rune offsets, end exclusive
	canonical  string
}

// matches returns every alias occurrence in text, ordered by end offset and,
// at equal end, longest first.
func (n *trieNode) matches(text []rune) []match {
	var out []match
	for i := range text {
		node := n
		for j := i; j < len(text); j++ {
			next, ok := node.children[text[j]]
			if !ok {
				break
			}
			node = next
			if node.canonical != "" {
				out = append(out, match{start: i, end: j + 1, canonical: node.canonical})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b match) int {
		if c := cmp.Compare(a.end, b.end); c != 0 {
			return c
		}
		return cmp.Compare(a.start, b.start)
	})
	return out
}

type typeIndex struct {
	trie  *trieNode
	chars *charIndex
}

// Dictionary is an immutable set of entity names per type.
type Dictionary struct {
	types map[schema.EntityType]*typeIndex
	sizes map[schema.EntityType]int
}

// aliases lists the surface forms a canonical name is recognised by.
func aliases(t schema.EntityType, name string) [][]rune {
	full := []rune(name)
	out := [][]rune{full}
	if strings.Contains(name, nameSeparator) {
		parts := strings.Split(name, nameSeparator)
		if last := []rune(strings.TrimSpace(parts[len(parts)-1])); len(last) >= minAliasRunes {
			out = append(out, last)
		}
	}
	if (t == schema.Character || t == schema.Person) && len(full) >= nameTailMinLen {
		out = append(out, full[len(full)-nameTailRunes:])
	}
	return out
}

// NewDictionary builds the matcher and the similarity index for every type.
// Names are trimmed and deduplicated; unknown types are ignored.
func NewDictionary(entries map[schema.EntityType][]string) *Dictionary {
	d := &Dictionary{
		types: make(map[schema.EntityType]*typeIndex),
		sizes: make(map[schema.EntityType]int),
	}
	for _, t := range schema.DictionaryOrder {
		names := cleanNames(entries[t])
		if len(names) == 0 {
			continue
		}
		root := &trieNode{children: make(map[rune]*trieNode)}
		for _, name := range names {
			for i, alias := range aliases(t, name) {
				root.insert(alias, name, i == 0)
			}
		}
		d.types[t] = &typeIndex{trie: root, chars: newCharIndex(names)}
		d.sizes[t] = len(names)
	}
	return d
}

func cleanNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Size returns the number of names loaded per type.
func (d *Dictionary) Size() map[schema.EntityType]int {
	out := make(map[schema.EntityType]int, len(d.sizes))
	for t, n := range d.sizes {
		out[t] = n
	}
	return out
}

// Entities maps each entity type to its ordered candidate names.
type Entities map[schema.EntityType][]string

const (
	alignThreshold    = 0.5
	fallbackThreshold = 0.1
)

// Recognize finds entity names in text. Types are matched in dictionary
// order and a span claimed by one match cannot be claimed again. Every hit
// is aligned to its closest canonical name; when nothing matches at all the
// whole text is compared against character names.
func (d *Dictionary) Recognize(text string) Entities {
	result := Entities{}
	if d == nil || strings.TrimSpace(text) == "" {
		return result
	}

	runes := []rune(text)
	used := make([]bool, len(runes))
	found := false

	for _, t := range schema.DictionaryOrder {
		ix, ok := d.types[t]
		if !ok {
			continue
		}
		for _, m := range ix.trie.matches(runes) {
			if slices.Contains(used[m.start:m.end], true) {
				continue
			}
			for i := m.start; i < m.end; i++ {
				used[i] = true
			}
			found = true

			name, score := ix.chars.best(m.canonical)
			if score < alignThreshold || slices.Contains(result[t], name) {
				continue
			}
			result[t] = append(result[t], name)
		}
	}

	if found {
		return result
	}
	if ix, ok := d.types[schema.Character]; ok {
		if name, score := ix.chars.best(text); name != "" && score >= fallbackThreshold {
			result[schema.Character] = []string{name}
		}
	}
	return result
}
