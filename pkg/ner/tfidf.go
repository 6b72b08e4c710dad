package ner

import (
	"maps"
	"math"
	"slices"
	"strings"
	"unicode"
)

// charIndex scores names by cosine similarity of character unigram TF-IDF
// vectors: raw counts, smoothed idf ln((1+n)/(1+df))+1, l2 normalized.
// Input is lowercased and whitespace runs collapse to one space. Vectors are
// sorted by rune so every sum runs in the same order.
type charIndex struct {
	names []string
	idf   map[rune]float64
	vecs  [][]termWeight
}

type termWeight struct {
	r rune
	w float64
}

func normalizeChars(s string) []rune {
	var out []rune
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			if !space {
				out = append(out, ' ')
			}
			space = true
			continue
		}
		space = false
		out = append(out, r)
	}
	return out
}

func countChars(s string) map[rune]int {
	c := make(map[rune]int)
	for _, r := range normalizeChars(s) {
		c[r]++
	}
	return c
}

func newCharIndex(names []string) *charIndex {
	ix := &charIndex{
		names: names,
		idf:   make(map[rune]float64),
		vecs:  make([][]termWeight, len(names)),
	}

	counts := make([]map[rune]int, len(names))
	df := make(map[rune]int)
	for i, name := range names {
		c := countChars(name)
		for r := range c {
			df[r]++
		}
		counts[i] = c
	}

	n := float64(len(names))
	for r, d := range df {
		ix.idf[r] = math.Log((1+n)/(1+float64(d))) + 1
	}
	for i, c := range counts {
		ix.vecs[i] = ix.weigh(c)
	}
	return ix
}

func (ix *charIndex) weigh(counts map[rune]int) []termWeight {
	vec := make([]termWeight, 0, len(counts))
	var norm float64
	for _, r := range slices.Sorted(maps.Keys(counts)) {
		idf, ok := ix.idf[r]
		if !ok {
			continue
		}
		w := float64(counts[r]) * idf
		vec = append(vec, termWeight{r: r, w: w})
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].w /= norm
	}
	return vec
}

// dot multiplies two rune-sorted vectors.
func dot(a, b []termWeight) float64 {
	var sum float64
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i].r == b[j].r:
			sum += a[i].w * b[j].w
			i++
			j++
		case a[i].r < b[j].r:
			i++
		default:
			j++
		}
	}
	return sum
}

// best returns the most similar name and its score. Ties go to the earlier
// name.
func (ix *charIndex) best(query string) (string, float64) {
	if ix == nil || len(ix.names) == 0 {
		return "", 0
	}
	q := ix.weigh(countChars(query))
	if len(q) == 0 {
		return "", 0
	}

	bestIdx, bestScore := -1, 0.0
	for i, vec := range ix.vecs {
		score := dot(q, vec)
		if bestIdx < 0 || score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return ix.names[bestIdx], bestScore
}
