package query

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
	"github.com/OFFIS-RIT/animekg/backend/pkg/store"
	"golang.org/x/sync/errgroup"
)

// DefaultEvidenceCap is the maximum number of evidence lines per answer.
const DefaultEvidenceCap = 30

// NodeView is a node of the display subgraph. Group carries the label for
// the graph view's colouring.
type NodeView struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Label      string           `json:"label"`
	Group      string           `json:"group"`
	Properties store.Properties `json:"properties"`
}

// LinkView is an edge of the display subgraph, pointing from the
// relationship's real start node to its end node.
type LinkView struct {
	Source     string           `json:"source"`
	Target     string           `json:"target"`
	Type       string           `json:"type"`
	Properties store.Properties `json:"properties"`
}

type Subgraph struct {
	Nodes []NodeView `json:"nodes"`
	Links []LinkView `json:"links"`
}

type Evidence struct {
	Lines    []string
	Subgraph Subgraph
}

type linkKey struct {
	source, target, relType string
}

type assembler struct {
	attributes map[string]struct{}
	maxLines   int

	lines    []string
	seenLine map[string]struct{}
	nodes    []NodeView
	nodeIdx  map[string]int
	links    []LinkView
	linkIdx  map[linkKey]struct{}
}

// Assemble turns rows into evidence lines and a subgraph. Attribute
// relations are folded into the anchor node's properties instead of becoming
// links. Lines are deduplicated in first-seen order and assembly stops once
// maxLines lines exist. Output order depends only on row order.
func Assemble(rows []store.Row, attributes map[string]struct{}, maxLines int) Evidence {
	if maxLines <= 0 {
		maxLines = DefaultEvidenceCap
	}
	a := &assembler{
		attributes: attributes,
		maxLines:   maxLines,
		seenLine:   make(map[string]struct{}),
		nodeIdx:    make(map[string]int),
		linkIdx:    make(map[linkKey]struct{}),
	}
	for _, row := range rows {
		if len(a.lines) >= a.maxLines {
			break
		}
		a.add(row)
	}

	ev := Evidence{
		Lines:    a.lines,
		Subgraph: Subgraph{Nodes: a.nodes, Links: a.links},
	}
	if ev.Lines == nil {
		ev.Lines = []string{}
	}
	if ev.Subgraph.Nodes == nil {
		ev.Subgraph.Nodes = []NodeView{}
	}
	if ev.Subgraph.Links == nil {
		ev.Subgraph.Links = []LinkView{}
	}
	return ev
}

func (a *assembler) register(n store.Node) int {
	if i, ok := a.nodeIdx[n.ID]; ok {
		return i
	}
	props := n.Properties.Clone()
	delete(props, "name")
	a.nodes = append(a.nodes, NodeView{
		ID:         n.ID,
		Name:       n.Name,
		Label:      n.Label,
		Group:      n.Label,
		Properties: props,
	})
	a.nodeIdx[n.ID] = len(a.nodes) - 1
	return len(a.nodes) - 1
}

func (a *assembler) add(row store.Row) {
	anchorIdx := a.register(row.Anchor)
	a.register(row.Other)

	relType := row.Rel.Type
	if _, ok := a.attributes[relType]; ok {
		value := row.Rel.Properties.Get("value")
		if value.IsNull() {
			value = store.String(row.Other.Name)
		}
		a.nodes[anchorIdx].Properties[relType] = value
		a.addLine(attributeLine(row.Anchor, relType, value.String()))
		return
	}

	src, tgt := orient(row)
	key := linkKey{source: src.ID, target: tgt.ID, relType: relType}
	if _, ok := a.linkIdx[key]; !ok {
		a.linkIdx[key] = struct{}{}
		a.links = append(a.links, LinkView{
			Source:     src.ID,
			Target:     tgt.ID,
			Type:       relType,
			Properties: row.Rel.Properties.Clone(),
		})
	}
	a.addLine(relationLine(src, relType, tgt))
}

func (a *assembler) addLine(line string) {
	if _, ok := a.seenLine[line]; ok {
		return
	}
	a.seenLine[line] = struct{}{}
	a.lines = append(a.lines, line)
}

// orient returns the row's endpoints in the relationship's real direction.
func orient(row store.Row) (store.Node, store.Node) {
	if row.Rel.StartID == row.Other.ID && row.Rel.EndID == row.Anchor.ID {
		return row.Other, row.Anchor
	}
	return row.Anchor, row.Other
}

func attributeLine(n store.Node, relType, value string) string {
	return fmt.Sprintf("%s(%s) 的 %s 是 %s", n.Name, n.Label, relType, value)
}

func relationLine(src store.Node, relType string, tgt store.Node) string {
	return fmt.Sprintf("%s(%s) -[%s]-> %s(%s)", src.Name, src.Label, relType, tgt.Name, tgt.Label)
}

// FocusNodeIDs looks up the graph ids of the anchor and secondary entity.
// Entities missing from the graph are left out; lookup errors are logged.
func FocusNodeIDs(ctx context.Context, gs store.GraphStore, anchor, secondary *EntityRef) []string {
	refs := []*EntityRef{anchor, secondary}
	ids := make([]string, len(refs))
	if gs == nil {
		return []string{}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		if ref == nil {
			continue
		}
		g.Go(func() error {
			id, err := gs.FindNodeID(gctx, ref.Name, ref.Type)
			switch {
			case errors.Is(err, store.ErrNotFound):
			case err != nil:
				logger.Warn("Focus node lookup failed", "name", ref.Name, "type", ref.Type, "err", err)
			default:
				ids[i] = id
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
