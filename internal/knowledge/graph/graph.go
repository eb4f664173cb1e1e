// Package graph holds the mutable base fact graph built during ingestion.
// Insertion is idempotent: every fact is guarded by an existence check, so
// re-ingesting the same logical row never duplicates facts.
package graph

import (
	"fmt"

	"github.com/wbrown/janus-datalog/datalog"

	"b3-stock-qa/internal/knowledge/vocab"
)

// Graph accumulates base datoms. It is not safe for concurrent writers; the
// ingestion phase is single-threaded by design.
type Graph struct {
	datoms   []datalog.Datom
	seen     map[string]int
	labelKey map[string]int // entity -> index of its rdfs:label datom
	tx       uint64
}

// New creates an empty graph. tx tags every datom of this build pass.
func New(tx uint64) *Graph {
	return &Graph{
		seen:     map[string]int{},
		labelKey: map[string]int{},
		tx:       tx,
	}
}

// Add inserts a fact unless an identical one already exists. It reports
// whether the fact was actually added.
func (g *Graph) Add(e datalog.Identity, a datalog.Keyword, v datalog.Value) bool {
	key := factKey(e, a, v)
	if _, ok := g.seen[key]; ok {
		return false
	}
	g.seen[key] = len(g.datoms)
	g.datoms = append(g.datoms, datalog.Datom{E: e, A: a, V: v, Tx: g.tx})
	return true
}

// SetLabel sets the canonical rdfs:label of an entity. Unlike Add, a
// pre-existing but different label is replaced, not duplicated: only one
// canonical label may exist per entity at a time.
func (g *Graph) SetLabel(e datalog.Identity, label string) {
	ek := e.String()
	if idx, ok := g.labelKey[ek]; ok {
		old := g.datoms[idx]
		if old.V == label {
			return
		}
		delete(g.seen, factKey(old.E, old.A, old.V))
		g.datoms[idx].V = label
		g.seen[factKey(e, vocab.RDFSLabel, label)] = idx
		return
	}
	if g.Add(e, vocab.RDFSLabel, label) {
		g.labelKey[ek] = g.seen[factKey(e, vocab.RDFSLabel, label)]
	}
}

// Contains reports whether an identical fact already exists.
func (g *Graph) Contains(e datalog.Identity, a datalog.Keyword, v datalog.Value) bool {
	_, ok := g.seen[factKey(e, a, v)]
	return ok
}

// Datoms returns the accumulated facts. The slice is owned by the graph;
// callers must treat it as read-only.
func (g *Graph) Datoms() []datalog.Datom { return g.datoms }

// Size returns the current fact count.
func (g *Graph) Size() int { return len(g.datoms) }

// CountAttribute returns how many facts carry the given attribute.
func (g *Graph) CountAttribute(a datalog.Keyword) int {
	n := 0
	for _, d := range g.datoms {
		if d.A == a {
			n++
		}
	}
	return n
}

// ClassCounts tallies :rdf/type facts per class keyword. Used by the stats
// surface and by the post-ingest consistency checks.
func (g *Graph) ClassCounts() map[string]int {
	counts := map[string]int{}
	for _, d := range g.datoms {
		if d.A != vocab.RDFType {
			continue
		}
		if kw, ok := d.V.(datalog.Keyword); ok {
			counts[kw.String()]++
		}
	}
	return counts
}

func factKey(e datalog.Identity, a datalog.Keyword, v datalog.Value) string {
	return e.String() + "\x1f" + a.String() + "\x1f" + fmt.Sprintf("%T\x1f%v", v, v)
}
