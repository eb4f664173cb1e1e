// Package inference computes the entailed facts of a base graph. The
// ruleset is the schema's subclass and subproperty hierarchy: a type
// assertion on a child class entails the same assertion on every ancestor
// class, and a fact stated through a child property entails the same fact
// through every ancestor property.
package inference

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-datalog/datalog"

	"b3-stock-qa/internal/knowledge/schema"
	"b3-stock-qa/internal/knowledge/vocab"
)

// Derive returns the datoms entailed by base under the schema hierarchy,
// excluding any datom already present in base. The base slice is not
// modified. Application runs to a fixed point, so chained hierarchies
// (grandparent classes) are fully materialized.
func Derive(base []datalog.Datom, s *schema.Schema, tx uint64) []datalog.Datom {
	classAncestors := closure(s.SubclassOf)
	propAncestors := closure(s.SubpropertyOf)

	seen := make(map[string]struct{}, len(base))
	for _, d := range base {
		seen[factKey(d)] = struct{}{}
	}

	var derived []datalog.Datom
	work := base
	for len(work) > 0 {
		var next []datalog.Datom
		for _, d := range work {
			for _, e := range entail(d, classAncestors, propAncestors, tx) {
				k := factKey(e)
				if _, ok := seen[k]; ok {
					continue
				}
				seen[k] = struct{}{}
				derived = append(derived, e)
				next = append(next, e)
			}
		}
		work = next
	}
	return derived
}

func entail(d datalog.Datom, classAncestors, propAncestors map[string][]string, tx uint64) []datalog.Datom {
	var out []datalog.Datom

	if d.A == vocab.RDFType {
		if class, ok := d.V.(datalog.Keyword); ok {
			for _, parent := range classAncestors[class.String()] {
				out = append(out, datalog.Datom{E: d.E, A: vocab.RDFType, V: datalog.NewKeyword(parent), Tx: tx})
			}
		}
	}

	for _, parent := range propAncestors[d.A.String()] {
		out = append(out, datalog.Datom{E: d.E, A: datalog.NewKeyword(parent), V: d.V, Tx: tx})
	}
	return out
}

// closure resolves each child name to its direct parents. Chains collapse
// through the fixed-point loop in Derive, so only one hop is stored here.
func closure(pairs []schema.EntailmentPair) map[string][]string {
	m := make(map[string][]string, len(pairs))
	for _, p := range pairs {
		child := keywordName(p.Child)
		parent := keywordName(p.Parent)
		if child == "" || parent == "" || child == parent {
			continue
		}
		m[child] = append(m[child], parent)
	}
	return m
}

// keywordName normalizes a schema hierarchy name to its keyword form.
// Names may be written fully qualified (":stock/Valor_Mobiliario") or as a
// bare local name, which is resolved in the stock namespace.
func keywordName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, ":") {
		return datalog.NewKeyword(name).String()
	}
	return vocab.ClassKeyword(name).String()
}

func factKey(d datalog.Datom) string {
	return d.E.String() + "\x1f" + d.A.String() + "\x1f" + fmt.Sprintf("%T\x1f%v", d.V, d.V)
}
