package graph

import (
	"sort"
)

// Graph is an in-memory set of triples with namespace bindings.
// Triples keep insertion order; adding a triple twice is a no-op.
type Graph struct {
	namespaces map[string]Namespace
	triples    []Triple
	seen       map[Triple]struct{}
	out        map[Term][]int
	in         map[Term][]int
}

// New creates an empty graph with the default namespaces bound.
func New() *Graph {
	g := &Graph{
		namespaces: map[string]Namespace{},
		seen:       map[Triple]struct{}{},
		out:        map[Term][]int{},
		in:         map[Term][]int{},
	}
	for _, ns := range DefaultNamespaces() {
		g.Bind(ns)
	}
	return g
}

// Bind registers a namespace prefix, replacing an earlier binding of the same prefix.
func (g *Graph) Bind(ns Namespace) {
	g.namespaces[ns.Prefix] = ns
}

// Namespaces returns the bound namespaces sorted by prefix.
func (g *Graph) Namespaces() []Namespace {
	out := make([]Namespace, 0, len(g.namespaces))
	for _, ns := range g.namespaces {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out
}

// Add inserts a triple and reports whether it was new.
func (g *Graph) Add(subject, predicate, object Term) bool {
	t := Triple{Subject: subject, Predicate: predicate, Object: object}
	if _, ok := g.seen[t]; ok {
		return false
	}
	g.seen[t] = struct{}{}
	g.triples = append(g.triples, t)
	i := len(g.triples) - 1
	g.out[subject] = append(g.out[subject], i)
	g.in[object] = append(g.in[object], i)
	return true
}

// Merge adds all triples and namespace bindings of other.
func (g *Graph) Merge(other *Graph) {
	if other == nil {
		return
	}
	for _, ns := range other.namespaces {
		if _, ok := g.namespaces[ns.Prefix]; !ok {
			g.Bind(ns)
		}
	}
	for _, t := range other.triples {
		g.Add(t.Subject, t.Predicate, t.Object)
	}
}

func (g *Graph) Len() int { return len(g.triples) }

// Triples returns a copy of the triples in insertion order.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// Contains reports whether the triple is in the graph.
func (g *Graph) Contains(subject, predicate, object Term) bool {
	_, ok := g.seen[Triple{Subject: subject, Predicate: predicate, Object: object}]
	return ok
}

// Subjects returns the distinct subjects in order of first appearance.
func (g *Graph) Subjects() []Term {
	var out []Term
	seen := map[Term]bool{}
	for _, t := range g.triples {
		if !seen[t.Subject] {
			seen[t.Subject] = true
			out = append(out, t.Subject)
		}
	}
	return out
}

// Objects returns the objects of subject for predicate.
func (g *Graph) Objects(subject, predicate Term) []Term {
	var out []Term
	for _, i := range g.out[subject] {
		if g.triples[i].Predicate == predicate {
			out = append(out, g.triples[i].Object)
		}
	}
	return out
}

// Value returns the first object of subject for predicate.
func (g *Graph) Value(subject, predicate Term) (Term, bool) {
	objects := g.Objects(subject, predicate)
	if len(objects) == 0 {
		return Term{}, false
	}
	return objects[0], true
}

func (g *Graph) outgoing(node Term) []Triple {
	out := make([]Triple, 0, len(g.out[node]))
	for _, i := range g.out[node] {
		out = append(out, g.triples[i])
	}
	return out
}

func (g *Graph) incoming(node Term) []Triple {
	out := make([]Triple, 0, len(g.in[node]))
	for _, i := range g.in[node] {
		out = append(out, g.triples[i])
	}
	return out
}
