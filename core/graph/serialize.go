package graph

import (
	"bytes"
	"io"
	"strings"
)

// Turtle returns the graph in Turtle syntax. Only prefixes in use are declared.
// Subjects appear in order of first appearance, predicates in insertion order.
func (g *Graph) Turtle() string {
	var buf bytes.Buffer
	_ = g.WriteTurtle(&buf)
	return buf.String()
}

// WriteTurtle writes the graph in Turtle syntax to w.
func (g *Graph) WriteTurtle(w io.Writer) error {
	var sb strings.Builder

	used := map[string]bool{}
	for _, t := range g.triples {
		terms := []Term{t.Subject, t.Object}
		if t.Predicate != TypePredicate {
			terms = append(terms, t.Predicate)
		}
		for _, term := range terms {
			if _, prefix, ok := g.compact(term); ok {
				used[prefix] = true
			}
		}
	}
	wrote := false
	for _, ns := range g.Namespaces() {
		if used[ns.Prefix] {
			sb.WriteString("@prefix " + ns.Prefix + ": <" + escapeIRI(ns.Base) + "> .\n")
			wrote = true
		}
	}
	if wrote {
		sb.WriteString("\n")
	}

	for _, subject := range g.Subjects() {
		statements := g.outgoing(subject)
		sb.WriteString(g.turtleTerm(subject))
		for i, t := range statements {
			if i == 0 {
				sb.WriteString(" ")
			} else {
				sb.WriteString("    ")
			}
			if t.Predicate == TypePredicate {
				sb.WriteString("a")
			} else {
				sb.WriteString(g.turtleTerm(t.Predicate))
			}
			sb.WriteString(" " + g.turtleTerm(t.Object))
			if i < len(statements)-1 {
				sb.WriteString(" ;\n")
			} else {
				sb.WriteString(" .\n\n")
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// NTriples returns the graph in N-Triples syntax, one statement per line.
func (g *Graph) NTriples() string {
	var buf bytes.Buffer
	_ = g.WriteNTriples(&buf)
	return buf.String()
}

// WriteNTriples writes the graph in N-Triples syntax to w.
func (g *Graph) WriteNTriples(w io.Writer) error {
	var sb strings.Builder
	for _, t := range g.triples {
		sb.WriteString(t.String())
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (g *Graph) turtleTerm(t Term) string {
	if name, _, ok := g.compact(t); ok {
		return name
	}
	return t.String()
}

// compact returns the prefixed name of an IRI if a bound namespace covers it.
// The longest matching base wins.
func (g *Graph) compact(t Term) (string, string, bool) {
	if !t.IsIRI() {
		return "", "", false
	}
	var best Namespace
	var bestLocal string
	for _, ns := range g.namespaces {
		local, ok := ns.Local(t.Value)
		if !ok || !localNamePattern.MatchString(local) {
			continue
		}
		if len(ns.Base) > len(best.Base) {
			best, bestLocal = ns, local
		}
	}
	if best.Prefix == "" {
		return "", "", false
	}
	return best.Prefix + ":" + bestLocal, best.Prefix, true
}
