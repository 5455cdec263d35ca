package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph(t *testing.T) {
	a := IRI("http://example.org/a")
	b := IRI("http://example.org/b")
	knows := IRI("http://example.org/knows")

	t.Run("Add ignores duplicate triples", func(t *testing.T) {
		g := New()

		assert.True(t, g.Add(a, knows, b))
		assert.False(t, g.Add(a, knows, b), "Expected the second add to be a no-op")
		assert.Equal(t, 1, g.Len())
		assert.True(t, g.Contains(a, knows, b))
	})

	t.Run("Literal and IRI with the same value differ", func(t *testing.T) {
		g := New()
		g.Add(a, LabelPredicate, Literal("http://example.org/b"))
		g.Add(a, LabelPredicate, b)

		assert.Equal(t, 2, g.Len())
	})

	t.Run("Merge unions triples and namespaces", func(t *testing.T) {
		g1 := New()
		g1.Add(a, knows, b)
		g2 := New()
		g2.Bind(Namespace{Prefix: "ex", Base: "http://example.org/"})
		g2.Add(a, knows, b)
		g2.Add(b, knows, a)

		g1.Merge(g2)
		g1.Merge(nil)

		assert.Equal(t, 2, g1.Len())
		prefixes := []string{}
		for _, ns := range g1.Namespaces() {
			prefixes = append(prefixes, ns.Prefix)
		}
		assert.Contains(t, prefixes, "ex")
	})

	t.Run("Subjects keep first appearance order", func(t *testing.T) {
		g := New()
		g.Add(b, knows, a)
		g.Add(a, knows, b)
		g.Add(b, LabelPredicate, Literal("B"))

		assert.Equal(t, []Term{b, a}, g.Subjects())
	})

	t.Run("Objects and Value", func(t *testing.T) {
		g := New()
		g.Add(a, LabelPredicate, Literal("first"))
		g.Add(a, LabelPredicate, Literal("second"))

		assert.Equal(t, []Term{Literal("first"), Literal("second")}, g.Objects(a, LabelPredicate))
		v, ok := g.Value(a, LabelPredicate)
		require.True(t, ok)
		assert.Equal(t, "first", v.Value)

		_, ok = g.Value(b, LabelPredicate)
		assert.False(t, ok)
	})

	t.Run("Triples returns a copy", func(t *testing.T) {
		g := New()
		g.Add(a, knows, b)

		triples := g.Triples()
		triples[0].Object = a

		assert.True(t, g.Contains(a, knows, b))
	})
}

func TestNamespace(t *testing.T) {
	t.Run("Term and Local", func(t *testing.T) {
		term := EType.Term("PERSON")
		assert.Equal(t, "https://figgy.princeton.edu/concerns/adam/PERSON", term.Value)

		local, ok := EType.Local(term.Value)
		assert.True(t, ok)
		assert.Equal(t, "PERSON", local)

		_, ok = ECRM.Local(term.Value)
		assert.False(t, ok)
	})
}
