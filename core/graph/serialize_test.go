package graph

import (
	"strings"
	"testing"

	"github.com/siherrmann/inscriber/model"
	"github.com/stretchr/testify/assert"
)

func TestTurtle(t *testing.T) {
	t.Run("Inscription block", func(t *testing.T) {
		g := BuildInscriptions("https://example.org/iiif/m1/canvas/p1",
			[]model.NamedEntity{{Text: "Barney Rubble", Type: model.EntityPerson}},
			fixedMint("abc"),
		)

		expected := `@prefix ecrm: <http://erlangen-crm.org/200717/> .
@prefix etype: <https://figgy.princeton.edu/concerns/adam/> .
@prefix inscription: <https://figgy.princeton.edu/concerns/inscriptions/> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

inscription:abc a ecrm:E34_Inscription ;
    rdfs:label "Barney Rubble" ;
    ecrm:P128i_is_carried_by <https://example.org/iiif/m1/canvas/p1> ;
    ecrm:P190_has_symbolic_content "Barney Rubble" ;
    ecrm:P2_has_type etype:PERSON .

`
		assert.Equal(t, expected, g.Turtle())
	})

	t.Run("Empty graph is empty", func(t *testing.T) {
		assert.Equal(t, "", New().Turtle())
	})

	t.Run("Literals are escaped", func(t *testing.T) {
		g := New()
		g.Add(IRI("http://example.org/s"), LabelPredicate, Literal("say \"hi\"\nback\\slash"))

		out := g.Turtle()

		assert.Contains(t, out, `<http://example.org/s> rdfs:label "say \"hi\"\nback\\slash" .`)
	})

	t.Run("Unsafe local names stay full IRIs", func(t *testing.T) {
		g := New()
		g.Add(EType.Term("WORK OF ART"), LabelPredicate, Literal("x"))

		out := g.Turtle()

		assert.Contains(t, out, "<https://figgy.princeton.edu/concerns/adam/WORK%20OF%20ART>")
		assert.NotContains(t, out, "@prefix etype:")
	})
}

func TestNTriples(t *testing.T) {
	t.Run("One line per triple", func(t *testing.T) {
		g := BuildInscriptions("https://example.org/c/p1",
			[]model.NamedEntity{{Text: "Barney Rubble", Type: model.EntityPerson}},
			fixedMint("abc"),
		)

		lines := strings.Split(strings.TrimSuffix(g.NTriples(), "\n"), "\n")

		assert.Len(t, lines, 5)
		assert.Equal(t, "<https://figgy.princeton.edu/concerns/inscriptions/abc> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://erlangen-crm.org/200717/E34_Inscription> .", lines[0])
		assert.Equal(t, `<https://figgy.princeton.edu/concerns/inscriptions/abc> <http://www.w3.org/2000/01/rdf-schema#label> "Barney Rubble" .`, lines[1])
	})

	t.Run("Language tags are written", func(t *testing.T) {
		g := New()
		g.Add(IRI("http://example.org/s"), LabelPredicate, LangLiteral("Bonjour", "fr"))

		assert.Equal(t, `<http://example.org/s> <http://www.w3.org/2000/01/rdf-schema#label> "Bonjour"@fr .`+"\n", g.NTriples())
	})
}
