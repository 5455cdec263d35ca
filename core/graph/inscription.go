package graph

import (
	"context"

	"github.com/lithammer/shortuuid/v4"
	"github.com/siherrmann/inscriber/model"
)

// MintFunc generates the local part of a new identifier.
type MintFunc func() string

// ShortUUID mints base57 short uuids.
func ShortUUID() string {
	return shortuuid.New()
}

// BuildInscriptions returns a graph with one inscription per entity, in entity order.
// Repeated entities get distinct inscriptions. A nil mint uses ShortUUID.
func BuildInscriptions(canvasID string, entities []model.NamedEntity, mint MintFunc) *Graph {
	g := New()
	AddInscriptions(g, canvasID, entities, mint)
	return g
}

// AddInscriptions adds the inscription statements for entities to g and
// returns the minted subjects.
func AddInscriptions(g *Graph, canvasID string, entities []model.NamedEntity, mint MintFunc) []Term {
	if mint == nil {
		mint = ShortUUID
	}
	canvas := IRI(canvasID)

	subjects := make([]Term, 0, len(entities))
	for _, e := range entities {
		subject := Inscription.Term(mint())
		text := Literal(e.Text)

		g.Add(subject, TypePredicate, InscriptionType)
		g.Add(subject, LabelPredicate, text)
		g.Add(subject, CarriedBy, canvas)
		g.Add(subject, SymbolicContent, text)
		g.Add(subject, HasType, EType.Term(e.Type))
		subjects = append(subjects, subject)
	}
	return subjects
}

// Inscriptions returns the inscriptions carried by the canvas, in graph order.
func Inscriptions(ctx context.Context, g *Graph, canvasID string) ([]model.Inscription, error) {
	results, err := BFS(ctx, g, IRI(canvasID), 1, []Term{CarriedBy}, true)
	if err != nil {
		return nil, err
	}

	out := []model.Inscription{}
	for _, r := range results {
		if r.Distance != 1 || !g.Contains(r.Node, TypePredicate, InscriptionType) {
			continue
		}
		inscription := model.Inscription{IRI: r.Node.Value, CanvasID: canvasID}
		if label, ok := g.Value(r.Node, LabelPredicate); ok {
			inscription.Text = label.Value
		}
		if t, ok := g.Value(r.Node, HasType); ok {
			if local, ok := EType.Local(t.Value); ok {
				inscription.EntityType = local
			} else {
				inscription.EntityType = t.Value
			}
		}
		out = append(out, inscription)
	}
	return out, nil
}
