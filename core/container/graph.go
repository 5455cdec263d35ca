package container

import (
	"context"
	"log/slog"

	"github.com/siherrmann/inscriber/core/graph"
	"github.com/siherrmann/inscriber/core/page"
)

// PageGraph is the inscription graph of one page, or the error that prevented it.
type PageGraph struct {
	Page  *page.Page
	Graph *graph.Graph
	Err   error
}

// PageGraphs builds one inscription graph per page. Page failures are logged
// and returned in place.
func (c *Container) PageGraphs(ctx context.Context, mint graph.MintFunc) ([]PageGraph, error) {
	pages, err := c.Pages(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]PageGraph, 0, len(pages))
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		entities, err := p.Entities(ctx)
		if err != nil {
			c.logger.Warn("Skipping page graph", slog.String("page", p.ID()), slog.String("error", err.Error()))
			c.sources.Metrics.PageFailure(err)
			out = append(out, PageGraph{Page: p, Err: err})
			continue
		}
		out = append(out, PageGraph{Page: p, Graph: graph.BuildInscriptions(p.Canvas().ID, entities, mint)})
	}
	return out, nil
}

// BuildGraph merges the page graphs of the container. Pages that fail are skipped.
func (c *Container) BuildGraph(ctx context.Context, mint graph.MintFunc) (*graph.Graph, error) {
	pageGraphs, err := c.PageGraphs(ctx, mint)
	if err != nil {
		return nil, err
	}
	g := graph.New()
	for _, pg := range pageGraphs {
		g.Merge(pg.Graph)
	}
	return g, nil
}
