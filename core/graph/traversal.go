package graph

import (
	"context"
)

// TraversalResult contains a node and its distance from the source
type TraversalResult struct {
	Node     Term
	Distance int
	Path     []Term // Path from source to this node
}

// neighbors returns the IRI nodes adjacent to node over the given predicates.
// An empty predicate list follows every predicate.
func neighbors(g *Graph, node Term, predicates []Term, followInverse bool) []Term {
	allowed := func(p Term) bool {
		if len(predicates) == 0 {
			return true
		}
		for _, q := range predicates {
			if q == p {
				return true
			}
		}
		return false
	}

	var out []Term
	for _, t := range g.outgoing(node) {
		if allowed(t.Predicate) && t.Object.IsIRI() {
			out = append(out, t.Object)
		}
	}
	if followInverse {
		for _, t := range g.incoming(node) {
			if allowed(t.Predicate) {
				out = append(out, t.Subject)
			}
		}
	}
	return out
}

// BFS performs breadth-first search from a source node
func BFS(ctx context.Context, g *Graph, source Term, maxHops int, predicates []Term, followInverse bool) ([]*TraversalResult, error) {
	visited := map[Term]bool{source: true}
	queue := []TraversalResult{{
		Node:     source,
		Distance: 0,
		Path:     []Term{source},
	}}

	var results []*TraversalResult
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		results = append(results, &current)

		if current.Distance >= maxHops {
			continue
		}

		for _, target := range neighbors(g, current.Node, predicates, followInverse) {
			if visited[target] {
				continue
			}
			visited[target] = true

			newPath := make([]Term, len(current.Path), len(current.Path)+1)
			copy(newPath, current.Path)
			newPath = append(newPath, target)

			queue = append(queue, TraversalResult{
				Node:     target,
				Distance: current.Distance + 1,
				Path:     newPath,
			})
		}
	}

	return results, nil
}

// DFS performs depth-first search from a source node
func DFS(ctx context.Context, g *Graph, source Term, maxHops int, predicates []Term, followInverse bool) ([]*TraversalResult, error) {
	visited := make(map[Term]bool)
	var results []*TraversalResult

	if err := dfsRecursive(ctx, g, source, 0, maxHops, []Term{source}, predicates, followInverse, visited, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// dfsRecursive is the recursive helper for DFS
func dfsRecursive(
	ctx context.Context,
	g *Graph,
	current Term,
	distance int,
	maxHops int,
	path []Term,
	predicates []Term,
	followInverse bool,
	visited map[Term]bool,
	results *[]*TraversalResult,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	visited[current] = true

	pathCopy := make([]Term, len(path))
	copy(pathCopy, path)
	*results = append(*results, &TraversalResult{
		Node:     current,
		Distance: distance,
		Path:     pathCopy,
	})

	if distance >= maxHops {
		return nil
	}

	for _, target := range neighbors(g, current, predicates, followInverse) {
		if visited[target] {
			continue
		}

		newPath := make([]Term, len(path), len(path)+1)
		copy(newPath, path)
		newPath = append(newPath, target)

		if err := dfsRecursive(ctx, g, target, distance+1, maxHops, newPath, predicates, followInverse, visited, results); err != nil {
			return err
		}
	}
	return nil
}

// GetNeighbors retrieves immediate neighbors (1-hop) of a node
func GetNeighbors(ctx context.Context, g *Graph, node Term, predicates []Term, followInverse bool) ([]Term, error) {
	results, err := BFS(ctx, g, node, 1, predicates, followInverse)
	if err != nil {
		return nil, err
	}

	// Skip the source node itself (first result)
	out := make([]Term, 0, len(results)-1)
	for i := 1; i < len(results); i++ {
		out = append(out, results[i].Node)
	}
	return out, nil
}
