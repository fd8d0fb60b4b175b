// traverse.go implements the traversal queries: entity connections,
// bounded-depth neighbourhoods, all simple paths, and fuzzy name lookup.
//
// Outputs are sorted so that traversal results are stable across runs even
// though the underlying adjacency is map-backed.

package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jpl-au/docgraph/internal/validate"
)

// MaxTraversalDepth bounds RelatedEntities and FindPaths requests.
const MaxTraversalDepth = 10

// EntityConnections returns the incoming and outgoing edges of one entity.
func (s *Store) EntityConnections(name string) (*Connections, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[name]; !ok {
		return nil, fmt.Errorf("%w: entity %q", validate.ErrNotFound, name)
	}

	mg := s.graphView()
	c := &Connections{Entity: name, Incoming: []Connection{}, Outgoing: []Connection{}}
	for _, r := range mg.incoming(name) {
		c.Incoming = append(c.Incoming, Connection{Entity: r.From, RelationType: r.RelationType, Properties: r.Properties})
	}
	for _, r := range mg.outgoing(name) {
		c.Outgoing = append(c.Outgoing, Connection{Entity: r.To, RelationType: r.RelationType, Properties: r.Properties})
	}
	sortConnections(c.Incoming)
	sortConnections(c.Outgoing)
	return c, nil
}

func sortConnections(cs []Connection) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Entity != cs[j].Entity {
			return cs[i].Entity < cs[j].Entity
		}
		return cs[i].RelationType < cs[j].RelationType
	})
}

// RelatedEntities walks the undirected neighbourhood of name up to maxDepth
// hops and returns the entities reached, excluding the start, each carrying
// at most its first three observations. Depth 0 returns nothing.
func (s *Store) RelatedEntities(name string, maxDepth int) ([]RelatedEntity, error) {
	if err := validate.Depth(maxDepth, MaxTraversalDepth); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[name]; !ok {
		return nil, fmt.Errorf("%w: entity %q", validate.ErrNotFound, name)
	}

	mg := s.graphView()
	visited := map[string]bool{name: true}
	frontier := []string{name}
	var reached []string
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, n := range frontier {
			for _, nb := range mg.neighbors(n) {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				reached = append(reached, nb)
				next = append(next, nb)
			}
		}
		frontier = next
	}

	sort.Strings(reached)
	out := make([]RelatedEntity, 0, len(reached))
	for _, n := range reached {
		e := s.byName[n]
		obs := e.Observations
		if len(obs) > 3 {
			obs = obs[:3]
		}
		out = append(out, RelatedEntity{
			Name:         e.Name,
			EntityType:   e.EntityType,
			Observations: append([]string(nil), obs...),
		})
	}
	return out, nil
}

// FindPaths returns every simple directed path from one entity to another
// with at most maxLength edges, as alternating entity/relation steps. The
// trivial zero-length path is included when from equals to.
func (s *Store) FindPaths(from, to string, maxLength int) ([][]PathStep, error) {
	if err := validate.Depth(maxLength, MaxTraversalDepth); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[from]; !ok {
		return nil, fmt.Errorf("%w: entity %q", validate.ErrNotFound, from)
	}
	if _, ok := s.byName[to]; !ok {
		return nil, fmt.Errorf("%w: entity %q", validate.ErrNotFound, to)
	}

	mg := s.graphView()
	var paths [][]PathStep

	if from == to {
		paths = append(paths, []PathStep{s.entityStep(from)})
		return paths, nil
	}

	onPath := map[string]bool{from: true}
	steps := []PathStep{s.entityStep(from)}
	s.dfsPaths(mg, from, to, maxLength, onPath, steps, &paths)
	return paths, nil
}

// dfsPaths extends the current path along every outgoing edge, emitting a
// copy whenever it reaches the target. onPath enforces simplicity.
func (s *Store) dfsPaths(mg *multigraph, cur, to string, budget int, onPath map[string]bool, steps []PathStep, paths *[][]PathStep) {
	if budget == 0 {
		return
	}
	edges := mg.outgoing(cur)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].RelationType < edges[j].RelationType
	})
	for _, r := range edges {
		if onPath[r.To] {
			continue
		}
		next := append(steps,
			PathStep{Type: "relation", From: r.From, To: r.To, RelationType: r.RelationType},
			s.entityStep(r.To),
		)
		if r.To == to {
			*paths = append(*paths, append([]PathStep(nil), next...))
			continue
		}
		onPath[r.To] = true
		s.dfsPaths(mg, r.To, to, budget-1, onPath, next, paths)
		delete(onPath, r.To)
	}
}

func (s *Store) entityStep(name string) PathStep {
	step := PathStep{Type: "entity", Name: name}
	if e, ok := s.byName[name]; ok {
		step.EntityType = e.EntityType
	}
	return step
}

// SimilarNames returns every entity name whose case-folded similarity ratio
// to name is at least threshold, sorted by descending similarity.
func (s *Store) SimilarNames(name string, threshold float64) ([]ScoredName, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := strings.ToLower(name)
	var out []ScoredName
	for _, e := range s.entities {
		score := SimilarityRatio(target, strings.ToLower(e.Name))
		if score >= threshold {
			out = append(out, ScoredName{Name: e.Name, Similarity: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
