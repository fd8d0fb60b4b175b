// memory.go implements the in-memory directed multigraph form: node
// attributes plus adjacency and reverse-adjacency keyed by the relation
// tuple, so parallel edges of different types coexist.
//
// The multigraph is a cache of the JSONL log. The store mutates both under
// one mutex and rebuilds the multigraph from the log at startup and after
// any rollback, so divergence between the forms is a bug, not a state.

package graph

type multigraph struct {
	nodes map[string]*Entity
	out   map[string]map[relKey]*Relation
	in    map[string]map[relKey]*Relation
}

func newMultigraph() *multigraph {
	return &multigraph{
		nodes: make(map[string]*Entity),
		out:   make(map[string]map[relKey]*Relation),
		in:    make(map[string]map[relKey]*Relation),
	}
}

func (m *multigraph) addNode(e *Entity) {
	m.nodes[e.Name] = e
}

func (m *multigraph) addEdge(r *Relation) {
	k := r.key()
	if m.out[r.From] == nil {
		m.out[r.From] = make(map[relKey]*Relation)
	}
	m.out[r.From][k] = r
	if m.in[r.To] == nil {
		m.in[r.To] = make(map[relKey]*Relation)
	}
	m.in[r.To][k] = r
}

func (m *multigraph) hasNode(name string) bool {
	_, ok := m.nodes[name]
	return ok
}

// outgoing returns the edges leaving name.
func (m *multigraph) outgoing(name string) []*Relation {
	var out []*Relation
	for _, r := range m.out[name] {
		out = append(out, r)
	}
	return out
}

// incoming returns the edges arriving at name.
func (m *multigraph) incoming(name string) []*Relation {
	var in []*Relation
	for _, r := range m.in[name] {
		in = append(in, r)
	}
	return in
}

// neighbors returns the undirected neighbourhood of name, deduplicated.
func (m *multigraph) neighbors(name string) []string {
	seen := make(map[string]bool)
	var ns []string
	for _, r := range m.out[name] {
		if !seen[r.To] {
			seen[r.To] = true
			ns = append(ns, r.To)
		}
	}
	for _, r := range m.in[name] {
		if !seen[r.From] {
			seen[r.From] = true
			ns = append(ns, r.From)
		}
	}
	return ns
}

// graphView returns the multigraph to answer traversals with, building a
// transient one from the canonical slices when the cached form is disabled.
// Caller holds the store mutex.
func (s *Store) graphView() *multigraph {
	if s.mg != nil {
		return s.mg
	}
	mg := newMultigraph()
	for _, e := range s.entities {
		mg.addNode(e)
	}
	for _, r := range s.relations {
		mg.addEdge(r)
	}
	return mg
}
