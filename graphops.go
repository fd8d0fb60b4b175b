// graphops.go exposes the knowledge-graph operations on Store.

package docgraph

import (
	"github.com/jpl-au/docgraph/internal/graph"
)

// Graph views and inputs.
type (
	Entity            = graph.Entity
	Relation          = graph.Relation
	Graph             = graph.Graph
	Connections       = graph.Connections
	Connection        = graph.Connection
	RelatedEntity     = graph.RelatedEntity
	PathStep          = graph.PathStep
	ScoredName        = graph.ScoredName
	ObservationResult = graph.ObservationResult
	DeleteResult      = graph.DeleteResult
)

// MaxTraversalDepth bounds RelatedEntities and FindPaths requests.
const MaxTraversalDepth = graph.MaxTraversalDepth

// CreateEntities inserts the entities whose names are new, returning the
// inserted subset.
func (s *Store) CreateEntities(entities []Entity) ([]Entity, error) {
	return s.graph.CreateEntities(entities)
}

// CreateRelations inserts the relations whose tuples are new and whose
// endpoints exist, returning the inserted subset.
func (s *Store) CreateRelations(relations []Relation) ([]Relation, error) {
	return s.graph.CreateRelations(relations)
}

// AddObservations appends new observation strings to an entity.
func (s *Store) AddObservations(entity string, contents []string) (*ObservationResult, error) {
	return s.graph.AddObservations(entity, contents)
}

// DeleteEntities removes the named entities and their incident relations.
func (s *Store) DeleteEntities(names []string) (*DeleteResult, error) {
	return s.graph.DeleteEntities(names)
}

// DeleteRelations removes the given relation tuples, returning how many
// were actually present.
func (s *Store) DeleteRelations(relations []Relation) (int, error) {
	return s.graph.DeleteRelations(relations)
}

// SearchNodes returns the sub-graph of entities matching query by name,
// type, or observation, with the edges induced on that set.
func (s *Store) SearchNodes(query string) (*Graph, error) {
	return s.graph.SearchNodes(query)
}

// OpenNodes returns the named entities and the edges induced on them.
func (s *Store) OpenNodes(names []string) (*Graph, error) {
	return s.graph.OpenNodes(names)
}

// FullGraph returns every entity and relation.
func (s *Store) FullGraph() (*Graph, error) {
	return s.graph.FullGraph()
}

// Entities lists entities, optionally restricted to one type.
func (s *Store) Entities(entityType string) ([]Entity, error) {
	return s.graph.Entities(entityType)
}

// Relations lists relations, optionally restricted by endpoint or type.
func (s *Store) Relations(from, to, relationType string) ([]Relation, error) {
	return s.graph.Relations(from, to, relationType)
}

// EntityConnections returns the incoming and outgoing edges of one entity.
func (s *Store) EntityConnections(name string) (*Connections, error) {
	return s.graph.EntityConnections(name)
}

// RelatedEntities returns the entities within maxDepth undirected hops of
// name, excluding name itself.
func (s *Store) RelatedEntities(name string, maxDepth int) ([]RelatedEntity, error) {
	return s.graph.RelatedEntities(name, maxDepth)
}

// FindPaths returns every simple directed path between two entities with at
// most maxLength edges.
func (s *Store) FindPaths(from, to string, maxLength int) ([][]PathStep, error) {
	return s.graph.FindPaths(from, to, maxLength)
}

// SimilarNames returns entity names whose similarity ratio to name is at
// least threshold, best first.
func (s *Store) SimilarNames(name string, threshold float64) ([]ScoredName, error) {
	return s.graph.SimilarNames(name, threshold)
}
