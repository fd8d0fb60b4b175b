// Package graph implements the knowledge-graph overlay: named entities,
// directed typed relations, and traversal queries over them.
//
// Entities and relations are stored in two redundant forms. The source of
// truth is an append-structured JSONL log file, rewritten atomically on
// every mutation. An optional in-memory directed multigraph mirrors the log
// and serves traversal queries; it is rebuilt from the log at startup and
// must never diverge from it.
package graph

// Entity is a named node. Names are globally unique and case-sensitive.
type Entity struct {
	Name         string   `json:"name"`
	EntityType   string   `json:"entity_type"`
	Observations []string `json:"observations"`
}

// Relation is a directed typed edge between two entities. The
// (From, To, RelationType) tuple is unique.
type Relation struct {
	From         string         `json:"from"`
	To           string         `json:"to"`
	RelationType string         `json:"relation_type"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// key returns the identity tuple of a relation.
func (r Relation) key() relKey {
	return relKey{From: r.From, To: r.To, Type: r.RelationType}
}

type relKey struct {
	From string
	To   string
	Type string
}

// Graph is a snapshot of entities and the relations induced on them.
type Graph struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// Connection is one edge incident to an entity, seen from that entity.
type Connection struct {
	Entity       string         `json:"entity"`
	RelationType string         `json:"relation_type"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// Connections lists the incoming and outgoing edges of one entity.
type Connections struct {
	Entity   string       `json:"entity"`
	Incoming []Connection `json:"incoming"`
	Outgoing []Connection `json:"outgoing"`
}

// RelatedEntity is an entity reached by a bounded-depth traversal. Only the
// first three observations are carried, keeping neighbourhood listings small.
type RelatedEntity struct {
	Name         string   `json:"name"`
	EntityType   string   `json:"entity_type"`
	Observations []string `json:"observations"`
}

// PathStep is one element of an alternating entity/relation path.
type PathStep struct {
	Type string `json:"type"` // "entity" or "relation"

	// Entity fields
	Name       string `json:"name,omitempty"`
	EntityType string `json:"entity_type,omitempty"`

	// Relation fields
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
	RelationType string `json:"relation_type,omitempty"`
}

// ScoredName pairs an entity name with its similarity to a query name.
type ScoredName struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// ObservationResult reports the observations actually appended to an entity.
type ObservationResult struct {
	EntityName        string   `json:"entity_name"`
	AddedObservations []string `json:"added_observations"`
}

// DeleteResult reports how many entities and relations a deletion removed.
type DeleteResult struct {
	EntitiesRemoved  int `json:"entities_removed"`
	RelationsRemoved int `json:"relations_removed"`
}

// cloneEntity returns a deep copy so snapshots never alias live state.
func cloneEntity(e *Entity) *Entity {
	c := *e
	c.Observations = append([]string(nil), e.Observations...)
	return &c
}

func cloneRelation(r *Relation) *Relation {
	c := *r
	if r.Properties != nil {
		c.Properties = make(map[string]any, len(r.Properties))
		for k, v := range r.Properties {
			c.Properties[k] = v
		}
	}
	return &c
}
