// store.go implements the persistent half of the graph: the JSONL log and
// the mutation operations over it.
//
// Every mutation rewrites the whole log (one JSON object per line, entities
// before relations) through a temp file, fsync, and rename. If the rewrite
// fails the in-memory state is rolled back to the pre-mutation snapshot, so
// the log and memory never disagree.

package graph

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jpl-au/docgraph/internal/log"
	"github.com/jpl-au/docgraph/internal/validate"
)

// logRecord is the wire form of one log line, tagged "entity" or "relation".
type logRecord struct {
	Type string `json:"type"`

	Name         string   `json:"name,omitempty"`
	EntityType   string   `json:"entity_type,omitempty"`
	Observations []string `json:"observations,omitempty"`

	From         string         `json:"from,omitempty"`
	To           string         `json:"to,omitempty"`
	RelationType string         `json:"relation_type,omitempty"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// Store holds the graph in its two redundant forms.
type Store struct {
	path string

	mu        sync.Mutex
	entities  []*Entity // insertion order; rewrite order of the log
	byName    map[string]*Entity
	relations []*Relation
	relSet    map[relKey]*Relation
	mg        *multigraph // nil when the in-memory form is disabled
}

// Open loads (or creates) the graph log at path. When inMemory is true the
// directed multigraph form is maintained alongside the log.
func Open(path string, inMemory bool) (*Store, error) {
	s := &Store{
		path:   path,
		byName: make(map[string]*Entity),
		relSet: make(map[relKey]*Relation),
	}
	if inMemory {
		s.mg = newMultigraph()
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load rebuilds state from the log file. Missing file means empty graph.
func (s *Store) load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening graph log %s: %w", s.path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec logRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return fmt.Errorf("graph log %s line %d: %w", s.path, line, err)
		}
		switch rec.Type {
		case "entity":
			e := &Entity{Name: rec.Name, EntityType: rec.EntityType, Observations: rec.Observations}
			if _, dup := s.byName[e.Name]; dup {
				continue
			}
			s.addEntityLocked(e)
		case "relation":
			r := &Relation{From: rec.From, To: rec.To, RelationType: rec.RelationType, Properties: rec.Properties}
			if _, dup := s.relSet[r.key()]; dup {
				continue
			}
			s.addRelationLocked(r)
		default:
			return fmt.Errorf("graph log %s line %d: unknown record type %q", s.path, line, rec.Type)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading graph log %s: %w", s.path, err)
	}
	return nil
}

// save rewrites the full log: temp file, fsync, rename. Caller holds mu.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("%w: creating graph log directory: %v", validate.ErrInternal, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".graph-*")
	if err != nil {
		return fmt.Errorf("%w: creating graph log temp file: %v", validate.ErrInternal, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, e := range s.entities {
		rec := logRecord{Type: "entity", Name: e.Name, EntityType: e.EntityType, Observations: e.Observations}
		if rec.Observations == nil {
			rec.Observations = []string{}
		}
		if err := enc.Encode(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: encoding graph log: %v", validate.ErrInternal, err)
		}
	}
	for _, r := range s.relations {
		rec := logRecord{Type: "relation", From: r.From, To: r.To, RelationType: r.RelationType, Properties: r.Properties}
		if err := enc.Encode(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: encoding graph log: %v", validate.ErrInternal, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: flushing graph log: %v", validate.ErrInternal, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: syncing graph log: %v", validate.ErrInternal, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing graph log: %v", validate.ErrInternal, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: replacing graph log: %v", validate.ErrInternal, err)
	}
	return nil
}

// snapshot deep-copies the mutable state for rollback. Caller holds mu.
func (s *Store) snapshot() ([]*Entity, []*Relation) {
	ents := make([]*Entity, len(s.entities))
	for i, e := range s.entities {
		ents[i] = cloneEntity(e)
	}
	rels := make([]*Relation, len(s.relations))
	for i, r := range s.relations {
		rels[i] = cloneRelation(r)
	}
	return ents, rels
}

// restore rebuilds all indexes from a snapshot. Caller holds mu.
func (s *Store) restore(ents []*Entity, rels []*Relation) {
	s.entities = nil
	s.relations = nil
	s.byName = make(map[string]*Entity)
	s.relSet = make(map[relKey]*Relation)
	if s.mg != nil {
		s.mg = newMultigraph()
	}
	for _, e := range ents {
		s.addEntityLocked(e)
	}
	for _, r := range rels {
		s.addRelationLocked(r)
	}
}

func (s *Store) addEntityLocked(e *Entity) {
	s.entities = append(s.entities, e)
	s.byName[e.Name] = e
	if s.mg != nil {
		s.mg.addNode(e)
	}
}

func (s *Store) addRelationLocked(r *Relation) {
	s.relations = append(s.relations, r)
	s.relSet[r.key()] = r
	if s.mg != nil {
		s.mg.addEdge(r)
	}
}

// CreateEntities inserts the entities whose names are not already present
// and returns the inserted subset.
func (s *Store) CreateEntities(entities []Entity) ([]Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ents, rels := s.snapshot()
	var added []Entity
	for i := range entities {
		e := entities[i]
		if err := validate.EntityName(e.Name); err != nil {
			s.restore(ents, rels)
			return nil, err
		}
		if _, exists := s.byName[e.Name]; exists {
			continue
		}
		if e.Observations == nil {
			e.Observations = []string{}
		}
		s.addEntityLocked(cloneEntity(&e))
		added = append(added, e)
	}

	var err error
	if len(added) > 0 {
		if err = s.save(); err != nil {
			s.restore(ents, rels)
		}
	}
	log.Event("graph:create_entities", "write").
		Detail("requested", len(entities)).
		Detail("added", len(added)).
		Write(err)
	if err != nil {
		return nil, err
	}
	return added, nil
}

// UpsertEntities inserts the entities whose names are new and refreshes the
// entity type and observations of those already present. Incident relations
// of refreshed entities are untouched.
func (s *Store) UpsertEntities(entities []Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ents, rels := s.snapshot()
	changed := false
	for i := range entities {
		e := entities[i]
		if err := validate.EntityName(e.Name); err != nil {
			s.restore(ents, rels)
			return err
		}
		if e.Observations == nil {
			e.Observations = []string{}
		}
		if existing, ok := s.byName[e.Name]; ok {
			existing.EntityType = e.EntityType
			existing.Observations = append([]string(nil), e.Observations...)
			if s.mg != nil {
				s.mg.addNode(existing)
			}
		} else {
			s.addEntityLocked(cloneEntity(&e))
		}
		changed = true
	}

	var err error
	if changed {
		if err = s.save(); err != nil {
			s.restore(ents, rels)
		}
	}
	log.Event("graph:upsert_entities", "write").
		Detail("requested", len(entities)).
		Write(err)
	return err
}

// CreateRelations inserts the relations whose (from, to, relation_type)
// tuples are not already present and whose endpoints exist, returning the
// inserted subset. Relations with missing endpoints are skipped, not failed:
// graph sync re-asserts relations idempotently and must tolerate partial
// entity sets.
func (s *Store) CreateRelations(relations []Relation) ([]Relation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ents, rels := s.snapshot()
	var added []Relation
	for i := range relations {
		r := relations[i]
		if _, dup := s.relSet[r.key()]; dup {
			continue
		}
		if _, ok := s.byName[r.From]; !ok {
			log.Event("graph:create_relations", "write").
				Detail("skipped", r.From).
				Write(fmt.Errorf("%w: entity %q", validate.ErrPreconditionFailed, r.From))
			continue
		}
		if _, ok := s.byName[r.To]; !ok {
			log.Event("graph:create_relations", "write").
				Detail("skipped", r.To).
				Write(fmt.Errorf("%w: entity %q", validate.ErrPreconditionFailed, r.To))
			continue
		}
		s.addRelationLocked(cloneRelation(&r))
		added = append(added, r)
	}

	var err error
	if len(added) > 0 {
		if err = s.save(); err != nil {
			s.restore(ents, rels)
		}
	}
	log.Event("graph:create_relations", "write").
		Detail("requested", len(relations)).
		Detail("added", len(added)).
		Write(err)
	if err != nil {
		return nil, err
	}
	return added, nil
}

// AddObservations appends the given strings to an entity's observations,
// skipping ones already present, and returns what was actually added.
func (s *Store) AddObservations(entity string, contents []string) (*ObservationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byName[entity]
	if !ok {
		return nil, fmt.Errorf("%w: entity %q", validate.ErrNotFound, entity)
	}

	ents, rels := s.snapshot()
	existing := make(map[string]bool, len(e.Observations))
	for _, o := range e.Observations {
		existing[o] = true
	}
	var added []string
	for _, c := range contents {
		if existing[c] {
			continue
		}
		existing[c] = true
		e.Observations = append(e.Observations, c)
		added = append(added, c)
	}

	var err error
	if len(added) > 0 {
		if err = s.save(); err != nil {
			s.restore(ents, rels)
		}
	}
	log.Event("graph:add_observations", "write").
		Detail("entity", entity).
		Detail("added", len(added)).
		Write(err)
	if err != nil {
		return nil, err
	}
	return &ObservationResult{EntityName: entity, AddedObservations: added}, nil
}

// DeleteEntities removes the named entities and every edge incident to
// them, returning removal counts. Unknown names are ignored.
func (s *Store) DeleteEntities(names []string) (*DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ents, rels := s.snapshot()
	doomed := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := s.byName[n]; ok {
			doomed[n] = true
		}
	}

	res := &DeleteResult{}
	if len(doomed) > 0 {
		var keepEnts []*Entity
		for _, e := range s.entities {
			if doomed[e.Name] {
				res.EntitiesRemoved++
				continue
			}
			keepEnts = append(keepEnts, e)
		}
		var keepRels []*Relation
		for _, r := range s.relations {
			if doomed[r.From] || doomed[r.To] {
				res.RelationsRemoved++
				continue
			}
			keepRels = append(keepRels, r)
		}
		s.restore(keepEnts, keepRels)
	}

	var err error
	if res.EntitiesRemoved > 0 {
		if err = s.save(); err != nil {
			s.restore(ents, rels)
		}
	}
	log.Event("graph:delete_entities", "delete").
		Detail("entities_removed", res.EntitiesRemoved).
		Detail("relations_removed", res.RelationsRemoved).
		Write(err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteRelations removes exactly the given (from, to, relation_type)
// tuples and returns how many were removed.
func (s *Store) DeleteRelations(tuples []Relation) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ents, rels := s.snapshot()
	doomed := make(map[relKey]bool, len(tuples))
	for _, t := range tuples {
		doomed[t.key()] = true
	}

	removed := 0
	var keep []*Relation
	for _, r := range s.relations {
		if doomed[r.key()] {
			removed++
			continue
		}
		keep = append(keep, r)
	}
	if removed > 0 {
		s.restore(s.entities, keep)
	}

	var err error
	if removed > 0 {
		if err = s.save(); err != nil {
			s.restore(ents, rels)
		}
	}
	log.Event("graph:delete_relations", "delete").Detail("removed", removed).Write(err)
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// SearchNodes returns the sub-graph of entities whose name, type, or any
// observation contains query (case-insensitive), with the edges induced on
// that set.
func (s *Store) SearchNodes(query string) (*Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	matched := make(map[string]bool)
	g := &Graph{Entities: []Entity{}, Relations: []Relation{}}
	for _, e := range s.entities {
		if entityMatches(e, q) {
			matched[e.Name] = true
			g.Entities = append(g.Entities, *cloneEntity(e))
		}
	}
	for _, r := range s.relations {
		if matched[r.From] && matched[r.To] {
			g.Relations = append(g.Relations, *cloneRelation(r))
		}
	}
	return g, nil
}

func entityMatches(e *Entity, q string) bool {
	if strings.Contains(strings.ToLower(e.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(e.EntityType), q) {
		return true
	}
	for _, o := range e.Observations {
		if strings.Contains(strings.ToLower(o), q) {
			return true
		}
	}
	return false
}

// OpenNodes returns the induced sub-graph over exactly the given names.
func (s *Store) OpenNodes(names []string) (*Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	g := &Graph{Entities: []Entity{}, Relations: []Relation{}}
	for _, e := range s.entities {
		if want[e.Name] {
			g.Entities = append(g.Entities, *cloneEntity(e))
		}
	}
	for _, r := range s.relations {
		if want[r.From] && want[r.To] {
			g.Relations = append(g.Relations, *cloneRelation(r))
		}
	}
	return g, nil
}

// FullGraph returns a snapshot of every entity and relation.
func (s *Store) FullGraph() (*Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := &Graph{Entities: make([]Entity, 0, len(s.entities)), Relations: make([]Relation, 0, len(s.relations))}
	for _, e := range s.entities {
		g.Entities = append(g.Entities, *cloneEntity(e))
	}
	for _, r := range s.relations {
		g.Relations = append(g.Relations, *cloneRelation(r))
	}
	return g, nil
}

// Entities returns all entities, optionally filtered by type.
func (s *Store) Entities(entityType string) ([]Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entity
	for _, e := range s.entities {
		if entityType != "" && e.EntityType != entityType {
			continue
		}
		out = append(out, *cloneEntity(e))
	}
	return out, nil
}

// Relations returns relations filtered by any combination of endpoint names
// and relation type; empty filters match everything.
func (s *Store) Relations(from, to, relationType string) ([]Relation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Relation
	for _, r := range s.relations {
		if from != "" && r.From != from {
			continue
		}
		if to != "" && r.To != to {
			continue
		}
		if relationType != "" && r.RelationType != relationType {
			continue
		}
		out = append(out, *cloneRelation(r))
	}
	return out, nil
}
