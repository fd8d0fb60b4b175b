// graphsync.go mirrors document lifecycle events into the knowledge graph.
// Every live document has a document:<id> entity; its tags and source URL
// get their own entities with tagged_with / sourced_from edges. Sync is
// best-effort: a graph failure is logged and never fails the document write.

package document

import (
	"sort"
	"strings"

	"github.com/jpl-au/docgraph/internal/graph"
	"github.com/jpl-au/docgraph/internal/log"
)

// syncGraph upserts the graph projection of one document. Tag and source
// entities accumulate; edges from earlier tag sets are left in place.
func (s *Service) syncGraph(id, title, docType string, tags []string, metadata map[string]any, sourceURL string) {
	docEntity := "document:" + id

	observations := []string{
		"Title: " + title,
		"Type: " + docType,
	}
	if len(tags) > 0 {
		observations = append(observations, "Tags: "+strings.Join(tags, ", "))
	}
	if sourceURL != "" {
		observations = append(observations, "Source URL: "+sourceURL)
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v, ok := scalarString(metadata[k]); ok {
			observations = append(observations, k+": "+v)
		}
	}

	entities := []graph.Entity{{
		Name:         docEntity,
		EntityType:   "document",
		Observations: observations,
	}}
	var relations []graph.Relation
	for _, tag := range tags {
		entities = append(entities, graph.Entity{
			Name:         "tag:" + tag,
			EntityType:   "tag",
			Observations: []string{"Document tag: " + tag},
		})
		relations = append(relations, graph.Relation{
			From:         docEntity,
			To:           "tag:" + tag,
			RelationType: "tagged_with",
		})
	}
	if sourceURL != "" {
		sourceEntity := "source:" + sanitiseURL(sourceURL)
		entities = append(entities, graph.Entity{
			Name:         sourceEntity,
			EntityType:   "source",
			Observations: []string{"URL: " + sourceURL},
		})
		relations = append(relations, graph.Relation{
			From:         docEntity,
			To:           sourceEntity,
			RelationType: "sourced_from",
		})
	}

	if err := s.graph.UpsertEntities(entities); err != nil {
		log.Event("document:graph_sync", "write").Doc(id).Write(err)
		return
	}
	if len(relations) > 0 {
		if _, err := s.graph.CreateRelations(relations); err != nil {
			log.Event("document:graph_sync", "write").Doc(id).Write(err)
		}
	}
}

// dropFromGraph deletes the document's entity; the graph store cascades its
// incident edges. Tag and source entities stay.
func (s *Service) dropFromGraph(id string) {
	if _, err := s.graph.DeleteEntities([]string{"document:" + id}); err != nil {
		log.Event("document:graph_sync", "delete").Doc(id).Write(err)
	}
}

// sanitiseURL flattens a URL into an entity-name-safe token.
func sanitiseURL(u string) string {
	return strings.ReplaceAll(strings.ReplaceAll(u, "://", "_"), "/", "_")
}
