package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "memory.jsonl"), true)
	require.NoError(t, err)
	return s
}

func TestCreateEntities(t *testing.T) {
	s := newTestStore(t)

	t.Run("inserts new entities", func(t *testing.T) {
		added, err := s.CreateEntities([]Entity{
			{Name: "alice", EntityType: "person", Observations: []string{"likes go"}},
			{Name: "bob", EntityType: "person"},
		})
		require.NoError(t, err)
		assert.Len(t, added, 2)
	})

	t.Run("skips existing entities", func(t *testing.T) {
		added, err := s.CreateEntities([]Entity{
			{Name: "alice", EntityType: "robot"},
			{Name: "carol", EntityType: "person"},
		})
		require.NoError(t, err)
		require.Len(t, added, 1)
		assert.Equal(t, "carol", added[0].Name)

		// alice keeps her original type
		g, err := s.OpenNodes([]string{"alice"})
		require.NoError(t, err)
		require.Len(t, g.Entities, 1)
		assert.Equal(t, "person", g.Entities[0].EntityType)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := s.CreateEntities([]Entity{{Name: ""}})
		assert.Error(t, err)
	})
}

func TestUpsertEntities(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateEntities([]Entity{
		{Name: "doc", EntityType: "document", Observations: []string{"Title: Old"}},
		{Name: "tag:x", EntityType: "tag"},
	})
	require.NoError(t, err)
	_, err = s.CreateRelations([]Relation{{From: "doc", To: "tag:x", RelationType: "tagged_with"}})
	require.NoError(t, err)

	require.NoError(t, s.UpsertEntities([]Entity{
		{Name: "doc", EntityType: "document", Observations: []string{"Title: New"}},
		{Name: "fresh", EntityType: "note"},
	}))

	g, err := s.OpenNodes([]string{"doc", "fresh"})
	require.NoError(t, err)
	require.Len(t, g.Entities, 2)
	for _, e := range g.Entities {
		if e.Name == "doc" {
			assert.Equal(t, []string{"Title: New"}, e.Observations)
		}
	}

	// refresh keeps incident relations
	conns, err := s.EntityConnections("doc")
	require.NoError(t, err)
	assert.Len(t, conns.Outgoing, 1)
}

func TestCreateRelations(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateEntities([]Entity{
		{Name: "a", EntityType: "t"},
		{Name: "b", EntityType: "t"},
	})
	require.NoError(t, err)

	t.Run("inserts and deduplicates", func(t *testing.T) {
		added, err := s.CreateRelations([]Relation{
			{From: "a", To: "b", RelationType: "knows"},
			{From: "a", To: "b", RelationType: "knows"},
		})
		require.NoError(t, err)
		assert.Len(t, added, 1)
	})

	t.Run("skips missing endpoints", func(t *testing.T) {
		added, err := s.CreateRelations([]Relation{
			{From: "a", To: "ghost", RelationType: "haunts"},
		})
		require.NoError(t, err)
		assert.Empty(t, added)
	})

	t.Run("parallel edges of different types coexist", func(t *testing.T) {
		added, err := s.CreateRelations([]Relation{
			{From: "a", To: "b", RelationType: "trusts"},
		})
		require.NoError(t, err)
		assert.Len(t, added, 1)

		rels, err := s.Relations("a", "b", "")
		require.NoError(t, err)
		assert.Len(t, rels, 2)
	})
}

func TestAddObservations(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateEntities([]Entity{{Name: "a", EntityType: "t", Observations: []string{"one"}}})
	require.NoError(t, err)

	t.Run("appends new, skips present", func(t *testing.T) {
		res, err := s.AddObservations("a", []string{"one", "two", "two"})
		require.NoError(t, err)
		assert.Equal(t, []string{"two"}, res.AddedObservations)
	})

	t.Run("unknown entity fails", func(t *testing.T) {
		_, err := s.AddObservations("ghost", []string{"x"})
		assert.Error(t, err)
	})
}

func TestDeleteEntities(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateEntities([]Entity{
		{Name: "a", EntityType: "t"},
		{Name: "b", EntityType: "t"},
		{Name: "c", EntityType: "t"},
	})
	require.NoError(t, err)
	_, err = s.CreateRelations([]Relation{
		{From: "a", To: "b", RelationType: "knows"},
		{From: "c", To: "a", RelationType: "knows"},
		{From: "b", To: "c", RelationType: "knows"},
	})
	require.NoError(t, err)

	res, err := s.DeleteEntities([]string{"a", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.EntitiesRemoved)
	assert.Equal(t, 2, res.RelationsRemoved)

	g, err := s.FullGraph()
	require.NoError(t, err)
	assert.Len(t, g.Entities, 2)
	require.Len(t, g.Relations, 1)
	assert.Equal(t, "b", g.Relations[0].From)
}

func TestDeleteRelations(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateEntities([]Entity{{Name: "a", EntityType: "t"}, {Name: "b", EntityType: "t"}})
	require.NoError(t, err)
	_, err = s.CreateRelations([]Relation{{From: "a", To: "b", RelationType: "knows"}})
	require.NoError(t, err)

	n, err := s.DeleteRelations([]Relation{
		{From: "a", To: "b", RelationType: "knows"},
		{From: "a", To: "b", RelationType: "never-was"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	g, err := s.FullGraph()
	require.NoError(t, err)
	assert.Empty(t, g.Relations)
	assert.Len(t, g.Entities, 2)
}

func TestSearchNodes(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateEntities([]Entity{
		{Name: "document:doc_1_aaaaaaaa", EntityType: "document", Observations: []string{"Title: Release Plan"}},
		{Name: "tag:planning", EntityType: "tag", Observations: []string{"Document tag: planning"}},
		{Name: "misc", EntityType: "note", Observations: []string{"unrelated"}},
	})
	require.NoError(t, err)
	_, err = s.CreateRelations([]Relation{
		{From: "document:doc_1_aaaaaaaa", To: "tag:planning", RelationType: "tagged_with"},
		{From: "misc", To: "tag:planning", RelationType: "tagged_with"},
	})
	require.NoError(t, err)

	t.Run("matches name, type, and observations case-insensitively", func(t *testing.T) {
		g, err := s.SearchNodes("PLAN")
		require.NoError(t, err)
		assert.Len(t, g.Entities, 2)
		// only edges with both endpoints in the result set are induced
		require.Len(t, g.Relations, 1)
		assert.Equal(t, "document:doc_1_aaaaaaaa", g.Relations[0].From)
	})

	t.Run("no matches yields empty graph", func(t *testing.T) {
		g, err := s.SearchNodes("zebra")
		require.NoError(t, err)
		assert.Empty(t, g.Entities)
		assert.Empty(t, g.Relations)
	})
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.jsonl")

	s, err := Open(path, true)
	require.NoError(t, err)
	_, err = s.CreateEntities([]Entity{
		{Name: "a", EntityType: "t", Observations: []string{"obs"}},
		{Name: "b", EntityType: "t"},
	})
	require.NoError(t, err)
	_, err = s.CreateRelations([]Relation{{From: "a", To: "b", RelationType: "knows"}})
	require.NoError(t, err)

	t.Run("log is one JSON object per line", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[0], `"type":"entity"`)
		assert.Contains(t, lines[2], `"type":"relation"`)
	})

	t.Run("reload rebuilds the same graph", func(t *testing.T) {
		reloaded, err := Open(path, true)
		require.NoError(t, err)
		g, err := reloaded.FullGraph()
		require.NoError(t, err)
		assert.Len(t, g.Entities, 2)
		assert.Len(t, g.Relations, 1)
	})

	t.Run("reload without in-memory form serves the same queries", func(t *testing.T) {
		reloaded, err := Open(path, false)
		require.NoError(t, err)
		conns, err := reloaded.EntityConnections("a")
		require.NoError(t, err)
		require.Len(t, conns.Outgoing, 1)
		assert.Equal(t, "b", conns.Outgoing[0].Entity)
	})
}
