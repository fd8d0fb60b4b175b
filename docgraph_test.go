package docgraph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docgraph/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	// keep the audit log database out of the real home directory
	t.Setenv("HOME", t.TempDir())

	cfg := &config.Config{RootPath: filepath.Join(t.TempDir(), "documents")}
	s, err := OpenConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestOpenSeedsTheRoot(t *testing.T) {
	s := newTestStore(t)

	assert.FileExists(t, filepath.Join(s.Root(), "README.md"))
	assert.DirExists(t, filepath.Join(s.Root(), "generic"))
	assert.False(t, s.SemanticEnabled())

	st, err := s.RepoStatus()
	require.NoError(t, err)
	assert.True(t, st.Clean)

	// no embedding endpoint configured, so semantic search is off
	_, err = s.SemanticSearch(context.Background(), "anything", 5)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.CreateDocument(CreateRequest{
		Title:        "Hello",
		Content:      "World",
		DocumentType: "generic",
		Tags:         []string{"t1", "t2"},
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^doc_\d+_[0-9a-f]{8}$`), doc.ID)

	t.Run("create then read", func(t *testing.T) {
		got, err := s.GetDocument(doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hello", got.Title)
		assert.Equal(t, "World", got.ContentPreview)

		content, err := s.GetDocumentContent(doc.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "World", content.Content)
	})

	t.Run("graph projection", func(t *testing.T) {
		conns, err := s.EntityConnections("document:" + doc.ID)
		require.NoError(t, err)
		assert.Len(t, conns.Outgoing, 2)

		g, err := s.SearchNodes("t1")
		require.NoError(t, err)
		assert.NotEmpty(t, g.Entities)
	})

	t.Run("update makes a revision", func(t *testing.T) {
		updated, err := s.UpdateDocument(doc.ID, UpdateRequest{
			Content:       strPtr("World, revised"),
			CommitMessage: "Revise",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.VersionCount)

		versions, err := s.ListDocumentVersions(doc.ID, 10)
		require.NoError(t, err)
		require.Len(t, versions, 2)

		old, err := s.GetDocumentContent(doc.ID, versions[1].Revision)
		require.NoError(t, err)
		assert.Equal(t, "World", old.Content)

		d, err := s.DiffDocument(doc.ID, versions[1].Revision, "")
		require.NoError(t, err)
		assert.NotEmpty(t, d.Diff)
	})

	t.Run("search", func(t *testing.T) {
		recs, err := s.SearchDocuments(SearchRequest{Query: "revised"})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, doc.ID, recs[0].ID)
	})

	t.Run("restore", func(t *testing.T) {
		versions, err := s.ListDocumentVersions(doc.ID, 10)
		require.NoError(t, err)
		first := versions[len(versions)-1].Revision

		restored, err := s.RestoreDocument(doc.ID, first)
		require.NoError(t, err)
		assert.Equal(t, "World", restored.ContentPreview)
	})

	t.Run("delete cascade", func(t *testing.T) {
		require.NoError(t, s.DeleteDocument(doc.ID))

		_, err := s.GetDocument(doc.ID)
		assert.True(t, errors.Is(err, ErrNotFound))
		_, err = s.EntityConnections("document:" + doc.ID)
		assert.True(t, errors.Is(err, ErrNotFound))

		// tags outlive documents
		g, err := s.OpenNodes([]string{"tag:t1", "tag:t2"})
		require.NoError(t, err)
		assert.Len(t, g.Entities, 2)
	})
}

func TestGraphSurface(t *testing.T) {
	s := newTestStore(t)

	added, err := s.CreateEntities([]Entity{
		{Name: "go", EntityType: "language"},
		{Name: "docgraph", EntityType: "project"},
	})
	require.NoError(t, err)
	assert.Len(t, added, 2)

	_, err = s.CreateRelations([]Relation{
		{From: "docgraph", To: "go", RelationType: "written_in"},
	})
	require.NoError(t, err)

	t.Run("observations", func(t *testing.T) {
		res, err := s.AddObservations("go", []string{"compiled", "garbage collected"})
		require.NoError(t, err)
		assert.Len(t, res.AddedObservations, 2)
	})

	t.Run("traversal", func(t *testing.T) {
		related, err := s.RelatedEntities("docgraph", 2)
		require.NoError(t, err)
		require.Len(t, related, 1)
		assert.Equal(t, "go", related[0].Name)

		paths, err := s.FindPaths("docgraph", "go", MaxTraversalDepth)
		require.NoError(t, err)
		require.Len(t, paths, 1)
		assert.Len(t, paths[0], 3)
	})

	t.Run("similar names", func(t *testing.T) {
		scored, err := s.SimilarNames("Docgraph", 0.9)
		require.NoError(t, err)
		require.NotEmpty(t, scored)
		assert.Equal(t, "docgraph", scored[0].Name)
	})

	t.Run("listings", func(t *testing.T) {
		langs, err := s.Entities("language")
		require.NoError(t, err)
		assert.Len(t, langs, 1)

		rels, err := s.Relations("docgraph", "", "")
		require.NoError(t, err)
		assert.Len(t, rels, 1)

		full, err := s.FullGraph()
		require.NoError(t, err)
		assert.Len(t, full.Entities, 2)
		assert.Len(t, full.Relations, 1)
	})

	t.Run("deletion", func(t *testing.T) {
		n, err := s.DeleteRelations([]Relation{{From: "docgraph", To: "go", RelationType: "written_in"}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		res, err := s.DeleteEntities([]string{"docgraph"})
		require.NoError(t, err)
		assert.Equal(t, 1, res.EntitiesRemoved)
	})
}

func TestGraphSurvivesReopen(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := filepath.Join(t.TempDir(), "documents")

	s, err := OpenConfig(&config.Config{RootPath: root})
	require.NoError(t, err)
	_, err = s.CreateEntities([]Entity{{Name: "persist", EntityType: "t"}})
	require.NoError(t, err)
	s.Close()

	s, err = OpenConfig(&config.Config{RootPath: root})
	require.NoError(t, err)
	defer s.Close()

	g, err := s.OpenNodes([]string{"persist"})
	require.NoError(t, err)
	assert.Len(t, g.Entities, 1)

	// internal directories never leak into the repository
	st, err := s.RepoStatus()
	require.NoError(t, err)
	assert.True(t, st.Clean)
}

func TestVersionStoreSurface(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "notes.md"), []byte("free-form\n"), 0644))
	require.NoError(t, s.Stage([]string{"notes.md"}))
	rev, err := s.Commit("Add notes", "", "")
	require.NoError(t, err)

	content, err := s.Show("notes.md", rev)
	require.NoError(t, err)
	assert.Equal(t, "free-form\n", content)

	entries, err := s.History(1, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, rev, entries[0].ID)

	require.NoError(t, s.TagRevision("snapshot", ""))
	tags, err := s.ListTags()
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshot"}, tags)
}

func strPtr(s string) *string { return &s }
