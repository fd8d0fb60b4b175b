package vcs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docgraph/internal/validate"
)

func newTestService() *Service {
	return New("tester", "tester@example.com")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestOpenInitialisesRepository(t *testing.T) {
	dir := t.TempDir()
	s := newTestService()

	require.NoError(t, s.Open(dir))

	// init writes and commits an ignore list
	assert.FileExists(t, filepath.Join(dir, ".gitignore"))
	entries, err := s.Log(dir, 0, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, ".gitignore")
	assert.Contains(t, entries[0].Author, "tester <tester@example.com>")

	// reopening an existing repository adds nothing
	require.NoError(t, s.Open(dir))
	entries, err = s.Log(dir, 0, "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStageCommitStatus(t *testing.T) {
	dir := t.TempDir()
	s := newTestService()
	require.NoError(t, s.Open(dir))

	writeFile(t, dir, "a.md", "hello\n")

	st, err := s.Status(dir)
	require.NoError(t, err)
	assert.False(t, st.Clean)
	assert.Contains(t, st.Untracked, "a.md")

	require.NoError(t, s.Stage(dir, []string{"a.md"}))
	st, err = s.Status(dir)
	require.NoError(t, err)
	assert.Contains(t, st.Staged, "a.md")

	rev, err := s.Commit(dir, "Add a", "", "")
	require.NoError(t, err)
	assert.Len(t, rev, 40)

	st, err = s.Status(dir)
	require.NoError(t, err)
	assert.True(t, st.Clean)
}

func TestCommitNothingStaged(t *testing.T) {
	dir := t.TempDir()
	s := newTestService()
	require.NoError(t, s.Open(dir))

	_, err := s.Commit(dir, "empty", "", "")
	assert.True(t, errors.Is(err, ErrNothingStaged))
}

func TestShowAndLogByFile(t *testing.T) {
	dir := t.TempDir()
	s := newTestService()
	require.NoError(t, s.Open(dir))

	writeFile(t, dir, "doc.md", "v1\n")
	require.NoError(t, s.Stage(dir, []string{"doc.md"}))
	rev1, err := s.Commit(dir, "first", "", "")
	require.NoError(t, err)

	writeFile(t, dir, "doc.md", "v2\n")
	writeFile(t, dir, "other.md", "unrelated\n")
	require.NoError(t, s.Stage(dir, []string{"doc.md", "other.md"}))
	_, err = s.Commit(dir, "second", "", "")
	require.NoError(t, err)

	t.Run("show at revision", func(t *testing.T) {
		content, err := s.Show(dir, "doc.md", rev1)
		require.NoError(t, err)
		assert.Equal(t, "v1\n", content)

		content, err = s.Show(dir, "doc.md", "HEAD")
		require.NoError(t, err)
		assert.Equal(t, "v2\n", content)
	})

	t.Run("show unknown file or revision", func(t *testing.T) {
		_, err := s.Show(dir, "missing.md", "HEAD")
		assert.True(t, errors.Is(err, validate.ErrNotFound))
		_, err = s.Show(dir, "doc.md", "0000000000000000000000000000000000000000")
		assert.True(t, errors.Is(err, validate.ErrNotFound))
	})

	t.Run("log restricted to one file", func(t *testing.T) {
		entries, err := s.Log(dir, 0, "doc.md")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Contains(t, entries[0].Message, "second")
		assert.Contains(t, entries[1].Message, "first")
	})

	t.Run("log respects the limit", func(t *testing.T) {
		entries, err := s.Log(dir, 1, "")
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestDiffBetween(t *testing.T) {
	dir := t.TempDir()
	s := newTestService()
	require.NoError(t, s.Open(dir))

	writeFile(t, dir, "doc.md", "line one\nline two\n")
	require.NoError(t, s.Stage(dir, []string{"doc.md"}))
	rev1, err := s.Commit(dir, "first", "", "")
	require.NoError(t, err)

	writeFile(t, dir, "doc.md", "line one\nline 2\n")
	require.NoError(t, s.Stage(dir, []string{"doc.md"}))
	_, err = s.Commit(dir, "second", "", "")
	require.NoError(t, err)

	patch, err := s.DiffBetween(dir, "doc.md", rev1, "")
	require.NoError(t, err)
	assert.Contains(t, patch, "--- doc.md@"+rev1)
	assert.Contains(t, patch, "+++ doc.md@HEAD")
	assert.Contains(t, patch, "- ")
	assert.Contains(t, patch, "+ ")
}

func TestBatchCommit(t *testing.T) {
	dir := t.TempDir()
	s := newTestService()
	require.NoError(t, s.Open(dir))

	writeFile(t, dir, "a.md", "a\n")
	writeFile(t, dir, "b.md", "b\n")

	revs, err := s.BatchCommit(dir, [][]string{{"a.md"}, {}, {"b.md"}}, "Import documents")
	require.NoError(t, err)
	require.Len(t, revs, 2)

	entries, err := s.Log(dir, 2, "")
	require.NoError(t, err)
	assert.Contains(t, entries[0].Message, "Import documents (batch 3/3)")
	assert.Contains(t, entries[1].Message, "Import documents (batch 1/3)")
}

func TestRemoveStagesDeletion(t *testing.T) {
	dir := t.TempDir()
	s := newTestService()
	require.NoError(t, s.Open(dir))

	writeFile(t, dir, "a.md", "a\n")
	require.NoError(t, s.Stage(dir, []string{"a.md"}))
	_, err := s.Commit(dir, "add", "", "")
	require.NoError(t, err)

	require.NoError(t, s.Remove(dir, []string{"a.md"}))
	_, err = s.Commit(dir, "remove", "", "")
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "a.md"))
	_, err = s.Show(dir, "a.md", "HEAD")
	assert.True(t, errors.Is(err, validate.ErrNotFound))
}

func TestBranchesAndTags(t *testing.T) {
	dir := t.TempDir()
	s := newTestService()
	require.NoError(t, s.Open(dir))

	writeFile(t, dir, "a.md", "a\n")
	require.NoError(t, s.Stage(dir, []string{"a.md"}))
	_, err := s.Commit(dir, "add", "", "")
	require.NoError(t, err)

	t.Run("create and checkout", func(t *testing.T) {
		require.NoError(t, s.CreateBranch(dir, "feature", ""))
		require.NoError(t, s.Checkout(dir, "feature", false))

		st, err := s.Status(dir)
		require.NoError(t, err)
		assert.Equal(t, "feature", st.CurrentBranch)
	})

	t.Run("cannot remove the current branch", func(t *testing.T) {
		assert.Error(t, s.RemoveBranch(dir, "feature"))
	})

	t.Run("tags", func(t *testing.T) {
		require.NoError(t, s.Tag(dir, "v1", ""))
		tags, err := s.ListTags(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"v1"}, tags)

		content, err := s.Show(dir, "a.md", "v1")
		require.NoError(t, err)
		assert.Equal(t, "a\n", content)
	})
}

func TestStatusOnMissingRepository(t *testing.T) {
	s := newTestService()
	_, err := s.Status(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, errors.Is(err, ErrInvalidRepo))
}
