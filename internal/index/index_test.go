package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docgraph/internal/validate"
)

func newTestIndex(t *testing.T) *Dir {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), ".index"))
	require.NoError(t, err)
	return d
}

func str(s string) *string { return &s }
func i64(n int64) *int64   { return &n }

func TestUpsertAndGet(t *testing.T) {
	d := newTestIndex(t)

	t.Run("create", func(t *testing.T) {
		err := d.Upsert("doc_1_aaaaaaaa", Partial{
			Title:        str("First"),
			DocumentType: str("generic"),
			CreatedAt:    i64(100),
			UpdatedAt:    i64(100),
			Tags:         []string{"t1"},
			Metadata:     map[string]any{"author": "alice"},
			SizeBytes:    i64(42),
			Path:         str("generic/doc_1_aaaaaaaa.md"),
		})
		require.NoError(t, err)

		rec, err := d.Get("doc_1_aaaaaaaa")
		require.NoError(t, err)
		assert.Equal(t, "First", rec.Title)
		assert.Equal(t, []string{"t1"}, rec.Tags)
		assert.Equal(t, int64(42), rec.SizeBytes)
	})

	t.Run("merge keeps untouched fields and merges metadata", func(t *testing.T) {
		err := d.Upsert("doc_1_aaaaaaaa", Partial{
			UpdatedAt: i64(200),
			Metadata:  map[string]any{"reviewed": true},
		})
		require.NoError(t, err)

		rec, err := d.Get("doc_1_aaaaaaaa")
		require.NoError(t, err)
		assert.Equal(t, "First", rec.Title)
		assert.Equal(t, int64(100), rec.CreatedAt)
		assert.Equal(t, int64(200), rec.UpdatedAt)
		assert.Equal(t, "alice", rec.Metadata["author"])
		assert.Equal(t, true, rec.Metadata["reviewed"])
	})

	t.Run("non-nil empty tags clear", func(t *testing.T) {
		require.NoError(t, d.Upsert("doc_1_aaaaaaaa", Partial{Tags: []string{}}))
		rec, err := d.Get("doc_1_aaaaaaaa")
		require.NoError(t, err)
		assert.Empty(t, rec.Tags)
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := d.Get("doc_9_ffffffff")
		assert.True(t, errors.Is(err, validate.ErrNotFound))
	})
}

func TestRemove(t *testing.T) {
	d := newTestIndex(t)
	require.NoError(t, d.Upsert("doc_1_aaaaaaaa", Partial{Title: str("x")}))

	require.NoError(t, d.Remove("doc_1_aaaaaaaa"))
	_, err := d.Get("doc_1_aaaaaaaa")
	assert.True(t, errors.Is(err, validate.ErrNotFound))

	// removing twice is fine
	assert.NoError(t, d.Remove("doc_1_aaaaaaaa"))
}

func TestScan(t *testing.T) {
	d := newTestIndex(t)
	require.NoError(t, d.Upsert("doc_1_aaaaaaaa", Partial{
		DocumentType: str("manuscript"), Tags: []string{"draft", "fiction"},
	}))
	require.NoError(t, d.Upsert("doc_2_bbbbbbbb", Partial{
		DocumentType: str("manuscript"), Tags: []string{"draft"},
	}))
	require.NoError(t, d.Upsert("doc_3_cccccccc", Partial{
		DocumentType: str("dataset"), Tags: []string{"fiction"},
	}))

	t.Run("no filter returns everything", func(t *testing.T) {
		recs, err := d.Scan(Filter{})
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})

	t.Run("type filter", func(t *testing.T) {
		recs, err := d.Scan(Filter{Type: "manuscript"})
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("all tags must match", func(t *testing.T) {
		recs, err := d.Scan(Filter{Tags: []string{"draft", "fiction"}})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "doc_1_aaaaaaaa", recs[0].ID)
	})

	t.Run("limit", func(t *testing.T) {
		recs, err := d.Scan(Filter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("corrupt records are skipped", func(t *testing.T) {
		bad := filepath.Join(filepath.Dir(d.recordPath("x")), "doc_4_dddddddd.json")
		require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))

		recs, err := d.Scan(Filter{})
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})
}
