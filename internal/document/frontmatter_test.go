package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontmatterRender(t *testing.T) {
	fm := newFrontmatter()
	fm.set(keyTitle, "Hello")
	fm.set(keyCreatedAt, "100")
	fm.set(keyUpdatedAt, "100")
	fm.set(keyID, "doc_100_aabbccdd")
	fm.set(keyDocType, "generic")
	fm.set(keyTags, "t1, t2")

	want := "---\n" +
		"title: Hello\n" +
		"created_at: 100\n" +
		"updated_at: 100\n" +
		"id: doc_100_aabbccdd\n" +
		"document_type: generic\n" +
		"tags: t1, t2\n" +
		"---\n\n"
	assert.Equal(t, want, fm.render())
}

func TestSplitFrontmatter(t *testing.T) {
	t.Run("round trip preserves order and body", func(t *testing.T) {
		fm := newFrontmatter()
		fm.set(keyTitle, "Hello")
		fm.set(keyID, "doc_1_aaaaaaaa")
		fm.set("project", "docgraph")
		body := "First line.\n\nSecond paragraph with --- inside text.\n"

		parsed, gotBody, err := splitFrontmatter(fm.render() + body)
		require.NoError(t, err)
		assert.Equal(t, body, gotBody)
		assert.Equal(t, fm.render(), parsed.render())
	})

	t.Run("values may contain colons", func(t *testing.T) {
		fm, _, err := splitFrontmatter("---\nsource_url: https://example.com/a\n---\n\nbody")
		require.NoError(t, err)
		v, ok := fm.get(keySourceURL)
		require.True(t, ok)
		assert.Equal(t, "https://example.com/a", v)
	})

	t.Run("unknown keys become metadata", func(t *testing.T) {
		fm, _, err := splitFrontmatter("---\ntitle: X\nid: doc_1_aaaaaaaa\nauthor: alice\nrating: 5\n---\n\nbody")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"author": "alice", "rating": "5"}, fm.metadata())
	})

	t.Run("missing header fails", func(t *testing.T) {
		_, _, err := splitFrontmatter("just a body")
		assert.Error(t, err)
	})

	t.Run("unterminated header fails", func(t *testing.T) {
		_, _, err := splitFrontmatter("---\ntitle: X\n")
		assert.Error(t, err)
	})
}

func TestStripFrontmatter(t *testing.T) {
	assert.Equal(t, "body\n", stripFrontmatter("---\ntitle: X\n---\n\nbody\n"))
	assert.Equal(t, "no header\n", stripFrontmatter("no header\n"))
}

func TestFrontmatterDelete(t *testing.T) {
	fm := newFrontmatter()
	fm.set("a", "1")
	fm.set("b", "2")
	fm.set("c", "3")
	fm.delete("b")

	assert.Equal(t, "---\na: 1\nc: 3\n---\n\n", fm.render())
	_, ok := fm.get("b")
	assert.False(t, ok)
}

func TestScalarString(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{"s", "s", true},
		{42, "42", true},
		{int64(7), "7", true},
		{3.5, "3.5", true},
		{true, "true", true},
		{[]string{"no"}, "", false},
		{map[string]any{"no": 1}, "", false},
	}
	for _, tt := range tests {
		got, ok := scalarString(tt.in)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.want, got)
	}
}
