// frontmatter.go implements the key/value header block stored at the top of
// every document file. The grammar is deliberately small: "---\n", one
// "key: value" line per field, "---\n\n", then the body. Key order is
// preserved across parse/render round trips so that updates produce minimal
// version-store diffs.

package document

import (
	"fmt"
	"strings"

	"github.com/jpl-au/docgraph/internal/validate"
)

// Reserved frontmatter keys. Anything else is document metadata.
const (
	keyTitle     = "title"
	keyCreatedAt = "created_at"
	keyUpdatedAt = "updated_at"
	keyID        = "id"
	keyDocType   = "document_type"
	keyTags      = "tags"
	keySourceURL = "source_url"
)

// frontmatter is an ordered set of key/value pairs.
type frontmatter struct {
	keys   []string
	values map[string]string
}

func newFrontmatter() *frontmatter {
	return &frontmatter{values: make(map[string]string)}
}

// set stores a value, appending the key on first use.
func (f *frontmatter) set(key, value string) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

func (f *frontmatter) get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f *frontmatter) delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// render produces the header block, terminated by the blank line that
// separates it from the body.
func (f *frontmatter) render() string {
	var b strings.Builder
	b.WriteString("---\n")
	for _, k := range f.keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(f.values[k])
		b.WriteString("\n")
	}
	b.WriteString("---\n\n")
	return b.String()
}

// splitFrontmatter separates a document file into its header block and body.
// Lines inside the block without a ": " separator are ignored.
func splitFrontmatter(content string) (*frontmatter, string, error) {
	rest, ok := strings.CutPrefix(content, "---")
	if !ok {
		return nil, "", fmt.Errorf("%w: document is missing its frontmatter block", validate.ErrInternal)
	}
	block, body, ok := strings.Cut(rest, "---\n\n")
	if !ok {
		return nil, "", fmt.Errorf("%w: document frontmatter is not terminated", validate.ErrInternal)
	}

	fm := newFrontmatter()
	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		fm.set(key, value)
	}
	return fm, body, nil
}

// metadata returns the non-reserved keys as document metadata, in header
// order. Values stay strings; typing was lost when the header was written.
func (f *frontmatter) metadata() map[string]any {
	reserved := map[string]bool{
		keyTitle: true, keyCreatedAt: true, keyUpdatedAt: true,
		keyID: true, keyDocType: true, keyTags: true, keySourceURL: true,
	}
	out := map[string]any{}
	for _, k := range f.keys {
		if !reserved[k] {
			out[k] = f.values[k]
		}
	}
	return out
}

// stripFrontmatter returns just the body, tolerating files without a header.
func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}
	if _, body, ok := strings.Cut(content[3:], "---\n\n"); ok {
		return body
	}
	return content
}

// scalarString renders a metadata value for frontmatter, reporting whether
// the value is a representable primitive. Composite values stay in the index
// record only.
func scalarString(v any) (string, bool) {
	switch v.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return fmt.Sprintf("%v", v), true
	default:
		return "", false
	}
}
