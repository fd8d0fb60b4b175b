// Package semantic implements the optional per-document vector index:
// one dense embedding per document on disk, searched by cosine similarity.
//
// The index is best-effort by design. It is enabled only when an embedding
// model is available at startup, and every failure here is a warning rather
// than a write-path error: a document that could not be embedded remains
// fully usable through the metadata index.
package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jpl-au/docgraph/internal/log"
	"github.com/jpl-au/docgraph/internal/validate"
)

// maxEmbedChars caps how much of a document is embedded. Embedding models
// truncate long inputs anyway; the cap keeps request sizes predictable.
const maxEmbedChars = 10_000

// vectorExt is the on-disk extension of vector files.
const vectorExt = ".npy"

// Match pairs a document id with its similarity to a query.
type Match struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Index stores one vector per document under a dedicated directory.
type Index struct {
	dir      string
	embedder Embedder // nil when disabled

	mu sync.Mutex // serialises vector-file writes
}

// Open creates the index over dir. A nil embedder leaves the index
// disabled: Index and Remove become no-ops and Search fails with
// ErrUnavailable.
func Open(dir string, embedder Embedder) (*Index, error) {
	if embedder != nil {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating vector directory: %w", err)
		}
	}
	return &Index{dir: dir, embedder: embedder}, nil
}

// Enabled reports whether an embedding model is available.
func (ix *Index) Enabled() bool {
	return ix.embedder != nil
}

// Index computes and persists the vector for a document, overwriting any
// prior vector. Only the first 10,000 characters of text contribute.
func (ix *Index) Index(ctx context.Context, docID, text string) error {
	if ix.embedder == nil {
		return nil
	}

	if runes := []rune(text); len(runes) > maxEmbedChars {
		text = string(runes[:maxEmbedChars])
	}
	vec, err := ix.embedder.Embed(ctx, text)
	log.Event("semantic:index", "write").Doc(docID).Write(err)
	if err != nil {
		return fmt.Errorf("embedding document %s: %w", docID, err)
	}

	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("encoding vector for %s: %w", docID, err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := os.WriteFile(ix.vectorPath(docID), data, 0644); err != nil {
		return fmt.Errorf("writing vector for %s: %w", docID, err)
	}
	return nil
}

// Search embeds the query and returns the k document ids whose stored
// vectors are most cosine-similar, best first.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Match, error) {
	if ix.embedder == nil {
		return nil, fmt.Errorf("%w: semantic search requires an embedding model", validate.ErrUnavailable)
	}
	if k <= 0 {
		return []Match{}, nil
	}

	qvec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	entries, err := os.ReadDir(ix.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Match{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading vector directory: %w", err)
	}

	var (
		resMu   sync.Mutex
		matches []Match
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, vectorExt) {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			vec, err := ix.readVector(filepath.Join(ix.dir, name))
			if err != nil {
				// A single unreadable vector should not abort the search.
				log.Event("semantic:search", "read").Doc(strings.TrimSuffix(name, vectorExt)).Write(err)
				return nil
			}
			m := Match{
				DocID: strings.TrimSuffix(name, vectorExt),
				Score: cosine(qvec, vec),
			}
			resMu.Lock()
			matches = append(matches, m)
			resMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].DocID < matches[j].DocID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Remove deletes a document's vector if present.
func (ix *Index) Remove(docID string) error {
	if ix.embedder == nil {
		return nil
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	err := os.Remove(ix.vectorPath(docID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing vector for %s: %w", docID, err)
	}
	return nil
}

// Has reports whether a vector exists for the document.
func (ix *Index) Has(docID string) bool {
	_, err := os.Stat(ix.vectorPath(docID))
	return err == nil
}

func (ix *Index) vectorPath(docID string) string {
	return filepath.Join(ix.dir, docID+vectorExt)
}

func (ix *Index) readVector(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return vec, nil
}

// cosine returns the cosine similarity of two vectors, 0 when either has
// zero magnitude or the lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
