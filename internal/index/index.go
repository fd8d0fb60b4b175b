// Package index implements the per-document metadata index: one JSON
// record per document in a dedicated directory, serving listing and filter
// queries without touching document files.
//
// Concurrency: a single mutex serialises all writes. Readers go without the
// mutex and read each record file in one call; a concurrent upsert is
// observed either entirely or not at all because record files are written
// whole.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jpl-au/docgraph/internal/validate"
)

// Record is the indexed metadata of one document: everything except the body.
type Record struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	DocumentType string         `json:"document_type"`
	CreatedAt    int64          `json:"created_at"`
	UpdatedAt    int64          `json:"updated_at"`
	Tags         []string       `json:"tags"`
	Metadata     map[string]any `json:"metadata"`
	SizeBytes    int64          `json:"size_bytes"`
	SourceURL    string         `json:"source_url,omitempty"`
	Path         string         `json:"path"` // relative to the document root
}

// Partial carries the fields of an upsert. Nil pointers leave the stored
// value untouched; Metadata merges key-by-key; Tags replace wholesale when
// non-nil.
type Partial struct {
	Title        *string
	DocumentType *string
	CreatedAt    *int64
	UpdatedAt    *int64
	Tags         []string
	Metadata     map[string]any
	SizeBytes    *int64
	SourceURL    *string
	Path         *string
}

// Filter selects records during a Scan. Zero values match everything.
type Filter struct {
	Type  string   // document type must equal, when non-empty
	Tags  []string // every tag must be present
	Limit int      // stop after this many matches; 0 means no limit
}

// Dir is a directory-backed metadata index.
type Dir struct {
	dir string
	mu  sync.Mutex
}

// Open creates the index directory if needed and returns the index.
func Open(dir string) (*Dir, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	return &Dir{dir: dir}, nil
}

// Upsert merges the partial into the record for id, creating it if absent.
func (d *Dir) Upsert(id string, p Partial) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, err := d.read(id)
	if err != nil {
		if !errors.Is(err, validate.ErrNotFound) {
			return err
		}
		rec = &Record{ID: id, Tags: []string{}, Metadata: map[string]any{}}
	}

	if p.Title != nil {
		rec.Title = *p.Title
	}
	if p.DocumentType != nil {
		rec.DocumentType = *p.DocumentType
	}
	if p.CreatedAt != nil {
		rec.CreatedAt = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		rec.UpdatedAt = *p.UpdatedAt
	}
	if p.Tags != nil {
		rec.Tags = append([]string(nil), p.Tags...)
	}
	if len(p.Metadata) > 0 {
		if rec.Metadata == nil {
			rec.Metadata = map[string]any{}
		}
		for k, v := range p.Metadata {
			rec.Metadata[k] = v
		}
	}
	if p.SizeBytes != nil {
		rec.SizeBytes = *p.SizeBytes
	}
	if p.SourceURL != nil {
		rec.SourceURL = *p.SourceURL
	}
	if p.Path != nil {
		rec.Path = *p.Path
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index record %s: %w", id, err)
	}
	if err := os.WriteFile(d.recordPath(id), data, 0644); err != nil {
		return fmt.Errorf("%w: writing index record %s: %v", validate.ErrInternal, id, err)
	}
	return nil
}

// Get returns the record for id.
func (d *Dir) Get(id string) (*Record, error) {
	return d.read(id)
}

// Remove deletes the record for id. Removing an absent record is a no-op so
// delete paths stay idempotent.
func (d *Dir) Remove(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := os.Remove(d.recordPath(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: removing index record %s: %v", validate.ErrInternal, id, err)
	}
	return nil
}

// Scan returns the records passing the filter, in directory scan order.
func (d *Dir) Scan(f Filter) ([]Record, error) {
	entries, err := os.ReadDir(d.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index directory: %w", err)
	}

	var out []Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		rec, err := d.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			// Skip corrupt or vanished records rather than failing the scan.
			continue
		}
		if !matches(rec, f) {
			continue
		}
		out = append(out, *rec)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func matches(rec *Record, f Filter) bool {
	if f.Type != "" && rec.DocumentType != f.Type {
		return false
	}
	if len(f.Tags) > 0 {
		have := make(map[string]bool, len(rec.Tags))
		for _, t := range rec.Tags {
			have[t] = true
		}
		for _, t := range f.Tags {
			if !have[t] {
				return false
			}
		}
	}
	return true
}

func (d *Dir) recordPath(id string) string {
	return filepath.Join(d.dir, id+".json")
}

func (d *Dir) read(id string) (*Record, error) {
	data, err := os.ReadFile(d.recordPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: document %s", validate.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading index record %s: %w", id, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding index record %s: %w", id, err)
	}
	return &rec, nil
}
