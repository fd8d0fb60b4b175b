// read.go implements the non-mutating document operations: metadata view,
// full content (working tree or any revision), history, and diffs.

package document

import (
	"fmt"
	"os"
	"time"

	"github.com/jpl-au/docgraph/internal/validate"
)

// Get returns the metadata view of a document, including a body preview of
// at most 500 characters and the number of revisions touching its file.
func (s *Service) Get(id string) (*Document, error) {
	rec, err := s.index.Get(id)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.docPath(rec.Path))
	if err != nil {
		return nil, fmt.Errorf("%w: document file for %s: %v", validate.ErrInternal, id, err)
	}
	body := stripFrontmatter(string(raw))

	preview := body
	if runes := []rune(body); len(runes) > previewChars {
		preview = string(runes[:previewChars]) + "..."
	}

	// History trouble degrades the count, not the read.
	versions := 1
	if entries, err := s.vcs.Log(s.root, 100, rec.Path); err == nil && len(entries) > 0 {
		versions = len(entries)
	}

	return &Document{
		ID:               rec.ID,
		Title:            rec.Title,
		DocumentType:     rec.DocumentType,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
		Tags:             rec.Tags,
		Metadata:         rec.Metadata,
		ContentPreview:   preview,
		SizeBytes:        rec.SizeBytes,
		VersionCount:     versions,
		ContentAvailable: true,
		Large:            s.largeBytes > 0 && rec.SizeBytes > int64(s.largeBytes),
		SourceURL:        rec.SourceURL,
	}, nil
}

// GetContent returns the full body of a document, from the working tree or,
// when revision is non-empty, as it was at that revision. The frontmatter
// header is stripped either way.
func (s *Service) GetContent(id, revision string) (*Content, error) {
	rec, err := s.index.Get(id)
	if err != nil {
		return nil, err
	}

	var raw string
	if revision != "" {
		raw, err = s.vcs.Show(s.root, rec.Path, revision)
		if err != nil {
			return nil, err
		}
	} else {
		data, err := os.ReadFile(s.docPath(rec.Path))
		if err != nil {
			return nil, fmt.Errorf("%w: document file for %s: %v", validate.ErrInternal, id, err)
		}
		raw = string(data)
	}

	return &Content{
		ID:       rec.ID,
		Title:    rec.Title,
		Content:  stripFrontmatter(raw),
		Revision: revision,
	}, nil
}

// ListVersions returns up to max revisions touching the document, newest
// first. max <= 0 means the default of 10.
func (s *Service) ListVersions(id string, max int) ([]Version, error) {
	rec, err := s.index.Get(id)
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		max = 10
	}

	entries, err := s.vcs.Log(s.root, max, rec.Path)
	if err != nil {
		return nil, err
	}
	out := make([]Version, 0, len(entries))
	for _, e := range entries {
		var ts int64
		if t, err := time.Parse(time.RFC3339, e.Date); err == nil {
			ts = t.Unix()
		}
		out = append(out, Version{
			Revision:  e.ID,
			Message:   e.Message,
			Author:    e.Author,
			Timestamp: ts,
		})
	}
	return out, nil
}

// VersionDiff returns the unified diff of the document's file between two
// revisions. to defaults to HEAD.
func (s *Service) VersionDiff(id, from, to string) (*Diff, error) {
	rec, err := s.index.Get(id)
	if err != nil {
		return nil, err
	}
	if to == "" {
		to = "HEAD"
	}
	text, err := s.vcs.DiffBetween(s.root, rec.Path, from, to)
	if err != nil {
		return nil, err
	}
	return &Diff{
		ID:    rec.ID,
		Title: rec.Title,
		From:  from,
		To:    to,
		Diff:  text,
	}, nil
}
