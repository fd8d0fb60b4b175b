// search.go implements the two search modes: a metadata/substring scan over
// the index, and cosine-similarity lookup through the semantic index.

package document

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/jpl-au/docgraph/internal/index"
	"github.com/jpl-au/docgraph/internal/log"
	"github.com/jpl-au/docgraph/internal/validate"
)

// SearchRequest selects documents for Search. Zero values match everything.
type SearchRequest struct {
	Query string   // case-insensitive substring of the title or body
	Type  string   // document type must equal
	Tags  []string // every tag must be present
	Limit int      // stop after this many results; 0 means the default of 10
}

// Search scans the metadata index for documents matching the request. The
// body is only read when the query does not already match the title.
func (s *Service) Search(req SearchRequest) ([]index.Record, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	recs, err := s.index.Scan(index.Filter{Type: req.Type, Tags: req.Tags})
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(req.Query)
	out := []index.Record{}
	for _, rec := range recs {
		if query != "" && !strings.Contains(strings.ToLower(rec.Title), query) {
			raw, err := os.ReadFile(s.docPath(rec.Path))
			if err != nil {
				continue
			}
			body := strings.ToLower(stripFrontmatter(string(raw)))
			if !strings.Contains(body, query) {
				continue
			}
		}
		out = append(out, rec)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// SemanticSearch returns the documents most similar to the query in
// embedding space, best first. Matches whose document has since vanished
// are skipped. Fails with ErrUnavailable when the semantic index is
// disabled.
func (s *Service) SemanticSearch(ctx context.Context, query string, limit int) ([]*Document, error) {
	if limit <= 0 {
		limit = 5
	}

	matches, err := s.sem.Search(ctx, query, limit)
	log.Event("document:semantic_search", "read").Detail("matches", len(matches)).Write(err)
	if err != nil {
		return nil, err
	}

	out := make([]*Document, 0, len(matches))
	for _, m := range matches {
		doc, err := s.Get(m.DocID)
		if err != nil {
			if errors.Is(err, validate.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}
