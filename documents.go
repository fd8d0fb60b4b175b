// documents.go exposes the document operations on Store, delegating to the
// orchestrator. The request and view types are re-exported so callers never
// import internal packages.

package docgraph

import (
	"context"

	"github.com/jpl-au/docgraph/internal/document"
	"github.com/jpl-au/docgraph/internal/index"
)

// Document views and requests.
type (
	Document        = document.Document
	DocumentContent = document.Content
	DocumentVersion = document.Version
	DocumentDiff    = document.Diff
	DocumentRecord  = index.Record
	CreateRequest   = document.CreateRequest
	UpdateRequest   = document.UpdateRequest
	SearchRequest   = document.SearchRequest
)

// CreateDocument creates a document and returns its metadata view.
func (s *Store) CreateDocument(req CreateRequest) (*Document, error) {
	return s.docs.Create(req)
}

// GetDocument returns a document's metadata view with a body preview.
func (s *Store) GetDocument(id string) (*Document, error) {
	return s.docs.Get(id)
}

// GetDocumentContent returns a document's full body, from the working tree
// or from the given revision when non-empty.
func (s *Store) GetDocumentContent(id, revision string) (*DocumentContent, error) {
	return s.docs.GetContent(id, revision)
}

// UpdateDocument applies a partial change as a new revision.
func (s *Store) UpdateDocument(id string, req UpdateRequest) (*Document, error) {
	return s.docs.Update(id, req)
}

// DeleteDocument removes a document from every subsystem.
func (s *Store) DeleteDocument(id string) error {
	return s.docs.Delete(id)
}

// RestoreDocument rewrites a document from its content at revision,
// recorded as a new revision on top of history.
func (s *Store) RestoreDocument(id, revision string) (*Document, error) {
	return s.docs.Restore(id, revision)
}

// SearchDocuments scans the metadata index by type, tags, and substring.
func (s *Store) SearchDocuments(req SearchRequest) ([]DocumentRecord, error) {
	return s.docs.Search(req)
}

// SemanticSearch returns the documents most similar to query in embedding
// space. Fails with ErrUnavailable when semantic search is disabled.
func (s *Store) SemanticSearch(ctx context.Context, query string, limit int) ([]*Document, error) {
	return s.docs.SemanticSearch(ctx, query, limit)
}

// ListDocumentVersions returns up to max revisions of a document, newest first.
func (s *Store) ListDocumentVersions(id string, max int) ([]DocumentVersion, error) {
	return s.docs.ListVersions(id, max)
}

// DiffDocument returns the unified diff of a document between two revisions.
// to defaults to HEAD.
func (s *Store) DiffDocument(id, from, to string) (*DocumentDiff, error) {
	return s.docs.VersionDiff(id, from, to)
}
