// write.go implements the mutating document operations. Each one follows
// the same shape: validate, mutate the file under the per-document lock,
// bring the index, version store, graph, and semantic index in line, then
// return the fresh metadata view.

package document

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jpl-au/docgraph/internal/index"
	"github.com/jpl-au/docgraph/internal/log"
	"github.com/jpl-au/docgraph/internal/validate"
)

// CreateRequest carries the inputs of Create.
type CreateRequest struct {
	Title        string
	Content      string
	DocumentType string
	Metadata     map[string]any
	Tags         []string
	SourceURL    string
}

// UpdateRequest carries the inputs of Update. Nil pointers leave the stored
// value untouched. A non-nil empty Tags slice clears the tags. Metadata
// merges key-by-key. ExpectedVersion, when set, must match the document's
// latest revision for the update to proceed.
type UpdateRequest struct {
	Title           *string
	Content         *string
	Metadata        map[string]any
	Tags            []string
	CommitMessage   string
	ExpectedVersion string
}

// Create writes a new document and returns its metadata view. The document
// gets a fresh id, a frontmatter header, an index record, a graph entity,
// an initial revision, and (when the semantic index is enabled) an embedding.
func (s *Service) Create(req CreateRequest) (*Document, error) {
	if err := validate.Title(req.Title); err != nil {
		return nil, err
	}
	if err := validate.DocumentType(req.DocumentType); err != nil {
		return nil, err
	}
	if err := validate.Tags(req.Tags); err != nil {
		return nil, err
	}
	if err := validate.Metadata(req.Metadata); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	id := fmt.Sprintf("doc_%d_%s", now, fmt.Sprintf("%x", uuid.New())[:8])
	rel := path.Join(req.DocumentType, id+".md")

	fm := newFrontmatter()
	fm.set(keyTitle, req.Title)
	fm.set(keyCreatedAt, fmt.Sprintf("%d", now))
	fm.set(keyUpdatedAt, fmt.Sprintf("%d", now))
	fm.set(keyID, id)
	fm.set(keyDocType, req.DocumentType)
	if len(req.Tags) > 0 {
		fm.set(keyTags, strings.Join(req.Tags, ", "))
	}
	if req.SourceURL != "" {
		fm.set(keySourceURL, req.SourceURL)
	}
	setMetadata(fm, req.Metadata)

	full := fm.render() + req.Content
	if err := os.WriteFile(s.docPath(rel), []byte(full), 0644); err != nil {
		return nil, fmt.Errorf("%w: writing document %s: %v", validate.ErrInternal, id, err)
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	err := s.index.Upsert(id, index.Partial{
		Title:        &req.Title,
		DocumentType: &req.DocumentType,
		CreatedAt:    &now,
		UpdatedAt:    &now,
		Tags:         tags,
		Metadata:     metadata,
		SizeBytes:    ptr(int64(len(full))),
		SourceURL:    &req.SourceURL,
		Path:         &rel,
	})
	if err != nil {
		return nil, err
	}

	if err := s.vcs.Stage(s.root, []string{rel}); err != nil {
		return nil, err
	}
	rev, err := s.vcs.Commit(s.root, "Created document: "+req.Title, s.authorName, s.authorEmail)
	log.Event("document:create", "write").Doc(id).Revision(rev).Write(err)
	if err != nil {
		return nil, err
	}

	s.syncGraph(id, req.Title, req.DocumentType, req.Tags, req.Metadata, req.SourceURL)
	s.embed(id, req.Content)

	return s.Get(id)
}

// Update applies a partial change to a document as a new revision.
func (s *Service) Update(id string, req UpdateRequest) (*Document, error) {
	if req.Title != nil {
		if err := validate.Title(*req.Title); err != nil {
			return nil, err
		}
	}
	if err := validate.Tags(req.Tags); err != nil {
		return nil, err
	}
	if err := validate.Metadata(req.Metadata); err != nil {
		return nil, err
	}

	lock := s.docLock(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.index.Get(id)
	if err != nil {
		return nil, err
	}

	if req.ExpectedVersion != "" {
		if err := s.checkVersion(rec.Path, req.ExpectedVersion); err != nil {
			return nil, err
		}
	}

	raw, err := os.ReadFile(s.docPath(rec.Path))
	if err != nil {
		return nil, fmt.Errorf("%w: document file for %s: %v", validate.ErrInternal, id, err)
	}
	fm, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	fm.set(keyUpdatedAt, fmt.Sprintf("%d", now))
	if req.Title != nil {
		fm.set(keyTitle, *req.Title)
	}
	if req.Tags != nil {
		if len(req.Tags) > 0 {
			fm.set(keyTags, strings.Join(req.Tags, ", "))
		} else {
			fm.delete(keyTags)
		}
	}
	setMetadata(fm, req.Metadata)

	if req.Content != nil {
		body = *req.Content
	}
	full := fm.render() + body
	if err := os.WriteFile(s.docPath(rec.Path), []byte(full), 0644); err != nil {
		return nil, fmt.Errorf("%w: writing document %s: %v", validate.ErrInternal, id, err)
	}

	partial := index.Partial{
		UpdatedAt: &now,
		SizeBytes: ptr(int64(len(full))),
		Title:     req.Title,
		Tags:      req.Tags,
		Metadata:  req.Metadata,
	}
	if err := s.index.Upsert(id, partial); err != nil {
		return nil, err
	}

	message := req.CommitMessage
	if message == "" {
		message = "Updated document"
	}
	if err := s.vcs.Stage(s.root, []string{rec.Path}); err != nil {
		return nil, err
	}
	rev, err := s.vcs.Commit(s.root, message, s.authorName, s.authorEmail)
	log.Event("document:update", "write").Doc(id).Revision(rev).Write(err)
	if err != nil {
		return nil, err
	}

	title := rec.Title
	if req.Title != nil {
		title = *req.Title
	}
	tags := rec.Tags
	if req.Tags != nil {
		tags = req.Tags
	}
	merged := make(map[string]any, len(rec.Metadata)+len(req.Metadata))
	for k, v := range rec.Metadata {
		merged[k] = v
	}
	for k, v := range req.Metadata {
		merged[k] = v
	}
	s.syncGraph(id, title, rec.DocumentType, tags, merged, rec.SourceURL)

	if req.Content != nil {
		s.embed(id, *req.Content)
	}
	return s.Get(id)
}

// checkVersion compares expected against the document's latest revision.
// The check is advisory: failures to read history are logged and the update
// proceeds; an actual mismatch is a conflict.
func (s *Service) checkVersion(rel, expected string) error {
	entries, err := s.vcs.Log(s.root, 1, rel)
	if err != nil || len(entries) == 0 {
		log.Event("document:update", "read").Detail("file", rel).Write(err)
		return nil
	}
	if entries[0].ID != expected {
		return fmt.Errorf("%w: document modified since revision %s was read", validate.ErrConflict, expected)
	}
	return nil
}

// Delete removes a document everywhere: file, revision (as a deletion
// commit), index record, graph entity, and embedding. Tag and source
// entities survive; they are shared across documents.
func (s *Service) Delete(id string) error {
	lock := s.docLock(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.index.Get(id)
	if err != nil {
		return err
	}

	if err := os.Remove(s.docPath(rec.Path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: deleting document file for %s: %v", validate.ErrInternal, id, err)
	}
	if err := s.vcs.Remove(s.root, []string{rec.Path}); err != nil {
		return err
	}
	rev, err := s.vcs.Commit(s.root, "Deleted document: "+rec.Title, s.authorName, s.authorEmail)
	log.Event("document:delete", "delete").Doc(id).Revision(rev).Write(err)
	if err != nil {
		return err
	}

	if err := s.index.Remove(id); err != nil {
		return err
	}
	if err := s.sem.Remove(id); err != nil {
		log.Event("document:delete", "delete").Doc(id).Write(err)
	}
	s.dropFromGraph(id)
	return nil
}

// Restore rewrites a document's file from the content it had at the given
// revision, recorded as a new revision on top of history rather than a
// rewind of it.
func (s *Service) Restore(id, revision string) (*Document, error) {
	lock := s.docLock(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.index.Get(id)
	if err != nil {
		return nil, err
	}
	old, err := s.vcs.Show(s.root, rec.Path, revision)
	if err != nil {
		return nil, err
	}
	fm, body, err := splitFrontmatter(old)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	fm.set(keyUpdatedAt, fmt.Sprintf("%d", now))
	full := fm.render() + body
	if err := os.WriteFile(s.docPath(rec.Path), []byte(full), 0644); err != nil {
		return nil, fmt.Errorf("%w: writing document %s: %v", validate.ErrInternal, id, err)
	}

	partial := index.Partial{
		UpdatedAt: &now,
		SizeBytes: ptr(int64(len(full))),
	}
	title := rec.Title
	if t, ok := fm.get(keyTitle); ok {
		title = t
		partial.Title = &t
	}
	tags := []string{}
	if csv, ok := fm.get(keyTags); ok && csv != "" {
		tags = strings.Split(csv, ", ")
	}
	partial.Tags = tags
	metadata := fm.metadata()
	partial.Metadata = metadata
	if err := s.index.Upsert(id, partial); err != nil {
		return nil, err
	}

	short := revision
	if len(short) > 8 {
		short = short[:8]
	}
	if err := s.vcs.Stage(s.root, []string{rec.Path}); err != nil {
		return nil, err
	}
	rev, err := s.vcs.Commit(s.root, fmt.Sprintf("Restored document: %s to %s", title, short), s.authorName, s.authorEmail)
	log.Event("document:restore", "write").Doc(id).Revision(rev).Write(err)
	if err != nil {
		return nil, err
	}

	s.syncGraph(id, title, rec.DocumentType, tags, metadata, rec.SourceURL)
	s.embed(id, body)
	return s.Get(id)
}

// embed refreshes the document's vector. Best-effort: embedding failures
// are logged inside the semantic index and never fail a write.
func (s *Service) embed(id, body string) {
	if err := s.sem.Index(context.Background(), id, body); err != nil {
		log.Event("document:embed", "write").Doc(id).Write(err)
	}
}

// setMetadata folds primitive metadata values into the frontmatter in
// sorted key order. Composite values live only in the index record.
func setMetadata(fm *frontmatter, metadata map[string]any) {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v, ok := scalarString(metadata[k]); ok {
			fm.set(k, v)
		}
	}
}

func ptr[T any](v T) *T { return &v }
