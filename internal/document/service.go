// Package document implements the orchestrator over the version store,
// metadata index, knowledge graph, and semantic index. Every document
// lifecycle operation flows through here so the four subsystems stay
// consistent: file on disk, committed revision, index record, graph entity,
// and (when enabled) embedding all describe the same document.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jpl-au/docgraph/internal/graph"
	"github.com/jpl-au/docgraph/internal/index"
	"github.com/jpl-au/docgraph/internal/log"
	"github.com/jpl-au/docgraph/internal/semantic"
	"github.com/jpl-au/docgraph/internal/validate"
	"github.com/jpl-au/docgraph/internal/vcs"
)

// previewChars is how much of a document body the metadata view carries.
const previewChars = 500

// Document is the metadata view of a document, including a short body preview.
type Document struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	DocumentType     string         `json:"document_type"`
	CreatedAt        int64          `json:"created_at"`
	UpdatedAt        int64          `json:"updated_at"`
	Tags             []string       `json:"tags"`
	Metadata         map[string]any `json:"metadata"`
	ContentPreview   string         `json:"content_preview"`
	SizeBytes        int64          `json:"size_bytes"`
	VersionCount     int            `json:"version_count"`
	ContentAvailable bool           `json:"content_available"`
	Large            bool           `json:"large,omitempty"`
	SourceURL        string         `json:"source_url,omitempty"`
}

// Content is the full body of a document at the working tree or a revision.
type Content struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Revision string `json:"revision,omitempty"`
}

// Version is one entry in a document's revision history.
type Version struct {
	Revision  string `json:"revision"`
	Message   string `json:"message"`
	Author    string `json:"author"`
	Timestamp int64  `json:"timestamp"`
}

// Diff describes the changes to a document between two revisions.
type Diff struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	From  string `json:"from"`
	To    string `json:"to"`
	Diff  string `json:"diff"`
}

// Service orchestrates the document lifecycle across all subsystems.
type Service struct {
	root  string
	vcs   *vcs.Service
	index *index.Dir
	graph *graph.Store
	sem   *semantic.Index

	authorName  string
	authorEmail string
	largeBytes  int

	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

// Options configures a document Service.
type Options struct {
	Root        string
	VCS         *vcs.Service
	Index       *index.Dir
	Graph       *graph.Store
	Semantic    *semantic.Index
	AuthorName  string
	AuthorEmail string
	LargeBytes  int
}

// New creates the service and prepares the document root: the repository is
// initialised, one subdirectory per document type is created, and a README
// describing the layout is committed on first use.
func New(opts Options) (*Service, error) {
	s := &Service{
		root:        opts.Root,
		vcs:         opts.VCS,
		index:       opts.Index,
		graph:       opts.Graph,
		sem:         opts.Semantic,
		authorName:  opts.AuthorName,
		authorEmail: opts.AuthorEmail,
		largeBytes:  opts.LargeBytes,
		docLocks:    make(map[string]*sync.Mutex),
	}
	if err := s.prepareRoot(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) prepareRoot() error {
	if err := s.vcs.Open(s.root); err != nil {
		return err
	}
	for _, t := range validate.DocumentTypes {
		if err := os.MkdirAll(filepath.Join(s.root, t), 0755); err != nil {
			return fmt.Errorf("creating %s directory: %w", t, err)
		}
	}

	readme := filepath.Join(s.root, "README.md")
	if _, err := os.Stat(readme); err == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString("# Document Storage\n\n")
	b.WriteString("This directory contains documents managed by docgraph.\n")
	b.WriteString("Each subdirectory holds one document type: manuscripts (stories, novels),\n")
	b.WriteString("documentation (technical, research), datasets, captured webpages, and\n")
	b.WriteString("generic documents. Every change is recorded as a revision.\n")
	if err := os.WriteFile(readme, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing README: %w", err)
	}
	if err := s.vcs.Stage(s.root, []string{"README.md"}); err != nil {
		return err
	}
	_, err := s.vcs.Commit(s.root, "Initialize document repository", s.authorName, s.authorEmail)
	log.Event("document:init", "write").Detail("root", s.root).Write(err)
	return err
}

// docLock returns the mutex serialising writes to one document.
func (s *Service) docLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.docLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.docLocks[id] = l
	}
	return l
}

func (s *Service) docPath(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}
