// Package docgraph is a versioned document store with a knowledge-graph
// overlay. Documents are Markdown files with a frontmatter header, stored
// under a per-type directory layout inside a repository; every change is a
// revision. Alongside the files live a metadata index, a JSONL-backed
// knowledge graph mirroring documents, tags, and sources, and an optional
// embedding index for semantic search.
package docgraph

import (
	"context"
	"path/filepath"

	"github.com/jpl-au/docgraph/internal/config"
	"github.com/jpl-au/docgraph/internal/document"
	"github.com/jpl-au/docgraph/internal/graph"
	"github.com/jpl-au/docgraph/internal/index"
	"github.com/jpl-au/docgraph/internal/log"
	"github.com/jpl-au/docgraph/internal/semantic"
	"github.com/jpl-au/docgraph/internal/vcs"
)

// Store is the top-level handle over one document root.
type Store struct {
	cfg   *config.Config
	vcs   *vcs.Service
	docs  *document.Service
	graph *graph.Store
	sem   *semantic.Index
}

// Open loads configuration from path (missing file means all defaults) and
// opens the store it describes.
func Open(configPath string) (*Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return OpenConfig(cfg)
}

// OpenConfig opens a store over an already-built configuration. The
// repository, type directories, index, and graph log are created as needed.
// A configured but unreachable embedding endpoint disables semantic search
// rather than failing the open.
func OpenConfig(cfg *config.Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := log.Open(); err != nil {
		return nil, err
	}
	root := cfg.Root()
	log.SetStore(root)

	vcsService := vcs.New(cfg.AuthorName(), cfg.AuthorEmail())

	idx, err := index.Open(filepath.Join(root, ".index"))
	if err != nil {
		return nil, err
	}

	graphStore, err := graph.Open(cfg.GraphLogPath(), cfg.UseInMemoryGraph())
	if err != nil {
		return nil, err
	}

	var embedder semantic.Embedder
	if cfg.SemanticEnabled() && cfg.EmbeddingEndpoint() != "" {
		he := semantic.NewHTTPEmbedder(cfg.EmbeddingEndpoint(), cfg.EmbeddingDimensions())
		if err := he.Probe(context.Background()); err != nil {
			log.Event("store:open", "read").Detail("endpoint", cfg.EmbeddingEndpoint()).Write(err)
		} else {
			embedder = he
		}
	}
	sem, err := semantic.Open(filepath.Join(root, ".vectors"), embedder)
	if err != nil {
		return nil, err
	}

	docs, err := document.New(document.Options{
		Root:        root,
		VCS:         vcsService,
		Index:       idx,
		Graph:       graphStore,
		Semantic:    sem,
		AuthorName:  cfg.AuthorName(),
		AuthorEmail: cfg.AuthorEmail(),
		LargeBytes:  cfg.LargeContentThreshold(),
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		cfg:   cfg,
		vcs:   vcsService,
		docs:  docs,
		graph: graphStore,
		sem:   sem,
	}, nil
}

// Root returns the document root directory.
func (s *Store) Root() string {
	return s.cfg.Root()
}

// SemanticEnabled reports whether semantic search is available.
func (s *Store) SemanticEnabled() bool {
	return s.sem.Enabled()
}

// Close flushes and closes the audit log.
func (s *Store) Close() {
	log.Close()
}
