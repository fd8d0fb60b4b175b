// Package config provides reading and writing of docgraph configuration.
// Configuration lives in a YAML file next to the document root (or wherever
// the caller points Load at). All fields are optional; accessor methods
// supply defaults so callers never see a half-configured value.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoConfigPath is returned when the config path cannot be determined.
	ErrNoConfigPath = errors.New("cannot determine config path")
	// ErrInvalidValue is returned when a config value is invalid.
	ErrInvalidValue = errors.New("invalid config value")
)

// Author represents the commit identity used when a caller does not
// override author and email on a write.
type Author struct {
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// Graph holds knowledge-graph configuration options.
type Graph struct {
	LogPath  string `yaml:"log_path,omitempty"`
	InMemory *bool  `yaml:"in_memory,omitempty"`
}

// Semantic holds semantic-index configuration options.
type Semantic struct {
	Enabled    *bool  `yaml:"enabled,omitempty"`
	Endpoint   string `yaml:"endpoint,omitempty"`
	Dimensions *int   `yaml:"dimensions,omitempty"`
}

// Limits holds size limit configuration options.
type Limits struct {
	LargeContentThreshold *int `yaml:"large_content_threshold,omitempty"`
}

// Defaults applied when not configured.
const (
	DefaultAuthorName            = "docgraph"
	DefaultAuthorEmail           = "docgraph@localhost"
	DefaultGraphLogFile          = ".graph/memory.jsonl"
	DefaultEmbeddingDimensions   = 384
	DefaultLargeContentThreshold = 100_000
)

// Validation bounds for configuration values.
const (
	MinDimensions            = 1
	MaxDimensions            = 65536
	MinLargeContentThreshold = 1
)

// Config contains configuration for a docgraph store.
type Config struct {
	RootPath string   `yaml:"root_path,omitempty"`
	Author   Author   `yaml:"author,omitempty"`
	Graph    Graph    `yaml:"graph,omitempty"`
	Semantic Semantic `yaml:"semantic,omitempty"`
	Limits   Limits   `yaml:"limits,omitempty"`

	// path is the file this config was loaded from (for Save)
	path string
}

// Validate checks that all configured values are within acceptable bounds.
// Returns nil if all values are valid or not set (defaults will be used).
func (c *Config) Validate() error {
	if c.Semantic.Dimensions != nil {
		v := *c.Semantic.Dimensions
		if v < MinDimensions || v > MaxDimensions {
			return fmt.Errorf("%w: semantic.dimensions must be between %d and %d, got %d",
				ErrInvalidValue, MinDimensions, MaxDimensions, v)
		}
	}
	if c.Limits.LargeContentThreshold != nil {
		v := *c.Limits.LargeContentThreshold
		if v < MinLargeContentThreshold {
			return fmt.Errorf("%w: large_content_threshold must be at least %d, got %d",
				ErrInvalidValue, MinLargeContentThreshold, v)
		}
	}
	return nil
}

// Root returns the document root path (defaults to ./data/documents).
func (c *Config) Root() string {
	if c.RootPath == "" {
		return filepath.Join("data", "documents")
	}
	return c.RootPath
}

// AuthorName returns the default commit author name.
func (c *Config) AuthorName() string {
	if c.Author.Name == "" {
		return DefaultAuthorName
	}
	return c.Author.Name
}

// AuthorEmail returns the default commit author email.
func (c *Config) AuthorEmail() string {
	if c.Author.Email == "" {
		return DefaultAuthorEmail
	}
	return c.Author.Email
}

// GraphLogPath returns the path of the graph's JSONL log file. A relative
// configured path is resolved against the document root.
func (c *Config) GraphLogPath() string {
	p := c.Graph.LogPath
	if p == "" {
		p = DefaultGraphLogFile
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root(), p)
}

// UseInMemoryGraph returns whether the in-memory multigraph form is
// maintained alongside the log (defaults to true).
func (c *Config) UseInMemoryGraph() bool {
	if c.Graph.InMemory == nil {
		return true
	}
	return *c.Graph.InMemory
}

// SemanticEnabled returns whether the semantic index should be attempted at
// startup (defaults to false). Enabling it without a reachable embedding
// endpoint leaves the index disabled rather than failing startup.
func (c *Config) SemanticEnabled() bool {
	if c.Semantic.Enabled == nil {
		return false
	}
	return *c.Semantic.Enabled
}

// EmbeddingEndpoint returns the HTTP embedding endpoint, empty if unset.
func (c *Config) EmbeddingEndpoint() string {
	return c.Semantic.Endpoint
}

// EmbeddingDimensions returns the embedding vector width (defaults to 384,
// the width of the MiniLM family most embedding services expose).
func (c *Config) EmbeddingDimensions() int {
	if c.Semantic.Dimensions == nil {
		return DefaultEmbeddingDimensions
	}
	return *c.Semantic.Dimensions
}

// LargeContentThreshold returns the byte size above which a document is
// flagged as large in listings (defaults to 100,000). Informational only.
func (c *Config) LargeContentThreshold() int {
	if c.Limits.LargeContentThreshold == nil {
		return DefaultLargeContentThreshold
	}
	return *c.Limits.LargeContentThreshold
}

// Load reads configuration from path. A missing file yields an empty config
// (all defaults) rather than an error, matching how a fresh store starts.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("malformed config file %s: %w", path, err)
	}
	cfg.path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration to its original location.
func (c *Config) Save() error {
	if c.path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(c.path)
}

// saveToPath writes configuration to a specific filesystem path.
// Creates parent directories as needed with mode 0755.
func (c *Config) saveToPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
