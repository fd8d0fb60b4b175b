// Package log provides centralised audit logging for docgraph operations.
// Entries are stored in ~/.docgraph/log/docgraph-log.db and track document,
// graph, and version-store operations across stores.
//
// # Fluent API
//
// Use the fluent builder API to construct and write log entries:
//
//	log.Event("document:create", "write").
//		Author(author).
//		Doc(docID).
//		Write(err)
//
//	log.Event("graph:create_entities", "write").
//		Detail("requested", len(entities)).
//		Detail("added", len(added)).
//		Write(err)
//
// The source parameter follows the format "{component}:{operation}", for
// example "document:update", "graph:find_paths", "vcs:commit".
package log

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	global *Logger
	mu     sync.Mutex
)

// Entry represents a single log entry.
type Entry struct {
	Source string // e.g., "document:create", "graph:delete_entities"
	Author string // who performed the action
	Action string // verb: read, write, delete, search, etc.
	DocID  string // document id the operation targeted, if any

	// Output fields - populated after operation succeeds
	Revision string // revision identifier produced or accessed

	// Timing
	Start int64 // unix timestamp when Event() called
	End   int64 // unix timestamp when Write() called

	Success bool           // whether operation succeeded
	Error   string         // error message if failed
	Detail  map[string]any // additional operation-specific data
}

// Builder constructs a log entry using a fluent API.
// Create with [Event], chain methods to set fields, then call [Builder.Write]
// to write the entry.
type Builder struct {
	entry Entry
}

// Event creates a new log entry builder for an operation.
//
// The source identifies where the operation originated, in the form
// "{component}:{operation}" (e.g., "document:create", "vcs:batch_commit").
// The action describes what was performed: "read", "write", "delete",
// "search", "sync", etc.
func Event(source, action string) *Builder {
	return &Builder{
		entry: Entry{
			Source: source,
			Action: action,
			Start:  time.Now().Unix(),
		},
	}
}

// Author sets who performed the operation.
func (b *Builder) Author(author string) *Builder {
	b.entry.Author = author
	return b
}

// Doc sets the document id this operation affects. Leave unset for
// operations that don't target a document (graph queries, branch ops).
func (b *Builder) Doc(id string) *Builder {
	b.entry.DocID = id
	return b
}

// Revision sets the revision identifier produced or accessed (output).
// For commits: the new revision. For historical reads: the revision read.
func (b *Builder) Revision(rev string) *Builder {
	b.entry.Revision = rev
	return b
}

// Detail adds a key-value pair to the log entry's detail map.
//
// Use for operation-specific data that doesn't fit standard fields:
// queries, result counts, entity names, etc. Can be called multiple
// times to add multiple details.
func (b *Builder) Detail(key string, value any) *Builder {
	if b.entry.Detail == nil {
		b.entry.Detail = make(map[string]any)
	}
	b.entry.Detail[key] = value
	return b
}

// Write writes the log entry to the database, deriving success/failure from err.
//
// If err is nil, the entry is logged as successful. If err is non-nil, the
// entry is logged as failed with the error message. This is the standard way
// to complete a log entry after an operation:
//
//	doc, err := svc.Get(ctx, id)
//	log.Event("document:get", "read").Doc(id).Write(err)
func (b *Builder) Write(err error) {
	b.entry.End = time.Now().Unix()
	b.entry.Success = err == nil
	if err != nil {
		b.entry.Error = err.Error()
	}
	Log(b.entry)
}

// Open initialises the global logger. Safe to call multiple times.
// Errors are returned but callers may choose to ignore them (best-effort logging).
func Open() error {
	mu.Lock()
	defer mu.Unlock()

	if global != nil {
		return nil
	}

	p := dbPath()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return err
	}

	global = &Logger{db: db}
	return nil
}

// SetStore sets the store identifier for subsequent log entries.
// The dir should be the absolute path of the document root.
func SetStore(dir string) {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.store = hash(dir)
	}
}

// Log writes an entry. Safe to call if logger not initialised (no-op).
func Log(e Entry) {
	mu.Lock()
	l := global
	mu.Unlock()

	if l == nil {
		return
	}
	l.log(e)
}

// Close closes the global logger.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.db.Close()
		global = nil
	}
}
