// vcsops.go exposes the version-store operations on Store, all acting on
// the repository at the document root.

package docgraph

import (
	"github.com/jpl-au/docgraph/internal/vcs"
)

// Version-store views.
type (
	RepoStatus = vcs.Status
	LogEntry   = vcs.LogEntry
)

// RepoStatus reports the branch and working-tree state of the root repository.
func (s *Store) RepoStatus() (*RepoStatus, error) {
	return s.vcs.Status(s.cfg.Root())
}

// Stage adds the given root-relative paths to the staging area.
func (s *Store) Stage(files []string) error {
	return s.vcs.Stage(s.cfg.Root(), files)
}

// Commit records the staged changes and returns the revision identifier.
// Author and email fall back to the configured identity when empty.
func (s *Store) Commit(message, author, email string) (string, error) {
	return s.vcs.Commit(s.cfg.Root(), message, author, email)
}

// BatchCommit commits each group of files as an independent revision.
func (s *Store) BatchCommit(groups [][]string, template string) ([]string, error) {
	return s.vcs.BatchCommit(s.cfg.Root(), groups, template)
}

// ResetStaging empties the staging area, keeping working-tree changes.
func (s *Store) ResetStaging() error {
	return s.vcs.Reset(s.cfg.Root())
}

// History returns up to n revisions, newest first, optionally restricted to
// one file.
func (s *Store) History(n int, file string) ([]LogEntry, error) {
	return s.vcs.Log(s.cfg.Root(), n, file)
}

// DiffFile returns the textual diff of a file's working-tree state against
// HEAD or the target revision.
func (s *Store) DiffFile(file, target string) (string, error) {
	return s.vcs.Diff(s.cfg.Root(), file, target)
}

// Show returns a file's content at the given revision.
func (s *Store) Show(file, revision string) (string, error) {
	return s.vcs.Show(s.cfg.Root(), file, revision)
}

// CreateBranch creates a branch at base (HEAD when empty).
func (s *Store) CreateBranch(name, base string) error {
	return s.vcs.CreateBranch(s.cfg.Root(), name, base)
}

// Checkout switches to the named branch, creating it when create is set.
func (s *Store) Checkout(name string, create bool) error {
	return s.vcs.Checkout(s.cfg.Root(), name, create)
}

// RemoveBranch deletes the named branch. The current branch cannot be removed.
func (s *Store) RemoveBranch(name string) error {
	return s.vcs.RemoveBranch(s.cfg.Root(), name)
}

// TagRevision records a lightweight tag at the given revision (HEAD when empty).
func (s *Store) TagRevision(name, revision string) error {
	return s.vcs.Tag(s.cfg.Root(), name, revision)
}

// ListTags returns every tag name in the root repository.
func (s *Store) ListTags() ([]string, error) {
	return s.vcs.ListTags(s.cfg.Root())
}

// Clone clones a remote repository into path. Intended for seeding a new
// document root from an existing one.
func (s *Store) Clone(url, path string) error {
	return s.vcs.Clone(url, path)
}
