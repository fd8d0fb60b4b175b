// history.go implements the read side of the version store: commit logs,
// file content at arbitrary revisions, and textual diffs.
//
// Reads deliberately run without the per-repository lock. go-git reads are
// safe against concurrent commits because objects are content-addressed and
// immutable once written; the worst case is a log that does not yet include
// a commit racing in.

package vcs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/jpl-au/docgraph/internal/diff"
	"github.com/jpl-au/docgraph/internal/validate"
)

// LogEntry is one revision in a repository's history.
type LogEntry struct {
	ID      string `json:"id"`
	Author  string `json:"author"` // "Name <email>"
	Date    string `json:"date"`   // RFC3339
	Message string `json:"message"`
}

// Log returns up to n revisions, newest first. When file is non-empty the
// log is restricted to revisions touching that repository-relative path.
// n <= 0 means no limit.
func (s *Service) Log(path string, n int, file string) ([]LogEntry, error) {
	repo, err := s.open(path)
	if err != nil {
		return nil, err
	}

	opts := &git.LogOptions{}
	if file != "" {
		name := filepath.ToSlash(file)
		opts.FileName = &name
	}
	iter, err := repo.Log(opts)
	if err != nil {
		return nil, fmt.Errorf("reading log of %s: %w", path, err)
	}
	defer iter.Close()

	var entries []LogEntry
	for {
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading log of %s: %w", path, err)
		}
		entries = append(entries, LogEntry{
			ID:      c.Hash.String(),
			Author:  fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
			Date:    c.Author.When.UTC().Format(time.RFC3339),
			Message: c.Message,
		})
		if n > 0 && len(entries) >= n {
			break
		}
	}
	return entries, nil
}

// Show returns the content of a repository-relative file at a revision.
func (s *Service) Show(path, file, revision string) (string, error) {
	repo, err := s.open(path)
	if err != nil {
		return "", err
	}
	commit, err := resolve(repo, revision)
	if err != nil {
		return "", err
	}
	f, err := commit.File(filepath.ToSlash(file))
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", fmt.Errorf("%w: %s at revision %s", validate.ErrNotFound, file, revision)
		}
		return "", fmt.Errorf("reading %s at %s: %w", file, revision, err)
	}
	content, err := f.Contents()
	if err != nil {
		return "", fmt.Errorf("reading %s at %s: %w", file, revision, err)
	}
	return content, nil
}

// Diff compares content against a committed revision. When file is set the
// working-tree copy of that file is compared with the file at target
// (default HEAD), rendered as a unified-style patch. When file is empty the
// whole-tree patch between target and HEAD is returned.
func (s *Service) Diff(path, file, target string) (string, error) {
	if target == "" {
		target = "HEAD"
	}
	if file == "" {
		return s.treePatch(path, target, "HEAD")
	}

	old, err := s.Show(path, file, target)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(filepath.Join(path, file))
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("reading working copy of %s: %w", file, err)
	}
	r := diff.Compute(old, string(raw), fmt.Sprintf("%s@%s", file, target), file+" (working tree)")
	return r.Format(), nil
}

// DiffBetween compares a file between two revisions (to defaults to HEAD)
// and returns a unified-style patch.
func (s *Service) DiffBetween(path, file, from, to string) (string, error) {
	if to == "" {
		to = "HEAD"
	}
	old, err := s.Show(path, file, from)
	if err != nil {
		return "", err
	}
	cur, err := s.Show(path, file, to)
	if err != nil {
		return "", err
	}
	r := diff.Compute(old, cur, fmt.Sprintf("%s@%s", file, from), fmt.Sprintf("%s@%s", file, to))
	return r.Format(), nil
}

// treePatch renders the whole-tree patch between two committed revisions.
func (s *Service) treePatch(path, from, to string) (string, error) {
	repo, err := s.open(path)
	if err != nil {
		return "", err
	}
	a, err := resolve(repo, from)
	if err != nil {
		return "", err
	}
	b, err := resolve(repo, to)
	if err != nil {
		return "", err
	}
	patch, err := a.Patch(b)
	if err != nil {
		return "", fmt.Errorf("computing patch %s..%s: %w", from, to, err)
	}
	return patch.String(), nil
}
