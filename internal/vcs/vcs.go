// Package vcs wraps go-git behind the small, thread-safe surface the
// document service needs: open-or-init, staging, commits, history, file
// content at arbitrary revisions, and branch/tag management.
//
// Concurrency: every mutating operation runs under an exclusive
// per-repository lock keyed by the absolute repository path. Reads run
// without the lock. Locks are process-local; the design presumes a single
// process owns each repository at a time.
package vcs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/jpl-au/docgraph/internal/log"
	"github.com/jpl-au/docgraph/internal/validate"
)

var (
	// ErrInvalidRepo is returned when a path is not a usable repository.
	ErrInvalidRepo = errors.New("invalid repository")
	// ErrNothingStaged is returned when a commit is requested with an
	// empty staging area.
	ErrNothingStaged = errors.New("nothing staged")
)

// defaultIgnore is written at repository init so editor droppings never
// pollute document history.
const defaultIgnore = "*.swp\n*.bak\n*.tmp\n*.orig\n*~\n.index/\n.vectors/\n.graph/\n.docgraph/\n"

// Service provides thread-safe version-store operations over any number of
// on-disk repositories.
type Service struct {
	defaultName  string
	defaultEmail string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Service. The name and email are used as the commit identity
// whenever a caller does not override them.
func New(defaultName, defaultEmail string) *Service {
	return &Service{
		defaultName:  defaultName,
		defaultEmail: defaultEmail,
		locks:        make(map[string]*sync.Mutex),
	}
}

// repoLock returns the mutex guarding mutations of the repository at path.
func (s *Service) repoLock(path string) *sync.Mutex {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[abs]
	if !ok {
		l = &sync.Mutex{}
		s.locks[abs] = l
	}
	return l
}

// Open opens the repository at path, initialising it if necessary. On init
// a default ignore list is written and committed so the repository always
// has an initial revision.
func (s *Service) Open(path string) error {
	lock := s.repoLock(path)
	lock.Lock()
	defer lock.Unlock()
	_, err := s.ensure(path)
	log.Event("vcs:open", "write").Detail("repo", path).Write(err)
	return err
}

// ensure returns the repository at path, creating and seeding it when absent.
// Callers that mutate must hold the repository lock.
func (s *Service) ensure(path string) (*git.Repository, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRepo, path, err)
	}

	repo, err := git.PlainOpen(path)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRepo, path, err)
	}

	repo, err = git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("%w: initialising %s: %v", ErrInvalidRepo, path, err)
	}

	ignorePath := filepath.Join(path, ".gitignore")
	if _, err := os.Stat(ignorePath); os.IsNotExist(err) {
		if err := os.WriteFile(ignorePath, []byte(defaultIgnore), 0644); err != nil {
			return nil, fmt.Errorf("writing ignore list: %w", err)
		}
		wt, err := repo.Worktree()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRepo, path, err)
		}
		if _, err := wt.Add(".gitignore"); err != nil {
			return nil, fmt.Errorf("staging ignore list: %w", err)
		}
		if _, err := wt.Commit("Initial commit: Add .gitignore", &git.CommitOptions{
			Author: s.signature("", ""),
		}); err != nil {
			return nil, fmt.Errorf("committing ignore list: %w", err)
		}
	}
	return repo, nil
}

// open returns an existing repository without initialising. Used by reads.
func (s *Service) open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRepo, path, err)
	}
	return repo, nil
}

// signature builds the commit identity, falling back to service defaults.
func (s *Service) signature(name, email string) *object.Signature {
	if name == "" {
		name = s.defaultName
	}
	if email == "" {
		email = s.defaultEmail
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}
}

// Status describes the working tree of a repository.
type Status struct {
	CurrentBranch string   `json:"current_branch"`
	Clean         bool     `json:"clean"`
	Staged        []string `json:"staged"`
	Unstaged      []string `json:"unstaged"`
	Untracked     []string `json:"untracked"`
}

// Status reports the repository's branch and working-tree state.
func (s *Service) Status(path string) (*Status, error) {
	repo, err := s.open(path)
	if err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRepo, path, err)
	}
	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("reading status of %s: %w", path, err)
	}

	out := &Status{Clean: st.IsClean()}
	if head, err := repo.Head(); err == nil {
		out.CurrentBranch = head.Name().Short()
	}
	for file, fs := range st {
		switch {
		case fs.Staging == git.Untracked && fs.Worktree == git.Untracked:
			out.Untracked = append(out.Untracked, file)
		default:
			if fs.Staging != git.Unmodified {
				out.Staged = append(out.Staged, file)
			}
			if fs.Worktree != git.Unmodified {
				out.Unstaged = append(out.Unstaged, file)
			}
		}
	}
	return out, nil
}

// Stage adds the given repository-relative paths to the staging area.
// Deleted files are staged as deletions.
func (s *Service) Stage(path string, files []string) error {
	lock := s.repoLock(path)
	lock.Lock()
	defer lock.Unlock()
	err := s.stageLocked(path, files)
	log.Event("vcs:stage", "write").Detail("repo", path).Detail("files", len(files)).Write(err)
	return err
}

func (s *Service) stageLocked(path string, files []string) error {
	repo, err := s.ensure(path)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRepo, path, err)
	}
	for _, f := range files {
		if _, err := wt.Add(filepath.ToSlash(f)); err != nil {
			return fmt.Errorf("staging %s: %w", f, err)
		}
	}
	return nil
}

// Commit records the staged changes and returns the new revision identifier.
// Author and email fall back to the service defaults when empty.
func (s *Service) Commit(path, message, author, email string) (string, error) {
	lock := s.repoLock(path)
	lock.Lock()
	defer lock.Unlock()
	rev, err := s.commitLocked(path, message, author, email)
	log.Event("vcs:commit", "write").Detail("repo", path).Revision(rev).Write(err)
	return rev, err
}

func (s *Service) commitLocked(path, message, author, email string) (string, error) {
	repo, err := s.ensure(path)
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRepo, path, err)
	}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: s.signature(author, email)})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", fmt.Errorf("%w: %s", ErrNothingStaged, path)
		}
		return "", fmt.Errorf("committing in %s: %w", path, err)
	}
	return hash.String(), nil
}

// BatchCommit stages and commits each group of files as an independent
// revision, using message "<template> (batch i/n)". Empty groups are
// skipped. A mid-sequence failure returns the revisions committed so far
// together with the error; earlier commits remain durable.
func (s *Service) BatchCommit(path string, groups [][]string, template string) ([]string, error) {
	lock := s.repoLock(path)
	lock.Lock()
	defer lock.Unlock()

	var revs []string
	var err error
	for i, group := range groups {
		if len(group) == 0 {
			continue
		}
		if err = s.stageLocked(path, group); err != nil {
			break
		}
		message := fmt.Sprintf("%s (batch %d/%d)", template, i+1, len(groups))
		var rev string
		if rev, err = s.commitLocked(path, message, "", ""); err != nil {
			break
		}
		revs = append(revs, rev)
	}
	log.Event("vcs:batch_commit", "write").
		Detail("repo", path).
		Detail("groups", len(groups)).
		Detail("committed", len(revs)).
		Write(err)
	return revs, err
}

// Reset empties the staging area, keeping working-tree changes.
func (s *Service) Reset(path string) error {
	lock := s.repoLock(path)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.ensure(path)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRepo, path, err)
	}
	err = wt.Reset(&git.ResetOptions{Mode: git.MixedReset})
	log.Event("vcs:reset", "write").Detail("repo", path).Write(err)
	if err != nil {
		return fmt.Errorf("resetting %s: %w", path, err)
	}
	return nil
}

// Remove deletes the given files from the working tree and stages the
// deletions. Files already absent on disk are still staged as deleted.
func (s *Service) Remove(path string, files []string) error {
	lock := s.repoLock(path)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.ensure(path)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRepo, path, err)
	}
	for _, f := range files {
		rel := filepath.ToSlash(f)
		if _, err := wt.Remove(rel); err != nil {
			// The file may have been deleted outside the worktree already;
			// staging the path records the deletion in that case.
			if _, addErr := wt.Add(rel); addErr != nil {
				log.Event("vcs:remove", "delete").Detail("repo", path).Detail("file", f).Write(err)
				return fmt.Errorf("removing %s: %w", f, err)
			}
		}
	}
	log.Event("vcs:remove", "delete").Detail("repo", path).Detail("files", len(files)).Write(nil)
	return nil
}

// resolve maps a revision expression ("HEAD", a branch, a hex id) to a commit.
func resolve(repo *git.Repository, revision string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("%w: revision %q", validate.ErrNotFound, revision)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("%w: revision %q", validate.ErrNotFound, revision)
	}
	return commit, nil
}
