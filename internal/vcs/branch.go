// branch.go implements branch, tag, and clone operations. These mirror the
// standard git meanings; the document service itself only ever works on the
// default branch, but the operations are part of the public surface so
// deployments can maintain review branches or snapshot tags over the
// document root.

package vcs

import (
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/jpl-au/docgraph/internal/log"
	"github.com/jpl-au/docgraph/internal/validate"
)

// CreateBranch creates a branch pointing at base (default: current HEAD).
func (s *Service) CreateBranch(path, name, base string) error {
	lock := s.repoLock(path)
	lock.Lock()
	defer lock.Unlock()

	err := s.createBranchLocked(path, name, base)
	log.Event("vcs:create_branch", "write").Detail("repo", path).Detail("branch", name).Write(err)
	return err
}

func (s *Service) createBranchLocked(path, name, base string) error {
	repo, err := s.open(path)
	if err != nil {
		return err
	}
	if base == "" {
		base = "HEAD"
	}
	commit, err := resolve(repo, base)
	if err != nil {
		return err
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), commit.Hash)
	if err := repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("creating branch %s: %w", name, err)
	}
	return nil
}

// Checkout switches the working tree to the named branch, optionally
// creating it first.
func (s *Service) Checkout(path, name string, create bool) error {
	lock := s.repoLock(path)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.open(path)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRepo, path, err)
	}
	err = wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: create,
	})
	log.Event("vcs:checkout", "write").Detail("repo", path).Detail("branch", name).Write(err)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf("%w: branch %q", validate.ErrNotFound, name)
		}
		return fmt.Errorf("checking out %s: %w", name, err)
	}
	return nil
}

// RemoveBranch deletes a local branch reference. The current branch cannot
// be removed.
func (s *Service) RemoveBranch(path, name string) error {
	lock := s.repoLock(path)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.open(path)
	if err != nil {
		return err
	}
	refName := plumbing.NewBranchReferenceName(name)
	if head, err := repo.Head(); err == nil && head.Name() == refName {
		return fmt.Errorf("%w: cannot remove the current branch %q", validate.ErrInvalidArgument, name)
	}
	if _, err := repo.Reference(refName, false); err != nil {
		return fmt.Errorf("%w: branch %q", validate.ErrNotFound, name)
	}
	err = repo.Storer.RemoveReference(refName)
	log.Event("vcs:remove_branch", "delete").Detail("repo", path).Detail("branch", name).Write(err)
	if err != nil {
		return fmt.Errorf("removing branch %s: %w", name, err)
	}
	return nil
}

// Clone clones the repository at url into path.
func (s *Service) Clone(url, path string) error {
	lock := s.repoLock(path)
	lock.Lock()
	defer lock.Unlock()

	_, err := git.PlainClone(path, false, &git.CloneOptions{URL: url})
	log.Event("vcs:clone", "write").Detail("url", url).Detail("repo", path).Write(err)
	if err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	return nil
}

// Tag creates a lightweight tag at the given revision (default HEAD).
func (s *Service) Tag(path, name, revision string) error {
	lock := s.repoLock(path)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.open(path)
	if err != nil {
		return err
	}
	if revision == "" {
		revision = "HEAD"
	}
	commit, err := resolve(repo, revision)
	if err != nil {
		return err
	}
	_, err = repo.CreateTag(name, commit.Hash, nil)
	log.Event("vcs:tag", "write").Detail("repo", path).Detail("tag", name).Revision(commit.Hash.String()).Write(err)
	if err != nil {
		return fmt.Errorf("creating tag %s: %w", name, err)
	}
	return nil
}

// ListTags returns the names of all tags in the repository.
func (s *Service) ListTags(path string) ([]string, error) {
	repo, err := s.open(path)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags of %s: %w", path, err)
	}
	defer iter.Close()

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing tags of %s: %w", path, err)
	}
	return tags, nil
}
