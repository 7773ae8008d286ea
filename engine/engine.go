package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"
)

// ErrResourceUnavailable reports that a required native acquisition yielded
// no handle.
var ErrResourceUnavailable = errors.New("native resource unavailable")

// OperationError is an opaque engine failure. The underlying go-git error is
// carried verbatim and can be unwrapped.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Identity identifies the author of merge commits.
type Identity struct {
	Name  string
	Email string
}

// GitEngine exposes remote lookup/creation/enumeration and the merge
// checkout entry point over one go-git repository.
type GitEngine struct {
	repo    *git.Repository
	handles map[RemoteHandle]*git.Remote
	next    RemoteHandle
}

func newEngine(repo *git.Repository) *GitEngine {
	return &GitEngine{
		repo:    repo,
		handles: make(map[RemoteHandle]*git.Remote),
		next:    1,
	}
}

// NewMemoryEngine creates an engine over a fresh in-memory repository.
func NewMemoryEngine() (*GitEngine, error) {
	wt := memfs.New()
	storer := memory.NewStorage()

	repo, err := git.Init(storer, git.WithWorkTree(wt))
	if err != nil {
		return nil, &OperationError{Op: "init", Err: err}
	}

	return newEngine(repo), nil
}

// NewFileEngine creates an engine over an on-disk repository rooted at
// baseDir. When gitURL is non-nil the repository is cloned from it; otherwise
// an existing repository is opened, or a new one initialized.
func NewFileEngine(baseDir string, gitURL *string) (*GitEngine, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	wt := osfs.New(baseDir)
	fs, err := wt.Chroot(".git")
	if err != nil {
		return nil, err
	}

	storer := filesystem.NewStorageWithOptions(
		fs,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	var repo *git.Repository

	if gitURL != nil {
		repo, err = git.Clone(storer, wt, &git.CloneOptions{
			URL: *gitURL,
		})
		if err != nil {
			return nil, &OperationError{Op: "clone", Err: err}
		}
	} else {
		_, statErr := os.Stat(fs.Root())
		if statErr != nil {
			repo, err = git.Init(storer, git.WithWorkTree(wt))
			if err != nil {
				return nil, &OperationError{Op: "init", Err: err}
			}
		} else {
			repo, err = git.Open(storer, wt)
			if err != nil {
				return nil, &OperationError{Op: "open", Err: err}
			}
		}
	}

	return newEngine(repo), nil
}

// Repository exposes the underlying go-git repository for plumbing the
// engine does not cover (history construction, branches).
func (e *GitEngine) Repository() *git.Repository {
	return e.repo
}
