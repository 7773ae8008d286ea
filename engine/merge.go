package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-billy/v6/util"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"

	"github.com/someoneigna/gitkit/merge"
)

var (
	// ErrNonFastForward reports a FastForwardOnly merge over diverged
	// branches.
	ErrNonFastForward = errors.New("cannot fast-forward, branches have diverged")
	// ErrNoMergeBase reports that the two branches share no common ancestor.
	ErrNoMergeBase = errors.New("no common ancestor found")
	// ErrDirtyWorktree reports uncommitted changes blocking a checkout.
	ErrDirtyWorktree = errors.New("working tree has uncommitted changes")
	// ErrConflictsNotAllowed reports conflicts under a strategy without
	// CheckoutAllowConflicts.
	ErrConflictsNotAllowed = errors.New("merge produced conflicts and the checkout strategy does not allow them")
)

// FileConflict records one conflicted path and how many conflicting regions
// it contains.
type FileConflict struct {
	Path    string
	Regions int
}

// MergeResult describes the outcome of a merge.
type MergeResult struct {
	// CommitID is the resulting commit, empty when nothing was committed.
	CommitID string
	// FastForward is true when the merge advanced the branch pointer.
	FastForward bool
	// AlreadyUpToDate is true when the source was already merged.
	AlreadyUpToDate bool
	// MergedFiles counts the paths written during the checkout.
	MergedFiles int
	// Conflicts lists paths left conflicted in the working tree.
	Conflicts []FileConflict
}

// Merge merges the named source branch into HEAD according to opts. The
// options are translated into the checkout bitmask and callback table here;
// the fast-forward policy and commit flag are threaded to the merge logic
// separately, as they are not checkout-level controls.
func (e *GitEngine) Merge(source string, identity Identity, opts merge.Options) (MergeResult, error) {
	return e.ApplyMergeCheckout(
		source,
		identity,
		opts.CheckoutStrategy(),
		opts.FileFavor,
		opts.FastForward,
		opts.CommitOnSuccess,
		merge.NewCallbacks(opts),
	)
}

// ApplyMergeCheckout is the low-level merge/checkout entry point.
func (e *GitEngine) ApplyMergeCheckout(
	source string,
	identity Identity,
	strategy merge.CheckoutStrategy,
	favor merge.FileFavor,
	ff merge.FastForwardStrategy,
	commitOnSuccess bool,
	cbs merge.Callbacks,
) (MergeResult, error) {
	headRef, err := e.repo.Head()
	if err != nil {
		return MergeResult{}, fmt.Errorf("failed to get HEAD: %w", err)
	}

	sourceRef, err := e.repo.Reference(plumbing.NewBranchReferenceName(source), true)
	if err != nil {
		return MergeResult{}, fmt.Errorf("branch %q not found: %w", source, err)
	}

	headCommit, err := e.repo.CommitObject(headRef.Hash())
	if err != nil {
		return MergeResult{}, &OperationError{Op: "merge", Err: err}
	}
	sourceCommit, err := e.repo.CommitObject(sourceRef.Hash())
	if err != nil {
		return MergeResult{}, &OperationError{Op: "merge", Err: err}
	}

	isAncestor, err := sourceCommit.IsAncestor(headCommit)
	if err != nil {
		return MergeResult{}, fmt.Errorf("failed to check ancestry: %w", err)
	}
	if isAncestor {
		return MergeResult{
			CommitID:        headRef.Hash().String(),
			AlreadyUpToDate: true,
		}, nil
	}

	canFF, err := headCommit.IsAncestor(sourceCommit)
	if err != nil {
		return MergeResult{}, fmt.Errorf("failed to check ancestry: %w", err)
	}

	if canFF && ff != merge.NoFastForward {
		return e.fastForward(headRef, sourceRef, strategy, cbs)
	}
	if !canFF && ff == merge.FastForwardOnly {
		return MergeResult{}, ErrNonFastForward
	}

	bases, err := headCommit.MergeBase(sourceCommit)
	if err != nil {
		return MergeResult{}, fmt.Errorf("failed to find merge base: %w", err)
	}
	if len(bases) == 0 {
		return MergeResult{}, ErrNoMergeBase
	}

	return e.mergeTrees(headCommit, sourceCommit, bases[0], source, identity, strategy, favor, commitOnSuccess, cbs)
}

// fastForward advances HEAD to the source. The hard reset rewrites the whole
// worktree, so the same clean-worktree gate as the three-way path applies.
func (e *GitEngine) fastForward(headRef, sourceRef *plumbing.Reference, strategy merge.CheckoutStrategy, cbs merge.Callbacks) (MergeResult, error) {
	wt, err := e.repo.Worktree()
	if err != nil {
		return MergeResult{}, &OperationError{Op: "merge", Err: err}
	}

	if err := e.checkWorktreeClean(wt, strategy, cbs); err != nil {
		return MergeResult{}, err
	}

	err = wt.Reset(&git.ResetOptions{
		Mode:   git.HardReset,
		Commit: sourceRef.Hash(),
	})
	if err != nil {
		return MergeResult{}, fmt.Errorf("failed to fast-forward: %w", err)
	}

	if headRef.Name().IsBranch() {
		newRef := plumbing.NewHashReference(headRef.Name(), sourceRef.Hash())
		if err := e.repo.Storer.SetReference(newRef); err != nil {
			return MergeResult{}, &OperationError{Op: "merge", Err: err}
		}
	}

	return MergeResult{
		CommitID:    sourceRef.Hash().String(),
		FastForward: true,
	}, nil
}

// mergeTrees performs the three-way, per-file merge and checkout.
func (e *GitEngine) mergeTrees(
	headCommit, sourceCommit, baseCommit *object.Commit,
	source string,
	identity Identity,
	strategy merge.CheckoutStrategy,
	favor merge.FileFavor,
	commitOnSuccess bool,
	cbs merge.Callbacks,
) (MergeResult, error) {
	result := MergeResult{}

	wt, err := e.repo.Worktree()
	if err != nil {
		return result, &OperationError{Op: "merge", Err: err}
	}

	if err := e.checkWorktreeClean(wt, strategy, cbs); err != nil {
		return result, err
	}

	baseFiles, err := commitFiles(baseCommit)
	if err != nil {
		return result, err
	}
	headFiles, err := commitFiles(headCommit)
	if err != nil {
		return result, err
	}
	sourceFiles, err := commitFiles(sourceCommit)
	if err != nil {
		return result, err
	}

	paths := unionPaths(baseFiles, headFiles, sourceFiles)
	total := len(paths)
	canWrite := strategy&(merge.CheckoutSafeCreate|merge.CheckoutForce) != 0

	write := func(path string, data []byte) error {
		if !canWrite {
			return nil
		}
		if err := util.WriteFile(wt.Filesystem, path, data, 0644); err != nil {
			return fmt.Errorf("failed to write merged file %q: %w", path, err)
		}
		result.MergedFiles++
		return cbs.Notify(merge.NotifyUpdated, path)
	}

	remove := func(path string) error {
		if !canWrite {
			return nil
		}
		if err := wt.Filesystem.Remove(path); err != nil {
			return fmt.Errorf("failed to remove merged file %q: %w", path, err)
		}
		result.MergedFiles++
		return cbs.Notify(merge.NotifyUpdated, path)
	}

	for i, path := range paths {
		cbs.Progress(path, i+1, total)

		bHash, inBase := baseFiles[path]
		hHash, inHead := headFiles[path]
		sHash, inSource := sourceFiles[path]

		headUnchanged := inBase && inHead && bHash == hHash
		sourceUnchanged := inBase && inSource && bHash == sHash

		switch {
		case !inHead && !inSource:
			// Gone on both sides.

		case inHead && !inSource:
			if !inBase || headUnchanged {
				if inBase {
					// Deleted in source, untouched in head: the
					// deletion wins.
					if err := remove(path); err != nil {
						return result, err
					}
				}
				continue
			}
			// Modified here, deleted there.
			if strategy&merge.CheckoutUseTheirs != 0 || favor == merge.FavorTheirs {
				if err := remove(path); err != nil {
					return result, err
				}
				continue
			}
			// Keep ours; only the normal favor records it as a conflict.
			if favor == merge.FavorNormal && strategy&merge.CheckoutUseOurs == 0 {
				result.Conflicts = append(result.Conflicts, FileConflict{Path: path, Regions: 1})
				if err := cbs.Notify(merge.NotifyConflict, path); err != nil {
					return result, err
				}
			}

		case !inHead && inSource:
			if !inBase {
				// Added in source.
				data, err := commitFileContent(sourceCommit, path)
				if err != nil {
					return result, err
				}
				if err := write(path, data); err != nil {
					return result, err
				}
				continue
			}
			if sourceUnchanged {
				// Deleted here, untouched there: stays deleted.
				continue
			}
			// Deleted here, modified there.
			if strategy&merge.CheckoutUseOurs != 0 || favor == merge.FavorOurs {
				continue
			}
			data, err := commitFileContent(sourceCommit, path)
			if err != nil {
				return result, err
			}
			if err := write(path, data); err != nil {
				return result, err
			}
			if favor == merge.FavorNormal && strategy&merge.CheckoutUseTheirs == 0 {
				result.Conflicts = append(result.Conflicts, FileConflict{Path: path, Regions: 1})
				if err := cbs.Notify(merge.NotifyConflict, path); err != nil {
					return result, err
				}
			}

		default: // present on both sides
			if hHash == sHash || sourceUnchanged {
				continue
			}
			if headUnchanged {
				data, err := commitFileContent(sourceCommit, path)
				if err != nil {
					return result, err
				}
				if err := write(path, data); err != nil {
					return result, err
				}
				continue
			}

			// Both sides changed the file.
			if strategy&merge.CheckoutUseOurs != 0 {
				continue
			}
			if strategy&merge.CheckoutUseTheirs != 0 {
				data, err := commitFileContent(sourceCommit, path)
				if err != nil {
					return result, err
				}
				if err := write(path, data); err != nil {
					return result, err
				}
				continue
			}

			base, err := commitFileContent(baseCommit, path)
			if err != nil {
				return result, err
			}
			ours, err := commitFileContent(headCommit, path)
			if err != nil {
				return result, err
			}
			theirs, err := commitFileContent(sourceCommit, path)
			if err != nil {
				return result, err
			}

			merged := merge.MergeFile(merge.FileInput{
				Base:        base,
				Ours:        ours,
				Theirs:      theirs,
				OursLabel:   "HEAD",
				TheirsLabel: source,
				Favor:       favor,
				Diff3:       strategy&merge.CheckoutConflictStyleDiff3 != 0,
			})

			if merged.Conflicts > 0 {
				result.Conflicts = append(result.Conflicts, FileConflict{Path: path, Regions: merged.Conflicts})
				if err := cbs.Notify(merge.NotifyConflict, path); err != nil {
					return result, err
				}
			}
			if err := write(path, merged.Content); err != nil {
				return result, err
			}
		}
	}

	if len(result.Conflicts) > 0 && strategy&merge.CheckoutAllowConflicts == 0 {
		return result, ErrConflictsNotAllowed
	}

	if !canWrite {
		return result, nil
	}

	if _, err := wt.Add("."); err != nil {
		return result, fmt.Errorf("failed to stage changes: %w", err)
	}

	if !commitOnSuccess || len(result.Conflicts) > 0 {
		return result, nil
	}

	msg := fmt.Sprintf("Merge branch '%s'", source)
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  identity.Name,
			Email: identity.Email,
			When:  time.Now(),
		},
		Parents: []plumbing.Hash{headCommit.Hash, sourceCommit.Hash},
		// The merge may leave the tree identical to HEAD (favor "ours");
		// the merge commit still records the second parent.
		AllowEmptyCommits: true,
	})
	if err != nil {
		return result, fmt.Errorf("failed to create merge commit: %w", err)
	}

	result.CommitID = hash.String()
	return result, nil
}

// checkWorktreeClean notifies dirty paths and fails unless the strategy
// forces through local modifications.
func (e *GitEngine) checkWorktreeClean(wt *git.Worktree, strategy merge.CheckoutStrategy, cbs merge.Callbacks) error {
	status, err := wt.Status()
	if err != nil {
		return &OperationError{Op: "merge", Err: err}
	}
	if status.IsClean() {
		return nil
	}

	for path, st := range status {
		if st.Worktree == git.Untracked {
			if err := cbs.Notify(merge.NotifyUntracked, path); err != nil {
				return err
			}
			continue
		}
		if err := cbs.Notify(merge.NotifyDirty, path); err != nil {
			return err
		}
	}

	if strategy&merge.CheckoutForce == 0 {
		return ErrDirtyWorktree
	}
	return nil
}

func commitFiles(c *object.Commit) (map[string]plumbing.Hash, error) {
	files := make(map[string]plumbing.Hash)

	iter, err := c.Files()
	if err != nil {
		return nil, &OperationError{Op: "merge", Err: err}
	}
	err = iter.ForEach(func(f *object.File) error {
		files[f.Name] = f.Hash
		return nil
	})
	if err != nil {
		return nil, &OperationError{Op: "merge", Err: err}
	}
	return files, nil
}

func commitFileContent(c *object.Commit, path string) ([]byte, error) {
	f, err := c.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, nil
		}
		return nil, &OperationError{Op: "merge", Err: err}
	}
	content, err := f.Contents()
	if err != nil {
		return nil, &OperationError{Op: "merge", Err: err}
	}
	return []byte(content), nil
}

func unionPaths(maps ...map[string]plumbing.Hash) []string {
	set := make(map[string]bool)
	for _, m := range maps {
		for p := range m {
			set[p] = true
		}
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
