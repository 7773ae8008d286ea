package merge

import "fmt"

// CheckoutStrategy is the bitmask controlling how working-tree files are
// written during a merge checkout.
type CheckoutStrategy uint32

const (
	// CheckoutNone performs a dry run: no working-tree writes.
	CheckoutNone CheckoutStrategy = 0
	// CheckoutSafe only writes files that are unmodified in the worktree.
	CheckoutSafe CheckoutStrategy = 1 << 0
	// CheckoutSafeCreate additionally creates files that are missing.
	CheckoutSafeCreate CheckoutStrategy = 1 << 1
	// CheckoutForce overwrites local modifications.
	CheckoutForce CheckoutStrategy = 1 << 2
	// CheckoutAllowConflicts lets the checkout proceed with conflicted files
	// written to the worktree instead of aborting.
	CheckoutAllowConflicts CheckoutStrategy = 1 << 4
	// CheckoutRemoveUntracked removes untracked files in the way.
	CheckoutRemoveUntracked CheckoutStrategy = 1 << 5
	// CheckoutUseOurs resolves conflicted files with the "ours" side.
	CheckoutUseOurs CheckoutStrategy = 1 << 11
	// CheckoutUseTheirs resolves conflicted files with the "theirs" side.
	CheckoutUseTheirs CheckoutStrategy = 1 << 12
	// CheckoutConflictStyleMerge writes two-way conflict markers.
	CheckoutConflictStyleMerge CheckoutStrategy = 1 << 20
	// CheckoutConflictStyleDiff3 writes conflict markers with a base section.
	CheckoutConflictStyleDiff3 CheckoutStrategy = 1 << 21
)

// FileConflictStrategy selects the checkout-level write policy for files
// whose content is conflicted.
type FileConflictStrategy int

const (
	// FileConflictNormal writes conflicted files with conflict markers.
	FileConflictNormal FileConflictStrategy = iota
	// FileConflictOurs writes the "ours" side of conflicted files.
	FileConflictOurs
	// FileConflictTheirs writes the "theirs" side of conflicted files.
	FileConflictTheirs
	// FileConflictMerge writes two-way merge-style conflict markers.
	FileConflictMerge
	// FileConflictDiff3 writes diff3-style markers including the base.
	FileConflictDiff3
)

// checkoutBits maps every conflict strategy enumerator to its checkout flag
// bits. The switch is exhaustive over the enum; an unmapped value is a bug in
// this package and panics rather than degrading to a silent default.
func (s FileConflictStrategy) checkoutBits() CheckoutStrategy {
	switch s {
	case FileConflictNormal:
		return CheckoutNone
	case FileConflictOurs:
		return CheckoutUseOurs
	case FileConflictTheirs:
		return CheckoutUseTheirs
	case FileConflictMerge:
		return CheckoutConflictStyleMerge
	case FileConflictDiff3:
		return CheckoutConflictStyleDiff3
	}
	panic(fmt.Sprintf("merge: no checkout bits defined for file conflict strategy %d", s))
}

func (s FileConflictStrategy) String() string {
	switch s {
	case FileConflictNormal:
		return "normal"
	case FileConflictOurs:
		return "ours"
	case FileConflictTheirs:
		return "theirs"
	case FileConflictMerge:
		return "merge"
	case FileConflictDiff3:
		return "diff3"
	}
	return fmt.Sprintf("FileConflictStrategy(%d)", int(s))
}

// FastForwardStrategy controls whether a merge may or must be resolved by
// advancing the branch pointer. It is a merge-level control and is never part
// of the checkout bitmask.
type FastForwardStrategy int

const (
	// FastForwardDefault fast-forwards when possible, merges otherwise.
	FastForwardDefault FastForwardStrategy = iota
	// NoFastForward always creates a merge commit.
	NoFastForward
	// FastForwardOnly fails when the merge cannot be fast-forwarded.
	FastForwardOnly
)

func (f FastForwardStrategy) String() string {
	switch f {
	case FastForwardDefault:
		return "default"
	case NoFastForward:
		return "no-fast-forward"
	case FastForwardOnly:
		return "fast-forward-only"
	}
	return fmt.Sprintf("FastForwardStrategy(%d)", int(f))
}

// FileFavor selects which side's content wins inside a textually-conflicting
// region.
type FileFavor int

const (
	// FavorNormal keeps both sides wrapped in conflict markers and records
	// the conflict.
	FavorNormal FileFavor = iota
	// FavorOurs keeps only the "ours" side, no conflict recorded.
	FavorOurs
	// FavorTheirs keeps only the "theirs" side, no conflict recorded.
	FavorTheirs
	// FavorUnion keeps every unique line from both sides, no conflict
	// recorded.
	FavorUnion
)

func (f FileFavor) String() string {
	switch f {
	case FavorNormal:
		return "normal"
	case FavorOurs:
		return "ours"
	case FavorTheirs:
		return "theirs"
	case FavorUnion:
		return "union"
	}
	return fmt.Sprintf("FileFavor(%d)", int(f))
}
