package merge

// ProgressFunc reports checkout progress for one path.
type ProgressFunc func(path string, completedSteps, totalSteps int)

// NotifyFunc receives a checkout notification. Returning a non-nil error
// aborts the merge checkout.
type NotifyFunc func(why NotifyFlags, path string) error

// Options configures one merge/checkout invocation. The zero value of every
// field except CommitOnSuccess is the default; use NewOptions to get the
// documented defaults. An Options value is consumed once and never mutated by
// the translation.
type Options struct {
	// NotifyFlags selects which notification classes reach OnNotify.
	NotifyFlags NotifyFlags

	// CommitOnSuccess creates the merge commit when the merge completes
	// without unresolved conflicts. Default true.
	CommitOnSuccess bool

	// FastForward is the fast-forward policy. Merge-level: not part of the
	// checkout bitmask.
	FastForward FastForwardStrategy

	// FileConflictStrategy is the checkout-level write policy for
	// conflicted files.
	FileConflictStrategy FileConflictStrategy

	// FileFavor is the per-region textual conflict resolution policy.
	FileFavor FileFavor

	// OnProgress, if set, is invoked once per processed path.
	OnProgress ProgressFunc

	// OnNotify, if set, is invoked for notification classes enabled in
	// NotifyFlags.
	OnNotify NotifyFunc
}

// NewOptions returns Options with the default configuration: commit on
// success, default fast-forward policy, normal conflict strategy and favor.
func NewOptions() Options {
	return Options{CommitOnSuccess: true}
}

// CheckoutStrategy translates the options into the checkout-strategy bitmask.
// It is a pure function of the receiver: the same Options always yield the
// same mask. CommitOnSuccess and FastForward are deliberately absent; they
// are consumed by the merge algorithm, not the checkout.
func (o Options) CheckoutStrategy() CheckoutStrategy {
	return CheckoutSafeCreate | CheckoutAllowConflicts | o.FileConflictStrategy.checkoutBits()
}
