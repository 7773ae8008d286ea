package merge

// NotifyFlags is a bitset of checkout notification condition classes.
type NotifyFlags uint32

const (
	NotifyNone      NotifyFlags = 0
	NotifyConflict  NotifyFlags = 1 << 0
	NotifyDirty     NotifyFlags = 1 << 1
	NotifyUpdated   NotifyFlags = 1 << 2
	NotifyUntracked NotifyFlags = 1 << 3
	NotifyIgnored   NotifyFlags = 1 << 4
	NotifyAll       NotifyFlags = 0xffff
)

// Callbacks is the callback table handed to the engine's merge checkout.
// Both entries are always non-nil, so the engine invokes them
// unconditionally.
type Callbacks struct {
	Progress ProgressFunc
	Notify   NotifyFunc
}

// NewCallbacks adapts the optional user callbacks in opts into the shape the
// engine expects. Notification filtering happens here: the user's OnNotify
// only runs when the triggering condition class is enabled in
// opts.NotifyFlags. With no user callbacks the table is inert.
func NewCallbacks(opts Options) Callbacks {
	cbs := Callbacks{
		Progress: func(string, int, int) {},
		Notify:   func(NotifyFlags, string) error { return nil },
	}

	if opts.OnProgress != nil {
		cbs.Progress = opts.OnProgress
	}

	if opts.OnNotify != nil {
		user := opts.OnNotify
		mask := opts.NotifyFlags
		cbs.Notify = func(why NotifyFlags, path string) error {
			if why&mask == 0 {
				return nil
			}
			return user(why, path)
		}
	}

	return cbs
}
