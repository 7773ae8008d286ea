package merge

import (
	"errors"
	"testing"
)

func TestNewCallbacksInert(t *testing.T) {
	cbs := NewCallbacks(NewOptions())

	if cbs.Progress == nil || cbs.Notify == nil {
		t.Fatal("Callback table entries must be non-nil")
	}

	// An inert table tolerates unconditional invocation.
	cbs.Progress("a.txt", 1, 2)
	if err := cbs.Notify(NotifyConflict, "a.txt"); err != nil {
		t.Errorf("Inert notify returned error: %v", err)
	}
}

func TestNotifyFilteredByMask(t *testing.T) {
	var got []NotifyFlags

	opts := NewOptions()
	opts.NotifyFlags = NotifyConflict | NotifyUpdated
	opts.OnNotify = func(why NotifyFlags, path string) error {
		got = append(got, why)
		return nil
	}

	cbs := NewCallbacks(opts)
	for _, why := range []NotifyFlags{NotifyConflict, NotifyDirty, NotifyUpdated, NotifyUntracked, NotifyIgnored} {
		if err := cbs.Notify(why, "f.txt"); err != nil {
			t.Fatalf("Notify failed: %v", err)
		}
	}

	if len(got) != 2 || got[0] != NotifyConflict || got[1] != NotifyUpdated {
		t.Errorf("Expected [conflict updated], got %v", got)
	}
}

func TestNotifyAllMask(t *testing.T) {
	count := 0

	opts := NewOptions()
	opts.NotifyFlags = NotifyAll
	opts.OnNotify = func(NotifyFlags, string) error {
		count++
		return nil
	}

	cbs := NewCallbacks(opts)
	cbs.Notify(NotifyConflict, "a")
	cbs.Notify(NotifyDirty, "b")
	cbs.Notify(NotifyIgnored, "c")

	if count != 3 {
		t.Errorf("Expected 3 notifications, got %d", count)
	}
}

func TestNotifyErrorPropagates(t *testing.T) {
	wantErr := errors.New("stop")

	opts := NewOptions()
	opts.NotifyFlags = NotifyConflict
	opts.OnNotify = func(NotifyFlags, string) error { return wantErr }

	cbs := NewCallbacks(opts)
	if err := cbs.Notify(NotifyConflict, "f"); !errors.Is(err, wantErr) {
		t.Errorf("Expected user error, got %v", err)
	}
	// Filtered-out classes never reach the user callback.
	if err := cbs.Notify(NotifyDirty, "f"); err != nil {
		t.Errorf("Filtered notification returned error: %v", err)
	}
}

func TestProgressPassthrough(t *testing.T) {
	var paths []string

	opts := NewOptions()
	opts.OnProgress = func(path string, completed, total int) {
		paths = append(paths, path)
	}

	cbs := NewCallbacks(opts)
	cbs.Progress("x.txt", 1, 2)
	cbs.Progress("y.txt", 2, 2)

	if len(paths) != 2 || paths[0] != "x.txt" || paths[1] != "y.txt" {
		t.Errorf("Expected [x.txt y.txt], got %v", paths)
	}
}
