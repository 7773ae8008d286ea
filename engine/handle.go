package engine

import (
	"fmt"

	"github.com/go-git/go-git/v6"
)

// RemoteHandle identifies one live remote resource in the engine's handle
// table. Zero is never a valid handle.
type RemoteHandle int

// Guard scopes the ownership of one handle. Release frees the handle exactly
// once; further calls are no-ops. A Guard with no handle (optional lookup
// that found nothing) reports Valid() == false and releases nothing.
type Guard struct {
	h        RemoteHandle
	free     func(RemoteHandle)
	released bool
}

// Valid reports whether the guard holds a handle.
func (g *Guard) Valid() bool {
	return g.h != 0 && !g.released
}

// Handle returns the raw handle. It panics when called after Release: the
// handle must not outlive the scope that acquired the guard.
func (g *Guard) Handle() RemoteHandle {
	if g.released {
		panic("engine: remote handle used after release")
	}
	return g.h
}

// Release frees the underlying handle. Safe to call on every exit path.
func (g *Guard) Release() {
	if g.released {
		return
	}
	g.released = true
	if g.h != 0 && g.free != nil {
		g.free(g.h)
	}
	g.h = 0
}

func (e *GitEngine) putRemote(r *git.Remote) *Guard {
	h := e.next
	e.next++
	e.handles[h] = r
	return &Guard{h: h, free: e.freeRemote}
}

func (e *GitEngine) remoteAt(h RemoteHandle) (*git.Remote, error) {
	r, ok := e.handles[h]
	if !ok {
		return nil, fmt.Errorf("remote handle %d: %w", h, ErrResourceUnavailable)
	}
	return r, nil
}

func (e *GitEngine) freeRemote(h RemoteHandle) {
	delete(e.handles, h)
}

// OpenHandles reports the number of live entries in the handle table.
func (e *GitEngine) OpenHandles() int {
	return len(e.handles)
}
