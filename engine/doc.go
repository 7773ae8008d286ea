// Package engine is the go-git backed engine behind gitkit.
//
// The engine owns the repository and hands out opaque RemoteHandle values
// through a handle table. Handles follow a strict scope discipline: every
// acquisition returns a Guard that releases the handle exactly once, and the
// raw handle never outlives the call that acquired it.
//
// An engine is not safe for concurrent use. Callers serialize access to one
// engine; the package does no internal locking.
//
// Constructors mirror the storage choices of go-git:
//
//	eng, err := engine.NewMemoryEngine()
//	eng, err := engine.NewFileEngine("/path/to/repo", nil)
package engine
