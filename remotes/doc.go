// Package remotes manages named remote-repository endpoints.
//
// Registry is a stateless, live accessor: it caches nothing, every operation
// re-queries the engine's persisted configuration, and every native handle it
// acquires is released before the operation returns. Remote values are
// immutable snapshots with no binding back to live state.
package remotes
