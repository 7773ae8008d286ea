package remotes

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/go-git/go-git/v6/plumbing"

	"github.com/someoneigna/gitkit/engine"
)

var (
	// ErrInvalidArgument reports an empty name or url at create time.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound reports a required lookup for a remote that is not
	// configured.
	ErrNotFound = errors.New("remote not found")
)

// Remote is an immutable snapshot of one configured remote, materialized at
// lookup or creation time. Later configuration changes are invisible until
// re-queried.
type Remote struct {
	Name          string
	URL           string
	URLs          []string
	FetchRefSpecs []string
}

// Registry is the accessor for named remotes. It owns no remotes and holds no
// cache; staleness is impossible, and so is atomicity across multiple calls.
type Registry struct {
	eng *engine.GitEngine
}

// NewRegistry returns a registry over the given engine.
func NewRegistry(eng *engine.GitEngine) *Registry {
	return &Registry{eng: eng}
}

// Lookup returns the named remote, or (nil, nil) when it is not configured.
func (r *Registry) Lookup(name string) (*Remote, error) {
	g, err := r.eng.LookupRemote(name, false)
	if err != nil {
		return nil, err
	}
	defer g.Release()

	if !g.Valid() {
		return nil, nil
	}
	return r.snapshot(g)
}

// Get returns the named remote or fails with ErrNotFound.
func (r *Registry) Get(name string) (*Remote, error) {
	g, err := r.eng.LookupRemote(name, true)
	if err != nil {
		if errors.Is(err, engine.ErrResourceUnavailable) {
			return nil, fmt.Errorf("remote %q: %w", name, ErrNotFound)
		}
		return nil, err
	}
	defer g.Release()

	return r.snapshot(g)
}

// All returns a lazy iterator over all configured remotes. The names are
// listed once when iteration starts, then each remote is looked up on demand,
// so the sequence is not a consistent snapshot: a remote removed or renamed
// mid-iteration is silently skipped. Re-ranging restarts the enumeration.
func (r *Registry) All() iter.Seq2[Remote, error] {
	return func(yield func(Remote, error) bool) {
		names, err := r.eng.ListRemoteNames()
		if err != nil {
			yield(Remote{}, err)
			return
		}

		for _, name := range names {
			rem, err := r.Lookup(name)
			if err != nil {
				if !yield(Remote{}, err) {
					return
				}
				continue
			}
			if rem == nil {
				continue
			}
			if !yield(*rem, nil) {
				return
			}
		}
	}
}

// Create adds a remote with the given name and url. With no refspecs the
// default fetch refspec "+refs/heads/*:refs/remotes/<name>/*" is used.
// Arguments are validated before any native call.
func (r *Registry) Create(name, url string, fetchRefSpecs ...string) (*Remote, error) {
	if name == "" {
		return nil, fmt.Errorf("remote name must be non-empty: %w", ErrInvalidArgument)
	}
	if url == "" {
		return nil, fmt.Errorf("remote url must be non-empty: %w", ErrInvalidArgument)
	}

	g, err := r.eng.CreateRemote(name, url, fetchRefSpecs...)
	if err != nil {
		return nil, err
	}
	defer g.Release()

	return r.snapshot(g)
}

// Remove deletes the named remote from persisted configuration.
func (r *Registry) Remove(name string) error {
	if name == "" {
		return fmt.Errorf("remote name must be non-empty: %w", ErrInvalidArgument)
	}
	return r.eng.RemoveRemote(name)
}

// Update applies the actions to the remote's persisted configuration strictly
// in order, then re-resolves and returns the refreshed remote. Each action
// writes through immediately; if one fails, the earlier writes stay applied.
// There is no rollback.
func (r *Registry) Update(remote Remote, actions ...UpdateAction) (*Remote, error) {
	u := &Updater{eng: r.eng, name: remote.Name}
	for _, action := range actions {
		if err := action(u); err != nil {
			return nil, err
		}
	}
	return r.Get(remote.Name)
}

// IsValidName reports whether name is syntactically usable as a remote name.
// Purely syntactic: no configuration is consulted.
func (r *Registry) IsValidName(name string) bool {
	return IsValidName(name)
}

// IsValidName reports whether name can name a remote: it must be non-empty,
// contain no slash, and form a valid remote-tracking reference.
func IsValidName(name string) bool {
	if name == "" || strings.Contains(name, "/") {
		return false
	}
	ref := plumbing.ReferenceName("refs/remotes/" + name + "/heads")
	return ref.Validate() == nil
}

func (r *Registry) snapshot(g *engine.Guard) (*Remote, error) {
	info, err := r.eng.RemoteInfo(g.Handle())
	if err != nil {
		return nil, err
	}

	rem := &Remote{
		Name:          info.Name,
		URLs:          info.URLs,
		FetchRefSpecs: info.FetchRefSpecs,
	}
	if len(info.URLs) > 0 {
		rem.URL = info.URLs[0]
	}
	return rem, nil
}
