package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
)

// RemoteInfo is the immutable snapshot extracted from a live remote handle.
// Later configuration changes are invisible to an already-extracted snapshot.
type RemoteInfo struct {
	Name          string
	URLs          []string
	FetchRefSpecs []string
}

// DefaultFetchRefSpec returns the conventional fetch refspec for a remote.
func DefaultFetchRefSpec(name string) string {
	return fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", name)
}

// LookupRemote acquires a handle for the named remote. With required false a
// missing remote yields an absent guard, not an error; with required true it
// fails with ErrResourceUnavailable.
func (e *GitEngine) LookupRemote(name string, required bool) (*Guard, error) {
	r, err := e.repo.Remote(name)
	if errors.Is(err, git.ErrRemoteNotFound) {
		if required {
			return nil, fmt.Errorf("remote %q: %w", name, ErrResourceUnavailable)
		}
		return &Guard{}, nil
	}
	if err != nil {
		return nil, &OperationError{Op: "remote lookup", Err: err}
	}
	return e.putRemote(r), nil
}

// ListRemoteNames returns the names of all configured remotes in
// lexicographic order. One enumeration call; no handles are acquired.
func (e *GitEngine) ListRemoteNames() ([]string, error) {
	cfg, err := e.repo.Config()
	if err != nil {
		return nil, &OperationError{Op: "remote list", Err: err}
	}

	names := make([]string, 0, len(cfg.Remotes))
	for name := range cfg.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateRemote creates a remote in persisted configuration and acquires a
// handle for it. With no refspecs the default fetch refspec is used.
func (e *GitEngine) CreateRemote(name, url string, fetchRefSpecs ...string) (*Guard, error) {
	if len(fetchRefSpecs) == 0 {
		fetchRefSpecs = []string{DefaultFetchRefSpec(name)}
	}

	specs := make([]config.RefSpec, len(fetchRefSpecs))
	for i, s := range fetchRefSpecs {
		specs[i] = config.RefSpec(s)
		if err := specs[i].Validate(); err != nil {
			return nil, &OperationError{Op: "remote create", Err: err}
		}
	}

	r, err := e.repo.CreateRemote(&config.RemoteConfig{
		Name:  name,
		URLs:  []string{url},
		Fetch: specs,
	})
	if err != nil {
		return nil, &OperationError{Op: "remote create", Err: err}
	}
	return e.putRemote(r), nil
}

// RemoteInfo extracts a snapshot from a live handle.
func (e *GitEngine) RemoteInfo(h RemoteHandle) (RemoteInfo, error) {
	r, err := e.remoteAt(h)
	if err != nil {
		return RemoteInfo{}, err
	}

	cfg := r.Config()
	info := RemoteInfo{
		Name: cfg.Name,
		URLs: append([]string(nil), cfg.URLs...),
	}
	for _, spec := range cfg.Fetch {
		info.FetchRefSpecs = append(info.FetchRefSpecs, string(spec))
	}
	return info, nil
}

// RemoveRemote deletes the named remote from persisted configuration.
func (e *GitEngine) RemoveRemote(name string) error {
	if err := e.repo.DeleteRemote(name); err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return fmt.Errorf("remote %q: %w", name, ErrResourceUnavailable)
		}
		return &OperationError{Op: "remote remove", Err: err}
	}
	return nil
}

// mutateRemote rewrites one remote's persisted configuration. Every call is
// one immediate config write; there is no batching.
func (e *GitEngine) mutateRemote(name string, mutate func(*config.RemoteConfig) error) error {
	cfg, err := e.repo.Config()
	if err != nil {
		return &OperationError{Op: "remote update", Err: err}
	}

	rc, ok := cfg.Remotes[name]
	if !ok {
		return fmt.Errorf("remote %q: %w", name, ErrResourceUnavailable)
	}

	if err := mutate(rc); err != nil {
		return err
	}
	if err := rc.Validate(); err != nil {
		return &OperationError{Op: "remote update", Err: err}
	}

	if err := e.repo.SetConfig(cfg); err != nil {
		return &OperationError{Op: "remote update", Err: err}
	}
	return nil
}

// SetRemoteURLs replaces the remote's URL list.
func (e *GitEngine) SetRemoteURLs(name string, urls []string) error {
	return e.mutateRemote(name, func(rc *config.RemoteConfig) error {
		rc.URLs = append([]string(nil), urls...)
		return nil
	})
}

// AddRemoteURL appends one URL to the remote.
func (e *GitEngine) AddRemoteURL(name, url string) error {
	return e.mutateRemote(name, func(rc *config.RemoteConfig) error {
		rc.URLs = append(rc.URLs, url)
		return nil
	})
}

// SetRemoteFetchRefSpecs replaces the remote's fetch refspecs.
func (e *GitEngine) SetRemoteFetchRefSpecs(name string, refSpecs []string) error {
	return e.mutateRemote(name, func(rc *config.RemoteConfig) error {
		specs := make([]config.RefSpec, len(refSpecs))
		for i, s := range refSpecs {
			specs[i] = config.RefSpec(s)
			if err := specs[i].Validate(); err != nil {
				return &OperationError{Op: "remote update", Err: err}
			}
		}
		rc.Fetch = specs
		return nil
	})
}

// AddRemoteFetchRefSpec appends one fetch refspec to the remote.
func (e *GitEngine) AddRemoteFetchRefSpec(name, refSpec string) error {
	return e.mutateRemote(name, func(rc *config.RemoteConfig) error {
		spec := config.RefSpec(refSpec)
		if err := spec.Validate(); err != nil {
			return &OperationError{Op: "remote update", Err: err}
		}
		rc.Fetch = append(rc.Fetch, spec)
		return nil
	})
}
