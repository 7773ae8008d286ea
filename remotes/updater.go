package remotes

import (
	"fmt"

	"github.com/someoneigna/gitkit/engine"
)

// Updater applies mutations to one remote's persisted configuration. It is
// constructed by Registry.Update and bound to the remote's name; every
// mutation is one immediate configuration write.
type Updater struct {
	eng  *engine.GitEngine
	name string
}

// UpdateAction is one ordered mutation step applied by Registry.Update.
type UpdateAction func(*Updater) error

// SetURL replaces the remote's URL list with the single given url.
func SetURL(url string) UpdateAction {
	return func(u *Updater) error {
		if url == "" {
			return fmt.Errorf("remote url must be non-empty: %w", ErrInvalidArgument)
		}
		return u.eng.SetRemoteURLs(u.name, []string{url})
	}
}

// AddURL appends url to the remote's URL list.
func AddURL(url string) UpdateAction {
	return func(u *Updater) error {
		if url == "" {
			return fmt.Errorf("remote url must be non-empty: %w", ErrInvalidArgument)
		}
		return u.eng.AddRemoteURL(u.name, url)
	}
}

// SetFetchRefSpecs replaces the remote's fetch refspecs.
func SetFetchRefSpecs(refSpecs ...string) UpdateAction {
	return func(u *Updater) error {
		if len(refSpecs) == 0 {
			return fmt.Errorf("at least one refspec required: %w", ErrInvalidArgument)
		}
		return u.eng.SetRemoteFetchRefSpecs(u.name, refSpecs)
	}
}

// AddFetchRefSpec appends one fetch refspec to the remote.
func AddFetchRefSpec(refSpec string) UpdateAction {
	return func(u *Updater) error {
		if refSpec == "" {
			return fmt.Errorf("refspec must be non-empty: %w", ErrInvalidArgument)
		}
		return u.eng.AddRemoteFetchRefSpec(u.name, refSpec)
	}
}
