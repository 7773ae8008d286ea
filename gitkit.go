package gitkit

import (
	"github.com/someoneigna/gitkit/engine"
	"github.com/someoneigna/gitkit/merge"
	"github.com/someoneigna/gitkit/remotes"
)

// Repository is the facade over one engine.
type Repository struct {
	eng *engine.GitEngine
}

// Open wraps an engine.
func Open(eng *engine.GitEngine) *Repository {
	return &Repository{eng: eng}
}

// Engine returns the underlying engine.
func (r *Repository) Engine() *engine.GitEngine {
	return r.eng
}

// Remotes returns a registry over this repository's remotes.
func (r *Repository) Remotes() *remotes.Registry {
	return remotes.NewRegistry(r.eng)
}

// Merge merges the named source branch into HEAD according to opts.
func (r *Repository) Merge(source string, identity engine.Identity, opts merge.Options) (engine.MergeResult, error) {
	return r.eng.Merge(source, identity, opts)
}
