// Package gitkit manages named remote-repository endpoints and merge policy
// on top of go-git.
//
// gitkit binds three layers together: an engine that owns the repository and
// hands out scoped handles, a stateless registry for remote configuration,
// and a merge policy package that translates high-level options into the
// checkout strategy bitmask and callback table the engine consumes.
//
// # Quick Start
//
// Open a repository and manage its remotes:
//
//	eng, _ := engine.NewFileEngine("/path/to/repo", nil)
//	repo := gitkit.Open(eng)
//
//	reg := repo.Remotes()
//	reg.Create("origin", "https://example.com/repo.git")
//	for remote, err := range reg.All() {
//	    ...
//	}
//
// Merge with policy:
//
//	opts := merge.NewOptions()
//	opts.FastForward = merge.FastForwardOnly
//	result, err := repo.Merge("feature", engine.Identity{Name: "App", Email: "app@example.com"}, opts)
package gitkit
