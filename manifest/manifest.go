// Package manifest provisions remotes in bulk from a declarative document.
//
// A manifest is a YAML document listing remotes to configure:
//
//	remotes:
//	  - name: origin
//	    url: https://example.com/repo.git
//	  - name: mirror
//	    url: https://mirror.example.com/repo.git
//	    fetch:
//	      - "+refs/heads/main:refs/remotes/mirror/main"
//
// Manifests load from a local path, a file://, http(s):// or s3:// URL.
package manifest

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/someoneigna/gitkit/remotes"
)

// Entry declares one remote to provision.
type Entry struct {
	Name          string   `yaml:"name"`
	URL           string   `yaml:"url"`
	FetchRefSpecs []string `yaml:"fetch,omitempty"`
}

// Manifest is a parsed remote-provisioning document.
type Manifest struct {
	Remotes []Entry `yaml:"remotes"`
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	for i, e := range m.Remotes {
		if e.Name == "" {
			return nil, fmt.Errorf("manifest entry %d: missing name", i)
		}
		if e.URL == "" {
			return nil, fmt.Errorf("manifest entry %q: missing url", e.Name)
		}
		if !remotes.IsValidName(e.Name) {
			return nil, fmt.Errorf("manifest entry %q: invalid remote name", e.Name)
		}
	}
	return &m, nil
}

// Load fetches and parses a manifest from the given URL or path. cfg is only
// consulted for s3:// URLs and may be nil.
func Load(ctx context.Context, url string, cfg *S3Config) (*Manifest, error) {
	rc, err := openReader(ctx, url, cfg)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest from %q: %w", url, err)
	}
	return Parse(data)
}

// Apply provisions every manifest entry: missing remotes are created,
// existing ones have their url and fetch refspecs rewritten. Entries apply
// in order; a failure leaves earlier entries applied.
func Apply(m *Manifest, reg *remotes.Registry) (created, updated int, err error) {
	for _, e := range m.Remotes {
		existing, err := reg.Lookup(e.Name)
		if err != nil {
			return created, updated, err
		}

		if existing == nil {
			if _, err := reg.Create(e.Name, e.URL, e.FetchRefSpecs...); err != nil {
				return created, updated, err
			}
			created++
			continue
		}

		actions := []remotes.UpdateAction{remotes.SetURL(e.URL)}
		if len(e.FetchRefSpecs) > 0 {
			actions = append(actions, remotes.SetFetchRefSpecs(e.FetchRefSpecs...))
		}
		if _, err := reg.Update(*existing, actions...); err != nil {
			return created, updated, err
		}
		updated++
	}
	return created, updated, nil
}
