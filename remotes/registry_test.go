package remotes

import (
	"errors"
	"testing"

	"github.com/someoneigna/gitkit/engine"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	eng, err := engine.NewMemoryEngine()
	if err != nil {
		t.Fatalf("NewMemoryEngine failed: %v", err)
	}
	return NewRegistry(eng)
}

func TestCreateThenLookup(t *testing.T) {
	reg := newTestRegistry(t)

	created, err := reg.Create("origin", "https://example.com/repo.git")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "origin" || created.URL != "https://example.com/repo.git" {
		t.Errorf("Unexpected created remote: %+v", created)
	}

	found, err := reg.Lookup("origin")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if found == nil {
		t.Fatal("Expected remote, got absent")
	}
	if found.Name != "origin" || found.URL != "https://example.com/repo.git" {
		t.Errorf("Unexpected remote: %+v", found)
	}
	if len(found.FetchRefSpecs) != 1 || found.FetchRefSpecs[0] != engine.DefaultFetchRefSpec("origin") {
		t.Errorf("Expected default fetch refspec, got %v", found.FetchRefSpecs)
	}
}

func TestCreateWithExplicitRefSpec(t *testing.T) {
	reg := newTestRegistry(t)

	spec := "+refs/heads/main:refs/remotes/mirror/main"
	created, err := reg.Create("mirror", "https://example.com/m.git", spec)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(created.FetchRefSpecs) != 1 || created.FetchRefSpecs[0] != spec {
		t.Errorf("Expected refspec %q, got %v", spec, created.FetchRefSpecs)
	}
}

func TestLookupAbsentIsNotAnError(t *testing.T) {
	reg := newTestRegistry(t)

	found, err := reg.Lookup("never-created")
	if err != nil {
		t.Fatalf("Lookup must not fail on absence: %v", err)
	}
	if found != nil {
		t.Errorf("Expected absent, got %+v", found)
	}
}

func TestGetAbsentFails(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Get("never-created")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreateValidatesArguments(t *testing.T) {
	reg := newTestRegistry(t)

	if _, err := reg.Create("", "https://x"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Empty name: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := reg.Create("r", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Empty url: expected ErrInvalidArgument, got %v", err)
	}
}

func TestAllEmpty(t *testing.T) {
	reg := newTestRegistry(t)

	count := 0
	for _, err := range reg.All() {
		if err != nil {
			t.Fatalf("All yielded error: %v", err)
		}
		count++
	}
	if count != 0 {
		t.Errorf("Expected empty sequence, got %d entries", count)
	}
}

func TestAllMatchesNameListing(t *testing.T) {
	reg := newTestRegistry(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := reg.Create(name, "https://example.com/"+name+".git"); err != nil {
			t.Fatalf("Create %q failed: %v", name, err)
		}
	}

	var names []string
	for remote, err := range reg.All() {
		if err != nil {
			t.Fatalf("All yielded error: %v", err)
		}
		names = append(names, remote.Name)
	}

	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("Expected %d remotes, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestAllSkipsVanishedEntries(t *testing.T) {
	reg := newTestRegistry(t)

	for _, name := range []string{"alpha", "beta", "gamma"} {
		if _, err := reg.Create(name, "https://example.com/"+name+".git"); err != nil {
			t.Fatalf("Create %q failed: %v", name, err)
		}
	}

	// Remove a later entry mid-iteration; the live view silently skips it.
	var names []string
	for remote, err := range reg.All() {
		if err != nil {
			t.Fatalf("All yielded error: %v", err)
		}
		if remote.Name == "alpha" {
			if err := reg.Remove("gamma"); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
		}
		names = append(names, remote.Name)
	}

	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("Expected [alpha beta], got %v", names)
	}
}

func TestRemove(t *testing.T) {
	reg := newTestRegistry(t)

	if _, err := reg.Create("origin", "https://example.com/repo.git"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := reg.Remove("origin"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	found, err := reg.Lookup("origin")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if found != nil {
		t.Errorf("Expected remote gone, got %+v", found)
	}
}

func TestIsValidName(t *testing.T) {
	reg := newTestRegistry(t)

	valid := []string{"origin", "upstream", "fork-2", "UP_stream"}
	for _, name := range valid {
		if !reg.IsValidName(name) {
			t.Errorf("Expected %q to be a valid remote name", name)
		}
	}

	invalid := []string{"", "a/b", "refs/heads/x"}
	for _, name := range invalid {
		if reg.IsValidName(name) {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	reg := newTestRegistry(t)

	before, err := reg.Create("origin", "https://example.com/old.git")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := reg.Update(*before, SetURL("https://example.com/new.git")); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// The old snapshot still carries the URL it was materialized with.
	if before.URL != "https://example.com/old.git" {
		t.Errorf("Snapshot mutated: %+v", before)
	}

	after, err := reg.Get("origin")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if after.URL != "https://example.com/new.git" {
		t.Errorf("Expected refreshed URL, got %q", after.URL)
	}
}
