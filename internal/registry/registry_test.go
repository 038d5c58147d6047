// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"testing"

	"devshell-cli/pkg/envfile"
	"devshell-cli/pkg/types"
)

func testEnvfile(path string, names ...string) *envfile.Envfile {
	f := &envfile.Envfile{FilePath: types.FilesystemPath(path)}
	for _, n := range names {
		f.Environments = append(f.Environments, envfile.Environment{
			Name:     envfile.EnvironmentName(n),
			Packages: []envfile.PackageID{"git"},
		})
	}
	return f
}

func TestLookupExactMatch(t *testing.T) {
	t.Parallel()

	r, err := New(testEnvfile("devshell.cue", "python", "go-dev"))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	env, err := r.Lookup("python")
	if err != nil {
		t.Fatalf("Lookup(python) returned error: %v", err)
	}
	if env.Name != "python" {
		t.Errorf("Lookup(python).Name = %q", env.Name)
	}
}

func TestLookupIsCaseSensitive(t *testing.T) {
	t.Parallel()

	r, err := New(testEnvfile("devshell.cue", "python"))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	for _, name := range []envfile.EnvironmentName{"Python", "PYTHON", " python", "python "} {
		if _, err := r.Lookup(name); !errors.Is(err, ErrNotFound) {
			t.Errorf("Lookup(%q) = %v, want ErrNotFound", name, err)
		}
	}
}

func TestLookupNotFound(t *testing.T) {
	t.Parallel()

	r, err := New(testEnvfile("devshell.cue", "python"))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	_, err = r.Lookup("rust")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Lookup(rust) = %v, want *NotFoundError", err)
	}
	if nf.Requested != "rust" {
		t.Errorf("Requested = %q, want rust", nf.Requested)
	}
	if nf.Error() != "unknown env: 'rust'" {
		t.Errorf("Error() = %q", nf.Error())
	}
}

func TestLookupEmptyName(t *testing.T) {
	t.Parallel()

	r, err := New(testEnvfile("devshell.cue", "python"))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	// An empty name can never be registered, so this is an ordinary miss.
	if _, err := r.Lookup(""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(\"\") = %v, want ErrNotFound", err)
	}
}

func TestNamesDeclarationOrder(t *testing.T) {
	t.Parallel()

	r, err := New(
		testEnvfile("devshell.cue", "zsh-tools", "python"),
		testEnvfile("team/envs.cue", "audit"),
	)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	want := []envfile.EnvironmentName{"zsh-tools", "python", "audit"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNamesReturnsCopy(t *testing.T) {
	t.Parallel()

	r, err := New(testEnvfile("devshell.cue", "a", "b"))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	names := r.Names()
	names[0] = "mutated"
	if r.Names()[0] != "a" {
		t.Error("mutating Names() result leaked into the registry")
	}
}

func TestDuplicateAcrossFiles(t *testing.T) {
	t.Parallel()

	_, err := New(
		testEnvfile("devshell.cue", "python"),
		testEnvfile("team/envs.cue", "python"),
	)
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("New() = %v, want *DuplicateError", err)
	}
	if dup.Name != "python" {
		t.Errorf("Name = %q, want python", dup.Name)
	}
	if dup.FirstSource != "devshell.cue" || dup.OtherSource != "team/envs.cue" {
		t.Errorf("sources = %q, %q", dup.FirstSource, dup.OtherSource)
	}
	if !errors.Is(err, ErrDuplicateEnvironment) {
		t.Error("errors.Is(err, ErrDuplicateEnvironment) = false")
	}
}

func TestSourceTracksDeclaringFile(t *testing.T) {
	t.Parallel()

	r, err := New(
		testEnvfile("devshell.cue", "python"),
		testEnvfile("team/envs.cue", "audit"),
	)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	if got := r.Source("audit"); got != "team/envs.cue" {
		t.Errorf("Source(audit) = %q, want team/envs.cue", got)
	}
	if got := r.Source("missing"); got != "" {
		t.Errorf("Source(missing) = %q, want empty", got)
	}
}

func TestEmptyRegistry(t *testing.T) {
	t.Parallel()

	r, err := New()
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if _, err := r.Lookup("anything"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup on empty registry = %v, want ErrNotFound", err)
	}

	var nilReg *Registry
	if nilReg.Len() != 0 {
		t.Error("nil registry Len() != 0")
	}
	if _, err := nilReg.Lookup("x"); !errors.Is(err, ErrNotFound) {
		t.Error("nil registry Lookup did not return ErrNotFound")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	t.Parallel()

	r, err := New(testEnvfile("devshell.cue", "python"))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	env, err := r.Lookup("python")
	if err != nil {
		t.Fatalf("Lookup() returned error: %v", err)
	}
	env.Description = "mutated"

	again, err := r.Lookup("python")
	if err != nil {
		t.Fatalf("second Lookup() returned error: %v", err)
	}
	if again.Description == "mutated" {
		t.Error("mutating a Lookup() result leaked into the registry")
	}
}
