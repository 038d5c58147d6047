// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"

	"devshell-cli/pkg/envfile"
)

var (
	// ErrNotFound is the sentinel error wrapped by NotFoundError.
	ErrNotFound = errors.New("environment not found")
	// ErrDuplicateEnvironment is the sentinel error wrapped by DuplicateError.
	ErrDuplicateEnvironment = errors.New("duplicate environment")
)

type (
	// Registry is an immutable mapping from environment names to their
	// definitions. Build it with New; the zero value is an empty registry.
	Registry struct {
		byName map[envfile.EnvironmentName]*entry
		order  []envfile.EnvironmentName
	}

	entry struct {
		env    envfile.Environment
		source string // envfile path the environment was declared in
	}

	// NotFoundError is returned by Lookup when no environment is registered
	// under the requested name. It wraps ErrNotFound for errors.Is().
	NotFoundError struct {
		Requested envfile.EnvironmentName
	}

	// DuplicateError is returned by New when two envfiles declare the same
	// environment name. It wraps ErrDuplicateEnvironment for errors.Is().
	DuplicateError struct {
		Name        envfile.EnvironmentName
		FirstSource string
		OtherSource string
	}
)

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown env: '%s'", e.Requested)
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Error implements the error interface for DuplicateError.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("environment %q declared in both %s and %s", e.Name, e.FirstSource, e.OtherSource)
}

// Unwrap returns ErrDuplicateEnvironment for errors.Is() compatibility.
func (e *DuplicateError) Unwrap() error { return ErrDuplicateEnvironment }

// New builds a registry from the given envfiles. Environments keep the
// order in which they were declared, files first to last. The same name
// declared in two files is an error; within a single file duplicates are
// already rejected by Envfile.Validate.
func New(files ...*envfile.Envfile) (*Registry, error) {
	r := &Registry{byName: make(map[envfile.EnvironmentName]*entry)}

	for _, f := range files {
		if f == nil {
			continue
		}
		for i := range f.Environments {
			env := f.Environments[i]
			if prev, exists := r.byName[env.Name]; exists {
				return nil, &DuplicateError{
					Name:        env.Name,
					FirstSource: prev.source,
					OtherSource: string(f.FilePath),
				}
			}
			r.byName[env.Name] = &entry{env: env, source: string(f.FilePath)}
			r.order = append(r.order, env.Name)
		}
	}

	return r, nil
}

// Lookup returns the environment registered under name. The match is exact
// and case-sensitive; there is no normalization, trimming, or fuzzy
// matching. A miss returns *NotFoundError.
func (r *Registry) Lookup(name envfile.EnvironmentName) (*envfile.Environment, error) {
	if r == nil || r.byName == nil {
		return nil, &NotFoundError{Requested: name}
	}
	e, ok := r.byName[name]
	if !ok {
		return nil, &NotFoundError{Requested: name}
	}
	env := e.env
	return &env, nil
}

// Source returns the envfile path the named environment was declared in,
// or "" when the name is not registered.
func (r *Registry) Source(name envfile.EnvironmentName) string {
	if r == nil || r.byName == nil {
		return ""
	}
	if e, ok := r.byName[name]; ok {
		return e.source
	}
	return ""
}

// Names returns every registered name in declaration order. The result is
// a fresh slice; callers may mutate it freely.
func (r *Registry) Names() []envfile.EnvironmentName {
	if r == nil {
		return nil
	}
	out := make([]envfile.EnvironmentName, len(r.order))
	copy(out, r.order)
	return out
}

// Environments returns every registered environment in declaration order.
func (r *Registry) Environments() []envfile.Environment {
	if r == nil {
		return nil
	}
	out := make([]envfile.Environment, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].env)
	}
	return out
}

// Len returns the number of registered environments.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
