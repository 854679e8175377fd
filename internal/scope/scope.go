// Package scope defines the search scope-filter capability. Project and
// topic layers resolve their own grouping concepts into a flat set of
// qualifying identifiers; the search components only ever see the set.
package scope

import "github.com/starford/ansuz/internal/apperr"

// Set holds the identifiers (full_ids or doc_ids) that qualify for a
// scoped search. A nil Set means unscoped.
type Set map[string]struct{}

// NewSet builds a Set from identifiers.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports membership. A nil Set contains everything.
func (s Set) Contains(id string) bool {
	if s == nil {
		return true
	}
	_, ok := s[id]
	return ok
}

// IDs returns the members in unspecified order.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Resolver maps a scope name to its member set. Implementations live in
// the project/topic layers.
type Resolver interface {
	// Resolve returns the set for name, or *apperr.ScopeNotFoundError if
	// no such scope is registered.
	Resolve(name string) (Set, error)
}

// MapResolver is a Resolver backed by a static map, used in tests and by
// callers with a fixed scope registry.
type MapResolver map[string]Set

// Resolve implements Resolver.
func (m MapResolver) Resolve(name string) (Set, error) {
	set, ok := m[name]
	if !ok {
		return nil, &apperr.ScopeNotFoundError{Name: name}
	}
	return set, nil
}
