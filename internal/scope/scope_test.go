package scope

import (
	"errors"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
)

func TestNilSetContainsEverything(t *testing.T) {
	var s Set
	if !s.Contains("anything") {
		t.Error("nil set must be unscoped")
	}
}

func TestEmptySetContainsNothing(t *testing.T) {
	s := NewSet()
	if s.Contains("anything") {
		t.Error("empty set must match nothing")
	}
}

func TestSetMembership(t *testing.T) {
	s := NewSet("a.md", "b.md")
	if !s.Contains("a.md") || s.Contains("c.md") {
		t.Errorf("membership wrong: %v", s.IDs())
	}
	if len(s.IDs()) != 2 {
		t.Errorf("IDs = %v, want 2 members", s.IDs())
	}
}

func TestMapResolver(t *testing.T) {
	r := MapResolver{"project-x": NewSet("a.md")}

	set, err := r.Resolve("project-x")
	if err != nil {
		t.Fatal(err)
	}
	if !set.Contains("a.md") {
		t.Error("resolved set missing member")
	}

	_, err = r.Resolve("missing")
	var nf *apperr.ScopeNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want ScopeNotFoundError", err)
	}
	if nf.Name != "missing" {
		t.Errorf("Name = %q", nf.Name)
	}
}
