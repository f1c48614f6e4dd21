package filters

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/fcdex/internal/domain"
	"github.com/kailas-cloud/fcdex/internal/domain/fc"
)

func admitOnly(ids ...string) Initializer {
	ok := make(map[string]bool, len(ids))
	for _, id := range ids {
		ok[id] = true
	}
	return func(context.Context, string) (Predicate, error) {
		return PredicateFunc(func(contentID string, _ fc.FeatureCollection) bool {
			return ok[contentID]
		}), nil
	}
}

func TestComposeUnknownFilter(t *testing.T) {
	reg := Registry{"known": admitOnly("a")}
	_, err := Compose(context.Background(), []string{"known", "nope"}, reg, "q")
	if !errors.Is(err, domain.ErrUnknownFilter) {
		t.Fatalf("err = %v, want ErrUnknownFilter", err)
	}
}

func TestComposeDefaultsToAlreadyLabeled(t *testing.T) {
	var initialized bool
	reg := Registry{DefaultFilter: func(context.Context, string) (Predicate, error) {
		initialized = true
		return PredicateFunc(func(string, fc.FeatureCollection) bool { return true }), nil
	}}

	pred, err := Compose(context.Background(), nil, reg, "q")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !initialized {
		t.Fatal("default filter was not initialized")
	}
	if !pred.Admit("x", nil) {
		t.Fatal("default predicate rejected")
	}
}

func TestComposeConjunction(t *testing.T) {
	var secondSaw []string
	reg := Registry{
		"first": admitOnly("a", "b"),
		"second": func(context.Context, string) (Predicate, error) {
			return PredicateFunc(func(contentID string, _ fc.FeatureCollection) bool {
				secondSaw = append(secondSaw, contentID)
				return contentID != "b"
			}), nil
		},
	}

	pred, err := Compose(context.Background(), []string{"first", "second"}, reg, "q")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	got := map[string]bool{}
	for _, id := range []string{"a", "b", "c"} {
		got[id] = pred.Admit(id, nil)
	}
	if !got["a"] || got["b"] || got["c"] {
		t.Fatalf("admissions = %v, want only a", got)
	}
	// c was rejected by the first predicate, so the second must not have
	// observed it.
	for _, id := range secondSaw {
		if id == "c" {
			t.Fatal("second predicate observed a candidate the first rejected")
		}
	}
}

func TestComposeInitError(t *testing.T) {
	boom := errors.New("store down")
	reg := Registry{"broken": func(context.Context, string) (Predicate, error) {
		return nil, boom
	}}
	_, err := Compose(context.Background(), []string{"broken"}, reg, "q")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped init error", err)
	}
}

func TestRegistryNames(t *testing.T) {
	reg := Registry{"b": admitOnly(), "a": admitOnly()}
	names := reg.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v, want [a b]", names)
	}
}
