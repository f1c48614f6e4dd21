// Package filters holds the composable candidate predicates a search engine
// consults before counting a result toward its limit. Predicates are built
// per query through a two-level registry: a registered Initializer performs
// one-time setup keyed by the query id (loading the query's own feature
// collection, seeding state from the label store) and returns the Predicate
// that then judges each candidate in stream order.
package filters

import (
	"context"
	"sort"

	"github.com/kailas-cloud/fcdex/internal/domain/fc"
	"github.com/kailas-cloud/fcdex/internal/domain/label"
)

// Predicate decides whether a candidate is admitted into a result stream.
// Implementations may accumulate state across calls within one query and
// must never mutate the stores they read from. A Predicate belongs to a
// single request and is not safe for concurrent use.
type Predicate interface {
	Admit(contentID string, cand fc.FeatureCollection) bool
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc func(contentID string, cand fc.FeatureCollection) bool

// Admit calls f.
func (f PredicateFunc) Admit(contentID string, cand fc.FeatureCollection) bool {
	return f(contentID, cand)
}

// Initializer builds the per-query Predicate for one registered filter.
type Initializer func(ctx context.Context, queryID string) (Predicate, error)

// Registry maps filter names to initializers. It is passed explicitly to
// Compose; there is no global registry.
type Registry map[string]Initializer

// Names returns the registered filter names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FCReader is the feature collection store view filters need.
type FCReader interface {
	Get(ctx context.Context, contentID string) (fc.FeatureCollection, error)
}

// LabelReader is the label store view filters need.
type LabelReader interface {
	DirectlyConnected(ctx context.Context, contentID string) ([]label.Label, error)
}
