// Package search runs pluggable recommendation engines over the feature
// collection store. An engine proposes candidates for a query content id in
// its own order; the composed filter predicate decides which of them count
// toward the caller's limit.
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/fcdex/internal/domain"
	"github.com/kailas-cloud/fcdex/internal/domain/fc"
	"github.com/kailas-cloud/fcdex/internal/usecase/filters"
)

// FCReader is the feature collection store view engines need.
type FCReader interface {
	Get(ctx context.Context, contentID string) (fc.FeatureCollection, error)
	ScanIDs(ctx context.Context) ([]string, error)
}

// Result is one recommended content id with its feature collection and
// optional engine-specific metadata (scores, provenance).
type Result struct {
	ContentID string
	FC        fc.FeatureCollection
	Info      map[string]string
}

// Options carries per-request engine tuning. Params holds extra query
// parameters the transport passed through verbatim; engines ignore keys
// they do not understand.
type Options struct {
	Limit  int
	Params map[string]string
}

// Engine proposes candidates for a query. Implementations must call admit
// on every candidate before counting it toward opts.Limit, and must never
// return the query id itself.
type Engine interface {
	Recommend(ctx context.Context, queryID string, admit filters.Predicate, opts Options) ([]Result, error)
}

// Factory builds a fresh engine instance per request.
type Factory func() Engine

// Registry maps engine names to factories.
type Registry map[string]Factory

// New instantiates the named engine. Unknown names yield
// domain.ErrUnknownEngine.
func (r Registry) New(name string) (Engine, error) {
	factory, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEngine, name)
	}
	return factory(), nil
}

// Names returns the registered engine names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
