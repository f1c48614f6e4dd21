package search

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/kailas-cloud/fcdex/internal/domain"
	"github.com/kailas-cloud/fcdex/internal/usecase/filters"
)

// DefaultLimit bounds results when the caller asks for none.
const DefaultLimit = 100

// IndexScan walks every stored content id in key order and returns the
// first admitted candidates. It is the exhaustive baseline engine: slow on
// large stores but guaranteed to find whatever the filters would admit.
type IndexScan struct {
	fcs FCReader
}

// NewIndexScan creates the exhaustive scan engine.
func NewIndexScan(fcs FCReader) *IndexScan {
	return &IndexScan{fcs: fcs}
}

var _ Engine = (*IndexScan)(nil)

// Recommend scans ids in storage order until opts.Limit admitted candidates
// are collected. The query id must exist; candidates deleted between the
// scan and the read are skipped.
func (e *IndexScan) Recommend(ctx context.Context, queryID string, admit filters.Predicate, opts Options) ([]Result, error) {
	if _, err := e.fcs.Get(ctx, queryID); err != nil {
		return nil, fmt.Errorf("query %s: %w", queryID, err)
	}
	ids, err := e.fcs.ScanIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan ids: %w", err)
	}
	return collect(ctx, e.fcs, ids, queryID, admit, limitOrDefault(opts.Limit))
}

// Random returns admitted candidates drawn in a uniformly shuffled order.
// Useful for seeding annotation work without positional bias.
type Random struct {
	fcs FCReader
	rng *rand.Rand
}

// NewRandom creates the shuffled-order engine. rng may be nil, in which
// case the shared global source is used.
func NewRandom(fcs FCReader, rng *rand.Rand) *Random {
	return &Random{fcs: fcs, rng: rng}
}

var _ Engine = (*Random)(nil)

// Recommend shuffles all stored ids, then collects admitted candidates
// until opts.Limit. Drawing is without replacement.
func (e *Random) Recommend(ctx context.Context, queryID string, admit filters.Predicate, opts Options) ([]Result, error) {
	if _, err := e.fcs.Get(ctx, queryID); err != nil {
		return nil, fmt.Errorf("query %s: %w", queryID, err)
	}
	ids, err := e.fcs.ScanIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan ids: %w", err)
	}
	e.shuffle(ids)
	return collect(ctx, e.fcs, ids, queryID, admit, limitOrDefault(opts.Limit))
}

func (e *Random) shuffle(ids []string) {
	swap := func(i, j int) { ids[i], ids[j] = ids[j], ids[i] }
	if e.rng != nil {
		e.rng.Shuffle(len(ids), swap)
		return
	}
	rand.Shuffle(len(ids), swap)
}

// collect walks ids in the given order and keeps candidates the predicate
// admits, stopping at limit. Filtering happens before counting, so a run of
// rejected candidates never starves the result set.
func collect(ctx context.Context, fcs FCReader, ids []string, queryID string, admit filters.Predicate, limit int) ([]Result, error) {
	results := make([]Result, 0, limit)
	for _, id := range ids {
		if id == queryID {
			continue
		}
		cand, err := fcs.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("candidate %s: %w", id, err)
		}
		if !admit.Admit(id, cand) {
			continue
		}
		results = append(results, Result{ContentID: id, FC: cand})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
