package filters

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/fcdex/internal/domain"
	"github.com/kailas-cloud/fcdex/internal/domain/fc"
)

// DefaultFilter is applied when the caller names no filters.
const DefaultFilter = "already_labeled"

// Compose resolves the named filters in reg, initializes each for queryID,
// and returns their conjunction: a candidate is admitted only when every
// named predicate admits it. Zero names fall back to DefaultFilter. An
// unknown name yields domain.ErrUnknownFilter.
func Compose(ctx context.Context, names []string, reg Registry, queryID string) (Predicate, error) {
	if len(names) == 0 {
		names = []string{DefaultFilter}
	}

	preds := make([]Predicate, 0, len(names))
	for _, name := range names {
		init, ok := reg[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFilter, name)
		}
		pred, err := init(ctx, queryID)
		if err != nil {
			return nil, fmt.Errorf("init filter %q: %w", name, err)
		}
		preds = append(preds, pred)
	}

	if len(preds) == 1 {
		return preds[0], nil
	}
	return conjunction(preds), nil
}

// conjunction short-circuits on the first rejecting predicate, so later
// stateful predicates never observe candidates an earlier one rejected.
type conjunction []Predicate

func (c conjunction) Admit(contentID string, cand fc.FeatureCollection) bool {
	for _, p := range c {
		if !p.Admit(contentID, cand) {
			return false
		}
	}
	return true
}
