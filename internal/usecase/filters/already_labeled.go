package filters

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/fcdex/internal/domain/fc"
)

// AlreadyLabeled rejects candidates that a stored label already connects to
// the query, regardless of the label's value. This is the default filter:
// results a human has already judged are noise in an active search loop.
func AlreadyLabeled(labels LabelReader) Initializer {
	return func(ctx context.Context, queryID string) (Predicate, error) {
		labs, err := labels.DirectlyConnected(ctx, queryID)
		if err != nil {
			return nil, fmt.Errorf("labels for %s: %w", queryID, err)
		}

		seen := make(map[string]bool, len(labs)+1)
		seen[queryID] = true
		for _, lab := range labs {
			if other := lab.Other(queryID); other != "" {
				seen[other] = true
			}
		}

		return PredicateFunc(func(contentID string, _ fc.FeatureCollection) bool {
			return !seen[contentID]
		}), nil
	}
}
