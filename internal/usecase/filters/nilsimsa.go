package filters

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/fcdex/internal/domain"
	"github.com/kailas-cloud/fcdex/internal/domain/fc"
	"github.com/kailas-cloud/fcdex/internal/domain/label"
	"github.com/kailas-cloud/fcdex/internal/nilsimsa"
)

// DefaultNilsimsaThreshold is tuned for documents of a few kilobytes.
// Shorter documents produce noisier digests and need a lower threshold to
// detect the same logical duplication.
const DefaultNilsimsaThreshold = 119

// NearDuplicate rejects candidates whose nilsimsa fingerprints score at or
// above threshold against the query or against any previously admitted
// candidate. Fingerprints are read from the reserved fc.NilsimsaFeature
// multiset (one document may carry several per-chunk digests). Candidates
// the label store already connects to the query by a positive or negative
// judgment are rejected outright: ground truth overrides similarity.
//
// Comparison cost grows with the accumulated set, O(candidates x admitted
// digests); accumulated sets stay small in practice because near duplicates
// are rare, but callers needing hard throughput bounds should cap the limit.
//
// rejected counts discarded candidates; pass nil to skip metrics.
func NearDuplicate(fcs FCReader, labels LabelReader, threshold int, rejected prometheus.Counter) Initializer {
	return func(ctx context.Context, queryID string) (Predicate, error) {
		nd := &nearDuplicate{
			threshold: threshold,
			excluded:  make(map[string]bool),
			rejected:  rejected,
		}

		queryFC, err := fcs.Get(ctx, queryID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("query fc %s: %w", queryID, err)
		}
		nd.seen = parseDigests(queryFC)
		if len(nd.seen) == 0 {
			// No fingerprint on the query: admit everything rather than
			// silently dropping all results over missing metadata.
			nd.admitAll = true
			return nd, nil
		}

		labs, err := labels.DirectlyConnected(ctx, queryID)
		if err != nil {
			return nil, fmt.Errorf("labels for %s: %w", queryID, err)
		}
		for _, lab := range labs {
			if lab.Value == label.Unknown {
				continue
			}
			if other := lab.Other(queryID); other != "" {
				nd.excluded[other] = true
			}
		}
		return nd, nil
	}
}

// nearDuplicate owns the per-query accumulator: the digests of the query
// plus every candidate admitted so far. Rejected candidates are never
// accumulated, so they cannot poison later decisions.
type nearDuplicate struct {
	threshold int
	seen      []nilsimsa.Digest
	excluded  map[string]bool
	admitAll  bool
	rejected  prometheus.Counter
}

var _ Predicate = (*nearDuplicate)(nil)

func (nd *nearDuplicate) Admit(contentID string, cand fc.FeatureCollection) bool {
	if nd.admitAll {
		return true
	}
	if nd.excluded[contentID] {
		nd.reject()
		return false
	}

	digests := parseDigests(cand)
	if len(digests) == 0 {
		// Fail open on candidates without fingerprints.
		return true
	}

	for _, have := range nd.seen {
		for _, d := range digests {
			if nilsimsa.Score(have, d) >= nd.threshold {
				nd.reject()
				return false
			}
		}
	}

	nd.seen = append(nd.seen, digests...)
	return true
}

func (nd *nearDuplicate) reject() {
	if nd.rejected != nil {
		nd.rejected.Inc()
	}
}

// parseDigests extracts the nilsimsa digests of a feature collection.
// Malformed digest strings are skipped; the filter fails open rather than
// failing the whole query over one bad fingerprint.
func parseDigests(f fc.FeatureCollection) []nilsimsa.Digest {
	counter := f.Counter(fc.NilsimsaFeature)
	if len(counter) == 0 {
		return nil
	}
	digests := make([]nilsimsa.Digest, 0, len(counter))
	for _, hexDigest := range counter.Keys() {
		d, err := nilsimsa.FromHex(hexDigest)
		if err != nil {
			continue
		}
		digests = append(digests, d)
	}
	return digests
}
