// Package fcs exposes feature collection storage: reads, writes with
// optional fingerprinting, and uniform random draws.
package fcs

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/kailas-cloud/fcdex/internal/domain"
	"github.com/kailas-cloud/fcdex/internal/domain/fc"
	"github.com/kailas-cloud/fcdex/internal/nilsimsa"
	"github.com/kailas-cloud/fcdex/internal/usecase/search"
)

// Store is the repository view the service needs.
type Store interface {
	Get(ctx context.Context, contentID string) (fc.FeatureCollection, error)
	Put(ctx context.Context, contentID string, f fc.FeatureCollection) error
	ScanIDs(ctx context.Context) ([]string, error)
}

// Service reads and writes feature collections.
type Service struct {
	store        Store
	randomCutoff int
	rng          *rand.Rand
}

// New creates a feature collection service.
func New(store Store) *Service {
	return &Service{store: store}
}

// WithRandomCutoff bounds how many ids a random draw scans. Zero means
// unbounded; on stores beyond the cutoff the draw is uniform over the
// scanned prefix.
func (s *Service) WithRandomCutoff(n int) *Service {
	s.randomCutoff = n
	return s
}

// Get returns the stored feature collection for contentID, or
// domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, contentID string) (fc.FeatureCollection, error) {
	return s.store.Get(ctx, contentID)
}

// Put stores f under contentID, overwriting any previous version. When
// fingerprint is set, each scalar feature value is hashed and the digests
// are written to the reserved fc.NilsimsaFeature multiset, replacing
// whatever fingerprint the client sent.
func (s *Service) Put(ctx context.Context, contentID string, f fc.FeatureCollection, fingerprint bool) error {
	if fingerprint {
		addFingerprint(f)
	}
	if err := s.store.Put(ctx, contentID, f); err != nil {
		return err
	}
	return nil
}

// Random draws one stored feature collection uniformly at random. Returns
// domain.ErrStoreEmpty when nothing is stored.
func (s *Service) Random(ctx context.Context) (string, fc.FeatureCollection, error) {
	ids, err := s.store.ScanIDs(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("scan ids: %w", err)
	}

	seq := func(yield func(string) bool) {
		for _, id := range ids {
			if !yield(id) {
				return
			}
		}
	}
	sample := search.ReservoirSample(s.rng, seq, 1, s.randomCutoff)
	if len(sample) == 0 {
		return "", nil, domain.ErrStoreEmpty
	}

	contentID := sample[0]
	f, err := s.store.Get(ctx, contentID)
	if err != nil {
		return "", nil, fmt.Errorf("random fc %s: %w", contentID, err)
	}
	return contentID, f, nil
}

func addFingerprint(f fc.FeatureCollection) {
	digests := fc.StringCounter{}
	for _, name := range f.Names() {
		if name == fc.NilsimsaFeature {
			continue
		}
		feat := f[name]
		if feat.IsCounter() {
			continue
		}
		if s := feat.Scalar(); s != "" {
			digests[nilsimsa.HashString(s).Hex()]++
		}
	}
	if len(digests) > 0 {
		f[fc.NilsimsaFeature] = fc.NewCounter(digests)
	}
}
