// Package fcstore persists feature collections keyed by content id.
package fcstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/fcdex/internal/db"
	"github.com/kailas-cloud/fcdex/internal/domain"
	"github.com/kailas-cloud/fcdex/internal/domain/fc"
)

// store is the consumer interface for feature collections (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores feature collections as JSON values under prefixed keys.
type Repo struct {
	store  store
	prefix string
}

// New creates a feature collection repository. keyPrefix namespaces all keys
// (e.g. "fcdex:").
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix + "fc:"}
}

// Get returns the feature collection for a content id.
// Returns domain.ErrNotFound when absent.
func (r *Repo) Get(ctx context.Context, contentID string) (fc.FeatureCollection, error) {
	raw, err := r.store.Get(ctx, r.prefix+contentID)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: feature collection %q", domain.ErrNotFound, contentID)
		}
		return nil, fmt.Errorf("get fc %s: %w", contentID, err)
	}

	var f fc.FeatureCollection
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode fc %s: %w", contentID, err)
	}
	return f, nil
}

// Put stores a feature collection, overwriting any existing one.
func (r *Repo) Put(ctx context.Context, contentID string, f fc.FeatureCollection) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode fc %s: %w", contentID, err)
	}
	if err := r.store.Set(ctx, r.prefix+contentID, data); err != nil {
		return fmt.Errorf("put fc %s: %w", contentID, err)
	}
	return nil
}

// ScanIDs lists all stored content ids in storage (key) order.
func (r *Repo) ScanIDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan fc ids: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, r.prefix))
	}
	return ids, nil
}
