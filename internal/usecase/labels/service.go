// Package labels orchestrates coreference judgments: validation, storage,
// post-store hooks, and the graph traversals the read endpoints expose.
package labels

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fcdex/internal/domain"
	"github.com/kailas-cloud/fcdex/internal/domain/label"
)

// Store is the label repository view the service needs.
type Store interface {
	Put(ctx context.Context, lab label.Label) error
	DirectlyConnected(ctx context.Context, cid string) ([]label.Label, error)
	ConnectedComponent(ctx context.Context, cid string) ([]label.Label, error)
	Expand(ctx context.Context, cid string) ([]label.Label, error)
	NegativeInference(ctx context.Context, cid string) ([]label.Label, error)
}

// Hook runs after a label is stored. A failing hook fails the request so
// the caller knows downstream processing did not happen; the label itself
// stays stored.
type Hook func(ctx context.Context, lab label.Label) error

// HookRegistry maps hook names to implementations. Hooks run in sorted
// name order.
type HookRegistry map[string]Hook

// Names returns the registered hook names in sorted order.
func (r HookRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LogHook records every stored label on the given logger. It is the
// built-in hook registered under the name "log".
func LogHook(log *zap.Logger) Hook {
	return func(_ context.Context, lab label.Label) error {
		log.Info("label stored",
			zap.String("content_id1", lab.CID1),
			zap.String("content_id2", lab.CID2),
			zap.String("annotator_id", lab.AnnotatorID),
			zap.Int("value", int(lab.Value)),
		)
		return nil
	}
}

// Service validates, stores, and traverses labels.
type Service struct {
	store Store
	hooks HookRegistry
	now   func() time.Time
}

// New creates a label service. hooks may be nil.
func New(store Store, hooks HookRegistry) *Service {
	return &Service{store: store, hooks: hooks, now: time.Now}
}

// Put parses and stores one judgment. rawValue is the textual coreference
// value ("-1", "0", "1"); invalid values yield domain.ErrInvalidCorefValue.
// The stored label carries the server-side timestamp, not a client one.
func (s *Service) Put(ctx context.Context, cid1, cid2, annotatorID, rawValue, subtopic1, subtopic2 string) (label.Label, error) {
	value, err := label.ParseCorefValue(rawValue)
	if err != nil {
		return label.Label{}, err
	}

	lab := label.Label{
		CID1:        cid1,
		CID2:        cid2,
		AnnotatorID: annotatorID,
		Value:       value,
		SubtopicID1: subtopic1,
		SubtopicID2: subtopic2,
		EpochTicks:  s.now().Unix(),
	}.Normalize()

	if err := s.store.Put(ctx, lab); err != nil {
		return label.Label{}, fmt.Errorf("store label: %w", err)
	}

	for _, name := range s.hooks.Names() {
		if err := s.hooks[name](ctx, lab); err != nil {
			return label.Label{}, fmt.Errorf("hook %q: %w", name, err)
		}
	}
	return lab, nil
}

// Direct returns every stored judgment touching cid.
func (s *Service) Direct(ctx context.Context, cid string) ([]label.Label, error) {
	return s.store.DirectlyConnected(ctx, cid)
}

// Positive returns the positive coreference neighborhood of cid. method
// selects the traversal: "" or "connected" walks the stored positive edges;
// "expanded" additionally materializes inferred labels between every pair
// in the component. Other methods yield domain.ErrUnknownTraversal.
func (s *Service) Positive(ctx context.Context, cid, method string) ([]label.Label, error) {
	switch method {
	case "", "connected":
		return s.store.ConnectedComponent(ctx, cid)
	case "expanded":
		return s.store.Expand(ctx, cid)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTraversal, method)
	}
}

// Negative returns the negative judgments incident to cid's positive
// component: everything known to NOT corefer with cid, directly or through
// a positively linked neighbor.
func (s *Service) Negative(ctx context.Context, cid string) ([]label.Label, error) {
	return s.store.NegativeInference(ctx, cid)
}
