// Package fcdex embeds the feature collection store, search engines, and
// coreference label graph as a library, without running the HTTP server.
//
//	client, _ := fcdex.New(fcdex.WithBadgerInMemory())
//	defer client.Close()
package fcdex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/fcdex/internal/db"
	dbBadger "github.com/kailas-cloud/fcdex/internal/db/badger"
	dbRedis "github.com/kailas-cloud/fcdex/internal/db/redis"
	domfc "github.com/kailas-cloud/fcdex/internal/domain/fc"
	domlabel "github.com/kailas-cloud/fcdex/internal/domain/label"
	"github.com/kailas-cloud/fcdex/internal/repository/fcstore"
	"github.com/kailas-cloud/fcdex/internal/repository/labelstore"
	fcsuc "github.com/kailas-cloud/fcdex/internal/usecase/fcs"
	"github.com/kailas-cloud/fcdex/internal/usecase/filters"
	labelsuc "github.com/kailas-cloud/fcdex/internal/usecase/labels"
	searchuc "github.com/kailas-cloud/fcdex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// FeatureCollection maps feature names to values. A value is either a
// string (a scalar feature) or a map[string]int (a weighted multiset).
type FeatureCollection map[string]any

// Label is one coreference judgment between two content ids. Value is -1
// (not coreferent), 0 (unknown), or 1 (coreferent).
type Label struct {
	ContentID1  string
	ContentID2  string
	AnnotatorID string
	Value       int
	SubtopicID1 string
	SubtopicID2 string
	EpochTicks  int64
}

// SearchResult is one recommended content id with its feature collection.
type SearchResult struct {
	ContentID string
	FC        FeatureCollection
}

// SearchOptions tunes a search call. All fields are optional.
type SearchOptions struct {
	Limit   int
	Filters []string
	Params  map[string]string
}

// Client is the fcdex SDK entry point.
type Client struct {
	store     db.Store
	fcSvc     *fcsuc.Service
	searchSvc *searchuc.Service
	labelSvc  *labelsuc.Service
}

// New creates a Client and connects to (or opens) the configured store.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:         "fcdex:",
		nilsimsaThreshold: filters.DefaultNilsimsaThreshold,
		randomCutoff:      1000,
	}
	for _, o := range opts {
		o(cfg)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("fcdex: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("fcdex: create redis store: %w", err)
		}
		return s, nil
	case "badger":
		s, err := dbBadger.NewStore(dbBadger.Config{
			Path:     cfg.path,
			InMemory: cfg.inMemory,
		})
		if err != nil {
			return nil, fmt.Errorf("fcdex: create badger store: %w", err)
		}
		return s, nil
	case "":
		return nil, errors.New("fcdex: store required (use WithRedis, WithBadger, or WithBadgerInMemory)")
	default:
		return nil, fmt.Errorf("fcdex: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	fcRepo := fcstore.New(store, cfg.keyPrefix)
	labelRepo := labelstore.New(store, cfg.keyPrefix)

	filterReg := filters.Registry{
		"already_labeled": filters.AlreadyLabeled(labelRepo),
		"nilsimsa_near_duplicate": filters.NearDuplicate(
			fcRepo, labelRepo, cfg.nilsimsaThreshold, nil,
		),
	}
	engineReg := searchuc.Registry{
		"index_scan": func() searchuc.Engine { return searchuc.NewIndexScan(fcRepo) },
		"random":     func() searchuc.Engine { return searchuc.NewRandom(fcRepo, nil) },
	}

	fcSvc := fcsuc.New(fcRepo).WithRandomCutoff(cfg.randomCutoff)
	searchSvc := searchuc.New(engineReg, filterReg)
	if cfg.defaultLimit > 0 || cfg.maxLimit > 0 {
		searchSvc = searchSvc.WithLimits(cfg.defaultLimit, cfg.maxLimit)
	}
	labelSvc := labelsuc.New(labelRepo, nil)

	return &Client{
		store:     store,
		fcSvc:     fcSvc,
		searchSvc: searchSvc,
		labelSvc:  labelSvc,
	}
}

// Close releases the underlying store.
func (c *Client) Close() {
	c.store.Close()
}

// PutFeatureCollection stores f under contentID. When fingerprint is set,
// nilsimsa digests are computed from the scalar features and stored in the
// reserved "#nilsimsa_all" multiset.
func (c *Client) PutFeatureCollection(ctx context.Context, contentID string, f FeatureCollection, fingerprint bool) error {
	internal, err := toInternalFC(f)
	if err != nil {
		return fmt.Errorf("fcdex: %w", err)
	}
	return c.fcSvc.Put(ctx, contentID, internal, fingerprint)
}

// GetFeatureCollection returns the stored feature collection for contentID.
func (c *Client) GetFeatureCollection(ctx context.Context, contentID string) (FeatureCollection, error) {
	internal, err := c.fcSvc.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	return fromInternalFC(internal), nil
}

// RandomFeatureCollection draws one stored document uniformly at random.
func (c *Client) RandomFeatureCollection(ctx context.Context) (string, FeatureCollection, error) {
	cid, internal, err := c.fcSvc.Random(ctx)
	if err != nil {
		return "", nil, err
	}
	return cid, fromInternalFC(internal), nil
}

// SearchEngines lists the available engine names.
func (c *Client) SearchEngines() []string {
	return c.searchSvc.EngineNames()
}

// Search runs the named engine for queryID. With no filters named, the
// already_labeled filter applies.
func (c *Client) Search(ctx context.Context, engine, queryID string, opts *SearchOptions) ([]SearchResult, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	results, err := c.searchSvc.Search(ctx, engine, queryID, opts.Filters, searchuc.Options{
		Limit:  opts.Limit,
		Params: opts.Params,
	})
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{ContentID: r.ContentID, FC: fromInternalFC(r.FC)}
	}
	return out, nil
}

// PutLabel stores one judgment. EpochTicks on the input is ignored; the
// returned Label carries the stored (normalized, timestamped) form.
func (c *Client) PutLabel(ctx context.Context, lab Label) (Label, error) {
	stored, err := c.labelSvc.Put(ctx,
		lab.ContentID1, lab.ContentID2, lab.AnnotatorID,
		strconv.Itoa(lab.Value),
		lab.SubtopicID1, lab.SubtopicID2,
	)
	if err != nil {
		return Label{}, err
	}
	return fromInternalLabel(stored), nil
}

// DirectLabels returns every judgment touching contentID.
func (c *Client) DirectLabels(ctx context.Context, contentID string) ([]Label, error) {
	labs, err := c.labelSvc.Direct(ctx, contentID)
	return fromInternalLabels(labs), err
}

// PositiveLabels returns the positive coreference neighborhood of
// contentID. method is "connected" (default when empty) or "expanded".
func (c *Client) PositiveLabels(ctx context.Context, contentID, method string) ([]Label, error) {
	labs, err := c.labelSvc.Positive(ctx, contentID, method)
	return fromInternalLabels(labs), err
}

// NegativeLabels returns the negative judgments incident to contentID's
// positive component.
func (c *Client) NegativeLabels(ctx context.Context, contentID string) ([]Label, error) {
	labs, err := c.labelSvc.Negative(ctx, contentID)
	return fromInternalLabels(labs), err
}

func toInternalFC(f FeatureCollection) (domfc.FeatureCollection, error) {
	out := make(domfc.FeatureCollection, len(f))
	for name, val := range f {
		switch v := val.(type) {
		case string:
			out[name] = domfc.NewScalar(v)
		case map[string]int:
			counter := make(domfc.StringCounter, len(v))
			for k, n := range v {
				counter[k] = n
			}
			out[name] = domfc.NewCounter(counter)
		default:
			return nil, fmt.Errorf("feature %q: unsupported value type %T", name, val)
		}
	}
	return out, nil
}

func fromInternalFC(f domfc.FeatureCollection) FeatureCollection {
	if f == nil {
		return nil
	}
	out := make(FeatureCollection, len(f))
	for name, feat := range f {
		if feat.IsCounter() {
			out[name] = map[string]int(feat.Counter())
		} else {
			out[name] = feat.Scalar()
		}
	}
	return out
}

func fromInternalLabel(l domlabel.Label) Label {
	return Label{
		ContentID1:  l.CID1,
		ContentID2:  l.CID2,
		AnnotatorID: l.AnnotatorID,
		Value:       int(l.Value),
		SubtopicID1: l.SubtopicID1,
		SubtopicID2: l.SubtopicID2,
		EpochTicks:  l.EpochTicks,
	}
}

func fromInternalLabels(labs []domlabel.Label) []Label {
	out := make([]Label, len(labs))
	for i, l := range labs {
		out[i] = fromInternalLabel(l)
	}
	return out
}
