// Package labelstore persists coreference labels and answers the graph
// queries the route layer exposes: directly connected labels, positive
// connected components (optionally expanded with inferred pairs), and
// negative inference over the component boundary.
package labelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/kailas-cloud/fcdex/internal/db"
	"github.com/kailas-cloud/fcdex/internal/domain/label"
)

// InferredAnnotator marks labels synthesized by Expand rather than stored.
const InferredAnnotator = "inferred"

// store is the consumer interface for labels (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo stores labels as JSON values plus a per-content-id set of label keys.
type Repo struct {
	store  store
	prefix string
}

// New creates a label repository. keyPrefix namespaces all keys.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Put stores a label, overwriting an existing label with the same identity
// (id pair, annotator, subtopics). The label is normalized first.
func (r *Repo) Put(ctx context.Context, lab label.Label) error {
	lab = lab.Normalize()
	key := r.labelKey(lab)

	data, err := json.Marshal(lab)
	if err != nil {
		return fmt.Errorf("encode label: %w", err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("put label: %w", err)
	}
	for _, cid := range []string{lab.CID1, lab.CID2} {
		if err := r.store.SAdd(ctx, r.indexKey(cid), key); err != nil {
			return fmt.Errorf("index label for %s: %w", cid, err)
		}
	}
	return nil
}

// DirectlyConnected returns every label touching the given content id, in
// stable (key) order.
func (r *Repo) DirectlyConnected(ctx context.Context, cid string) ([]label.Label, error) {
	keys, err := r.store.SMembers(ctx, r.indexKey(cid))
	if err != nil {
		return nil, fmt.Errorf("label index %s: %w", cid, err)
	}

	labs := make([]label.Label, 0, len(keys))
	for _, key := range keys {
		lab, err := r.getKey(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue // index raced ahead of the value write
			}
			return nil, err
		}
		labs = append(labs, lab)
	}
	return labs, nil
}

// ConnectedComponent returns all positive labels reachable from cid by
// following positive labels transitively.
func (r *Repo) ConnectedComponent(ctx context.Context, cid string) ([]label.Label, error) {
	labs, _, err := r.positiveComponent(ctx, cid)
	return labs, err
}

// Expand returns the positive connected component plus an inferred positive
// label for every pair of component members that lacks a stored one.
func (r *Repo) Expand(ctx context.Context, cid string) ([]label.Label, error) {
	labs, members, err := r.positiveComponent(ctx, cid)
	if err != nil {
		return nil, err
	}

	direct := make(map[[2]string]bool, len(labs))
	for _, lab := range labs {
		direct[[2]string{lab.CID1, lab.CID2}] = true
	}

	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			pair := [2]string{ids[i], ids[j]}
			if direct[pair] {
				continue
			}
			labs = append(labs, label.Label{
				CID1:        ids[i],
				CID2:        ids[j],
				AnnotatorID: InferredAnnotator,
				Value:       label.Positive,
			})
		}
	}
	return labs, nil
}

// NegativeInference returns the negative labels incident to any member of
// cid's positive connected component.
func (r *Repo) NegativeInference(ctx context.Context, cid string) ([]label.Label, error) {
	_, members, err := r.positiveComponent(ctx, cid)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	seen := make(map[string]bool)
	var negatives []label.Label
	for _, id := range ids {
		labs, err := r.DirectlyConnected(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, lab := range labs {
			if lab.Value != label.Negative {
				continue
			}
			key := r.labelKey(lab)
			if seen[key] {
				continue
			}
			seen[key] = true
			negatives = append(negatives, lab)
		}
	}
	return negatives, nil
}

// positiveComponent walks positive labels breadth-first from cid. It returns
// the positive labels found and the set of member ids (cid included).
func (r *Repo) positiveComponent(ctx context.Context, cid string) ([]label.Label, map[string]bool, error) {
	members := map[string]bool{cid: true}
	seen := make(map[string]bool)
	var labs []label.Label

	queue := []string{cid}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		direct, err := r.DirectlyConnected(ctx, cur)
		if err != nil {
			return nil, nil, err
		}
		for _, lab := range direct {
			if lab.Value != label.Positive {
				continue
			}
			key := r.labelKey(lab)
			if !seen[key] {
				seen[key] = true
				labs = append(labs, lab)
			}
			other := lab.Other(cur)
			if other != "" && !members[other] {
				members[other] = true
				queue = append(queue, other)
			}
		}
	}
	return labs, members, nil
}

func (r *Repo) getKey(ctx context.Context, key string) (label.Label, error) {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return label.Label{}, err
		}
		return label.Label{}, fmt.Errorf("get label %s: %w", key, err)
	}
	var lab label.Label
	if err := json.Unmarshal(raw, &lab); err != nil {
		return label.Label{}, fmt.Errorf("decode label %s: %w", key, err)
	}
	return lab, nil
}

// labelKey builds the storage key identifying a normalized label. Parts are
// escaped so ids containing the separator cannot collide.
func (r *Repo) labelKey(lab label.Label) string {
	return r.prefix + "label:" +
		url.QueryEscape(lab.CID1) + "|" +
		url.QueryEscape(lab.CID2) + "|" +
		url.QueryEscape(lab.AnnotatorID) + "|" +
		url.QueryEscape(lab.SubtopicID1) + "|" +
		url.QueryEscape(lab.SubtopicID2)
}

func (r *Repo) indexKey(cid string) string {
	return r.prefix + "labelidx:" + url.QueryEscape(cid)
}
