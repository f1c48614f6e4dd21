package fcdex

import (
	"context"
	"strings"
	"testing"
)

func newMemClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	client, err := New(append([]Option{WithBadgerInMemory()}, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without a configured store")
	}
}

func TestFeatureCollectionRoundTrip(t *testing.T) {
	client := newMemClient(t)
	ctx := context.Background()

	put := FeatureCollection{
		"title": "press release",
		"names": map[string]int{"acme": 2, "smith": 1},
	}
	if err := client.PutFeatureCollection(ctx, "doc1", put, false); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := client.GetFeatureCollection(ctx, "doc1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["title"] != "press release" {
		t.Errorf("title = %v", got["title"])
	}
	names, ok := got["names"].(map[string]int)
	if !ok || names["acme"] != 2 {
		t.Errorf("names = %v", got["names"])
	}
}

func TestPutRejectsUnsupportedValue(t *testing.T) {
	client := newMemClient(t)
	err := client.PutFeatureCollection(context.Background(), "doc1",
		FeatureCollection{"weight": 3.14}, false)
	if err == nil {
		t.Fatal("expected error for non string/counter feature value")
	}
}

func TestSearchWithNearDuplicateFilter(t *testing.T) {
	client := newMemClient(t)
	ctx := context.Background()

	base := strings.Repeat("the acme corporation announced record earnings today ", 40)
	variant := strings.Replace(base, "record", "modest", 3)

	docs := map[string]string{
		"query": base,
		"dup":   base,    // exact duplicate of the query
		"edit":  variant, // light rewrite of the query
		"other": strings.Repeat("completely unrelated kayaking trip report from the fjords ", 40),
	}
	for cid, body := range docs {
		err := client.PutFeatureCollection(ctx, cid, FeatureCollection{"body": body}, true)
		if err != nil {
			t.Fatalf("put %s: %v", cid, err)
		}
	}

	results, err := client.Search(ctx, "index_scan", "query", &SearchOptions{
		Filters: []string{"nilsimsa_near_duplicate"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	ids := map[string]bool{}
	for _, r := range results {
		ids[r.ContentID] = true
	}
	if ids["dup"] || ids["edit"] {
		t.Errorf("results %v include near duplicates of the query", ids)
	}
	if !ids["other"] {
		t.Errorf("results %v miss the unrelated document", ids)
	}
}

func TestSearchUnfilteredSeesEverything(t *testing.T) {
	client := newMemClient(t)
	ctx := context.Background()

	for _, cid := range []string{"query", "a", "b"} {
		err := client.PutFeatureCollection(ctx, cid, FeatureCollection{"title": cid}, false)
		if err != nil {
			t.Fatalf("put %s: %v", cid, err)
		}
	}

	results, err := client.Search(ctx, "index_scan", "query", nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want a and b", len(results))
	}
}

func TestLabelsEndToEnd(t *testing.T) {
	client := newMemClient(t)
	ctx := context.Background()

	pairs := []Label{
		{ContentID1: "a", ContentID2: "b", AnnotatorID: "alice", Value: 1},
		{ContentID1: "b", ContentID2: "c", AnnotatorID: "alice", Value: 1},
		{ContentID1: "a", ContentID2: "x", AnnotatorID: "alice", Value: -1},
	}
	for _, lab := range pairs {
		if _, err := client.PutLabel(ctx, lab); err != nil {
			t.Fatalf("put label: %v", err)
		}
	}

	direct, err := client.DirectLabels(ctx, "a")
	if err != nil {
		t.Fatalf("direct: %v", err)
	}
	if len(direct) != 2 {
		t.Fatalf("direct labels for a = %d, want 2", len(direct))
	}

	// a-b-c is one positive chain; connected from c must reach a.
	positive, err := client.PositiveLabels(ctx, "c", "connected")
	if err != nil {
		t.Fatalf("positive: %v", err)
	}
	touched := map[string]bool{}
	for _, l := range positive {
		touched[l.ContentID1] = true
		touched[l.ContentID2] = true
	}
	if !touched["a"] || !touched["b"] || !touched["c"] {
		t.Fatalf("connected component from c touches %v, want a, b, c", touched)
	}

	// expanded adds the inferred a-c pair.
	expanded, err := client.PositiveLabels(ctx, "c", "expanded")
	if err != nil {
		t.Fatalf("expanded: %v", err)
	}
	if len(expanded) <= len(positive) {
		t.Fatalf("expanded = %d labels, want more than connected's %d", len(expanded), len(positive))
	}

	// x is negatively tied to a, which sits in c's positive component.
	negative, err := client.NegativeLabels(ctx, "c")
	if err != nil {
		t.Fatalf("negative: %v", err)
	}
	foundX := false
	for _, l := range negative {
		if l.ContentID1 == "x" || l.ContentID2 == "x" {
			foundX = true
		}
	}
	if !foundX {
		t.Fatalf("negative labels for c = %v, want the a-x judgment", negative)
	}
}

func TestPutLabelInvalidValue(t *testing.T) {
	client := newMemClient(t)
	_, err := client.PutLabel(context.Background(),
		Label{ContentID1: "a", ContentID2: "b", AnnotatorID: "alice", Value: 5})
	if err == nil {
		t.Fatal("expected error for value outside {-1, 0, 1}")
	}
}

func TestRandomFeatureCollection(t *testing.T) {
	client := newMemClient(t)
	ctx := context.Background()

	if _, _, err := client.RandomFeatureCollection(ctx); err == nil {
		t.Fatal("expected error on empty store")
	}

	if err := client.PutFeatureCollection(ctx, "only", FeatureCollection{"title": "t"}, false); err != nil {
		t.Fatalf("put: %v", err)
	}
	cid, f, err := client.RandomFeatureCollection(ctx)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if cid != "only" || f["title"] != "t" {
		t.Fatalf("random = (%s, %v)", cid, f)
	}
}

func TestSearchEngines(t *testing.T) {
	client := newMemClient(t)
	names := client.SearchEngines()
	if len(names) != 2 || names[0] != "index_scan" || names[1] != "random" {
		t.Fatalf("engines = %v, want [index_scan random]", names)
	}
}
