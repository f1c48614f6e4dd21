package search

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/kailas-cloud/fcdex/internal/domain"
	"github.com/kailas-cloud/fcdex/internal/domain/fc"
	"github.com/kailas-cloud/fcdex/internal/usecase/filters"
)

type memFCs map[string]fc.FeatureCollection

func (m memFCs) Get(_ context.Context, contentID string) (fc.FeatureCollection, error) {
	f, ok := m[contentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return f, nil
}

func (m memFCs) ScanIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func admitAll() filters.Predicate {
	return filters.PredicateFunc(func(string, fc.FeatureCollection) bool { return true })
}

func rejectIDs(ids ...string) filters.Predicate {
	bad := make(map[string]bool, len(ids))
	for _, id := range ids {
		bad[id] = true
	}
	return filters.PredicateFunc(func(contentID string, _ fc.FeatureCollection) bool {
		return !bad[contentID]
	})
}

func docFC(title string) fc.FeatureCollection {
	return fc.FeatureCollection{"title": fc.NewScalar(title)}
}

func fiveDocs() memFCs {
	return memFCs{
		"a": docFC("a"), "b": docFC("b"), "c": docFC("c"),
		"d": docFC("d"), "query": docFC("q"),
	}
}

func resultIDs(results []Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ContentID
	}
	return ids
}

func TestIndexScanOrderAndQuerySkip(t *testing.T) {
	eng := NewIndexScan(fiveDocs())
	results, err := eng.Recommend(context.Background(), "query", admitAll(), Options{Limit: 10})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	want := []string{"a", "b", "c", "d"}
	got := resultIDs(results)
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func TestIndexScanFiltersBeforeCounting(t *testing.T) {
	eng := NewIndexScan(fiveDocs())
	results, err := eng.Recommend(context.Background(), "query", rejectIDs("a", "b"), Options{Limit: 2})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	got := resultIDs(results)
	if len(got) != 2 || got[0] != "c" || got[1] != "d" {
		t.Fatalf("ids = %v, want [c d]: rejected candidates must not consume the limit", got)
	}
}

func TestIndexScanMissingQuery(t *testing.T) {
	eng := NewIndexScan(fiveDocs())
	_, err := eng.Recommend(context.Background(), "absent", admitAll(), Options{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestIndexScanDefaultLimit(t *testing.T) {
	docs := memFCs{"query": docFC("q")}
	for i := 0; i < 150; i++ {
		docs[string(rune('a'+i%26))+string(rune('a'+i/26))] = docFC("d")
	}
	eng := NewIndexScan(docs)
	results, err := eng.Recommend(context.Background(), "query", admitAll(), Options{})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(results) != DefaultLimit {
		t.Fatalf("len = %d, want default limit %d", len(results), DefaultLimit)
	}
}

func TestRandomWithoutReplacement(t *testing.T) {
	eng := NewRandom(fiveDocs(), rand.New(rand.NewPCG(1, 1)))
	results, err := eng.Recommend(context.Background(), "query", admitAll(), Options{Limit: 10})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	got := resultIDs(results)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	seen := map[string]bool{}
	for _, id := range got {
		if id == "query" {
			t.Fatal("query id returned as its own candidate")
		}
		if seen[id] {
			t.Fatalf("id %s drawn twice", id)
		}
		seen[id] = true
	}
}

func TestRandomSeededIsDeterministic(t *testing.T) {
	run := func() []string {
		eng := NewRandom(fiveDocs(), rand.New(rand.NewPCG(42, 99)))
		results, err := eng.Recommend(context.Background(), "query", admitAll(), Options{Limit: 2})
		if err != nil {
			t.Fatalf("recommend: %v", err)
		}
		return resultIDs(results)
	}
	first, second := run(), run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("runs diverged: %v vs %v", first, second)
		}
	}
}
