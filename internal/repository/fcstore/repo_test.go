package fcstore

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/kailas-cloud/fcdex/internal/db"
	"github.com/kailas-cloud/fcdex/internal/domain"
	"github.com/kailas-cloud/fcdex/internal/domain/fc"
)

// --- Mocks ---

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memStore) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// --- Tests ---

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	repo := New(newMemStore(), "test:")

	want := fc.FeatureCollection{
		"name":             fc.NewScalar("doc one"),
		fc.NilsimsaFeature: fc.NewCounter(fc.StringCounter{"ab": 1}),
	}
	if err := repo.Put(ctx, "c1", want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := repo.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get = %v, want %v", got, want)
	}
}

func TestGet_Missing(t *testing.T) {
	repo := New(newMemStore(), "test:")
	_, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPut_Overwrites(t *testing.T) {
	ctx := context.Background()
	repo := New(newMemStore(), "test:")

	_ = repo.Put(ctx, "c1", fc.FeatureCollection{"v": fc.NewScalar("old")})
	_ = repo.Put(ctx, "c1", fc.FeatureCollection{"v": fc.NewScalar("new")})

	got, err := repo.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Scalar("v") != "new" {
		t.Errorf("v = %q, want new", got.Scalar("v"))
	}
}

func TestScanIDs(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	repo := New(ms, "test:")

	for _, id := range []string{"b", "a", "c"} {
		_ = repo.Put(ctx, id, fc.FeatureCollection{})
	}
	// Foreign keys under the same store must not leak in.
	ms.data["test:label:x"] = []byte("{}")

	ids, err := repo.ScanIDs(ctx)
	if err != nil {
		t.Fatalf("ScanIDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Errorf("ScanIDs = %v", ids)
	}
}
