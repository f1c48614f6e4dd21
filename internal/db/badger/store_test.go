package badger

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/fcdex/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Config{InMemory: true})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestKV(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrKeyNotFound", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want v", got)
	}

	ok, err := s.Exists(ctx, "k")
	if err != nil || !ok {
		t.Errorf("Exists(k) = (%v, %v), want (true, nil)", ok, err)
	}

	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	ok, err = s.Exists(ctx, "k")
	if err != nil || ok {
		t.Errorf("Exists after Del = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestSets(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SAdd(ctx, "idx", "b", "a"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}
	if err := s.SAdd(ctx, "idx", "a"); err != nil {
		t.Fatalf("SAdd dup: %v", err)
	}

	members, err := s.SMembers(ctx, "idx")
	if err != nil {
		t.Fatalf("SMembers: %v", err)
	}
	if !reflect.DeepEqual(members, []string{"a", "b"}) {
		t.Errorf("SMembers = %v, want [a b]", members)
	}

	members, err = s.SMembers(ctx, "empty")
	if err != nil {
		t.Fatalf("SMembers(empty): %v", err)
	}
	if len(members) != 0 {
		t.Errorf("SMembers(empty) = %v", members)
	}
}

func TestScan(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, k := range []string{"fc:b", "fc:a", "label:x", "fc:c"} {
		if err := s.Set(ctx, k, []byte("1")); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	// Set member keys must not leak into scans.
	if err := s.SAdd(ctx, "fc:a", "member"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}

	keys, err := s.Scan(ctx, "fc:*")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"fc:a", "fc:b", "fc:c"}) {
		t.Errorf("Scan = %v", keys)
	}

	if _, err := s.Scan(ctx, "fc:"); err == nil {
		t.Error("expected error for pattern without trailing *")
	}
}

func TestPingAfterClose(t *testing.T) {
	s, err := NewStore(Config{InMemory: true})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping after Close should fail")
	}
}
