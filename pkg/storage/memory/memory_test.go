package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront/pkg/storage"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	value := []byte(`{"a":1}`)
	if err := s.Set(ctx, "k", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("stored value should be isolated from caller buffer, got %q", got)
	}

	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Fatalf("expected no keys, got %v", s.Keys())
	}
}

func TestNamespacedPrefixesKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	ns := storage.Namespaced(s, "storefront")

	if err := ns.Set(ctx, "cart-storage", []byte("x")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := s.Get(ctx, "storefront:cart-storage"); err != nil {
		t.Fatalf("expected namespaced key in backing store: %v", err)
	}
	if got, err := ns.Get(ctx, "cart-storage"); err != nil || string(got) != "x" {
		t.Fatalf("unexpected namespaced read %q %v", got, err)
	}
	if err := ns.Remove(ctx, "cart-storage"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Get(ctx, "storefront:cart-storage"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected record removed, got %v", err)
	}

	if storage.Namespaced(s, "  ") != storage.KV(s) {
		t.Fatalf("empty namespace should return the backing store")
	}
}
