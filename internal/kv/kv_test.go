package kv

import (
	"context"
	"os"
	"testing"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "userToken"); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "userToken", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "userData", `{"id":"1"}`); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, ok, err := store.Get(ctx, "userToken")
	if err != nil || !ok || v != "abc" {
		t.Fatalf("unexpected get: %q ok=%v err=%v", v, ok, err)
	}

	if err := store.Delete(ctx, "userToken", "userData"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "userToken", "userData"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "userData"); ok {
		t.Fatalf("expected userData to be gone")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	exerciseStore(t, store)

	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected file removed once empty, stat err=%v", err)
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := first.Set(ctx, "userToken", "persisted"); err != nil {
		t.Fatalf("set: %v", err)
	}

	info, err := os.Stat(first.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("unexpected file mode %v", perm)
	}

	second, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	v, ok, err := second.Get(ctx, "userToken")
	if err != nil || !ok || v != "persisted" {
		t.Fatalf("unexpected get: %q ok=%v err=%v", v, ok, err)
	}
}
