package store

import (
	"context"
	"errors"
	"testing"

	"github.com/fc-integration/inventory/types"
)

func TestMemoryProductQuantityClampsAtZero(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory().Products
	p, err := repo.Create(ctx, types.Product{ProductName: "Widget", Quantity: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, before, err := repo.AdjustQuantity(ctx, p.ID, -10)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if before != 5 || updated.Quantity != 0 {
		t.Fatalf("expected 5 -> 0, got %d -> %d", before, updated.Quantity)
	}

	if _, _, err := repo.AdjustQuantity(ctx, 999, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryProductCodeUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory().Products
	code := "0123"
	first, _ := repo.Create(ctx, types.Product{ProductName: "A", Code: &code})
	second, _ := repo.Create(ctx, types.Product{ProductName: "B"})

	if _, err := repo.Create(ctx, types.Product{ProductName: "C", Code: &code}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate code on create: %v", err)
	}
	if _, err := repo.AssignCode(ctx, second.ID, code); !errors.Is(err, ErrConflict) {
		t.Fatalf("code used elsewhere: %v", err)
	}
	if _, err := repo.AssignCode(ctx, first.ID, "0456"); !errors.Is(err, ErrConflict) {
		t.Fatalf("product already coded: %v", err)
	}
	updated, err := repo.AssignCode(ctx, second.ID, "0456")
	if err != nil || *updated.Code != "0456" {
		t.Fatalf("assign: %+v %v", updated, err)
	}
	found, err := repo.GetByCode(ctx, "0456")
	if err != nil || found.ID != second.ID {
		t.Fatalf("lookup by code: %+v %v", found, err)
	}
}

func TestMemoryLogsLatest(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory().Logs
	alice, bob := "Alice", "Bob"
	for i := 0; i < 3; i++ {
		_, _ = repo.Append(ctx, types.LogEntry{UserName: &alice, Action: types.ActionAdd})
	}
	_, _ = repo.Append(ctx, types.LogEntry{UserName: &bob, Action: types.ActionRemove})

	latest, err := repo.Latest(ctx, "Alice", 2)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(latest) != 2 || latest[0].ID != 3 || latest[1].ID != 2 {
		t.Fatalf("expected newest first, got %+v", latest)
	}
}
