package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/fc-integration/inventory/internal/apperr"
	"github.com/fc-integration/inventory/internal/log"
	"github.com/fc-integration/inventory/types"
)

func TestPlanAdjust(t *testing.T) {
	tests := []struct {
		name    string
		current int
		delta   int
		want    Plan
	}{
		{"increase", 2, 3, Plan{Delta: 3, Before: 2, After: 5, Action: types.ActionAdd, Comment: "Quantité augmentée de 3"}},
		{"decrease", 5, -2, Plan{Delta: -2, Before: 5, After: 3, Action: types.ActionRemove, Comment: "Quantité diminuée de 2"}},
		{"clamped", 5, -10, Plan{Delta: -10, Before: 5, After: 0, Action: types.ActionRemove, Comment: "Quantité diminuée de 10"}},
		{"zero", 4, 0, Plan{Delta: 0, Before: 4, After: 4, Action: types.ActionRemove, Comment: "Quantité diminuée de 0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlanAdjust(tt.current, tt.delta); got != tt.want {
				t.Fatalf("PlanAdjust(%d, %d) = %+v, want %+v", tt.current, tt.delta, got, tt.want)
			}
		})
	}
}

func TestPlanSet(t *testing.T) {
	plan, err := PlanSet(types.SanitizeQuantity("NaN"), "7")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Delta != 7 || plan.Before != 0 || plan.After != 7 || plan.Action != types.ActionAdd {
		t.Fatalf("unexpected plan %+v", plan)
	}
	if plan.Comment != "Quantité mise à jour manuellement de 0 à 7" {
		t.Fatalf("unexpected comment %q", plan.Comment)
	}

	plan, err = PlanSet(9, " 4 ")
	if err != nil || plan.Delta != -5 || plan.Action != types.ActionRemove {
		t.Fatalf("unexpected plan %+v err=%v", plan, err)
	}

	for _, target := range []string{"", "abc", "-1", "2.5"} {
		var vErr *apperr.ValidationError
		if _, err := PlanSet(3, target); !errors.As(err, &vErr) {
			t.Fatalf("target %q: expected ValidationError, got %v", target, err)
		}
	}
}

func TestAdjustAppliesAndLogs(t *testing.T) {
	product := types.Product{ID: 1, ProductName: "Catalyst 9200", Quantity: 2}
	f := newFakeAPI(product)
	svc := NewStockService(newTransport(t, f), staticSession{name: "Alice"}, log.Nop())

	m, err := svc.Adjust(context.Background(), product, 3)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if m.Product.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", m.Product.Quantity)
	}

	logs := f.appendedLogs()
	if len(logs) != 1 {
		t.Fatalf("expected one log entry, got %d", len(logs))
	}
	entry := logs[0]
	if entry.Action != types.ActionAdd || *entry.QuantityBefore != 2 || *entry.QuantityAfter != 5 {
		t.Fatalf("unexpected log entry %+v", entry)
	}
	if *entry.StockID != 1 || *entry.UserName != "Alice" || *entry.ItemDescription != "Catalyst 9200" {
		t.Fatalf("unexpected log identity %+v", entry)
	}
	if *entry.Commentaire != "Quantité augmentée de 3" {
		t.Fatalf("unexpected comment %q", *entry.Commentaire)
	}
	if f.products[0].Quantity != 5 {
		t.Fatalf("server quantity not updated: %d", f.products[0].Quantity)
	}
}

func TestAdjustClampsAtZero(t *testing.T) {
	product := types.Product{ID: 1, ProductName: "Catalyst 9200", Quantity: 5}
	f := newFakeAPI(product)
	svc := NewStockService(newTransport(t, f), staticSession{name: "Alice"}, log.Nop())

	m, err := svc.Adjust(context.Background(), product, -10)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if m.Product.Quantity != 0 || *m.Log.QuantityAfter != 0 {
		t.Fatalf("quantity must clamp at 0, got %+v", m)
	}
	if f.products[0].Quantity != 0 {
		t.Fatalf("server quantity must clamp at 0, got %d", f.products[0].Quantity)
	}
}

func TestSetSendsDelta(t *testing.T) {
	product := types.Product{ID: 3, ProductName: "Dock", Quantity: 0}
	f := newFakeAPI(product)
	svc := NewStockService(newTransport(t, f), staticSession{name: "Alice"}, log.Nop())

	m, err := svc.Set(context.Background(), product, "7")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if m.Plan.Delta != 7 || m.Product.Quantity != 7 {
		t.Fatalf("unexpected mutation %+v", m)
	}
	if *f.appendedLogs()[0].Commentaire != "Quantité mise à jour manuellement de 0 à 7" {
		t.Fatalf("unexpected comment")
	}
}

func TestSetRejectsBeforeAnyCall(t *testing.T) {
	f := newFakeAPI(types.Product{ID: 3, Quantity: 1})
	svc := NewStockService(newTransport(t, f), staticSession{name: "Alice"}, log.Nop())

	if _, err := svc.Set(context.Background(), types.Product{ID: 3, Quantity: 1}, "beaucoup"); err == nil {
		t.Fatalf("expected validation failure")
	}
	if f.callCount() != 0 {
		t.Fatalf("no request may be sent on invalid input")
	}
}

func TestAdjustPartialFailure(t *testing.T) {
	product := types.Product{ID: 1, ProductName: "Catalyst 9200", Quantity: 2}
	f := newFakeAPI(product)
	f.failLog = true
	svc := NewStockService(newTransport(t, f), staticSession{name: "Alice"}, log.Nop())

	m, err := svc.Adjust(context.Background(), product, 1)
	var partial *apperr.PartialMutationError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialMutationError, got %T %v", err, err)
	}
	if partial.Product.Quantity != 3 || m.Product.Quantity != 3 {
		t.Fatalf("partial error must carry the updated product: %+v", partial.Product)
	}
	var reqErr *apperr.RequestError
	if !errors.As(err, &reqErr) || reqErr.Path != "/update-log" {
		t.Fatalf("cause must be the log failure: %v", err)
	}
	if f.callsTo("/update-product") != 1 || f.products[0].Quantity != 3 {
		t.Fatalf("first phase must not be rolled back")
	}
}

func TestAdjustUpdateFailureSkipsLog(t *testing.T) {
	f := newFakeAPI()
	svc := NewStockService(newTransport(t, f), staticSession{name: "Alice"}, log.Nop())

	_, err := svc.Adjust(context.Background(), types.Product{ID: 42, Quantity: 1}, 1)
	var reqErr *apperr.RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != 404 {
		t.Fatalf("expected RequestError 404, got %T %v", err, err)
	}
	if f.callsTo("/update-log") != 0 {
		t.Fatalf("log must not be appended when the update failed")
	}
}
