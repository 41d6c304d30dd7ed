package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/fc-integration/inventory/internal/apperr"
	"github.com/fc-integration/inventory/internal/log"
	"github.com/fc-integration/inventory/internal/nav"
	"github.com/fc-integration/inventory/types"
)

func TestResolveFound(t *testing.T) {
	f := newFakeAPI(types.Product{ID: 1, Code: code("012345678905"), ProductName: "Catalyst 9200", Quantity: 4})
	r := NewResolver(newTransport(t, f), nil, log.Nop())

	res, err := r.Resolve(context.Background(), Query{Code: " 012345678905 "})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.NotFound || res.Product == nil || res.Product.ID != 1 {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if got := f.lastQuery(); got != "barCode=012345678905" {
		t.Fatalf("unexpected query %q", got)
	}
}

func TestResolveByName(t *testing.T) {
	f := newFakeAPI(types.Product{ID: 2, ProductName: "Meraki MR36", Quantity: 1})
	r := NewResolver(newTransport(t, f), nil, log.Nop())

	res, err := r.Resolve(context.Background(), Query{Name: "Meraki MR36"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Product == nil || res.Product.ID != 2 {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolveNotFound(t *testing.T) {
	f := newFakeAPI()
	r := NewResolver(newTransport(t, f), nil, log.Nop())

	res, err := r.Resolve(context.Background(), Query{Code: "999"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.NotFound || res.Code != "999" || res.Product != nil {
		t.Fatalf("expected not found for 999, got %+v", res)
	}
}

func TestResolveRequiresInput(t *testing.T) {
	f := newFakeAPI()
	r := NewResolver(newTransport(t, f), nil, log.Nop())

	_, err := r.Resolve(context.Background(), Query{Code: "  "})
	var vErr *apperr.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T %v", err, err)
	}
	if f.callCount() != 0 {
		t.Fatalf("validation must happen before any call")
	}
}

func TestDecodeProductEmptyBodies(t *testing.T) {
	for _, raw := range []string{"", "null", "{}", " { } ", `{"id":0}`} {
		if _, ok, err := decodeProduct([]byte(raw)); ok || err != nil {
			t.Fatalf("%q: expected not found, got ok=%v err=%v", raw, ok, err)
		}
	}
	p, ok, err := decodeProduct([]byte(`{"id":7,"product_name":"x","quantity":"NaN"}`))
	if err != nil || !ok || p.ID != 7 || p.Quantity != 0 {
		t.Fatalf("unexpected decode: %+v ok=%v err=%v", p, ok, err)
	}
}

func TestScanMissCreateThenLookup(t *testing.T) {
	f := newFakeAPI()
	recorder := &nav.Recorder{}
	r := NewResolver(newTransport(t, f), recorder, log.Nop())
	ctx := context.Background()

	res, err := r.Resolve(ctx, Query{Code: "999"})
	if err != nil || !res.NotFound {
		t.Fatalf("expected miss, got %+v %v", res, err)
	}

	created, err := r.Create(ctx, res.Code, NewProduct{Name: "Widget", Quantity: "3"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Code == nil || *created.Code != "999" {
		t.Fatalf("created product must carry the scanned code: %+v", created)
	}
	if last, ok := recorder.Last(); !ok || last != (nav.Directive{Kind: "push", Route: nav.RouteStock}) {
		t.Fatalf("expected push to stock, got %+v", last)
	}

	res, err = r.Resolve(ctx, Query{Code: "999"})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if res.Product == nil || res.Product.ProductName != "Widget" || res.Product.Quantity != 3 {
		t.Fatalf("unexpected product after create: %+v", res.Product)
	}
}

func TestCreateWithoutCode(t *testing.T) {
	f := newFakeAPI()
	r := NewResolver(newTransport(t, f), nil, log.Nop())

	created, err := r.Create(context.Background(), NoCode, NewProduct{Name: "Patch cable", Quantity: "0"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.HasCode() {
		t.Fatalf("code %q must create a product without code", NoCode)
	}
}

func TestCreateValidation(t *testing.T) {
	cases := map[string]NewProduct{
		"missing name":      {Name: " ", Quantity: "1"},
		"negative quantity": {Name: "Widget", Quantity: "-1"},
		"text quantity":     {Name: "Widget", Quantity: "trois"},
		"empty quantity":    {Name: "Widget"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFakeAPI()
			recorder := &nav.Recorder{}
			r := NewResolver(newTransport(t, f), recorder, log.Nop())

			_, err := r.Create(context.Background(), "999", in)
			var vErr *apperr.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T %v", err, err)
			}
			if f.callCount() != 0 {
				t.Fatalf("no request may be sent on invalid input")
			}
			if len(recorder.Directives()) != 0 {
				t.Fatalf("no navigation on invalid input")
			}
		})
	}
}

func TestAssociate(t *testing.T) {
	f := newFakeAPI(types.Product{ID: 5, ProductName: "ISR 1100", Quantity: 2})
	recorder := &nav.Recorder{}
	r := NewResolver(newTransport(t, f), recorder, log.Nop())
	ctx := context.Background()

	stock, err := NewCatalog(newTransport(t, f)).AllStock(ctx)
	if err != nil || len(stock) != 1 {
		t.Fatalf("stock listing: %v %v", stock, err)
	}

	updated, err := r.Associate(ctx, "4006381333931", stock[0])
	if err != nil {
		t.Fatalf("associate: %v", err)
	}
	if updated.Code == nil || *updated.Code != "4006381333931" {
		t.Fatalf("unexpected code: %+v", updated)
	}
	if last, _ := recorder.Last(); last != (nav.Directive{Kind: "replace", Route: nav.RouteProductDetails}) {
		t.Fatalf("expected replace to detail view, got %+v", last)
	}

	res, err := r.Resolve(ctx, Query{Code: "4006381333931"})
	if err != nil || res.Product == nil || res.Product.ID != 5 {
		t.Fatalf("code must now resolve to product 5: %+v %v", res, err)
	}
}

func TestAssociateRejectsProductWithCode(t *testing.T) {
	f := newFakeAPI()
	r := NewResolver(newTransport(t, f), nil, log.Nop())

	_, err := r.Associate(context.Background(), "111", types.Product{ID: 5, Code: code("222")})
	var vErr *apperr.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T %v", err, err)
	}
	if f.callCount() != 0 {
		t.Fatalf("no request may be sent")
	}
}

func TestAttachCode(t *testing.T) {
	f := newFakeAPI(types.Product{ID: 8, ProductName: "Dock", Quantity: 1})
	r := NewResolver(newTransport(t, f), nil, log.Nop())

	updated, err := r.AttachCode(context.Background(), types.Product{ID: 8, ProductName: "Dock"}, "123")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if !updated.HasCode() || f.callsTo("/init-upc") != 1 {
		t.Fatalf("expected one /init-upc call, product %+v", updated)
	}
}
