package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/fc-integration/inventory/internal/api"
	"github.com/fc-integration/inventory/internal/gateway"
	"github.com/fc-integration/inventory/internal/log"
	"github.com/fc-integration/inventory/types"
)

// fakeAPI is an in-memory inventory API that records every request path.
type fakeAPI struct {
	mu       sync.Mutex
	products []types.Product
	logs     []types.AppendLogRequest
	calls    []string
	queries  []string
	failLog  bool
	nextID   int
}

func newFakeAPI(products ...types.Product) *fakeAPI {
	f := &fakeAPI{nextID: 100}
	f.products = append(f.products, products...)
	return f
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.URL.Path)
	f.queries = append(f.queries, r.URL.RawQuery)

	switch r.URL.Path {
	case "/product-details":
		code := r.URL.Query().Get("barCode")
		name := r.URL.Query().Get("productName")
		for _, p := range f.products {
			if (code != "" && p.Code != nil && *p.Code == code) || (code == "" && name != "" && p.ProductName == name) {
				writeJSON(w, http.StatusOK, p)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, types.ErrorResponse{Message: NotFoundMessage})
	case "/new-product":
		var req types.NewProductRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.nextID++
		p := types.Product{
			ID:          f.nextID,
			ProductName: req.ProductName,
			Brand:       req.Brand,
			Model:       req.Model,
			ProductType: req.ProductType,
			Quantity:    types.Quantity(req.Quantity),
		}
		if req.UPCCode != "" {
			code := req.UPCCode
			p.Code = &code
		}
		f.products = append(f.products, p)
		writeJSON(w, http.StatusCreated, p)
	case "/assign-upc", "/init-upc":
		var req types.AssignCodeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for i := range f.products {
			if f.products[i].ID == req.ID {
				code := req.UPCCode
				f.products[i].Code = &code
				writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, types.ErrorResponse{Error: "product not found"})
	case "/update-product":
		var req types.UpdateQuantityRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for i := range f.products {
			if f.products[i].ID == req.ID {
				q := f.products[i].Quantity.Int() + req.Quantity
				if q < 0 {
					q = 0
				}
				f.products[i].Quantity = types.Quantity(q)
				writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, types.ErrorResponse{Error: "product not found"})
	case "/update-log":
		if f.failLog {
			writeJSON(w, http.StatusInternalServerError, types.ErrorResponse{Error: "log table unavailable"})
			return
		}
		var req types.AppendLogRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.logs = append(f.logs, req)
		writeJSON(w, http.StatusCreated, map[string]string{"message": "ok"})
	case "/display-stock":
		writeJSON(w, http.StatusOK, f.products)
	case "/display-brands":
		writeJSON(w, http.StatusOK, []types.BrandSummary{{Brand: "Cisco", ProductCount: 2, TotalQuantity: 9}})
	case "/display-types":
		writeJSON(w, http.StatusOK, []types.TypeSummary{{ProductType: "Switch", ProductCount: 1, TotalQuantity: 4}})
	case "/display-models":
		var out []types.Product
		for _, p := range f.products {
			if p.Brand == r.URL.Query().Get("brand") && p.ProductType == r.URL.Query().Get("type") {
				out = append(out, p)
			}
		}
		writeJSON(w, http.StatusOK, out)
	case "/display-product-name":
		id, _ := strconv.Atoi(r.URL.Query().Get("id"))
		for _, p := range f.products {
			if p.ID == id {
				writeJSON(w, http.StatusOK, types.ProductNameResponse{ProductName: p.ProductName})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, types.ErrorResponse{Error: "product not found"})
	case "/product-image":
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "multipart form required"})
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
			return
		}
		file.Close()
		id, _ := strconv.Atoi(r.URL.Query().Get("id"))
		for i := range f.products {
			if f.products[i].ID == id {
				u := "https://cdn.example.com/products/" + header.Filename
				f.products[i].ImageURL = &u
				writeJSON(w, http.StatusOK, f.products[i])
				return
			}
		}
		writeJSON(w, http.StatusNotFound, types.ErrorResponse{Error: "product not found"})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) callsTo(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == path {
			n++
		}
	}
	return n
}

func (f *fakeAPI) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeAPI) appendedLogs() []types.AppendLogRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.AppendLogRequest(nil), f.logs...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// staticSession is a logged-in identity that never expires.
type staticSession struct {
	name string
}

func (s staticSession) Token() string                      { return "tok-test" }
func (s staticSession) Teardown(ctx context.Context) error { return nil }
func (s staticSession) Current() (types.Session, bool) {
	return types.Session{Token: "tok-test", User: types.User{ID: "u-1", Name: s.name}}, true
}

func newTransport(t *testing.T, f *fakeAPI) *gateway.Gateway {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return gateway.New(api.New(srv.URL, nil, log.Nop()), staticSession{name: "Alice"}, log.Nop())
}

func code(s string) *string {
	return &s
}
