package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fc-integration/inventory/config"
	"github.com/fc-integration/inventory/internal/app"
	"github.com/fc-integration/inventory/internal/apperr"
	"github.com/fc-integration/inventory/internal/inventory"
	"github.com/fc-integration/inventory/internal/kv"
	"github.com/fc-integration/inventory/internal/log"
	"github.com/fc-integration/inventory/internal/nav"
	"github.com/fc-integration/inventory/internal/services"
	"github.com/fc-integration/inventory/internal/storage"
	"github.com/fc-integration/inventory/internal/store"
	"github.com/fc-integration/inventory/types"
)

const testSecret = "test-secret"

type codeInbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *codeInbox) Send(_ context.Context, user types.User, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[user.Email] = code
	return nil
}

func (c *codeInbox) code(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email]
}

type fixture struct {
	mem    *store.Memory
	images *storage.MemoryBackend
	inbox  *codeInbox
	server *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	inbox := &codeInbox{codes: make(map[string]string)}
	images := storage.NewMemoryBackend("product-images")
	router := NewRouter(Options{
		JWTSecret:    testSecret,
		Repositories: MemoryRepositories(mem),
		CodeSender:   inbox,
		ProductOptions: []services.ProductOption{
			services.WithImages(storage.NewStorage(images), "https://cdn.example.com"),
		},
		Log: log.Nop(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	users := services.NewUserService(mem.Users)
	ctx := context.Background()
	if _, err := users.Register(ctx, services.NewUser{Name: "Alice", Email: "alice@example.com", Password: "correct"}); err != nil {
		t.Fatalf("seed alice: %v", err)
	}
	if _, err := users.Register(ctx, services.NewUser{Name: "Bob", Email: "bob@example.com", Password: "correct", TwoFactor: true}); err != nil {
		t.Fatalf("seed bob: %v", err)
	}
	return &fixture{mem: mem, images: images, inbox: inbox, server: srv}
}

func (f *fixture) client(t *testing.T, slots kv.Store) (*app.App, *nav.Recorder) {
	t.Helper()
	recorder := &nav.Recorder{}
	cfg := config.Config{API: config.APIConfig{BaseURL: f.server.URL}}
	a, err := app.NewWithSlots(context.Background(), cfg, log.Nop(), slots, f.server.Client(), recorder)
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	return a, recorder
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.server.URL + "/display-stock")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLoginScanCreateAdjustLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slots := kv.NewMemoryStore()
	a, recorder := f.client(t, slots)

	if _, err := a.Session.Login(ctx, "alice@example.com", "wrong"); err == nil {
		t.Fatalf("expected rejected login")
	} else {
		var authErr *apperr.AuthError
		if !errors.As(err, &authErr) || authErr.Message != "invalid credentials" {
			t.Fatalf("expected AuthError with server message, got %T %v", err, err)
		}
	}

	result, err := a.Session.Login(ctx, "alice@example.com", "correct")
	if err != nil || result.TwoFactorRequired {
		t.Fatalf("login: %+v %v", result, err)
	}
	if token, ok, _ := slots.Get(ctx, "userToken"); !ok || token == "" {
		t.Fatalf("token not persisted")
	}

	res, err := a.Resolver.Resolve(ctx, inventory.Query{Code: "999"})
	if err != nil || !res.NotFound {
		t.Fatalf("expected miss: %+v %v", res, err)
	}

	created, err := a.Resolver.Create(ctx, res.Code, inventory.NewProduct{Name: "Widget", Brand: "Acme", ProductType: "Tool", Quantity: "3"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if last, _ := recorder.Last(); last.Route != nav.RouteStock {
		t.Fatalf("expected navigation to stock, got %+v", last)
	}

	res, err = a.Resolver.Resolve(ctx, inventory.Query{Code: "999"})
	if err != nil || res.Product == nil || res.Product.Quantity != 3 {
		t.Fatalf("lookup after create: %+v %v", res, err)
	}

	m, err := a.Stock.Adjust(ctx, *res.Product, -10)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if m.Product.Quantity != 0 {
		t.Fatalf("expected clamp to 0, got %d", m.Product.Quantity)
	}

	server, err := f.mem.Products.GetByID(ctx, created.ID)
	if err != nil || server.Quantity != 0 {
		t.Fatalf("server quantity: %+v %v", server, err)
	}

	logs, err := a.Catalog.LatestLogs(ctx, "Alice")
	if err != nil {
		t.Fatalf("latest logs: %v", err)
	}
	if len(logs) < 3 || logs[0].Action != types.ActionRemove || *logs[0].QuantityBefore != 3 || *logs[0].QuantityAfter != 0 {
		t.Fatalf("unexpected log history %+v", logs)
	}

	brands, err := a.Catalog.Brands(ctx)
	if err != nil || len(brands) != 1 || brands[0].Brand != "Acme" {
		t.Fatalf("brands: %+v %v", brands, err)
	}

	if err := a.Session.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok, _ := slots.Get(ctx, "userToken"); ok {
		t.Fatalf("token must be removed on logout")
	}
	if err := a.Session.Logout(ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}

	var sawLogout bool
	for _, e := range f.mem.Logs.All() {
		if e.Action == types.ActionLogout && e.UserName != nil && *e.UserName == "Alice" {
			sawLogout = true
		}
	}
	if !sawLogout {
		t.Fatalf("server must record the LOGOUT entry")
	}
}

func TestTwoFactorFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.client(t, kv.NewMemoryStore())

	result, err := a.Session.Login(ctx, "bob@example.com", "correct")
	if err != nil || !result.TwoFactorRequired || result.Message == "" {
		t.Fatalf("expected two-factor challenge: %+v %v", result, err)
	}
	if _, ok := a.Session.Current(); ok {
		t.Fatalf("no session before verification")
	}

	if _, err := a.Session.VerifyTwoFactor(ctx, "bob@example.com", "000000x"); err == nil {
		t.Fatalf("expected wrong code to fail")
	}
	sess, err := a.Session.VerifyTwoFactor(ctx, "bob@example.com", f.inbox.code("bob@example.com"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sess.User.Name != "Bob" || !sess.Valid() {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestAssociateConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, recorder := f.client(t, kv.NewMemoryStore())
	if _, err := a.Session.Login(ctx, "alice@example.com", "correct"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := a.Resolver.Create(ctx, "111", inventory.NewProduct{Name: "Coded", Quantity: "1"}); err != nil {
		t.Fatalf("create coded: %v", err)
	}
	if _, err := a.Resolver.Create(ctx, inventory.NoCode, inventory.NewProduct{Name: "Uncoded", Quantity: "1"}); err != nil {
		t.Fatalf("create uncoded: %v", err)
	}

	stock, err := a.Catalog.AllStock(ctx)
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	picked := inventory.Filter(stock, "uncod")
	if len(picked) != 1 {
		t.Fatalf("filter: %+v", picked)
	}

	_, err = a.Resolver.Associate(ctx, "111", picked[0])
	var reqErr *apperr.RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != http.StatusConflict {
		t.Fatalf("a code used elsewhere must be rejected, got %T %v", err, err)
	}

	updated, err := a.Resolver.Associate(ctx, "222", picked[0])
	if err != nil || !updated.HasCode() {
		t.Fatalf("associate: %+v %v", updated, err)
	}
	if last, _ := recorder.Last(); last.Kind != "replace" || last.Route != nav.RouteProductDetails {
		t.Fatalf("unexpected navigation %+v", last)
	}
}

func TestExpiredTokenTearsDownSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slots := kv.NewMemoryStore()
	_ = slots.Set(ctx, "userToken", "forged-token")
	_ = slots.Set(ctx, "userData", `{"id":"u-x","name":"Mallory","email":"m@example.com","role":"USER"}`)
	a, recorder := f.client(t, slots)

	if err := a.RequireSession(); err != nil {
		t.Fatalf("session should be restored from slots: %v", err)
	}
	_, err := a.Catalog.AllStock(ctx)
	if !errors.Is(err, apperr.ErrSessionExpired) {
		t.Fatalf("expected session expiry, got %v", err)
	}
	if err := a.RequireSession(); !errors.Is(err, app.ErrNotLoggedIn) {
		t.Fatalf("session must be gone after 401")
	}
	if last, _ := recorder.Last(); last.Route != nav.RouteLogin {
		t.Fatalf("expected redirect to login, got %+v", last)
	}
}

func TestProductDetailsNotFoundBody(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.client(t, kv.NewMemoryStore())
	if _, err := a.Session.Login(ctx, "alice@example.com", "correct"); err != nil {
		t.Fatalf("login: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/product-details?barCode=404", nil)
	req.Header.Set("Authorization", "Bearer "+a.Session.Token())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(buf.String(), "Produit non trouvé.") {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, buf.String())
	}
}

func TestProductImageUploadAndDownload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.client(t, kv.NewMemoryStore())
	if _, err := a.Session.Login(ctx, "alice@example.com", "correct"); err != nil {
		t.Fatalf("login: %v", err)
	}
	created, err := a.Resolver.Create(ctx, "777", inventory.NewProduct{Name: "Dock", Quantity: "1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	png := "\x89PNG\r\n\x1a\n0000"
	if _, err := a.Catalog.UploadImage(ctx, created.ID, "first.png", strings.NewReader(png)); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	p, err := a.Catalog.UploadImage(ctx, created.ID, "second.png", strings.NewReader(png))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if f.images.Len() != 1 {
		t.Fatalf("replaced image must be deleted, have %d objects", f.images.Len())
	}

	key := strings.TrimPrefix(*p.ImageURL, "https://cdn.example.com/")
	resp, err := http.Get(f.server.URL + "/images/" + key)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != png || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected download %d %q %q", resp.StatusCode, resp.Header.Get("Content-Type"), body)
	}

	resp, err = http.Get(f.server.URL + "/images/products/1/missing.png")
	if err != nil {
		t.Fatalf("download missing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing image, got %d", resp.StatusCode)
	}

	if _, err := a.Catalog.UploadImage(ctx, created.ID, "notes.txt", strings.NewReader("plain text")); err == nil {
		t.Fatalf("non-image upload must be rejected")
	}
}
