package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fc-integration/inventory/internal/log"
	"github.com/fc-integration/inventory/internal/store"
	"github.com/fc-integration/inventory/types"
)

type capturedCode struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *capturedCode) Send(_ context.Context, user types.User, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codes == nil {
		c.codes = make(map[string]string)
	}
	c.codes[user.Email] = code
	return nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	users := NewUserService(store.NewMemory().Users)

	user, err := users.Register(ctx, NewUser{Name: "Alice", Email: "alice@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" || user.Role != types.RoleUser || user.PasswordHash == "s3cret" {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := users.Authenticate(ctx, "ALICE@example.com", "s3cret"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := users.Authenticate(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := users.Authenticate(ctx, "nobody@example.com", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if _, err := users.Register(ctx, NewUser{Name: "Alice", Email: "alice@example.com", Password: "x"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate email, got %v", err)
	}
}

func TestTwoFactorIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	sender := &capturedCode{}
	svc := NewTwoFactorService(store.NewMemory().TwoFactor, sender)
	user := types.User{Email: "bob@example.com"}

	if err := svc.Issue(ctx, user); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := sender.codes["bob@example.com"]
	if len(code) != 6 {
		t.Fatalf("expected six digit code, got %q", code)
	}

	if err := svc.Verify(ctx, "bob@example.com", "not-it"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if err := svc.Verify(ctx, "bob@example.com", code); err != nil {
		t.Fatalf("retry with right code: %v", err)
	}
	if err := svc.Verify(ctx, "bob@example.com", code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("a code is single use, got %v", err)
	}
}

func TestTwoFactorExpiry(t *testing.T) {
	ctx := context.Background()
	sender := &capturedCode{}
	svc := NewTwoFactorService(store.NewMemory().TwoFactor, sender)
	now := time.Now()
	svc.now = func() time.Time { return now }

	_ = svc.Issue(ctx, types.User{Email: "bob@example.com"})
	svc.now = func() time.Time { return now.Add(defaultCodeTTL + time.Second) }

	if err := svc.Verify(ctx, "bob@example.com", sender.codes["bob@example.com"]); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expired code must be rejected, got %v", err)
	}
}

type recordedEvents struct {
	events []types.StockEvent
}

func (r *recordedEvents) PublishStockEvent(_ context.Context, e types.StockEvent) error {
	r.events = append(r.events, e)
	return nil
}

type memoryImages struct {
	objects map[string][]byte
}

func (m *memoryImages) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memoryImages) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryImages) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestProductLifecycle(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	events := &recordedEvents{}
	images := &memoryImages{objects: make(map[string][]byte)}
	svc := NewProductService(mem.Products, NewAuditService(mem.Logs), log.Nop(),
		WithStockEvents(events),
		WithImages(images, "https://cdn.example.com/"),
	)

	created, err := svc.Create(ctx, types.NewProductRequest{ProductName: "Widget", Quantity: 3, UPCCode: "999"}, "Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Code == nil || *created.Code != "999" {
		t.Fatalf("code not stored: %+v", created)
	}
	entries := mem.Logs.All()
	if len(entries) != 1 || entries[0].Action != types.ActionCreate || *entries[0].UserName != "Alice" {
		t.Fatalf("expected CREATE entry, got %+v", entries)
	}

	found, err := svc.Lookup(ctx, "999", "")
	if err != nil || found.ID != created.ID || found.Quantity != 3 {
		t.Fatalf("lookup: %+v %v", found, err)
	}

	updated, err := svc.AdjustQuantity(ctx, created.ID, -10)
	if err != nil || updated.Quantity != 0 {
		t.Fatalf("adjust: %+v %v", updated, err)
	}
	if len(events.events) != 2 || events.events[1].Action != types.ActionRemove || events.events[1].QuantityBefore != 3 {
		t.Fatalf("unexpected events %+v", events.events)
	}

	withImage, err := svc.UploadImage(ctx, created.ID, "photo.JPG", bytes.NewReader([]byte("jpeg")), 4, "image/jpeg")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if withImage.ImageURL == nil || !strings.HasPrefix(*withImage.ImageURL, "https://cdn.example.com/products/") || !strings.HasSuffix(*withImage.ImageURL, ".jpg") {
		t.Fatalf("unexpected image url %v", withImage.ImageURL)
	}
	if len(images.objects) != 1 {
		t.Fatalf("expected one stored object")
	}

	replaced, err := svc.UploadImage(ctx, created.ID, "photo2.png", bytes.NewReader([]byte("png")), 3, "image/png")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(images.objects) != 1 {
		t.Fatalf("replaced image must be removed, have %d objects", len(images.objects))
	}

	key := strings.TrimPrefix(*replaced.ImageURL, "https://cdn.example.com/")
	rc, err := svc.OpenImage(ctx, key)
	if err != nil {
		t.Fatalf("open image: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "png" {
		t.Fatalf("unexpected image bytes %q", data)
	}
	if _, err := svc.OpenImage(ctx, "../secrets/key"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("keys outside products/ must be rejected, got %v", err)
	}
}

func TestProductValidation(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewProductService(mem.Products, NewAuditService(mem.Logs), log.Nop())

	if _, err := svc.Create(ctx, types.NewProductRequest{ProductName: " "}, "Alice"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty name, got %v", err)
	}
	if _, err := svc.Lookup(ctx, "", ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty lookup, got %v", err)
	}
	if _, err := svc.UploadImage(ctx, 1, "a.png", strings.NewReader("x"), 1, "image/png"); !errors.Is(err, ErrImagesDisabled) {
		t.Fatalf("expected ErrImagesDisabled, got %v", err)
	}
	created, _ := svc.Create(ctx, types.NewProductRequest{ProductName: "NoCode", UPCCode: "0"}, "")
	if created.HasCode() {
		t.Fatalf("code 0 must mean no code")
	}
}
