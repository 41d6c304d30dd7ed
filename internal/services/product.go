package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fc-integration/inventory/types"
)

// ProductRepository defines persistence operations for the stock table.
type ProductRepository interface {
	GetByID(ctx context.Context, id int) (types.Product, error)
	GetByCode(ctx context.Context, code string) (types.Product, error)
	GetByName(ctx context.Context, name string) (types.Product, error)
	Create(ctx context.Context, p types.Product) (types.Product, error)
	AssignCode(ctx context.Context, id int, code string) (types.Product, error)
	AdjustQuantity(ctx context.Context, id, delta int) (types.Product, int, error)
	SetImage(ctx context.Context, id int, imageURL string) (types.Product, error)
	List(ctx context.Context) ([]types.Product, error)
	Models(ctx context.Context, brand, productType string) ([]types.Product, error)
	Brands(ctx context.Context) ([]types.BrandSummary, error)
	Types(ctx context.Context, brand string) ([]types.TypeSummary, error)
}

// ImageStore is the object storage product images are written to.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// StockEvents receives a notification for every stock change.
type StockEvents interface {
	PublishStockEvent(ctx context.Context, event types.StockEvent) error
}

// ProductService encapsulates product use-cases.
type ProductService struct {
	repo      ProductRepository
	audit     *AuditService
	images    ImageStore
	imageBase string
	events    StockEvents
	log       zerolog.Logger
}

// ProductOption configures optional collaborators.
type ProductOption func(*ProductService)

// WithImages enables image upload; objects are served under baseURL.
func WithImages(images ImageStore, baseURL string) ProductOption {
	return func(s *ProductService) {
		s.images = images
		s.imageBase = strings.TrimRight(baseURL, "/")
	}
}

func WithStockEvents(events StockEvents) ProductOption {
	return func(s *ProductService) {
		s.events = events
	}
}

func NewProductService(repo ProductRepository, audit *AuditService, log zerolog.Logger, opts ...ProductOption) *ProductService {
	s := &ProductService{repo: repo, audit: audit, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup finds a product by code, or by name when code is empty.
func (s *ProductService) Lookup(ctx context.Context, code, name string) (types.Product, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	switch {
	case code != "":
		return s.repo.GetByCode(ctx, code)
	case name != "":
		return s.repo.GetByName(ctx, name)
	default:
		return types.Product{}, fmt.Errorf("%w: barCode or productName is required", ErrInvalid)
	}
}

func (s *ProductService) Get(ctx context.Context, id int) (types.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new product and records a CREATE entry for actor.
func (s *ProductService) Create(ctx context.Context, req types.NewProductRequest, actor string) (types.Product, error) {
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		return types.Product{}, fmt.Errorf("%w: product_name is required", ErrInvalid)
	}
	if req.Quantity < 0 {
		return types.Product{}, fmt.Errorf("%w: quantity must not be negative", ErrInvalid)
	}

	p := types.Product{
		ProductName: name,
		Brand:       strings.TrimSpace(req.Brand),
		Model:       strings.TrimSpace(req.Model),
		ProductType: strings.TrimSpace(req.ProductType),
		Quantity:    types.Quantity(req.Quantity),
	}
	if code := strings.TrimSpace(req.UPCCode); code != "" && code != "0" {
		p.Code = &code
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return types.Product{}, err
	}

	s.record(ctx, types.LogEntry{
		StockID:         &created.ID,
		UserName:        optional(actor),
		ItemDescription: &created.ProductName,
		Action:          types.ActionCreate,
		QuantityAfter:   intPtr(created.Quantity.Int()),
	})
	s.publish(ctx, created, types.ActionCreate, 0)
	return created, nil
}

func (s *ProductService) AssignCode(ctx context.Context, id int, code string) (types.Product, error) {
	code = strings.TrimSpace(code)
	if id < 1 || code == "" || code == "0" {
		return types.Product{}, fmt.Errorf("%w: id and upcCode are required", ErrInvalid)
	}
	return s.repo.AssignCode(ctx, id, code)
}

// AdjustQuantity applies delta, clamping the result at zero. The audit
// entry is appended by the caller through /update-log.
func (s *ProductService) AdjustQuantity(ctx context.Context, id, delta int) (types.Product, error) {
	if id < 1 {
		return types.Product{}, fmt.Errorf("%w: id is required", ErrInvalid)
	}
	updated, before, err := s.repo.AdjustQuantity(ctx, id, delta)
	if err != nil {
		return types.Product{}, err
	}
	action := types.ActionRemove
	if delta > 0 {
		action = types.ActionAdd
	}
	s.publish(ctx, updated, action, before)
	return updated, nil
}

// UploadImage stores the image and records its public URL on the product.
// The image it replaces is removed from storage.
func (s *ProductService) UploadImage(ctx context.Context, id int, filename string, r io.Reader, size int64, contentType string) (types.Product, error) {
	if s.images == nil {
		return types.Product{}, ErrImagesDisabled
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Product{}, err
	}

	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("products/%d/%s%s", id, uuid.NewString(), ext)
	if err := s.images.Put(ctx, key, r, size, contentType); err != nil {
		return types.Product{}, fmt.Errorf("store image: %w", err)
	}
	updated, err := s.repo.SetImage(ctx, id, s.imageBase+"/"+key)
	if err != nil {
		return types.Product{}, err
	}

	if old, ok := s.imageKey(current.ImageURL); ok {
		if err := s.images.Delete(ctx, old); err != nil {
			s.log.Warn().Err(err).Str("key", old).Msg("failed to remove replaced image")
		}
	}
	return updated, nil
}

// OpenImage streams a stored image. Only keys under products/ are served.
func (s *ProductService) OpenImage(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.images == nil {
		return nil, ErrImagesDisabled
	}
	key = path.Clean("/" + key)[1:]
	if !strings.HasPrefix(key, "products/") {
		return nil, ErrInvalid
	}
	return s.images.Get(ctx, key)
}

// imageKey maps an image URL written by UploadImage back to its key.
func (s *ProductService) imageKey(imageURL *string) (string, bool) {
	if imageURL == nil {
		return "", false
	}
	key, ok := strings.CutPrefix(*imageURL, s.imageBase+"/")
	if !ok || !strings.HasPrefix(key, "products/") {
		return "", false
	}
	return key, true
}

func (s *ProductService) List(ctx context.Context) ([]types.Product, error) {
	return s.repo.List(ctx)
}

func (s *ProductService) Brands(ctx context.Context) ([]types.BrandSummary, error) {
	return s.repo.Brands(ctx)
}

func (s *ProductService) Types(ctx context.Context, brand string) ([]types.TypeSummary, error) {
	return s.repo.Types(ctx, brand)
}

func (s *ProductService) Models(ctx context.Context, brand, productType string) ([]types.Product, error) {
	return s.repo.Models(ctx, brand, productType)
}

func (s *ProductService) record(ctx context.Context, entry types.LogEntry) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to append audit entry")
	}
}

func (s *ProductService) publish(ctx context.Context, p types.Product, action types.LogAction, before int) {
	if s.events == nil {
		return
	}
	event := types.StockEvent{
		ID:             uuid.NewString(),
		ProductID:      p.ID,
		Code:           p.Code,
		ProductName:    p.ProductName,
		Action:         action,
		QuantityBefore: before,
		QuantityAfter:  p.Quantity.Int(),
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.events.PublishStockEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Int("id", p.ID).Msg("failed to publish stock event")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func intPtr(n int) *int {
	return &n
}
