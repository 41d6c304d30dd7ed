package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fc-integration/inventory/internal/apperr"
	"github.com/fc-integration/inventory/types"
)

// Catalog reads the stock hierarchy (brands, types, models) and the audit
// log.
type Catalog struct {
	transport Transport
	now       func() time.Time
}

func NewCatalog(transport Transport) *Catalog {
	return &Catalog{transport: transport, now: time.Now}
}

func (c *Catalog) Brands(ctx context.Context) ([]types.BrandSummary, error) {
	var out []types.BrandSummary
	if err := c.transport.Get(ctx, "/display-brands", c.fresh(nil), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Catalog) Types(ctx context.Context, brand string) ([]types.TypeSummary, error) {
	var out []types.TypeSummary
	q := url.Values{"brand": {brand}}
	if err := c.transport.Get(ctx, "/display-types", c.fresh(q), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Catalog) Models(ctx context.Context, brand, productType string) ([]types.Product, error) {
	var out []types.Product
	q := url.Values{"brand": {brand}, "type": {productType}}
	if err := c.transport.Get(ctx, "/display-models", c.fresh(q), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AllStock lists every product; the association flow picks from it.
func (c *Catalog) AllStock(ctx context.Context) ([]types.Product, error) {
	var out []types.Product
	if err := c.transport.Get(ctx, "/display-stock", c.fresh(nil), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestLogs returns the most recent audit entries recorded for userName.
func (c *Catalog) LatestLogs(ctx context.Context, userName string) ([]types.LogEntry, error) {
	var out []types.LogEntry
	if err := c.transport.Get(ctx, "/latest-logs", url.Values{"user_name": {userName}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Product finds id in the full stock listing, the way the detail view is
// reached from the list.
func (c *Catalog) Product(ctx context.Context, id int) (types.Product, error) {
	items, err := c.AllStock(ctx)
	if err != nil {
		return types.Product{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return types.Product{}, &apperr.ValidationError{Field: "id", Message: fmt.Sprintf("product %d not found", id)}
}

func (c *Catalog) ProductName(ctx context.Context, id int) (string, error) {
	var out types.ProductNameResponse
	if err := c.transport.Get(ctx, "/display-product-name", url.Values{"id": {strconv.Itoa(id)}}, &out); err != nil {
		return "", err
	}
	return out.ProductName, nil
}

// UploadImage sends an image file for product id and returns the product
// with its new image_url.
func (c *Catalog) UploadImage(ctx context.Context, id int, filename string, r io.Reader) (types.Product, error) {
	if id <= 0 {
		return types.Product{}, &apperr.ValidationError{Field: "id", Message: "a product must be selected"}
	}
	if r == nil {
		return types.Product{}, &apperr.ValidationError{Field: "image", Message: "an image is required"}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return types.Product{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return types.Product{}, err
	}
	if err := writer.Close(); err != nil {
		return types.Product{}, err
	}

	var out types.Product
	q := url.Values{"id": {strconv.Itoa(id)}}
	if err := c.transport.Upload(ctx, "/product-image", q, writer.FormDataContentType(), &body, &out); err != nil {
		return types.Product{}, err
	}
	if out.ImageURL == nil {
		return types.Product{}, errors.New("server did not return an image url")
	}
	return out, nil
}

// fresh adds a timestamp so intermediaries never serve a cached listing.
func (c *Catalog) fresh(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	q.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	return q
}

// Filter keeps items whose name or model contains query, ignoring case.
// An empty query keeps everything.
func Filter(items []types.Product, query string) []types.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	out := make([]types.Product, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.ProductName), query) ||
			strings.Contains(strings.ToLower(item.Model), query) {
			out = append(out, item)
		}
	}
	return out
}
