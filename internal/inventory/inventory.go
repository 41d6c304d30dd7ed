// Package inventory implements the product flows built on the gateway:
// barcode resolution, stock mutation and catalog browsing.
package inventory

import (
	"context"
	"io"
	"net/url"

	"github.com/fc-integration/inventory/types"
)

// Transport is the authenticated call surface the flows depend on.
// *gateway.Gateway satisfies it.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Upload(ctx context.Context, path string, query url.Values, contentType string, body io.Reader, out any) error
}

// Identity exposes the logged-in user. *session.Store satisfies it.
type Identity interface {
	Current() (types.Session, bool)
}

func ptr[T any](v T) *T {
	return &v
}
