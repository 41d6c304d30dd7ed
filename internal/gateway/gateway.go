// Package gateway wraps every authenticated call to the inventory API.
package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/fc-integration/inventory/internal/api"
	"github.com/fc-integration/inventory/internal/apperr"
)

// Credentials is the slice of the session store the gateway needs.
type Credentials interface {
	Token() string
	Teardown(ctx context.Context) error
}

// Gateway attaches the current bearer token and tears the session down
// when the server rejects it. It never retries.
type Gateway struct {
	client *api.Client
	creds  Credentials
	log    zerolog.Logger
}

func New(client *api.Client, creds Credentials, log zerolog.Logger) *Gateway {
	return &Gateway{
		client: client,
		creds:  creds,
		log:    log.With().Str("component", "gateway").Logger(),
	}
}

// Do sends req with the session token. A 401 clears the session and
// returns *apperr.SessionExpiredError; other failures come back as
// *apperr.RequestError.
func (g *Gateway) Do(ctx context.Context, req api.Request, out any) error {
	req.Token = g.creds.Token()

	err := g.client.Do(ctx, req, out)
	if err == nil {
		return nil
	}

	var reqErr *apperr.RequestError
	if errors.As(err, &reqErr) && reqErr.Unauthorized() {
		g.log.Warn().Str("path", req.Path).Msg("token rejected, tearing down session")
		if tErr := g.creds.Teardown(ctx); tErr != nil {
			g.log.Error().Err(tErr).Msg("session teardown failed")
		}
		return &apperr.SessionExpiredError{Cause: reqErr}
	}
	return err
}

func (g *Gateway) Get(ctx context.Context, path string, query url.Values, out any) error {
	return g.Do(ctx, api.Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, api.Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Upload posts a pre-encoded body such as a multipart form.
func (g *Gateway) Upload(ctx context.Context, path string, query url.Values, contentType string, body io.Reader, out any) error {
	return g.Do(ctx, api.Request{
		Method:      http.MethodPost,
		Path:        path,
		Query:       query,
		RawBody:     body,
		ContentType: contentType,
	}, out)
}
