// Package app wires the client components from configuration.
package app

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fc-integration/inventory/config"
	"github.com/fc-integration/inventory/internal/api"
	"github.com/fc-integration/inventory/internal/gateway"
	"github.com/fc-integration/inventory/internal/inventory"
	"github.com/fc-integration/inventory/internal/kv"
	"github.com/fc-integration/inventory/internal/nav"
	"github.com/fc-integration/inventory/internal/session"
)

// ErrNotLoggedIn is returned by RequireSession when no session was restored.
var ErrNotLoggedIn = errors.New("not logged in, run `fcinv login` first")

type App struct {
	Config   config.Config
	Log      zerolog.Logger
	Slots    kv.Store
	Nav      nav.Navigator
	Session  *session.Store
	Gateway  *gateway.Gateway
	Resolver *inventory.Resolver
	Stock    *inventory.StockService
	Catalog  *inventory.Catalog
}

// New opens the session slots selected by cfg and restores any persisted
// session.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	slots, err := kv.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithSlots(ctx, cfg, logger, slots, http.DefaultClient, nav.NewLogNavigator(logger))
}

// NewWithSlots builds the app on explicit collaborators.
func NewWithSlots(ctx context.Context, cfg config.Config, logger zerolog.Logger, slots kv.Store, httpClient *http.Client, navigator nav.Navigator) (*App, error) {
	client := api.New(cfg.API.BaseURL, httpClient, logger)
	store := session.NewStore(client, slots, navigator, logger)
	gw := gateway.New(client, store, logger)

	if _, ok, err := store.Restore(ctx); err != nil {
		return nil, err
	} else if ok {
		logger.Debug().Msg("session restored")
	}

	return &App{
		Config:   cfg,
		Log:      logger,
		Slots:    slots,
		Nav:      navigator,
		Session:  store,
		Gateway:  gw,
		Resolver: inventory.NewResolver(gw, navigator, logger),
		Stock:    inventory.NewStockService(gw, store, logger),
		Catalog:  inventory.NewCatalog(gw),
	}, nil
}

// RequireSession fails when no user is logged in.
func (a *App) RequireSession() error {
	if _, ok := a.Session.Current(); !ok {
		return ErrNotLoggedIn
	}
	return nil
}

func (a *App) Close() error {
	if c, ok := a.Slots.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
