package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/fc-integration/inventory/config"
	"github.com/fc-integration/inventory/internal/db"
	"github.com/fc-integration/inventory/internal/handlers"
	"github.com/fc-integration/inventory/internal/mq"
	"github.com/fc-integration/inventory/internal/services"
	"github.com/fc-integration/inventory/internal/storage"
	"github.com/fc-integration/inventory/internal/store"
	"github.com/fc-integration/inventory/types"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.MQ
	log        zerolog.Logger
}

// Repositories are the persistence backends the API serves from.
type Repositories struct {
	Users     services.UserRepository
	Products  services.ProductRepository
	Logs      services.LogRepository
	TwoFactor services.TwoFactorRepository
}

// MemoryRepositories adapts an in-memory store.
func MemoryRepositories(m *store.Memory) Repositories {
	return Repositories{Users: m.Users, Products: m.Products, Logs: m.Logs, TwoFactor: m.TwoFactor}
}

// PostgresRepositories adapts an open database.
func PostgresRepositories(conn *sql.DB) Repositories {
	return Repositories{
		Users:     store.NewUserRepository(conn),
		Products:  store.NewProductRepository(conn),
		Logs:      store.NewLogRepository(conn),
		TwoFactor: store.NewTwoFactorRepository(conn),
	}
}

// Options configure the router built by NewRouter.
type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	Repositories   Repositories
	CodeSender     services.CodeSender
	ProductOptions []services.ProductOption
	Log            zerolog.Logger
	RequestLog     bool
}

// NewRouter builds the API routes on opts.
func NewRouter(opts Options) *chi.Mux {
	users := services.NewUserService(opts.Repositories.Users)
	audit := services.NewAuditService(opts.Repositories.Logs)
	sender := opts.CodeSender
	if sender == nil {
		sender = services.LogCodeSender{Log: opts.Log}
	}
	twoFactor := services.NewTwoFactorService(opts.Repositories.TwoFactor, sender)
	products := services.NewProductService(opts.Repositories.Products, audit, opts.Log, opts.ProductOptions...)

	authHandler := handlers.NewAuthHandler(users, twoFactor, audit, opts.JWTSecret, opts.TokenTTL, opts.Log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
	)
	if opts.RequestLog {
		router.Use(middleware.Logger)
	}
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, authHandler)
	handlers.ProductRouter(router, handlers.NewProductHandler(products, users, opts.Log), authHandler.RequireAuth)
	handlers.LogRouter(router, handlers.NewLogHandler(audit), authHandler.RequireAuth)
	return router
}

// New constructs a Server from configuration, connecting to the database,
// object storage and broker it names.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	s := &Server{log: log}

	var repos Repositories
	switch cfg.Database.Backend {
	case "memory":
		log.Warn().Msg("using in-memory store, data is lost on restart")
		repos = MemoryRepositories(store.NewMemory())
	case "", "postgres":
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.db = conn
		repos = PostgresRepositories(conn)
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}

	var productOpts []services.ProductOption
	images, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("open image storage: %w", err)
	}
	if images != nil {
		base := cfg.Storage.PublicBaseURL
		if base == "" {
			// Served by the API itself, relative to its base URL.
			base = "/images"
		}
		productOpts = append(productOpts, services.WithImages(images, base))
	}

	events, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("open message broker: %w", err)
	}
	if events != nil {
		s.events = events
		productOpts = append(productOpts, services.WithStockEvents(mq.NewStockEvents(events, cfg.MQ.Channel)))
	}

	if err := seedAdmin(ctx, services.NewUserService(repos.Users), cfg.Admin); err != nil {
		s.close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	s.router = NewRouter(Options{
		JWTSecret:      jwtSecret,
		TokenTTL:       cfg.TokenTTL,
		Repositories:   repos,
		ProductOptions: productOpts,
		Log:            log,
		RequestLog:     true,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 4000
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func seedAdmin(ctx context.Context, users *services.UserService, admin config.AdminConfig) error {
	if strings.TrimSpace(admin.Email) == "" {
		return nil
	}
	_, err := users.Register(ctx, services.NewUser{
		Name:      admin.Name,
		Email:     admin.Email,
		Password:  admin.Password,
		Role:      types.RoleAdmin,
		TwoFactor: admin.TwoFactor,
	})
	if errors.Is(err, store.ErrConflict) {
		return nil
	}
	return err
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("inventory api listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
