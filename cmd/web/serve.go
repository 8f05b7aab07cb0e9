package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/georgemunganga/mama-web/internal/modules/admin"
	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/auth"
	"github.com/georgemunganga/mama-web/internal/modules/catalog"
	"github.com/georgemunganga/mama-web/internal/modules/config"
	"github.com/georgemunganga/mama-web/internal/modules/content"
	"github.com/georgemunganga/mama-web/internal/modules/metrics"
	"github.com/georgemunganga/mama-web/internal/modules/order"
	"github.com/georgemunganga/mama-web/internal/modules/render"
	"github.com/georgemunganga/mama-web/internal/modules/session"
	"github.com/georgemunganga/mama-web/internal/modules/site"
	"github.com/georgemunganga/mama-web/internal/modules/storage"
	"github.com/georgemunganga/mama-web/internal/modules/storefront"
)

func runServe(cmd *cobra.Command, args []string) error {
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	if !dotenv {
		logger.Debug("no .env file, using process environment")
	}
	if cfg.APIBaseURL == "" && cfg.ServerBaseURL == "" && len(cfg.AllowedHosts) == 0 {
		logger.Warn("no API_BASE_URL or ALLOWED_HOSTS set, every host resolves to the local API")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("session store ready", zap.String("driver", cfg.StoreDriver))

	router, err := newRouter(cfg, store, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mama-web starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ── Store ────────────────────────────────────────────────

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func() error, error) {
	noop := func() error { return nil }
	var (
		db    *sql.DB
		store storage.Store
		err   error
	)
	switch cfg.StoreDriver {
	case "memory", "":
		return storage.NewMemoryStore(), noop, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, noop, errors.New("STORE_DRIVER=postgres requires DATABASE_URL")
		}
		if db, err = sql.Open("postgres", cfg.DatabaseURL); err != nil {
			return nil, noop, err
		}
		store = storage.NewPostgresStore(db)
	case "sqlite":
		if db, err = sql.Open("sqlite", cfg.SQLitePath); err != nil {
			return nil, noop, err
		}
		db.SetMaxOpenConns(1)
		store = storage.NewSQLiteStore(db)
	default:
		return nil, noop, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, noop, fmt.Errorf("connect %s store: %w", cfg.StoreDriver, err)
	}
	if err := storage.EnsureSchema(ctx, store); err != nil {
		db.Close()
		return nil, noop, err
	}
	return store, db.Close, nil
}

// ── Router ───────────────────────────────────────────────

func newRouter(cfg *config.Config, store storage.Store, logger *zap.Logger) (*chi.Mux, error) {
	api := apiclient.New(cfg.Resolver(), &http.Client{Timeout: cfg.HTTPTimeout}, logger)
	rd, err := render.New(api, render.Options{
		AdminSearchDelay:  cfg.AdminSearchDelay,
		PublicSearchDelay: cfg.PublicSearchDelay,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	authService := auth.NewService(api, logger)
	catalogService := catalog.NewService(catalog.NewAPIRepository(api))
	orderService := order.NewService(order.NewAPIRepository(api), catalogService, cfg.CheckoutRevalidate, logger)
	loader := content.NewLoader(api, cfg.ContentCacheTTL, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", metrics.Handler())
	router.Handle("/static/*", render.Static())

	// Browser routes share the session and the signed-in user.
	browser := chi.NewRouter()
	browser.Use(session.NewManager(store, cfg.CookieSecure).Middleware)
	browser.Use(auth.Attach(authService, cfg.AuthRecheck, logger))
	browser.Use(middleware.Compress(5, "text/html", "text/css"))
	browser.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rd.Error(w, r, http.StatusNotFound, "Page introuvable.")
	})

	site.NewHandler(loader, authService, rd, logger).RegisterRoutes(browser)
	storefront.NewHandler(catalogService, orderService, rd, logger).RegisterRoutes(browser)
	admin.NewHandler(api, catalogService, orderService, rd, logger).RegisterRoutes(browser)
	router.Mount("/", browser)

	return router, nil
}

// requestLogger logs one line per request with zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.Bool("htmx", render.IsHTMX(r)))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
