package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Simplici0/sourcing/internal/catalog"
	"github.com/Simplici0/sourcing/internal/config"
	"github.com/Simplici0/sourcing/internal/db"
	"github.com/Simplici0/sourcing/internal/fxrate"
	"github.com/Simplici0/sourcing/internal/logging"
	"github.com/Simplici0/sourcing/internal/metrics"
	"github.com/Simplici0/sourcing/internal/migrations"
	"github.com/Simplici0/sourcing/internal/seed"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	auth     *authService
	db       *sql.DB
	store    *catalog.Store
	eval     *catalog.Evaluator
	recorder *metrics.Recorder
	log      *zap.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database); err != nil {
			logger.Fatal("failed to run database migrations", zap.Error(err))
		}
	}

	stats, err := seed.Run(database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		AirChannel:    cfg.Pricing.AirChannel,
		DomesticFee:   cfg.Pricing.DomesticFee,
		AdFraction:    cfg.Pricing.AdFraction,
	})
	if err != nil {
		logger.Fatal("failed to seed database", zap.Error(err))
	}
	logger.Info("seed complete", zap.Int("inserts", stats.Inserts))

	recorder := metrics.New(prometheus.NewRegistry())
	fxOpts, cacheOpts := cfg.RateOptions()
	rates, closeRates := fxrate.NewProvider(context.Background(), fxOpts, cacheOpts, logger, recorder)
	defer closeRates()

	auth := newAuthService(database, cfg.SessionSecret)
	auth.secureCookies = !cfg.IsDev()

	store := catalog.NewStore(database, logger, recorder)
	srv := &server{
		auth:     auth,
		db:       database,
		store:    store,
		eval:     catalog.NewEvaluator(store, rates, cfg.Pricing.Fees, logger, recorder),
		recorder: recorder,
		log:      logger,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.authMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.recorder.Handler())
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Post("/quote", s.handleQuote)
		r.Get("/rate", s.handleRate)
		r.Get("/settings", s.handleSettingsGet)
		r.Post("/settings", s.handleSettingsSave)

		r.Get("/products", s.handleProductsList)
		r.Post("/products", s.handleProductCreate)
		r.Get("/products/{id}", s.handleProductGet)
		r.Post("/products/{id}", s.handleProductUpdate)
		r.Delete("/products/{id}", s.handleProductDelete)
		r.Post("/products/{id}/variants", s.handleVariantAppend)
		r.Delete("/products/{id}/variants/last", s.handleVariantRemoveLast)
		r.Get("/products/{id}/report", s.handleProductReport)
		r.Get("/products/{id}/text", s.handleProductText)
	})

	return r
}

var publicPaths = map[string]bool{
	"/login":   true,
	"/healthz": true,
	"/metrics": true,
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := s.auth.sessionEmail(r); !ok {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{Type: "UNAUTHORIZED", Message: "login required"}})
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
