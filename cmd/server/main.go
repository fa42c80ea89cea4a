package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spark-career/spark/internal/ai"
	"github.com/spark-career/spark/internal/analytics"
	"github.com/spark-career/spark/internal/app"
	"github.com/spark-career/spark/internal/assistant"
	"github.com/spark-career/spark/internal/catalog"
	"github.com/spark-career/spark/internal/platform/cache"
	"github.com/spark-career/spark/internal/platform/config"
	"github.com/spark-career/spark/internal/platform/database"
	"github.com/spark-career/spark/internal/quiz"
	"github.com/spark-career/spark/internal/web"
)

const sweepInterval = time.Minute

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Log.NewLogger())

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

// application is the wired process: HTTP handler plus the resources it
// owns.
type application struct {
	handler http.Handler
	closers []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	a := &application{}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	cat, err := catalog.Load(cfg.ContentPath)
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	quizzes, err := quiz.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("loading quizzes: %w", err)
	}

	router := newRouter(cfg)
	var budget ai.BudgetChecker
	if cfg.AI.SessionTokenBudget > 0 {
		budget = ai.NewInMemoryBudget(int64(cfg.AI.SessionTokenBudget))
	}
	asst := assistant.New(assistant.Config{
		AI:     router,
		Budget: budget,
		FAQs:   cat.FAQs(),
	})

	checks := make(map[string]web.Checker)
	var backend app.Backend
	var memory *app.MemoryBackend
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to cache: %w", err)
		}
		a.closers = append(a.closers, func() { c.Close() })
		checks["cache"] = c
		backend = app.NewRedisBackend(c)
		slog.Info("sessions stored in redis")
	} else {
		memory = app.NewMemoryBackend()
		backend = memory
		slog.Info("sessions stored in memory")
	}

	var events analytics.EventLogger = analytics.NopEventLogger{}
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx, analytics.Schema...); err != nil {
			return nil, err
		}
		checks["database"] = db
		events = analytics.NewPostgresEventLogger(db.Pool)
	}

	svc := app.NewService(app.Config{
		Store:     app.NewStore(backend, cfg.Session.TTL()),
		Catalog:   cat,
		Quizzes:   quizzes,
		Assistant: asst,
		Events:    events,
	})

	if memory != nil {
		sweepCtx, cancel := context.WithCancel(ctx)
		a.closers = append(a.closers, cancel)
		go memory.RunSweeper(sweepCtx, sweepInterval, svc.SessionExpired)
	}

	a.handler = web.New(svc, web.Options{
		SecureCookie: cfg.Session.SecureCookie,
		SessionTTL:   cfg.Session.TTL(),
		Events:       events,
		Checks:       checks,
	}).Handler()
	ok = true
	return a, nil
}

// newRouter registers the configured completion providers, Groq first.
func newRouter(cfg *config.Config) *ai.Router {
	router := ai.NewDefaultRouter(
		ai.Endpoint{APIKey: cfg.AI.Groq.APIKey, Model: cfg.AI.Groq.Model},
		ai.Endpoint{APIKey: cfg.AI.OpenAI.APIKey, Model: cfg.AI.OpenAI.Model},
	)
	if !router.HasProvider() {
		slog.Warn("no AI provider configured, chat will report the missing key")
	}
	return router
}
