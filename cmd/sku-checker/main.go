package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/uttam4027/MHJ-SKU-Checker/internal/api"
	"github.com/uttam4027/MHJ-SKU-Checker/internal/browser"
	"github.com/uttam4027/MHJ-SKU-Checker/internal/checker"
	"github.com/uttam4027/MHJ-SKU-Checker/internal/config"
	"github.com/uttam4027/MHJ-SKU-Checker/internal/ratelimit"
	"github.com/uttam4027/MHJ-SKU-Checker/internal/run"
	"github.com/uttam4027/MHJ-SKU-Checker/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	// Setup logging
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run store and service; each run acquires its own browser session
	store := run.NewStore(cfg.Checker.RunHistory)
	svc := run.NewService(store, launchFunc(cfg, logger), logger)
	go svc.StartWorker(ctx)

	// Initialize API handlers
	handlers := api.NewHandlers(svc, store, cfg.Checker.DelaySeconds, logger)

	// Setup Chi router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Form page
	r.Get("/", web.Index)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// API Routes
	handlers.Routes(r)

	// Start server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr, "target", cfg.Target.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// launchFunc builds the per-run browser session wiring. The session is
// created when a run starts and handed back for release when it ends.
func launchFunc(cfg *config.Config, logger *slog.Logger) run.LaunchFunc {
	return func(delaySeconds int, hooks run.Hooks) (run.Checker, run.CloseFunc, error) {
		opts := browser.DefaultOptions()
		opts.Headless = cfg.Browser.Headless
		opts.Timeout = cfg.Browser.Timeout
		opts.UserAgent = cfg.Browser.UserAgent
		opts.ViewportWidth = cfg.Browser.ViewportWidth
		opts.ViewportHeight = cfg.Browser.ViewportHeight
		opts.AcceptLanguage = cfg.Browser.AcceptLanguage
		opts.TimezoneID = cfg.Browser.TimezoneID
		opts.Locale = cfg.Browser.Locale

		b, err := browser.New(opts)
		if err != nil {
			return nil, nil, err
		}

		fetcher := browser.NewFetcher(b, cfg.Checker.SettleDelay, logger)
		runner := checker.NewRunner(fetcher, checker.Config{
			BaseURL:     cfg.Target.BaseURL,
			Pacer:       ratelimit.NewFixedPacer(time.Duration(delaySeconds) * time.Second),
			OnItemStart: hooks.ItemStart,
			OnResult:    hooks.Result,
		}, logger)

		return runner, b.Close, nil
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
