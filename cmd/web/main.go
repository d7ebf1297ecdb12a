//go:generate templ generate -path ../../views

package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"whopays/internal/config"
	"whopays/internal/handlers"
	"whopays/internal/session"
	"whopays/internal/wheel"
	"whopays/pkg/realtime"
)

func main() {
	// A local .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settle := cfg.SettleDelay
	if settle == 0 {
		// The wheel treats zero as "use the default".
		settle = -1
	}
	store := session.NewStore(session.Options{
		Clock:        realtime.RealClock{},
		Source:       wheel.DefaultSource(),
		SpinDuration: cfg.SpinDuration,
		SettleDelay:  settle,
		Watchdog:     cfg.SpinWatchdog,
		Logger:       logger,
	})
	store.RunJanitor(ctx, cfg.SessionTTL)

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return err
	}

	homeHandler := handlers.NewHomeHandler(store)
	wheelHandler := handlers.NewWheelHandler(store, cfg.BaseURL, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handlers.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		homeHandler.RegisterRoutes(r)
		wheelHandler.RegisterRoutes(r)
	})
	wheelHandler.RegisterStream(r)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Streams stay open; per-request timeouts come from middleware.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
		// Cancelling ctx ends open streams so Shutdown can drain.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

//go:embed static/*
var embeddedStatic embed.FS
