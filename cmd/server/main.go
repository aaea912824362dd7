package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/firdesk/internal/api"
	"github.com/dgallion1/firdesk/internal/catalog"
	"github.com/dgallion1/firdesk/internal/classify"
	"github.com/dgallion1/firdesk/internal/collector"
	"github.com/dgallion1/firdesk/internal/config"
	"github.com/dgallion1/firdesk/internal/llm"
	"github.com/dgallion1/firdesk/internal/places"
	"github.com/dgallion1/firdesk/internal/render"
	"github.com/dgallion1/firdesk/internal/session"
	"github.com/dgallion1/firdesk/internal/store"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const (
	sessionSweep = time.Minute
	limiterSweep = 5 * time.Minute
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("could not read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize collaborators.
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	cat, err := catalog.Resolve(cfg.FieldCatalog, cfg.FieldCatalogPath)
	if err != nil {
		return err
	}

	var opts []collector.Option
	if cfg.StrictPaths {
		opts = append(opts, collector.WithStrictPaths())
	}
	sessions := session.NewRegistry(cfg.SessionTTL.Duration, log.With("component", "sessions"), opts...)

	gen, err := llm.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer gen.Close()

	renderer := render.NewChromeRenderer(cfg.ChromeBin, cfg.MaxConcurrentRender, log.With("component", "render"))
	defer renderer.Close()

	deps := api.Deps{
		Store:      st,
		Sessions:   sessions,
		Catalog:    cat,
		Renderer:   renderer,
		Classifier: classify.NewClient(cfg.ClassifierURL, cfg.ClassifierTopK),
		LLM:        llm.Instrument(gen, llm.NewStats(time.Hour)),
	}
	if cfg.PlacesAPIKey != "" {
		finder := places.NewClient(cfg.PlacesAPIKey, cfg.PlacesRadiusM)
		defer finder.Close()
		deps.Places = finder
	} else {
		log.Warn("GOOGLE_PLACES_API_KEY not set, police station lookup disabled")
	}
	if cfg.RateLimitRPS > 0 {
		deps.Limiter = api.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Initialize HTTP server.
	srv := api.NewServer(deps, log, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting firdesk", "port", cfg.Port, "store", cfg.StoreBackend,
			"llm", cfg.LLMProvider, "model", gen.Model(), "catalog", cat.Name)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx, sessionSweep)
	})
	if deps.Limiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(limiterSweep)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					deps.Limiter.Prune(limiterSweep)
				}
			}
		})
	}

	// Graceful shutdown.
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
