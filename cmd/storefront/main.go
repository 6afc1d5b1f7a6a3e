package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/render"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/state"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storefront"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.Lmicroseconds)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sharedHTTP := &http.Client{
		Timeout: cfg.UpstreamTimeout,
	}

	api := clients.NewClient("storefront-api", cfg.APIURL, sharedHTTP)

	catalog := clients.NewCatalogClient(api)
	cart := clients.NewCartClient(api)
	checkout := clients.NewCheckoutClient(api)
	auth := clients.NewAuthClient(api)

	repo, closeRepo, err := openState(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("state: %v", err)
	}
	defer closeRepo()

	publisher, closePublisher := openPublisher(cfg, repo, logger)
	defer closePublisher()

	mode, err := storefront.ParseSyncMode(cfg.SyncMode)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	store := storefront.NewStore(catalog, cart, repo, mode, logger)

	registry := storefront.NewRegistry()
	storefront.NewActions(store, cart, checkout, auth, publisher, logger, storefront.ActionsConfig{
		RedirectDelay: cfg.CheckoutRedirectDelay,
		HomePath:      "/",
	}).Register(registry)

	renderer, err := render.New(render.Options{
		StaticBaseURL: cfg.StaticBaseURL,
		Currency:      cfg.Currency,
	})
	if err != nil {
		logger.Fatalf("templates: %v", err)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:   logger,
		Cfg:      cfg,
		Store:    store,
		Renderer: renderer,
		Registry: registry,
		Session:  auth,
		HealthProbes: []clients.HealthProbe{
			{Name: "storefront-api", Client: api, Path: "/api/products"},
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Printf("listening on :%s (api=%s sync=%s state=%s)", cfg.Port, cfg.APIURL, mode, cfg.StateBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown error: %v", err)
	}
	logger.Printf("shutdown complete")
}

// openState picks the page-state backend. The memory backend is swept in
// the background until ctx ends.
func openState(ctx context.Context, cfg config.Config, logger *log.Logger) (state.Repository, func(), error) {
	switch cfg.StateBackend {
	case "redis":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rdb, err := state.DialRedis(dialCtx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Printf("page state in redis")
		return state.NewRedis(rdb, cfg.StateTTL), func() { _ = rdb.Close() }, nil
	case "memory":
		mem := state.NewMemory(cfg.StateTTL)
		if cfg.StateTTL > 0 {
			go sweep(ctx, mem, cfg.StateTTL, logger)
		}
		return mem, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}

func sweep(ctx context.Context, mem *state.Memory, every time.Duration, logger *log.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := mem.Sweep(); n > 0 {
				logger.Printf("swept %d expired page states", n)
			}
		}
	}
}

// openPublisher connects to RabbitMQ when configured. Activity events are
// best effort: without a broker the storefront runs with a no-op publisher.
func openPublisher(cfg config.Config, repo state.Repository, logger *log.Logger) (storefront.ActivityPublisher, func()) {
	if cfg.RabbitMQURL == "" {
		return events.Nop{}, func() {}
	}
	conn, err := events.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Printf("activity events disabled: %v", err)
		return events.Nop{}, func() {}
	}
	next := func(ctx context.Context, partitionKey string) (int64, error) {
		return repo.Next(ctx, partitionKey, state.ResourceEvents)
	}
	pub, err := events.NewRabbitPublisher(conn, next)
	if err != nil {
		_ = conn.Close()
		logger.Printf("activity events disabled: %v", err)
		return events.Nop{}, func() {}
	}
	logger.Printf("publishing activity events to %s", events.EventsExchange)
	return pub, func() {
		_ = pub.Close()
		_ = conn.Close()
	}
}
