package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/friotec/fieldservice-backend/api/routes"
	"github.com/friotec/fieldservice-backend/internal/auth"
	"github.com/friotec/fieldservice-backend/internal/bootstrap"
	"github.com/friotec/fieldservice-backend/internal/customers"
	"github.com/friotec/fieldservice-backend/internal/serviceorders"
	"github.com/friotec/fieldservice-backend/internal/users"
	"github.com/friotec/fieldservice-backend/pkg/auth/session"
	"github.com/friotec/fieldservice-backend/pkg/metrics"
	"github.com/friotec/fieldservice-backend/pkg/outbox"
	"github.com/friotec/fieldservice-backend/pkg/outbox/registry"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, "api")
	bootstrap.Exit(nil, "api bootstrap failed", err)

	err = run(ctx, rt)
	if closeErr := rt.Close(); closeErr != nil {
		rt.Logger.Error(ctx, "error closing connections", closeErr)
	}
	bootstrap.Exit(rt.Logger, "api server stopped unexpectedly", err)
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	cfg, logg := rt.Config, rt.Logger

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sessions, err := session.NewManager(rt.Redis, cfg.JWT)
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(rt.DB.DB()),
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             rt.DB,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("register service: %w", err)
	}

	minter, err := serviceorders.NewCodeMinter(cfg.Orders, rt.Redis)
	if err != nil {
		return fmt.Errorf("code minter: %w", err)
	}
	customersRepo := customers.NewRepository(rt.DB.DB())
	orders, err := serviceorders.NewService(serviceorders.ServiceParams{
		Repo:         serviceorders.NewRepository(rt.DB.DB()),
		Customers:    customersRepo,
		TxRunner:     rt.DB,
		Outbox:       outbox.NewService(outbox.NewRepository(rt.DB.DB()), logg),
		Minter:       minter,
		Metrics:      metrics.NewWorkflowMetrics(promRegistry),
		Logger:       logg,
		ListMaxLimit: cfg.Orders.ListMaxLimit,
	})
	if err != nil {
		return fmt.Errorf("service order service: %w", err)
	}
	events, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return fmt.Errorf("event registry: %w", err)
	}

	if cfg.App.IsProd() && len(cfg.App.CORSOrigins) == 0 {
		logg.Warn(ctx, "no CORS origins configured for prod; falling back to localhost origins")
	}
	port := cfg.App.Port
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: routes.NewRouter(
			cfg,
			logg,
			rt.DB,
			rt.Redis,
			sessions,
			promRegistry,
			metrics.NewHTTPMetrics(promRegistry),
			authService,
			registerService,
			customersRepo,
			orders,
			outbox.NewDLQRepository(rt.DB.DB()),
			events,
		),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx = rt.Context(ctx, map[string]any{"addr": server.Addr, "code_strategy": minter.Strategy()})
	logg.Info(ctx, "starting api server")
	return serve(ctx, server)
}

// serve runs server until ctx ends, then drains in-flight requests.
func serve(ctx context.Context, server *http.Server) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
