// Package bootstrap holds the startup steps shared by every binary.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/friotec/fieldservice-backend/pkg/config"
	"github.com/friotec/fieldservice-backend/pkg/db"
	"github.com/friotec/fieldservice-backend/pkg/instance"
	"github.com/friotec/fieldservice-backend/pkg/logger"
	"github.com/friotec/fieldservice-backend/pkg/migrate"
	"github.com/friotec/fieldservice-backend/pkg/redis"
)

// Runtime is the configured process: config, logger and the shared
// database and redis connections.
type Runtime struct {
	Kind   string
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
	Redis  *redis.Client
}

// Start loads .env and config for kind, connects to Postgres (running dev
// migrations when enabled) and Redis. Callers must Close the result.
func Start(ctx context.Context, kind string) (*Runtime, error) {
	logg := logger.New(logger.Options{ServiceName: kind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = kind

	rt := &Runtime{
		Kind:   kind,
		Config: cfg,
		Logger: logger.New(logger.Options{
			ServiceName: kind,
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
		}),
	}
	if err := rt.connect(ctx); err != nil {
		return nil, multierr.Append(err, rt.Close())
	}
	return rt, nil
}

func (rt *Runtime) connect(ctx context.Context) (err error) {
	if rt.DB, err = db.New(ctx, rt.Config.DB, rt.Logger); err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	if err = migrate.MaybeRunDev(ctx, rt.Config, rt.Logger, rt.DB); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}
	if rt.Redis, err = redis.New(ctx, rt.Config.Redis, rt.Logger); err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	return nil
}

// Context decorates ctx with the fields every startup log line carries.
func (rt *Runtime) Context(ctx context.Context, extra map[string]any) context.Context {
	fields := map[string]any{
		"env":         rt.Config.App.Env,
		"serviceKind": rt.Kind,
		"instance":    instance.GetID(),
	}
	for k, v := range extra {
		fields[k] = v
	}
	return rt.Logger.WithFields(ctx, fields)
}

// Close releases the connections opened by Start.
func (rt *Runtime) Close() error {
	var err error
	if rt.Redis != nil {
		err = multierr.Append(err, rt.Redis.Close())
	}
	if rt.DB != nil {
		err = multierr.Append(err, rt.DB.Close())
	}
	return err
}

// Exit logs err and terminates the process. It is a no-op for nil.
func Exit(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "bootstrap"})
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
