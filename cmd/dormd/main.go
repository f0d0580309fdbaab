package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"go.uber.org/zap"

	"github.com/jadedragon942/dorm/config"
	"github.com/jadedragon942/dorm/httpapi"
	"github.com/jadedragon942/dorm/logging"
	"github.com/jadedragon942/dorm/orm"
	"github.com/jadedragon942/dorm/storage"
	_ "github.com/jadedragon942/dorm/storage/cockroach"
	_ "github.com/jadedragon942/dorm/storage/oracle"
	_ "github.com/jadedragon942/dorm/storage/postgres"
	_ "github.com/jadedragon942/dorm/storage/sqlite"
	_ "github.com/jadedragon942/dorm/storage/sqlserver"
	_ "github.com/jadedragon942/dorm/storage/tidb"
	_ "github.com/jadedragon942/dorm/storage/yugabyte"
)

// Options are the command-line flags. Everything else comes from the
// config file and environment.
type Options struct {
	Config string `help:"Path to a YAML config file" short:"c"`
	Port   int    `help:"Port to listen on, overriding the config" short:"p"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		cfg, err := config.Load(opts.Config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		if opts.Port > 0 {
			cfg.Port = opts.Port
		}

		logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
			os.Exit(1)
		}

		mgr := orm.NewManager(cfg.Engine, cfg.PoolOptions(), logger).
			WithConnectTimeout(cfg.Pool.ConnectTimeout).
			WithValueScreening(cfg.Pool.ScreenValues)

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           httpapi.NewRouter(httpapi.NewService(mgr, logger)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		hooks.OnStart(func() {
			defer logger.Sync() //nolint:errcheck

			if cfg.DatabaseURL != "" {
				if _, err := mgr.Connect(context.Background(), cfg.DatabaseURL); err != nil {
					logger.Error("Startup connect failed", zap.String("error", logging.SanitizeError(err)))
				}
			}

			logger.Info("Starting dormd",
				zap.Int("port", cfg.Port),
				zap.String("engine", cfg.Engine),
				zap.Strings("dialects", storage.Names()))

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("Server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("Stopping dormd")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				logger.Warn("Shutdown failed", zap.Error(err))
			}
			mgr.Close()
		})
	})

	cli.Run()
}
