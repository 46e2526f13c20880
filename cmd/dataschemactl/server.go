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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshmarlow/data-schema/pkg/audit"
	"github.com/joshmarlow/data-schema/pkg/config"
	"github.com/joshmarlow/data-schema/pkg/db"
	"github.com/joshmarlow/data-schema/pkg/server"
	"github.com/joshmarlow/data-schema/pkg/server/endpoints"
	"github.com/joshmarlow/data-schema/pkg/server/store/cache"
	gormstore "github.com/joshmarlow/data-schema/pkg/server/store/gorm"
)

const (
	shutdownTimeout = 10 * time.Second
	dbWaitTimeout   = 30 * time.Second
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the data-schema server",
	Long: `Run the data-schema server.

The server requires a database URL, from DATABASE_URL or the config file.
Write endpoints require a bearer token when DATA_SCHEMA_JWT_SECRET is set.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServer(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().IntP("port", "p", 0, "server listen port (overrides configuration)")
	serverCmd.Flags().StringP("bind-address", "b", "", "server bind address (overrides configuration)")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}

func runServer(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServerFlags(cmd, cfg)

	waitCtx, cancelWait := context.WithTimeout(context.Background(), dbWaitTimeout)
	err = db.WaitForDatabase(waitCtx, cfg.DatabaseURL, time.Second)
	cancelWait()
	if err != nil {
		return err
	}

	env, err := connectWith(cfg)
	if err != nil {
		return err
	}
	defer env.close()

	if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
		if err := migrateOnStart(env, cfg); err != nil {
			return err
		}
	}

	s, err := buildServer(env, cfg)
	if err != nil {
		return err
	}
	return serve(s, env.logger)
}

func applyServerFlags(cmd *cobra.Command, cfg *config.Config) {
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}
	if host, _ := cmd.Flags().GetString("bind-address"); host != "" {
		cfg.BindAddress = host
	}
}

func migrateOnStart(env *environment, cfg *config.Config) error {
	env.logger.Info("running database migrations")
	version, applied, err := db.MigrateUp(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		return err
	}
	env.logger.Info("database migrated", zap.Uint("version", version), zap.Bool("applied", applied))
	return nil
}

func buildServer(env *environment, cfg *config.Config) (*server.Server, error) {
	cached, err := cache.New(gormstore.NewDataSchemaStore(env.db), cfg.SchemaCacheSize)
	if err != nil {
		return nil, err
	}
	s := server.NewServer(cached, gormstore.NewHealthStore(env.db), cfg, env.logger)
	if sqlDB, err := env.db.DB(); err == nil {
		s.Audit.SetStore(audit.NewStore(sqlDB))
	}
	endpoints.RegisterAll(s)
	return s, nil
}

// serve runs s until it fails or the process is signalled, then shuts it down
func serve(s *server.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}
