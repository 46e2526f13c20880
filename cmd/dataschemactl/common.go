package main

import (
	"fmt"
	"os"
	"os/user"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/joshmarlow/data-schema/pkg/audit"
	"github.com/joshmarlow/data-schema/pkg/config"
	"github.com/joshmarlow/data-schema/pkg/db"
	"github.com/joshmarlow/data-schema/pkg/logging"
	"github.com/joshmarlow/data-schema/pkg/server/store"
	gormstore "github.com/joshmarlow/data-schema/pkg/server/store/gorm"
)

// environment is what commands that talk to the database need
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	store  store.DataSchemaStore
	audit  *audit.Logger
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func connect() (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return connectWith(cfg)
}

func connectWith(cfg *config.Config) (*environment, error) {
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	database, err := db.Connect(db.Config{URL: cfg.DatabaseURL, Debug: cfg.DBDebug, Logger: logger})
	if err != nil {
		return nil, err
	}
	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	auditor := audit.NewLogger()
	auditor.SetWriter(os.Stderr)
	auditor.SetStore(audit.NewStore(sqlDB))
	auditor.SetErrorLogger(logger)

	return &environment{
		cfg:    cfg,
		logger: logger,
		db:     database,
		store:  gormstore.NewDataSchemaStore(database),
		audit:  auditor,
	}, nil
}

// operator names the local user in audit events
func operator() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "dataschemactl"
}

func (e *environment) close() {
	_ = e.logger.Sync()
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
