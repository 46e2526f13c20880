package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// WaitForDatabase pings dbURL every interval until it answers or ctx is done
func WaitForDatabase(ctx context.Context, dbURL string, interval time.Duration) error {
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	connector, err := pq.NewConnector(dbURL)
	if err != nil {
		return fmt.Errorf("invalid database URL: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	defer func() { _ = sqlDB.Close() }()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err = sqlDB.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not reachable: %w", err)
		case <-ticker.C:
		}
	}
}
