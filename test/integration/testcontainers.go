package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/joshmarlow/data-schema/pkg/audit"
	"github.com/joshmarlow/data-schema/pkg/config"
	"github.com/joshmarlow/data-schema/pkg/db"
	"github.com/joshmarlow/data-schema/pkg/server"
	"github.com/joshmarlow/data-schema/pkg/server/endpoints"
	"github.com/joshmarlow/data-schema/pkg/server/store/cache"
	gormstore "github.com/joshmarlow/data-schema/pkg/server/store/gorm"
)

// jwtSecret signs the tokens the scenarios present to write endpoints
const jwtSecret = "integration-secret"

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	DB            *gorm.DB
	Container     testcontainers.Container
	ServerURL     string
	DatabaseURL   string
	Config        *config.Config
	HTTPClient    *http.Client
	ServerProcess *exec.Cmd
	InlineServer  *server.Server
}

// NewTestContext creates a new test context with a PostgreSQL testcontainer.
// Modes:
//   - Binary mode (default): Set DATA_SCHEMA_BINARY to the path of the dataschemactl binary
//   - Inline mode: Set DATA_SCHEMA_INLINE=1 to run the server in-process (no binary needed)
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	inlineMode, binaryPath, err := serverMode()
	if err != nil {
		return nil, err
	}

	pgContainer, connStr, err := startDatabase(ctx, migrationsDir)
	if err != nil {
		return nil, err
	}

	database, err := db.Connect(db.Config{URL: connStr})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}

	port, err := freePort()
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}

	cfg := &config.Config{
		DatabaseURL:          connStr,
		BindAddress:          "127.0.0.1",
		Port:                 port,
		LogLevel:             "error",
		SchemaCacheSize:      cache.DefaultSize,
		MaxRecordsPerRequest: 5,
		JWTSecret:            jwtSecret,
		JWTIssuer:            "data-schema",
		TokenTTL:             300,
	}

	tc := &TestContext{
		DB:          database,
		Container:   pgContainer,
		ServerURL:   fmt.Sprintf("http://127.0.0.1:%d", port),
		DatabaseURL: connStr,
		Config:      cfg,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}

	if inlineMode {
		err = tc.startInlineServer()
	} else {
		err = tc.startBinary(binaryPath)
	}
	if err != nil {
		tc.Close(ctx)
		return nil, err
	}

	if err := waitForServer(tc.ServerURL, 30*time.Second); err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}
	return tc, nil
}

// serverMode reports whether to run the server inline, or else which binary to run
func serverMode() (bool, string, error) {
	inlineMode := os.Getenv("DATA_SCHEMA_INLINE") == "1"
	binaryPath := os.Getenv("DATA_SCHEMA_BINARY")

	if inlineMode {
		log.Println("Using inline server mode")
		return true, "", nil
	}
	if binaryPath == "" {
		return false, "", errors.New("either DATA_SCHEMA_BINARY or DATA_SCHEMA_INLINE=1 is required.\n\n" +
			"Binary mode:\n  go build -o dataschemactl ./cmd/dataschemactl\n" +
			"  INTEGRATION_TEST=1 DATA_SCHEMA_BINARY=$(pwd)/dataschemactl go test -v ./test/integration/...\n\n" +
			"Inline mode:\n  INTEGRATION_TEST=1 DATA_SCHEMA_INLINE=1 go test -v ./test/integration/...")
	}
	if _, err := os.Stat(binaryPath); err != nil {
		return false, "", fmt.Errorf("DATA_SCHEMA_BINARY path does not exist: %s", binaryPath)
	}
	log.Printf("Using binary: %s", binaryPath)
	return false, binaryPath, nil
}

// startDatabase starts a migrated PostgreSQL container and returns its connection string
func startDatabase(ctx context.Context, migrationsDir string) (*tcpostgres.PostgresContainer, string, error) {
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("data_schema"),
		tcpostgres.WithUsername("data_schema"),
		tcpostgres.WithPassword("data_schema"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get connection string: %w", err)
	}

	if _, _, err := db.MigrateUp(connStr, migrationsDir); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to run migrations: %w", err)
	}
	return pgContainer, connStr, nil
}

// startInlineServer starts the server in-process (no binary needed)
func (tc *TestContext) startInlineServer() error {
	cached, err := cache.New(gormstore.NewDataSchemaStore(tc.DB), tc.Config.SchemaCacheSize)
	if err != nil {
		return err
	}

	sqlDB, err := tc.DB.DB()
	if err != nil {
		return err
	}

	s := server.NewServer(cached, gormstore.NewHealthStore(tc.DB), tc.Config, zap.NewNop())
	s.Audit.SetWriter(io.Discard)
	s.Audit.SetStore(audit.NewStore(sqlDB))
	endpoints.RegisterAll(s)

	go func() {
		_ = s.Start()
	}()
	tc.InlineServer = s
	return nil
}

// startBinary starts the dataschemactl server binary
func (tc *TestContext) startBinary(binaryPath string) error {
	cmd := exec.Command(binaryPath, "server", "--no-migrate",
		"-b", tc.Config.BindAddress, "-p", fmt.Sprintf("%d", tc.Config.Port))
	cmd.Env = append(os.Environ(),
		"DATABASE_URL="+tc.DatabaseURL,
		"DATA_SCHEMA_CONFIG_PATH="+os.TempDir(),
		"DATA_SCHEMA_JWT_SECRET="+tc.Config.JWTSecret,
		"DATA_SCHEMA_JWT_ISSUER="+tc.Config.JWTIssuer,
		fmt.Sprintf("DATA_SCHEMA_MAX_RECORDS_PER_REQUEST=%d", tc.Config.MaxRecordsPerRequest),
		"DATA_SCHEMA_LOG_LEVEL="+tc.Config.LogLevel,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start binary: %w", err)
	}
	tc.ServerProcess = cmd
	return nil
}

// ResetAudit empties the audit trail. Schemas are removed through the API so the
// server's cache is purged with them.
func (tc *TestContext) ResetAudit() error {
	return tc.DB.Exec("TRUNCATE audit_messages RESTART IDENTITY").Error
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.InlineServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = tc.InlineServer.Shutdown(shutdownCtx)
		cancel()
	}
	if tc.ServerProcess != nil && tc.ServerProcess.Process != nil {
		_ = tc.ServerProcess.Process.Kill()
		_ = tc.ServerProcess.Wait()
	}
	if tc.DB != nil {
		if sqlDB, err := tc.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// waitForServer polls the health endpoint until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to allocate a port: %w", err)
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// findProjectRoot locates the project root directory
func findProjectRoot() (string, error) {
	for _, p := range []string{"../..", "..", "."} {
		if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
			return filepath.Abs(p)
		}
	}
	return "", errors.New("project root not found (looking for go.mod)")
}
