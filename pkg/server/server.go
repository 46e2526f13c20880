package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/joshmarlow/data-schema/pkg/audit"
	"github.com/joshmarlow/data-schema/pkg/config"
	"github.com/joshmarlow/data-schema/pkg/server/metrics"
	"github.com/joshmarlow/data-schema/pkg/server/middleware"
	"github.com/joshmarlow/data-schema/pkg/server/store"
)

// Version is reported by the status endpoint
var Version = "0.1.0"

type Server struct {
	Router  *mux.Router
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Audit   *audit.Logger

	DataSchemaStore store.DataSchemaStore
	HealthStore     store.HealthStore

	auth *middleware.JWTAuthenticator
	srv  *http.Server
}

func NewServer(
	dataSchemaStore store.DataSchemaStore,
	healthStore store.HealthStore,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := metrics.New()

	router := mux.NewRouter().UseEncodedPath()
	router.Use(middleware.RequestID(logger), m.Middleware)

	srv := &http.Server{
		Handler:      handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, router)),
		Addr:         cfg.Addr(),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	auditLogger := audit.NewLogger()
	auditLogger.SetErrorLogger(logger)

	s := &Server{
		Router:          router,
		Config:          cfg,
		Logger:          logger,
		Metrics:         m,
		Audit:           auditLogger,
		DataSchemaStore: dataSchemaStore,
		HealthStore:     healthStore,
		srv:             srv,
	}
	if cfg.AuthEnabled() {
		s.auth = middleware.NewJWTAuthenticator([]byte(cfg.JWTSecret), cfg.JWTIssuer)
	}
	return s
}

// Protect requires a bearer token on h when a token secret is configured
func (s *Server) Protect(h http.HandlerFunc) http.Handler {
	if s.auth == nil {
		return h
	}
	return s.auth.Middleware(h)
}

func (s *Server) Start() error {
	s.Logger.Info("server listening", zap.String("addr", s.srv.Addr), zap.Bool("auth", s.auth != nil))
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
