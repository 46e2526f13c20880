// Package server provides the HTTP server of the data-schema API.
//
// The server routes with gorilla/mux, writes an access log with gorilla/handlers and
// records Prometheus metrics for every route. Endpoints are registered by the endpoints
// subpackage:
//
//	srv := server.NewServer(dataSchemaStore, healthStore, cfg, logger)
//	endpoints.RegisterAll(srv)
//	err := srv.Start()
//
// Endpoints that change schemas are wrapped with Server.Protect, which requires an HS256
// bearer token when a JWT secret is configured.
package server
