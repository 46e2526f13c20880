package endpoints

import (
	"github.com/joshmarlow/data-schema/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoints(srv)
	RegisterSchemasEndpoints(srv)
	RegisterFieldsEndpoints(srv)
	RegisterConvertEndpoints(srv)
	RegisterDocsEndpoints(srv)
}
