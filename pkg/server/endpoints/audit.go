package endpoints

import (
	"net"
	"net/http"

	"github.com/joshmarlow/data-schema/pkg/audit"
	"github.com/joshmarlow/data-schema/pkg/server/middleware"
)

// logSchemaChange records the outcome of a write attempted on behalf of the token subject
func logSchemaChange(auditor *audit.Logger, r *http.Request, op audit.Operation, name, key string, err error) {
	subject, _ := middleware.Subject(r.Context())
	event := audit.SchemaChangeEvent{
		Subject:   subject,
		ClientIP:  clientIP(r),
		Schema:    name,
		Field:     key,
		Operation: op,
		Success:   err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	auditor.Log(event)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
