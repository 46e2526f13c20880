package endpoints

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joshmarlow/data-schema/pkg/config"
	"github.com/joshmarlow/data-schema/pkg/server"
	"github.com/joshmarlow/data-schema/pkg/server/middleware"
	"github.com/joshmarlow/data-schema/pkg/server/store/storetest"
)

const testSecret = "test-secret"

// mockServer is a server with every endpoint registered on mocked stores
type mockServer struct {
	*server.Server
	store  *storetest.MockDataSchemaStore
	health *storetest.MockHealthStore
	audit  *bytes.Buffer
}

func newTestConfig(secret string) *config.Config {
	return &config.Config{
		BindAddress:          "127.0.0.1",
		Port:                 0,
		LogLevel:             "info",
		MaxRecordsPerRequest: 3,
		JWTSecret:            secret,
		JWTIssuer:            "data-schema",
		TokenTTL:             60,
	}
}

func newMockServer(secret string) *mockServer {
	dataSchemaStore := storetest.NewMockDataSchemaStore()
	healthStore := storetest.NewMockHealthStore()
	s := server.NewServer(dataSchemaStore, healthStore, newTestConfig(secret), zap.NewNop())
	RegisterAll(s)
	auditLog := &bytes.Buffer{}
	s.Audit.SetWriter(auditLog)
	return &mockServer{Server: s, store: dataSchemaStore, health: healthStore, audit: auditLog}
}

// do sends a request through the router. A non-nil body is encoded as JSON.
func (s *mockServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func issueTestToken(t *testing.T) string {
	t.Helper()
	token, err := middleware.IssueToken([]byte(testSecret), "data-schema", "tests", time.Minute)
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
