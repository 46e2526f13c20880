package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshmarlow/data-schema/pkg/server/store"
)

func TestSchemaDocs(t *testing.T) {
	s := newMockServer("")
	s.store.On("FetchDataSchema", "readings").Return(readingsSchema(), nil)
	s.store.On("FetchDataSchema", "missing").Return(nil, store.ErrDataSchemaNotFound)

	tests := []struct {
		name        string
		path        string
		code        int
		contentType string
		contains    string
	}{
		{"html by default", "/schemas/readings/docs", http.StatusOK, "text/html; charset=utf-8", "<table>"},
		{"markdown", "/schemas/readings/docs?format=markdown", http.StatusOK, "text/markdown; charset=utf-8",
			"| `taken_at` | DATE | 1 | 1 | `%Y-%m-%d` |"},
		{"unknown format", "/schemas/readings/docs?format=pdf", http.StatusBadRequest, "application/json", "format"},
		{"unknown schema", "/schemas/missing/docs", http.StatusNotFound, "application/json", "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, "GET", tt.path, nil, "")

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}
