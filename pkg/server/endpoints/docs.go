package endpoints

import (
	"net/http"

	"github.com/joshmarlow/data-schema/pkg/docs"
	"github.com/joshmarlow/data-schema/pkg/server"
	"github.com/joshmarlow/data-schema/pkg/server/store"
)

func RegisterDocsEndpoints(s *server.Server) {
	// GET /schemas/{name}/docs - Data dictionary as HTML, or Markdown with ?format=markdown
	s.Router.HandleFunc("/schemas/{name}/docs", handleSchemaDocs(s.DataSchemaStore)).Methods("GET")
}

func handleSchemaDocs(dataSchemaStore store.DataSchemaStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := dataSchemaStore.FetchDataSchema(pathVar(r, "name"))
		if err != nil {
			respondWithStoreError(w, r, err)
			return
		}

		switch r.URL.Query().Get("format") {
		case "", "html":
			page, err := docs.HTML(ds)
			if err != nil {
				respondWithStoreError(w, r, err)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(page)
		case "markdown":
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(docs.Markdown(ds)))
		default:
			respondWithError(w, http.StatusBadRequest, "format must be html or markdown")
		}
	}
}
