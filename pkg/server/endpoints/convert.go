package endpoints

import (
	"fmt"
	"net/http"

	"github.com/joshmarlow/data-schema/pkg/schema"
	"github.com/joshmarlow/data-schema/pkg/server"
	"github.com/joshmarlow/data-schema/pkg/server/metrics"
)

// ConvertError names the record that failed conversion
type ConvertError struct {
	Error  string `json:"error"`
	Record int    `json:"record"`
}

func RegisterConvertEndpoints(s *server.Server) {
	router := s.Router
	dataSchemaStore := s.DataSchemaStore
	limit := s.Config.MaxRecordsPerRequest

	// POST /schemas/{name}/convert - Convert records with a schema
	router.HandleFunc("/schemas/{name}/convert", handleConvert(s.Metrics, limit,
		func(r *http.Request) (*schema.DataSchema, error) {
			return dataSchemaStore.FetchDataSchema(pathVar(r, "name"))
		},
	)).Methods("POST")

	// POST /models/{app_label}/{model}/convert - Convert records with the schema of a model
	router.HandleFunc("/models/{app_label}/{model}/convert", handleConvert(s.Metrics, limit,
		func(r *http.Request) (*schema.DataSchema, error) {
			return dataSchemaStore.FetchDataSchemaForModel(pathVar(r, "app_label"), pathVar(r, "model"))
		},
	)).Methods("POST")
}

type schemaResolver func(r *http.Request) (*schema.DataSchema, error)

func handleConvert(m *metrics.Metrics, limit int, resolve schemaResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := resolve(r)
		if err != nil {
			respondWithStoreError(w, r, err)
			return
		}

		var records []any
		if !decodeJSON(w, r, &records) {
			return
		}
		if limit > 0 && len(records) > limit {
			respondWithError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("%d records exceed the limit of %d", len(records), limit))
			return
		}

		converted, index, err := ds.ConvertRecords(records)
		if err != nil {
			m.RecordConversion(ds.Name, err)
			respondWithJSON(w, http.StatusUnprocessableEntity, ConvertError{Error: err.Error(), Record: index})
			return
		}
		for range converted {
			m.RecordConversion(ds.Name, nil)
		}
		respondWithJSON(w, http.StatusOK, converted)
	}
}
