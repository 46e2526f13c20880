package endpoints

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/joshmarlow/data-schema/pkg/audit"
	"github.com/joshmarlow/data-schema/pkg/schema"
	"github.com/joshmarlow/data-schema/pkg/server"
	"github.com/joshmarlow/data-schema/pkg/server/middleware"
	"github.com/joshmarlow/data-schema/pkg/server/store"
)

func RegisterSchemasEndpoints(s *server.Server) {
	router := s.Router
	dataSchemaStore := s.DataSchemaStore

	// GET /schemas - List schemas
	router.HandleFunc("/schemas", handleListSchemas(dataSchemaStore)).Methods("GET")

	// POST /schemas - Create a schema with its fields
	router.Handle("/schemas", s.Protect(handleCreateSchema(dataSchemaStore, s.Audit))).Methods("POST")

	// GET /schemas/{name} - Fetch a schema
	router.HandleFunc("/schemas/{name}", handleFetchSchema(dataSchemaStore)).Methods("GET")

	// DELETE /schemas/{name} - Delete a schema and its fields
	router.Handle("/schemas/{name}", s.Protect(handleDeleteSchema(dataSchemaStore, s.Audit))).Methods("DELETE")
}

func handleListSchemas(dataSchemaStore store.DataSchemaStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		schemas, err := dataSchemaStore.ListDataSchemas()
		if err != nil {
			respondWithStoreError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, schemas)
	}
}

func handleFetchSchema(dataSchemaStore store.DataSchemaStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := dataSchemaStore.FetchDataSchema(pathVar(r, "name"))
		if err != nil {
			respondWithStoreError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, ds)
	}
}

func handleCreateSchema(dataSchemaStore store.DataSchemaStore, auditor *audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ds schema.DataSchema
		if !decodeJSON(w, r, &ds) {
			return
		}
		if err := ds.Validate(); err != nil {
			respondWithStoreError(w, r, err)
			return
		}
		err := dataSchemaStore.CreateDataSchema(&ds)
		logSchemaChange(auditor, r, audit.OperationCreate, ds.Name, "", err)
		if err != nil {
			respondWithStoreError(w, r, err)
			return
		}

		middleware.Logger(r.Context()).Info("schema created", zap.String("schema", ds.Name),
			zap.Int("fields", len(ds.Fields)))
		w.Header().Set("Location", "/schemas/"+ds.Name)
		respondWithJSON(w, http.StatusCreated, ds)
	}
}

func handleDeleteSchema(dataSchemaStore store.DataSchemaStore, auditor *audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := pathVar(r, "name")
		err := dataSchemaStore.DeleteDataSchema(name)
		logSchemaChange(auditor, r, audit.OperationDelete, name, "", err)
		if err != nil {
			respondWithStoreError(w, r, err)
			return
		}
		middleware.Logger(r.Context()).Info("schema deleted", zap.String("schema", name))
		w.WriteHeader(http.StatusNoContent)
	}
}
