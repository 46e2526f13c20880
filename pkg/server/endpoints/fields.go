package endpoints

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/joshmarlow/data-schema/pkg/audit"
	"github.com/joshmarlow/data-schema/pkg/schema"
	"github.com/joshmarlow/data-schema/pkg/server"
	"github.com/joshmarlow/data-schema/pkg/server/middleware"
	"github.com/joshmarlow/data-schema/pkg/server/store"
)

func RegisterFieldsEndpoints(s *server.Server) {
	router := s.Router
	dataSchemaStore := s.DataSchemaStore

	// PUT /schemas/{name}/fields - Replace the field set of a schema
	router.Handle("/schemas/{name}/fields", s.Protect(handleSyncFields(dataSchemaStore, s.Audit))).Methods("PUT")

	// PUT /schemas/{name}/fields/{key} - Create or update one field
	router.Handle("/schemas/{name}/fields/{key}", s.Protect(handleUpsertField(dataSchemaStore, s.Audit))).Methods("PUT")

	// DELETE /schemas/{name}/fields/{key} - Delete one field
	router.Handle("/schemas/{name}/fields/{key}", s.Protect(handleDeleteField(dataSchemaStore, s.Audit))).Methods("DELETE")
}

func handleSyncFields(dataSchemaStore store.DataSchemaStore, auditor *audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := pathVar(r, "name")

		var fields []schema.FieldSchema
		if !decodeJSON(w, r, &fields) {
			return
		}

		candidate := schema.DataSchema{Name: name, Fields: fields}
		if err := candidate.Validate(); err != nil {
			respondWithStoreError(w, r, err)
			return
		}
		err := dataSchemaStore.SyncFieldSchemas(name, fields)
		logSchemaChange(auditor, r, audit.OperationSyncFields, name, "", err)
		if err != nil {
			respondWithStoreError(w, r, err)
			return
		}

		respondWithUpdatedSchema(w, r, dataSchemaStore, name)
	}
}

func handleUpsertField(dataSchemaStore store.DataSchemaStore, auditor *audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := pathVar(r, "name")
		key := pathVar(r, "key")

		var field schema.FieldSchema
		if !decodeJSON(w, r, &field) {
			return
		}
		if field.FieldKey != "" && field.FieldKey != key {
			respondWithError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("field key %q does not match path key %q", field.FieldKey, key))
			return
		}
		field.FieldKey = key

		ds, err := dataSchemaStore.FetchDataSchema(name)
		if err != nil {
			respondWithStoreError(w, r, err)
			return
		}
		if existing, ok := ds.Field(key); ok {
			*existing = field
		} else {
			ds.Fields = append(ds.Fields, field)
		}
		if err := ds.Validate(); err != nil {
			respondWithStoreError(w, r, err)
			return
		}

		err = dataSchemaStore.UpsertFieldSchema(name, field)
		logSchemaChange(auditor, r, audit.OperationUpsertField, name, key, err)
		if err != nil {
			respondWithStoreError(w, r, err)
			return
		}

		respondWithUpdatedSchema(w, r, dataSchemaStore, name)
	}
}

func handleDeleteField(dataSchemaStore store.DataSchemaStore, auditor *audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := pathVar(r, "name")
		key := pathVar(r, "key")
		err := dataSchemaStore.DeleteFieldSchema(name, key)
		logSchemaChange(auditor, r, audit.OperationDeleteField, name, key, err)
		if err != nil {
			respondWithStoreError(w, r, err)
			return
		}
		middleware.Logger(r.Context()).Info("field deleted", zap.String("schema", name), zap.String("field", key))
		w.WriteHeader(http.StatusNoContent)
	}
}

func respondWithUpdatedSchema(
	w http.ResponseWriter, r *http.Request, dataSchemaStore store.DataSchemaStore, name string,
) {
	ds, err := dataSchemaStore.FetchDataSchema(name)
	if err != nil {
		respondWithStoreError(w, r, err)
		return
	}
	middleware.Logger(r.Context()).Info("fields updated", zap.String("schema", name), zap.Int("fields", len(ds.Fields)))
	respondWithJSON(w, http.StatusOK, ds)
}
