package store

import (
	"errors"

	"github.com/joshmarlow/data-schema/pkg/schema"
)

// ErrDataSchemaNotFound is returned when a data schema doesn't exist
var ErrDataSchemaNotFound = errors.New("data schema not found")

// ErrDataSchemaExists is returned when creating a data schema whose name is taken
var ErrDataSchemaExists = errors.New("data schema already exists")

// ErrFieldSchemaNotFound is returned when a field doesn't exist in a data schema
var ErrFieldSchemaNotFound = errors.New("field schema not found")

// DataSchemaStore abstracts data schema storage operations
type DataSchemaStore interface {
	// Transaction wraps operations in a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Transaction(fn func(DataSchemaStore) error) error

	// CreateDataSchema stores a schema with its content type and fields.
	// IDs are written back into s.
	// Returns ErrDataSchemaExists if the name is taken.
	CreateDataSchema(s *schema.DataSchema) error

	// FetchDataSchema retrieves a schema by name with its content type and fields.
	// Returns ErrDataSchemaNotFound if the schema doesn't exist.
	FetchDataSchema(name string) (*schema.DataSchema, error)

	// FetchDataSchemaForModel retrieves the schema bound to a content type.
	// Returns ErrDataSchemaNotFound if there is none.
	FetchDataSchemaForModel(appLabel, model string) (*schema.DataSchema, error)

	// ListDataSchemas returns all schemas ordered by name
	ListDataSchemas() ([]schema.DataSchema, error)

	// DeleteDataSchema removes a schema and its fields.
	DeleteDataSchema(name string) error

	// UpsertFieldSchema inserts a field or updates the field with the same key.
	UpsertFieldSchema(name string, f schema.FieldSchema) error

	// DeleteFieldSchema removes a field from a schema.
	// Returns ErrFieldSchemaNotFound if the schema has no such field.
	DeleteFieldSchema(name, key string) error

	// SyncFieldSchemas makes fields the complete field set of the schema: given fields are
	// upserted and the schema's other fields are deleted.
	SyncFieldSchemas(name string, fields []schema.FieldSchema) error
}
