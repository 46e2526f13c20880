// Package store provides storage abstractions for data schemas.
//
// This package defines interfaces for database operations, allowing the
// server endpoints, the loader and the CLI to be decoupled from the specific
// database implementation. This enables easier testing with mocks.
//
// # Available Stores
//
//   - DataSchemaStore: schema and field operations
//   - HealthStore: database connectivity
//
// Implementations live in the gorm sub-package; the cache sub-package wraps
// any DataSchemaStore with an LRU read cache.
//
// # Usage
//
//	schemas := gorm.NewDataSchemaStore(db)
//	s, err := schemas.FetchDataSchema("animal_weight")
//	if err != nil {
//	    if errors.Is(err, store.ErrDataSchemaNotFound) {
//	        // Handle not found
//	    }
//	}
package store
