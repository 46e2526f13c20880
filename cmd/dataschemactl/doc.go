// Command dataschemactl manages data schemas and runs the data-schema server.
//
// # Quick Start
//
//	# Run database migrations
//	dataschemactl db migrate
//
//	# Load schema definitions
//	dataschemactl schema load schemas.yml
//
//	# Convert records with a schema
//	dataschemactl convert readings records.json
//
//	# Start the server
//	dataschemactl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - DATA_SCHEMA_CONFIG_PATH: directory holding data-schema.yml
//   - DATA_SCHEMA_JWT_SECRET: key for signing write tokens
//   - DATA_SCHEMA_LOG_LEVEL: Log level (debug, info, warn, error)
//   - PORT: Server port (default: 8080)
package main
