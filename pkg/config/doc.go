// Package config provides configuration management for data-schema.
//
// Configuration is layered: built-in defaults, then the optional YAML file
// $DATA_SCHEMA_CONFIG_PATH/data-schema.yml (default /etc/data-schema), then
// environment variables. The source of every attribute is tracked so that
// "dataschemactl configuration show" can report it.
//
// # Key Configuration Options
//
//   - DATABASE_URL: Database connection
//   - PORT: Server listen port
//   - DATA_SCHEMA_LOG_LEVEL: Logging verbosity
//   - DATA_SCHEMA_JWT_SECRET: Key for write request tokens
//   - DATA_SCHEMA_SCHEMA_CACHE_SIZE: Number of cached schemas
package config
