// Package model defines the database models for data schemas.
//
// This package contains GORM models that map to the tables created by the
// migrations in db/migrations, and the conversions between those models and
// the domain types of the schema package.
//
// # Database Schema
//
//   - content_types: the (app_label, model) pairs schemas can be bound to
//   - data_schemas: named schemas, optionally bound to a content type
//   - field_schemas: the fields of a schema, unique per (data_schema_id, field_key)
package model
