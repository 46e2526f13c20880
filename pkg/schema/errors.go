package schema

import "errors"

var (
	// ErrFieldNotFound is returned when a record has no value for a field
	ErrFieldNotFound = errors.New("field not found in record")

	// ErrNoPosition is returned when a list record is addressed by a field without a position
	ErrNoPosition = errors.New("field has no position")

	// ErrUnsupportedRecord is returned for records that are not lists, maps or structs
	ErrUnsupportedRecord = errors.New("unsupported record type")

	// ErrNotSettable is returned when a value cannot be written into a record
	ErrNotSettable = errors.New("record value is not settable")

	// ErrConversion is returned when a value cannot be converted to a field type
	ErrConversion = errors.New("value conversion failed")

	// ErrInvalidSchema is returned by Validate
	ErrInvalidSchema = errors.New("invalid data schema")
)
