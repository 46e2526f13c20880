// Package schema describes the shape of a piece of data and reads typed values out of it.
//
// A DataSchema is a named set of FieldSchemas. Each field has a key, an optional position
// (for list-shaped records), an optional uniqueness order (for building the record's
// unique key), a FieldType and an optional parse format.
//
// # Records
//
// A record can be a list, a map with string keys or a struct:
//
//	weight := schema.FieldSchema{FieldKey: "weight", FieldPosition: schema.Int(1), FieldType: schema.TypeFloat}
//	v, err := weight.GetValue([]any{"cow-1", "1,024.5 kg"}) // 1024.5
//
// Values read from a record are converted to the field's type with Convert:
//
//   - DATE, DATETIME: time.Time
//   - INT: int64
//   - FLOAT: float64
//   - STRING: string
//
// Struct fields are matched by the `dataschema:"key"` tag, then by name.
package schema
