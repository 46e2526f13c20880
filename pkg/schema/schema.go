package schema

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// MaxKeyLength is the maximum length of a field key and of a field format
const MaxKeyLength = 64

// ContentType identifies the kind of record a schema describes
type ContentType struct {
	AppLabel string `json:"app_label" yaml:"app_label"`
	Model    string `json:"model" yaml:"model"`
}

func (c ContentType) String() string {
	return c.AppLabel + "." + c.Model
}

// FieldSchema specifies the schema for a field in a piece of data.
type FieldSchema struct {
	ID           uint `json:"id,omitempty" yaml:"-"`
	DataSchemaID uint `json:"-" yaml:"-"`

	// FieldKey is the key of the field in the data
	FieldKey string `json:"key" yaml:"key"`

	// UniquenessOrder is the order in which this field appears in the unique key of a
	// record. Nil when the field is not part of the uniqueness constraint.
	UniquenessOrder *int `json:"uniqueness_order,omitempty" yaml:"uniqueness_order,omitempty"`

	// FieldPosition is the index of the field when the record is a list
	FieldPosition *int `json:"position,omitempty" yaml:"position,omitempty"`

	FieldType FieldType `json:"type" yaml:"type"`

	// FieldFormat is the parse format used when a string has to be converted to the field type
	FieldFormat *string `json:"format,omitempty" yaml:"format,omitempty"`
}

func (f *FieldSchema) format() string {
	if f.FieldFormat == nil {
		return ""
	}
	return *f.FieldFormat
}

// DataSchema is a named configuration of the fields of a record.
type DataSchema struct {
	ID          uint   `json:"id,omitempty" yaml:"-"`
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`

	// ModelContentType is the record type this schema relates to. Nil means the schema is for
	// a dictionary of data.
	ModelContentType *ContentType `json:"model,omitempty" yaml:"model,omitempty"`

	Fields []FieldSchema `json:"fields" yaml:"fields"`
}

// Field returns the field with the given key
func (s *DataSchema) Field(key string) (*FieldSchema, bool) {
	for i := range s.Fields {
		if s.Fields[i].FieldKey == key {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// UniqueFields returns the fields that make up the uniqueness constraint, ordered by
// uniqueness order.
func (s *DataSchema) UniqueFields() []*FieldSchema {
	var fields []*FieldSchema
	for i := range s.Fields {
		if s.Fields[i].UniquenessOrder != nil {
			fields = append(fields, &s.Fields[i])
		}
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return *fields[i].UniquenessOrder < *fields[j].UniquenessOrder
	})
	return fields
}

// SortedFields returns all fields ordered by position. Fields without a position come last.
func (s *DataSchema) SortedFields() []*FieldSchema {
	fields := make([]*FieldSchema, 0, len(s.Fields))
	for i := range s.Fields {
		fields = append(fields, &s.Fields[i])
	}
	sort.SliceStable(fields, func(i, j int) bool {
		pi, pj := fields[i].FieldPosition, fields[j].FieldPosition
		switch {
		case pi == nil:
			return false
		case pj == nil:
			return true
		default:
			return *pi < *pj
		}
	})
	return fields
}

// Convert reads every field out of obj and returns the converted values keyed by field key.
func (s *DataSchema) Convert(obj any) (map[string]any, error) {
	values := make(map[string]any, len(s.Fields))
	for _, f := range s.SortedFields() {
		v, err := f.GetValue(obj)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.FieldKey, err)
		}
		values[f.FieldKey] = v
	}
	return values, nil
}

// UniqueKey returns the converted values of the unique fields of obj in uniqueness order.
func (s *DataSchema) UniqueKey(obj any) ([]any, error) {
	fields := s.UniqueFields()
	key := make([]any, 0, len(fields))
	for _, f := range fields {
		v, err := f.GetValue(obj)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.FieldKey, err)
		}
		key = append(key, v)
	}
	return key, nil
}

// Record is a converted record with its unique key
type Record struct {
	Values    map[string]any `json:"values"`
	UniqueKey []any          `json:"unique_key"`
}

// ConvertRecord converts obj and computes its unique key
func (s *DataSchema) ConvertRecord(obj any) (*Record, error) {
	values, err := s.Convert(obj)
	if err != nil {
		return nil, err
	}
	key := make([]any, 0, len(values))
	for _, f := range s.UniqueFields() {
		key = append(key, values[f.FieldKey])
	}
	return &Record{Values: values, UniqueKey: key}, nil
}

// ConvertRecords converts every record. On failure it returns the index of the failing record.
func (s *DataSchema) ConvertRecords(records []any) ([]Record, int, error) {
	result := make([]Record, 0, len(records))
	for i, obj := range records {
		rec, err := s.ConvertRecord(obj)
		if err != nil {
			return nil, i, err
		}
		result = append(result, *rec)
	}
	return result, -1, nil
}

// Validate checks the schema and all of its fields. Every problem found is reported.
func (s *DataSchema) Validate() error {
	var result *multierror.Error

	if s.Name == "" {
		result = multierror.Append(result, fmt.Errorf("%w: name is required", ErrInvalidSchema))
	}
	if s.ModelContentType != nil && (s.ModelContentType.AppLabel == "" || s.ModelContentType.Model == "") {
		result = multierror.Append(result, fmt.Errorf("%w: model requires app_label and model", ErrInvalidSchema))
	}

	keys := map[string]bool{}
	positions := map[int]string{}
	orders := map[int]string{}
	for _, f := range s.Fields {
		if keys[f.FieldKey] {
			result = multierror.Append(result, fmt.Errorf("%w: duplicate field key %q", ErrInvalidSchema, f.FieldKey))
		}
		keys[f.FieldKey] = true

		result = multierror.Append(result,
			f.validate(),
			claim(positions, f.FieldPosition, f.FieldKey, "position"),
			claim(orders, f.UniquenessOrder, f.FieldKey, "uniqueness order"),
		)
	}

	return result.ErrorOrNil()
}

// claim records that key holds slot n, failing when another field already does
func claim(taken map[int]string, n *int, key, what string) error {
	if n == nil {
		return nil
	}
	if other, ok := taken[*n]; ok {
		return fmt.Errorf("%w: fields %q and %q share %s %d", ErrInvalidSchema, other, key, what, *n)
	}
	taken[*n] = key
	return nil
}

func (f *FieldSchema) validate() error {
	var result *multierror.Error

	switch {
	case f.FieldKey == "":
		result = multierror.Append(result, fmt.Errorf("%w: field key is required", ErrInvalidSchema))
	case len(f.FieldKey) > MaxKeyLength:
		result = multierror.Append(result, fmt.Errorf("%w: field key %q exceeds %d characters",
			ErrInvalidSchema, f.FieldKey, MaxKeyLength))
	}
	switch {
	case f.FieldType == 0:
		result = multierror.Append(result, fmt.Errorf("%w: field %q has no type", ErrInvalidSchema, f.FieldKey))
	case !f.FieldType.IsAFieldType():
		result = multierror.Append(result, fmt.Errorf("%w: field %q has unknown type %s",
			ErrInvalidSchema, f.FieldKey, f.FieldType))
	}
	if len(f.format()) > MaxKeyLength {
		result = multierror.Append(result, fmt.Errorf("%w: format of field %q exceeds %d characters",
			ErrInvalidSchema, f.FieldKey, MaxKeyLength))
	}
	if negative(f.FieldPosition) {
		result = multierror.Append(result, fmt.Errorf("%w: field %q has negative position", ErrInvalidSchema, f.FieldKey))
	}
	if negative(f.UniquenessOrder) {
		result = multierror.Append(result, fmt.Errorf("%w: field %q has negative uniqueness order",
			ErrInvalidSchema, f.FieldKey))
	}

	return result.ErrorOrNil()
}

func negative(n *int) bool {
	return n != nil && *n < 0
}

// Int returns a pointer to i
func Int(i int) *int {
	return &i
}

// String returns a pointer to s
func String(s string) *string {
	return &s
}

// Clone returns a deep copy of s
func (s *DataSchema) Clone() *DataSchema {
	c := *s
	if s.ModelContentType != nil {
		ct := *s.ModelContentType
		c.ModelContentType = &ct
	}
	c.Fields = make([]FieldSchema, len(s.Fields))
	for i, f := range s.Fields {
		if f.UniquenessOrder != nil {
			f.UniquenessOrder = Int(*f.UniquenessOrder)
		}
		if f.FieldPosition != nil {
			f.FieldPosition = Int(*f.FieldPosition)
		}
		if f.FieldFormat != nil {
			f.FieldFormat = String(*f.FieldFormat)
		}
		c.Fields[i] = f
	}
	return &c
}
