package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TagName is the struct tag used to bind a struct field to a field key
const TagName = "dataschema"

type structKey struct {
	t   reflect.Type
	key string
}

// struct field index paths, keyed by struct type and field key
var structFields sync.Map

// GetValue returns the converted value of the field in obj.
func (f *FieldSchema) GetValue(obj any) (any, error) {
	v, err := f.locate(obj)
	if err != nil {
		return nil, err
	}
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && !v.IsNil() {
		v = v.Elem()
	}
	var raw any
	if v.IsValid() && v.CanInterface() && !isNil(v) {
		raw = v.Interface()
	}
	return Convert(f.FieldType, raw, f.format())
}

// SetValue writes value into the field of obj. The value is stored as given, without
// conversion. Structs and arrays must be passed by pointer.
func (f *FieldSchema) SetValue(obj any, value any) error {
	rv := reflect.ValueOf(obj)
	if !rv.IsValid() {
		return ErrUnsupportedRecord
	}

	if rv.Kind() == reflect.Map {
		return f.setMapValue(rv, value)
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return fmt.Errorf("%w: nil record", ErrNotSettable)
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Map {
		return f.setMapValue(rv, value)
	}

	target, err := f.locateIn(rv)
	if err != nil {
		return err
	}
	if !target.CanSet() {
		return fmt.Errorf("%w: field %q of %s", ErrNotSettable, f.FieldKey, rv.Type())
	}
	nv, err := assignable(target.Type(), value)
	if err != nil {
		return fmt.Errorf("field %q: %w", f.FieldKey, err)
	}
	target.Set(nv)
	return nil
}

func (f *FieldSchema) setMapValue(m reflect.Value, value any) error {
	if m.IsNil() {
		return fmt.Errorf("%w: nil map", ErrNotSettable)
	}
	if m.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("%w: map keys must be strings", ErrUnsupportedRecord)
	}
	nv, err := assignable(m.Type().Elem(), value)
	if err != nil {
		return fmt.Errorf("field %q: %w", f.FieldKey, err)
	}
	m.SetMapIndex(reflect.ValueOf(f.FieldKey).Convert(m.Type().Key()), nv)
	return nil
}

// locate finds the raw value of the field in obj
func (f *FieldSchema) locate(obj any) (reflect.Value, error) {
	switch o := obj.(type) {
	case []any:
		i, err := f.position(len(o))
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(&o[i]).Elem(), nil
	case map[string]any:
		v, ok := o[f.FieldKey]
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: key %q", ErrFieldNotFound, f.FieldKey)
		}
		return reflect.ValueOf(&v).Elem(), nil
	}

	rv, err := indirect(reflect.ValueOf(obj))
	if err != nil {
		return reflect.Value{}, err
	}
	return f.locateIn(rv)
}

// indirect follows pointers and interfaces down to a concrete value
func indirect(rv reflect.Value) (reflect.Value, error) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}, ErrUnsupportedRecord
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return reflect.Value{}, ErrUnsupportedRecord
	}
	return rv, nil
}

// position checks the field position against a sequence of length n
func (f *FieldSchema) position(n int) (int, error) {
	if f.FieldPosition == nil {
		return 0, fmt.Errorf("%w: %q", ErrNoPosition, f.FieldKey)
	}
	if *f.FieldPosition < 0 || *f.FieldPosition >= n {
		return 0, fmt.Errorf("%w: position %d", ErrFieldNotFound, *f.FieldPosition)
	}
	return *f.FieldPosition, nil
}

func (f *FieldSchema) locateIn(rv reflect.Value) (reflect.Value, error) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		i, err := f.position(rv.Len())
		if err != nil {
			return reflect.Value{}, err
		}
		return rv.Index(i), nil
	case reflect.Map:
		return f.locateInMap(rv)
	case reflect.Struct:
		return f.locateInStruct(rv)
	}
	return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedRecord, rv.Type())
}

func (f *FieldSchema) locateInMap(rv reflect.Value) (reflect.Value, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return reflect.Value{}, fmt.Errorf("%w: map keys must be strings", ErrUnsupportedRecord)
	}
	v := rv.MapIndex(reflect.ValueOf(f.FieldKey).Convert(rv.Type().Key()))
	if !v.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: key %q", ErrFieldNotFound, f.FieldKey)
	}
	return v, nil
}

func (f *FieldSchema) locateInStruct(rv reflect.Value) (reflect.Value, error) {
	index, ok := structField(rv.Type(), f.FieldKey)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s has no field %q", ErrFieldNotFound, rv.Type(), f.FieldKey)
	}
	v, err := rv.FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrFieldNotFound, err)
	}
	return v, nil
}

// structField resolves a field key to an exported struct field: by tag, by exact name,
// then by name ignoring case and underscores.
func structField(t reflect.Type, key string) ([]int, bool) {
	sk := structKey{t: t, key: key}
	if index, ok := structFields.Load(sk); ok {
		return index.([]int), true
	}
	index := scanStruct(t, key)
	if index == nil {
		return nil, false
	}
	structFields.Store(sk, index)
	return index, true
}

func scanStruct(t reflect.Type, key string) []int {
	var untagged []reflect.StructField
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		name, tagged := tagName(sf)
		if !tagged {
			untagged = append(untagged, sf)
		} else if name == key {
			return sf.Index
		}
	}
	return matchName(untagged, key)
}

// matchName prefers an exact name match over one that ignores case and underscores
func matchName(fields []reflect.StructField, key string) []int {
	var byFold []int
	folded := foldKey(key)
	for _, sf := range fields {
		if sf.Name == key {
			return sf.Index
		}
		if byFold == nil && foldKey(sf.Name) == folded {
			byFold = sf.Index
		}
	}
	return byFold
}

// tagName returns the field key named by the struct tag, and whether the tag names one
func tagName(sf reflect.StructField) (string, bool) {
	tag, ok := sf.Tag.Lookup(TagName)
	if !ok {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	return name, name != ""
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}

func foldKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

// assignable returns value as a reflect.Value that can be stored in a location of type t
func assignable(t reflect.Type, value any) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if t.Kind() == reflect.Pointer {
		inner, err := assignable(t.Elem(), value)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(inner)
		return p, nil
	}
	if convertible(v.Type(), t) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot store %s in %s", ErrNotSettable, v.Type(), t)
}

func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	// integer to string conversions yield runes, not digits
	if to.Kind() == reflect.String && from.Kind() != reflect.String {
		return from.Kind() == reflect.Slice && from.Elem().Kind() == reflect.Uint8
	}
	return true
}
