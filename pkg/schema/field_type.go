package schema

//go:generate go run github.com/dmarkham/enumer -type FieldType -trimprefix Type -transform upper -json -yaml -output field_type.gen.go

// FieldType is the declared type of a field in a piece of data.
// The zero value is not a valid type.
type FieldType int

const (
	TypeDate FieldType = iota + 1
	TypeDatetime
	TypeInt
	TypeFloat
	TypeString
)
