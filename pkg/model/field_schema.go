package model

import (
	"fmt"

	"github.com/joshmarlow/data-schema/pkg/schema"
)

// FieldSchema is a stored field of a data schema
type FieldSchema struct {
	ID              uint    `gorm:"column:id;primaryKey"`
	DataSchemaID    uint    `gorm:"column:data_schema_id;not null"`
	FieldKey        string  `gorm:"column:field_key;size:64;not null"`
	UniquenessOrder *int    `gorm:"column:uniqueness_order"`
	FieldPosition   *int    `gorm:"column:field_position"`
	FieldType       string  `gorm:"column:field_type;size:32;not null"`
	FieldFormat     *string `gorm:"column:field_format;size:64"`
}

func (FieldSchema) TableName() string {
	return "field_schemas"
}

// NewFieldSchema builds the model for a domain field
func NewFieldSchema(f schema.FieldSchema) FieldSchema {
	return FieldSchema{
		ID:              f.ID,
		DataSchemaID:    f.DataSchemaID,
		FieldKey:        f.FieldKey,
		UniquenessOrder: f.UniquenessOrder,
		FieldPosition:   f.FieldPosition,
		FieldType:       f.FieldType.String(),
		FieldFormat:     f.FieldFormat,
	}
}

// ToSchema converts the model to the domain type
func (f FieldSchema) ToSchema() (schema.FieldSchema, error) {
	ft, err := schema.FieldTypeString(f.FieldType)
	if err != nil {
		return schema.FieldSchema{}, fmt.Errorf("field_schemas.id=%d: %w", f.ID, err)
	}
	return schema.FieldSchema{
		ID:              f.ID,
		DataSchemaID:    f.DataSchemaID,
		FieldKey:        f.FieldKey,
		UniquenessOrder: f.UniquenessOrder,
		FieldPosition:   f.FieldPosition,
		FieldType:       ft,
		FieldFormat:     f.FieldFormat,
	}, nil
}
