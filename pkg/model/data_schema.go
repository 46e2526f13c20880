package model

import (
	"time"

	"github.com/joshmarlow/data-schema/pkg/schema"
)

// DataSchema is a stored schema. FieldSchemas and ModelContentType are loaded by the store.
type DataSchema struct {
	ID                 uint          `gorm:"column:id;primaryKey"`
	Name               string        `gorm:"column:name;not null"`
	DisplayName        string        `gorm:"column:display_name;not null;default:''"`
	ModelContentTypeID *uint         `gorm:"column:model_content_type_id"`
	ModelContentType   *ContentType  `gorm:"foreignKey:ModelContentTypeID"`
	FieldSchemas       []FieldSchema `gorm:"foreignKey:DataSchemaID"`
	CreatedAt          time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (DataSchema) TableName() string {
	return "data_schemas"
}

// NewDataSchema builds the model for a domain schema. The content type is not resolved.
func NewDataSchema(s *schema.DataSchema) DataSchema {
	ds := DataSchema{
		ID:          s.ID,
		Name:        s.Name,
		DisplayName: s.DisplayName,
	}
	for _, f := range s.Fields {
		fs := NewFieldSchema(f)
		fs.DataSchemaID = s.ID
		ds.FieldSchemas = append(ds.FieldSchemas, fs)
	}
	return ds
}

// ToSchema converts the model and its loaded associations to the domain type
func (d DataSchema) ToSchema() (*schema.DataSchema, error) {
	s := &schema.DataSchema{
		ID:          d.ID,
		Name:        d.Name,
		DisplayName: d.DisplayName,
		Fields:      make([]schema.FieldSchema, 0, len(d.FieldSchemas)),
	}
	if d.ModelContentType != nil {
		s.ModelContentType = d.ModelContentType.toSchema()
	}
	for _, fs := range d.FieldSchemas {
		f, err := fs.ToSchema()
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, f)
	}
	return s, nil
}
