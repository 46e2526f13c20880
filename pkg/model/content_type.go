package model

import "github.com/joshmarlow/data-schema/pkg/schema"

// ContentType identifies a kind of record by application label and model name
type ContentType struct {
	ID       uint   `gorm:"column:id;primaryKey"`
	AppLabel string `gorm:"column:app_label;not null"`
	Model    string `gorm:"column:model;not null"`
}

func (ContentType) TableName() string {
	return "content_types"
}

func (c ContentType) toSchema() *schema.ContentType {
	return &schema.ContentType{AppLabel: c.AppLabel, Model: c.Model}
}
