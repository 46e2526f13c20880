package gorm

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joshmarlow/data-schema/pkg/model"
	"github.com/joshmarlow/data-schema/pkg/schema"
	"github.com/joshmarlow/data-schema/pkg/server/store"
)

const uniqueViolation = "23505"

// Ensure DataSchemaStore implements store.DataSchemaStore
var _ store.DataSchemaStore = (*DataSchemaStore)(nil)

// DataSchemaStore implements store.DataSchemaStore using GORM
type DataSchemaStore struct {
	db *gorm.DB
}

// NewDataSchemaStore creates a new DataSchemaStore
func NewDataSchemaStore(db *gorm.DB) *DataSchemaStore {
	return &DataSchemaStore{db: db}
}

// Transaction wraps operations in a database transaction.
func (s *DataSchemaStore) Transaction(fn func(store.DataSchemaStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&DataSchemaStore{db: tx})
	})
}

// CreateDataSchema stores a schema with its content type and fields.
func (s *DataSchemaStore) CreateDataSchema(ds *schema.DataSchema) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, ds.Name); err != nil {
			return err
		}

		row := model.NewDataSchema(ds)
		if ds.ModelContentType != nil {
			ct, err := contentType(tx, ds.ModelContentType)
			if err != nil {
				return err
			}
			row.ModelContentTypeID = &ct.ID
		}

		fields := row.FieldSchemas
		row.FieldSchemas = nil
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %q", store.ErrDataSchemaExists, ds.Name)
			}
			return fmt.Errorf("failed to create data schema: %w", err)
		}
		if err := createFields(tx, row.ID, fields); err != nil {
			return err
		}

		ds.ID = row.ID
		for i := range fields {
			ds.Fields[i].ID = fields[i].ID
			ds.Fields[i].DataSchemaID = row.ID
		}
		return nil
	})
}

func ensureNameFree(tx *gorm.DB, name string) error {
	var count int64
	if err := tx.Model(&model.DataSchema{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %q", store.ErrDataSchemaExists, name)
	}
	return nil
}

func createFields(tx *gorm.DB, schemaID uint, fields []model.FieldSchema) error {
	if len(fields) == 0 {
		return nil
	}
	for i := range fields {
		fields[i].DataSchemaID = schemaID
	}
	if err := tx.Create(&fields).Error; err != nil {
		return fmt.Errorf("failed to create field schemas: %w", err)
	}
	return nil
}

// FetchDataSchema retrieves a schema by name with its content type and fields.
func (s *DataSchemaStore) FetchDataSchema(name string) (*schema.DataSchema, error) {
	var row model.DataSchema
	if err := s.db.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrDataSchemaNotFound
		}
		return nil, err
	}

	rows := []model.DataSchema{row}
	if err := s.loadRelated(rows); err != nil {
		return nil, err
	}
	return rows[0].ToSchema()
}

// FetchDataSchemaForModel retrieves the schema bound to a content type.
func (s *DataSchemaStore) FetchDataSchemaForModel(appLabel, modelName string) (*schema.DataSchema, error) {
	var ct model.ContentType
	err := s.db.Where("app_label = ? AND model = ?", appLabel, modelName).First(&ct).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrDataSchemaNotFound
		}
		return nil, err
	}

	var row model.DataSchema
	if err := s.db.Where("model_content_type_id = ?", ct.ID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrDataSchemaNotFound
		}
		return nil, err
	}
	row.ModelContentType = &ct

	rows := []model.DataSchema{row}
	if err := s.loadFields(rows); err != nil {
		return nil, err
	}
	return rows[0].ToSchema()
}

// ListDataSchemas returns all schemas ordered by name
func (s *DataSchemaStore) ListDataSchemas() ([]schema.DataSchema, error) {
	var rows []model.DataSchema
	if err := s.db.Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	if err := s.loadRelated(rows); err != nil {
		return nil, err
	}

	result := make([]schema.DataSchema, 0, len(rows))
	for _, row := range rows {
		ds, err := row.ToSchema()
		if err != nil {
			return nil, err
		}
		result = append(result, *ds)
	}
	return result, nil
}

// DeleteDataSchema removes a schema. Fields are removed by the foreign key cascade.
func (s *DataSchemaStore) DeleteDataSchema(name string) error {
	tx := s.db.Where("name = ?", name).Delete(&model.DataSchema{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrDataSchemaNotFound
	}
	return nil
}

// UpsertFieldSchema inserts a field or updates the field with the same key.
func (s *DataSchemaStore) UpsertFieldSchema(name string, f schema.FieldSchema) error {
	id, err := s.schemaID(name)
	if err != nil {
		return err
	}
	row := model.NewFieldSchema(f)
	row.ID = 0
	row.DataSchemaID = id
	return s.upsertFields([]model.FieldSchema{row})
}

// DeleteFieldSchema removes a field from a schema.
func (s *DataSchemaStore) DeleteFieldSchema(name, key string) error {
	id, err := s.schemaID(name)
	if err != nil {
		return err
	}
	tx := s.db.Where("data_schema_id = ? AND field_key = ?", id, key).Delete(&model.FieldSchema{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: %q", store.ErrFieldSchemaNotFound, key)
	}
	return nil
}

// SyncFieldSchemas upserts the given fields and deletes all other fields of the schema.
func (s *DataSchemaStore) SyncFieldSchemas(name string, fields []schema.FieldSchema) error {
	return s.Transaction(func(txStore store.DataSchemaStore) error {
		tx := txStore.(*DataSchemaStore)
		id, err := tx.schemaID(name)
		if err != nil {
			return err
		}

		rows := make([]model.FieldSchema, 0, len(fields))
		keys := make([]string, 0, len(fields))
		for _, f := range fields {
			row := model.NewFieldSchema(f)
			row.ID = 0
			row.DataSchemaID = id
			rows = append(rows, row)
			keys = append(keys, f.FieldKey)
		}

		stale := tx.db.Where("data_schema_id = ?", id)
		if len(keys) > 0 {
			stale = stale.Where("field_key NOT IN ?", keys)
		}
		if err := stale.Delete(&model.FieldSchema{}).Error; err != nil {
			return fmt.Errorf("failed to delete stale field schemas: %w", err)
		}

		if len(rows) == 0 {
			return nil
		}
		return tx.upsertFields(rows)
	})
}

func (s *DataSchemaStore) upsertFields(rows []model.FieldSchema) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "data_schema_id"}, {Name: "field_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"uniqueness_order", "field_position", "field_type", "field_format",
		}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to upsert field schemas: %w", err)
	}
	return nil
}

func (s *DataSchemaStore) schemaID(name string) (uint, error) {
	var row model.DataSchema
	if err := s.db.Select("id").Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, store.ErrDataSchemaNotFound
		}
		return 0, err
	}
	return row.ID, nil
}

// loadRelated fills in the content types and fields of rows with one query each
func (s *DataSchemaStore) loadRelated(rows []model.DataSchema) error {
	var ctIDs []uint
	for _, row := range rows {
		if row.ModelContentTypeID != nil {
			ctIDs = append(ctIDs, *row.ModelContentTypeID)
		}
	}
	if len(ctIDs) > 0 {
		var cts []model.ContentType
		if err := s.db.Where("id IN ?", ctIDs).Find(&cts).Error; err != nil {
			return fmt.Errorf("failed to load content types: %w", err)
		}
		byID := make(map[uint]*model.ContentType, len(cts))
		for i := range cts {
			byID[cts[i].ID] = &cts[i]
		}
		for i := range rows {
			if rows[i].ModelContentTypeID != nil {
				rows[i].ModelContentType = byID[*rows[i].ModelContentTypeID]
			}
		}
	}
	return s.loadFields(rows)
}

func (s *DataSchemaStore) loadFields(rows []model.DataSchema) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(rows))
	index := make(map[uint]int, len(rows))
	for i, row := range rows {
		ids = append(ids, row.ID)
		index[row.ID] = i
	}

	var fields []model.FieldSchema
	if err := s.db.Where("data_schema_id IN ?", ids).Order("id").Find(&fields).Error; err != nil {
		return fmt.Errorf("failed to load field schemas: %w", err)
	}
	for _, f := range fields {
		if i, ok := index[f.DataSchemaID]; ok {
			rows[i].FieldSchemas = append(rows[i].FieldSchemas, f)
		}
	}
	return nil
}

func contentType(tx *gorm.DB, ct *schema.ContentType) (*model.ContentType, error) {
	row := model.ContentType{AppLabel: ct.AppLabel, Model: ct.Model}
	err := tx.Where("app_label = ? AND model = ?", ct.AppLabel, ct.Model).FirstOrCreate(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content type %s: %w", ct, err)
	}
	return &row, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
