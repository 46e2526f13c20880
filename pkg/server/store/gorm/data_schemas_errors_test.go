package gorm

import (
	"errors"
	"regexp"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshmarlow/data-schema/pkg/schema"
	"github.com/joshmarlow/data-schema/pkg/server/store"
)

var errConnection = errors.New("connection reset by peer")

func (s *Suite) TestCreateDataSchemaWithoutFields() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(1) FROM "data_schemas"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "data_schemas"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	s.mock.ExpectCommit()

	ds := &schema.DataSchema{Name: "empty"}
	require.NoError(s.T(), s.store.CreateDataSchema(ds))
	assert.Equal(s.T(), uint(5), ds.ID)
}

func (s *Suite) TestCreateDataSchemaCountFails() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(1) FROM "data_schemas"`)).
		WillReturnError(errConnection)
	s.mock.ExpectRollback()

	err := s.store.CreateDataSchema(&schema.DataSchema{Name: "readings"})
	assert.ErrorIs(s.T(), err, errConnection)
}

func (s *Suite) TestCreateDataSchemaContentTypeFails() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(1) FROM "data_schemas"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "content_types"`)).
		WillReturnError(errConnection)
	s.mock.ExpectRollback()

	err := s.store.CreateDataSchema(&schema.DataSchema{
		Name:             "readings",
		ModelContentType: &schema.ContentType{AppLabel: "sensors", Model: "reading"},
	})
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "failed to resolve content type")
	assert.ErrorIs(s.T(), err, errConnection)
}

func (s *Suite) TestCreateDataSchemaInsertFails() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(1) FROM "data_schemas"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "data_schemas"`)).
		WillReturnError(errConnection)
	s.mock.ExpectRollback()

	err := s.store.CreateDataSchema(&schema.DataSchema{Name: "readings"})
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "failed to create data schema")
	assert.False(s.T(), errors.Is(err, store.ErrDataSchemaExists))
}

func (s *Suite) TestCreateDataSchemaFieldInsertFails() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(1) FROM "data_schemas"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "data_schemas"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "field_schemas"`)).
		WillReturnError(errConnection)
	s.mock.ExpectRollback()

	err := s.store.CreateDataSchema(&schema.DataSchema{
		Name:   "readings",
		Fields: []schema.FieldSchema{{FieldKey: "value", FieldType: schema.TypeFloat}},
	})
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "failed to create field schemas")
}

func (s *Suite) TestFetchDataSchemaQueryFails() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas"`)).
		WillReturnError(errConnection)

	_, err := s.store.FetchDataSchema("readings")
	assert.ErrorIs(s.T(), err, errConnection)
}

func (s *Suite) TestFetchDataSchemaContentTypesFail() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "model_content_type_id"}).AddRow(3, "readings", 9))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "content_types"`)).
		WillReturnError(errConnection)

	_, err := s.store.FetchDataSchema("readings")
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "failed to load content types")
}

func (s *Suite) TestFetchDataSchemaForModelQueriesFail() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "content_types"`)).
		WillReturnError(errConnection)

	_, err := s.store.FetchDataSchemaForModel("sensors", "reading")
	assert.ErrorIs(s.T(), err, errConnection)

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "content_types"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "app_label", "model"}).AddRow(9, "sensors", "reading"))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas" WHERE model_content_type_id = $1`)).
		WillReturnError(errConnection)

	_, err = s.store.FetchDataSchemaForModel("sensors", "reading")
	assert.ErrorIs(s.T(), err, errConnection)
}

func (s *Suite) TestFetchDataSchemaForUnboundModel() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "content_types"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "app_label", "model"}).AddRow(9, "sensors", "reading"))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas" WHERE model_content_type_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := s.store.FetchDataSchemaForModel("sensors", "reading")
	assert.ErrorIs(s.T(), err, store.ErrDataSchemaNotFound)
}

func (s *Suite) TestFetchDataSchemaForModelFieldsFail() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "content_types"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "app_label", "model"}).AddRow(9, "sensors", "reading"))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas" WHERE model_content_type_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "model_content_type_id"}).AddRow(3, "readings", 9))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "field_schemas"`)).
		WillReturnError(errConnection)

	_, err := s.store.FetchDataSchemaForModel("sensors", "reading")
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "failed to load field schemas")
}

func (s *Suite) TestListDataSchemasEmpty() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas" ORDER BY name`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	list, err := s.store.ListDataSchemas()
	require.NoError(s.T(), err)
	assert.Empty(s.T(), list)
}

func (s *Suite) TestListDataSchemasFails() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas" ORDER BY name`)).
		WillReturnError(errConnection)

	_, err := s.store.ListDataSchemas()
	assert.ErrorIs(s.T(), err, errConnection)
}

func (s *Suite) TestListDataSchemasFieldsFail() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas" ORDER BY name`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "a"))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "field_schemas"`)).
		WillReturnError(errConnection)

	_, err := s.store.ListDataSchemas()
	assert.ErrorIs(s.T(), err, errConnection)
}

func (s *Suite) TestListDataSchemasBadFieldType() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas" ORDER BY name`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "a"))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "field_schemas"`)).
		WillReturnRows(fieldRows().AddRow(7, 1, "x", nil, 0, "BLOB", nil))

	_, err := s.store.ListDataSchemas()
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "field_schemas.id=7")
}

func (s *Suite) TestDeleteDataSchemaFails() {
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "data_schemas"`)).
		WillReturnError(errConnection)

	assert.ErrorIs(s.T(), s.store.DeleteDataSchema("readings"), errConnection)
}

func (s *Suite) TestUpsertFieldSchemaFails() {
	s.expectSchemaID("readings", 3)
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "field_schemas"`)).
		WillReturnError(errConnection)

	err := s.store.UpsertFieldSchema("readings", schema.FieldSchema{FieldKey: "value", FieldType: schema.TypeFloat})
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "failed to upsert field schemas")
}

func (s *Suite) TestSchemaLookupFails() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "data_schemas"`)).
		WillReturnError(errConnection)

	err := s.store.UpsertFieldSchema("readings", schema.FieldSchema{FieldKey: "value"})
	assert.ErrorIs(s.T(), err, errConnection)
}

func (s *Suite) TestDeleteFieldSchemaUnknownSchema() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "data_schemas"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := s.store.DeleteFieldSchema("missing", "value")
	assert.ErrorIs(s.T(), err, store.ErrDataSchemaNotFound)
}

func (s *Suite) TestDeleteFieldSchemaFails() {
	s.expectSchemaID("readings", 3)
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "field_schemas"`)).
		WillReturnError(errConnection)

	assert.ErrorIs(s.T(), s.store.DeleteFieldSchema("readings", "value"), errConnection)
}

func (s *Suite) TestSyncFieldSchemasUnknownSchema() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "data_schemas"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	s.mock.ExpectRollback()

	err := s.store.SyncFieldSchemas("missing", nil)
	assert.ErrorIs(s.T(), err, store.ErrDataSchemaNotFound)
}

func (s *Suite) TestSyncFieldSchemasDeleteFails() {
	s.mock.ExpectBegin()
	s.expectSchemaID("readings", 3)
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "field_schemas"`)).
		WillReturnError(errConnection)
	s.mock.ExpectRollback()

	err := s.store.SyncFieldSchemas("readings", nil)
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "failed to delete stale field schemas")
}

func (s *Suite) TestCheckConnectivityFails() {
	s.mock.ExpectExec(`SELECT 1`).WillReturnError(errConnection)

	assert.ErrorIs(s.T(), NewHealthStore(s.DB).CheckConnectivity(), errConnection)
}
