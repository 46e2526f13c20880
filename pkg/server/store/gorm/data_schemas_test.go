package gorm

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/joshmarlow/data-schema/pkg/schema"
	"github.com/joshmarlow/data-schema/pkg/server/store"
)

type Suite struct {
	suite.Suite
	DB    *gorm.DB
	mock  sqlmock.Sqlmock
	store *DataSchemaStore
}

func (s *Suite) SetupTest() {
	var (
		db  *sql.DB
		err error
	)

	db, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	s.DB, err = gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(s.T(), err)
	s.store = NewDataSchemaStore(s.DB)
}

// AfterTest verifies every expected statement ran
func (s *Suite) AfterTest(_, _ string) {
	require.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func TestDataSchemaStore(t *testing.T) {
	suite.Run(t, new(Suite))
}

func fieldRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "data_schema_id", "field_key", "uniqueness_order", "field_position", "field_type", "field_format",
	})
}

func (s *Suite) TestFetchDataSchema() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas" WHERE name = $1`)).
		WithArgs("animal_weight").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "display_name", "model_content_type_id"}).
			AddRow(3, "animal_weight", "Animal weight", 9))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "content_types" WHERE id IN ($1)`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "app_label", "model"}).AddRow(9, "animals", "weighing"))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "field_schemas" WHERE data_schema_id IN ($1) ORDER BY id`)).
		WithArgs(3).
		WillReturnRows(fieldRows().
			AddRow(1, 3, "animal_id", 0, 0, "INT", nil).
			AddRow(2, 3, "recorded_on", 1, 1, "DATE", "%Y-%m-%d"))

	ds, err := s.store.FetchDataSchema("animal_weight")
	require.NoError(s.T(), err)

	assert.Equal(s.T(), uint(3), ds.ID)
	assert.Equal(s.T(), "Animal weight", ds.DisplayName)
	require.NotNil(s.T(), ds.ModelContentType)
	assert.Equal(s.T(), schema.ContentType{AppLabel: "animals", Model: "weighing"}, *ds.ModelContentType)
	require.Len(s.T(), ds.Fields, 2)
	assert.Equal(s.T(), schema.TypeInt, ds.Fields[0].FieldType)
	assert.Nil(s.T(), ds.Fields[0].FieldFormat)
	assert.Equal(s.T(), schema.TypeDate, ds.Fields[1].FieldType)
	assert.Equal(s.T(), "%Y-%m-%d", *ds.Fields[1].FieldFormat)
	assert.Equal(s.T(), 1, *ds.Fields[1].UniquenessOrder)
}

func (s *Suite) TestFetchDataSchemaNotFound() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas" WHERE name = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := s.store.FetchDataSchema("missing")
	assert.True(s.T(), errors.Is(err, store.ErrDataSchemaNotFound))
}

func (s *Suite) TestFetchDataSchemaBadFieldType() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas" WHERE name = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "broken"))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "field_schemas"`)).
		WillReturnRows(fieldRows().AddRow(1, 3, "a", nil, nil, "BLOB", nil))

	_, err := s.store.FetchDataSchema("broken")
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "field_schemas.id=1")
}

func (s *Suite) TestFetchDataSchemaForModel() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "content_types" WHERE app_label = $1 AND model = $2`)).
		WithArgs("animals", "weighing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "app_label", "model"}).AddRow(9, "animals", "weighing"))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas" WHERE model_content_type_id = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "model_content_type_id"}).AddRow(3, "animal_weight", 9))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "field_schemas" WHERE data_schema_id IN ($1)`)).
		WithArgs(3).
		WillReturnRows(fieldRows())

	ds, err := s.store.FetchDataSchemaForModel("animals", "weighing")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "animal_weight", ds.Name)
	assert.Equal(s.T(), "weighing", ds.ModelContentType.Model)
	assert.Empty(s.T(), ds.Fields)
}

func (s *Suite) TestFetchDataSchemaForUnknownModel() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "content_types"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "app_label", "model"}))

	_, err := s.store.FetchDataSchemaForModel("animals", "unknown")
	assert.True(s.T(), errors.Is(err, store.ErrDataSchemaNotFound))
}

func (s *Suite) TestListDataSchemas() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_schemas" ORDER BY name`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "model_content_type_id"}).
			AddRow(1, "a", nil).
			AddRow(2, "b", nil))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "field_schemas" WHERE data_schema_id IN ($1,$2)`)).
		WithArgs(1, 2).
		WillReturnRows(fieldRows().
			AddRow(10, 2, "x", nil, 0, "STRING", nil).
			AddRow(11, 1, "y", nil, 0, "FLOAT", nil).
			AddRow(12, 2, "z", nil, 1, "INT", nil))

	list, err := s.store.ListDataSchemas()
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 2)
	assert.Equal(s.T(), "a", list[0].Name)
	require.Len(s.T(), list[0].Fields, 1)
	assert.Equal(s.T(), "y", list[0].Fields[0].FieldKey)
	require.Len(s.T(), list[1].Fields, 2)
	assert.Equal(s.T(), "x", list[1].Fields[0].FieldKey)
	assert.Equal(s.T(), "z", list[1].Fields[1].FieldKey)
}

func (s *Suite) TestCreateDataSchema() {
	ds := &schema.DataSchema{
		Name:             "animal_weight",
		ModelContentType: &schema.ContentType{AppLabel: "animals", Model: "weighing"},
		Fields: []schema.FieldSchema{
			{FieldKey: "animal_id", FieldPosition: schema.Int(0), FieldType: schema.TypeInt},
			{FieldKey: "weight", FieldPosition: schema.Int(1), FieldType: schema.TypeFloat},
		},
	}

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(1) FROM "data_schemas" WHERE name = $1`)).
		WithArgs("animal_weight").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "content_types" WHERE app_label = $1 AND model = $2`)).
		WithArgs("animals", "weighing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "app_label", "model"}))
	s.mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO "content_types" ("app_label","model") VALUES ($1,$2) RETURNING "id"`)).
		WithArgs("animals", "weighing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "data_schemas"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "field_schemas"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21).AddRow(22))
	s.mock.ExpectCommit()

	require.NoError(s.T(), s.store.CreateDataSchema(ds))
	assert.Equal(s.T(), uint(3), ds.ID)
	assert.Equal(s.T(), uint(21), ds.Fields[0].ID)
	assert.Equal(s.T(), uint(22), ds.Fields[1].ID)
	assert.Equal(s.T(), uint(3), ds.Fields[1].DataSchemaID)
}

func (s *Suite) TestCreateDataSchemaExists() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(1) FROM "data_schemas" WHERE name = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	s.mock.ExpectRollback()

	err := s.store.CreateDataSchema(&schema.DataSchema{Name: "taken"})
	assert.True(s.T(), errors.Is(err, store.ErrDataSchemaExists))
}

func (s *Suite) TestCreateDataSchemaUniqueViolation() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(1) FROM "data_schemas"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "data_schemas"`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	s.mock.ExpectRollback()

	err := s.store.CreateDataSchema(&schema.DataSchema{Name: "raced"})
	assert.True(s.T(), errors.Is(err, store.ErrDataSchemaExists))
}

func (s *Suite) TestDeleteDataSchema() {
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "data_schemas" WHERE name = $1`)).
		WithArgs("animal_weight").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "data_schemas" WHERE name = $1`)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(s.T(), s.store.DeleteDataSchema("animal_weight"))
	assert.True(s.T(), errors.Is(s.store.DeleteDataSchema("missing"), store.ErrDataSchemaNotFound))
}

func (s *Suite) expectSchemaID(name string, id int) {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "data_schemas" WHERE name = $1`)).
		WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
}

func (s *Suite) TestUpsertFieldSchema() {
	s.expectSchemaID("animal_weight", 3)
	s.mock.ExpectQuery(`INSERT INTO "field_schemas" .* ON CONFLICT \("data_schema_id","field_key"\) DO UPDATE SET`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(30))

	err := s.store.UpsertFieldSchema("animal_weight", schema.FieldSchema{
		FieldKey:  "weight",
		FieldType: schema.TypeFloat,
	})
	assert.NoError(s.T(), err)
}

func (s *Suite) TestUpsertFieldSchemaUnknownSchema() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "data_schemas" WHERE name = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := s.store.UpsertFieldSchema("missing", schema.FieldSchema{FieldKey: "a"})
	assert.True(s.T(), errors.Is(err, store.ErrDataSchemaNotFound))
}

func (s *Suite) TestDeleteFieldSchema() {
	s.expectSchemaID("animal_weight", 3)
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "field_schemas" WHERE data_schema_id = $1 AND field_key = $2`)).
		WithArgs(3, "weight").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.expectSchemaID("animal_weight", 3)
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "field_schemas"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(s.T(), s.store.DeleteFieldSchema("animal_weight", "weight"))
	err := s.store.DeleteFieldSchema("animal_weight", "weight")
	assert.True(s.T(), errors.Is(err, store.ErrFieldSchemaNotFound))
}

func (s *Suite) TestSyncFieldSchemas() {
	s.mock.ExpectBegin()
	s.expectSchemaID("animal_weight", 3)
	s.mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM "field_schemas" WHERE data_schema_id = $1 AND field_key NOT IN ($2,$3)`)).
		WithArgs(3, "animal_id", "weight").
		WillReturnResult(sqlmock.NewResult(0, 2))
	s.mock.ExpectQuery(`INSERT INTO "field_schemas" .* ON CONFLICT`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	s.mock.ExpectCommit()

	err := s.store.SyncFieldSchemas("animal_weight", []schema.FieldSchema{
		{FieldKey: "animal_id", FieldType: schema.TypeInt},
		{FieldKey: "weight", FieldType: schema.TypeFloat},
	})
	assert.NoError(s.T(), err)
}

func (s *Suite) TestSyncFieldSchemasEmpty() {
	s.mock.ExpectBegin()
	s.expectSchemaID("animal_weight", 3)
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "field_schemas" WHERE data_schema_id = $1`)).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 4))
	s.mock.ExpectCommit()

	assert.NoError(s.T(), s.store.SyncFieldSchemas("animal_weight", nil))
}

func (s *Suite) TestTransactionRollsBack() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "data_schemas"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectRollback()

	boom := errors.New("boom")
	err := s.store.Transaction(func(tx store.DataSchemaStore) error {
		require.NoError(s.T(), tx.DeleteDataSchema("animal_weight"))
		return boom
	})
	assert.Equal(s.T(), boom, err)
}

func (s *Suite) TestCheckConnectivity() {
	s.mock.ExpectExec(`SELECT 1`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(s.T(), NewHealthStore(s.DB).CheckConnectivity())
}
