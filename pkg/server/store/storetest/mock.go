// Package storetest provides testify mocks of the store interfaces.
package storetest

import (
	"github.com/stretchr/testify/mock"

	"github.com/joshmarlow/data-schema/pkg/schema"
	"github.com/joshmarlow/data-schema/pkg/server/store"
)

// MockDataSchemaStore implements store.DataSchemaStore for testing using testify/mock
type MockDataSchemaStore struct {
	mock.Mock
}

func NewMockDataSchemaStore() *MockDataSchemaStore {
	return &MockDataSchemaStore{}
}

// Transaction records the call and runs fn against the mock itself
func (m *MockDataSchemaStore) Transaction(fn func(store.DataSchemaStore) error) error {
	args := m.Called(fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *MockDataSchemaStore) CreateDataSchema(s *schema.DataSchema) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockDataSchemaStore) FetchDataSchema(name string) (*schema.DataSchema, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schema.DataSchema), args.Error(1)
}

func (m *MockDataSchemaStore) FetchDataSchemaForModel(appLabel, model string) (*schema.DataSchema, error) {
	args := m.Called(appLabel, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schema.DataSchema), args.Error(1)
}

func (m *MockDataSchemaStore) ListDataSchemas() ([]schema.DataSchema, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schema.DataSchema), args.Error(1)
}

func (m *MockDataSchemaStore) DeleteDataSchema(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *MockDataSchemaStore) UpsertFieldSchema(name string, f schema.FieldSchema) error {
	args := m.Called(name, f)
	return args.Error(0)
}

func (m *MockDataSchemaStore) DeleteFieldSchema(name, key string) error {
	args := m.Called(name, key)
	return args.Error(0)
}

func (m *MockDataSchemaStore) SyncFieldSchemas(name string, fields []schema.FieldSchema) error {
	args := m.Called(name, fields)
	return args.Error(0)
}

// MockHealthStore implements store.HealthStore for testing using testify/mock
type MockHealthStore struct {
	mock.Mock
}

func NewMockHealthStore() *MockHealthStore {
	return &MockHealthStore{}
}

func (m *MockHealthStore) CheckConnectivity() error {
	args := m.Called()
	return args.Error(0)
}
