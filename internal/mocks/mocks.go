// internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/damon-houk/anvil-basic-tx/internal/domain/entity"
	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/logger"
)

// MockBuildRecordRepository mocks the BuildRecordRepository interface
type MockBuildRecordRepository struct {
	mock.Mock
}

func (m *MockBuildRecordRepository) Store(ctx context.Context, record *entity.BuildRecord) (string, error) {
	args := m.Called(ctx, record)
	return args.String(0), args.Error(1)
}

func (m *MockBuildRecordRepository) FindByID(ctx context.Context, id string) (*entity.BuildRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.BuildRecord), args.Error(1)
}

func (m *MockBuildRecordRepository) List(ctx context.Context, limit int) ([]*entity.BuildRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.BuildRecord), args.Error(1)
}

// MockTransactionBuilderAPI mocks the TransactionBuilderAPI interface
type MockTransactionBuilderAPI struct {
	mock.Mock
}

func (m *MockTransactionBuilderAPI) BuildTransaction(ctx context.Context, req *entity.BuildRequest) (*entity.BuildResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.BuildResult), args.Error(1)
}

func (m *MockTransactionBuilderAPI) Health(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockLogger mocks the logger interface
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Info(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Warn(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Error(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Fatal(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) WithField(key string, value interface{}) logger.Logger {
	args := m.Called(key, value)
	return args.Get(0).(logger.Logger)
}

func (m *MockLogger) WithFields(fields map[string]interface{}) logger.Logger {
	args := m.Called(fields)
	return args.Get(0).(logger.Logger)
}
