package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/damon-houk/anvil-basic-tx/internal/domain/entity"
	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/logger"
	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/middleware"
	"github.com/damon-houk/anvil-basic-tx/internal/mocks"
)

func quietLogger() logger.Logger {
	return logger.NewJSONLogger(io.Discard, logger.DebugLevel)
}

func testRequest() *entity.BuildRequest {
	return entity.NewBuildRequest("addr_sender", entity.Output{Address: "addr_receiver", Lovelace: 10000000})
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	req := testRequest()
	txResult := &entity.BuildResult{
		StatusCode: 200,
		Body:       map[string]interface{}{"type": "Tx", "cborHex": "abcd"},
	}

	t.Run("Without history", func(t *testing.T) {
		api := new(mocks.MockTransactionBuilderAPI)
		api.On("BuildTransaction", ctx, req).Return(txResult, nil).Once()

		svc := NewBuildService(api, nil, quietLogger())
		result, err := svc.Build(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, txResult, result)
		api.AssertExpectations(t)
	})

	t.Run("Records the attempt", func(t *testing.T) {
		api := new(mocks.MockTransactionBuilderAPI)
		repo := new(mocks.MockBuildRecordRepository)
		fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		api.On("BuildTransaction", ctx, req).Return(txResult, nil).Once()
		repo.On("Store", ctx, mock.MatchedBy(func(r *entity.BuildRecord) bool {
			return r.ID != "" &&
				r.CreatedAt.Equal(fixed) &&
				r.StatusCode == 200 &&
				r.Request.ChangeAddress == "addr_sender" &&
				string(r.Response) == `{"cborHex":"abcd","type":"Tx"}`
		})).Return("id", nil).Once()

		svc := NewBuildService(api, repo, quietLogger())
		svc.now = func() time.Time { return fixed }

		_, err := svc.Build(ctx, req)

		assert.NoError(t, err)
		api.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("Storage failure does not fail the build", func(t *testing.T) {
		api := new(mocks.MockTransactionBuilderAPI)
		repo := new(mocks.MockBuildRecordRepository)
		log := new(mocks.MockLogger)
		reqCtx := middleware.WithRequestID(ctx, "req-42")

		api.On("BuildTransaction", reqCtx, req).Return(txResult, nil).Once()
		repo.On("Store", reqCtx, mock.Anything).Return("", errors.New("disk full")).Once()
		log.On("WithField", "request_id", "req-42").Return(log).Once()
		log.On("Info", mock.Anything, mock.Anything).Return()
		log.On("Warn", "Failed to store build record", mock.Anything).Return().Once()

		svc := NewBuildService(api, repo, log)
		result, err := svc.Build(reqCtx, req)

		assert.NoError(t, err)
		assert.Equal(t, txResult, result)
		log.AssertExpectations(t)
	})

	t.Run("API error", func(t *testing.T) {
		api := new(mocks.MockTransactionBuilderAPI)
		repo := new(mocks.MockBuildRecordRepository)
		api.On("BuildTransaction", ctx, req).Return(nil, errors.New("connection refused")).Once()

		svc := NewBuildService(api, repo, quietLogger())
		result, err := svc.Build(ctx, req)

		assert.Nil(t, result)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		repo.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
	})
}

func TestRender(t *testing.T) {
	svc := NewBuildService(new(mocks.MockTransactionBuilderAPI), nil, quietLogger())

	var buf bytes.Buffer
	err := svc.Render(&buf, &entity.BuildResult{
		StatusCode: 200,
		Body:       map[string]interface{}{"type": "Tx", "cborHex": "abcd"},
	})

	require.NoError(t, err)
	assert.Equal(t, "{\n  \"cborHex\": \"abcd\",\n  \"type\": \"Tx\"\n}\n", buf.String())
}

func TestHealth(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockTransactionBuilderAPI)
	api.On("Health", ctx).Return(`{"status":"ok"}`, nil).Once()

	svc := NewBuildService(api, nil, quietLogger())
	body, err := svc.Health(ctx)

	assert.NoError(t, err)
	assert.Equal(t, `{"status":"ok"}`, body)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("Disabled", func(t *testing.T) {
		svc := NewBuildService(new(mocks.MockTransactionBuilderAPI), nil, quietLogger())

		_, err := svc.History(ctx, 10)
		assert.True(t, errors.Is(err, ErrHistoryDisabled))

		_, err = svc.HistoryRecord(ctx, "id")
		assert.True(t, errors.Is(err, ErrHistoryDisabled))
	})

	t.Run("Enabled", func(t *testing.T) {
		repo := new(mocks.MockBuildRecordRepository)
		records := []*entity.BuildRecord{{ID: "b"}, {ID: "a"}}
		repo.On("List", ctx, 10).Return(records, nil).Once()
		repo.On("FindByID", ctx, "a").Return(records[1], nil).Once()

		svc := NewBuildService(new(mocks.MockTransactionBuilderAPI), repo, quietLogger())

		list, err := svc.History(ctx, 10)
		assert.NoError(t, err)
		assert.Equal(t, records, list)

		record, err := svc.HistoryRecord(ctx, "a")
		assert.NoError(t, err)
		assert.Equal(t, "a", record.ID)
		repo.AssertExpectations(t)
	})
}
