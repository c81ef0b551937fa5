// Package service internal/application/service/build_service.go
package service

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/damon-houk/anvil-basic-tx/internal/domain/entity"
	"github.com/damon-houk/anvil-basic-tx/internal/domain/repository"
	domainservice "github.com/damon-houk/anvil-basic-tx/internal/domain/service"
	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/logger"
	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/middleware"
)

// ErrHistoryDisabled is returned by history queries when no repository is configured
var ErrHistoryDisabled = errors.New("build history is disabled; set history.path to enable it")

// BuildService requests unsigned transactions and optionally records each attempt
type BuildService struct {
	api    domainservice.TransactionBuilderAPI
	repo   repository.BuildRecordRepository
	logger logger.Logger
	now    func() time.Time
}

// NewBuildService creates a new build service. repo may be nil, which disables history.
func NewBuildService(api domainservice.TransactionBuilderAPI, repo repository.BuildRecordRepository, log logger.Logger) *BuildService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &BuildService{
		api:    api,
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

// Build sends the request once and returns the decoded answer
func (s *BuildService) Build(ctx context.Context, req *entity.BuildRequest) (*entity.BuildResult, error) {
	log := s.logger.WithField("request_id", middleware.GetRequestID(ctx))

	log.Info("Requesting transaction build", map[string]interface{}{
		"change_address": req.ChangeAddress,
		"outputs":        len(req.Outputs),
		"lovelace":       req.TotalLovelace(),
	})

	result, err := s.api.BuildTransaction(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "build transaction")
	}

	log.Info("Build response received", map[string]interface{}{
		"status": result.StatusCode,
	})

	if s.repo != nil {
		s.record(ctx, log, req, result)
	}

	return result, nil
}

// record stores the attempt; a storage failure never fails the build
func (s *BuildService) record(ctx context.Context, log logger.Logger, req *entity.BuildRequest, result *entity.BuildResult) {
	id, err := uuid.NewV7()
	if err != nil {
		log.Warn("Failed to generate build record ID", map[string]interface{}{"error": err})
		return
	}

	response, err := json.Marshal(result.Body)
	if err != nil {
		log.Warn("Failed to encode build response for history", map[string]interface{}{"error": err})
		return
	}

	record := &entity.BuildRecord{
		ID:         id.String(),
		CreatedAt:  s.now().UTC(),
		Request:    *req,
		StatusCode: result.StatusCode,
		Response:   response,
	}

	if _, err := s.repo.Store(ctx, record); err != nil {
		log.Warn("Failed to store build record", map[string]interface{}{
			"id":    record.ID,
			"error": err,
		})
		return
	}

	log.Debug("Build record stored", map[string]interface{}{"id": record.ID})
}

// Render writes the result as indented JSON followed by a newline
func (s *BuildService) Render(w io.Writer, result *entity.BuildResult) error {
	pretty, err := result.Pretty()
	if err != nil {
		return errors.Wrap(err, "failed to format response")
	}

	if _, err := w.Write(append(pretty, '\n')); err != nil {
		return errors.Wrap(err, "failed to write response")
	}

	return nil
}

// Health returns the raw health endpoint body
func (s *BuildService) Health(ctx context.Context) (string, error) {
	body, err := s.api.Health(ctx)
	if err != nil {
		return "", errors.Wrap(err, "health check")
	}
	return body, nil
}

// History lists recorded builds, newest first
func (s *BuildService) History(ctx context.Context, limit int) ([]*entity.BuildRecord, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.List(ctx, limit)
}

// HistoryRecord fetches one recorded build
func (s *BuildService) HistoryRecord(ctx context.Context, id string) (*entity.BuildRecord, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.FindByID(ctx, id)
}
