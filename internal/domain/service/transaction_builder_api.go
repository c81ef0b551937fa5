package service

import (
	"context"

	"github.com/damon-houk/anvil-basic-tx/internal/domain/entity"
)

// TransactionBuilderAPI defines the interface for the external transaction-building service
type TransactionBuilderAPI interface {
	// BuildTransaction asks the service to build an unsigned transaction
	BuildTransaction(ctx context.Context, req *entity.BuildRequest) (*entity.BuildResult, error)

	// Health returns the raw body of the service's health endpoint
	Health(ctx context.Context) (string, error)
}
