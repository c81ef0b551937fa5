// Package repository internal/domain/repository/build_record_repository.go
package repository

import (
	"context"
	"errors"

	"github.com/damon-houk/anvil-basic-tx/internal/domain/entity"
)

// ErrRecordNotFound is returned when no record exists for an ID
var ErrRecordNotFound = errors.New("build record not found")

// BuildRecordRepository defines the interface for build history storage
type BuildRecordRepository interface {
	// Store saves a record and returns its ID
	Store(ctx context.Context, record *entity.BuildRecord) (string, error)

	// FindByID retrieves a record by its unique identifier
	FindByID(ctx context.Context, id string) (*entity.BuildRecord, error)

	// List returns up to limit records, newest first. A limit of zero means all.
	List(ctx context.Context, limit int) ([]*entity.BuildRecord, error)
}
