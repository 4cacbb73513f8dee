package store

import (
	"context"

	"github.com/feral-file/nft-suite/internal/domain"
	"github.com/feral-file/nft-suite/internal/report"
	"github.com/feral-file/nft-suite/internal/store/schema"
)

// DefaultListLimit caps ListRuns when no limit is given
const DefaultListLimit = 20

// Store defines the interface for suite run persistence
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// AutoMigrate creates or updates the suite_runs table
	AutoMigrate(ctx context.Context) error
	// SaveRun inserts or replaces the run described by r
	SaveRun(ctx context.Context, r *report.Report) error
	// GetRun retrieves a run by id, nil when absent
	GetRun(ctx context.Context, id string) (*schema.SuiteRun, error)
	// ListRuns returns the latest runs, optionally filtered by suite
	ListRuns(ctx context.Context, suite domain.SuiteName, limit int) ([]schema.SuiteRun, error)
}
