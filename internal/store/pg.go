package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/nft-suite/internal/adapter"
	"github.com/feral-file/nft-suite/internal/domain"
	"github.com/feral-file/nft-suite/internal/logger"
	"github.com/feral-file/nft-suite/internal/report"
	"github.com/feral-file/nft-suite/internal/store/schema"
)

type pgStore struct {
	db   *gorm.DB
	json adapter.JSON
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB, jsonAdapter adapter.JSON) Store {
	return &pgStore{db: db, json: jsonAdapter}
}

// ConfigureConnectionPool configures the connection pool of the underlying *sql.DB.
// Zero values fall back to defaults, see NormalizeConnectionPoolSettings.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime = NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings.
//
// Defaults (when zero):
//   - MaxOpenConns: 5
//   - MaxIdleConns: 2
//   - ConnMaxLifetime: 1 hour
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (int, int, time.Duration) {
	if maxOpenConns <= 0 {
		maxOpenConns = 5
	}
	if maxIdleConns <= 0 {
		maxIdleConns = 2
	}
	if connMaxLifetime <= 0 {
		connMaxLifetime = time.Hour
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime
}

// AutoMigrate creates or updates the suite_runs table
func (s *pgStore) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&schema.SuiteRun{}); err != nil {
		return fmt.Errorf("failed to migrate suite_runs: %w", err)
	}
	return nil
}

// SaveRun inserts or replaces the run described by r
func (s *pgStore) SaveRun(ctx context.Context, r *report.Report) error {
	if r == nil {
		return fmt.Errorf("report cannot be nil")
	}
	if r.ID == "" {
		return fmt.Errorf("report has no id")
	}

	doc, err := s.json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	contract := ""
	if r.FixtureError == "" {
		contract = r.ContractAddress.Hex()
	}

	run := schema.SuiteRun{
		ID:              r.ID,
		Suite:           string(r.Suite),
		ChainID:         r.ChainID,
		ContractAddress: contract,
		Status:          string(r.Status),
		Passed:          r.Passed,
		Failed:          r.Failed,
		Skipped:         r.Skipped,
		Digest:          r.Digest,
		Report:          datatypes.JSON(doc),
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "passed", "failed", "skipped", "digest", "report", "finished_at"}),
		}).
		Create(&run).Error
	if err != nil {
		return fmt.Errorf("failed to save suite run: %w", err)
	}

	logger.DebugCtx(ctx, "Saved suite run", zap.String("id", run.ID), zap.String("suite", run.Suite), zap.String("status", run.Status))
	return nil
}

// GetRun retrieves a run by id
func (s *pgStore) GetRun(ctx context.Context, id string) (*schema.SuiteRun, error) {
	var run schema.SuiteRun
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get suite run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the latest runs first, optionally filtered by suite
func (s *pgStore) ListRuns(ctx context.Context, suite domain.SuiteName, limit int) ([]schema.SuiteRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := s.db.WithContext(ctx).Model(&schema.SuiteRun{})
	if suite != "" {
		query = query.Where("suite = ?", string(suite))
	}

	var runs []schema.SuiteRun
	err := query.Order("started_at DESC").Order("id DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list suite runs: %w", err)
	}
	return runs, nil
}
