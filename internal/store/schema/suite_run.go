package schema

import (
	"time"

	"gorm.io/datatypes"
)

// SuiteRun represents the suite_runs table
type SuiteRun struct {
	// ID is the ULID of the run
	ID string `gorm:"column:id;primaryKey;type:char(26)"`
	// Suite is the suite name, e.g. erc721
	Suite string `gorm:"column:suite;not null;index:idx_suite_runs_suite_started,priority:1"`
	// ChainID is the chain the suite ran against
	ChainID uint64 `gorm:"column:chain_id;not null"`
	// ContractAddress is the fixture deployment, empty when the fixture failed
	ContractAddress string `gorm:"column:contract_address;type:text"`
	// Status is passed or failed
	Status string `gorm:"column:status;not null;index"`
	Passed  int `gorm:"column:passed;not null;default:0"`
	Failed  int `gorm:"column:failed;not null;default:0"`
	Skipped int `gorm:"column:skipped;not null;default:0"`
	// Digest is the keccak256 of the canonical report
	Digest string `gorm:"column:digest;not null"`
	// Report is the full report document
	Report     datatypes.JSON `gorm:"column:report;type:jsonb;not null"`
	StartedAt  time.Time      `gorm:"column:started_at;not null;index:idx_suite_runs_suite_started,priority:2,sort:desc"`
	FinishedAt time.Time      `gorm:"column:finished_at;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (SuiteRun) TableName() string {
	return "suite_runs"
}
