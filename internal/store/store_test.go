package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-suite/internal/domain"
	"github.com/feral-file/nft-suite/internal/report"
)

// buildTestReport creates a report started at the given offset from a fixed base time
func buildTestReport(suite domain.SuiteName, status domain.RunStatus, offset time.Duration) *report.Report {
	started := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC).Add(offset)
	r := &report.Report{
		ID:              ulid.MustNew(ulid.Timestamp(started), ulid.DefaultEntropy()).String(),
		Suite:           suite,
		ChainID:         31337,
		ContractAddress: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		Status:          status,
		Passed:          2,
		Steps: []domain.StepResult{
			{Name: "should mint", Status: domain.StepStatusPassed, Duration: time.Second},
			{Name: "should transfer", Status: domain.StepStatusPassed, Duration: time.Second},
		},
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Digest:     "0xabc",
	}
	if status == domain.RunStatusFailed {
		r.Passed = 1
		r.Failed = 1
		r.Steps[1].Status = domain.StepStatusFailed
		r.Steps[1].Error = "assertion failed"
	}
	return r
}

// RunStoreTests runs the store behaviour tests against a Store implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("SaveRun and GetRun", func(t *testing.T) {
		s := initDB(t)
		r := buildTestReport(domain.SuiteERC721, domain.RunStatusPassed, 0)

		require.NoError(t, s.SaveRun(ctx, r))

		run, err := s.GetRun(ctx, r.ID)
		require.NoError(t, err)
		require.NotNil(t, run)
		assert.Equal(t, r.ID, run.ID)
		assert.Equal(t, "erc721", run.Suite)
		assert.Equal(t, uint64(31337), run.ChainID)
		assert.Equal(t, r.ContractAddress.Hex(), run.ContractAddress)
		assert.Equal(t, "passed", run.Status)
		assert.Equal(t, 2, run.Passed)
		assert.Equal(t, 0, run.Failed)
		assert.Equal(t, "0xabc", run.Digest)
		assert.True(t, r.StartedAt.Equal(run.StartedAt))

		var stored report.Report
		require.NoError(t, json.Unmarshal(run.Report, &stored))
		assert.Equal(t, r.ID, stored.ID)
		require.Len(t, stored.Steps, 2)
		assert.Equal(t, "should transfer", stored.Steps[1].Name)
	})

	t.Run("GetRun returns nil when absent", func(t *testing.T) {
		s := initDB(t)
		run, err := s.GetRun(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV")
		require.NoError(t, err)
		assert.Nil(t, run)
	})

	t.Run("SaveRun replaces an existing run", func(t *testing.T) {
		s := initDB(t)
		r := buildTestReport(domain.SuiteERC998, domain.RunStatusPassed, 0)
		require.NoError(t, s.SaveRun(ctx, r))

		r.Status = domain.RunStatusFailed
		r.Failed = 1
		r.Digest = "0xdef"
		require.NoError(t, s.SaveRun(ctx, r))

		run, err := s.GetRun(ctx, r.ID)
		require.NoError(t, err)
		require.NotNil(t, run)
		assert.Equal(t, "failed", run.Status)
		assert.Equal(t, 1, run.Failed)
		assert.Equal(t, "0xdef", run.Digest)
	})

	t.Run("SaveRun leaves contract empty on fixture failure", func(t *testing.T) {
		s := initDB(t)
		r := buildTestReport(domain.SuiteERC721, domain.RunStatusFailed, 0)
		r.FixtureError = "deploy reverted"
		require.NoError(t, s.SaveRun(ctx, r))

		run, err := s.GetRun(ctx, r.ID)
		require.NoError(t, err)
		require.NotNil(t, run)
		assert.Empty(t, run.ContractAddress)
	})

	t.Run("SaveRun rejects invalid input", func(t *testing.T) {
		s := initDB(t)
		assert.Error(t, s.SaveRun(ctx, nil))
		assert.Error(t, s.SaveRun(ctx, &report.Report{}))
	})

	t.Run("ListRuns orders newest first and filters by suite", func(t *testing.T) {
		s := initDB(t)
		older := buildTestReport(domain.SuiteERC721, domain.RunStatusPassed, 0)
		newer := buildTestReport(domain.SuiteERC721, domain.RunStatusFailed, time.Hour)
		other := buildTestReport(domain.SuiteERC998, domain.RunStatusPassed, 30*time.Minute)
		for _, r := range []*report.Report{older, newer, other} {
			require.NoError(t, s.SaveRun(ctx, r))
		}

		all, err := s.ListRuns(ctx, "", 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, newer.ID, all[0].ID)
		assert.Equal(t, other.ID, all[1].ID)
		assert.Equal(t, older.ID, all[2].ID)

		erc721, err := s.ListRuns(ctx, domain.SuiteERC721, 0)
		require.NoError(t, err)
		require.Len(t, erc721, 2)
		assert.Equal(t, newer.ID, erc721[0].ID)

		limited, err := s.ListRuns(ctx, "", 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, newer.ID, limited[0].ID)
	})
}
