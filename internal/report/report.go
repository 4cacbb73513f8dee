// Package report turns suite runs into canonical, digest-stamped reports.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/feral-file/nft-suite/internal/adapter"
	"github.com/feral-file/nft-suite/internal/domain"
)

// Report is the serializable outcome of a suite run
type Report struct {
	ID              string              `json:"id"`
	Suite           domain.SuiteName    `json:"suite"`
	ChainID         uint64              `json:"chain_id"`
	ContractAddress common.Address      `json:"contract_address"`
	Status          domain.RunStatus    `json:"status"`
	FixtureError    string              `json:"fixture_error,omitempty"`
	Aborted         string              `json:"aborted,omitempty"`
	Passed          int                 `json:"passed"`
	Failed          int                 `json:"failed"`
	Skipped         int                 `json:"skipped"`
	Steps           []domain.StepResult `json:"steps"`
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      time.Time           `json:"finished_at"`
	// Digest is keccak256 over the canonical report without this field
	Digest string `json:"digest,omitempty"`
}

// Builder builds reports and their canonical encoding
type Builder struct {
	json adapter.JSON
	jcs  adapter.JCS
}

// NewBuilder creates a report builder
func NewBuilder(jsonAdapter adapter.JSON, jcsAdapter adapter.JCS) *Builder {
	return &Builder{json: jsonAdapter, jcs: jcsAdapter}
}

// Build converts run into a report and stamps its digest
func (b *Builder) Build(run *domain.SuiteRun) (*Report, error) {
	if run == nil {
		return nil, fmt.Errorf("run cannot be nil")
	}

	passed, failed, skipped := run.Counts()
	steps := run.Steps
	if steps == nil {
		steps = []domain.StepResult{}
	}

	r := &Report{
		ID:              run.ID,
		Suite:           run.Suite,
		ChainID:         run.ChainID,
		ContractAddress: run.ContractAddress,
		Status:          run.Status(),
		FixtureError:    run.FixtureError,
		Aborted:         run.Aborted,
		Passed:          passed,
		Failed:          failed,
		Skipped:         skipped,
		Steps:           steps,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
	}

	digest, err := b.digest(r)
	if err != nil {
		return nil, err
	}
	r.Digest = digest
	return r, nil
}

// Canonical returns the RFC 8785 encoding of r
func (b *Builder) Canonical(r *Report) ([]byte, error) {
	data, err := b.json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	canonical, err := b.jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize report: %w", err)
	}
	return canonical, nil
}

// Verify recomputes the digest of r and compares it with the stamped one
func (b *Builder) Verify(r *Report) error {
	digest, err := b.digest(r)
	if err != nil {
		return err
	}
	if digest != r.Digest {
		return fmt.Errorf("report digest mismatch: stamped %s, computed %s", r.Digest, digest)
	}
	return nil
}

// WriteFile writes the indented report to dir as <suite>-<id>.json
func (b *Builder) WriteFile(dir string, r *Report) (string, error) {
	data, err := b.json.MarshalIndent(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", r.Suite, strings.ToLower(r.ID)))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func (b *Builder) digest(r *Report) (string, error) {
	unsigned := *r
	unsigned.Digest = ""
	canonical, err := b.Canonical(&unsigned)
	if err != nil {
		return "", err
	}
	return Digest(canonical), nil
}

// Digest returns the hex keccak256 of canonical
func Digest(canonical []byte) string {
	return hexutil.Encode(crypto.Keccak256(canonical))
}

// Summary renders a one-line human readable outcome
func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s: %d passed, %d failed, %d skipped", r.Suite, strings.ToUpper(string(r.Status)), r.Passed, r.Failed, r.Skipped)
	if r.FixtureError != "" {
		fmt.Fprintf(&sb, " (fixture: %s)", r.FixtureError)
	}
	if r.Aborted != "" {
		fmt.Fprintf(&sb, " (aborted: %s)", r.Aborted)
	}
	return sb.String()
}
