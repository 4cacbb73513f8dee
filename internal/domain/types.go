package domain

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SuiteName identifies a registered conformance suite
type SuiteName string

const (
	SuiteERC721 SuiteName = "erc721"
	SuiteERC998 SuiteName = "erc998"
)

// IsValidSuite checks if a suite name is registered
func IsValidSuite(name SuiteName) bool {
	return name == SuiteERC721 || name == SuiteERC998
}

// ParseSuites converts configured names into suite names, rejecting unknown ones
func ParseSuites(names []string) ([]SuiteName, error) {
	suites := make([]SuiteName, 0, len(names))
	for _, n := range names {
		s := SuiteName(n)
		if !IsValidSuite(s) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSuite, n)
		}
		suites = append(suites, s)
	}
	return suites, nil
}

// StepStatus is the outcome of a single suite step
type StepStatus string

const (
	StepStatusPassed  StepStatus = "passed"
	StepStatusFailed  StepStatus = "failed"
	StepStatusSkipped StepStatus = "skipped"
)

// RunStatus is the overall outcome of a suite run
type RunStatus string

const (
	RunStatusPassed RunStatus = "passed"
	RunStatusFailed RunStatus = "failed"
)

// Account is a named signer identity
type Account struct {
	Label   string         `json:"label"`
	Address common.Address `json:"address"`
}

func (a Account) String() string {
	return fmt.Sprintf("%s(%s)", a.Label, a.Address.Hex())
}

// StepResult records the outcome of one step
type StepResult struct {
	Name     string        `json:"name"`
	Status   StepStatus    `json:"status"`
	Error    string        `json:"error,omitempty"`
	TxHashes []common.Hash `json:"tx_hashes,omitempty"`
	Duration time.Duration `json:"duration"`
}

// SuiteRun is the raw outcome of running a suite against a deployment
type SuiteRun struct {
	ID              string         `json:"id"`
	Suite           SuiteName      `json:"suite"`
	ChainID         uint64         `json:"chain_id"`
	ContractAddress common.Address `json:"contract_address"`
	// FixtureError is set when deployment failed and no step ran
	FixtureError string `json:"fixture_error,omitempty"`
	// Aborted is set when the run was cancelled before every step executed
	Aborted    string       `json:"aborted,omitempty"`
	Steps      []StepResult `json:"steps"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Status derives the overall run status from the fixture and step outcomes
func (r *SuiteRun) Status() RunStatus {
	if r.FixtureError != "" || r.Aborted != "" {
		return RunStatusFailed
	}
	for _, s := range r.Steps {
		if s.Status == StepStatusFailed {
			return RunStatusFailed
		}
	}
	return RunStatusPassed
}

// Counts returns the number of passed, failed and skipped steps
func (r *SuiteRun) Counts() (passed, failed, skipped int) {
	for _, s := range r.Steps {
		switch s.Status {
		case StepStatusPassed:
			passed++
		case StepStatusFailed:
			failed++
		case StepStatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}
