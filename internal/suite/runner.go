// Package suite runs the ERC-721 and ERC-998 conformance scenarios against a live node.
package suite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/nft-suite/internal/adapter"
	"github.com/feral-file/nft-suite/internal/chain"
	"github.com/feral-file/nft-suite/internal/domain"
	"github.com/feral-file/nft-suite/internal/ledger"
	"github.com/feral-file/nft-suite/internal/logger"
	"github.com/feral-file/nft-suite/internal/signer"
)

// Step is one ordered action and assertion of a suite
type Step struct {
	Name string
	Run  func(ctx context.Context, env *Env) error
}

// Suite is a fixture followed by ordered steps
type Suite struct {
	Name domain.SuiteName
	// Fixture deploys the contract and binds it into the env
	Fixture func(ctx context.Context, env *Env) error
	Steps   []Step
}

// Config holds runner configuration
type Config struct {
	ChainID     uint64
	TokenURI    string
	FailFast    bool
	StepTimeout time.Duration
	PoolSize    int
}

// Runner executes suites
type Runner struct {
	cfg        Config
	transactor *chain.Transactor
	signers    *signer.Set
	clock      adapter.Clock
}

// NewRunner creates a suite runner
func NewRunner(cfg Config, transactor *chain.Transactor, signers *signer.Set, clock adapter.Clock) *Runner {
	if cfg.TokenURI == "" {
		cfg.TokenURI = domain.DefaultTokenURI
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = time.Minute
	}
	if cfg.PoolSize < 1 {
		cfg.PoolSize = 1
	}
	return &Runner{
		cfg:        cfg,
		transactor: transactor,
		signers:    signers,
		clock:      clock,
	}
}

// Run executes the fixture then every step of s in order
func (r *Runner) Run(ctx context.Context, s Suite) *domain.SuiteRun {
	run := r.newRun(s)
	ctx = logger.WithSuite(ctx, logger.SuiteInfo{Suite: string(s.Name), RunID: run.ID})

	env := &Env{
		Suite:      s.Name,
		TokenURI:   r.cfg.TokenURI,
		Transactor: r.transactor,
		Signers:    r.signers,
		Ledger:     ledger.New(),
	}

	logger.InfoCtx(ctx, "Running suite", zap.Int("steps", len(s.Steps)))

	if err := r.runFixture(ctx, s, env); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("fixture failed: %w", err))
		run.FixtureError = err.Error()
		run.Steps = skipAll(s.Steps, "fixture failed")
		run.FinishedAt = r.clock.Now()
		return run
	}
	run.ContractAddress = env.Contract

	failed := false
	for _, step := range s.Steps {
		switch {
		case ctx.Err() != nil:
			if run.Aborted == "" {
				run.Aborted = ctx.Err().Error()
				logger.WarnCtx(ctx, "Suite aborted", zap.String("before_step", step.Name), zap.Error(ctx.Err()))
			}
			run.Steps = append(run.Steps, skipped(step.Name, ctx.Err().Error()))
		case failed && r.cfg.FailFast:
			run.Steps = append(run.Steps, skipped(step.Name, "previous step failed"))
		default:
			result := r.runStep(ctx, env, step)
			if result.Status == domain.StepStatusFailed {
				failed = true
			}
			run.Steps = append(run.Steps, result)
		}
	}

	run.FinishedAt = r.clock.Now()
	passed, failedCount, skippedCount := run.Counts()
	logger.InfoCtx(ctx, "Suite finished",
		zap.String("status", string(run.Status())),
		zap.String("contract", run.ContractAddress.Hex()),
		zap.Int("passed", passed),
		zap.Int("failed", failedCount),
		zap.Int("skipped", skippedCount),
		zap.Duration("duration", run.FinishedAt.Sub(run.StartedAt)),
	)

	return run
}

// RunAll runs suites concurrently on a bounded pool and returns runs in input order
func (r *Runner) RunAll(ctx context.Context, suites []Suite) []*domain.SuiteRun {
	pool := pond.NewResultPool[*domain.SuiteRun](r.cfg.PoolSize, pond.WithContext(ctx))
	defer pool.StopAndWait()

	tasks := make([]pond.Result[*domain.SuiteRun], len(suites))
	for i, s := range suites {
		tasks[i] = pool.Submit(func() *domain.SuiteRun {
			return r.Run(ctx, s)
		})
	}

	runs := make([]*domain.SuiteRun, len(suites))
	for i, task := range tasks {
		run, err := task.Wait()
		if err != nil || run == nil {
			if err == nil {
				err = errors.New("suite produced no run")
			}
			logger.ErrorCtx(ctx, fmt.Errorf("suite %s aborted: %w", suites[i].Name, err))
			run = r.newRun(suites[i])
			run.FixtureError = err.Error()
			run.Steps = skipAll(suites[i].Steps, "suite aborted")
			run.FinishedAt = r.clock.Now()
		}
		runs[i] = run
	}

	return runs
}

func (r *Runner) newRun(s Suite) *domain.SuiteRun {
	now := r.clock.Now()
	return &domain.SuiteRun{
		ID:        ulid.MustNewDefault(now).String(),
		Suite:     s.Name,
		ChainID:   r.cfg.ChainID,
		StartedAt: now,
	}
}

func (r *Runner) runFixture(ctx context.Context, s Suite, env *Env) (err error) {
	if s.Fixture == nil {
		return errors.New("suite has no fixture")
	}

	ctx, cancel := context.WithTimeout(logger.WithStep(ctx, "fixture"), r.cfg.StepTimeout)
	defer cancel()
	defer recoverStep(&err)

	return s.Fixture(ctx, env)
}

func (r *Runner) runStep(ctx context.Context, env *Env, step Step) domain.StepResult {
	ctx, cancel := context.WithTimeout(logger.WithStep(ctx, step.Name), r.cfg.StepTimeout)
	defer cancel()

	start := r.clock.Now()
	err := func() (err error) {
		defer recoverStep(&err)
		return step.Run(ctx, env)
	}()

	result := domain.StepResult{
		Name:     step.Name,
		Status:   domain.StepStatusPassed,
		TxHashes: env.takeTxHashes(),
		Duration: r.clock.Since(start),
	}
	if err != nil {
		result.Status = domain.StepStatusFailed
		result.Error = err.Error()
		logger.ErrorCtx(ctx, fmt.Errorf("step failed: %w", err), zap.Int("tx_count", len(result.TxHashes)))
		return result
	}

	logger.InfoCtx(ctx, "Step passed", zap.Duration("duration", result.Duration), zap.Int("tx_count", len(result.TxHashes)))
	return result
}

func recoverStep(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("step panicked: %v", r)
	}
}

func skipped(name, reason string) domain.StepResult {
	return domain.StepResult{Name: name, Status: domain.StepStatusSkipped, Error: reason}
}

func skipAll(steps []Step, reason string) []domain.StepResult {
	results := make([]domain.StepResult, 0, len(steps))
	for _, step := range steps {
		results = append(results, skipped(step.Name, reason))
	}
	return results
}
