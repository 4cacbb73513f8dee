package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/nft-suite/internal/domain"
	"github.com/feral-file/nft-suite/internal/logger"
	"github.com/feral-file/nft-suite/internal/messaging"
	"github.com/feral-file/nft-suite/internal/report"
	"github.com/feral-file/nft-suite/internal/store"
)

// outputs fans suite runs out to the configured report sinks.
// store and publisher are optional.
type outputs struct {
	builder   *report.Builder
	reportDir string
	store     store.Store
	publisher messaging.Publisher
}

// deliver builds a report per run and hands it to every sink.
// A failing sink does not stop the others; all sink errors are joined.
func (o *outputs) deliver(ctx context.Context, runs []*domain.SuiteRun) ([]*report.Report, error) {
	reports := make([]*report.Report, 0, len(runs))
	var errs []error

	for _, run := range runs {
		r, err := o.builder.Build(run)
		if err != nil {
			errs = append(errs, fmt.Errorf("suite %s: %w", run.Suite, err))
			continue
		}
		reports = append(reports, r)

		if o.reportDir != "" {
			path, err := o.builder.WriteFile(o.reportDir, r)
			if err != nil {
				errs = append(errs, fmt.Errorf("suite %s: %w", r.Suite, err))
			} else {
				logger.InfoCtx(ctx, "Wrote report", zap.String("suite", string(r.Suite)), zap.String("path", path))
			}
		}

		if o.store != nil {
			if err := o.store.SaveRun(ctx, r); err != nil {
				errs = append(errs, fmt.Errorf("suite %s: %w", r.Suite, err))
			}
		}

		if o.publisher != nil {
			if err := o.publisher.PublishReport(ctx, r); err != nil {
				errs = append(errs, fmt.Errorf("suite %s: %w", r.Suite, err))
			}
		}
	}

	return reports, errors.Join(errs...)
}

// anyFailed reports whether a report did not pass
func anyFailed(reports []*report.Report) bool {
	for _, r := range reports {
		if r.Status != domain.RunStatusPassed {
			return true
		}
	}
	return false
}
