package logger

import (
	"context"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

type suiteInfoKey struct{}

// SuiteInfo identifies the suite run a log line belongs to
type SuiteInfo struct {
	Suite string
	RunID string
	Step  string
}

func (i SuiteInfo) fields() []zap.Field {
	fields := []zap.Field{
		zap.String("suite", i.Suite),
		zap.String("run_id", i.RunID),
	}
	if i.Step != "" {
		fields = append(fields, zap.String("step", i.Step))
	}
	return fields
}

// WithSuite returns a context whose logger and sentry scope are tagged with the suite run.
// The sentry hub is cloned so concurrent suites do not share scope tags.
func WithSuite(ctx context.Context, info SuiteInfo) context.Context {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub = hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("suite", info.Suite)
		scope.SetTag("run_id", info.RunID)
		if info.Step != "" {
			scope.SetTag("step", info.Step)
		}
	})

	ctx = sentry.SetHubOnContext(ctx, hub)
	return context.WithValue(ctx, suiteInfoKey{}, info)
}

// WithStep narrows an existing suite context to a single step
func WithStep(ctx context.Context, step string) context.Context {
	info, _ := suiteInfoFromContext(ctx)
	info.Step = step
	return WithSuite(ctx, info)
}

func suiteInfoFromContext(ctx context.Context) (SuiteInfo, bool) {
	info, ok := ctx.Value(suiteInfoKey{}).(SuiteInfo)
	return info, ok
}
