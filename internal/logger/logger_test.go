package logger

import (
	"context"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeWithoutSentry(t *testing.T) {
	require.NoError(t, Initialize(Config{Debug: true}))
	assert.NotNil(t, Default())

	// Must not panic with a nil context
	FromContext(nil).Debug("nil context")
}

func TestWithSuite(t *testing.T) {
	ctx := WithSuite(context.Background(), SuiteInfo{Suite: "erc721", RunID: "01HZX"})

	info, ok := suiteInfoFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "erc721", info.Suite)
	assert.Equal(t, "01HZX", info.RunID)
	assert.Empty(t, info.Step)

	hub := sentry.GetHubFromContext(ctx)
	require.NotNil(t, hub)
	assert.NotSame(t, sentry.CurrentHub(), hub)
}

func TestWithStep(t *testing.T) {
	suiteCtx := WithSuite(context.Background(), SuiteInfo{Suite: "erc998", RunID: "01HZY"})
	stepCtx := WithStep(suiteCtx, "mint parent and child")

	info, ok := suiteInfoFromContext(stepCtx)
	require.True(t, ok)
	assert.Equal(t, "erc998", info.Suite)
	assert.Equal(t, "mint parent and child", info.Step)

	// The parent context is left untouched
	parent, _ := suiteInfoFromContext(suiteCtx)
	assert.Empty(t, parent.Step)
}

func TestSuiteInfoFields(t *testing.T) {
	assert.Len(t, SuiteInfo{Suite: "a", RunID: "b"}.fields(), 2)
	assert.Len(t, SuiteInfo{Suite: "a", RunID: "b", Step: "c"}.fields(), 3)
}
