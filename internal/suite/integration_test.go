package suite_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/feral-file/nft-suite/internal/adapter"
	"github.com/feral-file/nft-suite/internal/artifact"
	"github.com/feral-file/nft-suite/internal/chain"
	"github.com/feral-file/nft-suite/internal/domain"
	"github.com/feral-file/nft-suite/internal/signer"
	"github.com/feral-file/nft-suite/internal/suite"
)

const anvilImage = "ghcr.io/foundry-rs/foundry:latest"

// startNode returns the RPC URL of a dev node, starting an anvil container unless TEST_RPC_URL is set
func startNode(t *testing.T) string {
	t.Helper()
	if url := os.Getenv("TEST_RPC_URL"); url != "" {
		return url
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        anvilImage,
			Entrypoint:   []string{"anvil"},
			Cmd:          []string{"--host", "0.0.0.0", "--chain-id", "31337"},
			ExposedPorts: []string{"8545/tcp"},
			WaitingFor:   wait.ForListeningPort("8545/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("anvil container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate anvil container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8545/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

// TestSuites_AgainstDevNode runs both suites end to end.
// The compiled contracts are external, so the test needs TEST_ERC721_ARTIFACT and TEST_ERC998_ARTIFACT.
func TestSuites_AgainstDevNode(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	paths := map[domain.SuiteName]string{
		domain.SuiteERC721: os.Getenv("TEST_ERC721_ARTIFACT"),
		domain.SuiteERC998: os.Getenv("TEST_ERC998_ARTIFACT"),
	}
	if paths[domain.SuiteERC721] == "" || paths[domain.SuiteERC998] == "" {
		t.Skip("TEST_ERC721_ARTIFACT and TEST_ERC998_ARTIFACT are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := adapter.NewEthClientDialer().Dial(ctx, startNode(t))
	require.NoError(t, err)
	defer client.Close()

	chainID, err := chain.WaitForNode(ctx, client, 30*time.Second)
	require.NoError(t, err)

	signers, err := signer.New(nil, nil, chainID, signer.Options{})
	require.NoError(t, err)

	transactor := chain.NewTransactor(client, chain.Config{
		ReceiptTimeout:      30 * time.Second,
		ReceiptPollInterval: 100 * time.Millisecond,
	})
	runner := suite.NewRunner(suite.Config{
		ChainID:     chainID.Uint64(),
		StepTimeout: time.Minute,
		PoolSize:    2,
	}, transactor, signers, adapter.NewClock())

	loader := artifact.NewLoader(adapter.NewJSON())
	var suites []suite.Suite
	for _, name := range []domain.SuiteName{domain.SuiteERC721, domain.SuiteERC998} {
		art, err := loader.Load(paths[name])
		require.NoError(t, err)
		s, err := suite.Build(name, art)
		require.NoError(t, err)
		suites = append(suites, s)
	}

	for _, run := range runner.RunAll(ctx, suites) {
		assert.Empty(t, run.FixtureError, run.Suite)
		for _, step := range run.Steps {
			assert.Equal(t, domain.StepStatusPassed, step.Status, "%s: %s: %s", run.Suite, step.Name, step.Error)
		}
	}
}
