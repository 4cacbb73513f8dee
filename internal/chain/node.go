package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/nft-suite/internal/adapter"
	"github.com/feral-file/nft-suite/internal/logger"
)

// WaitForNode polls the node until it answers eth_chainId or timeout elapses.
// Dev nodes are often started alongside the runner, so early failures are expected.
func WaitForNode(ctx context.Context, client adapter.EthClient, timeout time.Duration) (*big.Int, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = timeout
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.2

	var attempts int
	notify := func(err error, next time.Duration) {
		attempts++
		logger.WarnCtx(ctx, "Node not ready, retrying",
			zap.Error(err),
			zap.Int("attempt", attempts),
			zap.Duration("next_retry_in", next),
		)
	}

	operation := func() (*big.Int, error) {
		chainID, err := client.ChainID(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		return chainID, nil
	}

	chainID, err := backoff.RetryNotifyWithData(operation, backoff.WithContext(b, ctx), notify)
	if err != nil {
		return nil, fmt.Errorf("node not reachable after %d attempts: %w", attempts+1, err)
	}

	logger.InfoCtx(ctx, "Node ready", zap.String("chain_id", chainID.String()))
	return chainID, nil
}
