// Package chain sends suite transactions and waits for their outcome.
package chain

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/nft-suite/internal/adapter"
	"github.com/feral-file/nft-suite/internal/artifact"
	"github.com/feral-file/nft-suite/internal/domain"
	"github.com/feral-file/nft-suite/internal/logger"
	"github.com/feral-file/nft-suite/internal/signer"
)

// Config holds receipt wait settings
type Config struct {
	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
}

// TxFunc builds and submits a transaction with the given options
type TxFunc func(opts *bind.TransactOpts) (*types.Transaction, error)

// Transactor submits transactions for signers and awaits their receipts
type Transactor struct {
	client adapter.EthClient
	cfg    Config
}

// NewTransactor creates a Transactor
func NewTransactor(client adapter.EthClient, cfg Config) *Transactor {
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = 30 * time.Second
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = 200 * time.Millisecond
	}
	return &Transactor{client: client, cfg: cfg}
}

// Client returns the backend the transactor sends through
func (t *Transactor) Client() adapter.EthClient {
	return t.client
}

// Send submits the transaction built by fn and waits until it is mined.
// A receipt with failed status is returned together with domain.ErrReverted.
func (t *Transactor) Send(ctx context.Context, s *signer.Signer, fn TxFunc) (*types.Receipt, error) {
	s.Lock()
	defer s.Unlock()

	opts, err := s.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := fn(opts)
	if err != nil {
		return nil, ClassifyError(err)
	}

	receipt, err := t.WaitReceipt(ctx, tx.Hash())
	if err != nil {
		return nil, err
	}

	logger.DebugCtx(ctx, "Transaction mined",
		zap.String("from", s.Label),
		zap.String("tx_hash", receipt.TxHash.Hex()),
		zap.Uint64("status", receipt.Status),
		zap.Uint64("gas_used", receipt.GasUsed),
	)

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: tx %s", domain.ErrReverted, receipt.TxHash.Hex())
	}

	return receipt, nil
}

// ExpectRevert succeeds only when the transaction built by fn reverts, either during
// gas estimation or once mined. The receipt is returned when the transaction was mined.
func (t *Transactor) ExpectRevert(ctx context.Context, s *signer.Signer, fn TxFunc) (*types.Receipt, error) {
	receipt, err := t.Send(ctx, s, fn)
	if err == nil {
		return receipt, fmt.Errorf("%w: tx %s from %s", domain.ErrUnexpectedSuccess, receipt.TxHash.Hex(), s.Label)
	}
	if !errors.Is(err, domain.ErrReverted) {
		return receipt, err
	}

	logger.DebugCtx(ctx, "Transaction reverted as expected", zap.String("from", s.Label), zap.Error(err))
	return receipt, nil
}

// WaitReceipt polls for the receipt of txHash until it is available or the receipt timeout elapses
func (t *Transactor) WaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, t.cfg.ReceiptTimeout)
	defer cancel()

	operation := func() (*types.Receipt, error) {
		receipt, err := t.client.TransactionReceipt(waitCtx, txHash)
		if err == nil {
			return receipt, nil
		}
		if waitCtx.Err() != nil {
			return nil, backoff.Permanent(waitCtx.Err())
		}
		if !errors.Is(err, ethereum.NotFound) {
			logger.WarnCtx(ctx, "Receipt lookup failed, retrying", zap.String("tx_hash", txHash.Hex()), zap.Error(err))
		}
		return nil, err
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(t.cfg.ReceiptPollInterval), waitCtx)
	receipt, err := backoff.RetryWithData(operation, b)
	if err != nil {
		if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: tx %s after %s", domain.ErrReceiptTimeout, txHash.Hex(), t.cfg.ReceiptTimeout)
		}
		return nil, fmt.Errorf("failed to get receipt for tx %s: %w", txHash.Hex(), err)
	}

	return receipt, nil
}

// Deploy deploys the artifact's creation code from s and returns the contract address
func (t *Transactor) Deploy(ctx context.Context, s *signer.Signer, art *artifact.Artifact, args ...any) (common.Address, *types.Receipt, error) {
	constructorInput, err := art.ABI.Pack("", args...)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("failed to pack %s constructor: %w", art.ContractName, err)
	}

	var address common.Address
	receipt, err := t.Send(ctx, s, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		addr, tx, err := bind.DeployContract(opts, slices.Clip(art.Bytecode), t.client, constructorInput)
		address = addr
		return tx, err
	})
	if err != nil {
		return common.Address{}, receipt, fmt.Errorf("failed to deploy %s: %w", art.ContractName, err)
	}

	if receipt.ContractAddress != (common.Address{}) && receipt.ContractAddress != address {
		return common.Address{}, receipt, fmt.Errorf("deployed %s at %s but receipt reports %s",
			art.ContractName, address.Hex(), receipt.ContractAddress.Hex())
	}

	code, err := t.client.CodeAt(ctx, address, nil)
	if err != nil {
		return common.Address{}, receipt, fmt.Errorf("failed to get code of %s: %w", art.ContractName, err)
	}
	if len(code) == 0 {
		return common.Address{}, receipt, fmt.Errorf("%w: %s at %s", domain.ErrNoCode, art.ContractName, address.Hex())
	}

	logger.InfoCtx(ctx, "Contract deployed",
		zap.String("contract", art.ContractName),
		zap.String("address", address.Hex()),
		zap.String("deployer", s.Label),
		zap.String("tx_hash", receipt.TxHash.Hex()),
	)

	return address, receipt, nil
}
