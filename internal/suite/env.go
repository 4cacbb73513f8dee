package suite

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/feral-file/nft-suite/internal/chain"
	"github.com/feral-file/nft-suite/internal/contracts"
	"github.com/feral-file/nft-suite/internal/domain"
	"github.com/feral-file/nft-suite/internal/ledger"
	"github.com/feral-file/nft-suite/internal/signer"
)

// Signer labels the suites address accounts by
const (
	LabelOwner = "owner"
	LabelAddr1 = "addr1"
)

// Env is the state shared by the fixture and steps of one suite run
type Env struct {
	Suite      domain.SuiteName
	TokenURI   string
	Transactor *chain.Transactor
	Signers    *signer.Set
	Ledger     *ledger.Ledger

	// Set by the fixture
	Contract common.Address
	ERC721   *contracts.ERC721
	ERC998   *contracts.ERC998

	txHashes []common.Hash
}

// Signer returns the signer with label
func (e *Env) Signer(label string) (*signer.Signer, error) {
	return e.Signers.Get(label)
}

// Address returns the address of the signer with label
func (e *Env) Address(label string) (common.Address, error) {
	s, err := e.Signers.Get(label)
	if err != nil {
		return common.Address{}, err
	}
	return s.Address, nil
}

// Send submits a transaction from label and waits for a successful receipt
func (e *Env) Send(ctx context.Context, label string, fn chain.TxFunc) (*types.Receipt, error) {
	s, err := e.Signers.Get(label)
	if err != nil {
		return nil, err
	}
	receipt, err := e.Transactor.Send(ctx, s, fn)
	e.track(receipt)
	return receipt, err
}

// ExpectRevert submits a transaction from label that must revert
func (e *Env) ExpectRevert(ctx context.Context, label string, fn chain.TxFunc) error {
	s, err := e.Signers.Get(label)
	if err != nil {
		return err
	}
	receipt, err := e.Transactor.ExpectRevert(ctx, s, fn)
	e.track(receipt)
	return err
}

// CallOpts returns read options bound to ctx
func (e *Env) CallOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

func (e *Env) track(receipt *types.Receipt) {
	if receipt != nil {
		e.txHashes = append(e.txHashes, receipt.TxHash)
	}
}

// takeTxHashes returns and clears the hashes recorded since the last call
func (e *Env) takeTxHashes() []common.Hash {
	hashes := e.txHashes
	e.txHashes = nil
	return hashes
}
