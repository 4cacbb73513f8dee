// Package contracts binds the ERC-721 and ERC-998 methods the suites consume.
package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/feral-file/nft-suite/internal/artifact"
	"github.com/feral-file/nft-suite/internal/domain"
)

// Methods shared by every ERC-721 compatible token
const (
	MethodBalanceOf    = "balanceOf"
	MethodOwnerOf      = "ownerOf"
	MethodTransferFrom = "transferFrom"
	MethodApprove      = "approve"
	MethodGetApproved  = "getApproved"
)

// token wraps the ERC-721 surface common to both suites
type token struct {
	address  common.Address
	art      *artifact.Artifact
	contract *bind.BoundContract
}

func newToken(address common.Address, art *artifact.Artifact, backend bind.ContractBackend, required ...string) (token, error) {
	if err := art.Require(required...); err != nil {
		return token{}, err
	}
	return token{
		address:  address,
		art:      art,
		contract: bind.NewBoundContract(address, art.ABI, backend, backend, backend),
	}, nil
}

// Address returns the contract address
func (t *token) Address() common.Address {
	return t.address
}

// BalanceOf returns the number of tokens directly owned by owner
func (t *token) BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error) {
	out, err := t.call(opts, MethodBalanceOf, owner)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// OwnerOf returns the direct owner of tokenID
func (t *token) OwnerOf(opts *bind.CallOpts, tokenID *big.Int) (common.Address, error) {
	out, err := t.call(opts, MethodOwnerOf, tokenID)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// TransferFrom moves tokenID from one account to another
func (t *token) TransferFrom(opts *bind.TransactOpts, from, to common.Address, tokenID *big.Int) (*types.Transaction, error) {
	return t.transact(opts, MethodTransferFrom, from, to, tokenID)
}

// Approve authorizes spender to transfer tokenID
func (t *token) Approve(opts *bind.TransactOpts, spender common.Address, tokenID *big.Int) (*types.Transaction, error) {
	return t.transact(opts, MethodApprove, spender, tokenID)
}

// HasGetApproved reports whether the contract exposes getApproved
func (t *token) HasGetApproved() bool {
	return t.art.HasMethod(MethodGetApproved)
}

// GetApproved returns the account approved for tokenID
func (t *token) GetApproved(opts *bind.CallOpts, tokenID *big.Int) (common.Address, error) {
	out, err := t.call(opts, MethodGetApproved, tokenID)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// call invokes a constant method by name or full signature
func (t *token) call(opts *bind.CallOpts, method string, params ...any) ([]any, error) {
	key, ok := artifact.MethodKey(t.art.ABI, method)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", domain.ErrMissingMethod, t.art.ContractName, method)
	}

	var out []any
	if err := t.contract.Call(opts, &out, key, params...); err != nil {
		return nil, fmt.Errorf("failed to call %s.%s: %w", t.art.ContractName, method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s.%s returned no values", t.art.ContractName, method)
	}
	return out, nil
}

// transact sends a method by name or full signature.
// Errors are returned unwrapped so the transaction pipeline can classify reverts.
func (t *token) transact(opts *bind.TransactOpts, method string, params ...any) (*types.Transaction, error) {
	key, ok := artifact.MethodKey(t.art.ABI, method)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", domain.ErrMissingMethod, t.art.ContractName, method)
	}
	return t.contract.Transact(opts, key, params...)
}
