package suite

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/nft-suite/internal/domain"
)

// ownership is the read surface shared by both token bindings
type ownership interface {
	BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error)
	OwnerOf(opts *bind.CallOpts, tokenID *big.Int) (common.Address, error)
}

// checkBalance compares the on-chain balance of label with the ledger.
// documented is the value the scenario is written against; a ledger disagreeing with it
// means an earlier step did not leave the state the scenario relies on.
func checkBalance(ctx context.Context, env *Env, token ownership, label string, documented int64) error {
	addr, err := env.Address(label)
	if err != nil {
		return err
	}

	expected := env.Ledger.BalanceOf(addr)
	if expected != documented {
		return fmt.Errorf("%w: ledger expects balanceOf(%s) = %d, scenario requires %d",
			domain.ErrAssertion, label, expected, documented)
	}

	balance, err := token.BalanceOf(env.CallOpts(ctx), addr)
	if err != nil {
		return err
	}
	return expectCount(fmt.Sprintf("balanceOf(%s)", label), expected, balance)
}

// checkOwner compares the on-chain owner of a token label with the ledger
func checkOwner(ctx context.Context, env *Env, token ownership, tokenLabel string) error {
	entry, err := env.Ledger.Lookup(tokenLabel)
	if err != nil {
		return err
	}

	owner, err := token.OwnerOf(env.CallOpts(ctx), entry.ID)
	if err != nil {
		return err
	}
	return expectAddress(fmt.Sprintf("ownerOf(%s=%s)", tokenLabel, entry.ID), entry.Owner, owner)
}

// checkOwnedBy verifies the ledger and chain both agree tokenLabel is directly held by label
func checkOwnedBy(ctx context.Context, env *Env, token ownership, tokenLabel, label string) error {
	addr, err := env.Address(label)
	if err != nil {
		return err
	}
	entry, err := env.Ledger.Lookup(tokenLabel)
	if err != nil {
		return err
	}
	if err := expectAddress(fmt.Sprintf("ledger owner of %s", tokenLabel), addr, entry.Owner); err != nil {
		return err
	}
	return checkOwner(ctx, env, token, tokenLabel)
}
