package suite

import (
	"context"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/feral-file/nft-suite/internal/artifact"
	"github.com/feral-file/nft-suite/internal/contracts"
	"github.com/feral-file/nft-suite/internal/domain"
)

// NewERC998Suite builds the ERC998TopDownComposableEnumerable scenario around art
func NewERC998Suite(art *artifact.Artifact) Suite {
	return Suite{
		Name:    domain.SuiteERC998,
		Fixture: erc998Fixture(art),
		Steps: []Step{
			{Name: "mints a parent NFT and a child NFT to the owner address", Run: erc998MintFamily(LabelOwner, "parent0", "child0")},
			{Name: "mints a parent NFT and a child NFT to addr1", Run: erc998MintFamily(LabelAddr1, "parent1", "child1")},
			{Name: "returns the number of NFTs owned by owner", Run: erc998Balance(LabelOwner, 2)},
			{Name: "returns the root owner of child0", Run: erc998AddressOfRootOwnerChild0},
			{Name: "returns the number of NFTs owned by addr1", Run: erc998Balance(LabelAddr1, 2)},
			{Name: "nests child0 under parent1 owned by addr1", Run: erc998NestChild0UnderParent1},
			{Name: "owner only owns one NFT after nesting", Run: erc998Balance(LabelOwner, 1)},
			{Name: "rejects nesting child0 under parent0 by its former owner", Run: erc998RejectRenest},
		},
	}
}

func erc998Fixture(art *artifact.Artifact) func(context.Context, *Env) error {
	return func(ctx context.Context, env *Env) error {
		if err := art.Require(contracts.ERC998Methods...); err != nil {
			return err
		}
		deployer, err := env.Signer(LabelOwner)
		if err != nil {
			return err
		}
		if _, err := env.Signer(LabelAddr1); err != nil {
			return err
		}

		address, receipt, err := env.Transactor.Deploy(ctx, deployer, art)
		env.track(receipt)
		if err != nil {
			return err
		}

		token, err := contracts.NewERC998(address, art, env.Transactor.Client())
		if err != nil {
			return err
		}
		env.Contract = token.Address()
		env.ERC998 = token
		return nil
	}
}

// erc998MintFamily mints a parent to label and a child for that parent, both sent by owner
func erc998MintFamily(label, parentLabel, childLabel string) func(context.Context, *Env) error {
	return func(ctx context.Context, env *Env) error {
		to, err := env.Address(label)
		if err != nil {
			return err
		}

		receipt, err := env.Send(ctx, LabelOwner, func(opts *bind.TransactOpts) (*types.Transaction, error) {
			return env.ERC998.MintParent(opts, to, env.TokenURI)
		})
		if err != nil {
			return fmt.Errorf("mintParent to %s: %w", label, err)
		}
		parentID, err := contracts.MintedToken(receipt, env.Contract, to)
		if err != nil {
			return err
		}
		if err := env.Ledger.Record(parentLabel, parentID, to); err != nil {
			return err
		}

		// The child is minted to whoever owns the parent
		receipt, err = env.Send(ctx, LabelOwner, func(opts *bind.TransactOpts) (*types.Transaction, error) {
			return env.ERC998.MintChild(opts, parentID, env.TokenURI)
		})
		if err != nil {
			return fmt.Errorf("mintChild for %s: %w", parentLabel, err)
		}
		childID, err := contracts.MintedToken(receipt, env.Contract, to)
		if err != nil {
			return err
		}
		if err := env.Ledger.Record(childLabel, childID, to); err != nil {
			return err
		}
		if err := env.Ledger.MintedUnder(childLabel, parentLabel); err != nil {
			return err
		}

		if err := checkOwnedBy(ctx, env, env.ERC998, parentLabel, label); err != nil {
			return err
		}
		return checkOwnedBy(ctx, env, env.ERC998, childLabel, label)
	}
}

func erc998Balance(label string, documented int64) func(context.Context, *Env) error {
	return func(ctx context.Context, env *Env) error {
		return checkBalance(ctx, env, env.ERC998, label, documented)
	}
}

func erc998AddressOfRootOwnerChild0(ctx context.Context, env *Env) error {
	owner, err := env.Address(LabelOwner)
	if err != nil {
		return err
	}
	expected, err := env.Ledger.RootOwner("child0")
	if err != nil {
		return err
	}
	if err := expectAddress("ledger root owner of child0", owner, expected); err != nil {
		return err
	}

	id, err := env.Ledger.ID("child0")
	if err != nil {
		return err
	}
	root, err := env.ERC998.AddressOfRootOwner(env.CallOpts(ctx), env.Contract, id)
	if err != nil {
		return err
	}
	return expectAddress("addressOfRootOwner(contract, child0)", expected, root)
}

// checkRootOwner compares rootOwnerOf(tokenLabel) with the ledger
func checkRootOwner(ctx context.Context, env *Env, tokenLabel string) error {
	expected, err := env.Ledger.RootOwner(tokenLabel)
	if err != nil {
		return err
	}
	id, err := env.Ledger.ID(tokenLabel)
	if err != nil {
		return err
	}
	root, err := env.ERC998.RootOwnerOf(env.CallOpts(ctx), id)
	if err != nil {
		return err
	}
	return expectAddress(fmt.Sprintf("rootOwnerOf(%s)", tokenLabel), expected, root)
}

func erc998NestChild0UnderParent1(ctx context.Context, env *Env) error {
	owner, err := env.Address(LabelOwner)
	if err != nil {
		return err
	}
	childID, err := env.Ledger.ID("child0")
	if err != nil {
		return err
	}
	parentID, err := env.Ledger.ID("parent1")
	if err != nil {
		return err
	}

	if _, err := env.Send(ctx, LabelOwner, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return env.ERC998.Approve(opts, env.Contract, childID)
	}); err != nil {
		return fmt.Errorf("approve composable for child0: %w", err)
	}
	if env.ERC998.HasGetApproved() {
		approved, err := env.ERC998.GetApproved(env.CallOpts(ctx), childID)
		if err != nil {
			return err
		}
		if err := expectAddress("getApproved(child0)", env.Contract, approved); err != nil {
			return err
		}
	}

	receipt, err := env.Send(ctx, LabelOwner, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return env.ERC998.NestChild(opts, owner, env.Contract, childID, parentID)
	})
	if err != nil {
		return fmt.Errorf("safeTransferFrom(owner, contract, child0, parent1): %w", err)
	}
	if _, err := contracts.TransferOf(receipt, env.Contract, childID, env.Contract); err != nil {
		return err
	}
	if err := env.Ledger.Nest("child0", "parent1", env.Contract); err != nil {
		return err
	}
	if !slices.Contains(env.Ledger.Children("parent1"), "child0") {
		return fmt.Errorf("%w: ledger does not list child0 under parent1", domain.ErrAssertion)
	}

	if err := checkRootOwner(ctx, env, "child0"); err != nil {
		return err
	}
	if err := checkOwnedBy(ctx, env, env.ERC998, "parent1", LabelAddr1); err != nil {
		return err
	}
	return checkOwner(ctx, env, env.ERC998, "child0")
}

// erc998RejectRenest tries to move child0 back under the parent it was minted for
func erc998RejectRenest(ctx context.Context, env *Env) error {
	owner, err := env.Address(LabelOwner)
	if err != nil {
		return err
	}
	child, err := env.Ledger.Lookup("child0")
	if err != nil {
		return err
	}
	if child.MintedFor == "" {
		return fmt.Errorf("%w: child0 was not minted for a parent", domain.ErrAssertion)
	}
	parentID, err := env.Ledger.ID(child.MintedFor)
	if err != nil {
		return err
	}

	err = env.ExpectRevert(ctx, LabelOwner, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return env.ERC998.NestChild(opts, owner, env.Contract, child.ID, parentID)
	})
	if err != nil {
		return fmt.Errorf("safeTransferFrom(owner, contract, child0, %s): %w", child.MintedFor, err)
	}
	return checkRootOwner(ctx, env, "child0")
}
