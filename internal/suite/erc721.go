package suite

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/feral-file/nft-suite/internal/artifact"
	"github.com/feral-file/nft-suite/internal/contracts"
	"github.com/feral-file/nft-suite/internal/domain"
)

// NewERC721Suite builds the CustomERC721 scenario around art
func NewERC721Suite(art *artifact.Artifact) Suite {
	return Suite{
		Name:    domain.SuiteERC721,
		Fixture: erc721Fixture(art),
		Steps: []Step{
			{Name: "mints an NFT to the owner address", Run: erc721MintTo(LabelOwner, "token0")},
			{Name: "mints an NFT to addr1", Run: erc721MintTo(LabelAddr1, "token1")},
			{Name: "returns the number of NFTs owned by addr1", Run: erc721Balance(LabelAddr1, 1)},
			{Name: "returns the owner of token 0", Run: erc721OwnerOfToken0},
			{Name: "transfers token 0 from owner to addr1", Run: erc721TransferToken0ToAddr1},
			{Name: "rejects transfer of token 0 back to owner when sent by owner", Run: erc721RejectForeignTransfer},
			{Name: "transfers token 0 back to owner when sent by addr1", Run: erc721TransferBackFromAddr1},
			{Name: "pauses token transfer and minting", Run: erc721Pause},
			{Name: "unpauses the contract for transfers and minting", Run: erc721Unpause},
		},
	}
}

func erc721Fixture(art *artifact.Artifact) func(context.Context, *Env) error {
	return func(ctx context.Context, env *Env) error {
		if err := art.Require(contracts.ERC721Methods...); err != nil {
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

		token, err := contracts.NewERC721(address, art, env.Transactor.Client())
		if err != nil {
			return err
		}
		env.Contract = token.Address()
		env.ERC721 = token
		return nil
	}
}

// mintERC721 mints to label from owner and records the id read from the receipt
func mintERC721(ctx context.Context, env *Env, label, tokenLabel string) error {
	to, err := env.Address(label)
	if err != nil {
		return err
	}

	receipt, err := env.Send(ctx, LabelOwner, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return env.ERC721.SafeMint(opts, to, env.TokenURI)
	})
	if err != nil {
		return fmt.Errorf("safeMint to %s: %w", label, err)
	}

	id, err := contracts.MintedToken(receipt, env.Contract, to)
	if err != nil {
		return err
	}
	return env.Ledger.Record(tokenLabel, id, to)
}

func erc721MintTo(label, tokenLabel string) func(context.Context, *Env) error {
	return func(ctx context.Context, env *Env) error {
		if err := mintERC721(ctx, env, label, tokenLabel); err != nil {
			return err
		}
		return checkOwnedBy(ctx, env, env.ERC721, tokenLabel, label)
	}
}

func erc721Balance(label string, documented int64) func(context.Context, *Env) error {
	return func(ctx context.Context, env *Env) error {
		return checkBalance(ctx, env, env.ERC721, label, documented)
	}
}

func erc721OwnerOfToken0(ctx context.Context, env *Env) error {
	return checkOwnedBy(ctx, env, env.ERC721, "token0", LabelOwner)
}

// transferToken0 sends transferFrom(from, to, token0) from sender and updates the ledger
func transferToken0(ctx context.Context, env *Env, sender, from, to string) error {
	fromAddr, err := env.Address(from)
	if err != nil {
		return err
	}
	toAddr, err := env.Address(to)
	if err != nil {
		return err
	}
	id, err := env.Ledger.ID("token0")
	if err != nil {
		return err
	}

	receipt, err := env.Send(ctx, sender, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return env.ERC721.TransferFrom(opts, fromAddr, toAddr, id)
	})
	if err != nil {
		return fmt.Errorf("transferFrom(%s, %s, token0) by %s: %w", from, to, sender, err)
	}

	transfer, err := contracts.TransferOf(receipt, env.Contract, id, toAddr)
	if err != nil {
		return err
	}
	if err := expectAddress("Transfer.from", fromAddr, transfer.From); err != nil {
		return err
	}
	return env.Ledger.Transfer("token0", toAddr)
}

func erc721TransferToken0ToAddr1(ctx context.Context, env *Env) error {
	if err := transferToken0(ctx, env, LabelOwner, LabelOwner, LabelAddr1); err != nil {
		return err
	}
	return checkOwnedBy(ctx, env, env.ERC721, "token0", LabelAddr1)
}

func erc721RejectForeignTransfer(ctx context.Context, env *Env) error {
	owner, err := env.Address(LabelOwner)
	if err != nil {
		return err
	}
	addr1, err := env.Address(LabelAddr1)
	if err != nil {
		return err
	}
	id, err := env.Ledger.ID("token0")
	if err != nil {
		return err
	}

	err = env.ExpectRevert(ctx, LabelOwner, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return env.ERC721.TransferFrom(opts, addr1, owner, id)
	})
	if err != nil {
		return fmt.Errorf("transferFrom(addr1, owner, token0) by owner: %w", err)
	}
	return checkOwnedBy(ctx, env, env.ERC721, "token0", LabelAddr1)
}

func erc721TransferBackFromAddr1(ctx context.Context, env *Env) error {
	if err := transferToken0(ctx, env, LabelAddr1, LabelAddr1, LabelOwner); err != nil {
		return err
	}
	return checkOwnedBy(ctx, env, env.ERC721, "token0", LabelOwner)
}

func checkPaused(ctx context.Context, env *Env, want bool) error {
	if !env.ERC721.HasPaused() {
		return nil
	}
	paused, err := env.ERC721.Paused(env.CallOpts(ctx))
	if err != nil {
		return err
	}
	return expectEqual("paused()", want, paused)
}

func erc721Pause(ctx context.Context, env *Env) error {
	if _, err := env.Send(ctx, LabelOwner, env.ERC721.Pause); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	if err := checkPaused(ctx, env, true); err != nil {
		return err
	}

	owner, err := env.Address(LabelOwner)
	if err != nil {
		return err
	}
	addr1, err := env.Address(LabelAddr1)
	if err != nil {
		return err
	}
	id, err := env.Ledger.ID("token0")
	if err != nil {
		return err
	}

	err = env.ExpectRevert(ctx, LabelOwner, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return env.ERC721.TransferFrom(opts, owner, addr1, id)
	})
	if err != nil {
		return fmt.Errorf("transferFrom while paused: %w", err)
	}

	err = env.ExpectRevert(ctx, LabelOwner, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return env.ERC721.SafeMint(opts, addr1, env.TokenURI)
	})
	if err != nil {
		return fmt.Errorf("safeMint while paused: %w", err)
	}

	return checkBalance(ctx, env, env.ERC721, LabelAddr1, 1)
}

func erc721Unpause(ctx context.Context, env *Env) error {
	if _, err := env.Send(ctx, LabelOwner, env.ERC721.Unpause); err != nil {
		return fmt.Errorf("unpause: %w", err)
	}
	if err := checkPaused(ctx, env, false); err != nil {
		return err
	}

	if err := transferToken0(ctx, env, LabelOwner, LabelOwner, LabelAddr1); err != nil {
		return err
	}
	if err := mintERC721(ctx, env, LabelAddr1, "token2"); err != nil {
		return err
	}

	return checkBalance(ctx, env, env.ERC721, LabelAddr1, 3)
}
