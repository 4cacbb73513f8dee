package contracts

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/feral-file/nft-suite/internal/artifact"
)

const (
	MethodSafeMint = "safeMint"
	MethodPause    = "pause"
	MethodUnpause  = "unpause"
	MethodPaused   = "paused"
)

// ERC721Methods are required from a CustomERC721 artifact
var ERC721Methods = []string{
	MethodSafeMint,
	MethodBalanceOf,
	MethodOwnerOf,
	MethodTransferFrom,
	MethodPause,
	MethodUnpause,
}

// ERC721 is a pausable, mintable ERC-721 token
type ERC721 struct {
	token
}

// NewERC721 binds a CustomERC721 deployed at address
func NewERC721(address common.Address, art *artifact.Artifact, backend bind.ContractBackend) (*ERC721, error) {
	t, err := newToken(address, art, backend, ERC721Methods...)
	if err != nil {
		return nil, err
	}
	return &ERC721{token: t}, nil
}

// SafeMint mints a new token with uri to to
func (c *ERC721) SafeMint(opts *bind.TransactOpts, to common.Address, uri string) (*types.Transaction, error) {
	return c.transact(opts, MethodSafeMint, to, uri)
}

// Pause stops transfers and minting
func (c *ERC721) Pause(opts *bind.TransactOpts) (*types.Transaction, error) {
	return c.transact(opts, MethodPause)
}

// Unpause resumes transfers and minting
func (c *ERC721) Unpause(opts *bind.TransactOpts) (*types.Transaction, error) {
	return c.transact(opts, MethodUnpause)
}

// HasPaused reports whether the contract exposes paused()
func (c *ERC721) HasPaused() bool {
	return c.art.HasMethod(MethodPaused)
}

// Paused reads the pause flag
func (c *ERC721) Paused(opts *bind.CallOpts) (bool, error) {
	out, err := c.call(opts, MethodPaused)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}
