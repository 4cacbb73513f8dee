package contracts

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/feral-file/nft-suite/internal/artifact"
	"github.com/feral-file/nft-suite/internal/domain"
)

const (
	MethodMintParent         = "mintParent"
	MethodMintChild          = "mintChild"
	MethodRootOwnerOf        = "rootOwnerOf"
	MethodAddressOfRootOwner = "addressOfRootOwner"
	// MethodNestChild is the overload that carries the receiving parent id as data
	MethodNestChild = "safeTransferFrom(address,address,uint256,bytes)"
)

// ERC998Methods are required from an ERC998TopDownComposableEnumerable artifact
var ERC998Methods = []string{
	MethodMintParent,
	MethodMintChild,
	MethodBalanceOf,
	MethodOwnerOf,
	MethodApprove,
	MethodNestChild,
	MethodRootOwnerOf,
	MethodAddressOfRootOwner,
}

// ERC998 is a top-down composable token whose tokens can hold tokens of the same contract
type ERC998 struct {
	token
}

// NewERC998 binds an ERC998TopDownComposableEnumerable deployed at address
func NewERC998(address common.Address, art *artifact.Artifact, backend bind.ContractBackend) (*ERC998, error) {
	t, err := newToken(address, art, backend, ERC998Methods...)
	if err != nil {
		return nil, err
	}
	return &ERC998{token: t}, nil
}

// MintParent mints a parent token with uri to to
func (c *ERC998) MintParent(opts *bind.TransactOpts, to common.Address, uri string) (*types.Transaction, error) {
	return c.transact(opts, MethodMintParent, to, uri)
}

// MintChild mints a child token for parentID; it is owned by the parent's owner
func (c *ERC998) MintChild(opts *bind.TransactOpts, parentID *big.Int, uri string) (*types.Transaction, error) {
	return c.transact(opts, MethodMintChild, parentID, uri)
}

// NestChild transfers childID from from into composable, attaching it to parentID
func (c *ERC998) NestChild(opts *bind.TransactOpts, from, composable common.Address, childID, parentID *big.Int) (*types.Transaction, error) {
	return c.transact(opts, MethodNestChild, from, composable, childID, ParentData(parentID))
}

// RootOwnerOf resolves the account at the top of tokenID's nesting chain
func (c *ERC998) RootOwnerOf(opts *bind.CallOpts, tokenID *big.Int) (common.Address, error) {
	out, err := c.call(opts, MethodRootOwnerOf, tokenID)
	if err != nil {
		return common.Address{}, err
	}
	return DecodeRootOwner(out[0])
}

// AddressOfRootOwner resolves the root owner of tokenID held by contract
func (c *ERC998) AddressOfRootOwner(opts *bind.CallOpts, contract common.Address, tokenID *big.Int) (common.Address, error) {
	out, err := c.call(opts, MethodAddressOfRootOwner, contract, tokenID)
	if err != nil {
		return common.Address{}, err
	}
	return DecodeRootOwner(out[0])
}

// ParentData encodes a parent token id as the 32-byte big-endian word read by onERC721Received
func ParentData(parentID *big.Int) []byte {
	return common.LeftPadBytes(parentID.Bytes(), 32)
}

// DecodeRootOwner accepts either an address or the ERC-998 bytes32 encoding
// (magic value in the top 4 bytes, address in the low 20 bytes).
func DecodeRootOwner(v any) (common.Address, error) {
	switch out := v.(type) {
	case common.Address:
		return out, nil
	case [32]byte:
		magic := binary.BigEndian.Uint32(out[:4])
		if magic != domain.ERC998MagicValue && magic != 0 {
			return common.Address{}, fmt.Errorf("unexpected root owner prefix 0x%08x", magic)
		}
		return common.BytesToAddress(out[12:]), nil
	default:
		return common.Address{}, fmt.Errorf("unsupported root owner type %T", v)
	}
}
