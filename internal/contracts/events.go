package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/feral-file/nft-suite/internal/domain"
)

// TransferEventSignature is Transfer(address,address,uint256); ERC-721 indexes all three arguments
var TransferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// Transfer is a decoded ERC-721 Transfer log
type Transfer struct {
	From     common.Address
	To       common.Address
	TokenID  *big.Int
	TxHash   common.Hash
	LogIndex uint
}

// IsMint reports whether the transfer originates from the zero address
func (t Transfer) IsMint() bool {
	return t.From == (common.Address{})
}

// TransfersIn returns the ERC-721 Transfer logs emitted by contract in receipt, in log order
func TransfersIn(receipt *types.Receipt, contract common.Address) []Transfer {
	if receipt == nil {
		return nil
	}

	var transfers []Transfer
	for _, log := range receipt.Logs {
		if log == nil || log.Address != contract {
			continue
		}
		// ERC-20 Transfer shares the signature but only indexes two arguments
		if len(log.Topics) != 4 || log.Topics[0] != TransferEventSignature {
			continue
		}
		transfers = append(transfers, Transfer{
			From:     common.BytesToAddress(log.Topics[1].Bytes()),
			To:       common.BytesToAddress(log.Topics[2].Bytes()),
			TokenID:  new(big.Int).SetBytes(log.Topics[3].Bytes()),
			TxHash:   log.TxHash,
			LogIndex: log.Index,
		})
	}
	return transfers
}

// MintedToken returns the id of the single token minted to to in receipt
func MintedToken(receipt *types.Receipt, contract, to common.Address) (*big.Int, error) {
	var minted []*big.Int
	for _, t := range TransfersIn(receipt, contract) {
		if t.IsMint() && t.To == to {
			minted = append(minted, t.TokenID)
		}
	}

	switch len(minted) {
	case 0:
		return nil, fmt.Errorf("%w: no mint to %s in tx %s", domain.ErrMissingTransferEvent, to.Hex(), receiptHash(receipt))
	case 1:
		return minted[0], nil
	default:
		return nil, fmt.Errorf("expected one mint to %s in tx %s, found %d", to.Hex(), receiptHash(receipt), len(minted))
	}
}

// TransferOf returns the transfer of tokenID to to in receipt
func TransferOf(receipt *types.Receipt, contract common.Address, tokenID *big.Int, to common.Address) (Transfer, error) {
	for _, t := range TransfersIn(receipt, contract) {
		if t.TokenID.Cmp(tokenID) == 0 && t.To == to {
			return t, nil
		}
	}
	return Transfer{}, fmt.Errorf("%w: token %s to %s in tx %s", domain.ErrMissingTransferEvent, tokenID, to.Hex(), receiptHash(receipt))
}

func receiptHash(receipt *types.Receipt) string {
	if receipt == nil {
		return "<nil>"
	}
	return receipt.TxHash.Hex()
}
