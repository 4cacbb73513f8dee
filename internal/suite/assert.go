package suite

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/nft-suite/internal/domain"
)

func expectEqual[T comparable](what string, want, got T) error {
	if want != got {
		return fmt.Errorf("%w: %s: expected %v, got %v", domain.ErrAssertion, what, want, got)
	}
	return nil
}

func expectAddress(what string, want, got common.Address) error {
	if want != got {
		return fmt.Errorf("%w: %s: expected %s, got %s", domain.ErrAssertion, what, want.Hex(), got.Hex())
	}
	return nil
}

func expectCount(what string, want int64, got *big.Int) error {
	if got == nil || !got.IsInt64() || got.Int64() != want {
		return fmt.Errorf("%w: %s: expected %d, got %v", domain.ErrAssertion, what, want, got)
	}
	return nil
}
