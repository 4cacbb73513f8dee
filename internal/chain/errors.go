package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/feral-file/nft-suite/internal/domain"
)

// revertMarkers are substrings node implementations use when a call or estimation reverts
var revertMarkers = []string{
	"execution reverted",
	"vm exception while processing transaction",
	"reverted with reason string",
	"reverted with custom error",
	"reverted with panic code",
	"transaction reverted",
}

// ClassifyError wraps revert errors returned by the node with domain.ErrReverted.
// Other errors are returned unchanged.
func ClassifyError(err error) error {
	if err == nil || errors.Is(err, domain.ErrReverted) {
		return err
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if reason, ok := RevertReason(dataErr.ErrorData()); ok {
			return fmt.Errorf("%w (%s): %w", domain.ErrReverted, reason, err)
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range revertMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %w", domain.ErrReverted, err)
		}
	}

	return err
}

// RevertReason decodes the revert payload attached to a JSON-RPC error.
// Error(string) and Panic(uint256) payloads are decoded; custom errors yield their selector.
func RevertReason(data any) (string, bool) {
	s, ok := data.(string)
	if !ok || s == "" || s == "0x" {
		return "", false
	}

	raw, err := hexutil.Decode(s)
	if err != nil {
		return "", false
	}

	if reason, err := abi.UnpackRevert(raw); err == nil {
		return reason, true
	}
	if len(raw) >= 4 {
		return fmt.Sprintf("custom error %s", hexutil.Encode(raw[:4])), true
	}
	return "", false
}
