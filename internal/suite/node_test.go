package suite

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang/mock/gomock"

	"github.com/feral-file/nft-suite/internal/artifact"
	"github.com/feral-file/nft-suite/internal/contracts"
	"github.com/feral-file/nft-suite/internal/domain"
	"github.com/feral-file/nft-suite/internal/mocks"
)

var errExecutionReverted = errors.New("execution reverted")

// tokenFaults switch off individual rules of the simulated token
type tokenFaults struct {
	// transfers skip the owner and approval checks
	ignoreOwnership bool
	// transfers succeed while paused
	transferWhilePaused bool
	// mints succeed while paused
	mintWhilePaused bool
	// mintChild mints to the sender instead of the parent's owner
	mintChildToSender bool
	// nesting transfers emit no Transfer log
	silentNest bool
	// rootOwnerOf returns the direct owner instead of walking parents
	flatRootOwner bool
}

// tokenNode is an in-memory chain holding a single ERC-721 or ERC-998 contract.
// It is served to the bindings through a MockEthClient.
type tokenNode struct {
	chainID *big.Int
	abi     abi.ABI
	faults  tokenFaults

	mu       sync.Mutex
	contract common.Address
	deployer common.Address
	nonces   map[common.Address]uint64
	receipts map[common.Hash]*types.Receipt
	owners   map[uint64]common.Address
	approved map[uint64]common.Address
	parents  map[uint64]uint64
	nextID   uint64
	paused   bool
	block    int64
}

func newTokenNode(art *artifact.Artifact, faults tokenFaults) *tokenNode {
	return &tokenNode{
		chainID:  big.NewInt(31337),
		abi:      art.ABI,
		faults:   faults,
		nonces:   make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*types.Receipt),
		owners:   make(map[uint64]common.Address),
		approved: make(map[uint64]common.Address),
		parents:  make(map[uint64]uint64),
	}
}

// client returns a MockEthClient answering from the node state
func (n *tokenNode) client(ctrl *gomock.Controller) *mocks.MockEthClient {
	client := mocks.NewMockEthClient(ctrl)
	client.EXPECT().PendingNonceAt(gomock.Any(), gomock.Any()).DoAndReturn(n.pendingNonceAt).AnyTimes()
	client.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).DoAndReturn(n.sendTransaction).AnyTimes()
	client.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).DoAndReturn(n.transactionReceipt).AnyTimes()
	client.EXPECT().CodeAt(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(n.codeAt).AnyTimes()
	client.EXPECT().CallContract(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(n.callContract).AnyTimes()
	return client
}

// mintTo mints a token without going through a transaction
func (n *tokenNode) mintTo(to common.Address) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.owners[id] = to
	return id
}

func (n *tokenNode) isPaused() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.paused
}

func (n *tokenNode) pendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nonces[account], nil
}

func (n *tokenNode) sendTransaction(_ context.Context, tx *types.Transaction) error {
	from, err := types.Sender(types.LatestSignerForChainID(n.chainID), tx)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if tx.Nonce() != n.nonces[from] {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), n.nonces[from])
	}
	n.nonces[from]++
	n.block++

	receipt := &types.Receipt{
		TxHash:      tx.Hash(),
		Status:      types.ReceiptStatusSuccessful,
		GasUsed:     tx.Gas() / 2,
		BlockNumber: big.NewInt(n.block),
	}
	if tx.To() == nil {
		n.contract = crypto.CreateAddress(from, tx.Nonce())
		n.deployer = from
		receipt.ContractAddress = n.contract
	} else {
		logs, err := n.execute(from, *tx.To(), tx.Data())
		if err != nil {
			receipt.Status = types.ReceiptStatusFailed
		}
		for i, log := range logs {
			log.TxHash = tx.Hash()
			log.Index = uint(i)
		}
		receipt.Logs = logs
	}
	n.receipts[tx.Hash()] = receipt
	return nil
}

func (n *tokenNode) transactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	receipt, ok := n.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (n *tokenNode) codeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if account != n.contract || n.contract == (common.Address{}) {
		return nil, nil
	}
	return []byte{0x60, 0x80, 0x60, 0x40}, nil
}

func (n *tokenNode) method(data []byte) (*abi.Method, []any, error) {
	if len(data) < 4 {
		return nil, nil, errExecutionReverted
	}
	method, err := n.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return method, args, nil
}

// execute applies a state-changing call; a returned error reverts the transaction
func (n *tokenNode) execute(from, to common.Address, data []byte) ([]*types.Log, error) {
	if to != n.contract {
		return nil, errExecutionReverted
	}
	method, args, err := n.method(data)
	if err != nil {
		return nil, err
	}

	switch method.Sig {
	case "safeMint(address,string)", "mintParent(address,string)":
		if n.paused && !n.faults.mintWhilePaused {
			return nil, errExecutionReverted
		}
		return n.mint(args[0].(common.Address)), nil
	case "mintChild(uint256,string)":
		parent := args[0].(*big.Int).Uint64()
		owner, ok := n.owners[parent]
		if !ok {
			return nil, errExecutionReverted
		}
		if n.faults.mintChildToSender {
			owner = from
		}
		return n.mint(owner), nil
	case "pause()", "unpause()":
		if from != n.deployer {
			return nil, errExecutionReverted
		}
		n.paused = method.Name == contracts.MethodPause
		return nil, nil
	case "approve(address,uint256)":
		id := args[1].(*big.Int).Uint64()
		if owner, ok := n.owners[id]; !ok || owner != from {
			return nil, errExecutionReverted
		}
		n.approved[id] = args[0].(common.Address)
		return nil, nil
	case "transferFrom(address,address,uint256)", "safeTransferFrom(address,address,uint256)":
		return n.transfer(from, args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int).Uint64(), nil)
	case "safeTransferFrom(address,address,uint256,bytes)":
		return n.transfer(from, args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int).Uint64(), args[3].([]byte))
	default:
		return nil, errExecutionReverted
	}
}

func (n *tokenNode) mint(to common.Address) []*types.Log {
	id := n.nextID
	n.nextID++
	n.owners[id] = to
	return []*types.Log{n.transferLog(common.Address{}, to, id)}
}

func (n *tokenNode) transfer(sender, from, to common.Address, id uint64, data []byte) ([]*types.Log, error) {
	if n.paused && !n.faults.transferWhilePaused {
		return nil, errExecutionReverted
	}
	owner, ok := n.owners[id]
	if !ok {
		return nil, errExecutionReverted
	}
	if !n.faults.ignoreOwnership {
		if owner != from {
			return nil, errExecutionReverted
		}
		if sender != from && n.approved[id] != sender {
			return nil, errExecutionReverted
		}
	}

	delete(n.parents, id)
	if to == n.contract {
		// Receiving a token requires the id of the parent to attach it to
		if len(data) != 32 {
			return nil, errExecutionReverted
		}
		parent := new(big.Int).SetBytes(data).Uint64()
		if _, ok := n.owners[parent]; !ok || parent == id {
			return nil, errExecutionReverted
		}
		n.parents[id] = parent
	}
	n.owners[id] = to
	delete(n.approved, id)

	if to == n.contract && n.faults.silentNest {
		return nil, nil
	}
	return []*types.Log{n.transferLog(from, to, id)}, nil
}

func (n *tokenNode) transferLog(from, to common.Address, id uint64) *types.Log {
	return &types.Log{
		Address: n.contract,
		Topics: []common.Hash{
			contracts.TransferEventSignature,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
			common.BigToHash(new(big.Int).SetUint64(id)),
		},
		BlockNumber: uint64(n.block),
	}
}

func (n *tokenNode) rootOwner(id uint64) common.Address {
	for {
		parent, ok := n.parents[id]
		if !ok {
			return n.owners[id]
		}
		id = parent
	}
}

func (n *tokenNode) callContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if msg.To == nil || *msg.To != n.contract {
		return nil, nil
	}
	method, args, err := n.method(msg.Data)
	if err != nil {
		return nil, err
	}

	var out any
	switch method.Name {
	case contracts.MethodBalanceOf:
		var count int64
		for _, owner := range n.owners {
			if owner == args[0].(common.Address) {
				count++
			}
		}
		out = big.NewInt(count)
	case contracts.MethodOwnerOf:
		owner, ok := n.owners[args[0].(*big.Int).Uint64()]
		if !ok {
			return nil, fmt.Errorf("%w: invalid token id", errExecutionReverted)
		}
		out = owner
	case contracts.MethodPaused:
		out = n.paused
	case contracts.MethodGetApproved:
		out = n.approved[args[0].(*big.Int).Uint64()]
	case contracts.MethodRootOwnerOf:
		id := args[0].(*big.Int).Uint64()
		root := n.rootOwner(id)
		if n.faults.flatRootOwner {
			root = n.owners[id]
		}
		var word [32]byte
		binary.BigEndian.PutUint32(word[:4], domain.ERC998MagicValue)
		copy(word[12:], root.Bytes())
		out = word
	case contracts.MethodAddressOfRootOwner:
		if args[0].(common.Address) != n.contract {
			return nil, errExecutionReverted
		}
		out = n.rootOwner(args[1].(*big.Int).Uint64())
	default:
		return nil, errExecutionReverted
	}
	return method.Outputs.Pack(out)
}
