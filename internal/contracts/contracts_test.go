package contracts_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-suite/internal/adapter"
	"github.com/feral-file/nft-suite/internal/artifact"
	"github.com/feral-file/nft-suite/internal/contracts"
	"github.com/feral-file/nft-suite/internal/domain"
	"github.com/feral-file/nft-suite/internal/mocks"
	"github.com/feral-file/nft-suite/internal/signer"
)

var (
	contractAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	ownerAddress    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	addr1Address    = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func loadArtifact(t *testing.T, name string) *artifact.Artifact {
	t.Helper()
	art, err := artifact.NewLoader(adapter.NewJSON()).Load("../artifact/testdata/" + name + ".json")
	require.NoError(t, err)
	return art
}

func word(b []byte) []byte {
	return common.LeftPadBytes(b, 32)
}

func transactOpts(t *testing.T) *bind.TransactOpts {
	t.Helper()
	set, err := signer.New(nil, nil, big.NewInt(31337), signer.Options{GasPrice: big.NewInt(1), GasLimit: 300_000})
	require.NoError(t, err)
	owner, err := set.Get("owner")
	require.NoError(t, err)
	opts, err := owner.TransactOpts(context.Background())
	require.NoError(t, err)
	return opts
}

// expectSend records the signed transaction the binding submits
func expectSend(client *mocks.MockEthClient) *types.Transaction {
	sent := new(types.Transaction)
	client.EXPECT().PendingNonceAt(gomock.Any(), gomock.Any()).Return(uint64(0), nil)
	client.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tx *types.Transaction) error {
		*sent = *tx
		return nil
	})
	return sent
}

func TestNewERC721_RequiresMethods(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockEthClient(ctrl)

	_, err := contracts.NewERC721(contractAddress, loadArtifact(t, "ERC998TopDownComposableEnumerable"), client)
	assert.ErrorIs(t, err, domain.ErrMissingMethod)
	assert.Contains(t, err.Error(), "safeMint")

	_, err = contracts.NewERC998(contractAddress, loadArtifact(t, "CustomERC721"), client)
	assert.ErrorIs(t, err, domain.ErrMissingMethod)
}

func TestERC721_Reads(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockEthClient(ctrl)
	art := loadArtifact(t, "CustomERC721")

	token, err := contracts.NewERC721(contractAddress, art, client)
	require.NoError(t, err)
	assert.Equal(t, contractAddress, token.Address())
	assert.True(t, token.HasPaused())
	assert.True(t, token.HasGetApproved())

	balanceOf := art.ABI.Methods["balanceOf"].ID
	ownerOf := art.ABI.Methods["ownerOf"].ID
	paused := art.ABI.Methods["paused"].ID

	client.EXPECT().CallContract(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
			require.NotNil(t, msg.To)
			assert.Equal(t, contractAddress, *msg.To)
			switch {
			case string(msg.Data[:4]) == string(balanceOf):
				assert.Equal(t, word(addr1Address.Bytes()), msg.Data[4:])
				return word(big.NewInt(3).Bytes()), nil
			case string(msg.Data[:4]) == string(ownerOf):
				assert.Equal(t, word(nil), msg.Data[4:])
				return word(ownerAddress.Bytes()), nil
			case string(msg.Data[:4]) == string(paused):
				return word([]byte{1}), nil
			}
			t.Fatalf("unexpected call data %x", msg.Data)
			return nil, nil
		}).Times(3)

	ctx := &bind.CallOpts{Context: context.Background()}

	balance, err := token.BalanceOf(ctx, addr1Address)
	require.NoError(t, err)
	assert.Equal(t, int64(3), balance.Int64())

	owner, err := token.OwnerOf(ctx, big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, ownerAddress, owner)

	isPaused, err := token.Paused(ctx)
	require.NoError(t, err)
	assert.True(t, isPaused)
}

func TestERC721_SafeMint(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockEthClient(ctrl)
	art := loadArtifact(t, "CustomERC721")

	token, err := contracts.NewERC721(contractAddress, art, client)
	require.NoError(t, err)

	sent := expectSend(client)
	_, err = token.SafeMint(transactOpts(t), addr1Address, domain.DefaultTokenURI)
	require.NoError(t, err)

	method := art.ABI.Methods["safeMint"]
	require.NotNil(t, sent.To())
	assert.Equal(t, contractAddress, *sent.To())
	assert.Equal(t, method.ID, sent.Data()[:4])

	args, err := method.Inputs.Unpack(sent.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, addr1Address, args[0])
	assert.Equal(t, domain.DefaultTokenURI, args[1])
}

func TestERC998_NestChild(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockEthClient(ctrl)
	art := loadArtifact(t, "ERC998TopDownComposableEnumerable")

	token, err := contracts.NewERC998(contractAddress, art, client)
	require.NoError(t, err)

	sent := expectSend(client)
	_, err = token.NestChild(transactOpts(t), ownerAddress, contractAddress, big.NewInt(1), big.NewInt(2))
	require.NoError(t, err)

	key, ok := artifact.MethodKey(art.ABI, contracts.MethodNestChild)
	require.True(t, ok)
	method := art.ABI.Methods[key]
	assert.Equal(t, method.ID, sent.Data()[:4])

	args, err := method.Inputs.Unpack(sent.Data()[4:])
	require.NoError(t, err)
	require.Len(t, args, 4)
	assert.Equal(t, ownerAddress, args[0])
	assert.Equal(t, contractAddress, args[1])
	assert.Equal(t, int64(1), args[2].(*big.Int).Int64())
	assert.Equal(t, word([]byte{2}), args[3])
}

func TestERC998_RootOwner(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockEthClient(ctrl)
	art := loadArtifact(t, "ERC998TopDownComposableEnumerable")

	token, err := contracts.NewERC998(contractAddress, art, client)
	require.NoError(t, err)

	rootOwnerOf := art.ABI.Methods["rootOwnerOf"].ID
	encoded := word(addr1Address.Bytes())
	copy(encoded[:4], []byte{0xcd, 0x74, 0x0d, 0xb5})

	client.EXPECT().CallContract(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
			if string(msg.Data[:4]) == string(rootOwnerOf) {
				return encoded, nil
			}
			return word(ownerAddress.Bytes()), nil
		}).Times(2)

	ctx := &bind.CallOpts{Context: context.Background()}

	root, err := token.RootOwnerOf(ctx, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, addr1Address, root)

	root, err = token.AddressOfRootOwner(ctx, contractAddress, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, ownerAddress, root)
}

func TestDecodeRootOwner(t *testing.T) {
	var magic, zeroPrefix, badPrefix [32]byte
	copy(magic[12:], addr1Address.Bytes())
	copy(magic[:4], []byte{0xcd, 0x74, 0x0d, 0xb5})
	copy(zeroPrefix[12:], addr1Address.Bytes())
	copy(badPrefix[12:], addr1Address.Bytes())
	copy(badPrefix[:4], []byte{0xde, 0xad, 0xbe, 0xef})

	tests := []struct {
		name    string
		in      any
		want    common.Address
		wantErr bool
	}{
		{name: "address", in: ownerAddress, want: ownerAddress},
		{name: "bytes32 with magic", in: magic, want: addr1Address},
		{name: "bytes32 without prefix", in: zeroPrefix, want: addr1Address},
		{name: "bytes32 with unknown prefix", in: badPrefix, wantErr: true},
		{name: "unsupported type", in: big.NewInt(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := contracts.DecodeRootOwner(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParentData(t *testing.T) {
	data := contracts.ParentData(big.NewInt(258))
	require.Len(t, data, 32)
	assert.Equal(t, byte(0x01), data[30])
	assert.Equal(t, byte(0x02), data[31])
	assert.Equal(t, make([]byte, 30), data[:30])
}
