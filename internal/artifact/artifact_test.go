package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/nft-suite/internal/adapter"
	"github.com/feral-file/nft-suite/internal/domain"
)

func newTestLoader() *Loader {
	return NewLoader(adapter.NewJSON())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		contractName string
		methods      []string
	}{
		{
			name:         "erc721 artifact",
			path:         filepath.Join("testdata", "CustomERC721.json"),
			contractName: "CustomERC721",
			methods:      []string{"safeMint", "balanceOf", "ownerOf", "transferFrom", "pause", "unpause"},
		},
		{
			name:         "erc998 artifact",
			path:         filepath.Join("testdata", "ERC998TopDownComposableEnumerable.json"),
			contractName: "ERC998TopDownComposableEnumerable",
			methods: []string{
				"mintParent", "mintChild", "approve", "rootOwnerOf", "addressOfRootOwner",
				"safeTransferFrom(address,address,uint256,bytes)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := newTestLoader().Load(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.contractName, a.ContractName)
			assert.NotEmpty(t, a.Bytecode)
			assert.NoError(t, a.Require(tt.methods...))
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		return path
	}

	tests := []struct {
		name    string
		path    string
		target  error
		wantErr string
	}{
		{
			name:    "missing file",
			path:    filepath.Join(tmpDir, "missing.json"),
			target:  os.ErrNotExist,
			wantErr: "failed to read artifact",
		},
		{
			name:    "interface without bytecode",
			path:    filepath.Join("testdata", "Interface.json"),
			target:  domain.ErrNoBytecode,
			wantErr: "Interface",
		},
		{
			name:    "malformed json",
			path:    write("malformed.json", `{"contractName": `),
			wantErr: "failed to unmarshal artifact",
		},
		{
			name:    "invalid abi",
			path:    write("badabi.json", `{"contractName":"Bad","abi":[{"type":"function","name":"x","inputs":[{"name":"a","type":"uint7"}]}],"bytecode":"0x00"}`),
			wantErr: "failed to parse abi of Bad",
		},
		{
			name:    "invalid bytecode",
			path:    write("badcode.json", `{"contractName":"Bad","abi":[],"bytecode":"0xzz"}`),
			wantErr: "failed to decode bytecode of Bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := newTestLoader().Load(tt.path)
			require.Error(t, err)
			assert.Nil(t, a)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target))
			}
		})
	}
}

func TestRequire_MissingMethod(t *testing.T) {
	a, err := newTestLoader().Load(filepath.Join("testdata", "CustomERC721.json"))
	require.NoError(t, err)

	err = a.Require("safeMint", "mintParent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingMethod))
	assert.Contains(t, err.Error(), "CustomERC721.mintParent")
}

func TestMethodKey_Overloads(t *testing.T) {
	a, err := newTestLoader().Load(filepath.Join("testdata", "CustomERC721.json"))
	require.NoError(t, err)

	withData, ok := MethodKey(a.ABI, "safeTransferFrom(address,address,uint256,bytes)")
	require.True(t, ok)
	withoutData, ok := MethodKey(a.ABI, "safeTransferFrom(address,address,uint256)")
	require.True(t, ok)
	assert.NotEqual(t, withData, withoutData)
	assert.Len(t, a.ABI.Methods[withData].Inputs, 4)
	assert.Len(t, a.ABI.Methods[withoutData].Inputs, 3)

	_, ok = MethodKey(a.ABI, "burn(uint256)")
	assert.False(t, ok)
	assert.True(t, a.HasMethod("paused"))
	assert.False(t, a.HasMethod("burn"))
}
