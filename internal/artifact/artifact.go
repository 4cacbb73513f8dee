// Package artifact loads compiled Hardhat contract artifacts.
package artifact

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/feral-file/nft-suite/internal/adapter"
	"github.com/feral-file/nft-suite/internal/domain"
)

// hardhatArtifact mirrors the fields of artifacts/contracts/<File>.sol/<Name>.json
type hardhatArtifact struct {
	Format       string `json:"_format"`
	ContractName string `json:"contractName"`
	SourceName   string `json:"sourceName"`
	ABI          any    `json:"abi"`
	Bytecode     string `json:"bytecode"`
}

// Artifact is a parsed contract ABI with its creation bytecode
type Artifact struct {
	ContractName string
	SourceName   string
	ABI          abi.ABI
	Bytecode     []byte
}

// Loader reads artifacts from disk
type Loader struct {
	json adapter.JSON
}

// NewLoader creates an artifact loader
func NewLoader(jsonAdapter adapter.JSON) *Loader {
	return &Loader{json: jsonAdapter}
}

// Load reads and parses the artifact at path
func (l *Loader) Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	return l.Parse(data)
}

// Parse parses raw artifact JSON
func (l *Loader) Parse(data []byte) (*Artifact, error) {
	var raw hardhatArtifact
	if err := l.json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}

	// The ABI is re-encoded so go-ethereum can parse it on its own terms
	abiJSON, err := l.json.Marshal(raw.ABI)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal abi of %s: %w", raw.ContractName, err)
	}
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi of %s: %w", raw.ContractName, err)
	}

	if raw.Bytecode == "" || raw.Bytecode == "0x" {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoBytecode, raw.ContractName)
	}
	bytecode, err := hexutil.Decode(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bytecode of %s: %w", raw.ContractName, err)
	}

	return &Artifact{
		ContractName: raw.ContractName,
		SourceName:   raw.SourceName,
		ABI:          parsed,
		Bytecode:     bytecode,
	}, nil
}

// HasMethod reports whether the ABI exposes a method by name or full signature
func (a *Artifact) HasMethod(nameOrSig string) bool {
	_, ok := MethodKey(a.ABI, nameOrSig)
	return ok
}

// MethodKey resolves a method name or full signature to its key in abi.Methods.
// Overloaded methods are keyed name, name0, name1... so signatures are the stable handle.
func MethodKey(parsed abi.ABI, nameOrSig string) (string, bool) {
	if _, ok := parsed.Methods[nameOrSig]; ok {
		return nameOrSig, true
	}
	for key, m := range parsed.Methods {
		if m.Sig == nameOrSig {
			return key, true
		}
	}
	return "", false
}

// Require fails when any of the named methods are absent from the ABI
func (a *Artifact) Require(methods ...string) error {
	for _, m := range methods {
		if !a.HasMethod(m) {
			return fmt.Errorf("%w: %s.%s", domain.ErrMissingMethod, a.ContractName, m)
		}
	}
	return nil
}
