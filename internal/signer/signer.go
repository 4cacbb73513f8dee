// Package signer provides the named accounts that submit suite transactions.
package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind/v2"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/feral-file/nft-suite/internal/domain"
)

// DevelopmentKeys are the first accounts of the Hardhat and anvil default mnemonic
var DevelopmentKeys = []string{
	"0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"0x5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a",
}

// DefaultLabels name the signers the way the suites address them
var DefaultLabels = []string{"owner", "addr1", "addr2"}

// Options tune the transaction options produced for every signer
type Options struct {
	// GasPrice forces legacy pricing when set
	GasPrice *big.Int
	// GasLimit skips estimation when non-zero
	GasLimit uint64
}

// Signer is an account able to sign transactions.
// mu is held by the transaction pipeline from nonce lookup until the receipt arrives.
type Signer struct {
	domain.Account

	key     *ecdsa.PrivateKey
	chainID *big.Int
	opts    Options
	mu      sync.Mutex
}

// Lock serializes transactions from this signer
func (s *Signer) Lock() {
	s.mu.Lock()
}

// Unlock releases the signer
func (s *Signer) Unlock() {
	s.mu.Unlock()
}

// TransactOpts returns fresh transaction options bound to ctx
func (s *Signer) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if s.chainID == nil {
		return nil, fmt.Errorf("failed to create transactor for %s: no chain id", s.Label)
	}
	opts := bind.NewKeyedTransactor(s.key, s.chainID)
	opts.Context = ctx
	if s.opts.GasPrice != nil {
		opts.GasPrice = new(big.Int).Set(s.opts.GasPrice)
	}
	opts.GasLimit = s.opts.GasLimit
	return opts, nil
}

// CallOpts returns read options sent from this signer
func (s *Signer) CallOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: s.Address}
}

// Set is an ordered collection of signers addressable by label
type Set struct {
	signers []*Signer
	byLabel map[string]*Signer
}

// New builds a signer set from hex private keys.
// Empty keys fall back to DevelopmentKeys; missing labels fall back to DefaultLabels then signerN.
func New(keys []string, labels []string, chainID *big.Int, opts Options) (*Set, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id: %v", chainID)
	}
	if len(keys) == 0 {
		keys = DevelopmentKeys
	}
	if len(labels) > 0 && len(labels) != len(keys) {
		return nil, fmt.Errorf("got %d labels for %d keys", len(labels), len(keys))
	}

	set := &Set{byLabel: make(map[string]*Signer, len(keys))}
	for i, hexKey := range keys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key #%d: %w", i, err)
		}

		label := labelFor(i, labels)
		if _, dup := set.byLabel[label]; dup {
			return nil, fmt.Errorf("duplicate signer label %q", label)
		}

		s := &Signer{
			Account: domain.Account{Label: label, Address: crypto.PubkeyToAddress(key.PublicKey)},
			key:     key,
			chainID: new(big.Int).Set(chainID),
			opts:    opts,
		}
		set.signers = append(set.signers, s)
		set.byLabel[label] = s
	}

	return set, nil
}

func labelFor(i int, labels []string) string {
	if len(labels) > 0 {
		return labels[i]
	}
	if i < len(DefaultLabels) {
		return DefaultLabels[i]
	}
	return fmt.Sprintf("signer%d", i)
}

// Get returns the signer with the given label
func (s *Set) Get(label string) (*Signer, error) {
	sg, ok := s.byLabel[label]
	if !ok {
		return nil, fmt.Errorf("no signer labelled %q", label)
	}
	return sg, nil
}

// Accounts returns the public identities of all signers in order
func (s *Set) Accounts() []domain.Account {
	accounts := make([]domain.Account, len(s.signers))
	for i, sg := range s.signers {
		accounts[i] = sg.Account
	}
	return accounts
}
