// Package ledger models the ownership the suites expect to observe on chain.
// Entries are only updated from mined receipts, never predicted.
package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUnknownLabel is returned for labels that were never recorded
	ErrUnknownLabel = errors.New("unknown token label")
	// ErrDuplicateLabel is returned when a label is recorded twice
	ErrDuplicateLabel = errors.New("duplicate token label")
	// ErrCycle is returned when nesting would make a token its own ancestor
	ErrCycle = errors.New("nesting cycle")
)

// Entry is the expected state of one token
type Entry struct {
	Label string
	ID    *big.Int
	Owner common.Address
	// MintedFor is the parent label a child was minted for, without being nested
	MintedFor string
	// Parent is the label of the token this token is nested under
	Parent string
}

// Ledger tracks minted tokens by label
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{entries: make(map[string]*Entry)}
}

// Record stores a freshly minted token and its direct owner
func (l *Ledger) Record(label string, id *big.Int, owner common.Address) error {
	if label == "" {
		return errors.New("empty token label")
	}
	if id == nil || id.Sign() < 0 {
		return fmt.Errorf("invalid token id %v for %s", id, label)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[label]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateLabel, label)
	}
	for _, e := range l.entries {
		if e.ID.Cmp(id) == 0 {
			return fmt.Errorf("token id %s already recorded as %s", id, e.Label)
		}
	}

	l.entries[label] = &Entry{Label: label, ID: new(big.Int).Set(id), Owner: owner}
	return nil
}

// MintedUnder notes that child was minted for parent
func (l *Ledger) MintedUnder(child, parent string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.get(child)
	if err != nil {
		return err
	}
	if _, err := l.get(parent); err != nil {
		return err
	}
	c.MintedFor = parent
	return nil
}

// Transfer sets the expected direct owner of label and detaches it from any parent
func (l *Ledger) Transfer(label string, to common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.get(label)
	if err != nil {
		return err
	}
	e.Owner = to
	e.Parent = ""
	return nil
}

// Nest records child as held by the composable contract under parent
func (l *Ledger) Nest(child, parent string, composable common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.get(child)
	if err != nil {
		return err
	}
	if _, err := l.get(parent); err != nil {
		return err
	}

	// Walk up from parent; reaching child means child would become its own ancestor
	for cur := parent; cur != ""; cur = l.entries[cur].Parent {
		if cur == child {
			return fmt.Errorf("%w: %s under %s", ErrCycle, child, parent)
		}
	}

	c.Owner = composable
	c.Parent = parent
	return nil
}

// RootOwner follows parent links to the account that ultimately owns label
func (l *Ledger) RootOwner(label string) (common.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, err := l.get(label)
	if err != nil {
		return common.Address{}, err
	}
	for e.Parent != "" {
		e = l.entries[e.Parent]
	}
	return e.Owner, nil
}

// BalanceOf counts the tokens whose direct owner is addr
func (l *Ledger) BalanceOf(addr common.Address) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var n int64
	for _, e := range l.entries {
		if e.Owner == addr {
			n++
		}
	}
	return n
}

// ID returns the token id recorded for label
func (l *Ledger) ID(label string) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, err := l.get(label)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(e.ID), nil
}

// Lookup returns a copy of the entry for label
func (l *Ledger) Lookup(label string) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, err := l.get(label)
	if err != nil {
		return Entry{}, err
	}
	cp := *e
	cp.ID = new(big.Int).Set(e.ID)
	return cp, nil
}

// Children returns the labels nested directly under parent, sorted
func (l *Ledger) Children(parent string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var children []string
	for _, e := range l.entries {
		if e.Parent == parent && parent != "" {
			children = append(children, e.Label)
		}
	}
	sort.Strings(children)
	return children
}

// get must be called with the lock held
func (l *Ledger) get(label string) (*Entry, error) {
	e, ok := l.entries[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, label)
	}
	return e, nil
}
