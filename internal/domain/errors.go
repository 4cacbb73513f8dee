package domain

import "errors"

var (
	// ErrReverted is returned when a transaction or call reverts on-chain
	ErrReverted = errors.New("execution reverted")

	// ErrUnexpectedSuccess is returned when a transaction expected to revert was mined successfully
	ErrUnexpectedSuccess = errors.New("transaction succeeded but a revert was expected")

	// ErrAssertion is returned when observed contract state differs from the expected state
	ErrAssertion = errors.New("assertion failed")

	// ErrMissingTransferEvent is returned when a receipt lacks the expected Transfer event
	ErrMissingTransferEvent = errors.New("transfer event not found in receipt")

	// ErrMissingMethod is returned when a contract ABI lacks a method the suite consumes
	ErrMissingMethod = errors.New("method not found in ABI")

	// ErrNoBytecode is returned when an artifact carries no creation bytecode
	ErrNoBytecode = errors.New("artifact has no bytecode")

	// ErrNoCode is returned when no contract code exists at a deployed address
	ErrNoCode = errors.New("no contract code at address")

	// ErrReceiptTimeout is returned when a transaction receipt is not available in time
	ErrReceiptTimeout = errors.New("timed out waiting for receipt")

	// ErrUnknownSuite is returned when a suite name is not registered
	ErrUnknownSuite = errors.New("unknown suite")
)
