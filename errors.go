package agentwallet

import "errors"

// Standard error definitions shared across the wallet clients and plugins.

var (
	// ErrConfiguration indicates a signer/capability mismatch detected before
	// any network call, such as requesting a local signature from a custodial
	// signer.
	ErrConfiguration = errors.New("signer configuration mismatch")

	// ErrInvalidArgument indicates a malformed logical transaction or request
	// parameter, detected eagerly and without side effects.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProtocol indicates the custody system returned a response violating
	// its contract (for example a missing pending-approval message, or a
	// successful signature with no output signature). Downstream state cannot
	// be trusted once this is observed.
	ErrProtocol = errors.New("custody protocol violation")

	// ErrRejected indicates the custody system or the chain declined a
	// signing operation. Rejected transactions are reported through
	// TransactionResult instead.
	ErrRejected = errors.New("operation rejected")

	// ErrTimeout indicates a poll loop gave up because the caller's context
	// expired before the operation reached a terminal status.
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidAmount indicates an amount string that could not be parsed
	// or loses precision at the requested decimals.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidNetwork indicates an unsupported or malformed network identifier.
	ErrInvalidNetwork = errors.New("invalid network")

	// ErrInvalidAddress indicates an address that is malformed for its network.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidKey indicates invalid private key material.
	ErrInvalidKey = errors.New("invalid private key")

	// ErrInvalidMnemonic indicates an invalid BIP-39 mnemonic phrase.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	// ErrInvalidKeystore indicates an unreadable or undecryptable keystore file.
	ErrInvalidKeystore = errors.New("invalid keystore")
)
