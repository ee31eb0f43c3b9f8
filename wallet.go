package agentwallet

import "context"

// WalletClient is the capability shared by every wallet implementation.
type WalletClient interface {
	// Address returns the wallet's public address.
	Address() string

	// Chain returns the network the wallet operates on.
	Chain() Chain

	// SignMessage signs an arbitrary message and returns the signature.
	SignMessage(ctx context.Context, message string) (Signature, error)

	// BalanceOf returns the native-currency balance of an address.
	BalanceOf(ctx context.Context, address string) (Balance, error)
}

// EVMWalletClient is a wallet that submits transactions on EVM chains.
// Sending one transaction and sending a batch of one are observably
// identical; both produce a single custody-tracked operation.
type EVMWalletClient interface {
	WalletClient

	// SendTransaction submits a single transaction and waits for finality.
	SendTransaction(ctx context.Context, tx EVMTransaction) (TransactionResult, error)

	// SendBatch submits one or more transactions as a single atomic
	// operation and waits for finality.
	SendBatch(ctx context.Context, txs []EVMTransaction) (TransactionResult, error)

	// ResolveAddress resolves an ENS name or validates a hex address.
	ResolveAddress(ctx context.Context, name string) (string, error)
}
