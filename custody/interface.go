package custody

import "context"

// API is the custody service surface the smart wallet depends on.
// Implementations must be safe for concurrent use.
//
// The production implementation is Client. Tests substitute counting
// fakes to assert call patterns without a live custody service.
type API interface {
	// GetWallet fetches the wallet record for a locator.
	GetWallet(ctx context.Context, locator string) (*Wallet, error)

	// CreateTransaction registers a batch of calls as one pending
	// operation on the wallet identified by locator.
	CreateTransaction(ctx context.Context, locator string, params CreateTransactionParams) (*PendingOperation, error)

	// ApproveTransaction submits external approvals for a pending
	// transaction.
	ApproveTransaction(ctx context.Context, locator, transactionID string, approvals []Approval) (*PendingOperation, error)

	// TransactionStatus fetches the current lifecycle state of a
	// transaction.
	TransactionStatus(ctx context.Context, locator, transactionID string) (*OperationStatus, error)

	// SignMessage registers a message signing request as a pending
	// operation.
	SignMessage(ctx context.Context, walletAddress string, params SignMessageParams) (*PendingOperation, error)

	// SignTypedData registers an EIP-712 signing request as a pending
	// operation.
	SignTypedData(ctx context.Context, walletAddress string, params SignTypedDataParams) (*PendingOperation, error)

	// ApproveSignature submits an external approval for a pending
	// signing operation.
	ApproveSignature(ctx context.Context, walletAddress, signatureID string, approvals []Approval) (*PendingOperation, error)

	// SignatureStatus fetches the current lifecycle state of a signing
	// operation.
	SignatureStatus(ctx context.Context, walletAddress, signatureID string) (*OperationStatus, error)
}

var _ API = (*Client)(nil)
