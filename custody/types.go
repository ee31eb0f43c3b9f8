package custody

import (
	"fmt"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// Wallet describes a custody-managed wallet.
type Wallet struct {
	// Type is the custody wallet type (e.g. "evm-smart-wallet").
	Type string `json:"type"`

	// Address is the wallet's on-chain address.
	Address string `json:"address"`

	// LinkedUser is the identity the wallet is linked to, when any.
	LinkedUser string `json:"linkedUser,omitempty"`
}

// CreateTransactionParams is the payload for creating a custody-tracked
// transaction from an ordered sequence of calls.
type CreateTransactionParams struct {
	// Calls is the ordered call sequence executed as one atomic operation.
	Calls []agentwallet.Call `json:"calls"`

	// Chain is the network identifier.
	Chain string `json:"chain"`

	// Signer is the external approver address. Set only for key-held
	// signers, so the custody API knows an approval is required before
	// the operation can proceed.
	Signer string `json:"signer,omitempty"`
}

// SignMessageParams is the payload for a message signing request.
type SignMessageParams struct {
	// Message is the text to sign.
	Message string `json:"message"`

	// Chain is the network identifier.
	Chain string `json:"chain"`

	// Signer is the external approver address, for key-held signers.
	Signer string `json:"signer,omitempty"`
}

// SignTypedDataParams is the payload for an EIP-712 typed-data signing request.
type SignTypedDataParams struct {
	// TypedData is the EIP-712 payload to sign.
	TypedData apitypes.TypedData `json:"typedData"`

	// Chain is the network identifier.
	Chain string `json:"chain"`

	// Signer is the external approver address. Typed-data signing always
	// requires a key-held signer.
	Signer string `json:"signer"`
}

// Approval is one signature submitted to authorize a pending operation.
type Approval struct {
	// Signature is the hex-encoded signature over the approval message.
	Signature string `json:"signature"`

	// Signer attributes the approval, formatted "<scheme>:<address>".
	Signer string `json:"signer"`
}

// PendingApproval is one approval the custody API is waiting for.
type PendingApproval struct {
	// Message is the hex payload the approver must sign.
	Message string `json:"message"`

	// Signer is the approver the custody API expects, when specified.
	Signer string `json:"signer,omitempty"`
}

// Approvals groups the approval state of a pending operation.
type Approvals struct {
	Pending   []PendingApproval `json:"pending"`
	Submitted []Approval        `json:"submitted,omitempty"`
}

// PendingOperation is a custody-tracked unit of work (transaction or
// signature request). It lives only until a poller observes a terminal
// status.
type PendingOperation struct {
	// ID identifies the operation for approval and status calls.
	ID string `json:"id"`

	// Status is the operation status at creation time, normally pending.
	Status agentwallet.Status `json:"status,omitempty"`

	// Approvals is the approval state, present when external approvals
	// are required.
	Approvals *Approvals `json:"approvals,omitempty"`
}

// Validate checks the record against the custody API contract.
func (op *PendingOperation) Validate() error {
	if op == nil || op.ID == "" {
		return fmt.Errorf("%w: pending operation has no id", agentwallet.ErrProtocol)
	}
	return nil
}

// firstPendingMessage returns the message of the first pending approval.
// The custody API contract guarantees at least one pending approval on
// operations created with an external signer.
func (op *PendingOperation) firstPendingMessage() (string, error) {
	if op.Approvals == nil || len(op.Approvals.Pending) == 0 {
		return "", fmt.Errorf("%w: no pending approvals on operation %s", agentwallet.ErrProtocol, op.ID)
	}
	msg := op.Approvals.Pending[0].Message
	if msg == "" {
		return "", fmt.Errorf("%w: empty approval message on operation %s", agentwallet.ErrProtocol, op.ID)
	}
	return msg, nil
}

// OnChain carries the chain-level outcome of a completed transaction.
type OnChain struct {
	// TxID is the on-chain transaction id.
	TxID string `json:"txId"`
}

// OperationStatus is the custody API's view of an operation's lifecycle
// state plus its terminal payload: OnChain for transactions,
// OutputSignature for signing operations.
type OperationStatus struct {
	ID     string             `json:"id,omitempty"`
	Status agentwallet.Status `json:"status"`

	// OnChain is set once the custody system has a chain transaction id.
	OnChain *OnChain `json:"onChain,omitempty"`

	// OutputSignature is the produced signature on successful signing
	// operations.
	OutputSignature string `json:"outputSignature,omitempty"`
}

// Validate checks the record against the custody API contract.
func (s *OperationStatus) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: empty status response", agentwallet.ErrProtocol)
	}
	switch s.Status {
	case agentwallet.StatusPending, agentwallet.StatusSuccess, agentwallet.StatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: unknown operation status %q", agentwallet.ErrProtocol, s.Status)
	}
}
