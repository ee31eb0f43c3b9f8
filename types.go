package agentwallet

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a custody-tracked operation.
type Status string

const (
	// StatusPending indicates the operation is still awaiting approval or inclusion.
	StatusPending Status = "pending"

	// StatusSuccess indicates the operation completed.
	StatusSuccess Status = "success"

	// StatusFailed indicates the operation was rejected by the chain or the custody system.
	StatusFailed Status = "failed"
)

// Terminal reports whether no further status transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// ContractCall describes a smart-contract invocation to be ABI-encoded.
type ContractCall struct {
	// ABI is the JSON ABI fragment containing the target function.
	ABI string

	// FunctionName is the function to invoke. Required whenever ABI is set.
	FunctionName string

	// Args are the function arguments, typed per the ABI
	// (addresses as common.Address, integers as *big.Int, and so on).
	Args []any
}

// EVMTransaction is one logical transaction as provided by a caller.
// Exactly one of Call and Data may be set; with neither the transaction
// is a plain value transfer.
type EVMTransaction struct {
	// To is the recipient address or an ENS name.
	To string

	// Value is the amount of native currency to attach, in wei. Nil means zero.
	Value *big.Int

	// Data is pre-encoded calldata as a hex string, for callers that
	// obtained it from an external source (for example a DEX API).
	Data string

	// Call is a contract invocation to encode. Mutually exclusive with Data.
	Call *ContractCall
}

// Call is the wire-ready representation of one on-chain call, independent
// of how it was constructed.
type Call struct {
	// To is the target address.
	To string `json:"to"`

	// Value is the attached native value as a base-10 string. Amounts
	// cross the wire as decimal strings, never as a native binary width.
	Value string `json:"value"`

	// Data is the hex-encoded calldata, "0x" for plain transfers.
	Data string `json:"data"`
}

// TransactionResult is the normalized outcome of a submitted transaction.
// A failed status is a result, not an error: it means the chain or the
// custody system declined the operation, as opposed to a local failure.
type TransactionResult struct {
	// Hash is the on-chain transaction id. May be empty when the custody
	// system reported success before attaching a chain transaction id.
	Hash string `json:"hash"`

	// Status is either StatusSuccess or StatusFailed.
	Status Status `json:"status"`
}

// Signature is the outcome of a message or typed-data signing operation.
type Signature struct {
	// Signature is the hex-encoded signature.
	Signature string `json:"signature"`
}

// Balance describes a native-currency balance in both human units and base units.
type Balance struct {
	// Decimals is the number of decimal places of the native currency.
	Decimals int `json:"decimals"`

	// Symbol is the currency symbol (e.g. "ETH", "SOL").
	Symbol string `json:"symbol"`

	// Name is the currency name.
	Name string `json:"name"`

	// Value is the balance in human units as a decimal string.
	Value string `json:"value"`

	// InBaseUnits is the balance in atomic units (wei, lamports) as a decimal string.
	InBaseUnits string `json:"inBaseUnits"`
}

// FormatUnits converts an atomic-unit amount to a human-readable decimal string.
// For example, 1500000 with 6 decimals becomes "1.5".
func FormatUnits(baseUnits *big.Int, decimals int32) string {
	if baseUnits == nil {
		return "0"
	}
	return decimal.NewFromBigInt(baseUnits, -decimals).String()
}

// ParseUnits converts a human-readable decimal amount to atomic units.
// For example, "1.5" with 6 decimals becomes 1500000. Amounts with more
// fractional digits than the token carries are rejected rather than rounded.
func ParseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, ErrInvalidAmount
	}
	return scaled.BigInt(), nil
}
