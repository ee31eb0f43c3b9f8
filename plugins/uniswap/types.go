package uniswap

import "encoding/json"

// SwapType selects how the trade amount is interpreted.
type SwapType string

const (
	// SwapTypeExactInput fixes the input amount.
	SwapTypeExactInput SwapType = "EXACT_INPUT"

	// SwapTypeExactOutput fixes the output amount.
	SwapTypeExactOutput SwapType = "EXACT_OUTPUT"
)

// ApprovalRequest asks whether the wallet must approve the router to
// spend a token before swapping.
type ApprovalRequest struct {
	// Token is the ERC-20 token contract address.
	Token string `json:"token"`

	// Amount is the allowance to check, in base units as a decimal
	// string. Empty means unlimited.
	Amount string `json:"amount,omitempty"`
}

// ApprovalTransaction is an approval transaction prepared by the
// trading API.
type ApprovalTransaction struct {
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
	From  string `json:"from,omitempty"`
}

// approvalResponse is the check_approval payload. A null approval
// means the allowance already suffices.
type approvalResponse struct {
	RequestID string               `json:"requestId,omitempty"`
	Approval  *ApprovalTransaction `json:"approval"`
}

// ApprovalResult reports the outcome of an approval check.
type ApprovalResult struct {
	// Required is false when the existing allowance already covers the
	// amount.
	Required bool `json:"required"`

	// Hash is the approval transaction hash, when one was sent.
	Hash string `json:"hash,omitempty"`
}

// QuoteRequest describes a swap quote query.
type QuoteRequest struct {
	// TokenIn is the address of the token being sold.
	TokenIn string `json:"tokenIn"`

	// TokenOut is the address of the token being bought.
	TokenOut string `json:"tokenOut"`

	// Amount is the trade amount in base units as a decimal string.
	Amount string `json:"amount"`

	// Type selects exact-input or exact-output. Default exact-input.
	Type SwapType `json:"type,omitempty"`
}

// QuoteResponse is a trading API quote. Quote and PermitData pass
// through to the swap endpoint verbatim.
type QuoteResponse struct {
	RequestID  string          `json:"requestId,omitempty"`
	Routing    string          `json:"routing,omitempty"`
	Quote      json.RawMessage `json:"quote"`
	PermitData json.RawMessage `json:"permitData,omitempty"`
}

// SwapTransaction is the router transaction prepared by the trading API.
type SwapTransaction struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Data    string `json:"data"`
	Value   string `json:"value"`
	ChainID int64  `json:"chainId,omitempty"`
}

// swapResponse is the swap endpoint payload.
type swapResponse struct {
	RequestID string           `json:"requestId,omitempty"`
	Swap      *SwapTransaction `json:"swap"`
}

// SwapResult is the outcome of an executed swap.
type SwapResult struct {
	// Hash is the on-chain transaction hash.
	Hash string `json:"hash"`
}

// apiError is the trading API's error envelope.
type apiError struct {
	ErrorCode string `json:"errorCode"`
	Detail    string `json:"detail,omitempty"`
}

// Trading API error codes.
const (
	errorCodeValidation          = "VALIDATION_ERROR"
	errorCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	errorCodeRateLimit           = "RATE_LIMIT"
)
