package jupiter

// QuoteRequest describes a swap quote query against the Jupiter
// aggregator. Amounts are in the input mint's base units.
type QuoteRequest struct {
	// InputMint is the mint address of the token being sold.
	InputMint string `json:"inputMint"`

	// OutputMint is the mint address of the token being bought.
	OutputMint string `json:"outputMint"`

	// Amount is the swap amount in base units of the input mint
	// (or output mint when SwapMode is ExactOut).
	Amount uint64 `json:"amount"`

	// SwapMode is "ExactIn" (default) or "ExactOut".
	SwapMode string `json:"swapMode,omitempty"`

	// SlippageBps is the allowed slippage in basis points.
	SlippageBps int `json:"slippageBps,omitempty"`
}

// PlatformFee is the aggregator fee taken on a route.
type PlatformFee struct {
	Amount string `json:"amount"`
	FeeBps int    `json:"feeBps"`
}

// SwapInfo describes one leg of a routed swap.
type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label,omitempty"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

// RoutePlanStep is one hop of the quoted route.
type RoutePlanStep struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int      `json:"percent"`
}

// QuoteResponse is a Jupiter quote. It is passed back verbatim when
// requesting the swap transaction.
type QuoteResponse struct {
	InputMint            string          `json:"inputMint"`
	InAmount             string          `json:"inAmount"`
	OutputMint           string          `json:"outputMint"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          int             `json:"slippageBps"`
	PlatformFee          *PlatformFee    `json:"platformFee,omitempty"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            []RoutePlanStep `json:"routePlan"`
	ContextSlot          uint64          `json:"contextSlot,omitempty"`
	TimeTaken            float64         `json:"timeTaken,omitempty"`
}

// swapRequest is the inner payload of the swap-transaction endpoint.
type swapRequest struct {
	UserPublicKey             string        `json:"userPublicKey"`
	QuoteResponse             QuoteResponse `json:"quoteResponse"`
	DynamicComputeUnitLimit   bool          `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports string        `json:"prioritizationFeeLamports"`
}

// swapResponse carries the serialized transaction built by Jupiter.
type swapResponse struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight,omitempty"`
}

// SwapResult is the outcome of an executed swap.
type SwapResult struct {
	// Hash is the transaction signature.
	Hash string `json:"hash"`
}
