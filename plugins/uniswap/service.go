// Package uniswap swaps tokens on EVM chains through the Uniswap
// trading API, executing the returned transactions with a wallet
// client.
package uniswap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// DefaultBaseURL is the production Uniswap trading API.
const DefaultBaseURL = "https://trade-api.gateway.uniswap.org/v1"

// EnvAPIKey is the environment variable holding the trading API key.
const EnvAPIKey = "UNISWAP_API_KEY"

// maxUint256 is the unlimited-allowance sentinel used for approvals.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Wallet is the wallet capability the service needs. *custody.SmartWallet
// satisfies it.
type Wallet interface {
	Address() string
	Chain() agentwallet.Chain
	SendTransaction(ctx context.Context, tx agentwallet.EVMTransaction) (agentwallet.TransactionResult, error)
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) (agentwallet.Signature, error)
}

// Service is a Uniswap trading API client bound to a wallet.
type Service struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	wallet     Wallet
	log        *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithBaseURL overrides the trading API endpoint.
func WithBaseURL(baseURL string) ServiceOption {
	return func(s *Service) {
		s.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ServiceOption {
	return func(s *Service) {
		s.httpClient = hc
	}
}

// WithLogger attaches a logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates a trading API client executing through wallet.
func NewService(wallet Wallet, apiKey string, opts ...ServiceOption) (*Service, error) {
	if wallet == nil {
		return nil, fmt.Errorf("%w: wallet is required", agentwallet.ErrConfiguration)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: trading API key is required", agentwallet.ErrConfiguration)
	}
	s := &Service{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		wallet:     wallet,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewServiceFromEnv creates a service using the UNISWAP_API_KEY
// environment variable.
func NewServiceFromEnv(wallet Wallet, opts ...ServiceOption) (*Service, error) {
	apiKey := os.Getenv(EnvAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s is not set", agentwallet.ErrConfiguration, EnvAPIKey)
	}
	return NewService(wallet, apiKey, opts...)
}

// CheckApproval ensures the router may spend the token, sending the
// approval transaction through the wallet when the trading API says the
// current allowance is insufficient.
func (s *Service) CheckApproval(ctx context.Context, req ApprovalRequest) (*ApprovalResult, error) {
	if req.Token == "" {
		return nil, fmt.Errorf("%w: token address is required", agentwallet.ErrInvalidArgument)
	}
	amount := req.Amount
	if amount == "" {
		amount = maxUint256.String()
	}

	body := map[string]any{
		"walletAddress": s.wallet.Address(),
		"token":         req.Token,
		"amount":        amount,
		"chainId":       s.wallet.Chain().ID,
	}
	var resp approvalResponse
	if err := s.post(ctx, "/check_approval", body, &resp); err != nil {
		return nil, err
	}
	if resp.Approval == nil {
		return &ApprovalResult{Required: false}, nil
	}

	result, err := s.wallet.SendTransaction(ctx, agentwallet.EVMTransaction{
		To:    resp.Approval.To,
		Value: parseTxValue(resp.Approval.Value),
		Data:  resp.Approval.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("send approval: %w", err)
	}
	if result.Status == agentwallet.StatusFailed {
		return nil, fmt.Errorf("%w: approval transaction %s failed on chain", agentwallet.ErrRejected, result.Hash)
	}
	return &ApprovalResult{Required: true, Hash: result.Hash}, nil
}

// GetQuote fetches a swap quote for the wallet's chain and address.
func (s *Service) GetQuote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if req.TokenIn == "" || req.TokenOut == "" {
		return nil, fmt.Errorf("%w: tokenIn and tokenOut are required", agentwallet.ErrInvalidArgument)
	}
	if req.Amount == "" {
		return nil, fmt.Errorf("%w: amount is required", agentwallet.ErrInvalidArgument)
	}
	swapType := req.Type
	if swapType == "" {
		swapType = SwapTypeExactInput
	}

	chainID := s.wallet.Chain().ID
	body := map[string]any{
		"tokenIn":         req.TokenIn,
		"tokenOut":        req.TokenOut,
		"amount":          req.Amount,
		"type":            swapType,
		"tokenInChainId":  chainID,
		"tokenOutChainId": chainID,
		"swapper":         s.wallet.Address(),
	}
	var quote QuoteResponse
	if err := s.post(ctx, "/quote", body, &quote); err != nil {
		return nil, err
	}
	if len(quote.Quote) == 0 {
		return nil, fmt.Errorf("%w: quote response has no quote", agentwallet.ErrProtocol)
	}
	return &quote, nil
}

// Swap quotes the trade and executes it through the wallet. When the
// quote carries permit data, it is signed as EIP-712 typed data and
// attached to the swap request.
func (s *Service) Swap(ctx context.Context, req QuoteRequest) (*SwapResult, error) {
	quote, err := s.GetQuote(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.SwapWithQuote(ctx, quote)
}

// SwapWithQuote executes a previously fetched quote.
func (s *Service) SwapWithQuote(ctx context.Context, quote *QuoteResponse) (*SwapResult, error) {
	body := map[string]any{"quote": quote.Quote}
	if len(quote.PermitData) > 0 && string(quote.PermitData) != "null" {
		typedData, err := permitTypedData(quote.PermitData)
		if err != nil {
			return nil, err
		}
		sig, err := s.wallet.SignTypedData(ctx, typedData)
		if err != nil {
			return nil, fmt.Errorf("sign permit: %w", err)
		}
		body["permitData"] = quote.PermitData
		body["signature"] = sig.Signature
	}

	var resp swapResponse
	if err := s.post(ctx, "/swap", body, &resp); err != nil {
		return nil, err
	}
	if resp.Swap == nil {
		return nil, fmt.Errorf("%w: swap response has no transaction", agentwallet.ErrProtocol)
	}

	result, err := s.wallet.SendTransaction(ctx, agentwallet.EVMTransaction{
		To:    resp.Swap.To,
		Value: parseTxValue(resp.Swap.Value),
		Data:  resp.Swap.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("send swap: %w", err)
	}
	if result.Status == agentwallet.StatusFailed {
		return nil, fmt.Errorf("%w: swap transaction %s failed on chain", agentwallet.ErrRejected, result.Hash)
	}
	s.log.Debug("swap executed", zap.String("hash", result.Hash))
	return &SwapResult{Hash: result.Hash}, nil
}

// permitTypedData converts the trading API's permit payload into the
// EIP-712 structure the signer expects. The API names the message
// "values"; everything else lines up.
func permitTypedData(raw json.RawMessage) (apitypes.TypedData, error) {
	var permit struct {
		Types       apitypes.Types            `json:"types"`
		PrimaryType string                    `json:"primaryType"`
		Domain      apitypes.TypedDataDomain  `json:"domain"`
		Values      apitypes.TypedDataMessage `json:"values"`
	}
	if err := json.Unmarshal(raw, &permit); err != nil {
		return apitypes.TypedData{}, fmt.Errorf("%w: decode permit data: %v", agentwallet.ErrProtocol, err)
	}
	return apitypes.TypedData{
		Types:       permit.Types,
		PrimaryType: permit.PrimaryType,
		Domain:      permit.Domain,
		Message:     permit.Values,
	}, nil
}

// parseTxValue parses a transaction value that may arrive hex or
// decimal encoded. Unparseable values are treated as zero.
func parseTxValue(value string) *big.Int {
	if value == "" {
		return nil
	}
	if strings.HasPrefix(value, "0x") {
		if v, ok := new(big.Int).SetString(value[2:], 16); ok {
			return v
		}
		return nil
	}
	if v, ok := new(big.Int).SetString(value, 10); ok {
		return v
	}
	return nil
}

// post executes a trading API request, mapping the API's error codes
// onto the error taxonomy.
func (s *Service) post(ctx context.Context, path string, body, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	bodyText, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyError(resp.StatusCode, bodyText)
	}

	if err := json.Unmarshal(bodyText, result); err != nil {
		return fmt.Errorf("%w: decode response: %v", agentwallet.ErrProtocol, err)
	}
	return nil
}

func classifyError(statusCode int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	detail := apiErr.Detail
	if detail == "" {
		detail = string(body)
	}

	switch apiErr.ErrorCode {
	case errorCodeValidation:
		return fmt.Errorf("%w: uniswap API: %s", agentwallet.ErrInvalidArgument, detail)
	case errorCodeInsufficientBalance:
		return fmt.Errorf("%w: insufficient balance: %s", agentwallet.ErrRejected, detail)
	case errorCodeRateLimit:
		return fmt.Errorf("uniswap API rate limited: %s", detail)
	}
	if statusCode >= 400 && statusCode < 500 {
		return fmt.Errorf("%w: uniswap API [%d]: %s", agentwallet.ErrInvalidArgument, statusCode, detail)
	}
	return fmt.Errorf("uniswap API [%d]: %s", statusCode, detail)
}
