// Package jupiter swaps tokens on Solana through the Jupiter
// aggregator API, executing the returned transactions with a wallet
// client.
package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	agentwallet "github.com/agentwallet/agentwallet-go"
	solwallet "github.com/agentwallet/agentwallet-go/solana"
)

// DefaultBaseURL is the public Jupiter v6 quote API.
const DefaultBaseURL = "https://quote-api.jup.ag/v6"

// Wallet is the wallet capability the service needs: rebuild the
// aggregator's transaction locally and submit it signed.
type Wallet interface {
	Address() string
	LookupTableAccounts(ctx context.Context, keys []solanago.PublicKey) (map[solanago.PublicKey]solanago.PublicKeySlice, error)
	DecompileTransaction(tx *solanago.Transaction, tables map[solanago.PublicKey]solanago.PublicKeySlice) (solwallet.Transaction, error)
	SendTransaction(ctx context.Context, tx solwallet.Transaction) (agentwallet.TransactionResult, error)
}

// Service is a Jupiter aggregator client bound to a wallet.
type Service struct {
	baseURL    string
	httpClient *http.Client
	wallet     Wallet
	log        *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithBaseURL overrides the Jupiter API endpoint.
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

// NewService creates a Jupiter swap service executing through wallet.
func NewService(wallet Wallet, opts ...ServiceOption) (*Service, error) {
	if wallet == nil {
		return nil, fmt.Errorf("%w: wallet is required", agentwallet.ErrConfiguration)
	}
	s := &Service{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		wallet:     wallet,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetQuote fetches a swap quote.
func (s *Service) GetQuote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if req.InputMint == "" || req.OutputMint == "" {
		return nil, fmt.Errorf("%w: input and output mints are required", agentwallet.ErrInvalidArgument)
	}
	if req.Amount == 0 {
		return nil, fmt.Errorf("%w: amount must be positive", agentwallet.ErrInvalidArgument)
	}

	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", strconv.FormatUint(req.Amount, 10))
	if req.SwapMode != "" {
		q.Set("swapMode", req.SwapMode)
	}
	if req.SlippageBps > 0 {
		q.Set("slippageBps", strconv.Itoa(req.SlippageBps))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var quote QuoteResponse
	if err := s.doJSON(httpReq, &quote); err != nil {
		return nil, fmt.Errorf("fetch quote: %w", err)
	}
	return &quote, nil
}

// Swap quotes the trade, fetches the aggregator-built transaction,
// rebuilds it locally, and submits it through the wallet.
func (s *Service) Swap(ctx context.Context, req QuoteRequest) (*SwapResult, error) {
	quote, err := s.GetQuote(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.SwapWithQuote(ctx, quote)
}

// SwapWithQuote executes a previously fetched quote.
func (s *Service) SwapWithQuote(ctx context.Context, quote *QuoteResponse) (*SwapResult, error) {
	body := map[string]any{"swapRequest": swapRequest{
		UserPublicKey:             s.wallet.Address(),
		QuoteResponse:             *quote,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: "auto",
	}}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal swap request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var swap swapResponse
	if err := s.doJSON(httpReq, &swap); err != nil {
		return nil, fmt.Errorf("fetch swap transaction: %w", err)
	}
	if swap.SwapTransaction == "" {
		return nil, fmt.Errorf("%w: swap response has no transaction", agentwallet.ErrProtocol)
	}

	raw, err := base64.StdEncoding.DecodeString(swap.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("%w: swap transaction is not base64: %v", agentwallet.ErrProtocol, err)
	}
	tx, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode swap transaction: %v", agentwallet.ErrProtocol, err)
	}

	tableKeys := make([]solanago.PublicKey, 0, len(tx.Message.AddressTableLookups))
	for _, lookup := range tx.Message.AddressTableLookups {
		tableKeys = append(tableKeys, lookup.AccountKey)
	}
	tables, err := s.wallet.LookupTableAccounts(ctx, tableKeys)
	if err != nil {
		return nil, err
	}

	decompiled, err := s.wallet.DecompileTransaction(tx, tables)
	if err != nil {
		return nil, err
	}

	result, err := s.wallet.SendTransaction(ctx, decompiled)
	if err != nil {
		return nil, err
	}
	if result.Status == agentwallet.StatusFailed {
		return nil, fmt.Errorf("%w: swap transaction %s failed on chain", agentwallet.ErrRejected, result.Hash)
	}
	s.log.Debug("swap executed",
		zap.String("inputMint", quote.InputMint),
		zap.String("outputMint", quote.OutputMint),
		zap.String("hash", result.Hash))
	return &SwapResult{Hash: result.Hash}, nil
}

// doJSON executes a request and decodes a JSON response, mapping
// non-2xx statuses onto the error taxonomy.
func (s *Service) doJSON(req *http.Request, result any) error {
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
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("%w: jupiter API [%d]: %s", agentwallet.ErrInvalidArgument, resp.StatusCode, bodyText)
		}
		return fmt.Errorf("jupiter API [%d]: %s", resp.StatusCode, bodyText)
	}

	if err := json.Unmarshal(bodyText, result); err != nil {
		return fmt.Errorf("%w: decode response: %v", agentwallet.ErrProtocol, err)
	}
	return nil
}
