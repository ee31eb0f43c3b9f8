package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	agentwallet "github.com/agentwallet/agentwallet-go"
	"github.com/agentwallet/agentwallet-go/retry"
)

// DefaultBaseURL is the production custody API endpoint.
const DefaultBaseURL = "https://www.crossmint.com/api/v1-alpha2"

// EnvAPIKey is the environment variable holding the custody API key.
const EnvAPIKey = "CROSSMINT_API_KEY"

// Client is an HTTP client for the custody REST API. It handles
// authentication, request/response serialization, error classification,
// and automatic retry of transient failures.
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryCfg   retry.Config
	log        *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the custody API base URL. Useful for staging
// environments and tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryConfig overrides the transient-failure retry policy.
func WithRetryConfig(cfg retry.Config) ClientOption {
	return func(c *Client) {
		c.retryCfg = cfg
	}
}

// WithClientLogger attaches a logger to the client. The default is a
// no-op logger.
func WithClientLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a custody API client authenticated with the given
// API key.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: custody API key is required", agentwallet.ErrConfiguration)
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retryCfg: retry.DefaultConfig,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewClientFromEnv creates a custody API client using the CROSSMINT_API_KEY
// environment variable.
func NewClientFromEnv(opts ...ClientOption) (*Client, error) {
	apiKey := os.Getenv(EnvAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s is not set", agentwallet.ErrConfiguration, EnvAPIKey)
	}
	return NewClient(apiKey, opts...)
}

// doRequest executes a single HTTP request against the custody API.
// Non-2xx responses are returned as *APIError with retry classification.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyError(resp, method, path)
	}

	if result != nil {
		bodyText, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}
		if err := json.Unmarshal(bodyText, result); err != nil {
			return fmt.Errorf("%w: decode response: %v", agentwallet.ErrProtocol, err)
		}
	}

	return nil
}

// classifyError builds an *APIError from a non-2xx response.
//
// Classification:
//   - 429: rate_limit (retryable, respects Retry-After)
//   - 5xx: server_error (retryable)
//   - 401/403: auth_error (not retryable)
//   - other 4xx: client_error (not retryable)
func classifyError(resp *http.Response, method, path string) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-ID"),
		Method:     method,
		Path:       path,
	}

	bodyText, _ := io.ReadAll(resp.Body)
	if len(bodyText) > 0 {
		apiErr.Message = string(bodyText)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr.ErrorType = ErrorTypeRateLimit
		apiErr.Retryable = true
		apiErr.RetryAfter = parseRetryAfter(resp)
		if apiErr.Message == "" {
			apiErr.Message = "rate limit exceeded"
		}

	case resp.StatusCode >= 500:
		apiErr.ErrorType = ErrorTypeServerError
		apiErr.Retryable = true
		if apiErr.Message == "" {
			apiErr.Message = "custody server error"
		}

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		apiErr.ErrorType = ErrorTypeAuthError
		apiErr.Retryable = false
		if apiErr.Message == "" {
			apiErr.Message = "authentication failed, check API key"
		}

	default:
		apiErr.ErrorType = ErrorTypeClientError
		apiErr.Retryable = false
		if apiErr.Message == "" {
			apiErr.Message = "invalid request parameters"
		}
	}

	return apiErr
}

// parseRetryAfter extracts the backoff hint from the Retry-After header.
// Supports integer seconds and HTTP date formats. Returns zero when the
// header is missing or invalid.
func parseRetryAfter(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if retryTime, err := time.Parse(time.RFC1123, retryAfter); err == nil {
		if d := time.Until(retryTime); d > 0 {
			return d
		}
	}
	return 0
}

// isRetryable reports whether err is a transient custody API failure.
func isRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable
}

// do executes a request with retry on transient failures.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	start := time.Now()
	_, err := retry.WithRetry(ctx, c.retryCfg, isRetryable, func() (struct{}, error) {
		return struct{}{}, c.doRequest(ctx, method, path, body, result)
	})
	if err != nil {
		c.log.Debug("custody request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return err
	}
	c.log.Debug("custody request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// GetWallet implements API.
func (c *Client) GetWallet(ctx context.Context, locator string) (*Wallet, error) {
	var w Wallet
	path := fmt.Sprintf("/wallets/%s", url.PathEscape(locator))
	if err := c.do(ctx, http.MethodGet, path, nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateTransaction implements API.
func (c *Client) CreateTransaction(ctx context.Context, locator string, params CreateTransactionParams) (*PendingOperation, error) {
	body := map[string]any{"params": params}
	var op PendingOperation
	path := fmt.Sprintf("/wallets/%s/transactions", url.PathEscape(locator))
	if err := c.do(ctx, http.MethodPost, path, body, &op); err != nil {
		return nil, err
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return &op, nil
}

// ApproveTransaction implements API.
func (c *Client) ApproveTransaction(ctx context.Context, locator, transactionID string, approvals []Approval) (*PendingOperation, error) {
	body := map[string]any{"approvals": approvals}
	var op PendingOperation
	path := fmt.Sprintf("/wallets/%s/transactions/%s/approvals", url.PathEscape(locator), url.PathEscape(transactionID))
	if err := c.do(ctx, http.MethodPost, path, body, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// TransactionStatus implements API.
func (c *Client) TransactionStatus(ctx context.Context, locator, transactionID string) (*OperationStatus, error) {
	var st OperationStatus
	path := fmt.Sprintf("/wallets/%s/transactions/%s", url.PathEscape(locator), url.PathEscape(transactionID))
	if err := c.do(ctx, http.MethodGet, path, nil, &st); err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return &st, nil
}

// SignMessage implements API.
func (c *Client) SignMessage(ctx context.Context, walletAddress string, params SignMessageParams) (*PendingOperation, error) {
	body := map[string]any{"type": "evm-message", "params": params}
	var op PendingOperation
	path := fmt.Sprintf("/wallets/%s/signatures", url.PathEscape(walletAddress))
	if err := c.do(ctx, http.MethodPost, path, body, &op); err != nil {
		return nil, err
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return &op, nil
}

// SignTypedData implements API.
func (c *Client) SignTypedData(ctx context.Context, walletAddress string, params SignTypedDataParams) (*PendingOperation, error) {
	body := map[string]any{"type": "evm-typed-data", "params": params}
	var op PendingOperation
	path := fmt.Sprintf("/wallets/%s/signatures", url.PathEscape(walletAddress))
	if err := c.do(ctx, http.MethodPost, path, body, &op); err != nil {
		return nil, err
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return &op, nil
}

// ApproveSignature implements API.
func (c *Client) ApproveSignature(ctx context.Context, walletAddress, signatureID string, approvals []Approval) (*PendingOperation, error) {
	body := map[string]any{"approvals": approvals}
	var op PendingOperation
	path := fmt.Sprintf("/wallets/%s/signatures/%s/approvals", url.PathEscape(walletAddress), url.PathEscape(signatureID))
	if err := c.do(ctx, http.MethodPost, path, body, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// SignatureStatus implements API.
func (c *Client) SignatureStatus(ctx context.Context, walletAddress, signatureID string) (*OperationStatus, error) {
	var st OperationStatus
	path := fmt.Sprintf("/wallets/%s/signatures/%s", url.PathEscape(walletAddress), url.PathEscape(signatureID))
	if err := c.do(ctx, http.MethodGet, path, nil, &st); err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return &st, nil
}
