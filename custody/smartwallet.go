package custody

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// ChainReader is the narrow slice of an EVM RPC client the smart wallet
// uses for balance queries and contract reads. *ethclient.Client
// satisfies it.
type ChainReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// SmartWallet is a custody-backed EVM smart wallet. Transactions and
// signatures are registered with the custody service, co-approved by a
// local signer when one holds a key, and polled to a terminal status.
//
// SmartWallet is safe for concurrent use.
type SmartWallet struct {
	api          API
	address      string
	locator      string
	chain        agentwallet.Chain
	signer       Signer
	eth          ChainReader
	ens          *ENSResolver
	pollInterval time.Duration
	log          *zap.Logger
}

var _ agentwallet.EVMWalletClient = (*SmartWallet)(nil)

// WalletOption configures a SmartWallet.
type WalletOption func(*SmartWallet)

// WithSigner sets the approval signer. The default is CustodialSigner.
func WithSigner(s Signer) WalletOption {
	return func(w *SmartWallet) {
		w.signer = s
	}
}

// WithChain sets the network the wallet operates on.
func WithChain(chain agentwallet.Chain) WalletOption {
	return func(w *SmartWallet) {
		w.chain = chain
	}
}

// WithChainReader attaches an EVM RPC client for balance queries,
// contract reads, and ENS resolution.
func WithChainReader(r ChainReader) WalletOption {
	return func(w *SmartWallet) {
		w.eth = r
		if w.ens == nil {
			w.ens = NewENSResolver(r)
		}
	}
}

// WithENSResolver attaches a resolver backed by a dedicated RPC
// endpoint, for chains whose own RPC does not serve the ENS registry.
func WithENSResolver(r *ENSResolver) WalletOption {
	return func(w *SmartWallet) {
		w.ens = r
	}
}

// WithPollInterval overrides the status poll interval.
func WithPollInterval(d time.Duration) WalletOption {
	return func(w *SmartWallet) {
		w.pollInterval = d
	}
}

// WithLogger attaches a logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) WalletOption {
	return func(w *SmartWallet) {
		w.log = log
	}
}

// WithLinkedUser addresses the wallet by the identity it is linked to
// instead of its address. Kind is "email", "phoneNumber" or "userId".
func WithLinkedUser(kind, value string) WalletOption {
	return func(w *SmartWallet) {
		w.locator = fmt.Sprintf("%s:%s:evm-smart-wallet", kind, value)
	}
}

// NewSmartWallet creates a smart wallet client over the custody API.
// The address is both the wallet's on-chain address and its default
// custody locator.
func NewSmartWallet(api API, address string, opts ...WalletOption) (*SmartWallet, error) {
	if api == nil {
		return nil, fmt.Errorf("%w: custody API client is required", agentwallet.ErrConfiguration)
	}
	if address == "" {
		return nil, fmt.Errorf("%w: wallet address is required", agentwallet.ErrConfiguration)
	}

	w := &SmartWallet{
		api:          api,
		address:      address,
		locator:      address,
		chain:        agentwallet.Chain{Type: agentwallet.ChainTypeEVM, Network: "base", ID: 8453},
		signer:       CustodialSigner{},
		pollInterval: DefaultPollInterval,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Address implements agentwallet.WalletClient.
func (w *SmartWallet) Address() string { return w.address }

// Chain implements agentwallet.WalletClient.
func (w *SmartWallet) Chain() agentwallet.Chain { return w.chain }

// Locator returns the custody locator the wallet is addressed by.
func (w *SmartWallet) Locator() string { return w.locator }

// SendTransaction implements agentwallet.EVMWalletClient.
func (w *SmartWallet) SendTransaction(ctx context.Context, tx agentwallet.EVMTransaction) (agentwallet.TransactionResult, error) {
	return w.SendBatch(ctx, []agentwallet.EVMTransaction{tx})
}

// SendBatch implements agentwallet.EVMWalletClient. The batch becomes
// one custody operation: a single create, at most one approval round,
// and a single poll cycle. A failed terminal status is returned as a
// result, not an error.
func (w *SmartWallet) SendBatch(ctx context.Context, txs []agentwallet.EVMTransaction) (agentwallet.TransactionResult, error) {
	if len(txs) == 0 {
		return agentwallet.TransactionResult{}, fmt.Errorf("%w: transaction batch is empty", agentwallet.ErrInvalidArgument)
	}

	calls, err := BuildCalls(txs)
	if err != nil {
		return agentwallet.TransactionResult{}, err
	}

	params := CreateTransactionParams{Calls: calls, Chain: w.chain.Network}
	if !w.signer.Custodial() {
		params.Signer = w.signer.Address()
	}

	op, err := w.api.CreateTransaction(ctx, w.locator, params)
	if err != nil {
		return agentwallet.TransactionResult{}, fmt.Errorf("create transaction: %w", err)
	}
	w.log.Debug("transaction created",
		zap.String("id", op.ID),
		zap.Int("calls", len(calls)),
		zap.Bool("custodial", w.signer.Custodial()))

	if !w.signer.Custodial() {
		if err := w.approveTransaction(ctx, op); err != nil {
			return agentwallet.TransactionResult{}, err
		}
	}

	return pollOperation(ctx, w.pollInterval, func(ctx context.Context) (agentwallet.TransactionResult, agentwallet.Status, error) {
		st, err := w.api.TransactionStatus(ctx, w.locator, op.ID)
		if err != nil {
			return agentwallet.TransactionResult{}, "", fmt.Errorf("transaction status: %w", err)
		}
		result := agentwallet.TransactionResult{Status: st.Status}
		if st.OnChain != nil {
			result.Hash = st.OnChain.TxID
		}
		return result, st.Status, nil
	})
}

// approveTransaction signs the first pending approval message and
// submits it attributed to the key-held signer.
func (w *SmartWallet) approveTransaction(ctx context.Context, op *PendingOperation) error {
	msg, err := op.firstPendingMessage()
	if err != nil {
		return err
	}
	sig, err := w.signer.SignHash(msg)
	if err != nil {
		return err
	}
	if _, err := w.api.ApproveTransaction(ctx, w.locator, op.ID, []Approval{{Signature: sig, Signer: w.signer.Tag()}}); err != nil {
		return fmt.Errorf("approve transaction: %w", err)
	}
	return nil
}

// SignMessage implements agentwallet.WalletClient. The message is
// registered as a custody signing operation, approved when the signer
// holds a key, and polled to completion.
func (w *SmartWallet) SignMessage(ctx context.Context, message string) (agentwallet.Signature, error) {
	params := SignMessageParams{Message: message, Chain: w.chain.Network}
	if !w.signer.Custodial() {
		params.Signer = w.signer.Address()
	}

	op, err := w.api.SignMessage(ctx, w.address, params)
	if err != nil {
		return agentwallet.Signature{}, fmt.Errorf("sign message: %w", err)
	}

	return w.completeSignature(ctx, op)
}

// SignTypedData signs an EIP-712 payload. Typed-data signing always
// requires a key-held signer; with a custodial signer it fails before
// touching the custody API.
func (w *SmartWallet) SignTypedData(ctx context.Context, typedData apitypes.TypedData) (agentwallet.Signature, error) {
	if w.signer.Custodial() {
		return agentwallet.Signature{}, fmt.Errorf("%w: typed-data signing requires a key-held signer", agentwallet.ErrConfiguration)
	}

	params := SignTypedDataParams{
		TypedData: typedData,
		Chain:     w.chain.Network,
		Signer:    w.signer.Address(),
	}
	op, err := w.api.SignTypedData(ctx, w.address, params)
	if err != nil {
		return agentwallet.Signature{}, fmt.Errorf("sign typed data: %w", err)
	}

	return w.completeSignature(ctx, op)
}

// completeSignature runs the shared approve-then-poll tail of both
// signing operations. A failed terminal status surfaces as ErrRejected;
// success without an output signature is a contract violation.
func (w *SmartWallet) completeSignature(ctx context.Context, op *PendingOperation) (agentwallet.Signature, error) {
	if !w.signer.Custodial() {
		msg, err := op.firstPendingMessage()
		if err != nil {
			return agentwallet.Signature{}, err
		}
		sig, err := w.signer.SignHash(msg)
		if err != nil {
			return agentwallet.Signature{}, err
		}
		if _, err := w.api.ApproveSignature(ctx, w.address, op.ID, []Approval{{Signature: sig, Signer: w.signer.Tag()}}); err != nil {
			return agentwallet.Signature{}, fmt.Errorf("approve signature: %w", err)
		}
	}

	st, err := pollOperation(ctx, w.pollInterval, func(ctx context.Context) (*OperationStatus, agentwallet.Status, error) {
		st, err := w.api.SignatureStatus(ctx, w.address, op.ID)
		if err != nil {
			return nil, "", fmt.Errorf("signature status: %w", err)
		}
		return st, st.Status, nil
	})
	if err != nil {
		return agentwallet.Signature{}, err
	}

	if st.Status == agentwallet.StatusFailed {
		return agentwallet.Signature{}, fmt.Errorf("%w: signing operation %s failed", agentwallet.ErrRejected, op.ID)
	}
	if st.OutputSignature == "" {
		return agentwallet.Signature{}, fmt.Errorf("%w: successful signing operation %s has no output signature", agentwallet.ErrProtocol, op.ID)
	}
	return agentwallet.Signature{Signature: st.OutputSignature}, nil
}

// BalanceOf implements agentwallet.WalletClient using the attached
// chain reader.
func (w *SmartWallet) BalanceOf(ctx context.Context, address string) (agentwallet.Balance, error) {
	if w.eth == nil {
		return agentwallet.Balance{}, fmt.Errorf("%w: no chain reader configured", agentwallet.ErrConfiguration)
	}
	if !common.IsHexAddress(address) {
		return agentwallet.Balance{}, fmt.Errorf("%w: %q", agentwallet.ErrInvalidAddress, address)
	}

	wei, err := w.eth.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return agentwallet.Balance{}, fmt.Errorf("balance query: %w", err)
	}

	return agentwallet.Balance{
		Decimals:    18,
		Symbol:      "ETH",
		Name:        "Ethereum",
		Value:       agentwallet.FormatUnits(wei, 18),
		InBaseUnits: wei.String(),
	}, nil
}

// ReadRequest describes a read-only contract call.
type ReadRequest struct {
	Address      string
	ABI          string
	FunctionName string
	Args         []any
}

// Read executes a read-only contract call through the chain reader and
// returns the decoded outputs.
func (w *SmartWallet) Read(ctx context.Context, req ReadRequest) ([]any, error) {
	if w.eth == nil {
		return nil, fmt.Errorf("%w: no chain reader configured", agentwallet.ErrConfiguration)
	}
	if !common.IsHexAddress(req.Address) {
		return nil, fmt.Errorf("%w: %q", agentwallet.ErrInvalidAddress, req.Address)
	}
	if req.FunctionName == "" {
		return nil, fmt.Errorf("%w: read requires a function name", agentwallet.ErrInvalidArgument)
	}

	parsed, err := abi.JSON(strings.NewReader(req.ABI))
	if err != nil {
		return nil, fmt.Errorf("%w: parse ABI: %v", agentwallet.ErrInvalidArgument, err)
	}
	input, err := parsed.Pack(req.FunctionName, req.Args...)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", agentwallet.ErrInvalidArgument, req.FunctionName, err)
	}

	target := common.HexToAddress(req.Address)
	output, err := w.eth.CallContract(ctx, ethereum.CallMsg{To: &target, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("contract read: %w", err)
	}

	values, err := parsed.Unpack(req.FunctionName, output)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s result: %v", agentwallet.ErrProtocol, req.FunctionName, err)
	}
	return values, nil
}

// ResolveAddress implements agentwallet.EVMWalletClient. Hex addresses
// are checksummed locally; anything else is treated as an ENS name.
func (w *SmartWallet) ResolveAddress(ctx context.Context, name string) (string, error) {
	if common.IsHexAddress(name) {
		return common.HexToAddress(name).Hex(), nil
	}
	if w.ens == nil {
		return "", fmt.Errorf("%w: ENS resolution requires a chain reader", agentwallet.ErrConfiguration)
	}
	return w.ens.Resolve(ctx, name)
}
