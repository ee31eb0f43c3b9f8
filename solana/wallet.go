// Package solana provides a keypair-held wallet client for Solana
// clusters, including versioned-transaction decompilation for
// transactions fetched from external services.
package solana

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// DefaultPollInterval is the wait between confirmation checks.
const DefaultPollInterval = 500 * time.Millisecond

// sendMaxRetries is how many times the RPC node re-broadcasts an
// unconfirmed transaction.
const sendMaxRetries uint = 10

// RPCClient is the slice of the Solana JSON-RPC surface the wallet
// uses. *rpc.Client satisfies it.
type RPCClient interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error)
}

// Transaction is one logical Solana transaction as provided by a
// caller: decompiled instructions plus the lookup tables and extra
// signers needed to rebuild and sign it.
type Transaction struct {
	Instructions []solana.Instruction

	// AddressLookupTables maps table addresses to their contents, for
	// transactions that reference versioned lookup tables.
	AddressLookupTables map[solana.PublicKey]solana.PublicKeySlice

	// Signers are additional required signers beyond the wallet keypair.
	Signers []solana.PrivateKey
}

// Wallet is a keypair-held Solana wallet client.
type Wallet struct {
	rpc          RPCClient
	key          solana.PrivateKey
	pub          solana.PublicKey
	chain        agentwallet.Chain
	pollInterval time.Duration
	log          *zap.Logger
}

var _ agentwallet.WalletClient = (*Wallet)(nil)

// Option configures a Wallet.
type Option func(*Wallet) error

// WithPrivateKey loads the wallet keypair from a base58-encoded
// private key.
func WithPrivateKey(base58Key string) Option {
	return func(w *Wallet) error {
		key, err := solana.PrivateKeyFromBase58(base58Key)
		if err != nil {
			return fmt.Errorf("%w: %v", agentwallet.ErrInvalidKey, err)
		}
		w.key = key
		return nil
	}
}

// WithKeygenFile loads the wallet keypair from a solana-keygen JSON
// file (an array of 64 bytes).
func WithKeygenFile(path string) Option {
	return func(w *Wallet) error {
		key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", agentwallet.ErrInvalidKeystore, err)
		}
		w.key = key
		return nil
	}
}

// WithNetwork sets the cluster identifier. The default is "solana"
// (mainnet-beta).
func WithNetwork(network string) Option {
	return func(w *Wallet) error {
		chain, err := agentwallet.ResolveChain(network)
		if err != nil {
			return err
		}
		if chain.Type != agentwallet.ChainTypeSolana {
			return fmt.Errorf("%w: %s is not a Solana cluster", agentwallet.ErrInvalidNetwork, network)
		}
		w.chain = chain
		return nil
	}
}

// WithPollInterval overrides the confirmation poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Wallet) error {
		w.pollInterval = d
		return nil
	}
}

// WithLogger attaches a logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Wallet) error {
		w.log = log
		return nil
	}
}

// NewWallet creates a wallet over the given RPC client. Exactly one key
// source option is required.
func NewWallet(client RPCClient, opts ...Option) (*Wallet, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: RPC client is required", agentwallet.ErrConfiguration)
	}

	w := &Wallet{
		rpc:          client,
		chain:        agentwallet.Chain{Type: agentwallet.ChainTypeSolana, Network: "solana"},
		pollInterval: DefaultPollInterval,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	if w.key == nil {
		return nil, fmt.Errorf("%w: wallet keypair is required", agentwallet.ErrConfiguration)
	}
	w.pub = w.key.PublicKey()
	return w, nil
}

// Address implements agentwallet.WalletClient.
func (w *Wallet) Address() string { return w.pub.String() }

// Chain implements agentwallet.WalletClient.
func (w *Wallet) Chain() agentwallet.Chain { return w.chain }

// SignMessage implements agentwallet.WalletClient. The message's UTF-8
// bytes are signed with the wallet keypair; the signature is returned
// hex-encoded.
func (w *Wallet) SignMessage(ctx context.Context, message string) (agentwallet.Signature, error) {
	sig, err := w.key.Sign([]byte(message))
	if err != nil {
		return agentwallet.Signature{}, fmt.Errorf("sign message: %w", err)
	}
	return agentwallet.Signature{Signature: hex.EncodeToString(sig[:])}, nil
}

// BalanceOf implements agentwallet.WalletClient.
func (w *Wallet) BalanceOf(ctx context.Context, address string) (agentwallet.Balance, error) {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return agentwallet.Balance{}, fmt.Errorf("%w: %q: %v", agentwallet.ErrInvalidAddress, address, err)
	}

	out, err := w.rpc.GetBalance(ctx, pub, rpc.CommitmentConfirmed)
	if err != nil {
		return agentwallet.Balance{}, fmt.Errorf("balance query: %w", err)
	}

	lamports := new(big.Int).SetUint64(out.Value)
	return agentwallet.Balance{
		Decimals:    9,
		Symbol:      "SOL",
		Name:        "Solana",
		Value:       agentwallet.FormatUnits(lamports, 9),
		InBaseUnits: lamports.String(),
	}, nil
}

// SendTransaction rebuilds the transaction on a fresh blockhash, signs
// it with the wallet keypair plus any extra signers, submits it, and
// waits for confirmation. A transaction that lands with an on-chain
// error is returned as a failed result, not an error.
func (w *Wallet) SendTransaction(ctx context.Context, tx Transaction) (agentwallet.TransactionResult, error) {
	if len(tx.Instructions) == 0 {
		return agentwallet.TransactionResult{}, fmt.Errorf("%w: transaction has no instructions", agentwallet.ErrInvalidArgument)
	}

	blockhash, err := w.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return agentwallet.TransactionResult{}, fmt.Errorf("fetch blockhash: %w", err)
	}

	opts := []solana.TransactionOption{solana.TransactionPayer(w.pub)}
	if len(tx.AddressLookupTables) > 0 {
		opts = append(opts, solana.TransactionAddressTables(tx.AddressLookupTables))
	}
	built, err := solana.NewTransaction(tx.Instructions, blockhash.Value.Blockhash, opts...)
	if err != nil {
		return agentwallet.TransactionResult{}, fmt.Errorf("build transaction: %w", err)
	}

	signers := append([]solana.PrivateKey{w.key}, tx.Signers...)
	if _, err := built.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	}); err != nil {
		return agentwallet.TransactionResult{}, fmt.Errorf("sign transaction: %w", err)
	}

	maxRetries := sendMaxRetries
	sig, err := w.rpc.SendTransactionWithOpts(ctx, built, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
		MaxRetries:          &maxRetries,
	})
	if err != nil {
		return agentwallet.TransactionResult{}, fmt.Errorf("send transaction: %w", err)
	}
	w.log.Debug("transaction submitted", zap.Stringer("signature", sig))

	return w.awaitConfirmation(ctx, sig)
}

// awaitConfirmation polls signature status until the transaction is
// confirmed or finalized. Context expiry surfaces as ErrTimeout.
func (w *Wallet) awaitConfirmation(ctx context.Context, sig solana.Signature) (agentwallet.TransactionResult, error) {
	for {
		out, err := w.rpc.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			return agentwallet.TransactionResult{}, fmt.Errorf("signature status: %w", err)
		}
		if len(out.Value) > 0 && out.Value[0] != nil {
			st := out.Value[0]
			if st.Err != nil {
				return agentwallet.TransactionResult{Hash: sig.String(), Status: agentwallet.StatusFailed}, nil
			}
			switch st.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return agentwallet.TransactionResult{Hash: sig.String(), Status: agentwallet.StatusSuccess}, nil
			}
		}

		select {
		case <-time.After(w.pollInterval):
		case <-ctx.Done():
			return agentwallet.TransactionResult{}, fmt.Errorf("%w: %v", agentwallet.ErrTimeout, ctx.Err())
		}
	}
}

// DecompileTransaction converts a compiled (possibly versioned)
// transaction back into instructions with full account metadata, so it
// can be re-signed and re-submitted on a fresh blockhash. Lookup tables
// referenced by the message must be supplied.
func (w *Wallet) DecompileTransaction(tx *solana.Transaction, tables map[solana.PublicKey]solana.PublicKeySlice) (Transaction, error) {
	msg := &tx.Message
	if len(tables) > 0 {
		if err := msg.SetAddressTables(tables); err != nil {
			return Transaction{}, fmt.Errorf("%w: set address tables: %v", agentwallet.ErrInvalidArgument, err)
		}
	}

	allKeys, err := msg.GetAllKeys()
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: resolve account keys: %v", agentwallet.ErrInvalidArgument, err)
	}

	numStatic := len(msg.AccountKeys)
	numSigners := int(msg.Header.NumRequiredSignatures)
	numReadonlySigned := int(msg.Header.NumReadonlySignedAccounts)
	numReadonlyUnsigned := int(msg.Header.NumReadonlyUnsignedAccounts)

	numWritableLookups := 0
	for _, lookup := range msg.AddressTableLookups {
		numWritableLookups += len(lookup.WritableIndexes)
	}

	isWritable := func(idx int) bool {
		switch {
		case idx < numSigners:
			return idx < numSigners-numReadonlySigned
		case idx < numStatic:
			return idx < numStatic-numReadonlyUnsigned
		default:
			// Writable lookup addresses precede readonly ones.
			return idx-numStatic < numWritableLookups
		}
	}

	instructions := make([]solana.Instruction, 0, len(msg.Instructions))
	for _, ci := range msg.Instructions {
		if int(ci.ProgramIDIndex) >= len(allKeys) {
			return Transaction{}, fmt.Errorf("%w: program id index out of range", agentwallet.ErrInvalidArgument)
		}
		metas := make(solana.AccountMetaSlice, 0, len(ci.Accounts))
		for _, accIdx := range ci.Accounts {
			idx := int(accIdx)
			if idx >= len(allKeys) {
				return Transaction{}, fmt.Errorf("%w: account index out of range", agentwallet.ErrInvalidArgument)
			}
			metas = append(metas, &solana.AccountMeta{
				PublicKey:  allKeys[idx],
				IsSigner:   idx < numSigners,
				IsWritable: isWritable(idx),
			})
		}
		instructions = append(instructions, solana.NewInstruction(allKeys[ci.ProgramIDIndex], metas, ci.Data))
	}

	return Transaction{Instructions: instructions, AddressLookupTables: tables}, nil
}

// LookupTableAccounts fetches and decodes the address lookup tables a
// versioned transaction references.
func (w *Wallet) LookupTableAccounts(ctx context.Context, keys []solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	out, err := w.rpc.GetMultipleAccounts(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("fetch lookup tables: %w", err)
	}

	tables := make(map[solana.PublicKey]solana.PublicKeySlice, len(keys))
	for i, acc := range out.Value {
		if acc == nil {
			return nil, fmt.Errorf("%w: lookup table %s does not exist", agentwallet.ErrInvalidArgument, keys[i])
		}
		state, err := addresslookuptable.DecodeAddressLookupTableState(acc.Data.GetBinary())
		if err != nil {
			return nil, fmt.Errorf("%w: decode lookup table %s: %v", agentwallet.ErrProtocol, keys[i], err)
		}
		tables[keys[i]] = state.Addresses
	}
	return tables, nil
}
