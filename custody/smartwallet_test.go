package custody

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// fakeAPI is a counting fake for the custody API.
type fakeAPI struct {
	createCalls     int
	approveCalls    int
	statusCalls     int
	signMsgCalls    int
	signTypedCalls  int
	approveSigCalls int
	sigStatusCalls  int

	lastCreateParams CreateTransactionParams
	lastApprovals    []Approval

	createOp *PendingOperation
	statuses []*OperationStatus

	signOp      *PendingOperation
	sigStatuses []*OperationStatus
}

func (f *fakeAPI) GetWallet(ctx context.Context, locator string) (*Wallet, error) {
	return &Wallet{Type: "evm-smart-wallet", Address: "0xabc0000000000000000000000000000000000001"}, nil
}

func (f *fakeAPI) CreateTransaction(ctx context.Context, locator string, params CreateTransactionParams) (*PendingOperation, error) {
	f.createCalls++
	f.lastCreateParams = params
	return f.createOp, nil
}

func (f *fakeAPI) ApproveTransaction(ctx context.Context, locator, id string, approvals []Approval) (*PendingOperation, error) {
	f.approveCalls++
	f.lastApprovals = approvals
	return f.createOp, nil
}

func (f *fakeAPI) TransactionStatus(ctx context.Context, locator, id string) (*OperationStatus, error) {
	st := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	f.statusCalls++
	return st, nil
}

func (f *fakeAPI) SignMessage(ctx context.Context, addr string, params SignMessageParams) (*PendingOperation, error) {
	f.signMsgCalls++
	return f.signOp, nil
}

func (f *fakeAPI) SignTypedData(ctx context.Context, addr string, params SignTypedDataParams) (*PendingOperation, error) {
	f.signTypedCalls++
	return f.signOp, nil
}

func (f *fakeAPI) ApproveSignature(ctx context.Context, addr, id string, approvals []Approval) (*PendingOperation, error) {
	f.approveSigCalls++
	f.lastApprovals = approvals
	return f.signOp, nil
}

func (f *fakeAPI) SignatureStatus(ctx context.Context, addr, id string) (*OperationStatus, error) {
	st := f.sigStatuses[0]
	if len(f.sigStatuses) > 1 {
		f.sigStatuses = f.sigStatuses[1:]
	}
	f.sigStatusCalls++
	return st, nil
}

const testWalletAddress = "0xabc0000000000000000000000000000000000001"

func newTestWallet(t *testing.T, api API, opts ...WalletOption) *SmartWallet {
	t.Helper()
	opts = append([]WalletOption{WithPollInterval(time.Millisecond)}, opts...)
	w, err := NewSmartWallet(api, testWalletAddress, opts...)
	if err != nil {
		t.Fatalf("NewSmartWallet: %v", err)
	}
	return w
}

func TestSendTransactionCustodial(t *testing.T) {
	api := &fakeAPI{
		createOp: &PendingOperation{ID: "tx_1", Status: agentwallet.StatusPending},
		statuses: []*OperationStatus{
			{Status: agentwallet.StatusPending},
			{Status: agentwallet.StatusSuccess, OnChain: &OnChain{TxID: "0xTX1"}},
		},
	}
	w := newTestWallet(t, api)

	result, err := w.SendTransaction(context.Background(), agentwallet.EVMTransaction{
		To:    "0x742d35Cc6634C0532925a3b844Bc9e7595f251e3",
		Value: big.NewInt(1),
	})
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if result.Hash != "0xTX1" || result.Status != agentwallet.StatusSuccess {
		t.Errorf("result = %+v", result)
	}
	if api.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", api.createCalls)
	}
	if api.approveCalls != 0 {
		t.Errorf("approveCalls = %d, want 0 for custodial signer", api.approveCalls)
	}
	if api.lastCreateParams.Signer != "" {
		t.Errorf("custodial create carried signer %q", api.lastCreateParams.Signer)
	}
	if api.statusCalls < 2 {
		t.Errorf("statusCalls = %d, want at least 2", api.statusCalls)
	}
}

func TestSendTransactionKeyHeld(t *testing.T) {
	signer, err := NewKeypairSigner(testPrivateKey)
	if err != nil {
		t.Fatalf("NewKeypairSigner: %v", err)
	}
	api := &fakeAPI{
		createOp: &PendingOperation{
			ID:        "tx_2",
			Status:    agentwallet.StatusPending,
			Approvals: &Approvals{Pending: []PendingApproval{{Message: "0xdeadbeef"}}},
		},
		statuses: []*OperationStatus{{Status: agentwallet.StatusFailed}},
	}
	w := newTestWallet(t, api, WithSigner(signer))

	result, err := w.SendTransaction(context.Background(), agentwallet.EVMTransaction{To: testWalletAddress})
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	// A rejected transaction is a result, not an error.
	if result.Status != agentwallet.StatusFailed || result.Hash != "" {
		t.Errorf("result = %+v, want failed with empty hash", result)
	}
	if api.approveCalls != 1 {
		t.Fatalf("approveCalls = %d, want 1", api.approveCalls)
	}
	if api.lastCreateParams.Signer != signer.Address() {
		t.Errorf("create signer = %q, want %q", api.lastCreateParams.Signer, signer.Address())
	}
	if len(api.lastApprovals) != 1 {
		t.Fatalf("submitted %d approvals, want 1", len(api.lastApprovals))
	}
	if api.lastApprovals[0].Signer != signer.Tag() {
		t.Errorf("approval signer = %q, want %q", api.lastApprovals[0].Signer, signer.Tag())
	}
	if api.lastApprovals[0].Signature == "" {
		t.Error("approval signature is empty")
	}
}

func TestSendTransactionKeyHeldNoPendingApprovals(t *testing.T) {
	signer, err := NewKeypairSigner(testPrivateKey)
	if err != nil {
		t.Fatalf("NewKeypairSigner: %v", err)
	}
	api := &fakeAPI{
		createOp: &PendingOperation{ID: "tx_3", Status: agentwallet.StatusPending},
	}
	w := newTestWallet(t, api, WithSigner(signer))

	_, err = w.SendTransaction(context.Background(), agentwallet.EVMTransaction{To: testWalletAddress})
	if !errors.Is(err, agentwallet.ErrProtocol) {
		t.Errorf("error = %v, want ErrProtocol", err)
	}
	if api.approveCalls != 0 {
		t.Errorf("approveCalls = %d, want 0 after protocol violation", api.approveCalls)
	}
}

func TestSendBatchCreatesOneOperation(t *testing.T) {
	api := &fakeAPI{
		createOp: &PendingOperation{ID: "tx_4"},
		statuses: []*OperationStatus{{Status: agentwallet.StatusSuccess, OnChain: &OnChain{TxID: "0xBATCH"}}},
	}
	w := newTestWallet(t, api)

	txs := []agentwallet.EVMTransaction{
		{To: testWalletAddress, Value: big.NewInt(1)},
		{To: testWalletAddress, Value: big.NewInt(2)},
		{To: testWalletAddress, Data: "0x01"},
	}
	result, err := w.SendBatch(context.Background(), txs)
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if result.Hash != "0xBATCH" {
		t.Errorf("Hash = %q", result.Hash)
	}
	if api.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1 for the whole batch", api.createCalls)
	}
	if len(api.lastCreateParams.Calls) != 3 {
		t.Errorf("created with %d calls, want 3", len(api.lastCreateParams.Calls))
	}
}

func TestSendBatchEmpty(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWallet(t, api)

	_, err := w.SendBatch(context.Background(), nil)
	if !errors.Is(err, agentwallet.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
	if api.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0", api.createCalls)
	}
}

func TestSendTransactionSuccessWithoutHash(t *testing.T) {
	api := &fakeAPI{
		createOp: &PendingOperation{ID: "tx_5"},
		statuses: []*OperationStatus{{Status: agentwallet.StatusSuccess}},
	}
	w := newTestWallet(t, api)

	result, err := w.SendTransaction(context.Background(), agentwallet.EVMTransaction{To: testWalletAddress})
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if result.Status != agentwallet.StatusSuccess || result.Hash != "" {
		t.Errorf("result = %+v, want success with empty hash", result)
	}
}

func TestSignMessageCustodial(t *testing.T) {
	api := &fakeAPI{
		signOp:      &PendingOperation{ID: "sig_1"},
		sigStatuses: []*OperationStatus{{Status: agentwallet.StatusSuccess, OutputSignature: "0xSIG"}},
	}
	w := newTestWallet(t, api)

	sig, err := w.SignMessage(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SignMessage: %v", err)
	}
	if sig.Signature != "0xSIG" {
		t.Errorf("Signature = %q", sig.Signature)
	}
	if api.approveSigCalls != 0 {
		t.Errorf("approveSigCalls = %d, want 0 for custodial signer", api.approveSigCalls)
	}
}

func TestSignMessageKeyHeld(t *testing.T) {
	signer, err := NewKeypairSigner(testPrivateKey)
	if err != nil {
		t.Fatalf("NewKeypairSigner: %v", err)
	}
	api := &fakeAPI{
		signOp: &PendingOperation{
			ID:        "sig_2",
			Approvals: &Approvals{Pending: []PendingApproval{{Message: "0xbeef"}}},
		},
		sigStatuses: []*OperationStatus{{Status: agentwallet.StatusSuccess, OutputSignature: "0xSIG2"}},
	}
	w := newTestWallet(t, api, WithSigner(signer))

	sig, err := w.SignMessage(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SignMessage: %v", err)
	}
	if sig.Signature != "0xSIG2" {
		t.Errorf("Signature = %q", sig.Signature)
	}
	if api.approveSigCalls != 1 {
		t.Errorf("approveSigCalls = %d, want 1", api.approveSigCalls)
	}
}

func TestSignMessageRejected(t *testing.T) {
	api := &fakeAPI{
		signOp:      &PendingOperation{ID: "sig_3"},
		sigStatuses: []*OperationStatus{{Status: agentwallet.StatusFailed}},
	}
	w := newTestWallet(t, api)

	_, err := w.SignMessage(context.Background(), "hello")
	if !errors.Is(err, agentwallet.ErrRejected) {
		t.Errorf("error = %v, want ErrRejected", err)
	}
}

func TestSignMessageSuccessWithoutSignature(t *testing.T) {
	api := &fakeAPI{
		signOp:      &PendingOperation{ID: "sig_4"},
		sigStatuses: []*OperationStatus{{Status: agentwallet.StatusSuccess}},
	}
	w := newTestWallet(t, api)

	_, err := w.SignMessage(context.Background(), "hello")
	if !errors.Is(err, agentwallet.ErrProtocol) {
		t.Errorf("error = %v, want ErrProtocol", err)
	}
}

func TestSignTypedDataCustodialFailsBeforeAPICall(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWallet(t, api)

	_, err := w.SignTypedData(context.Background(), apitypes.TypedData{PrimaryType: "Permit"})
	if !errors.Is(err, agentwallet.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
	if api.signTypedCalls != 0 || api.approveSigCalls != 0 || api.sigStatusCalls != 0 {
		t.Errorf("custodial typed-data signing touched the API: %+v", api)
	}
}

func TestSignTypedDataKeyHeld(t *testing.T) {
	signer, err := NewKeypairSigner(testPrivateKey)
	if err != nil {
		t.Fatalf("NewKeypairSigner: %v", err)
	}
	api := &fakeAPI{
		signOp: &PendingOperation{
			ID:        "sig_5",
			Approvals: &Approvals{Pending: []PendingApproval{{Message: "0xfeed"}}},
		},
		sigStatuses: []*OperationStatus{{Status: agentwallet.StatusSuccess, OutputSignature: "0xTYPED"}},
	}
	w := newTestWallet(t, api, WithSigner(signer))

	sig, err := w.SignTypedData(context.Background(), apitypes.TypedData{PrimaryType: "Permit"})
	if err != nil {
		t.Fatalf("SignTypedData: %v", err)
	}
	if sig.Signature != "0xTYPED" {
		t.Errorf("Signature = %q", sig.Signature)
	}
	if api.signTypedCalls != 1 || api.approveSigCalls != 1 {
		t.Errorf("calls = %+v", api)
	}
}

func TestWithLinkedUserLocator(t *testing.T) {
	w := newTestWallet(t, &fakeAPI{}, WithLinkedUser("email", "agent@example.com"))
	if got := w.Locator(); got != "email:agent@example.com:evm-smart-wallet" {
		t.Errorf("Locator() = %q", got)
	}
	// The on-chain address is unchanged.
	if w.Address() != testWalletAddress {
		t.Errorf("Address() = %q", w.Address())
	}
}

func TestSendTransactionContextDeadline(t *testing.T) {
	api := &fakeAPI{
		createOp: &PendingOperation{ID: "tx_6"},
		statuses: []*OperationStatus{{Status: agentwallet.StatusPending}},
	}
	w := newTestWallet(t, api, WithPollInterval(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := w.SendTransaction(ctx, agentwallet.EVMTransaction{To: testWalletAddress})
	if !errors.Is(err, agentwallet.ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}
