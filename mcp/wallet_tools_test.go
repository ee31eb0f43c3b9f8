package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcpproto "github.com/mark3labs/mcp-go/mcp"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// fakeEVMWallet is a counting fake wallet for handler tests.
type fakeEVMWallet struct {
	sendCalls int
	lastTx    agentwallet.EVMTransaction
}

func (f *fakeEVMWallet) Address() string { return "0xabc0000000000000000000000000000000000001" }

func (f *fakeEVMWallet) Chain() agentwallet.Chain {
	return agentwallet.Chain{Type: agentwallet.ChainTypeEVM, Network: "base", ID: 8453}
}

func (f *fakeEVMWallet) SignMessage(ctx context.Context, message string) (agentwallet.Signature, error) {
	return agentwallet.Signature{Signature: "0xSIGNED:" + message}, nil
}

func (f *fakeEVMWallet) BalanceOf(ctx context.Context, address string) (agentwallet.Balance, error) {
	return agentwallet.Balance{Decimals: 18, Symbol: "ETH", Name: "Ethereum", Value: "1.5", InBaseUnits: "1500000000000000000"}, nil
}

func (f *fakeEVMWallet) SendTransaction(ctx context.Context, tx agentwallet.EVMTransaction) (agentwallet.TransactionResult, error) {
	f.sendCalls++
	f.lastTx = tx
	return agentwallet.TransactionResult{Hash: "0xTX", Status: agentwallet.StatusSuccess}, nil
}

func (f *fakeEVMWallet) SendBatch(ctx context.Context, txs []agentwallet.EVMTransaction) (agentwallet.TransactionResult, error) {
	return agentwallet.TransactionResult{Hash: "0xBATCH", Status: agentwallet.StatusSuccess}, nil
}

func (f *fakeEVMWallet) ResolveAddress(ctx context.Context, name string) (string, error) {
	return name, nil
}

func callRequest(args map[string]any) mcpproto.CallToolRequest {
	req := mcpproto.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, result *mcpproto.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("got %d content items, want 1", len(result.Content))
	}
	text, ok := result.Content[0].(mcpproto.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func TestEVMWalletToolsRegistersAll(t *testing.T) {
	tools := EVMWalletTools(&fakeEVMWallet{})
	want := map[string]bool{
		"wallet_get_address":      false,
		"wallet_get_balance":      false,
		"wallet_sign_message":     false,
		"wallet_send_transaction": false,
	}
	for _, tool := range tools {
		if _, ok := want[tool.Tool.Name]; !ok {
			t.Errorf("unexpected tool %q", tool.Tool.Name)
			continue
		}
		want[tool.Tool.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("missing tool %q", name)
		}
	}
}

func TestHandleGetAddress(t *testing.T) {
	wallet := &fakeEVMWallet{}
	result, err := handleGetAddress(wallet)(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := textContent(t, result); got != wallet.Address() {
		t.Errorf("address = %q", got)
	}
}

func TestHandleGetBalanceDefaultsToWallet(t *testing.T) {
	result, err := handleGetBalance(&fakeEVMWallet{})(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var balance agentwallet.Balance
	if err := json.Unmarshal([]byte(textContent(t, result)), &balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if balance.Value != "1.5" || balance.Symbol != "ETH" {
		t.Errorf("balance = %+v", balance)
	}
}

func TestHandleSignMessage(t *testing.T) {
	result, err := handleSignMessage(&fakeEVMWallet{})(context.Background(), callRequest(map[string]any{
		"message": "hello",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var sig agentwallet.Signature
	if err := json.Unmarshal([]byte(textContent(t, result)), &sig); err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	if sig.Signature != "0xSIGNED:hello" {
		t.Errorf("Signature = %q", sig.Signature)
	}
}

func TestHandleSignMessageRequiresMessage(t *testing.T) {
	result, err := handleSignMessage(&fakeEVMWallet{})(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for missing message")
	}
}

func TestHandleSendTransaction(t *testing.T) {
	wallet := &fakeEVMWallet{}
	result, err := handleSendTransaction(wallet)(context.Background(), callRequest(map[string]any{
		"to":    "0x742d35Cc6634C0532925a3b844Bc9e7595f251e3",
		"value": "1000",
		"data":  "0x01",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var txResult agentwallet.TransactionResult
	if err := json.Unmarshal([]byte(textContent(t, result)), &txResult); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if txResult.Hash != "0xTX" || txResult.Status != agentwallet.StatusSuccess {
		t.Errorf("result = %+v", txResult)
	}
	if wallet.sendCalls != 1 {
		t.Errorf("sendCalls = %d", wallet.sendCalls)
	}
	if wallet.lastTx.Value == nil || wallet.lastTx.Value.String() != "1000" {
		t.Errorf("Value = %v", wallet.lastTx.Value)
	}
	if wallet.lastTx.Data != "0x01" {
		t.Errorf("Data = %q", wallet.lastTx.Data)
	}
}

func TestHandleSendTransactionRejectsBadValue(t *testing.T) {
	wallet := &fakeEVMWallet{}
	result, err := handleSendTransaction(wallet)(context.Background(), callRequest(map[string]any{
		"to":    "0x742d35Cc6634C0532925a3b844Bc9e7595f251e3",
		"value": "-5",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for negative value")
	}
	if wallet.sendCalls != 0 {
		t.Errorf("sendCalls = %d, want 0", wallet.sendCalls)
	}
}
