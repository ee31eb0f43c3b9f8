package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// Wallet tool definitions shared by every wallet implementation.
// Descriptions are what the LLM reads to decide which tool to use.

var toolGetAddress = mcp.NewTool("wallet_get_address",
	mcp.WithDescription("Get the connected wallet's public address."),
)

var toolGetBalance = mcp.NewTool("wallet_get_balance",
	mcp.WithDescription(
		"Get the native-currency balance of an address on the wallet's chain. "+
			"Returns the balance in both human units and base units."),
	mcp.WithString("address",
		mcp.Description("Address to query. Defaults to the wallet's own address.")),
)

var toolSignMessage = mcp.NewTool("wallet_sign_message",
	mcp.WithDescription("Sign an arbitrary message with the connected wallet and return the signature."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The message text to sign")),
)

var toolSendTransaction = mcp.NewTool("wallet_send_transaction",
	mcp.WithDescription(
		"Send a transaction from the connected EVM wallet and wait for it to land. "+
			"Returns the transaction hash and final status."),
	mcp.WithString("to",
		mcp.Required(),
		mcp.Description("Recipient address or ENS name")),
	mcp.WithString("value",
		mcp.Description("Native value to attach in wei, as a decimal string. Defaults to 0.")),
	mcp.WithString("data",
		mcp.Description("Hex-encoded calldata. Omit for a plain transfer.")),
)

// WalletTools returns the generic tools available on any wallet.
func WalletTools(wallet agentwallet.WalletClient) []mcpserver.ServerTool {
	return []mcpserver.ServerTool{
		{Tool: toolGetAddress, Handler: handleGetAddress(wallet)},
		{Tool: toolGetBalance, Handler: handleGetBalance(wallet)},
		{Tool: toolSignMessage, Handler: handleSignMessage(wallet)},
	}
}

// EVMWalletTools returns the generic tools plus transaction submission.
func EVMWalletTools(wallet agentwallet.EVMWalletClient) []mcpserver.ServerTool {
	return append(WalletTools(wallet), mcpserver.ServerTool{
		Tool:    toolSendTransaction,
		Handler: handleSendTransaction(wallet),
	})
}

func handleGetAddress(wallet agentwallet.WalletClient) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(wallet.Address()), nil
	}
}

func handleGetBalance(wallet agentwallet.WalletClient) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		address, _ := req.GetArguments()["address"].(string)
		if address == "" {
			address = wallet.Address()
		}
		balance, err := wallet.BalanceOf(ctx, address)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(balance)
	}
}

func handleSignMessage(wallet agentwallet.WalletClient) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, _ := req.GetArguments()["message"].(string)
		if message == "" {
			return mcp.NewToolResultError("message is required"), nil
		}
		sig, err := wallet.SignMessage(ctx, message)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(sig)
	}
}

func handleSendTransaction(wallet agentwallet.EVMWalletClient) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		to, _ := args["to"].(string)
		if to == "" {
			return mcp.NewToolResultError("to is required"), nil
		}

		tx := agentwallet.EVMTransaction{To: to}
		if valueStr, ok := args["value"].(string); ok && valueStr != "" {
			value, ok := new(big.Int).SetString(valueStr, 10)
			if !ok || value.Sign() < 0 {
				return mcp.NewToolResultError("value must be a non-negative decimal string in wei"), nil
			}
			tx.Value = value
		}
		if data, ok := args["data"].(string); ok {
			tx.Data = data
		}

		result, err := wallet.SendTransaction(ctx, tx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
