package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	agentwallet "github.com/agentwallet/agentwallet-go"
)

// Tool definitions for the Jupiter swap plugin.
// Descriptions are what the LLM reads to decide which tool to use.

var toolGetQuote = mcp.NewTool("jupiter_get_quote",
	mcp.WithDescription(
		"Get a swap quote from the Jupiter aggregator on Solana. "+
			"Returns the expected output amount, price impact, and route. "+
			"Use this before swapping to preview the trade."),
	mcp.WithString("inputMint",
		mcp.Required(),
		mcp.Description("Mint address of the token to sell")),
	mcp.WithString("outputMint",
		mcp.Required(),
		mcp.Description("Mint address of the token to buy")),
	mcp.WithString("amount",
		mcp.Required(),
		mcp.Description("Amount to swap in base units of the input mint (e.g. lamports)")),
	mcp.WithString("slippageBps",
		mcp.Description("Allowed slippage in basis points (e.g. '50' for 0.5%)")),
)

var toolSwapTokens = mcp.NewTool("jupiter_swap_tokens",
	mcp.WithDescription(
		"Swap tokens on Solana through the Jupiter aggregator using the connected wallet. "+
			"Quotes the trade, builds the transaction, signs it, and waits for confirmation. "+
			"Returns the transaction signature."),
	mcp.WithString("inputMint",
		mcp.Required(),
		mcp.Description("Mint address of the token to sell")),
	mcp.WithString("outputMint",
		mcp.Required(),
		mcp.Description("Mint address of the token to buy")),
	mcp.WithString("amount",
		mcp.Required(),
		mcp.Description("Amount to swap in base units of the input mint")),
	mcp.WithString("slippageBps",
		mcp.Description("Allowed slippage in basis points (e.g. '50' for 0.5%)")),
)

// Tools returns the plugin's MCP tools bound to the service.
func (s *Service) Tools() []mcpserver.ServerTool {
	return []mcpserver.ServerTool{
		{Tool: toolGetQuote, Handler: s.handleGetQuote},
		{Tool: toolSwapTokens, Handler: s.handleSwapTokens},
	}
}

func (s *Service) handleGetQuote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	quoteReq, err := quoteRequestFromArgs(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	quote, err := s.GetQuote(ctx, quoteReq)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(quote)
}

func (s *Service) handleSwapTokens(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	quoteReq, err := quoteRequestFromArgs(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.Swap(ctx, quoteReq)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func quoteRequestFromArgs(args map[string]any) (QuoteRequest, error) {
	inputMint, _ := args["inputMint"].(string)
	outputMint, _ := args["outputMint"].(string)
	amountStr, _ := args["amount"].(string)

	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		return QuoteRequest{}, fmt.Errorf("%w: amount must be a positive integer in base units", agentwallet.ErrInvalidArgument)
	}

	req := QuoteRequest{InputMint: inputMint, OutputMint: outputMint, Amount: amount}
	if slippageStr, ok := args["slippageBps"].(string); ok && slippageStr != "" {
		slippage, err := strconv.Atoi(slippageStr)
		if err != nil {
			return QuoteRequest{}, fmt.Errorf("%w: slippageBps must be an integer", agentwallet.ErrInvalidArgument)
		}
		req.SlippageBps = slippage
	}
	return req, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
