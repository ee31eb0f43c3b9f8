package uniswap

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Tool definitions for the Uniswap trading plugin.
// Descriptions are what the LLM reads to decide which tool to use.

var toolCheckApproval = mcp.NewTool("uniswap_check_approval",
	mcp.WithDescription(
		"Check whether the wallet has approved Uniswap to spend an ERC-20 token, "+
			"and send the approval transaction if not. "+
			"Call this before swapping a token for the first time."),
	mcp.WithString("token",
		mcp.Required(),
		mcp.Description("ERC-20 token contract address to approve")),
	mcp.WithString("amount",
		mcp.Description("Allowance to check in base units. Omit for unlimited.")),
)

var toolGetQuote = mcp.NewTool("uniswap_get_quote",
	mcp.WithDescription(
		"Get a swap quote from Uniswap on the wallet's chain. "+
			"Returns the route and expected amounts. Use this to preview a trade."),
	mcp.WithString("tokenIn",
		mcp.Required(),
		mcp.Description("Address of the token to sell")),
	mcp.WithString("tokenOut",
		mcp.Required(),
		mcp.Description("Address of the token to buy")),
	mcp.WithString("amount",
		mcp.Required(),
		mcp.Description("Trade amount in base units of the input token")),
	mcp.WithString("type",
		mcp.Description("EXACT_INPUT (default) or EXACT_OUTPUT"),
		mcp.Enum(string(SwapTypeExactInput), string(SwapTypeExactOutput))),
)

var toolSwapTokens = mcp.NewTool("uniswap_swap_tokens",
	mcp.WithDescription(
		"Swap tokens through Uniswap using the connected wallet. "+
			"Quotes the trade, signs any required permit, submits the transaction, "+
			"and waits for confirmation. Returns the transaction hash."),
	mcp.WithString("tokenIn",
		mcp.Required(),
		mcp.Description("Address of the token to sell")),
	mcp.WithString("tokenOut",
		mcp.Required(),
		mcp.Description("Address of the token to buy")),
	mcp.WithString("amount",
		mcp.Required(),
		mcp.Description("Trade amount in base units of the input token")),
	mcp.WithString("type",
		mcp.Description("EXACT_INPUT (default) or EXACT_OUTPUT"),
		mcp.Enum(string(SwapTypeExactInput), string(SwapTypeExactOutput))),
)

// Tools returns the plugin's MCP tools bound to the service.
func (s *Service) Tools() []mcpserver.ServerTool {
	return []mcpserver.ServerTool{
		{Tool: toolCheckApproval, Handler: s.handleCheckApproval},
		{Tool: toolGetQuote, Handler: s.handleGetQuote},
		{Tool: toolSwapTokens, Handler: s.handleSwapTokens},
	}
}

func (s *Service) handleCheckApproval(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	token, _ := args["token"].(string)
	amount, _ := args["amount"].(string)

	result, err := s.CheckApproval(ctx, ApprovalRequest{Token: token, Amount: amount})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Service) handleGetQuote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	quote, err := s.GetQuote(ctx, quoteRequestFromArgs(req.GetArguments()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(quote)
}

func (s *Service) handleSwapTokens(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.Swap(ctx, quoteRequestFromArgs(req.GetArguments()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func quoteRequestFromArgs(args map[string]any) QuoteRequest {
	tokenIn, _ := args["tokenIn"].(string)
	tokenOut, _ := args["tokenOut"].(string)
	amount, _ := args["amount"].(string)
	swapType, _ := args["type"].(string)
	return QuoteRequest{TokenIn: tokenIn, TokenOut: tokenOut, Amount: amount, Type: SwapType(swapType)}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
