// Package mcp exposes wallet and DEX operations as MCP tools so agent
// frameworks can drive them.
package mcp

import (
	"net/http"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Server wraps an MCP server and registers wallet tools on it.
type Server struct {
	mcpServer *mcpserver.MCPServer
	log       *zap.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger attaches a logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

// NewServer creates an MCP tool server.
func NewServer(name, version string, opts ...ServerOption) *Server {
	s := &Server{
		mcpServer: mcpserver.NewMCPServer(name, version),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTool registers a single tool.
func (s *Server) AddTool(tool mcpproto.Tool, handler mcpserver.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
}

// AddTools registers a batch of tools, typically a plugin's Tools().
func (s *Server) AddTools(tools ...mcpserver.ServerTool) {
	for _, t := range tools {
		s.mcpServer.AddTool(t.Tool, t.Handler)
	}
}

// Handler returns the streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcpServer)
}

// Start serves the MCP endpoint on addr. It blocks until the listener
// fails.
func (s *Server) Start(addr string) error {
	s.log.Info("starting MCP server", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

// MCPServer returns the underlying server for advanced usage.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}
