// Package mcp exposes the assistant's tools, and optionally a full chat turn,
// over the Model Context Protocol on stdio.
package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hvga/hvga-og/internal/chat"
	"github.com/hvga/hvga-og/internal/tools"
)

// Version is set via ldflags at build time.
var Version = "dev"

// AskToolName is the MCP tool that runs a whole conversation turn.
const AskToolName = "ask_hvga_og"

// Server wraps an MCP server backed by the tool registry.
type Server struct {
	registry *tools.Registry
	chat     *chat.Engine
	mcp      *server.MCPServer
	tools    []mcp.Tool
}

// NewServer creates an MCP server exposing every registry tool. When engine
// is non-nil the ask_hvga_og tool is added too.
func NewServer(registry *tools.Registry, engine *chat.Engine) *Server {
	s := &Server{registry: registry, chat: engine}

	s.mcp = server.NewMCPServer(
		"hvga-og",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	if s.registry != nil {
		for _, t := range s.registry.Tools() {
			def := toolFor(t)
			s.tools = append(s.tools, def)
			s.mcp.AddTool(def, s.dispatchHandler(t.Name))
		}
	}
	if s.chat != nil {
		s.tools = append(s.tools, askTool)
		s.mcp.AddTool(askTool, s.handleAsk)
	}
}

// Tools returns the MCP descriptors in registration order.
func (s *Server) Tools() []mcp.Tool { return s.tools }

// Serve starts the MCP server on stdio. Stdout carries protocol messages, so
// all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

var askTool = mcp.NewTool(AskToolName,
	mcp.WithDescription("Ask HVGA OG a question about the Houston Vietnamese Golf Association. Runs a full assistant turn, including tool calls."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The question to ask"),
	),
	mcp.WithString("session_id",
		mcp.Description("Conversation id; reuse it to keep context between questions"),
	),
)

func toolFor(t tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
	for _, p := range t.Params {
		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}
		switch p.Type {
		case tools.TypeInteger, tools.TypeNumber:
			opts = append(opts, mcp.WithNumber(p.Name, popts...))
		case tools.TypeBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, popts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, popts...))
		}
	}
	return mcp.NewTool(t.Name, opts...)
}

func (s *Server) dispatchHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := s.registry.Dispatch(ctx, tools.Call{
			Name:      name,
			Arguments: request.GetArguments(),
		})
		var pe *tools.ParamError
		switch {
		case errors.As(err, &pe):
			return mcp.NewToolResultError(pe.Error()), nil
		case err != nil:
			return mcp.NewToolResultError(err.Error()), nil
		case res.Failed():
			return mcp.NewToolResultError(res.Error), nil
		}
		return mcp.NewToolResultText(res.Content()), nil
	}
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	reply, err := s.chat.Respond(ctx, chat.Turn{
		SessionID: request.GetString("session_id", ""),
		Message:   message,
	})
	if err != nil {
		return mcp.NewToolResultError("Failed to process request"), nil
	}
	return mcp.NewToolResultText(reply.Text), nil
}
