// Package mcpserver exposes every catalogued node as a Model Context
// Protocol tool.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/petrijr/nodeflux/pkg/api"
)

// Server wraps the MCP SDK server. Tools are registered from the
// dispatcher's listing at construction time.
type Server struct {
	MCPServer *sdkmcp.Server

	dispatcher api.Dispatcher
	logger     *slog.Logger
	tools      []string
}

// NewServer creates an MCP server with one tool per dispatchable node.
// Nodes whose metadata cannot be derived are skipped and logged.
func NewServer(ctx context.Context, d api.Dispatcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		MCPServer: sdkmcp.NewServer(
			&sdkmcp.Implementation{Name: "nodeflux", Version: version},
			nil,
		),
		dispatcher: d,
		logger:     logger,
	}
	s.registerTools(ctx)
	return s
}

func (s *Server) registerTools(ctx context.Context) {
	for _, info := range s.dispatcher.ListNodes(ctx) {
		if info.Error != "" || info.Inputs == nil {
			s.logger.WarnContext(ctx, "node not exposed as tool",
				slog.String("node", info.ID),
				slog.String("error", info.Error),
			)
			continue
		}
		s.MCPServer.AddTool(&sdkmcp.Tool{
			Name:        info.ID,
			Title:       info.Name,
			Description: info.Description,
			InputSchema: info.Inputs,
		}, s.handler(info.ID))
		s.tools = append(s.tools, info.ID)
	}
}

// Tools lists the registered tool names in catalogue order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

func (s *Server) handler(nodeID string) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var raw json.RawMessage
		if req.Params != nil {
			raw = req.Params.Arguments
		}
		payload, err := decodeArguments(raw)
		if err != nil {
			return envelopeResult(api.NewFailureResult(api.StageValidationFailed, err.Error()))
		}
		return envelopeResult(s.dispatcher.Execute(ctx, nodeID, payload))
	}
}

// Run serves MCP over stdin/stdout until ctx is done or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	payload := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return payload, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func envelopeResult(res api.Result) (*sdkmcp.CallToolResult, error) {
	text, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(text)}},
		IsError: !res.Success,
	}, nil
}
