// Package mcpserver exposes the tool registry over the Model Context Protocol,
// either on stdio or as a streamable HTTP endpoint.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/ehr/hospitalcrm/internal/platform/auth"
	"github.com/ehr/hospitalcrm/internal/platform/dispatch"
)

const (
	ServerName    = "hospital-crm"
	ServerVersion = "1.0.0"

	SummaryURI = "hospitalcrm://summary"
)

const instructions = `Read and update the hospital CRM. Read tools never change data.
Errors come back as {kind, argument, message, constraint, retryable}; only
connectivity errors are worth retrying.`

type Server struct {
	registry *dispatch.Registry
	schema   string
	logger   zerolog.Logger
	now      func() time.Time
}

func New(registry *dispatch.Registry, schema string, logger zerolog.Logger) *Server {
	return &Server{
		registry: registry,
		schema:   schema,
		logger:   logger.With().Str("component", "mcp").Logger(),
		now:      time.Now,
	}
}

// MCP builds a protocol server with every registered tool and the summary
// resource. Over HTTP one instance is shared by every transport session.
func (s *Server) MCP() *mcp.Server {
	srv := mcp.NewServer(
		&mcp.Implementation{Name: ServerName, Version: ServerVersion},
		&mcp.ServerOptions{Instructions: instructions},
	)
	for _, t := range s.registry.Tools() {
		srv.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema(),
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   t.ReadOnly,
				IdempotentHint: t.ReadOnly,
			},
		}, s.toolHandler(t.Name))
	}
	srv.AddResource(&mcp.Resource{
		URI:         SummaryURI,
		Name:        "summary",
		MIMEType:    "text/plain",
		Description: "Schema name, server time and the available tools",
	}, s.readSummary)
	return srv
}

func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if req.Extra != nil {
			if p := auth.PrincipalFromTokenInfo(req.Extra.TokenInfo); p != nil {
				ctx = auth.WithPrincipal(ctx, p)
			}
		}
		var raw json.RawMessage
		if req.Params != nil {
			raw = req.Params.Arguments
		}

		out, err := s.registry.Call(ctx, name, raw)
		if err != nil {
			return errorResult(dispatch.NewErrorResult(err)), nil
		}
		return s.successResult(name, out), nil
	}
}

func (s *Server) successResult(name string, out any) *mcp.CallToolResult {
	body, err := json.Marshal(out)
	if err != nil {
		s.logger.Error().Err(err).Str("tool", name).Msg("encode tool result")
		return errorResult(dispatch.NewErrorResult(err))
	}
	res := &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(body)}}}
	// structured content must be an object
	if len(body) > 0 && body[0] == '{' {
		res.StructuredContent = json.RawMessage(body)
	}
	return res
}

func errorResult(e dispatch.ErrorResult) *mcp.CallToolResult {
	body, _ := json.Marshal(e)
	return &mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: string(body)}},
		StructuredContent: json.RawMessage(body),
	}
}

func (s *Server) readSummary(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if req.Params == nil || req.Params.URI != SummaryURI {
		uri := ""
		if req.Params != nil {
			uri = req.Params.URI
		}
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
		URI:      SummaryURI,
		MIMEType: "text/plain",
		Text:     s.Summary(),
	}}}, nil
}

// Summary describes the server for clients that read resources before
// listing tools.
func (s *Server) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hospital CRM on schema %q\n", s.schema)
	fmt.Fprintf(&b, "Server time: %s\n", s.now().UTC().Format(time.RFC3339))
	b.WriteString("Tools:\n")
	for _, t := range s.registry.Tools() {
		mode := "write"
		if t.ReadOnly {
			mode = "read"
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", t.Name, mode, t.Description)
	}
	return b.String()
}

// RunStdio serves a single session on stdin/stdout until ctx is cancelled
// or the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info().Str("transport", "stdio").Msg("serving MCP")
	err := s.MCP().Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}
