// Package mcpserver exposes the hotspot queries as Model Context Protocol
// tools, so an editor agent can load profiles and ask for hot lines, symbols
// and callers over stdio.
package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/perf-annotate/internal/loader"
	"github.com/perf-annotate/internal/presenter"
	"github.com/perf-annotate/internal/query"
	apperrors "github.com/perf-annotate/pkg/errors"
	"github.com/perf-annotate/pkg/utils"
)

// Name is the server name announced to clients.
const Name = "perf-annotate"

// Server serves one query session to MCP clients. Tool calls may arrive
// concurrently: queries share the session, loads replace it exclusively.
type Server struct {
	mu      sync.RWMutex
	session *query.Session
	loader  *loader.Loader
	logger  utils.Logger
	mcp     *server.MCPServer
}

// New creates a server answering from session and loading through l.
func New(session *query.Session, l *loader.Loader, logger utils.Logger, version string) *Server {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	s := &Server{
		session: session,
		loader:  l,
		logger:  logger,
		mcp: server.NewMCPServer(Name, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
			server.WithLogging(),
		),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves requests on stdin and stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// render writes a query result as text or JSON.
func (s *Server) render(ctx context.Context, res query.Result, format string) (*mcp.CallToolResult, error) {
	var (
		buf bytes.Buffer
		p   presenter.Presenter
	)
	switch strings.ToLower(format) {
	case "", "text":
		p = presenter.NewTextPresenter(&buf)
	case "json":
		p = presenter.NewJSONPresenter(&buf, true)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown output format %q (want text or json)", format)), nil
	}
	if err := p.Present(ctx, s.session.Table(res), nil); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// toolError turns a query failure into a tool-level error the agent can act on.
// Precondition failures carry a hint.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.WithFields(map[string]interface{}{
		"tool": tool,
		"code": apperrors.GetErrorCode(err),
	}).Warn("tool call failed: %v", err)

	msg := err.Error()
	switch {
	case apperrors.IsUnloaded(err):
		msg += ". Use load_profile first"
	case apperrors.IsInvalidEvent(err):
		msg += ". Use list_events to see loaded events"
	}
	return mcp.NewToolResultError(msg)
}
