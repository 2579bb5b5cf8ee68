package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/perf-annotate/internal/loader"
	"github.com/perf-annotate/internal/source"
	"github.com/perf-annotate/pkg/model"
)

func eventArg() mcp.ToolOption {
	return mcp.WithString("event",
		mcp.Description("Event to query (default: the selected event)"),
	)
}

func formatArg() mcp.ToolOption {
	return mcp.WithString("format",
		mcp.Description("Output format"),
		mcp.Enum("text", "json"),
	)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("load_profile",
		mcp.WithDescription("Load one or more profiles, replacing the loaded ones. Each input is a path, a cos:// key, or event=path."),
		mcp.WithArray("inputs",
			mcp.Required(),
			mcp.Description("Profile inputs"),
			mcp.WithStringItems(),
		),
	), s.handleLoadProfile)

	s.mcp.AddTool(mcp.NewTool("list_events",
		mcp.WithDescription("List the loaded events and the selected one"),
	), s.handleListEvents)

	s.mcp.AddTool(mcp.NewTool("select_event",
		mcp.WithDescription("Select the event queried when none is named"),
		mcp.WithString("event", mcp.Required(), mcp.Description("A loaded event")),
	), s.handleSelectEvent)

	s.mcp.AddTool(mcp.NewTool("hottest_lines",
		mcp.WithDescription("Rank source lines by their own sample count"),
		eventArg(),
		formatArg(),
	), s.handleHottestLines)

	s.mcp.AddTool(mcp.NewTool("hottest_symbols",
		mcp.WithDescription("Rank functions by their own sample count"),
		eventArg(),
		formatArg(),
	), s.handleHottestSymbols)

	s.mcp.AddTool(mcp.NewTool("hottest_callers",
		mcp.WithDescription("Rank the call sites entering a region. Give begin and end for an explicit "+
			"line range, or line alone for the function enclosing that line."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Source file")),
		mcp.WithNumber("begin", mcp.Description("First line of the region")),
		mcp.WithNumber("end", mcp.Description("Last line of the region")),
		mcp.WithNumber("line", mcp.Description("A line inside the function whose callers are wanted")),
		eventArg(),
		formatArg(),
	), s.handleHottestCallers)
}

func (s *Server) handleLoadProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireStringSlice("inputs")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inputs := make([]loader.Input, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			inputs = append(inputs, loader.ParseInput(r))
		}
	}

	set, err := s.loader.Load(ctx, inputs...)
	if err != nil {
		return s.toolError("load_profile", err), nil
	}

	s.mu.Lock()
	s.session.Load(set)
	selected := s.session.SelectedEvent()
	s.mu.Unlock()

	return mcp.NewToolResultText(fmt.Sprintf("Loaded events: %s (selected: %s)",
		strings.Join(set.Events(), ", "), selected)), nil
}

func (s *Server) handleListEvents(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.session.Loaded() {
		return mcp.NewToolResultText("No profile loaded"), nil
	}
	var sb strings.Builder
	for _, event := range s.session.Events() {
		marker := " "
		if event == s.session.SelectedEvent() {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %s\n", marker, event)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleSelectEvent(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	event, err := req.RequireString("event")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.SelectEvent(event); err != nil {
		return s.toolError("select_event", err), nil
	}
	return mcp.NewToolResultText("Selected " + event), nil
}

func (s *Server) handleHottestLines(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.session.HottestLines(ctx, req.GetString("event", ""))
	if err != nil {
		return s.toolError("hottest_lines", err), nil
	}
	return s.render(ctx, res, req.GetString("format", ""))
}

func (s *Server) handleHottestSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.session.HottestSymbols(ctx, req.GetString("event", ""))
	if err != nil {
		return s.toolError("hottest_symbols", err), nil
	}
	return s.render(ctx, res, req.GetString("format", ""))
}

func (s *Server) handleHottestCallers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	event := req.GetString("event", "")
	begin := req.GetInt("begin", 0)
	end := req.GetInt("end", 0)
	line := req.GetInt("line", 0)

	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case begin > 0:
		if end <= 0 {
			end = begin
		}
		res, err := s.session.HottestCallersOfRegion(ctx, event, model.NewRegion(file, uint32(begin), uint32(end)))
		if err != nil {
			return s.toolError("hottest_callers", err), nil
		}
		return s.render(ctx, res, req.GetString("format", ""))
	case line > 0:
		res, err := s.session.HottestCallersOfEnclosingFunction(ctx, event, source.Cursor{File: file, Line: uint32(line)})
		if err != nil {
			return s.toolError("hottest_callers", err), nil
		}
		return s.render(ctx, res, req.GetString("format", ""))
	default:
		return mcp.NewToolResultError("either begin (with optional end) or line is required"), nil
	}
}
