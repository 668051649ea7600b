package search

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude-mem/memoryd/internal/sanitize"
	"github.com/claude-mem/memoryd/internal/store"
)

const serverInstructions = "Persistent per-developer memory. Use search to recall past decisions, bugfixes, " +
	"and discoveries; timeline to see recent activity in order; decisions to review architectural " +
	"choices; find_by_file to recall what happened to a specific path."

// NewServer builds the stdio MCP server (§4.6) registering the four
// read-only tools against s. The mcp-go library owns JSON-RPC framing,
// the initialize/initialized handshake, and tools/list dispatch; this
// package only supplies tool schemas and handlers.
func NewServer(s *store.SQLiteStore) *server.MCPServer {
	srv := server.NewMCPServer(
		"claude-mem",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithInstructions(serverInstructions),
	)

	srv.AddTool(
		mcp.NewTool("search",
			mcp.WithDescription("Search persistent memory by lexical query, across observations or summaries."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
			mcp.WithString("type", mcp.Description("observations (default) or summaries")),
			mcp.WithString("project", mcp.Description("Filter by project name")),
			mcp.WithNumber("limit", mcp.Description("Max results (default 10, max 100)")),
		),
		handleSearch(s),
	)

	srv.AddTool(
		mcp.NewTool("timeline",
			mcp.WithDescription("Merge recent observations and summaries, most recent first."),
			mcp.WithString("project", mcp.Description("Filter by project name")),
			mcp.WithNumber("limit", mcp.Description("Max entries (default 10, max 100)")),
		),
		handleTimeline(s),
	)

	srv.AddTool(
		mcp.NewTool("decisions",
			mcp.WithDescription("Recent observations of kind decision."),
			mcp.WithString("project", mcp.Description("Filter by project name")),
			mcp.WithNumber("limit", mcp.Description("Max results (default 10, max 100)")),
		),
		handleDecisions(s),
	)

	srv.AddTool(
		mcp.NewTool("find_by_file",
			mcp.WithDescription("Find observations whose filesRead or filesModified contain this path as a substring."),
			mcp.WithString("file", mcp.Required(), mcp.Description("Path or path fragment")),
			mcp.WithNumber("limit", mcp.Description("Max results (default 10, max 100)")),
		),
		handleFindByFile(s),
	)

	return srv
}

// Serve runs the MCP server on stdio until stdin closes or the process is
// otherwise terminated.
func Serve(srv *server.MCPServer) error {
	return server.ServeStdio(srv)
}

func handleSearch(s *store.SQLiteStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := stringArg(req, "query")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		a := searchArgs{
			query:   query,
			kind:    stringArg(req, "type"),
			project: sanitize.SanitizeString(stringArg(req, "project"), sanitize.MaxStringLength),
			limit:   limitArg(req, "limit"),
		}
		text, err := runSearch(s, a)
		if err != nil {
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func handleTimeline(s *store.SQLiteStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		project := sanitize.SanitizeString(stringArg(req, "project"), sanitize.MaxStringLength)
		text, err := runTimeline(s, project, limitArg(req, "limit"))
		if err != nil {
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func handleDecisions(s *store.SQLiteStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		project := sanitize.SanitizeString(stringArg(req, "project"), sanitize.MaxStringLength)
		text, err := runDecisions(s, project, limitArg(req, "limit"))
		if err != nil {
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func handleFindByFile(s *store.SQLiteStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		file := stringArg(req, "file")
		if file == "" {
			return mcp.NewToolResultError("file is required"), nil
		}
		text, err := runFindByFile(s, sanitize.SanitizeString(file, sanitize.MaxStringLength), limitArg(req, "limit"))
		if err != nil {
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func stringArg(req mcp.CallToolRequest, key string) string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return ""
	}
	return v
}

// limitArg applies the spec's limit sanitization: reject non-finite,
// floor, clamp to [MinLimit, MaxLimit], default DefaultLimit.
func limitArg(req mcp.CallToolRequest, key string) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return sanitize.DefaultLimit
	}
	return sanitize.ClampLimit(v)
}
