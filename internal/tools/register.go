package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/DanielT/a2ltool/internal/finder"
)

// Register wires every Symbol Graph query tool to s. Each tool delegates
// to f, a read-only view over the binary's loaded Symbol Graph.
func Register(s *server.MCPServer, f *finder.Finder) {
	s.AddTool(mcp.NewTool("list_globals",
		mcp.WithDescription("Lists all global symbols in the loaded binary's debug info."),
		mcp.WithString("prefix", mcp.Description("Optional name prefix filter")),
	), listGlobalsHandler(f))

	s.AddTool(mcp.NewTool("find_symbol",
		mcp.WithDescription("Searches for a global symbol by name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Symbol name to search for")),
		mcp.WithString("match", mcp.Description(`Match mode: "exact" (default), "prefix", or "contains"`)),
	), findSymbolHandler(f))

	s.AddTool(mcp.NewTool("describe_type",
		mcp.WithDescription("Returns the full type shape (members, dimensions, enumerators) of a global's declared type."),
		mcp.WithString("global", mcp.Required(), mcp.Description("Name of the global symbol whose type to describe")),
	), describeTypeHandler(f))

	s.AddTool(mcp.NewTool("resolve_path",
		mcp.WithDescription("Resolves a dotted/indexed variable path (e.g. \"EngineMap.value[2][1]\") to its address, type, and bit mask."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to resolve, rooted at a global symbol name")),
	), resolvePathHandler(f))
}
