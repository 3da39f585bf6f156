package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/DanielT/a2ltool/internal/finder"
)

// listGlobalsHandler returns a handler for the list_globals tool. It lists
// every global symbol in the loaded Symbol Graph, optionally filtered by a
// name prefix.
func listGlobalsHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prefix := req.GetString("prefix", "")
		return jsonResult(f.ListGlobals(prefix))
	}
}

// findSymbolHandler returns a handler for the find_symbol tool. It searches
// global symbol names under an exact/prefix/contains match mode.
func findSymbolHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return nil, err
		}
		mode := finder.MatchMode(req.GetString("match", string(finder.MatchExact)))
		return jsonResult(f.FindSymbol(name, mode))
	}
}

// describeTypeHandler returns a handler for the describe_type tool. It
// returns the full shape (members, dimensions, enumerators) of the named
// global's declared type.
func describeTypeHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("global")
		if err != nil {
			return nil, err
		}
		desc, err := f.DescribeGlobalType(name)
		if err != nil {
			return nil, err
		}
		return jsonResult(desc)
	}
}

// resolvePathHandler returns a handler for the resolve_path tool. It walks
// a dotted/indexed A2L-style path (e.g. "EngineMap.value[2][1]") against
// the Symbol Graph and returns the resolved address, type, and bit mask.
func resolvePathHandler(f *finder.Finder) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return nil, err
		}
		ref, err := f.ResolvePath(path)
		if err != nil {
			return nil, err
		}
		return jsonResult(ref)
	}
}
