package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielT/a2ltool/internal/finder"
	"github.com/DanielT/a2ltool/internal/symgraph"
)

func buildTestFinder(t *testing.T) *finder.Finder {
	t.Helper()
	g := symgraph.New()
	u32 := g.AddType(symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 4})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "engineSpeed", Address: 0x1000, TypeId: u32, Section: ".data", Kind: symgraph.KindVariable})
	return finder.New(g)
}

func callToolRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func TestListGlobalsHandlerReturnsAll(t *testing.T) {
	h := listGlobalsHandler(buildTestFinder(t))
	res, err := h(context.Background(), callToolRequest(nil))
	require.NoError(t, err)
	require.NotNil(t, res)
}

func TestFindSymbolHandlerRequiresName(t *testing.T) {
	h := findSymbolHandler(buildTestFinder(t))
	_, err := h(context.Background(), callToolRequest(nil))
	assert.Error(t, err)
}

func TestFindSymbolHandlerExactMatch(t *testing.T) {
	h := findSymbolHandler(buildTestFinder(t))
	_, err := h(context.Background(), callToolRequest(map[string]any{"name": "engineSpeed"}))
	assert.NoError(t, err)
}

func TestDescribeTypeHandlerUnknownGlobal(t *testing.T) {
	h := describeTypeHandler(buildTestFinder(t))
	_, err := h(context.Background(), callToolRequest(map[string]any{"global": "noSuchGlobal"}))
	assert.Error(t, err)
}

func TestResolvePathHandlerRequiresPath(t *testing.T) {
	h := resolvePathHandler(buildTestFinder(t))
	_, err := h(context.Background(), callToolRequest(nil))
	assert.Error(t, err)
}

func TestResolvePathHandlerResolvesScalar(t *testing.T) {
	h := resolvePathHandler(buildTestFinder(t))
	_, err := h(context.Background(), callToolRequest(map[string]any{"path": "engineSpeed"}))
	assert.NoError(t, err)
}
