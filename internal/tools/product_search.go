package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fabioferrero/product-grid-mcp/internal/paapi"
)

// ProductSearchHandler returns the MCP tool handler for "product-search":
// keyword search against the catalog, cached like everything else.
func ProductSearchHandler(searcher *paapi.Searcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		keywords, err := req.RequireString("keywords")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		products, err := searcher.Search(ctx, keywords, 10)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		b, err := json.Marshal(products)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(b)), nil
	}
}
