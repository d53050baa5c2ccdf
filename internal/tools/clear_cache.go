package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fabioferrero/product-grid-mcp/internal/cache"
	"github.com/fabioferrero/product-grid-mcp/internal/logger"
)

// ClearCacheHandler returns the MCP tool handler for "clear-product-cache":
// the admin bulk invalidation across every pipeline namespace.
func ClearCacheHandler(kv cache.KV) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := cache.ClearAll(kv)
		if err != nil {
			logger.Errorf("clear cache: removed %d entries before error: %v", n, err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		logger.Infof("clear cache: removed %d entries", n)
		return mcp.NewToolResultText(fmt.Sprintf("cleared %d cached entries", n)), nil
	}
}
