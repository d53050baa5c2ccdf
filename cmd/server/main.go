package main

import (
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/redis/go-redis/v9"

	"github.com/fabioferrero/product-grid-mcp/internal/cache"
	"github.com/fabioferrero/product-grid-mcp/internal/config"
	"github.com/fabioferrero/product-grid-mcp/internal/grid"
	"github.com/fabioferrero/product-grid-mcp/internal/links"
	"github.com/fabioferrero/product-grid-mcp/internal/logger"
	"github.com/fabioferrero/product-grid-mcp/internal/paapi"
	"github.com/fabioferrero/product-grid-mcp/internal/tools"
)

func main() {
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Infof("Starting product-grid MCP server")

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Errorf("config: %v", err)
		panic(err)
	}
	if !cfg.HasCredentials() {
		logger.Warnf("PA-API credentials missing; serving placeholder records")
	}

	kv := openCache(cfg)

	resolver := links.NewResolver(kv, cfg.CacheTTL)
	client := paapi.NewClient(cfg)

	// Retrying an unconfigured client is pointless: every attempt returns
	// the same deterministic placeholder.
	attempts := cfg.MaxAttempts
	if !cfg.HasCredentials() {
		attempts = 1
	}
	retrier := paapi.NewRetrier(client, attempts)

	g := grid.New(links.NewExtractor(cfg.ShortLinkHost), resolver, retrier, kv, cfg.CacheTTL)
	searcher := paapi.NewSearcher(client, kv, cfg.CacheTTL)

	s := server.NewMCPServer(
		"Product Grid MCP",
		"1.0.0",
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)

	toolGrid := mcp.NewTool("product-grid",
		mcp.WithDescription(multiline(
			"Extracts Amazon short links from article text and returns product records",
			"\nFunctionality:",
			"- Scans the text for https://"+cfg.ShortLinkHost+"/ short links (plain text or HTML)",
			"- Resolves each link through its redirect chain to a product id",
			"- Fetches title, image and purchase URL from the Product Advertising API",
			"- Returns a JSON array of {title, image, url} objects in link order",
			"\nUsage notes:",
			"- Links that cannot be resolved are silently omitted from the result",
			"- Resolutions and records are cached; repeated calls are cheap",
			"- Without configured API credentials, deterministic placeholder records are returned",
		)),
		mcp.WithString("text", mcp.Required(), mcp.Description("The article text to scan for product links")),
	)
	s.AddTool(toolGrid, tools.ProductGridHandler(g))

	toolSearch := mcp.NewTool("product-search",
		mcp.WithDescription(multiline(
			"Searches the Amazon catalog by keywords and returns product records",
			"\nFunctionality:",
			"- Runs a Product Advertising API keyword search on the configured marketplace",
			"- Returns a JSON array of {title, image, url} objects",
			"\nUsage notes:",
			"- Requires configured API credentials",
			"- Results are cached per normalized query",
		)),
		mcp.WithString("keywords", mcp.Required(), mcp.Description("The search keywords")),
	)
	s.AddTool(toolSearch, tools.ProductSearchHandler(searcher))

	toolClear := mcp.NewTool("clear-product-cache",
		mcp.WithDescription(multiline(
			"Clears every cached link resolution, product record and search result",
			"\nUsage notes:",
			"- Reports the number of entries removed",
			"- Use after changing credentials or to force fresh catalog data",
		)),
	)
	s.AddTool(toolClear, tools.ClearCacheHandler(kv))

	logger.Infof("Starting MCP server on stdio")
	if err := server.ServeStdio(s); err != nil {
		logger.Errorf("server error: %v", err)
	}
}

// openCache picks the cache backend: Redis when configured, otherwise the
// Unix-socket daemon (spawned on demand).
func openCache(cfg config.Config) cache.KV {
	if cfg.RedisAddr != "" {
		logger.Infof("Using Redis cache at %s", cfg.RedisAddr)
		return cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	sock := defaultSocketPath()
	logger.Infof("Attempting to connect to cache daemon at %s", sock)
	client, err := connectCache(sock)
	if err == nil {
		logger.Infof("Connected to cache daemon")
		return client
	}

	logger.Warnf("Failed to connect to cache daemon: %v, attempting to start daemon", err)
	if startErr := startCacheDaemon(); startErr != nil {
		logger.Errorf("Failed to start cache daemon: %v", startErr)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c2, err2 := connectCache(sock); err2 == nil {
			logger.Infof("Connected to cache daemon after startup")
			return c2
		}
		time.Sleep(200 * time.Millisecond)
	}
	logger.Errorf("Failed to connect to cache daemon after startup attempt: %v", err)
	panic(err)
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }

func defaultSocketPath() string {
	if s := os.Getenv("PRODUCT_GRID_CACHE_SOCK"); s != "" {
		return s
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "product-grid-mcp", "cache.sock")
}

func connectCache(sock string) (cache.KV, error) {
	// quick probe
	conn, err := net.DialTimeout("unix", sock, 200*time.Millisecond)
	if err != nil {
		return nil, err
	}
	_ = conn.Close()
	return cache.NewClient(sock), nil
}

func startCacheDaemon() error {
	// 1) Try cache binary next to this server executable
	if exePath, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exePath), "product-grid-cache")
		if _, statErr := os.Stat(sibling); statErr == nil {
			cmd := exec.Command(sibling)
			cmd.Env = os.Environ()
			return cmd.Start()
		}
	}

	// 2) Try PATH binary
	if path, err := exec.LookPath("product-grid-cache"); err == nil {
		cmd := exec.Command(path)
		cmd.Env = os.Environ()
		return cmd.Start()
	}

	// 3) Try local binary in current working directory (best-effort)
	if _, err := os.Stat("./product-grid-cache"); err == nil {
		cmd := exec.Command("./product-grid-cache")
		cmd.Env = os.Environ()
		return cmd.Start()
	}

	return exec.ErrNotFound
}
