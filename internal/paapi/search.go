package paapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fabioferrero/product-grid-mcp/internal/cache"
)

// Searcher caches keyword searches in front of Client.SearchItems.
type Searcher struct {
	client *Client
	cache  cache.KV
	ttl    time.Duration
}

func NewSearcher(client *Client, kv cache.KV, ttl time.Duration) *Searcher {
	return &Searcher{client: client, cache: kv, ttl: ttl}
}

func (s *Searcher) cacheKey(keywords string) string {
	return cache.NamespaceSearch + strings.ToLower(strings.Join(strings.Fields(keywords), " "))
}

func (s *Searcher) Search(ctx context.Context, keywords string, count int) ([]Product, error) {
	q := strings.TrimSpace(keywords)
	if q == "" {
		return nil, fmt.Errorf("paapi: empty search keywords")
	}

	key := s.cacheKey(q)
	if v, err := s.cache.Get(key); err == nil {
		var cached []Product
		if json.Unmarshal(v, &cached) == nil {
			return cached, nil
		}
	}

	products, err := s.client.SearchItems(ctx, q, count)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(products); err == nil {
		_ = s.cache.Put(key, b, s.ttl)
	}
	return products, nil
}
