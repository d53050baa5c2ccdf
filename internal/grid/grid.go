// Package grid orchestrates the link-to-product pipeline: extract short
// links, resolve them to ASINs, and fetch catalog records through the cache
// and retry layers.
package grid

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fabioferrero/product-grid-mcp/internal/cache"
	"github.com/fabioferrero/product-grid-mcp/internal/links"
	"github.com/fabioferrero/product-grid-mcp/internal/logger"
	"github.com/fabioferrero/product-grid-mcp/internal/paapi"
)

// LinkResolver turns a short link into an ASIN.
type LinkResolver interface {
	Resolve(ctx context.Context, link string) (string, error)
}

// ProductFetcher obtains a record for an ASIN, tagged with how good it is.
type ProductFetcher interface {
	Fetch(ctx context.Context, asin string) (paapi.Product, paapi.Outcome, error)
}

// Grid owns the per-batch pipeline. It never bypasses the cache: every
// resolution goes through the url namespace and every record through the
// product namespace.
type Grid struct {
	extractor *links.Extractor
	resolver  LinkResolver
	fetcher   ProductFetcher
	cache     cache.KV
	ttl       time.Duration
}

func New(extractor *links.Extractor, resolver LinkResolver, fetcher ProductFetcher, kv cache.KV, ttl time.Duration) *Grid {
	return &Grid{
		extractor: extractor,
		resolver:  resolver,
		fetcher:   fetcher,
		cache:     kv,
		ttl:       ttl,
	}
}

// FromText extracts short links from article content and processes them.
// Content without links yields an empty batch, not an error.
func (g *Grid) FromText(ctx context.Context, content string) []paapi.Product {
	return g.ProcessBatch(ctx, g.extractor.Extract(content))
}

// ProcessBatch resolves and fetches each link in input order. Duplicates
// collapse to one. A link that cannot be resolved or fetched contributes no
// record and never aborts the rest of the batch, so the output may be
// shorter than the input; relative order of surviving links is preserved.
func (g *Grid) ProcessBatch(ctx context.Context, batch []string) []paapi.Product {
	out := make([]paapi.Product, 0, len(batch))
	seen := make(map[string]struct{}, len(batch))

	for _, link := range batch {
		link = links.Normalize(link)
		if _, dup := seen[link]; dup || link == "" {
			continue
		}
		seen[link] = struct{}{}

		asin, err := g.resolver.Resolve(ctx, link)
		if err != nil {
			logger.Warnf("grid: dropping %s: %v", link, err)
			continue
		}

		key := cache.NamespaceProduct + asin
		if v, err := g.cache.Get(key); err == nil {
			var p paapi.Product
			if json.Unmarshal(v, &p) == nil {
				out = append(out, p)
				continue
			}
		}

		p, outcome, err := g.fetcher.Fetch(ctx, asin)
		if err != nil {
			logger.Warnf("grid: no record for %s: %v", asin, err)
			continue
		}
		if outcome == paapi.OutcomeLive {
			// Placeholders are never written through: a degraded record
			// should be retried by the next batch, not pinned for a TTL.
			if b, err := json.Marshal(p); err == nil {
				_ = g.cache.Put(key, b, g.ttl)
			}
		} else {
			logger.Warnf("grid: degraded record for %s", asin)
		}
		out = append(out, p)
	}
	return out
}
