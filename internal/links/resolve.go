package links

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/fabioferrero/product-grid-mcp/internal/cache"
)

const resolveTimeout = 30 * time.Second

// ErrNoMatch means the redirect chain ended somewhere without a product id.
// Callers drop the link silently; it is not surfaced to the end consumer.
var ErrNoMatch = errors.New("links: no product id in destination url")

// asinRe matches /dp/<ASIN> in a canonical product URL. The id format is
// fixed and narrow: exactly 10 alphanumerics followed by a path/query
// boundary or the end of the URL.
var asinRe = regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})(?:[/?]|$)`)

// Resolver follows short-link redirects to canonical product URLs and
// extracts the ASIN. Resolutions are cached so repeat lookups within the TTL
// window make no network calls.
type Resolver struct {
	base  *colly.Collector
	cache cache.KV
	ttl   time.Duration
}

func NewResolver(kv cache.KV, ttl time.Duration) *Resolver {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.Async(false),
		colly.IgnoreRobotsTxt(),
	)
	// The net/http transport underneath follows up to 10 redirect hops,
	// verifying TLS certificates along the way.
	c.SetRequestTimeout(resolveTimeout)
	return &Resolver{base: c, cache: kv, ttl: ttl}
}

func (r *Resolver) cacheKey(link string) string {
	sum := md5.Sum([]byte(link))
	return cache.NamespaceURL + hex.EncodeToString(sum[:])
}

// Resolve returns the ASIN behind a short link. Network failures, timeouts
// and destinations without a product id all yield an error; a cached hit
// returns immediately.
func (r *Resolver) Resolve(ctx context.Context, link string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	link = Normalize(link)
	key := r.cacheKey(link)
	if v, err := r.cache.Get(key); err == nil {
		return string(v), nil
	}

	// Clone drops callbacks, so each resolution gets its own handlers and
	// concurrent resolutions cannot see each other's final URL.
	c := r.base.Clone()
	c.Context = ctx
	c.OnRequest(func(req *colly.Request) {
		req.Headers.Set("User-Agent", NextUserAgent())
		req.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	var finalURL string
	c.OnResponse(func(resp *colly.Response) {
		finalURL = resp.Request.URL.String()
	})

	if err := c.Visit(link); err != nil {
		return "", fmt.Errorf("links: resolving %s: %w", link, err)
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	m := asinRe.FindStringSubmatch(finalURL)
	if m == nil {
		return "", ErrNoMatch
	}
	asin := strings.ToUpper(m[1])
	_ = r.cache.Put(key, []byte(asin), r.ttl)
	return asin, nil
}
