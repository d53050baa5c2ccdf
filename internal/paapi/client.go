package paapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fabioferrero/product-grid-mcp/internal/config"
)

const (
	pathGetItems    = "/paapi5/getitems"
	pathSearchItems = "/paapi5/searchitems"

	targetGetItems    = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems"
	targetSearchItems = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems"

	requestTimeout = 15 * time.Second
	maxTitleLen    = 50
)

var itemResources = []string{
	"Images.Primary.Medium",
	"ItemInfo.Title",
	"Offers.Listings.Price",
}

// Client issues signed PA-API requests. It never reads or writes the cache;
// that is the caller's responsibility.
type Client struct {
	cfg  config.Config
	http *http.Client

	// apiHost goes into the signed host header; endpoint is where requests
	// are actually sent. They only differ under test.
	apiHost  string
	endpoint string

	now func() time.Time
}

func NewClient(cfg config.Config) *Client {
	host := "webservices.amazon." + cfg.Marketplace.CountryCode
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: requestTimeout},
		apiHost:  host,
		endpoint: "https://" + host,
		now:      time.Now,
	}
}

type getItemsRequest struct {
	ItemIds     []string `json:"ItemIds"`
	Resources   []string `json:"Resources"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
}

type searchItemsRequest struct {
	Keywords    string   `json:"Keywords"`
	Resources   []string `json:"Resources"`
	ItemCount   int      `json:"ItemCount"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
}

type apiItem struct {
	ASIN     string `json:"ASIN"`
	ItemInfo struct {
		Title struct {
			DisplayValue string `json:"DisplayValue"`
		} `json:"Title"`
	} `json:"ItemInfo"`
	Images struct {
		Primary struct {
			Medium struct {
				URL string `json:"URL"`
			} `json:"Medium"`
		} `json:"Primary"`
	} `json:"Images"`
}

type getItemsResponse struct {
	ItemsResult struct {
		Items []apiItem `json:"Items"`
	} `json:"ItemsResult"`
}

type searchItemsResponse struct {
	SearchResult struct {
		Items []apiItem `json:"Items"`
	} `json:"SearchResult"`
}

// GetItem fetches the product record for an ASIN.
//
// Missing credentials short-circuit to the placeholder record without any
// network traffic: an unconfigured install is a valid state, not an error.
// A reachable but unhelpful API (non-200, missing item, malformed body)
// degrades to the same placeholder. Only a transport failure returns an
// error, so the retry controller can tell "no record at all" apart from a
// degraded record.
func (c *Client) GetItem(ctx context.Context, asin string) (Product, error) {
	if !c.cfg.HasCredentials() {
		return Placeholder(asin, c.cfg.Marketplace.Host, c.cfg.PartnerTag), nil
	}

	payload, err := json.Marshal(getItemsRequest{
		ItemIds:     []string{asin},
		Resources:   itemResources,
		PartnerTag:  c.cfg.PartnerTag,
		PartnerType: "Associates",
		Marketplace: c.cfg.Marketplace.Host,
	})
	if err != nil {
		return Product{}, fmt.Errorf("paapi: marshal getitems payload: %w", err)
	}

	body, status, err := c.post(ctx, pathGetItems, targetGetItems, payload)
	if err != nil {
		return Product{}, err
	}
	if status != http.StatusOK {
		return Placeholder(asin, c.cfg.Marketplace.Host, c.cfg.PartnerTag), nil
	}

	var parsed getItemsResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.ItemsResult.Items) == 0 {
		return Placeholder(asin, c.cfg.Marketplace.Host, c.cfg.PartnerTag), nil
	}
	return c.toProduct(asin, parsed.ItemsResult.Items[0]), nil
}

// SearchItems queries the catalog by keywords and returns up to count
// normalized records. Unlike GetItem there is no placeholder fallback:
// search is an explicit feature that needs working credentials.
func (c *Client) SearchItems(ctx context.Context, keywords string, count int) ([]Product, error) {
	if !c.cfg.HasCredentials() {
		return nil, fmt.Errorf("paapi: search requires credentials")
	}
	if count <= 0 || count > 10 {
		count = 10
	}

	payload, err := json.Marshal(searchItemsRequest{
		Keywords:    keywords,
		Resources:   itemResources,
		ItemCount:   count,
		PartnerTag:  c.cfg.PartnerTag,
		PartnerType: "Associates",
		Marketplace: c.cfg.Marketplace.Host,
	})
	if err != nil {
		return nil, fmt.Errorf("paapi: marshal searchitems payload: %w", err)
	}

	body, status, err := c.post(ctx, pathSearchItems, targetSearchItems, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("paapi: searchitems status %d", status)
	}

	var parsed searchItemsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("paapi: decode searchitems response: %w", err)
	}
	products := make([]Product, 0, len(parsed.SearchResult.Items))
	for _, it := range parsed.SearchResult.Items {
		if it.ASIN == "" {
			continue
		}
		products = append(products, c.toProduct(it.ASIN, it))
	}
	return products, nil
}

func (c *Client) post(ctx context.Context, path, target string, payload []byte) ([]byte, int, error) {
	ts := c.now().UTC()
	in := SignInput{
		Method:    http.MethodPost,
		Path:      path,
		Host:      c.apiHost,
		Target:    target,
		Region:    c.cfg.Marketplace.Region,
		AmzDate:   ts.Format("20060102T150405Z"),
		DateStamp: ts.Format("20060102"),
		Payload:   payload,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("paapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Encoding", contentEncoding)
	req.Header.Set("X-Amz-Date", in.AmzDate)
	req.Header.Set("X-Amz-Target", target)
	req.Header.Set("Authorization", AuthorizationHeader(c.cfg.AccessKey, c.cfg.SecretKey, in))
	req.Header.Set("User-Agent", "product-grid-mcp/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("paapi: %s: %w", path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, 0, fmt.Errorf("paapi: read response: %w", err)
	}
	return buf.Bytes(), resp.StatusCode, nil
}

func (c *Client) toProduct(asin string, it apiItem) Product {
	title := it.ItemInfo.Title.DisplayValue
	if title == "" {
		title = "Product " + asin
	}
	image := it.Images.Primary.Medium.URL
	if image == "" {
		image = PlaceholderImage
	}
	return Product{
		Title: truncateTitle(title),
		Image: image,
		URL:   purchaseURL(c.cfg.Marketplace.Host, asin, c.cfg.PartnerTag),
	}
}

// truncateTitle caps titles at 50 characters, cutting to 47 plus an ellipsis
// marker when longer.
func truncateTitle(s string) string {
	r := []rune(s)
	if len(r) <= maxTitleLen {
		return s
	}
	return string(r[:maxTitleLen-3]) + "..."
}
