package paapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabioferrero/product-grid-mcp/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		AccessKey:   "ak",
		SecretKey:   "sk",
		PartnerTag:  "mytag-21",
		Marketplace: config.Marketplaces["it"],
	}
}

func itemJSON(asin, title, image string) string {
	b, _ := json.Marshal(map[string]any{
		"ASIN":     asin,
		"ItemInfo": map[string]any{"Title": map[string]any{"DisplayValue": title}},
		"Images":   map[string]any{"Primary": map[string]any{"Medium": map[string]any{"URL": image}}},
	})
	return string(b)
}

func TestGetItem_ParsesResponse(t *testing.T) {
	var gotReq getItemsRequest
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"ItemsResult":{"Items":[` + itemJSON("B00TESTID1", "Nice Gadget", "https://img.example/1.jpg") + `]}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig())
	c.endpoint = srv.URL

	p, err := c.GetItem(context.Background(), "B00TESTID1")
	require.NoError(t, err)

	assert.Equal(t, Product{
		Title: "Nice Gadget",
		Image: "https://img.example/1.jpg",
		URL:   "https://www.amazon.it/dp/B00TESTID1?tag=mytag-21",
	}, p)
	assert.False(t, p.IsPlaceholder("B00TESTID1"))

	// Wire contract of the signed request.
	assert.Equal(t, []string{"B00TESTID1"}, gotReq.ItemIds)
	assert.Equal(t, "Associates", gotReq.PartnerType)
	assert.Equal(t, "www.amazon.it", gotReq.Marketplace)
	assert.Equal(t, itemResources, gotReq.Resources)

	assert.Equal(t, "amz-1.0", gotHeader.Get("Content-Encoding"))
	assert.Equal(t, "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems", gotHeader.Get("X-Amz-Target"))
	assert.NotEmpty(t, gotHeader.Get("X-Amz-Date"))
	auth := gotHeader.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=ak/"), auth)
	assert.Contains(t, auth, "SignedHeaders=content-encoding;content-type;host;x-amz-date;x-amz-target")
}

func TestGetItem_TruncatesLongTitle(t *testing.T) {
	long := strings.Repeat("x", 60)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ItemsResult":{"Items":[` + itemJSON("B00TESTID1", long, "https://img.example/1.jpg") + `]}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig())
	c.endpoint = srv.URL

	p, err := c.GetItem(context.Background(), "B00TESTID1")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 47)+"...", p.Title)
	assert.Len(t, p.Title, 50)
}

func TestGetItem_MissingImageFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ItemsResult":{"Items":[{"ASIN":"B00TESTID1","ItemInfo":{"Title":{"DisplayValue":"No Image Item"}}}]}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig())
	c.endpoint = srv.URL

	p, err := c.GetItem(context.Background(), "B00TESTID1")
	require.NoError(t, err)
	assert.Equal(t, "No Image Item", p.Title)
	assert.Equal(t, PlaceholderImage, p.Image)
}

func TestGetItem_UnconfiguredReturnsPlaceholderWithoutNetwork(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.SecretKey = ""
	c := NewClient(cfg)
	c.endpoint = srv.URL

	p, err := c.GetItem(context.Background(), "B00PLACEHLD")
	require.NoError(t, err)
	assert.Equal(t, "Product B00PLACEHLD", p.Title)
	assert.Equal(t, PlaceholderImage, p.Image)
	assert.Equal(t, "https://www.amazon.it/dp/B00PLACEHLD?tag=mytag-21", p.URL)
	assert.True(t, p.IsPlaceholder("B00PLACEHLD"))
	assert.Equal(t, int64(0), hits.Load())
}

func TestGetItem_ErrorStatusDegradesToPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"Errors":[{"Code":"TooManyRequests"}]}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(testConfig())
	c.endpoint = srv.URL

	p, err := c.GetItem(context.Background(), "B00TESTID1")
	require.NoError(t, err)
	assert.True(t, p.IsPlaceholder("B00TESTID1"))
}

func TestGetItem_MalformedBodyDegradesToPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	c := NewClient(testConfig())
	c.endpoint = srv.URL

	p, err := c.GetItem(context.Background(), "B00TESTID1")
	require.NoError(t, err)
	assert.True(t, p.IsPlaceholder("B00TESTID1"))
}

func TestGetItem_TransportErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(testConfig())
	c.endpoint = url

	_, err := c.GetItem(context.Background(), "B00TESTID1")
	assert.Error(t, err)
}

func TestSearchItems_ParsesResults(t *testing.T) {
	var gotReq searchItemsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"SearchResult":{"Items":[` +
			itemJSON("B00AAAAAA1", "First", "https://img.example/a.jpg") + `,` +
			itemJSON("B00BBBBBB2", "Second", "https://img.example/b.jpg") + `]}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig())
	c.endpoint = srv.URL

	got, err := c.SearchItems(context.Background(), "usb charger", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "First", got[0].Title)
	assert.Equal(t, "https://www.amazon.it/dp/B00AAAAAA1?tag=mytag-21", got[0].URL)
	assert.Equal(t, "Second", got[1].Title)

	assert.Equal(t, "usb charger", gotReq.Keywords)
	assert.Equal(t, 5, gotReq.ItemCount)
}

func TestSearchItems_RequiresCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.AccessKey = ""
	c := NewClient(cfg)

	_, err := c.SearchItems(context.Background(), "anything", 5)
	assert.Error(t, err)
}
