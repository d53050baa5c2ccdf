package paapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabioferrero/product-grid-mcp/internal/cache"
)

func TestSearcher_CachesResults(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"SearchResult":{"Items":[` + itemJSON("B00AAAAAA1", "First", "https://img.example/a.jpg") + `]}}`))
	}))
	defer srv.Close()

	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), cache.Options{Bucket: "test"})
	require.NoError(t, err)
	defer store.Close()

	c := NewClient(testConfig())
	c.endpoint = srv.URL
	s := NewSearcher(c, store, time.Hour)

	first, err := s.Search(context.Background(), "usb charger", 5)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Same query modulo whitespace and case hits the cache.
	second, err := s.Search(context.Background(), "  USB   Charger ", 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), hits.Load())
}

func TestSearcher_EmptyKeywords(t *testing.T) {
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), cache.Options{Bucket: "test"})
	require.NoError(t, err)
	defer store.Close()

	s := NewSearcher(NewClient(testConfig()), store, time.Hour)
	_, err = s.Search(context.Background(), "   ", 5)
	assert.Error(t, err)
}
