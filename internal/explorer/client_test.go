package explorer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pooldash/internal/chains"
	"pooldash/internal/domain"
)

const testContract = "0x1111111111111111111111111111111111111111"

// testRoute points the client at a local httptest server.
func testRoute(baseURL string) chains.Route {
	return chains.Route{
		ChainName:       "ethereum",
		ExplorerBaseURL: baseURL,
		IndexerNetwork:  "eth-mainnet",
		Markup:          chains.MarkupEtherscan,
	}
}

func TestHolderCount_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token/"+testContract, r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`<html><body><h4>Holders</h4><div>17,365 (0.00%)</div></body></html>`))
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.HolderCount(context.Background(), testRoute(srv.URL), testContract)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 17365, res.Count)
	assert.Equal(t, domain.SourceExplorer, res.Source)
}

func TestHolderCount_NotFoundOnMissingMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>Some token</h1></body></html>`))
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.HolderCount(context.Background(), testRoute(srv.URL), testContract)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, 0, res.Count)
}

func TestHolderCount_NotFoundOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.HolderCount(context.Background(), testRoute(srv.URL), testContract)
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestHolderCount_RateLimitedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.HolderCount(context.Background(), testRoute(srv.URL), testContract)
	require.ErrorIs(t, err, ErrRateLimited)
	assert.False(t, res.Found)
}

func TestHolderCount_BlockPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Checking your browser before accessing...</body></html>`))
	}))
	defer srv.Close()

	c := NewClient()
	res, err := c.HolderCount(context.Background(), testRoute(srv.URL), testContract)
	require.ErrorIs(t, err, ErrRateLimited)
	assert.False(t, res.Found)
}

func TestHolderCount_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient()
	res, err := c.HolderCount(context.Background(), testRoute(srv.URL), testContract)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, 0, res.Count)
}

func TestHolderCount_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(20 * time.Millisecond))
	res, err := c.HolderCount(context.Background(), testRoute(srv.URL), testContract)
	require.NoError(t, err)
	assert.False(t, res.Found)
}
