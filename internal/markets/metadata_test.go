package markets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/pkg/cache"
)

func metadataServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tick-size":
			_, _ = w.Write([]byte(`{"minimum_tick_size": 0.001}`))
		case "/book":
			_, _ = w.Write([]byte(`{"asset_id": "t1", "bids": [], "asks": [], "neg_risk": true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func TestMetadataClientFetchTokenMetadata(t *testing.T) {
	server := metadataServer(t)
	client := NewMetadataClient(server.URL)

	tickSize, negRisk, err := client.FetchTokenMetadata(context.Background(), "t1")
	require.NoError(t, err)
	assert.InDelta(t, 0.001, tickSize, 1e-9)
	assert.True(t, negRisk)
}

func TestMetadataClientDefaultsOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewMetadataClient(server.URL)

	tickSize, negRisk, err := client.FetchTokenMetadata(context.Background(), "t1")
	require.NoError(t, err)
	assert.InDelta(t, 0.01, tickSize, 1e-9)
	assert.False(t, negRisk)
}

func TestCachedMetadataClient(t *testing.T) {
	var tickSizeHits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tick-size":
			tickSizeHits++
			_, _ = w.Write([]byte(`{"minimum_tick_size": 0.01}`))
		case "/book":
			_, _ = w.Write([]byte(`{"neg_risk": false}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := cache.NewRistrettoCache(cache.DefaultRistrettoConfig(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	cached := NewCachedMetadataClient(NewMetadataClient(server.URL), c)

	tickSize, _, err := cached.GetTokenMetadata(context.Background(), "t1")
	require.NoError(t, err)
	assert.InDelta(t, 0.01, tickSize, 1e-9)

	// Ristretto applies sets asynchronously.
	c.(*cache.RistrettoCache).Wait()

	tickSize, _, err = cached.GetTokenMetadata(context.Background(), "t1")
	require.NoError(t, err)
	assert.InDelta(t, 0.01, tickSize, 1e-9)
	assert.Equal(t, 1, tickSizeHits)
}

func TestCachedMetadataClientUpdateTickSize(t *testing.T) {
	server := metadataServer(t)

	c, err := cache.NewRistrettoCache(cache.DefaultRistrettoConfig(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	cached := NewCachedMetadataClient(NewMetadataClient(server.URL), c)

	_, _, err = cached.GetTokenMetadata(context.Background(), "t1")
	require.NoError(t, err)
	c.(*cache.RistrettoCache).Wait()

	cached.UpdateTickSize("t1", 0.0001)
	c.(*cache.RistrettoCache).Wait()

	// The refreshed value comes back without refetching; allow a tick
	// for the cache write to land.
	time.Sleep(10 * time.Millisecond)
	tickSize, _, err := cached.GetTokenMetadata(context.Background(), "t1")
	require.NoError(t, err)
	assert.InDelta(t, 0.0001, tickSize, 1e-9)
}
