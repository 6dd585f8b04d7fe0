package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

func newRemote(t *testing.T, url string) *RemoteClient {
	t.Helper()
	return NewRemoteClient(RemoteClientConfig{
		BaseURL:        url,
		RequestsPerSec: 1000,
		Logger:         zap.NewNop(),
	})
}

func TestRemoteClientProbesCandidatePaths(t *testing.T) {
	var fillsHits, getFillsHits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fills":
			fillsHits.Add(1)
			http.NotFound(w, r)
		case "/get-fills":
			getFillsHits.Add(1)
			assert.Equal(t, "0xabc", r.URL.Query().Get("owner"))
			assert.Equal(t, "t1", r.URL.Query().Get("token_id"))
			_ = json.NewEncoder(w).Encode([]types.TradeRecord{
				{ID: "f1", TokenID: "t1", Side: "BUY", Price: "0.45", Size: "3", Timestamp: "1700000000"},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	client := newRemote(t, server.URL)

	fills, err := client.Fills(context.Background(), "0xabc", "t1")
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, types.SideBuy, fills[0].Side)
	assert.InDelta(t, 0.45, fills[0].Price, 1e-9)
	assert.Equal(t, int64(1700000000), fills[0].Timestamp)

	// Second fetch starts at the remembered path.
	_, err = client.Fills(context.Background(), "0xabc", "t1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fillsHits.Load())
	assert.Equal(t, int32(2), getFillsHits.Load())
}

func TestRemoteClientSkipsEmptyPath(t *testing.T) {
	var fillsHits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fills":
			fillsHits.Add(1)
			_ = json.NewEncoder(w).Encode([]types.TradeRecord{})
		case "/get-fills":
			_ = json.NewEncoder(w).Encode([]types.TradeRecord{
				{ID: "f1", TokenID: "t1", Side: "BUY", Price: "0.45", Size: "3", Timestamp: "1700000000"},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	client := newRemote(t, server.URL)

	fills, err := client.Fills(context.Background(), "0xabc", "t1")
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.InDelta(t, 0.45, fills[0].Price, 1e-9)

	// The empty spelling is not remembered; the one with records is.
	_, err = client.Fills(context.Background(), "0xabc", "t1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fillsHits.Load())
}

func TestRemoteClientAllPathsEmpty(t *testing.T) {
	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode([]types.TradeRecord{})
	}))
	t.Cleanup(server.Close)

	client := newRemote(t, server.URL)

	fills, err := client.Fills(context.Background(), "0xabc", "t1")
	require.NoError(t, err)
	assert.Empty(t, fills)
	assert.Equal(t, int32(3), hits.Load())
}

func TestRemoteClientAllPathsMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	client := newRemote(t, server.URL)

	_, err := client.Fills(context.Background(), "0xabc", "t1")
	require.Error(t, err)
}

func TestRemoteClientDropsUnusableRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]types.TradeRecord{
			{ID: "ok", Asset: "t1", Side: "sell", Price: "0.60", Size: "2", Timestamp: "100"},
			{ID: "bad-side", Asset: "t1", Side: "HOLD", Price: "0.60", Size: "2"},
			{ID: "negative-size", Asset: "t1", Side: "buy", Price: "0.60", Size: "-5"},
			{ID: "zero-size", Asset: "t1", Side: "buy", Price: "0.60", Size: "0"},
			{ID: "negative-price", Asset: "t1", Side: "buy", Price: "-0.10", Size: "2"},
		})
	}))
	t.Cleanup(server.Close)

	client := newRemote(t, server.URL)

	fills, err := client.Fills(context.Background(), "0xabc", "t1")
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, types.SideSell, fills[0].Side)
	assert.Equal(t, "t1", fills[0].TokenID)
}

func TestRemoteClientSignsWhenCredentialed(t *testing.T) {
	var sawHeaders atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("POLY_API_KEY") != "" &&
			r.Header.Get("POLY_SIGNATURE") != "" &&
			r.Header.Get("POLY_TIMESTAMP") != "" &&
			r.Header.Get("POLY_PASSPHRASE") != "" {
			sawHeaders.Store(true)
		}
		_ = json.NewEncoder(w).Encode([]types.TradeRecord{})
	}))
	t.Cleanup(server.Close)

	client := NewRemoteClient(RemoteClientConfig{
		BaseURL:        server.URL,
		APIKey:         "key",
		Secret:         "c2VjcmV0LXNlY3JldC1zZWNyZXQ=", // URL-safe base64
		Passphrase:     "phrase",
		Address:        "0xabc",
		RequestsPerSec: 1000,
		Logger:         zap.NewNop(),
	})

	_, err := client.Fills(context.Background(), "0xabc", "t1")
	require.NoError(t, err)
	assert.True(t, sawHeaders.Load())
}

func TestParseFillTimestamp(t *testing.T) {
	tests := []struct {
		name string
		rec  types.TradeRecord
		want int64
	}{
		{name: "unix-seconds", rec: types.TradeRecord{Timestamp: "1700000000"}, want: 1700000000},
		{name: "unix-milliseconds", rec: types.TradeRecord{Timestamp: "1700000000123"}, want: 1700000000},
		{name: "fractional-seconds", rec: types.TradeRecord{Timestamp: "1700000000.5"}, want: 1700000000},
		{name: "iso-match-time", rec: types.TradeRecord{MatchTime: "2023-11-14T22:13:20Z"}, want: 1700000000},
		{name: "match-time-unix", rec: types.TradeRecord{MatchTime: "1700000000"}, want: 1700000000},
		{name: "missing", rec: types.TradeRecord{}, want: 0},
		{name: "garbage", rec: types.TradeRecord{MatchTime: "soon"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseFillTimestamp(tt.rec))
		})
	}
}
