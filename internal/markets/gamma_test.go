package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func gammaMarketJSON(id, slug string) map[string]interface{} {
	return map[string]interface{}{
		"id":           id,
		"slug":         slug,
		"question":     "Will it happen?",
		"outcomes":     `["Yes","No"]`,
		"clobTokenIds": fmt.Sprintf(`["%s-yes","%s-no"]`, id, id),
		"active":       true,
	}
}

func TestGammaClientFetchSinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("closed"))
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		assert.Equal(t, "volume24hr", r.URL.Query().Get("order"))
		assert.Equal(t, "false", r.URL.Query().Get("ascending"))

		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			gammaMarketJSON("m1", "market-one"),
			gammaMarketJSON("m2", "market-two"),
		})
	}))
	t.Cleanup(server.Close)

	client := NewGammaClient(server.URL, zap.NewNop())

	markets, err := client.FetchActiveMarkets(context.Background(), 10, 0, "volume24hr")
	require.NoError(t, err)
	require.Len(t, markets, 2)

	// clobTokenIds JSON-string field parses into outcome tokens.
	require.Len(t, markets[0].Tokens, 2)
	assert.Equal(t, "m1-yes", markets[0].Tokens[0].TokenID)
	assert.Equal(t, "Yes", markets[0].Tokens[0].Outcome)
}

func TestGammaClientPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		var page []map[string]interface{}
		// 150 markets total.
		for i := offset; i < offset+limit && i < 150; i++ {
			id := fmt.Sprintf("m%d", i)
			page = append(page, gammaMarketJSON(id, "market-"+id))
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(server.Close)

	client := NewGammaClient(server.URL, zap.NewNop())

	markets, err := client.FetchActiveMarkets(context.Background(), 0, 0, "volume24hr")
	require.NoError(t, err)
	assert.Len(t, markets, 150)

	markets, err = client.FetchActiveMarkets(context.Background(), 120, 0, "volume24hr")
	require.NoError(t, err)
	assert.Len(t, markets, 120)
}

func TestGammaClientFetchMarketBySlug(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			gammaMarketJSON("m1", "market-one"),
			gammaMarketJSON("m2", "market-two"),
		})
	}))
	t.Cleanup(server.Close)

	client := NewGammaClient(server.URL, zap.NewNop())

	market, err := client.FetchMarketBySlug(context.Background(), "market-two")
	require.NoError(t, err)
	assert.Equal(t, "m2", market.ID)

	_, err = client.FetchMarketBySlug(context.Background(), "missing")
	require.Error(t, err)
}

func TestGammaClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gamma down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := NewGammaClient(server.URL, zap.NewNop())

	_, err := client.FetchActiveMarkets(context.Background(), 10, 0, "volume24hr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
