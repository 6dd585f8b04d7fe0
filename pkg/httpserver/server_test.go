package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/internal/arbitrage"
	"github.com/synapsefi/pm-ledger/pkg/healthprobe"
	"github.com/synapsefi/pm-ledger/pkg/types"
)

type fakePortfolio struct {
	view types.PortfolioView
}

func (f *fakePortfolio) View(_ context.Context, owner string, market *types.Market) types.PortfolioView {
	v := f.view
	v.Owner = owner
	v.MarketID = market.ID
	return v
}

type fakeMarkets struct {
	markets map[string]*types.Market
}

func (f *fakeMarkets) Market(marketID string) (*types.Market, bool) {
	m, ok := f.markets[marketID]
	return m, ok
}

func (f *fakeMarkets) All() []*types.Market {
	out := make([]*types.Market, 0, len(f.markets))
	for _, m := range f.markets {
		out = append(out, m)
	}
	return out
}

type fakeQuotes struct {
	snapshots map[string]types.QuoteSnapshot
}

func (f *fakeQuotes) Snapshot(tokenID string) (types.QuoteSnapshot, bool) {
	s, ok := f.snapshots[tokenID]
	return s, ok
}

func (f *fakeQuotes) AllSnapshots() map[string]types.QuoteSnapshot {
	return f.snapshots
}

type fakeFills struct {
	fills []types.Fill
}

func (f *fakeFills) Fills(_ context.Context, _, _ string) []types.Fill {
	return f.fills
}

type fakeArb struct {
	evaluations map[string]arbitrage.MarketEvaluation
}

func (f *fakeArb) EvaluateMarket(marketID string) (arbitrage.MarketEvaluation, bool) {
	ev, ok := f.evaluations[marketID]
	return ev, ok
}

func newTestHandler() *Handler {
	market := &types.Market{
		ID:       "m1",
		Slug:     "will-it-rain",
		Question: "Will it rain?",
		Tokens: []types.Token{
			{TokenID: "t1", Outcome: "Yes"},
			{TokenID: "t2", Outcome: "No"},
		},
	}

	return NewHandler(
		&fakePortfolio{view: types.PortfolioView{TotalValue: 42}},
		&fakeMarkets{markets: map[string]*types.Market{"m1": market}},
		&fakeQuotes{snapshots: map[string]types.QuoteSnapshot{
			"t1": {TokenID: "t1", BestBid: 0.44, BestAsk: 0.46, TickSize: 0.01},
		}},
		&fakeFills{fills: []types.Fill{
			{TokenID: "t1", Side: types.SideBuy, Price: 0.45, Size: 10, Timestamp: 1700000000},
		}},
		&fakeArb{evaluations: map[string]arbitrage.MarketEvaluation{
			"m1": {
				MarketID:   "m1",
				MarketSlug: "will-it-rain",
				Outcomes:   2,
				Evaluation: arbitrage.Evaluation{
					SumAsk:    0.92,
					SumBid:    0.86,
					BuyArb:    true,
					BuyMargin: 0.08,
				},
			},
		}},
		zap.NewNop(),
	)
}

func TestHandleMarkets(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.HandleMarkets(rec, httptest.NewRequest(http.MethodGet, "/api/markets", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var out []MarketSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "will-it-rain", out[0].Slug)
	assert.Len(t, out[0].Tokens, 2)
}

func TestHandlePortfolio(t *testing.T) {
	h := newTestHandler()

	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{
			name:       "by-market-id",
			url:        "/api/portfolio?owner=0xabc&market_id=m1",
			wantStatus: http.StatusOK,
		},
		{
			name:       "by-slug",
			url:        "/api/portfolio?owner=0xabc&slug=will-it-rain",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing-owner",
			url:        "/api/portfolio?market_id=m1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown-market",
			url:        "/api/portfolio?owner=0xabc&market_id=nope",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "no-market-selector",
			url:        "/api/portfolio?owner=0xabc",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandlePortfolio(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				var view types.PortfolioView
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
				assert.Equal(t, "0xabc", view.Owner)
				assert.Equal(t, "m1", view.MarketID)
				assert.Equal(t, 42.0, view.TotalValue)
			}
		})
	}
}

func TestHandleFills(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.HandleFills(rec, httptest.NewRequest(http.MethodGet, "/api/fills?owner=0xabc&token_id=t1", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var fills []types.Fill
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fills))
	require.Len(t, fills, 1)
	assert.Equal(t, 0.45, fills[0].Price)
}

func TestHandleFillsMissingParams(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.HandleFills(rec, httptest.NewRequest(http.MethodGet, "/api/fills?owner=0xabc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQuotes(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.HandleQuotes(rec, httptest.NewRequest(http.MethodGet, "/api/quotes?token_id=t1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleQuotes(rec, httptest.NewRequest(http.MethodGet, "/api/quotes?token_id=unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleQuotes(rec, httptest.NewRequest(http.MethodGet, "/api/quotes", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleArbitrage(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.HandleArbitrage(rec, httptest.NewRequest(http.MethodGet, "/api/arbitrage?market_id=m1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var ev arbitrage.MarketEvaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.Equal(t, "will-it-rain", ev.MarketSlug)
	assert.Equal(t, 2, ev.Outcomes)
	assert.InDelta(t, 0.92, ev.SumAsk, 1e-9)
	assert.True(t, ev.BuyArb)
	assert.InDelta(t, 0.08, ev.BuyMargin, 1e-9)

	rec = httptest.NewRecorder()
	h.HandleArbitrage(rec, httptest.NewRequest(http.MethodGet, "/api/arbitrage?slug=will-it-rain", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleArbitrage(rec, httptest.NewRequest(http.MethodGet, "/api/arbitrage?market_id=nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerRoutes(t *testing.T) {
	checker := healthprobe.New()
	checker.SetReady(true)

	srv := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: checker,
	})

	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)

	client := &http.Client{Timeout: 5 * time.Second}

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		resp, err := client.Get(ts.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}
}
