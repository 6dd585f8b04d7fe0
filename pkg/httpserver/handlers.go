package httpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/internal/arbitrage"
	"github.com/synapsefi/pm-ledger/pkg/types"
)

// PortfolioService computes a market-level portfolio view for an owner.
type PortfolioService interface {
	View(ctx context.Context, owner string, market *types.Market) types.PortfolioView
}

// MarketSource resolves tracked markets.
type MarketSource interface {
	Market(marketID string) (*types.Market, bool)
	All() []*types.Market
}

// QuoteSource provides current top-of-book snapshots.
type QuoteSource interface {
	Snapshot(tokenID string) (types.QuoteSnapshot, bool)
	AllSnapshots() map[string]types.QuoteSnapshot
}

// FillSource provides an owner's fill history.
type FillSource interface {
	Fills(ctx context.Context, owner, tokenID string) []types.Fill
}

// ArbitrageSource evaluates a tracked market's outcome quotes on
// demand.
type ArbitrageSource interface {
	EvaluateMarket(marketID string) (arbitrage.MarketEvaluation, bool)
}

// Handler serves the read-only ledger API.
type Handler struct {
	portfolio PortfolioService
	markets   MarketSource
	quotes    QuoteSource
	fills     FillSource
	arb       ArbitrageSource
	logger    *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	portfolio PortfolioService,
	markets MarketSource,
	quotes QuoteSource,
	fills FillSource,
	arb ArbitrageSource,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		portfolio: portfolio,
		markets:   markets,
		quotes:    quotes,
		fills:     fills,
		arb:       arb,
		logger:    logger,
	}
}

// MarketSummary is one tracked market in the /api/markets response.
type MarketSummary struct {
	ID       string        `json:"id"`
	Slug     string        `json:"slug"`
	Question string        `json:"question"`
	NegRisk  bool          `json:"neg_risk"`
	Tokens   []types.Token `json:"tokens"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleMarkets handles GET /api/markets requests.
func (h *Handler) HandleMarkets(w http.ResponseWriter, _ *http.Request) {
	markets := h.markets.All()

	out := make([]MarketSummary, 0, len(markets))
	for _, m := range markets {
		out = append(out, MarketSummary{
			ID:       m.ID,
			Slug:     m.Slug,
			Question: m.Question,
			NegRisk:  m.NegRisk,
			Tokens:   m.Tokens,
		})
	}

	h.writeJSON(w, http.StatusOK, out)
}

// HandlePortfolio handles GET /api/portfolio?owner=<addr>&market_id=<id>
// requests. The market may also be addressed by slug.
func (h *Handler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		h.writeError(w, "missing required query parameter: owner", http.StatusBadRequest)
		return
	}

	market, ok := h.lookupMarket(r)
	if !ok {
		h.writeError(w, "market not found or not tracked", http.StatusNotFound)
		return
	}

	view := h.portfolio.View(r.Context(), owner, market)
	h.writeJSON(w, http.StatusOK, view)
}

// HandleFills handles GET /api/fills?owner=<addr>&token_id=<id> requests.
func (h *Handler) HandleFills(w http.ResponseWriter, r *http.Request) {
	if h.fills == nil {
		h.writeError(w, "fill ledger not available", http.StatusServiceUnavailable)
		return
	}

	owner := r.URL.Query().Get("owner")
	tokenID := r.URL.Query().Get("token_id")
	if owner == "" || tokenID == "" {
		h.writeError(w, "missing required query parameters: owner, token_id", http.StatusBadRequest)
		return
	}

	fills := h.fills.Fills(r.Context(), owner, tokenID)
	h.writeJSON(w, http.StatusOK, fills)
}

// HandleQuotes handles GET /api/quotes?token_id=<id> requests. Without
// a token_id it returns every tracked snapshot.
func (h *Handler) HandleQuotes(w http.ResponseWriter, r *http.Request) {
	if h.quotes == nil {
		h.writeError(w, "quotes not available", http.StatusServiceUnavailable)
		return
	}

	tokenID := r.URL.Query().Get("token_id")
	if tokenID == "" {
		h.writeJSON(w, http.StatusOK, h.quotes.AllSnapshots())
		return
	}

	snap, found := h.quotes.Snapshot(tokenID)
	if !found {
		h.writeError(w, "no quote tracked for token", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, snap)
}

// HandleArbitrage handles GET /api/arbitrage?market_id=<id> requests.
// The market may also be addressed by slug. A market whose outcomes are
// not all quoted yet returns 404 rather than a partial evaluation.
func (h *Handler) HandleArbitrage(w http.ResponseWriter, r *http.Request) {
	if h.arb == nil {
		h.writeError(w, "arbitrage detector not available", http.StatusServiceUnavailable)
		return
	}

	market, ok := h.lookupMarket(r)
	if !ok {
		h.writeError(w, "market not found or not tracked", http.StatusNotFound)
		return
	}

	ev, ok := h.arb.EvaluateMarket(market.ID)
	if !ok {
		h.writeError(w, "market not fully quoted yet", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) lookupMarket(r *http.Request) (*types.Market, bool) {
	if marketID := r.URL.Query().Get("market_id"); marketID != "" {
		return h.markets.Market(marketID)
	}

	slug := r.URL.Query().Get("slug")
	if slug == "" {
		return nil, false
	}
	for _, m := range h.markets.All() {
		if m.Slug == slug {
			return m, true
		}
	}
	return nil, false
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
