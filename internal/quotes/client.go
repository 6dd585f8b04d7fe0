package quotes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

// Client fetches top-of-book snapshots over the CLOB REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// ClientConfig holds configuration for the book client.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	Logger         *zap.Logger
}

// NewClient creates a new book client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 10
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     cfg.Logger,
	}
}

// FetchBook fetches the current book for a token and reduces it to a
// top-of-book snapshot. An empty book side leaves the corresponding
// fields zero.
func (c *Client) FetchBook(ctx context.Context, tokenID string) (types.QuoteSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return types.QuoteSnapshot{}, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()

	reqURL := fmt.Sprintf("%s/book?token_id=%s", c.baseURL, url.QueryEscape(tokenID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return types.QuoteSnapshot{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.QuoteSnapshot{}, fmt.Errorf("fetch book for token %s: %w", tokenID, err)
	}
	defer resp.Body.Close()

	BookRequestDurationSeconds.Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.QuoteSnapshot{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return types.QuoteSnapshot{}, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var book types.BookResponse
	if err := json.Unmarshal(body, &book); err != nil {
		return types.QuoteSnapshot{}, fmt.Errorf("parse book: %w", err)
	}

	return snapshotFromBook(tokenID, book), nil
}

func snapshotFromBook(tokenID string, book types.BookResponse) types.QuoteSnapshot {
	snap := types.QuoteSnapshot{
		TokenID:     tokenID,
		NegRisk:     book.NegRisk,
		LastUpdated: time.Now(),
	}

	if book.TickSize != "" {
		if tick, err := strconv.ParseFloat(book.TickSize, 64); err == nil {
			snap.TickSize = tick
		}
	}

	if len(book.Bids) > 0 {
		if price, size, err := book.Bids[0].Float(); err == nil {
			snap.BestBid = price
			snap.BestBidSize = size
		}
	}
	if len(book.Asks) > 0 {
		if price, size, err := book.Asks[0].Float(); err == nil {
			snap.BestAsk = price
			snap.BestAskSize = size
		}
	}

	return snap
}
