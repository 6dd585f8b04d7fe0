package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

// MaxBatchSize is the maximum number of markets per Gamma API request.
const MaxBatchSize = 100

// GammaClient is an HTTP client for the Gamma markets API.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGammaClient creates a new Gamma API client.
func NewGammaClient(baseURL string, logger *zap.Logger) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// FetchActiveMarkets fetches active markets with automatic pagination.
// A limit of 0 fetches everything available. orderBy is the Gamma sort
// field ("volume24hr", "createdAt", "endDate").
func (c *GammaClient) FetchActiveMarkets(ctx context.Context, limit, offset int, orderBy string) ([]types.Market, error) {
	if limit > 0 && limit <= MaxBatchSize {
		return c.fetchPage(ctx, limit, offset, orderBy)
	}

	var all []types.Market
	fetchAll := limit == 0

	for page := 0; ; page++ {
		pageSize := MaxBatchSize
		if !fetchAll {
			remaining := limit - len(all)
			if remaining <= 0 {
				break
			}
			if remaining < pageSize {
				pageSize = remaining
			}
		}

		markets, err := c.fetchPage(ctx, pageSize, offset+page*MaxBatchSize, orderBy)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}

		all = append(all, markets...)

		if len(markets) < pageSize {
			break
		}
		if !fetchAll && len(all) >= limit {
			break
		}
	}

	return all, nil
}

func (c *GammaClient) fetchPage(ctx context.Context, limit, offset int, orderBy string) ([]types.Market, error) {
	params := url.Values{}
	params.Add("closed", "false")
	params.Add("active", "true")
	params.Add("limit", strconv.Itoa(limit))
	params.Add("offset", strconv.Itoa(offset))
	params.Add("order", orderBy)
	// endDate ascending surfaces markets expiring soonest; the volume
	// and recency sorts want descending.
	if orderBy == "endDate" {
		params.Add("ascending", "true")
	} else {
		params.Add("ascending", "false")
	}

	requestURL := fmt.Sprintf("%s/markets?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pm-ledger/1.0")

	c.logger.Debug("fetching-markets",
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	// Gamma returns a bare array, not a wrapper object.
	var markets []types.Market
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	MarketsFetchedTotal.Add(float64(len(markets)))
	return markets, nil
}

// FetchMarketBySlug finds a market by slug. Gamma has no slug lookup
// endpoint, so this pages through active markets until it finds one.
func (c *GammaClient) FetchMarketBySlug(ctx context.Context, slug string) (*types.Market, error) {
	const pageSize = 100
	const maxPages = 10

	for page := 0; page < maxPages; page++ {
		markets, err := c.fetchPage(ctx, pageSize, page*pageSize, "volume24hr")
		if err != nil {
			return nil, fmt.Errorf("fetch markets: %w", err)
		}

		for i := range markets {
			if markets[i].Slug == slug {
				return &markets[i], nil
			}
		}

		if len(markets) < pageSize {
			break
		}
	}

	return nil, fmt.Errorf("market not found: %s", slug)
}
