package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// MetadataClient fetches per-token trading metadata from the CLOB API.
type MetadataClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMetadataClient creates a new metadata client.
func NewMetadataClient(baseURL string) *MetadataClient {
	return &MetadataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchTickSize fetches the minimum tick size for a token.
func (c *MetadataClient) FetchTickSize(ctx context.Context, tokenID string) (float64, error) {
	url := fmt.Sprintf("%s/tick-size?token_id=%s", c.baseURL, tokenID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	var data struct {
		MinimumTickSize float64 `json:"minimum_tick_size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, err
	}

	return data.MinimumTickSize, nil
}

// FetchNegRisk reports whether a token trades on a negative-risk
// market. The flag rides on the book endpoint.
func (c *MetadataClient) FetchNegRisk(ctx context.Context, tokenID string) (bool, error) {
	url := fmt.Sprintf("%s/book?token_id=%s", c.baseURL, tokenID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	var data struct {
		NegRisk bool `json:"neg_risk"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return false, err
	}

	return data.NegRisk, nil
}

// FetchTokenMetadata fetches tick size and neg-risk flag, substituting
// defaults when an endpoint misbehaves.
func (c *MetadataClient) FetchTokenMetadata(ctx context.Context, tokenID string) (tickSize float64, negRisk bool, err error) {
	tickSize, err = c.FetchTickSize(ctx, tokenID)
	if err != nil {
		tickSize = 0.01
	}

	negRisk, err = c.FetchNegRisk(ctx, tokenID)
	if err != nil {
		negRisk = false
	}

	return tickSize, negRisk, nil
}
