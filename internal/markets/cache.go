package markets

import (
	"context"
	"fmt"
	"time"

	"github.com/synapsefi/pm-ledger/pkg/cache"
)

// CachedMetadataClient wraps MetadataClient with a TTL cache. Tick
// sizes change rarely, so a long TTL keeps basket composition off the
// metadata endpoints.
type CachedMetadataClient struct {
	client *MetadataClient
	cache  cache.Cache
	ttl    time.Duration
}

// NewCachedMetadataClient creates a new cached metadata client.
func NewCachedMetadataClient(client *MetadataClient, cache cache.Cache) *CachedMetadataClient {
	return &CachedMetadataClient{
		client: client,
		cache:  cache,
		ttl:    24 * time.Hour,
	}
}

// TokenMetadata holds cached metadata for a token.
type TokenMetadata struct {
	TickSize  float64
	NegRisk   bool
	FetchedAt time.Time
}

// GetTokenMetadata fetches token metadata through the cache.
func (c *CachedMetadataClient) GetTokenMetadata(ctx context.Context, tokenID string) (tickSize float64, negRisk bool, err error) {
	cacheKey := fmt.Sprintf("metadata:%s", tokenID)

	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if meta, ok := cached.(*TokenMetadata); ok {
				MetadataCacheHitsTotal.Inc()
				return meta.TickSize, meta.NegRisk, nil
			}
		}
		MetadataCacheMissesTotal.Inc()
	}

	tickSize, negRisk, err = c.client.FetchTokenMetadata(ctx, tokenID)
	if err != nil {
		return tickSize, negRisk, err
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, &TokenMetadata{
			TickSize:  tickSize,
			NegRisk:   negRisk,
			FetchedAt: time.Now(),
		}, c.ttl)
	}

	return tickSize, negRisk, nil
}

// UpdateTickSize overwrites a cached tick size in place, for when a
// tick_size_change event arrives over the stream. Unknown tokens are a
// no-op; they get the fresh value on first access.
func (c *CachedMetadataClient) UpdateTickSize(tokenID string, newTickSize float64) {
	if c.cache == nil {
		return
	}

	cacheKey := fmt.Sprintf("metadata:%s", tokenID)
	if cached, ok := c.cache.Get(cacheKey); ok {
		if meta, ok := cached.(*TokenMetadata); ok {
			c.cache.Set(cacheKey, &TokenMetadata{
				TickSize:  newTickSize,
				NegRisk:   meta.NegRisk,
				FetchedAt: time.Now(),
			}, c.ttl)
		}
	}
}
