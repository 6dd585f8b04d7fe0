package markets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

func twoOutcomeMarket(id string) *types.Market {
	return &types.Market{
		ID:   id,
		Slug: "market-" + id,
		Tokens: []types.Token{
			{TokenID: id + "-yes", Outcome: "Yes"},
			{TokenID: id + "-no", Outcome: "No"},
		},
	}
}

func TestIndexTrackAndLookup(t *testing.T) {
	idx := NewIndex(zap.NewNop())
	idx.Track(twoOutcomeMarket("m1"))
	idx.Track(twoOutcomeMarket("m2"))

	market, ok := idx.MarketForToken("m1-no")
	require.True(t, ok)
	assert.Equal(t, "m1", market.ID)

	market, ok = idx.Market("m2")
	require.True(t, ok)
	assert.Equal(t, "m2", market.ID)

	_, ok = idx.MarketForToken("unknown")
	assert.False(t, ok)

	assert.Len(t, idx.All(), 2)
	assert.Len(t, idx.TokenIDs(), 4)
}

func TestIndexRetrackReplacesTokens(t *testing.T) {
	idx := NewIndex(zap.NewNop())
	idx.Track(twoOutcomeMarket("m1"))

	// Same market, new token set (e.g. metadata refresh).
	replacement := &types.Market{
		ID:     "m1",
		Tokens: []types.Token{{TokenID: "m1-yes-v2", Outcome: "Yes"}},
	}
	idx.Track(replacement)

	_, ok := idx.MarketForToken("m1-yes")
	assert.False(t, ok)

	market, ok := idx.MarketForToken("m1-yes-v2")
	require.True(t, ok)
	assert.Equal(t, "m1", market.ID)
}

func TestIndexUntrack(t *testing.T) {
	idx := NewIndex(zap.NewNop())
	idx.Track(twoOutcomeMarket("m1"))

	idx.Untrack("m1")

	_, ok := idx.Market("m1")
	assert.False(t, ok)
	_, ok = idx.MarketForToken("m1-yes")
	assert.False(t, ok)
	assert.Empty(t, idx.All())
}
