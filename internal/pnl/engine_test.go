package pnl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

const epsilon = 1e-9

func TestCompute_FIFOMatching(t *testing.T) {
	fills := []types.Fill{
		{TokenID: "tok", Side: types.SideBuy, Price: 0.40, Size: 10, Timestamp: 1},
		{TokenID: "tok", Side: types.SideBuy, Price: 0.60, Size: 5, Timestamp: 2},
		{TokenID: "tok", Side: types.SideSell, Price: 0.70, Size: 12, Timestamp: 3},
	}

	res := Compute(fills)

	// 10*(0.70-0.40) + 2*(0.70-0.60) = 3.0 + 0.2
	assert.InDelta(t, 3.2, res.Realized, epsilon)
	assert.InDelta(t, 3.0, res.RemainingQty, epsilon)
	assert.InDelta(t, 0.60, res.AvgCost, epsilon)
}

func TestCompute_NoFills(t *testing.T) {
	res := Compute(nil)

	assert.Zero(t, res.Realized)
	assert.Zero(t, res.RemainingQty)
	assert.Zero(t, res.AvgCost)

	res = Compute([]types.Fill{})
	assert.Zero(t, res.Realized)
	assert.Zero(t, res.RemainingQty)
	assert.Zero(t, res.AvgCost)
}

func TestCompute_SellWithoutInventory(t *testing.T) {
	// A sell with no prior buys is a zero-cost-basis short: each unit
	// realizes the full sell price.
	fills := []types.Fill{
		{TokenID: "tok", Side: types.SideSell, Price: 0.30, Size: 5, Timestamp: 1},
	}

	res := Compute(fills)

	assert.InDelta(t, 1.5, res.Realized, epsilon)
	assert.Zero(t, res.RemainingQty)
	assert.Zero(t, res.AvgCost)
}

func TestCompute_ShortOverflowNotCoveredByLaterBuy(t *testing.T) {
	// The synthetic short is not reconciled against a later buy: the
	// buy opens a fresh lot instead of covering.
	fills := []types.Fill{
		{TokenID: "tok", Side: types.SideSell, Price: 0.50, Size: 4, Timestamp: 1},
		{TokenID: "tok", Side: types.SideBuy, Price: 0.20, Size: 4, Timestamp: 2},
	}

	res := Compute(fills)

	assert.InDelta(t, 2.0, res.Realized, epsilon)
	assert.InDelta(t, 4.0, res.RemainingQty, epsilon)
	assert.InDelta(t, 0.20, res.AvgCost, epsilon)
}

func TestCompute_PartialLotConsumption(t *testing.T) {
	fills := []types.Fill{
		{TokenID: "tok", Side: types.SideBuy, Price: 0.50, Size: 10, Timestamp: 1},
		{TokenID: "tok", Side: types.SideSell, Price: 0.55, Size: 4, Timestamp: 2},
		{TokenID: "tok", Side: types.SideSell, Price: 0.65, Size: 3, Timestamp: 3},
	}

	res := Compute(fills)

	// 4*(0.55-0.50) + 3*(0.65-0.50) = 0.20 + 0.45
	assert.InDelta(t, 0.65, res.Realized, epsilon)
	assert.InDelta(t, 3.0, res.RemainingQty, epsilon)
	assert.InDelta(t, 0.50, res.AvgCost, epsilon)
}

func TestCompute_Idempotent(t *testing.T) {
	fills := []types.Fill{
		{TokenID: "tok", Side: types.SideBuy, Price: 0.40, Size: 10, Timestamp: 1},
		{TokenID: "tok", Side: types.SideSell, Price: 0.70, Size: 12, Timestamp: 3},
		{TokenID: "tok", Side: types.SideBuy, Price: 0.60, Size: 5, Timestamp: 2},
	}

	// Keep a copy to verify the input is never mutated.
	original := make([]types.Fill, len(fills))
	copy(original, fills)

	first := Compute(fills)
	second := Compute(fills)

	assert.Equal(t, first, second)
	assert.Equal(t, original, fills)
}

func TestCompute_SortsUnorderedFills(t *testing.T) {
	// Same fills as the FIFO case, supplied out of order; the engine
	// must sort by timestamp before matching.
	fills := []types.Fill{
		{TokenID: "tok", Side: types.SideSell, Price: 0.70, Size: 12, Timestamp: 3},
		{TokenID: "tok", Side: types.SideBuy, Price: 0.60, Size: 5, Timestamp: 2},
		{TokenID: "tok", Side: types.SideBuy, Price: 0.40, Size: 10, Timestamp: 1},
	}

	res := Compute(fills)

	assert.InDelta(t, 3.2, res.Realized, epsilon)
	assert.InDelta(t, 3.0, res.RemainingQty, epsilon)
	assert.InDelta(t, 0.60, res.AvgCost, epsilon)
}

func TestCompute_EqualTimestampsPreserveInputOrder(t *testing.T) {
	// The sort is stable: fills with identical (or missing) timestamps
	// are matched in input order. Different permutations of equal-stamp
	// fills are allowed to produce different realized figures, so each
	// ordering is pinned separately.
	buyFirst := []types.Fill{
		{TokenID: "tok", Side: types.SideBuy, Price: 0.40, Size: 10},
		{TokenID: "tok", Side: types.SideSell, Price: 0.50, Size: 10},
	}
	res := Compute(buyFirst)
	assert.InDelta(t, 1.0, res.Realized, epsilon)
	assert.Zero(t, res.RemainingQty)

	sellFirst := []types.Fill{
		{TokenID: "tok", Side: types.SideSell, Price: 0.50, Size: 10},
		{TokenID: "tok", Side: types.SideBuy, Price: 0.40, Size: 10},
	}
	res = Compute(sellFirst)
	// The sell realizes against a zero cost basis; the buy stays open.
	assert.InDelta(t, 5.0, res.Realized, epsilon)
	assert.InDelta(t, 10.0, res.RemainingQty, epsilon)
	assert.InDelta(t, 0.40, res.AvgCost, epsilon)
}

func TestCompute_DropsInvalidFills(t *testing.T) {
	tests := []struct {
		name string
		fill types.Fill
	}{
		{
			name: "zero-size",
			fill: types.Fill{Side: types.SideBuy, Price: 0.50, Size: 0},
		},
		{
			name: "negative-size",
			fill: types.Fill{Side: types.SideBuy, Price: 0.50, Size: -3},
		},
		{
			name: "fractional-size-below-one",
			fill: types.Fill{Side: types.SideBuy, Price: 0.50, Size: 0.9},
		},
		{
			name: "negative-price",
			fill: types.Fill{Side: types.SideBuy, Price: -0.10, Size: 5},
		},
		{
			name: "nan-price",
			fill: types.Fill{Side: types.SideBuy, Price: math.NaN(), Size: 5},
		},
		{
			name: "unknown-side",
			fill: types.Fill{Side: "HOLD", Price: 0.50, Size: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compute([]types.Fill{tt.fill})
			assert.Zero(t, res.Realized)
			assert.Zero(t, res.RemainingQty)
			assert.Zero(t, res.AvgCost)
		})
	}
}

func TestCompute_FractionalSizeFloored(t *testing.T) {
	fills := []types.Fill{
		{TokenID: "tok", Side: types.SideBuy, Price: 0.50, Size: 10.7, Timestamp: 1},
	}

	res := Compute(fills)

	require.InDelta(t, 10.0, res.RemainingQty, epsilon)
	assert.InDelta(t, 0.50, res.AvgCost, epsilon)
}

func TestCompute_SellSpansMultipleLots(t *testing.T) {
	fills := []types.Fill{
		{TokenID: "tok", Side: types.SideBuy, Price: 0.10, Size: 2, Timestamp: 1},
		{TokenID: "tok", Side: types.SideBuy, Price: 0.20, Size: 2, Timestamp: 2},
		{TokenID: "tok", Side: types.SideBuy, Price: 0.30, Size: 2, Timestamp: 3},
		{TokenID: "tok", Side: types.SideSell, Price: 0.50, Size: 5, Timestamp: 4},
	}

	res := Compute(fills)

	// 2*(0.5-0.1) + 2*(0.5-0.2) + 1*(0.5-0.3) = 0.8 + 0.6 + 0.2
	assert.InDelta(t, 1.6, res.Realized, epsilon)
	assert.InDelta(t, 1.0, res.RemainingQty, epsilon)
	assert.InDelta(t, 0.30, res.AvgCost, epsilon)
}

func TestMarkToMarket(t *testing.T) {
	tests := []struct {
		name     string
		qty      float64
		mark     float64
		avgCost  float64
		expected float64
	}{
		{name: "gain", qty: 10, mark: 0.60, avgCost: 0.40, expected: 2.0},
		{name: "loss", qty: 10, mark: 0.30, avgCost: 0.40, expected: -1.0},
		{name: "flat", qty: 10, mark: 0.40, avgCost: 0.40, expected: 0},
		{name: "no-position", qty: 0, mark: 0.90, avgCost: 0.40, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MarkToMarket(tt.qty, tt.mark, tt.avgCost), epsilon)
		})
	}
}
