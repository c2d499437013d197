package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCoinPackage(t *testing.T) {
	pkg, ok := FindCoinPackage("coins-500")
	require.True(t, ok)
	assert.Equal(t, 500, pkg.Coins)
	assert.Equal(t, int64(55_000), pkg.FiatPrice)

	pkg, ok = FindCoinPackage("coins-100")
	require.True(t, ok)
	assert.Equal(t, int64(12_000), pkg.FiatPrice)

	pkg, ok = FindCoinPackage("coins-1000")
	require.True(t, ok)
	assert.Equal(t, int64(100_000), pkg.FiatPrice)

	_, ok = FindCoinPackage("coins-50")
	assert.False(t, ok)
}

func TestFindPremiumPlanPackage(t *testing.T) {
	gold, ok := FindPremiumPlanPackage(PlanGold)
	require.True(t, ok)
	assert.Equal(t, 500, gold.CoinPrice)
	assert.Equal(t, int64(60_000), gold.FiatPrice)
	assert.Zero(t, gold.BonusBoosts)

	diamond, ok := FindPremiumPlanPackage(PlanDiamond)
	require.True(t, ok)
	assert.Equal(t, 900, diamond.CoinPrice)
	assert.Equal(t, int64(110_000), diamond.FiatPrice)
	assert.Equal(t, 5, diamond.BonusBoosts)

	_, ok = FindPremiumPlanPackage(PlanNone)
	assert.False(t, ok)
}
