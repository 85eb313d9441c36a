package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestProjectorStopLossSentinelWhenStage7Held(t *testing.T) {
	last := DebugRecord{Position: true, Stage: 7, AllowedCount: 0}
	name, _, ok := deriveNextBuyTarget(last)
	require.True(t, ok)
	require.Equal(t, stopLossSentinel, name)
}

func TestProjectorAllForbiddenSentinel(t *testing.T) {
	last := DebugRecord{AllowedCount: 0}
	name, _, ok := deriveNextBuyTarget(last)
	require.True(t, ok)
	require.Equal(t, allForbiddenSentinel, name)
}

func TestProjectorAllAllowedTargetsB1(t *testing.T) {
	lp := computeLevels(decimal.NewFromInt(100))
	last := DebugRecord{AllowedCount: 7, Levels: lp}
	name, price, ok := deriveNextBuyTarget(last)
	require.True(t, ok)
	require.Equal(t, "B1", name)
	require.True(t, price.Equal(lp.price(levelB1)))
}

func TestProjectorPartialAllowedMapsToLevel(t *testing.T) {
	lp := computeLevels(decimal.NewFromInt(100))
	// allowed=6 -> B{8-6}=B2
	last := DebugRecord{AllowedCount: 6, Levels: lp}
	name, price, ok := deriveNextBuyTarget(last)
	require.True(t, ok)
	require.Equal(t, "B2", name)
	require.True(t, price.Equal(lp.price(levelB2)))
}

func TestProjectorDistancePct(t *testing.T) {
	lp := computeLevels(decimal.NewFromInt(100))
	last := DebugRecord{AllowedCount: 7, Levels: lp, Close: decimal.NewFromFloat(58.8)}
	p := AlertProjector{}
	snap := p.Project("TEST", 1, 1e9, last)
	require.True(t, snap.HasNextBuy)
	require.True(t, snap.HasDistance)
	// (58.8-56)/56*100 = 5
	require.True(t, snap.DistancePct.Sub(decimal.NewFromFloat(5)).Abs().LessThan(decimal.NewFromFloat(0.01)))
}
