package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestComputeLevelsRatios(t *testing.T) {
	lp := computeLevels(decimal.NewFromInt(100))

	cases := map[levelName]string{
		levelB1:   "56",
		levelB2:   "52",
		levelB3:   "46",
		levelB4:   "41",
		levelB5:   "35",
		levelB6:   "28",
		levelB7:   "21",
		levelStop: "19",
	}
	for n, want := range cases {
		require.True(t, lp.price(n).Equal(decimal.RequireFromString(want)), "level %s price", n)
	}
}

func TestComputeLevelsPanicsOnNonPositiveH(t *testing.T) {
	require.Panics(t, func() { computeLevels(decimal.Zero) })
	require.Panics(t, func() { computeLevels(decimal.NewFromInt(-1)) })
}

func TestOrderedAscendingByPrice(t *testing.T) {
	lp := computeLevels(decimal.NewFromInt(100))
	order := lp.orderedAscendingByPrice()
	require.Equal(t, levelStop, order[0])
	require.Equal(t, levelB1, order[len(order)-1])
}
