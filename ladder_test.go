package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Scenario C: same-candle BUY + deeper ADD.
func TestLadderBuyThenAddSameCandle(t *testing.T) {
	st := NewEngineState("TEST", 100)
	st.Mode = modeWait
	st.setL(decimal.NewFromInt(45))

	c := mkCandle("2020-02-01", 54, 54, 45, 47)
	events := stepLadder(st, c, c.dateKey())

	require.Len(t, events, 2)
	require.Equal(t, "BUY B2", events[0].label)
	require.Equal(t, "ADD B3", events[1].label)
	require.Equal(t, 3, st.Stage)
	require.True(t, st.FilledLevels[levelB2])
	require.True(t, st.FilledLevels[levelB3])
}

// Scenario D: gap-open sell fills at open, not target.
func TestLadderGapOpenSell(t *testing.T) {
	st := NewEngineState("TEST", 100)
	st.Mode = modeWait
	st.Position = true
	st.Stage = 2
	st.FilledLevels = map[levelName]bool{levelB2: true}
	st.setL(decimal.NewFromInt(50))

	c := mkCandle("2020-02-02", 62, 64, 60, 63)
	events := stepLadder(st, c, c.dateKey())

	require.Len(t, events, 1)
	ev := events[0]
	require.Equal(t, "SELL S2", ev.label)
	require.True(t, ev.fillPrice.Equal(decimal.NewFromInt(62)), "gap-open should fill at today's open")
	require.True(t, st.Cutoff.Equal(decimal.NewFromInt(62)))
	require.False(t, st.Position)
}

// Scenario A's Day4 SELL: target fill (no gap-open), cutoff = target.
func TestLadderTargetFillSell(t *testing.T) {
	st := NewEngineState("TEST", 100)
	st.Mode = modeWait
	st.Position = true
	st.Stage = 1
	st.FilledLevels = map[levelName]bool{levelB1: true}
	st.setL(decimal.NewFromInt(56))

	c := mkCandle("2020-01-04", 56, 100, 56, 100)
	events := stepLadder(st, c, c.dateKey())

	require.Len(t, events, 1)
	ev := events[0]
	require.Equal(t, "SELL S1", ev.label)
	want := decimal.NewFromInt(56).Mul(decimal.NewFromFloat(1.077))
	require.True(t, ev.fillPrice.Sub(want).Abs().LessThan(decimal.NewFromFloat(0.0000001)))
	require.True(t, st.Cutoff.Equal(ev.fillPrice))
}

// Scenario E: forbidden gate blocks a level above cutoff after ratchet.
func TestLadderForbiddenGateBlocksBuy(t *testing.T) {
	st := NewEngineState("TEST", 100)
	st.Mode = modeWait
	st.setL(decimal.NewFromInt(45))
	st.setCutoff(decimal.NewFromInt(62))

	// Ratchet H to 120 via override so B1 becomes 67.2, above cutoff=62.
	stepFSM(st, mkCandle("2020-02-05", 67, 67, 65, 66), decimal.NewFromInt(120), true)
	require.True(t, st.Forbidden[levelB1], "B1 should be forbidden once its price exceeds cutoff")

	c := mkCandle("2020-02-06", 67, 68, 65, 66) // range 65-68 crosses B1=67.2
	events := stepLadder(st, c, c.dateKey())
	for _, ev := range events {
		require.NotEqual(t, "BUY B1", ev.label)
	}
}

func TestCrossedInclusive(t *testing.T) {
	low := decimal.NewFromInt(50)
	high := decimal.NewFromInt(60)
	require.True(t, crossed(decimal.NewFromInt(50), low, high))
	require.True(t, crossed(decimal.NewFromInt(60), low, high))
	require.False(t, crossed(decimal.NewFromInt(49), low, high))
	require.False(t, crossed(decimal.NewFromInt(61), low, high))
}
