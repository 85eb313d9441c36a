package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func mkCandle(date string, o, h, l, c float64) Candle {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return Candle{Date: d, Open: o, High: h, Low: l, Close: c}
}

func TestFSMSeedAndRatchet(t *testing.T) {
	st := NewEngineState("TEST", 100)
	require.Equal(t, modeHigh, st.Mode)
	require.True(t, st.H.Equal(decimal.NewFromInt(100)))

	c := mkCandle("2020-01-02", 100, 120, 95, 110)
	stepFSM(st, c, decimal.Zero, false)
	require.True(t, st.H.Equal(decimal.NewFromInt(120)), "H should ratchet up to today's high")
}

func TestFSMFreezeTransition(t *testing.T) {
	st := NewEngineState("TEST", 100)
	c := mkCandle("2020-01-03", 100, 100, 56, 56)
	res := stepFSM(st, c, decimal.Zero, false)
	require.True(t, res.froze)
	require.Equal(t, modeWait, st.Mode)
	require.True(t, st.hasL)
	require.True(t, st.L.Equal(decimal.NewFromInt(56)))
}

func TestFSMRestartTransition(t *testing.T) {
	st := NewEngineState("TEST", 100)
	_ = stepFSM(st, mkCandle("2020-01-03", 100, 100, 56, 56), decimal.Zero, false)
	require.Equal(t, modeWait, st.Mode)

	// L=56; restart threshold = 1.985*56 = 111.16
	res := stepFSM(st, mkCandle("2020-01-04", 60, 140, 60, 140), decimal.Zero, false)
	require.True(t, res.restarted)
	require.Equal(t, modeHigh, st.Mode)
	require.True(t, st.H.Equal(decimal.NewFromInt(140)))
	require.True(t, st.L.Equal(decimal.NewFromInt(60)))
	require.False(t, st.hasCutoff)
	require.Empty(t, st.Forbidden)
}

func TestFSMOverrideTakesPrecedence(t *testing.T) {
	st := NewEngineState("TEST", 100)
	c := mkCandle("2020-01-05", 100, 105, 95, 100)
	stepFSM(st, c, decimal.NewFromInt(200), true)
	require.True(t, st.H.Equal(decimal.NewFromInt(200)), "override should replace H even though today.high < current H")
}

func TestInvariantsHoldAfterFreeze(t *testing.T) {
	st := NewEngineState("TEST", 100)
	stepFSM(st, mkCandle("2020-01-03", 100, 100, 56, 56), decimal.Zero, false)
	require.NoError(t, st.checkInvariants())
}
