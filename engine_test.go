package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Scenario A (spec.md §8): cold start, freeze + same-day BUY, then SELL.
func TestScenarioA_ColdStartFreezeAndSell(t *testing.T) {
	candles := []Candle{
		mkCandle("2020-01-01", 100, 100, 100, 100), // discarded (listing day)
		mkCandle("2020-01-02", 100, 100, 100, 100), // seeds H=100
		mkCandle("2020-01-03", 100, 100, 56, 56),   // freeze + BUY B1 @56, and SELL S1 the same day (high 100 is a 78.6% rebound)
		mkCandle("2020-01-04", 56, 100, 56, 100),   // BUY B1 again (56 <= cutoff 60.312) + SELL S1
	}

	eng := NewEngine("SCEN-A")
	records, err := eng.Replay(candles)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	var buy, sell *DebugRecord
	for i := range records {
		switch records[i].Event {
		case "BUY B1":
			buy = &records[i]
		case "SELL S1":
			sell = &records[i]
		}
	}
	require.NotNil(t, buy, "expected a BUY B1 event")
	require.True(t, buy.FillPrice.Equal(decimal.NewFromInt(56)))
	require.Equal(t, modeWait, buy.Mode)

	require.NotNil(t, sell, "expected a SELL S1 event")
	wantTarget := decimal.NewFromInt(56).Mul(decimal.NewFromFloat(1.077))
	require.True(t, sell.FillPrice.Sub(wantTarget).Abs().LessThan(decimal.NewFromFloat(0.0000001)))
	require.True(t, sell.CutoffPrice.Equal(sell.FillPrice))
}

// Scenario B (spec.md §8): a +98.5% bounce after Scenario A's SELL clears
// the cutoff and resets H/L from the new high.
func TestScenarioB_RestartClearsCutoff(t *testing.T) {
	candles := []Candle{
		mkCandle("2020-01-01", 100, 100, 100, 100),
		mkCandle("2020-01-02", 100, 100, 100, 100),
		mkCandle("2020-01-03", 100, 100, 56, 56),
		mkCandle("2020-01-04", 56, 100, 56, 100),
		mkCandle("2020-01-05", 60.312, 140, 60.312, 140),
	}

	eng := NewEngine("SCEN-B")
	records, err := eng.Replay(candles)
	require.NoError(t, err)

	var restart *DebugRecord
	for i := range records {
		if records[i].Event == "RESTART_+98.5pct" {
			restart = &records[i]
		}
	}
	require.NotNil(t, restart, "expected a RESTART event on Day5")
	require.Equal(t, modeHigh, restart.Mode)

	last := records[len(records)-1]
	require.True(t, last.H.Equal(decimal.NewFromInt(140)))
	require.False(t, last.HasCutoff, "cutoff should be cleared by restart")
	require.Equal(t, 7, clampAllowedCount(last.AllowedCount))
}

// Scenario F (spec.md §8): L is preserved (not nulled) after SELL, until a
// RESTART fires.
func TestScenarioF_LPreservedAfterSell(t *testing.T) {
	candles := []Candle{
		mkCandle("2020-01-01", 100, 100, 100, 100),
		mkCandle("2020-01-02", 100, 100, 100, 100),
		mkCandle("2020-01-03", 100, 100, 56, 56),
		mkCandle("2020-01-04", 56, 100, 56, 100),
		mkCandle("2020-01-05", 60, 65, 60, 62), // no restart: 65 < 1.985*56
	}

	eng := NewEngine("SCEN-F")
	records, err := eng.Replay(candles)
	require.NoError(t, err)

	last := records[len(records)-1]
	require.True(t, last.HasLNow)
	require.True(t, last.LNow.Equal(decimal.NewFromInt(56)), "L must remain 56 until a RESTART fires")
}

func TestReplaySkipsShortStreams(t *testing.T) {
	eng := NewEngine("SHORT")
	records, err := eng.Replay([]Candle{mkCandle("2020-01-01", 1, 1, 1, 1)})
	require.NoError(t, err)
	require.Nil(t, records)
}

func TestReplaySkipsMalformedCandles(t *testing.T) {
	malformed := mkCandle("2020-01-03", 100, 100, 100, 100)
	malformed.Open = -5 // invalid: negative price, skipped per §7

	candles := []Candle{
		mkCandle("2020-01-01", 100, 100, 100, 100),
		mkCandle("2020-01-02", 100, 100, 100, 100),
		malformed,
		mkCandle("2020-01-04", 100, 110, 95, 105),
	}
	eng := NewEngine("MALFORMED")
	records, err := eng.Replay(candles)
	require.NoError(t, err)
	require.NotEmpty(t, records)
}
