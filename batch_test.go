package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatchReplayIsolatesPerAssetState(t *testing.T) {
	assets := map[string][]Candle{
		"AAA": {
			mkCandle("2020-01-01", 100, 100, 100, 100),
			mkCandle("2020-01-02", 100, 100, 100, 100),
			mkCandle("2020-01-03", 100, 100, 56, 56),
		},
		"BBB": {
			mkCandle("2020-01-01", 200, 200, 200, 200),
			mkCandle("2020-01-02", 200, 200, 200, 200),
			mkCandle("2020-01-03", 200, 220, 200, 210),
		},
	}

	results := BatchReplay(context.Background(), assets, nil, 2)
	require.Len(t, results, 2)

	bySymbol := map[string]BatchResult{}
	for _, r := range results {
		bySymbol[r.Symbol] = r
	}

	require.NoError(t, bySymbol["AAA"].Err)
	require.NotEmpty(t, bySymbol["AAA"].Records)
	require.NoError(t, bySymbol["BBB"].Err)
	require.NotEmpty(t, bySymbol["BBB"].Records)

	// AAA froze (low touched 0.56*H); BBB's H ratcheted instead. Isolated state.
	require.Equal(t, modeWait, bySymbol["AAA"].Records[len(bySymbol["AAA"].Records)-1].Mode)
	require.Equal(t, modeHigh, bySymbol["BBB"].Records[len(bySymbol["BBB"].Records)-1].Mode)
}

func TestBatchReplaySkipsEmptyAssetWithoutFailingOthers(t *testing.T) {
	assets := map[string][]Candle{
		"EMPTY": {},
		"OK": {
			mkCandle("2020-01-01", 100, 100, 100, 100),
			mkCandle("2020-01-02", 100, 100, 100, 100),
		},
	}
	results := BatchReplay(context.Background(), assets, nil, 1)
	require.Len(t, results, 2)
}
