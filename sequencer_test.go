package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequenceDayOrdersBuyAddsSell(t *testing.T) {
	st := NewEngineState("TEST", 100)
	events := []ladderEvent{
		{label: "ADD B4", rank: 1, levelIndex: 4},
		{label: "SELL S4", rank: 2},
		{label: "BUY B2", rank: 0, levelIndex: 2},
		{label: "ADD B3", rank: 1, levelIndex: 3},
	}
	c := mkCandle("2020-03-01", 50, 52, 40, 45)
	rows := sequenceDay(st, c, fsmResult{}, events)

	// 4 events + 1 snapshot row.
	require.Len(t, rows, 5)
	require.Equal(t, "BUY B2", rows[0].Event)
	require.Equal(t, "ADD B3", rows[1].Event)
	require.Equal(t, "ADD B4", rows[2].Event)
	require.Equal(t, "SELL S4", rows[3].Event)
	require.Equal(t, "", rows[4].Event) // snapshot row
}

func TestSequenceDayRestartBeforeBuy(t *testing.T) {
	st := NewEngineState("TEST", 100)
	fsmRes := fsmResult{restarted: true}
	events := []ladderEvent{{label: "BUY B1", rank: 0, levelIndex: 1}}
	c := mkCandle("2020-03-02", 50, 52, 40, 45)
	rows := sequenceDay(st, c, fsmRes, events)

	require.Len(t, rows, 3) // RESTART + BUY + snapshot
	require.Equal(t, "RESTART_+98.5pct", rows[0].Event)
	require.Equal(t, "BUY B1", rows[1].Event)
	require.Equal(t, "", rows[2].Event)
}

func TestSequenceDayAlwaysEmitsSnapshot(t *testing.T) {
	st := NewEngineState("TEST", 100)
	c := mkCandle("2020-03-03", 50, 52, 40, 45)
	rows := sequenceDay(st, c, fsmResult{}, nil)
	require.Len(t, rows, 1)
	require.Equal(t, "", rows[0].Event)
}
