package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
	"github.com/yanet-platform/mlrepeater/repeater"
	"github.com/yanet-platform/mlrepeater/repeater/internal/replay"
)

func TestPrintReport(t *testing.T) {
	report := &replay.Report{
		Results: []replay.Result{
			{
				Index:   0,
				Src:     xnet.MustParseMAC("02:00:00:00:00:10"),
				Dst:     xnet.MustParseMAC("01:00:5e:00:00:fb"),
				Verdict: repeater.Drop,
			},
		},
		Skipped: 1,
		Sent:    map[string]int{"ath1": 2},
		Stats:   repeater.Stats{"loop_detected": 1, "fwd_no_ref": 0},
		State:   repeater.State{LoopDetected: true},
	}

	out := &bytes.Buffer{}
	require.NoError(t, printReport(out, report))

	text := out.String()
	require.Contains(t, text, "02:00:00:00:00:10")
	require.Contains(t, text, "drop")
	require.Contains(t, text, "sent[ath1]")
	require.Contains(t, text, "loop_detected")
	require.NotContains(t, text, "fwd_no_ref")
}

func TestReplayCmdRejectsUnknownPath(t *testing.T) {
	err := runReplay(ReplayCmd{Path: "sta-fwd"}, &bytes.Buffer{})
	require.Error(t, err)
}
