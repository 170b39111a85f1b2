package midi

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestConvertTicksToSeconds(t *testing.T) {
	t.Run("TempoChangeAtNoteTick", func(t *testing.T) {
		events := []RawEvent{
			{Tick: 0, Note: 36, Velocity: 100},
			{Tick: 480, Note: 38, Velocity: 100},
		}
		tempos := []TempoChange{
			{Tick: 0, MicrosPerBeat: 500000},
			{Tick: 480, MicrosPerBeat: 250000},
		}
		timed := ConvertTicksToSeconds(events, tempos, 480)
		if len(timed) != 2 {
			t.Fatalf("expected 2 events, got %d", len(timed))
		}
		if !almostEqual(timed[0].Time, 0.0) {
			t.Errorf("first event at %f, want 0.0", timed[0].Time)
		}
		// The full beat before tick 480 is elapsed under the old tempo,
		// so the second event still lands at 0.5s.
		if !almostEqual(timed[1].Time, 0.5) {
			t.Errorf("second event at %f, want 0.5", timed[1].Time)
		}
	})

	t.Run("DefaultTempoWhenMapEmpty", func(t *testing.T) {
		events := []RawEvent{{Tick: 960, Note: 36, Velocity: 64}}
		timed := ConvertTicksToSeconds(events, nil, 480)
		if !almostEqual(timed[0].Time, 1.0) {
			t.Errorf("event at %f, want 1.0 under 120 BPM default", timed[0].Time)
		}
	})

	t.Run("FirstTempoAppliesFromTickZero", func(t *testing.T) {
		events := []RawEvent{{Tick: 480, Note: 36, Velocity: 64}}
		tempos := []TempoChange{{Tick: 960, MicrosPerBeat: 1000000}}
		timed := ConvertTicksToSeconds(events, tempos, 480)
		if !almostEqual(timed[0].Time, 1.0) {
			t.Errorf("event at %f, want 1.0", timed[0].Time)
		}
	})

	t.Run("NewTempoTakesEffectAfterItsTick", func(t *testing.T) {
		events := []RawEvent{{Tick: 960, Note: 42, Velocity: 80}}
		tempos := []TempoChange{
			{Tick: 0, MicrosPerBeat: 500000},
			{Tick: 480, MicrosPerBeat: 1000000},
		}
		timed := ConvertTicksToSeconds(events, tempos, 480)
		if !almostEqual(timed[0].Time, 1.5) {
			t.Errorf("event at %f, want 1.5", timed[0].Time)
		}
	})

	t.Run("PreservesVelocityAndNote", func(t *testing.T) {
		events := []RawEvent{{Tick: 0, Note: 51, Velocity: 99}}
		timed := ConvertTicksToSeconds(events, nil, 480)
		if timed[0].Note != 51 || timed[0].Velocity != 99 {
			t.Errorf("got note %d velocity %d", timed[0].Note, timed[0].Velocity)
		}
	})
}
