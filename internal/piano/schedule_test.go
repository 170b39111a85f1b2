package piano

import (
	"context"
	"math/rand"
	"testing"

	"github.com/dygy/sc-sampler/internal/engine"
	"github.com/dygy/sc-sampler/internal/midi"
)

type recordingTimeline struct {
	placements []engine.Placement
}

func (r *recordingTimeline) Offline() bool { return true }

func (r *recordingTimeline) LoadBuffers(_ context.Context, paths []string) ([]engine.Buffer, error) {
	buffers := make([]engine.Buffer, 0, len(paths))
	for i, p := range paths {
		buffers = append(buffers, engine.Buffer{Num: int32(i), Path: p})
	}
	return buffers, nil
}

func (r *recordingTimeline) PlayAt(t float64, def string, ctls map[string]float32) (engine.Voice, error) {
	r.placements = append(r.placements, engine.Placement{Time: t, Def: def, Ctls: ctls})
	return silentVoice{}, nil
}

func (r *recordingTimeline) Close() error { return nil }

type silentVoice struct{}

func (silentVoice) Set(map[string]float32) error { return nil }
func (silentVoice) Release() error               { return nil }

func packBuffers() []engine.Buffer {
	buffers := make([]engine.Buffer, 3*SamplesPerDynamic)
	for i := range buffers {
		buffers[i] = engine.Buffer{Num: int32(i), Path: "piano.wav"}
	}
	return buffers
}

func rawOpts(seed int64) ScheduleOptions {
	return ScheduleOptions{Rand: rand.New(rand.NewSource(seed))}
}

func TestScheduleNotes(t *testing.T) {
	lookup := BuildLookup(false)
	buffers := packBuffers()

	t.Run("PlacesEveryNote", func(t *testing.T) {
		tl := &recordingTimeline{}
		notes := []midi.Note{
			{Pitch: 60, Start: 0.0, Duration: 0.5, Velocity: 80},
			{Pitch: 64, Start: 0.5, Duration: 1.0, Velocity: 100},
		}
		end, err := ScheduleNotes(tl, lookup, buffers, notes, rawOpts(1))
		if err != nil {
			t.Fatal(err)
		}
		if len(tl.placements) != 2 {
			t.Fatalf("got %d placements, want 2", len(tl.placements))
		}
		if tl.placements[0].Def != engine.DefPianoVoice {
			t.Errorf("def = %s", tl.placements[0].Def)
		}
		if end <= 0.5 {
			t.Errorf("end = %f, want past the last note start", end)
		}
	})

	t.Run("MelodyGetsGainInChords", func(t *testing.T) {
		tl := &recordingTimeline{}
		notes := []midi.Note{
			{Pitch: 52, Start: 0.0, Duration: 1.0, Velocity: 90},
			{Pitch: 76, Start: 0.0, Duration: 1.0, Velocity: 90},
		}
		style, err := Style("debussy")
		if err != nil {
			t.Fatal(err)
		}
		opts := rawOpts(1)
		opts.Style = style
		if _, err := ScheduleNotes(tl, lookup, buffers, notes, opts); err != nil {
			t.Fatal(err)
		}
		if len(tl.placements) != 2 {
			t.Fatalf("got %d placements, want 2", len(tl.placements))
		}
		// Both notes share a velocity, so only the melody and
		// accompaniment gains separate their amps.
		a0 := float64(tl.placements[0].Ctls["amp"])
		a1 := float64(tl.placements[1].Ctls["amp"])
		ratio := a1 / a0
		want := style.MelodyGain / style.AccompanimentGain
		if ratio < want-1e-4 || ratio > want+1e-4 {
			t.Errorf("amp ratio = %f, want %f", ratio, want)
		}
	})

	t.Run("ReleaseClampedToStyleBounds", func(t *testing.T) {
		tl := &recordingTimeline{}
		notes := []midi.Note{
			{Pitch: 60, Start: 0, Duration: 0.05, Velocity: 80},
			{Pitch: 62, Start: 1, Duration: 100, Velocity: 80},
		}
		style, _ := Style("raw")
		opts := rawOpts(1)
		opts.Style = style
		if _, err := ScheduleNotes(tl, lookup, buffers, notes, opts); err != nil {
			t.Fatal(err)
		}
		if rel := tl.placements[0].Ctls["release"]; rel != float32(style.ReleaseMin) {
			t.Errorf("short note release = %f, want %f", rel, style.ReleaseMin)
		}
		if rel := tl.placements[1].Ctls["release"]; rel != float32(style.ReleaseMax) {
			t.Errorf("long note release = %f, want %f", rel, style.ReleaseMax)
		}
	})

	t.Run("SeededScheduleIsReproducible", func(t *testing.T) {
		notes := []midi.Note{
			{Pitch: 60, Start: 0.0, Duration: 0.5, Velocity: 80},
			{Pitch: 67, Start: 0.25, Duration: 0.5, Velocity: 70},
		}
		tl1 := &recordingTimeline{}
		if _, err := ScheduleNotes(tl1, lookup, buffers, notes, rawOpts(42)); err != nil {
			t.Fatal(err)
		}
		tl2 := &recordingTimeline{}
		if _, err := ScheduleNotes(tl2, lookup, buffers, notes, rawOpts(42)); err != nil {
			t.Fatal(err)
		}
		for i := range tl1.placements {
			if tl1.placements[i].Ctls["pan"] != tl2.placements[i].Ctls["pan"] {
				t.Errorf("placement %d pans differ across seeded runs", i)
			}
		}
	})

	t.Run("JitterNeverMovesBeforeStart", func(t *testing.T) {
		style, _ := Style("debussy")
		for seed := int64(0); seed < 20; seed++ {
			tl := &recordingTimeline{}
			opts := rawOpts(seed)
			opts.Style = style
			opts.Start = 0.1
			notes := []midi.Note{{Pitch: 60, Start: 0.0, Duration: 0.5, Velocity: 80}}
			if _, err := ScheduleNotes(tl, lookup, buffers, notes, opts); err != nil {
				t.Fatal(err)
			}
			if tl.placements[0].Time < 0.1 {
				t.Fatalf("seed %d: placement at %f before start", seed, tl.placements[0].Time)
			}
		}
	})
}

func TestSchedulePattern(t *testing.T) {
	lookup := BuildLookup(false)
	buffers := packBuffers()
	tl := &recordingTimeline{}

	p := Pattern{
		Notes:    []int{62, 65, 69},
		Durs:     []float64{0.5},
		Dynamics: []int{1},
		Amps:     []float64{0.5},
		Release:  4,
	}
	end, err := SchedulePattern(tl, lookup, buffers, p, 0, 2.0, rawOpts(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.placements) != 4 {
		t.Errorf("got %d placements, want 4 steps in 2s at 0.5s each", len(tl.placements))
	}
	if end != 2.0+p.Release {
		t.Errorf("end = %f, want %f", end, 2.0+p.Release)
	}
	// Pattern lists cycle independently of each other.
	if tl.placements[3].Ctls["bufnum"] != tl.placements[0].Ctls["bufnum"] {
		t.Errorf("step 3 should wrap back to the first note")
	}
}

func TestScheduleRiff(t *testing.T) {
	lookup := BuildLookup(false)
	buffers := packBuffers()
	tl := &recordingTimeline{}

	end, err := ScheduleRiff(tl, lookup, buffers, 4.0, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.placements) == 0 {
		t.Fatal("no placements scheduled")
	}
	for _, p := range tl.placements {
		if p.Time < riffStart {
			t.Errorf("placement at %f before riff start", p.Time)
		}
	}
	if end <= 4.0 {
		t.Errorf("end = %f, want past pattern duration", end)
	}
}

func TestStyleLookup(t *testing.T) {
	if _, err := Style("raw"); err != nil {
		t.Error(err)
	}
	if _, err := Style("nope"); err == nil {
		t.Error("expected error for unknown style")
	}
	names := StyleNames()
	if len(names) != 2 || names[0] != "debussy" || names[1] != "raw" {
		t.Errorf("names = %v", names)
	}
}
