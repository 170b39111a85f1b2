package midi

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	serr "github.com/dygy/sc-sampler/internal/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseMIDICSVOnsets(t *testing.T) {
	t.Run("ExtractsOnsetsAndTempo", func(t *testing.T) {
		path := writeCSV(t, `0, 0, Header, 1, 2, 480
1, 0, Start_track
1, 0, Tempo, 600000
2, 1, Note_on_c, 9, 36, 100
2, 121, Note_off_c, 9, 36, 0
2, 241, Note_on_c, 9, 38, 127
0, 0, End_of_file
`)
		events, tempos, tpb, err := ParseMIDICSVOnsets(path)
		if err != nil {
			t.Fatal(err)
		}
		if tpb != 480 {
			t.Errorf("ticks per beat = %d, want 480", tpb)
		}
		wantEvents := []RawEvent{
			{Tick: 1, Note: 36, Velocity: 100},
			{Tick: 241, Note: 38, Velocity: 127},
		}
		if len(events) != len(wantEvents) {
			t.Fatalf("got %d events, want %d", len(events), len(wantEvents))
		}
		for i, want := range wantEvents {
			if events[i] != want {
				t.Errorf("event %d = %+v, want %+v", i, events[i], want)
			}
		}
		if len(tempos) != 1 || tempos[0] != (TempoChange{Tick: 0, MicrosPerBeat: 600000}) {
			t.Errorf("tempos = %+v", tempos)
		}
	})

	t.Run("ZeroVelocityOnIsSilent", func(t *testing.T) {
		path := writeCSV(t, `0, 0, Header, 1, 2, 480
2, 0, Note_on_c, 9, 36, 90
2, 120, Note_on_c, 9, 36, 0
`)
		events, _, _, err := ParseMIDICSVOnsets(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 1 {
			t.Fatalf("got %d events, want 1", len(events))
		}
	})

	t.Run("MissingHeaderFallsBackTo480", func(t *testing.T) {
		path := writeCSV(t, `2, 480, Note_on_c, 9, 36, 90
`)
		events, _, tpb, err := ParseMIDICSVOnsets(path)
		if err != nil {
			t.Fatal(err)
		}
		if tpb != DefaultTicksPerBeat {
			t.Errorf("ticks per beat = %d, want %d", tpb, DefaultTicksPerBeat)
		}
		if len(events) != 1 || events[0].Tick != 480 {
			t.Errorf("events = %+v", events)
		}
	})
}

func TestParseMIDICSVNotes(t *testing.T) {
	t.Run("PairsDurations", func(t *testing.T) {
		path := writeCSV(t, `0, 0, Header, 1, 2, 480
2, 0, Note_on_c, 0, 60, 80
2, 480, Note_off_c, 0, 60, 0
2, 480, Note_on_c, 0, 64, 100
2, 1440, Note_on_c, 0, 64, 0
`)
		notes, err := ParseMIDICSVNotes(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(notes) != 2 {
			t.Fatalf("got %d notes, want 2", len(notes))
		}
		first := notes[0]
		if first.Pitch != 60 || !almostEqual(first.Start, 0.0) || !almostEqual(first.Duration, 0.5) || first.Velocity != 80 {
			t.Errorf("first note = %+v", first)
		}
		second := notes[1]
		if second.Pitch != 64 || !almostEqual(second.Start, 0.5) || !almostEqual(second.Duration, 1.0) {
			t.Errorf("second note = %+v", second)
		}
	})

	t.Run("OverlappingSameNotePairsFIFO", func(t *testing.T) {
		path := writeCSV(t, `0, 0, Header, 1, 2, 480
2, 0, Note_on_c, 0, 60, 70
2, 240, Note_on_c, 0, 60, 90
2, 480, Note_off_c, 0, 60, 0
2, 960, Note_off_c, 0, 60, 0
`)
		notes, err := ParseMIDICSVNotes(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(notes) != 2 {
			t.Fatalf("got %d notes, want 2", len(notes))
		}
		// The first off releases the first on.
		if notes[0].Velocity != 70 || !almostEqual(notes[0].Duration, 0.5) {
			t.Errorf("first note = %+v", notes[0])
		}
		if notes[1].Velocity != 90 || !almostEqual(notes[1].Duration, 0.75) {
			t.Errorf("second note = %+v", notes[1])
		}
	})

	t.Run("TempoChangeMidNote", func(t *testing.T) {
		path := writeCSV(t, `0, 0, Header, 1, 2, 480
2, 0, Note_on_c, 0, 60, 80
1, 480, Tempo, 1000000
2, 960, Note_off_c, 0, 60, 0
`)
		notes, err := ParseMIDICSVNotes(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(notes) != 1 {
			t.Fatalf("got %d notes, want 1", len(notes))
		}
		if !almostEqual(notes[0].Duration, 1.5) {
			t.Errorf("duration = %f, want 1.5", notes[0].Duration)
		}
	})

	t.Run("MissingHeaderIsAnError", func(t *testing.T) {
		path := writeCSV(t, `2, 0, Note_on_c, 0, 60, 80
2, 480, Note_off_c, 0, 60, 0
`)
		_, err := ParseMIDICSVNotes(path)
		if !errors.Is(err, serr.ErrMissingHeader) {
			t.Errorf("err = %v, want ErrMissingHeader", err)
		}
	})

	t.Run("UnmatchedOffIsIgnored", func(t *testing.T) {
		path := writeCSV(t, `0, 0, Header, 1, 2, 480
2, 0, Note_off_c, 0, 60, 0
2, 120, Note_on_c, 0, 62, 90
2, 240, Note_off_c, 0, 62, 0
`)
		notes, err := ParseMIDICSVNotes(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(notes) != 1 || notes[0].Pitch != 62 {
			t.Errorf("notes = %+v", notes)
		}
	})
}

func TestLoadOnsetsRejectsUnknownExtension(t *testing.T) {
	_, err := LoadOnsets("take.wav")
	if !errors.Is(err, serr.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
	_, err = LoadNotes("take.wav")
	if !errors.Is(err, serr.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestBuildDrumEvents(t *testing.T) {
	mapping := map[int]string{36: "kick_open", 38: "snare_bright"}

	t.Run("ShiftsEarliestToZeroAndSorts", func(t *testing.T) {
		timed := []TimedEvent{
			{Time: 2.5, Note: 38, Velocity: 90},
			{Time: 1.25, Note: 36, Velocity: 110},
			{Time: 3.0, Note: 40, Velocity: 64}, // unmapped
		}
		events := BuildDrumEvents(timed, mapping)
		if len(events) != 2 {
			t.Fatalf("got %d events, want 2", len(events))
		}
		if !almostEqual(events[0].Time, 0.0) || events[0].Instrument != "kick_open" {
			t.Errorf("first event = %+v", events[0])
		}
		if !almostEqual(events[1].Time, 1.25) || events[1].Instrument != "snare_bright" {
			t.Errorf("second event = %+v", events[1])
		}
	})

	t.Run("AlreadyNormalizedIsUnchanged", func(t *testing.T) {
		timed := []TimedEvent{
			{Time: 0.0, Note: 36, Velocity: 110},
			{Time: 1.25, Note: 38, Velocity: 90},
		}
		events := BuildDrumEvents(timed, mapping)
		if !almostEqual(events[0].Time, 0.0) || !almostEqual(events[1].Time, 1.25) {
			t.Errorf("events = %+v", events)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		if events := BuildDrumEvents(nil, mapping); len(events) != 0 {
			t.Errorf("events = %+v", events)
		}
	})
}
