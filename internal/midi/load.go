package midi

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	serr "github.com/dygy/sc-sampler/internal/errors"
)

// LoadOnsets reads a percussion onset list from either a standard MIDI
// file (.mid, .midi) or MIDICSV text (.csv, .midicsv), resolved to seconds.
func LoadOnsets(path string) ([]TimedEvent, error) {
	var (
		events []RawEvent
		tempos []TempoChange
		tpb    int
		err    error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mid", ".midi":
		events, tempos, tpb, err = ParseSMFOnsets(path)
	case ".csv", ".midicsv":
		events, tempos, tpb, err = ParseMIDICSVOnsets(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, serr.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}
	return ConvertTicksToSeconds(events, tempos, tpb), nil
}

// LoadNotes reads melodic material with durations from either a standard
// MIDI file or MIDICSV text.
func LoadNotes(path string) ([]Note, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mid", ".midi":
		return ParseSMFNotes(path)
	case ".csv", ".midicsv":
		return ParseMIDICSVNotes(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, serr.ErrUnsupportedFormat)
	}
}

// BuildDrumEvents maps timed onsets onto instruments and normalizes the
// result so the earliest event lands at time zero. Onsets whose note
// number has no mapping are skipped. The returned slice is sorted by
// time; running it through again with an identity mapping changes
// nothing.
func BuildDrumEvents(events []TimedEvent, mapping map[int]string) []DrumEvent {
	out := make([]DrumEvent, 0, len(events))
	earliest := 0.0
	first := true
	for _, ev := range events {
		name, ok := mapping[ev.Note]
		if !ok {
			continue
		}
		if first || ev.Time < earliest {
			earliest = ev.Time
			first = false
		}
		out = append(out, DrumEvent{Time: ev.Time, Instrument: name, Velocity: ev.Velocity})
	}
	for i := range out {
		out[i].Time -= earliest
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
