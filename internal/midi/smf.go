package midi

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

func readSMF(path string) (*smf.SMF, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open midi file: %w", err)
	}
	defer f.Close()

	s, err := smf.ReadFrom(f)
	if err != nil {
		return nil, 0, fmt.Errorf("parse midi file: %w", err)
	}

	ticksPerBeat := DefaultTicksPerBeat
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		ticksPerBeat = int(mt.Resolution())
	}
	return s, ticksPerBeat, nil
}

func bpmToMicros(bpm float64) int {
	if bpm <= 0 {
		return DefaultTempo
	}
	return int(math.Round(60e6 / bpm))
}

// ParseSMFOnsets reads a standard MIDI file as a percussion onset list,
// merging all tracks. Note-ons with velocity above zero become RawEvents;
// tempo metas from any track land in the tempo map.
func ParseSMFOnsets(path string) ([]RawEvent, []TempoChange, int, error) {
	s, ticksPerBeat, err := readSMF(path)
	if err != nil {
		return nil, nil, 0, err
	}

	var events []RawEvent
	var tempos []TempoChange
	for _, track := range s.Tracks {
		tick := 0
		for _, ev := range track {
			tick += int(ev.Delta)
			var bpm float64
			var ch, key, vel uint8
			if ev.Message.GetMetaTempo(&bpm) {
				tempos = append(tempos, TempoChange{Tick: tick, MicrosPerBeat: bpmToMicros(bpm)})
			} else if ev.Message.GetNoteStart(&ch, &key, &vel) {
				events = append(events, RawEvent{Tick: tick, Note: int(key), Velocity: int(vel)})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Tick < events[j].Tick })
	sort.SliceStable(tempos, func(i, j int) bool { return tempos[i].Tick < tempos[j].Tick })
	return events, tempos, ticksPerBeat, nil
}

// ParseSMFNotes reads a standard MIDI file as melodic material, pairing
// note starts and ends across all tracks into Notes with durations.
func ParseSMFNotes(path string) ([]Note, error) {
	s, ticksPerBeat, err := readSMF(path)
	if err != nil {
		return nil, err
	}

	var rows []noteRow
	order := 0
	for _, track := range s.Tracks {
		tick := 0
		for _, ev := range track {
			tick += int(ev.Delta)
			var bpm float64
			var ch, key, vel uint8
			switch {
			case ev.Message.GetMetaTempo(&bpm):
				rows = append(rows, noteRow{tick: tick, order: order, kind: rowTempo, micros: bpmToMicros(bpm)})
			case ev.Message.GetNoteStart(&ch, &key, &vel):
				rows = append(rows, noteRow{tick: tick, order: order, kind: rowNoteOn, channel: int(ch), note: int(key), velocity: int(vel)})
			case ev.Message.GetNoteEnd(&ch, &key):
				rows = append(rows, noteRow{tick: tick, order: order, kind: rowNoteOff, channel: int(ch), note: int(key)})
			}
			order++
		}
	}
	return pairNotes(rows, ticksPerBeat), nil
}
