package midi

import "sort"

// ConvertTicksToSeconds resolves note onsets in tick time to absolute
// seconds by walking the tempo map. Tempo changes at a given tick take
// effect before notes at the same tick. An empty tempo map means
// DefaultTempo throughout; a tempo map whose first change sits past tick
// zero still supplies the initial tempo.
func ConvertTicksToSeconds(events []RawEvent, tempos []TempoChange, ticksPerBeat int) []TimedEvent {
	if ticksPerBeat <= 0 {
		ticksPerBeat = DefaultTicksPerBeat
	}
	if len(tempos) == 0 {
		tempos = []TempoChange{{Tick: 0, MicrosPerBeat: DefaultTempo}}
	}

	type entry struct {
		tick  int
		kind  int // 0 tempo, 1 note
		index int
	}
	combined := make([]entry, 0, len(events)+len(tempos))
	for i, tc := range tempos {
		combined = append(combined, entry{tick: tc.Tick, kind: 0, index: i})
	}
	for i, ev := range events {
		combined = append(combined, entry{tick: ev.Tick, kind: 1, index: i})
	}
	sort.SliceStable(combined, func(i, j int) bool {
		if combined[i].tick != combined[j].tick {
			return combined[i].tick < combined[j].tick
		}
		return combined[i].kind < combined[j].kind
	})

	tempo := tempos[0].MicrosPerBeat
	lastTick := 0
	elapsed := 0.0
	out := make([]TimedEvent, 0, len(events))
	for _, e := range combined {
		delta := e.tick - lastTick
		if delta > 0 {
			elapsed += float64(delta) * float64(tempo) / float64(ticksPerBeat) / 1e6
			lastTick = e.tick
		}
		if e.kind == 0 {
			tempo = tempos[e.index].MicrosPerBeat
		} else {
			ev := events[e.index]
			out = append(out, TimedEvent{Time: elapsed, Note: ev.Note, Velocity: ev.Velocity})
		}
	}
	return out
}
