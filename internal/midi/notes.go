package midi

import "sort"

type rowKind int

const (
	rowTempo rowKind = iota
	rowNoteOn
	rowNoteOff
)

// noteRow is a tick-time event from either parser, carrying its source
// position so rows at the same tick keep their original order.
type noteRow struct {
	tick     int
	order    int
	kind     rowKind
	channel  int
	note     int
	velocity int
	micros   int
}

type pendingNote struct {
	start    float64
	velocity int
}

// pairNotes walks rows sorted by (tick, order), accumulating elapsed
// seconds under the running tempo and matching offs to ons per
// (channel, note) in FIFO order. Unmatched offs are dropped; notes still
// held at the end are dropped too.
func pairNotes(rows []noteRow, ticksPerBeat int) []Note {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].tick != rows[j].tick {
			return rows[i].tick < rows[j].tick
		}
		return rows[i].order < rows[j].order
	})

	tempo := DefaultTempo
	lastTick := 0
	elapsed := 0.0
	active := make(map[[2]int][]pendingNote)
	var notes []Note

	for _, row := range rows {
		delta := row.tick - lastTick
		if delta > 0 {
			elapsed += float64(delta) * float64(tempo) / float64(ticksPerBeat) / 1e6
			lastTick = row.tick
		}
		switch row.kind {
		case rowTempo:
			tempo = row.micros
		case rowNoteOn:
			key := [2]int{row.channel, row.note}
			active[key] = append(active[key], pendingNote{start: elapsed, velocity: row.velocity})
		case rowNoteOff:
			key := [2]int{row.channel, row.note}
			pending := active[key]
			if len(pending) == 0 {
				continue
			}
			p := pending[0]
			active[key] = pending[1:]
			notes = append(notes, Note{
				Pitch:    row.note,
				Start:    p.start,
				Duration: elapsed - p.start,
				Velocity: p.velocity,
			})
		}
	}

	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Start < notes[j].Start })
	return notes
}
