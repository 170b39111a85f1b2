package midi

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	serr "github.com/dygy/sc-sampler/internal/errors"
)

// csvRow is one MIDICSV record with its file position preserved.
type csvRow struct {
	tick   int
	order  int
	kind   string
	fields []string
}

func readCSVRows(path string) ([]csvRow, int, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, false, fmt.Errorf("open midicsv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, 0, false, fmt.Errorf("read midicsv: %w", err)
	}

	rows := make([]csvRow, 0, len(records))
	ticksPerBeat := 0
	haveHeader := false
	for i, rec := range records {
		if len(rec) < 3 {
			continue
		}
		kind := strings.TrimSpace(rec[2])
		if kind == "Header" {
			if len(rec) >= 6 {
				if div, err := strconv.Atoi(strings.TrimSpace(rec[5])); err == nil && div > 0 {
					ticksPerBeat = div
					haveHeader = true
				}
			}
			continue
		}
		tick, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			continue
		}
		rows = append(rows, csvRow{tick: tick, order: i, kind: kind, fields: rec})
	}
	return rows, ticksPerBeat, haveHeader, nil
}

func rowInt(fields []string, idx int) (int, bool) {
	if idx >= len(fields) {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(fields[idx]))
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseMIDICSVOnsets reads a MIDICSV file as a percussion onset list:
// every Note_on_c with velocity above zero becomes a RawEvent. A Header
// row is optional; without one the division defaults to
// DefaultTicksPerBeat.
func ParseMIDICSVOnsets(path string) ([]RawEvent, []TempoChange, int, error) {
	rows, ticksPerBeat, haveHeader, err := readCSVRows(path)
	if err != nil {
		return nil, nil, 0, err
	}
	if !haveHeader {
		ticksPerBeat = DefaultTicksPerBeat
	}

	var events []RawEvent
	var tempos []TempoChange
	for _, row := range rows {
		switch row.kind {
		case "Tempo":
			if micros, ok := rowInt(row.fields, 3); ok {
				tempos = append(tempos, TempoChange{Tick: row.tick, MicrosPerBeat: micros})
			}
		case "Note_on_c":
			note, okN := rowInt(row.fields, 4)
			vel, okV := rowInt(row.fields, 5)
			if okN && okV && vel > 0 {
				events = append(events, RawEvent{Tick: row.tick, Note: note, Velocity: vel})
			}
		}
	}
	return events, tempos, ticksPerBeat, nil
}

// ParseMIDICSVNotes reads a MIDICSV file as melodic material, pairing
// note-on and note-off rows into Notes with durations. The Header row is
// required here because durations are meaningless without the division.
func ParseMIDICSVNotes(path string) ([]Note, error) {
	rows, ticksPerBeat, haveHeader, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}
	if !haveHeader {
		return nil, fmt.Errorf("%s: %w", path, serr.ErrMissingHeader)
	}

	parsed := make([]noteRow, 0, len(rows))
	for _, row := range rows {
		switch row.kind {
		case "Tempo":
			if micros, ok := rowInt(row.fields, 3); ok {
				parsed = append(parsed, noteRow{tick: row.tick, order: row.order, kind: rowTempo, micros: micros})
			}
		case "Note_on_c", "Note_off_c":
			ch, okC := rowInt(row.fields, 3)
			note, okN := rowInt(row.fields, 4)
			vel, okV := rowInt(row.fields, 5)
			if !okC || !okN || !okV {
				continue
			}
			kind := rowNoteOff
			if row.kind == "Note_on_c" && vel > 0 {
				kind = rowNoteOn
			}
			parsed = append(parsed, noteRow{
				tick:     row.tick,
				order:    row.order,
				kind:     kind,
				channel:  ch,
				note:     note,
				velocity: vel,
			})
		}
	}
	return pairNotes(parsed, ticksPerBeat), nil
}
