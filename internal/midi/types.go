// Package midi parses standard MIDI files and MIDICSV text and resolves
// tick time bases into absolute seconds against a tempo map.
package midi

// DefaultTicksPerBeat is the MIDICSV fallback division when no Header row
// is present (drum flavor only; melodic parsing requires the Header).
const DefaultTicksPerBeat = 480

// DefaultTempo is 120 BPM in microseconds per beat.
const DefaultTempo = 500000

// RawEvent is a note onset still in tick time.
type RawEvent struct {
	Tick     int
	Note     int
	Velocity int
}

// TempoChange sets the tempo from a given tick onward.
type TempoChange struct {
	Tick          int
	MicrosPerBeat int
}

// TimedEvent is a note onset resolved to absolute seconds.
type TimedEvent struct {
	Time     float64
	Note     int
	Velocity int
}

// Note is a melodic note with a duration, resolved to seconds.
type Note struct {
	Pitch    int     `json:"pitch"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Velocity int     `json:"velocity"`
}

// DrumEvent is a scheduled percussion request. Pan is optional; nil falls
// back to the instrument's default.
type DrumEvent struct {
	Time       float64
	Instrument string
	Velocity   int
	Pan        *float64
}
