package piano

import (
	"fmt"
	"sort"
)

// PerformanceStyle shapes how parsed notes are voiced: dynamics,
// envelope, timing looseness, and stereo placement.
type PerformanceStyle struct {
	Name        string
	Description string

	AmpScale    float64
	AmpExponent float64

	DynamicCurve float64
	DynamicBias  float64

	Attack       float64
	Legato       float64
	ReleaseScale float64
	ReleaseMin   float64
	ReleaseMax   float64

	TimingJitter float64

	// PanMode is "random" or "keyboard".
	PanMode   string
	PanJitter float64

	MelodyGain        float64
	AccompanimentGain float64
}

var styles = map[string]PerformanceStyle{
	"raw": {
		Name:              "raw",
		Description:       "Direct MIDI playback: dry, per-note random pan, minimal shaping",
		AmpScale:          2.0,
		AmpExponent:       1.0,
		DynamicCurve:      1.0,
		DynamicBias:       0.0,
		Attack:            0.0,
		Legato:            1.0,
		ReleaseScale:      0.35,
		ReleaseMin:        0.5,
		ReleaseMax:        4.0,
		TimingJitter:      0.0,
		PanMode:           "random",
		PanJitter:         0.0,
		MelodyGain:        1.0,
		AccompanimentGain: 1.0,
	},
	"debussy": {
		Name:              "debussy",
		Description:       "Softer dynamics, more legato, stable keyboard pan",
		AmpScale:          0.3,
		AmpExponent:       1.2,
		DynamicCurve:      1.3,
		DynamicBias:       -0.15,
		Attack:            0.008,
		Legato:            1.05,
		ReleaseScale:      0.65,
		ReleaseMin:        2.5,
		ReleaseMax:        12.0,
		TimingJitter:      0.004,
		PanMode:           "keyboard",
		PanJitter:         0.045,
		MelodyGain:        1.06,
		AccompanimentGain: 0.88,
	},
}

// Style looks up a performance style by name.
func Style(name string) (PerformanceStyle, error) {
	s, ok := styles[name]
	if !ok {
		return PerformanceStyle{}, fmt.Errorf("unknown performance style %q (have %v)", name, StyleNames())
	}
	return s, nil
}

// StyleNames lists the available styles in stable order.
func StyleNames() []string {
	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
