package kit

import "github.com/dygy/sc-sampler/internal/midi"

// DemoVelocities are the soft / medium / hard hits used when auditioning
// each instrument's velocity layers.
var DemoVelocities = []int{45, 80, 115}

const (
	demoSpacing  = 0.4
	sweepSpacing = 0.35
	sweepVel     = 90
)

// InstrumentDemo walks one instrument through DemoVelocities.
func InstrumentDemo(name string) []midi.DrumEvent {
	events := make([]midi.DrumEvent, 0, len(DemoVelocities))
	for i, vel := range DemoVelocities {
		events = append(events, midi.DrumEvent{
			Time:       float64(i) * demoSpacing,
			Instrument: name,
			Velocity:   vel,
		})
	}
	return events
}

// KitDemo auditions every instrument in order: first each one through
// its velocity layers, then a quick sweep across the whole kit.
func KitDemo(names []string) []midi.DrumEvent {
	var events []midi.DrumEvent
	t := 0.0
	for _, name := range names {
		for _, vel := range DemoVelocities {
			events = append(events, midi.DrumEvent{Time: t, Instrument: name, Velocity: vel})
			t += demoSpacing
		}
		t += demoSpacing
	}
	for _, name := range names {
		events = append(events, midi.DrumEvent{Time: t, Instrument: name, Velocity: sweepVel})
		t += sweepSpacing
	}
	return events
}
