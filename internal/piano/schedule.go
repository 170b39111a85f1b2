package piano

import (
	"math"
	"math/rand"
	"sort"

	"github.com/dygy/sc-sampler/internal/engine"
	"github.com/dygy/sc-sampler/internal/midi"
)

const (
	DefaultPanLow  = -0.75
	DefaultPanHigh = 0.75

	// riffStart leaves a little silence before the first note so attack
	// transients are not clipped at time zero.
	riffStart = 0.1
)

// ScheduleOptions configure note scheduling. Rand drives pan and timing
// jitter; seeding it makes a schedule reproducible.
type ScheduleOptions struct {
	Start   float64
	PanLow  float64
	PanHigh float64
	Style   PerformanceStyle
	Rand    *rand.Rand
}

func (o *ScheduleOptions) defaults() {
	if o.PanLow == 0 && o.PanHigh == 0 {
		o.PanLow, o.PanHigh = DefaultPanLow, DefaultPanHigh
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(1))
	}
	if o.Style.Name == "" {
		o.Style = styles["raw"]
	}
}

// ScheduleNotes turns parsed notes into voice placements on the given
// timeline. Notes sharing a start time are voiced as a chord, with the
// highest pitch treated as the melody. Returns the end time of the
// longest release tail.
func ScheduleNotes(tl engine.Timeline, lookup *Lookup, buffers []engine.Buffer, notes []midi.Note, opts ScheduleOptions) (float64, error) {
	opts.defaults()
	style := opts.Style

	sorted := make([]midi.Note, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	end := opts.Start
	for i := 0; i < len(sorted); {
		j := i
		top := sorted[i].Pitch
		for j < len(sorted) && sorted[j].Start == sorted[i].Start {
			if sorted[j].Pitch > top {
				top = sorted[j].Pitch
			}
			j++
		}
		for _, note := range sorted[i:j] {
			dynamic := VelocityToDynamic(note.Velocity, lookup.MaxDynamic(), style.DynamicCurve, style.DynamicBias)
			index, rate := lookup.SelectSample(float64(note.Pitch), float64(dynamic))
			if index < 0 || index >= len(buffers) {
				continue
			}

			var pan float64
			if style.PanMode == "keyboard" {
				pan = NoteToPan(note.Pitch, opts.PanLow, opts.PanHigh)
				if style.PanJitter > 0 {
					pan += uniform(opts.Rand, -style.PanJitter, style.PanJitter)
				}
				pan = clamp(pan, opts.PanLow, opts.PanHigh)
			} else {
				pan = uniform(opts.Rand, opts.PanLow, opts.PanHigh)
			}

			amp := engine.VelocityAmplitude(note.Velocity)
			amp = math.Pow(amp, style.AmpExponent) * style.AmpScale
			if note.Pitch == top {
				amp *= style.MelodyGain
			} else {
				amp *= style.AccompanimentGain
			}

			release := clamp(note.Duration*style.ReleaseScale, style.ReleaseMin, style.ReleaseMax)
			sustain := note.Duration * style.Legato
			if sustain < 0 {
				sustain = 0
			}

			start := opts.Start + note.Start
			if style.TimingJitter > 0 {
				start += uniform(opts.Rand, -style.TimingJitter, style.TimingJitter)
				if start < opts.Start {
					start = opts.Start
				}
			}

			_, err := tl.PlayAt(start, engine.DefPianoVoice, map[string]float32{
				"bufnum":  float32(buffers[index].Num),
				"rate":    float32(rate),
				"amp":     float32(amp),
				"pan":     float32(pan),
				"attack":  float32(style.Attack),
				"sustain": float32(sustain),
				"release": float32(release),
			})
			if err != nil {
				return 0, err
			}
			if tail := start + style.Attack + sustain + release; tail > end {
				end = tail
			}
		}
		i = j
	}
	return end, nil
}

// Pattern is a repeating phrase: the four lists cycle independently, so
// their lengths need not match.
type Pattern struct {
	Notes    []int
	Durs     []float64
	Dynamics []int
	Amps     []float64
	Release  float64
}

// SchedulePattern loops a pattern from start until start+duration,
// panning each note at random. Returns the time the last release ends.
func SchedulePattern(tl engine.Timeline, lookup *Lookup, buffers []engine.Buffer, p Pattern, start, duration float64, opts ScheduleOptions) (float64, error) {
	opts.defaults()
	now := start
	for step := 0; now < start+duration; step++ {
		note := p.Notes[step%len(p.Notes)]
		dur := p.Durs[step%len(p.Durs)]
		dyn := p.Dynamics[step%len(p.Dynamics)]
		amp := p.Amps[step%len(p.Amps)]

		index, rate := lookup.SelectSample(float64(note), float64(dyn))
		if index >= 0 && index < len(buffers) {
			_, err := tl.PlayAt(now, engine.DefPianoVoice, map[string]float32{
				"bufnum":  float32(buffers[index].Num),
				"rate":    float32(rate),
				"amp":     float32(amp),
				"pan":     float32(uniform(opts.Rand, opts.PanLow, opts.PanHigh)),
				"sustain": 0,
				"release": float32(p.Release),
			})
			if err != nil {
				return 0, err
			}
		}
		now += dur
	}
	return start + duration + p.Release, nil
}

// ScheduleRiff layers the demo riff's two voices: a mid-register ostinato
// and sparse high answers.
func ScheduleRiff(tl engine.Timeline, lookup *Lookup, buffers []engine.Buffer, duration float64, seed int64) (float64, error) {
	opts := ScheduleOptions{Rand: rand.New(rand.NewSource(seed))}
	opts.defaults()

	low := Pattern{
		Notes:    []int{62, 65, 69, 72, 57, 64, 65, 71},
		Durs:     []float64{0.5, 0.25, 0.25, 0.25},
		Dynamics: []int{1, 0, 0, 1},
		Amps:     []float64{0.5, 2, 2, 0.5},
		Release:  4,
	}
	high := Pattern{
		Notes:    []int{100, 93, 98, 96},
		Durs:     []float64{0.25, 1.75},
		Dynamics: []int{1, 1, 1, 1},
		Amps:     []float64{0.5, 1, 1, 0.5},
		Release:  4,
	}

	end, err := SchedulePattern(tl, lookup, buffers, low, riffStart, duration, opts)
	if err != nil {
		return 0, err
	}
	end2, err := SchedulePattern(tl, lookup, buffers, high, riffStart, duration, opts)
	if err != nil {
		return 0, err
	}
	if end2 > end {
		end = end2
	}
	return end, nil
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

