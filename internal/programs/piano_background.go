package programs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/dygy/sc-sampler/internal/engine"
	"github.com/dygy/sc-sampler/internal/piano"
)

// background01 plays in D Dorian.
var (
	background01ScaleOffsets = []int{0, 2, 3, 5, 7, 9, 10}
	background01Root         = 62
)

// scheduleBackgroundNote voices one melodic note with the debussy
// shaping, optionally delayed a touch for timing looseness.
func scheduleBackgroundNote(env *Env, style piano.PerformanceStyle, note, velocity int, delay, duration float64, rng *rand.Rand) {
	dynamic := piano.VelocityToDynamic(velocity, env.Lookup.MaxDynamic(), style.DynamicCurve, style.DynamicBias)
	index, rate := env.Lookup.SelectSample(float64(note), float64(dynamic))
	if index < 0 || index >= len(env.PianoBuffers) {
		return
	}
	pan := piano.NoteToPan(note, piano.DefaultPanLow, piano.DefaultPanHigh)
	if style.PanJitter > 0 {
		pan += uniform(rng, -style.PanJitter, style.PanJitter)
	}
	if pan < -0.95 {
		pan = -0.95
	} else if pan > 0.95 {
		pan = 0.95
	}
	amp := math.Pow(engine.VelocityAmplitude(velocity), style.AmpExponent) * style.AmpScale
	sustain := max(0.0, duration*style.Legato)
	release := duration * style.ReleaseScale
	if release < style.ReleaseMin {
		release = style.ReleaseMin
	} else if release > style.ReleaseMax {
		release = style.ReleaseMax
	}
	playAfter(env, delay, engine.DefPianoVoice, map[string]float32{
		"bufnum":  float32(env.PianoBuffers[index].Num),
		"rate":    float32(rate),
		"amp":     float32(amp),
		"pan":     float32(pan),
		"attack":  float32(style.Attack),
		"sustain": float32(sustain),
		"release": float32(release),
		"out":     mixBus,
	})
}

func runPianoBackground01(ctx context.Context, env *Env, opts Options) error {
	rng := opts.rand()
	log := env.logger()
	style, err := piano.Style("debussy")
	if err != nil {
		return err
	}

	if _, err := env.Timeline.PlayAt(0, engine.DefMasterFX, map[string]float32{
		"in":         mixBus,
		"out":        0,
		"reverb_mix": 0.42,
		"room_size":  0.93,
		"damping":    0.48,
	}); err != nil {
		return err
	}

	scaleNotes, err := BuildScaleNotes(background01Root, background01ScaleOffsets, 40, 92)
	if err != nil {
		return err
	}
	if len(scaleNotes) < 8 {
		return fmt.Errorf("scale produced too few notes: %d", len(scaleNotes))
	}

	chordRootIndex := rng.Intn(len(scaleNotes) - 6)
	chordNotes := BuildScaleChord(scaleNotes, chordRootIndex)
	clouds, err := spawnPianoClouds(env, chordNotes, opts.Intensity, rng)
	if err != nil {
		releaseAll(clouds)
		return err
	}
	triggerPianoGesture(env, chordNotes, opts.Intensity, rng, true)

	lastNote := chordNotes[rng.Intn(len(chordNotes))]
	energy := opts.Intensity
	tempo := 44.0 + opts.Intensity*18.0 + uniform(rng, -3.0, 3.0)
	tempoTarget := tempo

	stepChoices := []int{8, 12, 16}
	patternSteps := stepChoices[rng.Intn(len(stepChoices))]
	patternPulses := max(2, int(float64(patternSteps)*(0.25+opts.Intensity*0.35)))
	pattern := Rotate(EuclideanPattern(patternPulses, patternSteps), rng.Intn(patternSteps))
	stepIndex := 0

	nextStep := uniform(rng, 0.2, 0.6)
	nextPhrase := uniform(rng, 14.0, 22.0)
	nextChordChange := uniform(rng, 32.0, 55.0)
	nextGesture := uniform(rng, 10.0, 18.0)
	nextTempoShift := uniform(rng, 18.0, 34.0)
	var pending []pendingRelease

	defer func() {
		releaseAll(clouds)
		for _, p := range pending {
			releaseAll(p.voices)
		}
	}()

	log.Info("program running", "program", "piano/background_01", "intensity", opts.Intensity)
	err = runUntil(ctx, opts, 50*time.Millisecond, func(now float64) error {
		pending = releaseDue(pending, now)

		if now >= nextTempoShift {
			tempoTarget = math.Min(72.0, math.Max(36.0, tempo+uniform(rng, -6.0, 6.0)))
			nextTempoShift = now + uniform(rng, 18.0, 34.0)
		}
		tempo += (tempoTarget - tempo) * 0.02
		beat := 60.0 / math.Max(20.0, tempo)

		if now >= nextPhrase {
			energy = math.Min(1.0, math.Max(0.0, energy+uniform(rng, -0.18, 0.18)))
			patternSteps = stepChoices[rng.Intn(len(stepChoices))]
			patternPulses = max(2, int(float64(patternSteps)*(0.25+energy*0.4)))
			pattern = Rotate(EuclideanPattern(patternPulses, patternSteps), rng.Intn(patternSteps))
			stepIndex = 0
			nextPhrase = now + uniform(rng, 14.0, 24.0)
		}

		if now >= nextChordChange {
			chordRootIndex += randInt(rng, -2, 2)
			if maxRoot := len(scaleNotes) - 7; chordRootIndex > maxRoot {
				chordRootIndex = maxRoot
			}
			if chordRootIndex < 0 {
				chordRootIndex = 0
			}
			chordNotes = BuildScaleChord(scaleNotes, chordRootIndex)
			for _, v := range clouds {
				_ = v.Set(map[string]float32{"amp": 0})
			}
			pending = append(pending, pendingRelease{at: now + cloudFadeTime + 1.0, voices: clouds})
			var err error
			clouds, err = spawnPianoClouds(env, chordNotes, opts.Intensity, rng)
			if err != nil {
				return err
			}
			triggerPianoGesture(env, chordNotes, opts.Intensity, rng, true)
			nextChordChange = now + uniform(rng, 30.0, 55.0)
		}

		if now >= nextGesture {
			triggerPianoGesture(env, chordNotes, opts.Intensity, rng, false)
			nextGesture = now + uniform(rng, 12.0, 22.0)
		}

		if now >= nextStep {
			playStep := len(pattern) > 0 && pattern[stepIndex] == 1
			stepIndex = (stepIndex + 1) % max(1, len(pattern))
			if playStep && rng.Float64() < 0.6+opts.Intensity*0.3 {
				var note int
				if rng.Float64() < 0.65+energy*0.2 {
					note = chordNotes[rng.Intn(len(chordNotes))]
				} else {
					note = walkScale(scaleNotes, lastNote, rng)
				}
				lastNote = note

				center := 30.0 + energy*28.0
				spread := 12.0 + energy*10.0
				velocity := int(math.Min(84, math.Max(16, rng.NormFloat64()*spread+center)))
				durations := []float64{0.75, 1.0, 1.5, 2.25}
				duration := beat * durations[rng.Intn(len(durations))]
				scheduleBackgroundNote(env, style, note, velocity, uniform(rng, 0.0, 0.12), duration, rng)

				if rng.Float64() < 0.12+(1.0-opts.Intensity)*0.18 {
					bassNote := max(32, chordNotes[0]-12)
					scheduleBackgroundNote(env, style, bassNote, max(18, velocity-8), uniform(rng, 0.0, 0.2), beat*uniform(rng, 2.0, 3.5), rng)
				}
			}
			multipliers := []float64{0.75, 1.0, 1.25}
			stepDuration := beat*multipliers[rng.Intn(len(multipliers))] + uniform(rng, -0.08, 0.1)
			nextStep = now + math.Max(0.12, stepDuration)
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// walkScale picks a nearby scale note, staying within four degrees of
// the previous one.
func walkScale(scaleNotes []int, lastNote int, rng *rand.Rand) int {
	idx := 0
	for i, n := range scaleNotes {
		if n == lastNote {
			idx = i
			break
		}
	}
	lo := max(0, idx-4)
	hi := idx + 5
	if hi > len(scaleNotes) {
		hi = len(scaleNotes)
	}
	window := scaleNotes[lo:hi]
	if len(window) == 0 {
		window = scaleNotes
	}
	return window[rng.Intn(len(window))]
}
