package programs

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/dygy/sc-sampler/internal/engine"
	"github.com/dygy/sc-sampler/internal/piano"
)

// ambient01Chords cycle through Cmaj9, Am9, Fmaj9, G6/9.
var ambient01Chords = [][]int{
	{48, 55, 64, 71, 74},
	{45, 52, 60, 67, 71},
	{41, 48, 57, 64, 67},
	{43, 50, 59, 62, 69},
}

// spawnPianoClouds starts one grain cloud per chord note, voiced by
// register: low notes get slow sparse grains, high notes fast small
// ones. Clouds fade in over cloudFadeTime.
func spawnPianoClouds(env *Env, chord []int, intensity float64, rng *rand.Rand) ([]engine.Voice, error) {
	densityScale := 0.55 + intensity*1.35
	ampScale := 0.7 + intensity*0.8
	clouds := make([]engine.Voice, 0, len(chord))
	for _, note := range chord {
		register := float64(note-piano.NoteLow) / float64(piano.NoteHigh-piano.NoteLow)
		var density, grainDur, amp float64
		switch {
		case register < 0.33:
			density, grainDur, amp = 0.65, 0.35, 0.06
		case register < 0.66:
			density, grainDur, amp = 1.6, 0.22, 0.045
		default:
			density, grainDur, amp = 2.8, 0.14, 0.035
		}
		dynamic := 0
		if rng.Float64() >= 0.85 && env.Lookup.MaxDynamic() >= 1 {
			dynamic = 1
		}
		index, rate := env.Lookup.SelectSample(float64(note), float64(dynamic))
		if index < 0 || index >= len(env.PianoBuffers) {
			continue
		}
		detune := uniform(rng, 0.997, 1.003)
		pan := piano.NoteToPan(note, piano.DefaultPanLow, piano.DefaultPanHigh) + uniform(rng, -0.05, 0.05)
		v, err := env.Timeline.PlayAt(0, engine.DefGrainCloud, map[string]float32{
			"bufnum":    float32(env.PianoBuffers[index].Num),
			"out":       mixBus,
			"amp":       0,
			"amp_lag":   cloudFadeTime,
			"pan":       float32(pan),
			"density":   float32(density * densityScale),
			"grain_dur": float32(grainDur),
			"rate":      float32(rate * detune),
			"pos_rate":  float32(uniform(rng, 0.02, 0.08)),
		})
		if err != nil {
			return clouds, err
		}
		if err := v.Set(map[string]float32{"amp": float32(amp * ampScale)}); err != nil {
			return clouds, err
		}
		clouds = append(clouds, v)
	}
	return clouds, nil
}

// triggerPianoGesture plays a slow broken-chord sweep around the current
// chord, spreading notes across octaves and time. Accented gestures are
// denser and louder.
func triggerPianoGesture(env *Env, chord []int, intensity float64, rng *rand.Rand, accent bool) {
	candidates := map[int]bool{}
	for _, note := range chord {
		candidates[note] = true
		if note-12 >= 36 && rng.Float64() < 0.3 {
			candidates[note-12] = true
		}
		if note+12 <= 96 && rng.Float64() < 0.7 {
			candidates[note+12] = true
		}
		if note+24 <= 96 && rng.Float64() < 0.25 {
			candidates[note+24] = true
		}
	}
	notes := make([]int, 0, len(candidates))
	for note := range candidates {
		notes = append(notes, note)
	}
	sort.Ints(notes)

	targetCount := randInt(rng, 3, 6)
	if accent {
		targetCount = randInt(rng, 4, 7)
	}
	if len(notes) > targetCount {
		start := rng.Intn(len(notes) - targetCount + 1)
		notes = notes[start : start+targetCount]
	}
	if rng.Float64() < 0.45 {
		for i, j := 0, len(notes)-1; i < j; i, j = i+1, j-1 {
			notes[i], notes[j] = notes[j], notes[i]
		}
	}

	maxOffset := 0.5
	maxAttack := 0.12
	baseRelease := uniform(rng, 10.0, 20.0)
	velocityMin := 18
	if accent {
		maxOffset = 0.8
		maxAttack = 0.18
		baseRelease = uniform(rng, 14.0, 28.0)
		velocityMin = 24
	}
	velocityMax := int(52 + intensity*52)
	if accent {
		velocityMax += 18
	}
	baseOffset := uniform(rng, 0.0, maxOffset)
	spacing := uniform(rng, 0.05, 0.18) * (1.05 - intensity*0.35)
	ampBoost := 0.05 + intensity*0.05
	if accent {
		ampBoost += 0.03
	}

	for i, note := range notes {
		velocity := randInt(rng, velocityMin, max(velocityMin+1, velocityMax))
		dynamic := piano.VelocityToDynamic(velocity, env.Lookup.MaxDynamic(), 1.0, 0.0)
		index, rate := env.Lookup.SelectSample(float64(note), float64(dynamic))
		if index < 0 || index >= len(env.PianoBuffers) {
			continue
		}
		ctls := map[string]float32{
			"bufnum":  float32(env.PianoBuffers[index].Num),
			"rate":    float32(rate * uniform(rng, 0.9975, 1.0025)),
			"pan":     float32(piano.NoteToPan(note, piano.DefaultPanLow, piano.DefaultPanHigh) + uniform(rng, -0.08, 0.08)),
			"amp":     float32(engine.VelocityAmplitude(velocity) * ampBoost),
			"attack":  float32(uniform(rng, 0.01, maxAttack)),
			"release": float32(baseRelease + uniform(rng, -4.0, 7.0)),
			"out":     mixBus,
		}
		offset := baseOffset + float64(i)*spacing + uniform(rng, 0.0, 0.035)
		playAfter(env, offset, engine.DefPianoGesture, ctls)
	}
}

// playAfter spawns a voice after a wall-clock delay. Spawn errors are
// logged rather than returned since the caller has already moved on.
func playAfter(env *Env, delay float64, def string, ctls map[string]float32) {
	if delay <= 0 {
		if _, err := env.Timeline.PlayAt(0, def, ctls); err != nil {
			env.logger().Warn("gesture voice failed", "def", def, "error", err)
		}
		return
	}
	time.AfterFunc(time.Duration(delay*float64(time.Second)), func() {
		if _, err := env.Timeline.PlayAt(0, def, ctls); err != nil {
			env.logger().Warn("gesture voice failed", "def", def, "error", err)
		}
	})
}

func runPianoAmbient01(ctx context.Context, env *Env, opts Options) error {
	rng := opts.rand()
	log := env.logger()

	if _, err := env.Timeline.PlayAt(0, engine.DefMasterFX, map[string]float32{
		"in":         mixBus,
		"out":        0,
		"reverb_mix": 0.38,
		"room_size":  0.92,
		"damping":    0.45,
	}); err != nil {
		return err
	}

	chordIndex := 0
	clouds, err := spawnPianoClouds(env, ambient01Chords[chordIndex], opts.Intensity, rng)
	if err != nil {
		releaseAll(clouds)
		return err
	}
	triggerPianoGesture(env, ambient01Chords[chordIndex], opts.Intensity, rng, true)

	gestureMin := max(4.0, 18.0-opts.Intensity*12.0)
	gestureMax := max(8.0, 34.0-opts.Intensity*20.0)
	chordMin := max(25.0, 70.0-opts.Intensity*30.0)
	chordMax := max(40.0, 120.0-opts.Intensity*45.0)
	nextGesture := uniform(rng, 4.0, 8.0)
	nextChordChange := uniform(rng, 35.0, 55.0)
	var pending []pendingRelease

	defer func() {
		releaseAll(clouds)
		for _, p := range pending {
			releaseAll(p.voices)
		}
	}()

	log.Info("program running", "program", "piano/ambient_01", "intensity", opts.Intensity)
	err = runUntil(ctx, opts, 100*time.Millisecond, func(now float64) error {
		pending = releaseDue(pending, now)
		if now >= nextChordChange {
			chordIndex = (chordIndex + 1) % len(ambient01Chords)
			for _, v := range clouds {
				_ = v.Set(map[string]float32{"amp": 0})
			}
			pending = append(pending, pendingRelease{at: now + cloudFadeTime + 1.0, voices: clouds})
			var err error
			clouds, err = spawnPianoClouds(env, ambient01Chords[chordIndex], opts.Intensity, rng)
			if err != nil {
				return err
			}
			triggerPianoGesture(env, ambient01Chords[chordIndex], opts.Intensity, rng, true)
			nextChordChange = now + uniform(rng, chordMin, chordMax)
		}
		if now >= nextGesture {
			triggerPianoGesture(env, ambient01Chords[chordIndex], opts.Intensity, rng, false)
			nextGesture = now + uniform(rng, gestureMin, gestureMax)
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
