package programs

import (
	"context"
	"errors"
	"time"

	"github.com/dygy/sc-sampler/internal/engine"
	"github.com/dygy/sc-sampler/internal/kit"
)

// cloudVoice parameterizes one long-running grain cloud over a
// percussion sample. Values were tuned by ear per register.
type cloudVoice struct {
	instrument string
	velocity   int
	amp        float64
	pan        float64
	density    float64
	grainDur   float64
	rate       float64
	posRate    float64
}

var drumCloudVoices = []cloudVoice{
	{instrument: "kick_open", velocity: 110, amp: 1.32, pan: -0.2, density: 0.8, grainDur: 0.35, rate: 0.25, posRate: 0.03},
	{instrument: "kick_muted", velocity: 80, amp: 0.88, pan: 0.2, density: 0.55, grainDur: 0.28, rate: 0.33, posRate: 0.025},
	{instrument: "snare_warm", velocity: 95, amp: 1.10, pan: -0.05, density: 3.5, grainDur: 0.11, rate: 0.55, posRate: 0.07},
	{instrument: "tom_low", velocity: 90, amp: 1.10, pan: 0.1, density: 2.2, grainDur: 0.16, rate: 0.45, posRate: 0.05},
	{instrument: "ethnic_stick", velocity: 105, amp: 0.66, pan: -0.35, density: 5.0, grainDur: 0.05, rate: 1.2, posRate: 0.11},
	{instrument: "ethnic_hand", velocity: 70, amp: 0.77, pan: 0.32, density: 3.0, grainDur: 0.09, rate: 0.75, posRate: 0.08},
}

var drumGestureInstruments = []string{
	"snare_warm",
	"snare_rimshot",
	"tom_high",
	"tom_low",
	"bongo_hi",
	"bongo_low",
	"ethnic_low_open",
	"kick_punchy",
}

func runDrumsAmbient01(ctx context.Context, env *Env, opts Options) error {
	rng := opts.rand()
	log := env.logger()

	densityScale := 0.35 + opts.Intensity*1.25
	ampScale := 0.25 + opts.Intensity*0.75

	// One sample per cloud voice, chosen deterministically per slot.
	paths := make([]string, 0, len(drumCloudVoices))
	for i, voice := range drumCloudVoices {
		layer, err := env.Kit.Layer(voice.instrument, voice.velocity, i)
		if err != nil {
			return err
		}
		paths = append(paths, layer.Path)
	}
	buffers, err := env.Timeline.LoadBuffers(ctx, paths)
	if err != nil {
		return err
	}

	if _, err := env.Timeline.PlayAt(0, engine.DefMasterFX, map[string]float32{
		"in":         mixBus,
		"out":        0,
		"reverb_mix": 0.36,
		"room_size":  0.9,
		"damping":    0.45,
	}); err != nil {
		return err
	}

	clouds := make([]engine.Voice, 0, len(drumCloudVoices))
	for i, voice := range drumCloudVoices {
		v, err := env.Timeline.PlayAt(0, engine.DefGrainCloud, map[string]float32{
			"bufnum":    float32(buffers[i].Num),
			"out":       mixBus,
			"amp":       float32(voice.amp * ampScale),
			"amp_lag":   cloudFadeTime,
			"pan":       float32(voice.pan),
			"density":   float32(voice.density * densityScale),
			"grain_dur": float32(voice.grainDur),
			"rate":      float32(voice.rate),
			"pos_rate":  float32(voice.posRate),
		})
		if err != nil {
			return err
		}
		clouds = append(clouds, v)
	}
	defer releaseAll(clouds)

	// A couple of immediate gestures so the program is audible right away.
	pan1, pan2 := 0.2, -0.15
	if err := env.Kit.TriggerWith("ethnic_hand", 55, kit.TriggerOpts{Pan: &pan1, Attack: 0.02, Release: 12.0, RateScale: 0.9, Out: mixBus}); err != nil {
		return err
	}
	if err := env.Kit.TriggerWith("tom_low", 48, kit.TriggerOpts{Pan: &pan2, Attack: 0.02, Release: 10.0, RateScale: 0.6, Out: mixBus}); err != nil {
		return err
	}

	gestureMin := 14.0 - opts.Intensity*10.0
	if gestureMin < 4.0 {
		gestureMin = 4.0
	}
	gestureMax := 28.0 - opts.Intensity*16.0
	if gestureMax < 8.0 {
		gestureMax = 8.0
	}
	nextGesture := uniform(rng, 4.0, 8.0)

	log.Info("program running", "program", "drums/ambient_01", "intensity", opts.Intensity)
	err = runUntil(ctx, opts, 100*time.Millisecond, func(now float64) error {
		if now < nextGesture {
			return nil
		}
		instrument := drumGestureInstruments[rng.Intn(len(drumGestureInstruments))]
		velocity := randInt(rng, 28, 70)
		pan := uniform(rng, -0.5, 0.5)
		release := uniform(rng, 5.0, 14.0)
		rateScales := []float64{0.25, 0.5, 0.75, 1.0, 1.5}
		rateScale := rateScales[rng.Intn(len(rateScales))] * uniform(rng, 0.9, 1.1)
		if err := env.Kit.TriggerWith(instrument, velocity, kit.TriggerOpts{
			Pan:       &pan,
			Attack:    0.02,
			Release:   release,
			RateScale: rateScale,
			Out:       mixBus,
		}); err != nil {
			return err
		}
		nextGesture = now + uniform(rng, gestureMin, gestureMax)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
