// Package kit binds the percussion catalog to a timeline: it loads the
// sample buffers and turns drum events into voice placements.
package kit

import (
	"context"
	"fmt"

	"github.com/dygy/sc-sampler/internal/catalog"
	"github.com/dygy/sc-sampler/internal/engine"
	"github.com/dygy/sc-sampler/internal/midi"
)

// Tail is padding added after the last event so release envelopes are not
// cut off in offline renders.
const Tail = 2.0

type Kit struct {
	cat      *catalog.Catalog
	selector *catalog.Selector
	tl       engine.Timeline
	buffers  map[string]engine.Buffer
}

func New(cat *catalog.Catalog, tl engine.Timeline) *Kit {
	return &Kit{
		cat:      cat,
		selector: catalog.NewSelector(cat),
		tl:       tl,
		buffers:  make(map[string]engine.Buffer),
	}
}

// Load sends every sample layer in the catalog to the timeline's buffer
// store. It must be called before Schedule or Trigger.
func (k *Kit) Load(ctx context.Context) error {
	var paths []string
	for _, name := range k.cat.Names() {
		inst, err := k.cat.Instrument(name)
		if err != nil {
			return err
		}
		for _, layer := range inst.Layers {
			if _, ok := k.buffers[layer.Path]; ok {
				continue
			}
			k.buffers[layer.Path] = engine.Buffer{}
			paths = append(paths, layer.Path)
		}
	}
	loaded, err := k.tl.LoadBuffers(ctx, paths)
	if err != nil {
		return err
	}
	for _, buf := range loaded {
		k.buffers[buf.Path] = buf
	}
	return nil
}

func (k *Kit) controls(inst *catalog.Instrument, layer catalog.SampleLayer, ev midi.DrumEvent) (map[string]float32, error) {
	buf, ok := k.buffers[layer.Path]
	if !ok || buf.Path == "" {
		return nil, fmt.Errorf("buffer not loaded for %s", layer.Path)
	}
	pan := inst.DefaultPan
	if ev.Pan != nil {
		pan = *ev.Pan
	}
	amp := inst.BaseGain * layer.Gain * engine.VelocityAmplitude(ev.Velocity)
	return map[string]float32{
		"bufnum": float32(buf.Num),
		"rate":   float32(layer.Rate()),
		"amp":    float32(amp),
		"pan":    float32(pan),
	}, nil
}

// Schedule places every event on the timeline. Layer choice is indexed by
// event position, so scheduling the same list twice yields identical
// placements. Returns the end time including the release tail.
func (k *Kit) Schedule(events []midi.DrumEvent) (float64, error) {
	end := 0.0
	for i, ev := range events {
		layer, err := k.selector.ChooseIndexed(ev.Instrument, ev.Velocity, i)
		if err != nil {
			return 0, err
		}
		inst, err := k.cat.Instrument(ev.Instrument)
		if err != nil {
			return 0, err
		}
		ctls, err := k.controls(inst, layer, ev)
		if err != nil {
			return 0, err
		}
		if _, err := k.tl.PlayAt(ev.Time, engine.DrumVoiceDef(layer.ChannelCount), ctls); err != nil {
			return 0, err
		}
		if ev.Time+Tail > end {
			end = ev.Time + Tail
		}
	}
	return end, nil
}

// TriggerOpts override the drum voice defaults for a single hit.
type TriggerOpts struct {
	Pan       *float64
	Attack    float64
	Release   float64
	RateScale float64
	Out       int
}

// Trigger plays one hit immediately, advancing the instrument's
// round-robin cursor on velocity ties.
func (k *Kit) Trigger(instrument string, velocity int, pan *float64) error {
	return k.TriggerWith(instrument, velocity, TriggerOpts{Pan: pan})
}

// TriggerWith plays one hit with envelope and rate overrides. Used by
// the generative programs for slow gesture hits.
func (k *Kit) TriggerWith(instrument string, velocity int, opts TriggerOpts) error {
	layer, err := k.selector.Choose(instrument, velocity)
	if err != nil {
		return err
	}
	inst, err := k.cat.Instrument(instrument)
	if err != nil {
		return err
	}
	ctls, err := k.controls(inst, layer, midi.DrumEvent{Velocity: velocity, Pan: opts.Pan})
	if err != nil {
		return err
	}
	if opts.Attack > 0 {
		ctls["attack"] = float32(opts.Attack)
	}
	if opts.Release > 0 {
		ctls["release"] = float32(opts.Release)
	}
	if opts.RateScale > 0 {
		ctls["rate"] *= float32(opts.RateScale)
	}
	if opts.Out != 0 {
		ctls["out"] = float32(opts.Out)
	}
	_, err = k.tl.PlayAt(0, engine.DrumVoiceDef(layer.ChannelCount), ctls)
	return err
}

// Layer exposes indexed layer choice for callers that feed samples to
// granular voices rather than the drum voice.
func (k *Kit) Layer(instrument string, velocity, index int) (catalog.SampleLayer, error) {
	return k.selector.ChooseIndexed(instrument, velocity, index)
}
