// Package programs hosts the generative performance programs: long
// running loops that spawn grain clouds, gesture hits, and sparse
// melodic material against a live timeline.
package programs

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/dygy/sc-sampler/internal/engine"
	serr "github.com/dygy/sc-sampler/internal/errors"
	"github.com/dygy/sc-sampler/internal/kit"
	"github.com/dygy/sc-sampler/internal/piano"
)

// mixBus is the private stereo bus pair the programs route voices
// through before the master effect.
const mixBus = 16

// cloudFadeTime is how long grain clouds take to fade in or out.
const cloudFadeTime = 8.0

// Options configure a program run.
type Options struct {
	// Intensity in [0, 1] scales density, amplitude, and velocity.
	Intensity float64
	// Seed fixes the random stream; zero seeds from the clock.
	Seed int64
	// Duration limits the run; zero runs until the context is canceled.
	Duration time.Duration
	// Quiet restricts the piano to its two soft dynamic layers.
	Quiet bool
	// SampleRate applies to offline renders started from a program.
	SampleRate int
}

func (o Options) validate() error {
	if o.Intensity < 0 || o.Intensity > 1 {
		return fmt.Errorf("intensity %v out of range [0, 1]", o.Intensity)
	}
	return nil
}

func (o Options) rand() *rand.Rand {
	seed := o.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Env bundles the loaded resources a program plays against.
type Env struct {
	Timeline     engine.Timeline
	Kit          *kit.Kit
	Lookup       *piano.Lookup
	PianoBuffers []engine.Buffer
	Log          *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

// Program is one generative performance. A nil Run marks a program that
// is planned but not built yet.
type Program struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env, opts Options) error
}

// Implemented reports whether the program can actually be run.
func (p Program) Implemented() bool { return p.Run != nil }

var registry = map[string]Program{
	"drums/ambient_01": {
		Name:        "drums/ambient_01",
		Description: "Evolving ambient background from the percussion samples",
		Run:         runDrumsAmbient01,
	},
	"drums/ambient_02": {
		Name:        "drums/ambient_02",
		Description: "Slower metallic washes and deep pulses (planned)",
	},
	"piano/background_01": {
		Name:        "piano/background_01",
		Description: "Procedural background piano with evolving harmony and timing",
		Run:         runPianoBackground01,
	},
	"piano/ambient_01": {
		Name:        "piano/ambient_01",
		Description: "Evolving piano ambience with grain clouds and long gestures",
		Run:         runPianoAmbient01,
	},
	"piano/ambient_02": {
		Name:        "piano/ambient_02",
		Description: "Darker drones and sparse phrases (planned)",
	},
	"piano/nocturne_01": {
		Name:        "piano/nocturne_01",
		Description: "Slow lyrical fragments and pedal wash (planned)",
	},
	"piano/minimal_01": {
		Name:        "piano/minimal_01",
		Description: "Repeating figures with subtle variations (planned)",
	},
}

// List returns every registered program sorted by name.
func List() []Program {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Program, 0, len(names))
	for _, name := range names {
		out = append(out, registry[name])
	}
	return out
}

// Get looks up a program by name.
func Get(name string) (Program, error) {
	p, ok := registry[name]
	if !ok {
		return Program{}, fmt.Errorf("%q: %w", name, serr.ErrUnknownProgram)
	}
	return p, nil
}

// Run validates options and executes the named program.
func Run(ctx context.Context, name string, env *Env, opts Options) error {
	p, err := Get(name)
	if err != nil {
		return err
	}
	if !p.Implemented() {
		return fmt.Errorf("%s: %w", name, serr.ErrNotImplemented)
	}
	if err := opts.validate(); err != nil {
		return err
	}
	return p.Run(ctx, env, opts)
}

// runUntil loops calling step roughly every poll interval until the
// duration elapses or the context is canceled. step receives seconds
// since the run started.
func runUntil(ctx context.Context, opts Options, poll time.Duration, step func(now float64) error) error {
	start := time.Now()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			elapsed := time.Since(start)
			if opts.Duration > 0 && elapsed >= opts.Duration {
				return nil
			}
			if err := step(elapsed.Seconds()); err != nil {
				return err
			}
		}
	}
}

// pendingRelease tracks faded-out voices awaiting their release.
type pendingRelease struct {
	at     float64
	voices []engine.Voice
}

func releaseDue(pending []pendingRelease, now float64) []pendingRelease {
	kept := pending[:0]
	for _, p := range pending {
		if now < p.at {
			kept = append(kept, p)
			continue
		}
		for _, v := range p.voices {
			_ = v.Release()
		}
	}
	return kept
}

func releaseAll(voices []engine.Voice) {
	for _, v := range voices {
		_ = v.Release()
	}
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func randInt(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}
