// Package render orchestrates offline rendering: parse the input, build
// a score against the sample catalog, hand it to the non-realtime
// renderer, and optionally transcode the result.
package render

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/dygy/sc-sampler/internal/catalog"
	"github.com/dygy/sc-sampler/internal/engine"
	"github.com/dygy/sc-sampler/internal/exec"
	"github.com/dygy/sc-sampler/internal/kit"
	"github.com/dygy/sc-sampler/internal/midi"
	"github.com/dygy/sc-sampler/internal/piano"
	"github.com/dygy/sc-sampler/internal/progress"
	"github.com/dygy/sc-sampler/internal/workspace"
)

const DefaultSampleRate = 44100

// Options shape a render run. The zero value renders at the default
// sample rate with no cache.
type Options struct {
	SampleRate int
	Seed       int64
	Quiet      bool
	Style      string
	// MappingOverrides are note=instrument pairs for drum renders.
	MappingOverrides []string
	// MP3 also transcodes the rendered wav next to the output path.
	MP3     bool
	Verbose bool
}

func (o Options) sampleRate() int {
	if o.SampleRate <= 0 {
		return DefaultSampleRate
	}
	return o.SampleRate
}

// Renderer owns the external tool runner and optional cache shared
// across renders.
type Renderer struct {
	Runner     *exec.Runner
	Cache      *Cache
	SamplesDir string
	PianoDir   string
	Out        io.Writer
}

func (r *Renderer) reporter(verbose bool) *progress.Reporter {
	return progress.NewReporter(r.Out, verbose)
}

// RenderDrums parses a percussion MIDI file and renders it through the
// kit to outputPath.
func (r *Renderer) RenderDrums(ctx context.Context, inputPath, outputPath string, opts Options) error {
	rep := r.reporter(opts.Verbose)

	key, cached, err := r.tryCache(inputPath, "drums", opts, outputPath, rep)
	if err != nil {
		return err
	}
	if cached {
		return nil
	}

	rep.StartStage(progress.StageParse)
	timed, err := midi.LoadOnsets(inputPath)
	if err != nil {
		return err
	}
	cat, err := catalog.New(r.SamplesDir, engine.ChannelCount)
	if err != nil {
		return err
	}
	mapping, err := cat.ApplyOverrides(cat.DefaultMapping(), opts.MappingOverrides)
	if err != nil {
		return err
	}
	events := midi.BuildDrumEvents(timed, mapping)
	rep.StageComplete("%d events across %d onsets", len(events), len(timed))

	return r.renderDrumEvents(ctx, cat, events, inputPath, outputPath, key, opts, rep)
}

// RenderDrumDemo renders the built-in kit audition instead of a MIDI
// file. An instrument narrows the demo to that instrument's layers.
func (r *Renderer) RenderDrumDemo(ctx context.Context, instrument, outputPath string, opts Options) error {
	rep := r.reporter(opts.Verbose)
	cat, err := catalog.New(r.SamplesDir, engine.ChannelCount)
	if err != nil {
		return err
	}
	var events []midi.DrumEvent
	if instrument != "" {
		if !cat.Has(instrument) {
			return fmt.Errorf("unknown instrument %q", instrument)
		}
		events = kit.InstrumentDemo(instrument)
	} else {
		events = kit.KitDemo(cat.Names())
	}
	return r.renderDrumEvents(ctx, cat, events, "", outputPath, "", opts, rep)
}

func (r *Renderer) renderDrumEvents(ctx context.Context, cat *catalog.Catalog, events []midi.DrumEvent, inputPath, outputPath, cacheKey string, opts Options, rep *progress.Reporter) error {
	score := engine.NewScore()
	k := kit.New(cat, score)

	rep.StartStage(progress.StageLoad)
	if err := k.Load(ctx); err != nil {
		return err
	}

	rep.StartStage(progress.StageSchedule)
	end, err := k.Schedule(events)
	if err != nil {
		return err
	}
	score.SetEnd(end)
	rep.StageComplete("%d placements, %.2fs", len(score.Placements()), score.End())

	return r.finish(ctx, score, inputPath, outputPath, cacheKey, opts, rep)
}

// RenderPiano parses a melodic MIDI file and renders it through the
// piano sample pack.
func (r *Renderer) RenderPiano(ctx context.Context, inputPath, outputPath string, opts Options) error {
	rep := r.reporter(opts.Verbose)

	key, cached, err := r.tryCache(inputPath, "piano", opts, outputPath, rep)
	if err != nil {
		return err
	}
	if cached {
		return nil
	}

	styleName := opts.Style
	if styleName == "" {
		styleName = "raw"
	}
	style, err := piano.Style(styleName)
	if err != nil {
		return err
	}

	rep.StartStage(progress.StageParse)
	notes, err := midi.LoadNotes(inputPath)
	if err != nil {
		return err
	}
	rep.StageComplete("%d notes", len(notes))

	score := engine.NewScore()
	rep.StartStage(progress.StageLoad)
	buffers, err := piano.LoadBuffers(ctx, score, r.PianoDir)
	if err != nil {
		return err
	}

	rep.StartStage(progress.StageSchedule)
	lookup := piano.BuildLookup(opts.Quiet)
	end, err := piano.ScheduleNotes(score, lookup, buffers, notes, piano.ScheduleOptions{
		Start: 0.1,
		Style: style,
		Rand:  rand.New(rand.NewSource(opts.Seed)),
	})
	if err != nil {
		return err
	}
	score.SetEnd(end + 0.5)

	return r.finish(ctx, score, inputPath, outputPath, key, opts, rep)
}

// RenderRiff renders the built-in piano riff for the given duration.
func (r *Renderer) RenderRiff(ctx context.Context, outputPath string, duration float64, opts Options) error {
	rep := r.reporter(opts.Verbose)

	score := engine.NewScore()
	rep.StartStage(progress.StageLoad)
	buffers, err := piano.LoadBuffers(ctx, score, r.PianoDir)
	if err != nil {
		return err
	}

	rep.StartStage(progress.StageSchedule)
	lookup := piano.BuildLookup(opts.Quiet)
	end, err := piano.ScheduleRiff(score, lookup, buffers, duration, opts.Seed)
	if err != nil {
		return err
	}
	score.SetEnd(end)

	return r.finish(ctx, score, "", outputPath, "", opts, rep)
}

// tryCache checks for a cached render of inputPath under the given
// options. Returns the computed key for a later Put.
func (r *Renderer) tryCache(inputPath, kind string, opts Options, outputPath string, rep *progress.Reporter) (string, bool, error) {
	if r.Cache == nil || inputPath == "" {
		return "", false, nil
	}
	key, err := r.Cache.Key(inputPath, struct {
		Kind string
		Options
	}{kind, opts})
	if err != nil {
		return "", false, err
	}
	hit, err := r.Cache.Get(key, outputPath)
	if err != nil {
		return "", false, err
	}
	if hit {
		rep.StageComplete("using cached render")
		rep.Done(outputPath)
		return key, true, nil
	}
	return key, false, nil
}

// finish renders the score, stores it in the cache, and optionally
// transcodes to MP3. A missing ffmpeg downgrades the transcode to a
// warning.
func (r *Renderer) finish(ctx context.Context, score *engine.Score, inputPath, outputPath, cacheKey string, opts Options, rep *progress.Reporter) error {
	ws, err := workspace.Create()
	if err != nil {
		return err
	}
	defer ws.Cleanup()

	rep.StartStage(progress.StageRender)
	if err := score.Render(ctx, r.Runner, ws.Dir, outputPath, opts.sampleRate()); err != nil {
		return err
	}

	if r.Cache != nil && cacheKey != "" {
		if err := r.Cache.Put(cacheKey, outputPath, inputPath); err != nil {
			rep.Warning("could not cache render: %v", err)
		}
	}

	if opts.MP3 {
		if !r.Runner.HasFFmpeg() {
			rep.Warning("ffmpeg not found, skipping MP3 transcode")
		} else {
			mp3Path := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".mp3"
			if _, err := r.Runner.Transcode(ctx, outputPath, mp3Path); err != nil {
				return fmt.Errorf("transcode: %w", err)
			}
		}
	}

	rep.Done(outputPath)
	return nil
}
