package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dygy/sc-sampler/internal/catalog"
	"github.com/dygy/sc-sampler/internal/engine"
	"github.com/dygy/sc-sampler/internal/exec"
	"github.com/dygy/sc-sampler/internal/kit"
	"github.com/dygy/sc-sampler/internal/midi"
	"github.com/dygy/sc-sampler/internal/midiin"
	"github.com/dygy/sc-sampler/internal/piano"
	"github.com/dygy/sc-sampler/internal/programs"
	"github.com/dygy/sc-sampler/internal/render"
	"github.com/dygy/sc-sampler/internal/server"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sc-sampler",
	Short: "Velocity-layered percussion and piano sampler for SuperCollider",
	Long: `sc-sampler plays MIDI and MIDICSV files through velocity-layered
sample catalogs, either rendered offline to WAV or performed live
against a running scsynth.

Pipeline: MIDI/MIDICSV → tempo-aware event list → sample selection → engine`,
	Version: version,
}

var drumsCmd = &cobra.Command{
	Use:   "drums",
	Short: "Percussion kit: render, audition, and live input",
	Long: `Play the VSCO percussion kit from MIDI, MIDICSV, the built-in
demo patterns, or a hardware MIDI input.

Subcommands:
  list      List kit instruments and their layers
  demo      Render the kit audition patterns
  render    Render a MIDI or MIDICSV file offline
  play      Play a MIDI or MIDICSV file against a live scsynth
  midi-in   Trigger the kit from a hardware MIDI input`,
}

var drumsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List kit instruments",
	RunE:  runDrumsList,
}

var drumsDemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Render the kit audition",
	Long: `Render each instrument at three velocities followed by a full-kit
sweep, or a single instrument with --instrument.

Examples:
  sc-sampler drums demo -o demo.wav
  sc-sampler drums demo --instrument snare_warm -o snare.wav`,
	RunE: runDrumsDemo,
}

var drumsRenderCmd = &cobra.Command{
	Use:   "render <input>",
	Short: "Render percussion MIDI or MIDICSV to WAV",
	Long: `Render a percussion file offline through the non-realtime engine.

Note-to-instrument mapping follows the kit defaults and can be
overridden per note with repeated --map note=instrument flags.

Examples:
  sc-sampler drums render groove.mid -o groove.wav
  sc-sampler drums render take.csv --map 36=kick_muted --map 42=side_stick`,
	Args: cobra.ExactArgs(1),
	RunE: runDrumsRender,
}

var drumsPlayCmd = &cobra.Command{
	Use:   "play <input>",
	Short: "Play percussion MIDI or MIDICSV live",
	Long: `Schedule a percussion file and perform it in wall-clock time
against a running scsynth.

Example:
  sc-sampler drums play groove.mid --sc-addr 127.0.0.1:57110`,
	Args: cobra.ExactArgs(1),
	RunE: runDrumsPlay,
}

var drumsMidiInCmd = &cobra.Command{
	Use:   "midi-in",
	Short: "Trigger the kit from a hardware MIDI input",
	Long: `Listen on a MIDI input port and trigger mapped instruments on
note-on. Port names match by case-insensitive substring; with no
--port the first available input is used.

Examples:
  sc-sampler drums midi-in --list-ports
  sc-sampler drums midi-in --port "Launchpad" --map 36=kick_punchy`,
	RunE: runDrumsMidiIn,
}

var pianoCmd = &cobra.Command{
	Use:   "piano",
	Short: "Sampled piano: render and live play",
	Long: `Play melodic MIDI or MIDICSV through the sampled piano, with
selectable performance styles.

Subcommands:
  render    Render a MIDI or MIDICSV file offline
  play      Play a file against a live scsynth
  riff      Play or render the built-in seeded riff`,
}

var pianoRenderCmd = &cobra.Command{
	Use:   "render <input>",
	Short: "Render melodic MIDI or MIDICSV to WAV",
	Long: `Render a melodic file offline through the piano sample pack.

Examples:
  sc-sampler piano render clair_de_lune.mid -o out.wav --style debussy
  sc-sampler piano render take.csv --quiet --seed 7`,
	Args: cobra.ExactArgs(1),
	RunE: runPianoRender,
}

var pianoPlayCmd = &cobra.Command{
	Use:   "play <input>",
	Short: "Play melodic MIDI or MIDICSV live",
	Args:  cobra.ExactArgs(1),
	RunE:  runPianoPlay,
}

var pianoRiffCmd = &cobra.Command{
	Use:   "riff",
	Short: "Play or render the built-in riff",
	Long: `The riff is a deterministic two-voice pattern used to sanity-check
the sample pack and engine wiring.

Examples:
  sc-sampler piano riff --duration 8
  sc-sampler piano riff --render -o riff.wav`,
	RunE: runPianoRiff,
}

var programCmd = &cobra.Command{
	Use:   "program",
	Short: "Generative programs",
	Long: `Long-running generative performances played against a live
scsynth.

Subcommands:
  list      List registered programs
  run       Run a program until interrupted or --duration elapses`,
}

var programListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered programs",
	RunE:  runProgramList,
}

var programRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a generative program",
	Long: `Run a generative program live. Stops on Ctrl-C or after
--duration.

Examples:
  sc-sampler program run drums/ambient_01 --intensity 0.4
  sc-sampler program run piano/background_01 --seed 12 --duration 2m`,
	Args: cobra.ExactArgs(1),
	RunE: runProgramRun,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control API",
	Long: `Start the JSON control API for listing and running programs and
rendering uploaded files as background jobs.

Example:
  sc-sampler serve --port 8080`,
	RunE: runServe,
}

var (
	// global flags
	samplesDir   string
	pianoDir     string
	scAddr       string
	rendererPath string
	ffmpegPath   string

	// render flags (shared by drums/piano render paths)
	outputPath   string
	mapOverrides []string
	sampleRate   int
	seed         int64
	styleName    string
	quiet        bool
	makeMP3      bool
	noCache      bool
	verbose      bool

	// demo flags
	demoInstrument string

	// midi-in flags
	midiPort  string
	listPorts bool

	// riff flags
	riffDuration float64
	riffRender   bool

	// program flags
	intensity   float64
	programTime time.Duration

	// serve flags
	port int
)

func init() {
	rootCmd.AddCommand(drumsCmd)
	rootCmd.AddCommand(pianoCmd)
	rootCmd.AddCommand(programCmd)
	rootCmd.AddCommand(serveCmd)

	drumsCmd.AddCommand(drumsListCmd)
	drumsCmd.AddCommand(drumsDemoCmd)
	drumsCmd.AddCommand(drumsRenderCmd)
	drumsCmd.AddCommand(drumsPlayCmd)
	drumsCmd.AddCommand(drumsMidiInCmd)

	pianoCmd.AddCommand(pianoRenderCmd)
	pianoCmd.AddCommand(pianoPlayCmd)
	pianoCmd.AddCommand(pianoRiffCmd)

	programCmd.AddCommand(programListCmd)
	programCmd.AddCommand(programRunCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&samplesDir, "samples", "samples", "Percussion sample directory")
	pf.StringVar(&pianoDir, "piano-samples", "piano_samples", "Piano sample directory")
	pf.StringVar(&scAddr, "sc-addr", "127.0.0.1:57110", "scsynth address for live playback")
	pf.StringVar(&rendererPath, "renderer", "", "Path to the non-realtime render helper (default: sc-score-render on PATH)")
	pf.StringVar(&ffmpegPath, "ffmpeg", "", "Path to ffmpeg for MP3 transcoding (default: ffmpeg on PATH)")

	drumsDemoCmd.Flags().StringVar(&demoInstrument, "instrument", "", "Audition a single instrument")
	drumsDemoCmd.Flags().StringVarP(&outputPath, "output", "o", "demo.wav", "Output WAV path")
	drumsDemoCmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "Render sample rate (default 44100)")
	drumsDemoCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	drumsRenderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output WAV path (default: input name with .wav)")
	drumsRenderCmd.Flags().StringArrayVar(&mapOverrides, "map", nil, "Note mapping override, note=instrument (repeatable)")
	drumsRenderCmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "Render sample rate (default 44100)")
	drumsRenderCmd.Flags().BoolVar(&makeMP3, "mp3", false, "Also transcode to MP3 (requires ffmpeg)")
	drumsRenderCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the render cache")
	drumsRenderCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	drumsPlayCmd.Flags().StringArrayVar(&mapOverrides, "map", nil, "Note mapping override, note=instrument (repeatable)")

	drumsMidiInCmd.Flags().StringVar(&midiPort, "port", "", "Input port name (substring match, default: first port)")
	drumsMidiInCmd.Flags().BoolVar(&listPorts, "list-ports", false, "List input ports and exit")
	drumsMidiInCmd.Flags().StringArrayVar(&mapOverrides, "map", nil, "Note mapping override, note=instrument (repeatable)")

	pianoRenderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output WAV path (default: input name with .wav)")
	pianoRenderCmd.Flags().StringVarP(&styleName, "style", "s", "raw", "Performance style (raw, debussy)")
	pianoRenderCmd.Flags().BoolVar(&quiet, "quiet", false, "Restrict to the soft dynamic layers")
	pianoRenderCmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for jitter and panning")
	pianoRenderCmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "Render sample rate (default 44100)")
	pianoRenderCmd.Flags().BoolVar(&makeMP3, "mp3", false, "Also transcode to MP3 (requires ffmpeg)")
	pianoRenderCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the render cache")
	pianoRenderCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	pianoPlayCmd.Flags().StringVarP(&styleName, "style", "s", "raw", "Performance style (raw, debussy)")
	pianoPlayCmd.Flags().BoolVar(&quiet, "quiet", false, "Restrict to the soft dynamic layers")
	pianoPlayCmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for jitter and panning")

	pianoRiffCmd.Flags().Float64Var(&riffDuration, "duration", 10, "Riff duration in seconds")
	pianoRiffCmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	pianoRiffCmd.Flags().BoolVar(&riffRender, "render", false, "Render to WAV instead of playing live")
	pianoRiffCmd.Flags().StringVarP(&outputPath, "output", "o", "riff.wav", "Output WAV path (with --render)")
	pianoRiffCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	programRunCmd.Flags().Float64Var(&intensity, "intensity", 0.5, "Program intensity in [0, 1]")
	programRunCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0: seed from the clock)")
	programRunCmd.Flags().DurationVar(&programTime, "duration", 0, "Stop after this long (0: run until interrupted)")
	programRunCmd.Flags().BoolVar(&quiet, "quiet", false, "Restrict the piano to its soft dynamic layers")

	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
}

// signalContext cancels on SIGINT/SIGTERM so live voices get released
// before the process exits.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, stopping...")
		cancel()
	}()
	return ctx, cancel
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func newRenderer() *render.Renderer {
	r := &render.Renderer{
		Runner:     exec.NewRunner(rendererPath, ffmpegPath),
		SamplesDir: samplesDir,
		PianoDir:   pianoDir,
		Out:        os.Stdout,
	}
	if !noCache {
		if dir, err := os.UserCacheDir(); err == nil {
			if cache, err := render.NewCache(filepath.Join(dir, "sc-sampler")); err == nil {
				r.Cache = cache
			}
		}
	}
	return r
}

func renderOptions() render.Options {
	return render.Options{
		SampleRate:       sampleRate,
		Seed:             seed,
		Quiet:            quiet,
		Style:            styleName,
		MappingOverrides: mapOverrides,
		MP3:              makeMP3,
		Verbose:          verbose,
	}
}

func defaultOutput(inputPath string) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return base + ".wav"
}

func dialLive() (*engine.Live, error) {
	conn, err := engine.DialSC(scAddr)
	if err != nil {
		return nil, fmt.Errorf("connect to scsynth at %s: %w", scAddr, err)
	}
	return engine.NewLive(conn), nil
}

func runDrumsList(cmd *cobra.Command, args []string) error {
	cat, err := catalog.New(samplesDir, engine.ChannelCount)
	if err != nil {
		return err
	}
	for _, name := range cat.Names() {
		inst, err := cat.Instrument(name)
		if err != nil {
			return err
		}
		notes := make([]string, 0, len(inst.MIDINotes))
		for _, n := range inst.MIDINotes {
			notes = append(notes, fmt.Sprintf("%d", n))
		}
		fmt.Printf("%-18s %d layers  notes %-10s %s\n",
			inst.Name, len(inst.Layers), strings.Join(notes, ","), inst.Description)
	}
	return nil
}

func runDrumsDemo(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	return newRenderer().RenderDrumDemo(ctx, demoInstrument, outputPath, renderOptions())
}

func runDrumsRender(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	out := outputPath
	if out == "" {
		out = defaultOutput(args[0])
	}
	return newRenderer().RenderDrums(ctx, args[0], out, renderOptions())
}

func runDrumsPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	timed, err := midi.LoadOnsets(args[0])
	if err != nil {
		return err
	}
	cat, err := catalog.New(samplesDir, engine.ChannelCount)
	if err != nil {
		return err
	}
	mapping, err := cat.ApplyOverrides(cat.DefaultMapping(), mapOverrides)
	if err != nil {
		return err
	}
	events := midi.BuildDrumEvents(timed, mapping)

	// Record placements offline, then replay them in wall-clock time.
	// Loading the same paths in the same order keeps buffer numbers
	// aligned between the two timelines.
	score := engine.NewScore()
	k := kit.New(cat, score)
	if err := k.Load(ctx); err != nil {
		return err
	}
	end, err := k.Schedule(events)
	if err != nil {
		return err
	}

	live, err := dialLive()
	if err != nil {
		return err
	}
	defer live.Close()

	paths := make([]string, 0, len(score.Buffers()))
	for _, buf := range score.Buffers() {
		paths = append(paths, buf.Path)
	}
	if _, err := live.LoadBuffers(ctx, paths); err != nil {
		return err
	}

	fmt.Printf("Playing %d events (%.1fs)\n", len(events), end)
	if err := engine.Perform(ctx, live, score.Placements()); err != nil {
		return err
	}
	sleepTail(ctx, kit.Tail)
	return nil
}

func runDrumsMidiIn(cmd *cobra.Command, args []string) error {
	if listPorts {
		ports := midiin.Ports()
		if len(ports) == 0 {
			fmt.Println("No MIDI input ports found")
			return nil
		}
		for _, name := range ports {
			fmt.Println(name)
		}
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	cat, err := catalog.New(samplesDir, engine.ChannelCount)
	if err != nil {
		return err
	}
	mapping, err := cat.ApplyOverrides(cat.DefaultMapping(), mapOverrides)
	if err != nil {
		return err
	}

	live, err := dialLive()
	if err != nil {
		return err
	}
	defer live.Close()

	k := kit.New(cat, live)
	if err := k.Load(ctx); err != nil {
		return err
	}

	logger := newLogger()
	return midiin.Listen(ctx, midiPort, k, mapping, logger)
}

func runPianoRender(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	out := outputPath
	if out == "" {
		out = defaultOutput(args[0])
	}
	return newRenderer().RenderPiano(ctx, args[0], out, renderOptions())
}

func runPianoPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	style, err := piano.Style(styleName)
	if err != nil {
		return err
	}
	notes, err := midi.LoadNotes(args[0])
	if err != nil {
		return err
	}

	score := engine.NewScore()
	buffers, err := piano.LoadBuffers(ctx, score, pianoDir)
	if err != nil {
		return err
	}
	lookup := piano.BuildLookup(quiet)
	end, err := piano.ScheduleNotes(score, lookup, buffers, notes, piano.ScheduleOptions{
		Start: 0.1,
		Style: style,
		Rand:  rand.New(rand.NewSource(seed)),
	})
	if err != nil {
		return err
	}

	live, err := dialLive()
	if err != nil {
		return err
	}
	defer live.Close()

	paths := make([]string, 0, len(score.Buffers()))
	for _, buf := range score.Buffers() {
		paths = append(paths, buf.Path)
	}
	if _, err := live.LoadBuffers(ctx, paths); err != nil {
		return err
	}

	fmt.Printf("Playing %d notes (%.1fs)\n", len(notes), end)
	return engine.Perform(ctx, live, score.Placements())
}

func runPianoRiff(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if riffRender {
		return newRenderer().RenderRiff(ctx, outputPath, riffDuration, renderOptions())
	}

	score := engine.NewScore()
	buffers, err := piano.LoadBuffers(ctx, score, pianoDir)
	if err != nil {
		return err
	}
	lookup := piano.BuildLookup(quiet)
	end, err := piano.ScheduleRiff(score, lookup, buffers, riffDuration, seed)
	if err != nil {
		return err
	}

	live, err := dialLive()
	if err != nil {
		return err
	}
	defer live.Close()

	paths := make([]string, 0, len(score.Buffers()))
	for _, buf := range score.Buffers() {
		paths = append(paths, buf.Path)
	}
	if _, err := live.LoadBuffers(ctx, paths); err != nil {
		return err
	}

	fmt.Printf("Playing riff (%.1fs)\n", end)
	return engine.Perform(ctx, live, score.Placements())
}

func runProgramList(cmd *cobra.Command, args []string) error {
	for _, p := range programs.List() {
		marker := " "
		if !p.Implemented() {
			marker = "*"
		}
		fmt.Printf("%s %-22s %s\n", marker, p.Name, p.Description)
	}
	fmt.Println("\n* planned, not implemented yet")
	return nil
}

func runProgramRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	p, err := programs.Get(args[0])
	if err != nil {
		return err
	}
	if !p.Implemented() {
		return fmt.Errorf("program %s is not implemented yet", p.Name)
	}

	live, err := dialLive()
	if err != nil {
		return err
	}
	defer live.Close()

	env, err := programs.LoadEnv(ctx, live, samplesDir, pianoDir, quiet, newLogger())
	if err != nil {
		return err
	}

	fmt.Printf("Running %s (Ctrl-C to stop)\n", p.Name)
	return programs.Run(ctx, p.Name, env, programs.Options{
		Intensity:  intensity,
		Seed:       seed,
		Duration:   programTime,
		Quiet:      quiet,
		SampleRate: sampleRate,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := server.New(server.Config{
		Port:       port,
		SamplesDir: samplesDir,
		PianoDir:   pianoDir,
		SCAddr:     scAddr,
		Renderer:   newRenderer(),
	})
	if err != nil {
		return err
	}
	return s.Run()
}

// sleepTail waits out release envelopes after the last live placement.
func sleepTail(ctx context.Context, seconds float64) {
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	}
}
