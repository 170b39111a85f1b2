package exec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	serr "github.com/dygy/sc-sampler/internal/errors"
)

// Result holds command execution output
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes the external audio tools (non-realtime renderer, ffmpeg)
// with context support.
type Runner struct {
	RendererPath string
	FFmpegPath   string
}

// NewRunner creates a new command runner
func NewRunner(rendererPath, ffmpegPath string) *Runner {
	if rendererPath == "" {
		rendererPath = "sc-score-render"
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Runner{
		RendererPath: rendererPath,
		FFmpegPath:   ffmpegPath,
	}
}

// RenderScore invokes the non-realtime renderer on a serialized score file.
func (r *Runner) RenderScore(ctx context.Context, scorePath, outputPath string, sampleRate int) (*Result, error) {
	return r.execute(ctx, r.RendererPath,
		scorePath,
		"--output", outputPath,
		"--sample-rate", fmt.Sprintf("%d", sampleRate),
		"--header-format", "wav",
	)
}

// Transcode converts a rendered WAV to MP3 via ffmpeg.
func (r *Runner) Transcode(ctx context.Context, wavPath, mp3Path string) (*Result, error) {
	return r.execute(ctx, r.FFmpegPath, "-y", "-i", wavPath, mp3Path)
}

// CheckTool verifies an external tool is on PATH.
func (r *Runner) CheckTool(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%w: %s", serr.ErrToolNotInstalled, name)
	}
	return nil
}

// HasFFmpeg reports whether the optional transcoder is available.
func (r *Runner) HasFFmpeg() bool {
	return r.CheckTool(r.FFmpegPath) == nil
}

// execute runs a command and captures output
func (r *Runner) execute(ctx context.Context, name string, args ...string) (*Result, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
	}

	if err != nil {
		return result, fmt.Errorf("command failed: %w", err)
	}

	return result, nil
}
