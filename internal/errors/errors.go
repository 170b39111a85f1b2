package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrUnknownProgram    = errors.New("unknown program")
	ErrNotImplemented    = errors.New("program not implemented yet")
	ErrMissingHeader     = errors.New("missing Header division")
	ErrUnsupportedFormat = errors.New("unsupported file extension")
	ErrBadOverride       = errors.New("malformed note mapping override")
	ErrSampleMissing     = errors.New("sample file missing or unreadable")
	ErrBufferTimeout     = errors.New("timed out waiting for buffers to load")
	ErrToolNotInstalled  = errors.New("required tool not installed")
	ErrNoMIDIInput       = errors.New("no MIDI input port found")
)

// ProcessError represents a failure in an external process
type ProcessError struct {
	Tool     string // "scsynth", "ffmpeg"
	Stage    string // "render", "transcode"
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed at %s (exit %d): %s", e.Tool, e.Stage, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s failed at %s (exit %d)", e.Tool, e.Stage, e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// NewProcessError creates a ProcessError
func NewProcessError(tool, stage string, exitCode int, stderr string, cause error) *ProcessError {
	return &ProcessError{
		Tool:     tool,
		Stage:    stage,
		ExitCode: exitCode,
		Stderr:   stderr,
		Cause:    cause,
	}
}

// RenderError is a nonzero exit status from the offline render step.
type RenderError struct {
	Status int
	Stderr string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed with exit code %d", e.Status)
}
