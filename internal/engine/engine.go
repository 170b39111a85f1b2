// Package engine is the boundary to the external synthesis engine
// (SuperCollider). The live path speaks to a running scsynth through
// scgolang/sc; the offline path records a score and hands it to the
// non-realtime render helper. Everything above this package deals only in
// fully-resolved voice parameter sets.
package engine

import (
	"context"
	"math"
	"time"
)

// DefaultLoadBatchSize bounds how many buffer allocations go into a single
// command bundle on a live connection.
const DefaultLoadBatchSize = 24

// DefaultLoadTimeout bounds the wait for asynchronous buffer reads to
// report a nonzero frame count.
const DefaultLoadTimeout = 30 * time.Second

// Buffer is an opaque handle to an engine-side sample buffer.
type Buffer struct {
	Num  int32
	Path string
}

// Placement is one fully-resolved "play this buffer at this time with
// these parameters" instruction.
type Placement struct {
	Time float64            `json:"time"`
	Def  string             `json:"def"`
	Ctls map[string]float32 `json:"ctls"`
}

// Voice is a handle to a sounding long-duration synthesis node.
type Voice interface {
	// Set updates controls on the node.
	Set(ctls map[string]float32) error
	// Release gates the node off; the node frees itself after its
	// envelope's release tail.
	Release() error
}

// Timeline is either an offline score (times relative to a logical zero)
// or a live server connection (times are wall-clock, issued as they come
// due).
type Timeline interface {
	// Offline reports whether placements are recorded against a logical
	// zero rather than issued in real time.
	Offline() bool
	// LoadBuffers allocates engine buffers for the given files and waits
	// for them to be readable.
	LoadBuffers(ctx context.Context, paths []string) ([]Buffer, error)
	// PlayAt places a voice. On a score the time is honored literally; on
	// a live connection the voice starts immediately (callers walk sorted
	// placements and sleep until each is due).
	PlayAt(t float64, def string, ctls map[string]float32) (Voice, error)
	Close() error
}

// VelocityAmplitude maps MIDI velocity to a linear amplitude using the
// usual quadratic loudness curve.
func VelocityAmplitude(velocity int) float64 {
	if velocity < 0 {
		velocity = 0
	} else if velocity > 127 {
		velocity = 127
	}
	n := float64(velocity) / 127.0
	return n * n
}

// MidiRatio converts a semitone offset to a playback-rate multiplier.
func MidiRatio(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}
