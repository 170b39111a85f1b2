package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	serr "github.com/dygy/sc-sampler/internal/errors"
	"github.com/dygy/sc-sampler/internal/exec"
)

// Score is an offline timeline. Placements are recorded against t=0, fully
// ordered before rendering begins, then serialized for the non-realtime
// render helper.
type Score struct {
	nextBuf    int32
	buffers    []Buffer
	placements []Placement
	end        float64
}

// NewScore creates an empty offline timeline.
func NewScore() *Score {
	return &Score{}
}

func (s *Score) Offline() bool { return true }

// LoadBuffers records buffer allocations at the head of the score. Offline
// reads are synchronous on the renderer side, so there is nothing to wait
// for here beyond checking the files exist.
func (s *Score) LoadBuffers(_ context.Context, paths []string) ([]Buffer, error) {
	out := make([]Buffer, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", serr.ErrSampleMissing, path)
		}
		buf := Buffer{Num: s.nextBuf, Path: path}
		s.nextBuf++
		s.buffers = append(s.buffers, buf)
		out = append(out, buf)
	}
	return out, nil
}

func (s *Score) PlayAt(t float64, def string, ctls map[string]float32) (Voice, error) {
	if t < 0 {
		t = 0
	}
	s.placements = append(s.placements, Placement{Time: t, Def: def, Ctls: ctls})
	if t > s.end {
		s.end = t
	}
	return scoreVoice{}, nil
}

func (s *Score) Close() error { return nil }

// SetEnd extends the logical end of the score so release tails are
// rendered instead of truncated.
func (s *Score) SetEnd(t float64) {
	if t > s.end {
		s.end = t
	}
}

// End returns the logical end time of the score.
func (s *Score) End() float64 { return s.end }

// Buffers returns recorded buffer allocations in allocation order. Loading
// the same paths in the same order on another timeline reproduces the
// numbering, which is how recorded placements replay against a live engine.
func (s *Score) Buffers() []Buffer {
	out := make([]Buffer, len(s.buffers))
	copy(out, s.buffers)
	return out
}

// Placements returns the recorded placements sorted by time.
func (s *Score) Placements() []Placement {
	out := make([]Placement, len(s.placements))
	copy(out, s.placements)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// scoreDocument is the serialized form handed to the render helper.
type scoreDocument struct {
	SampleRate int         `json:"sample_rate"`
	EndTime    float64     `json:"end_time"`
	Buffers    []Buffer    `json:"buffers"`
	Events     []Placement `json:"events"`
}

// MarshalJSON keeps the on-disk field names stable.
func (b Buffer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Num  int32  `json:"num"`
		Path string `json:"path"`
	}{b.Num, b.Path})
}

// WriteFile serializes the score as the JSON command file the render
// helper consumes.
func (s *Score) WriteFile(path string, sampleRate int) error {
	doc := scoreDocument{
		SampleRate: sampleRate,
		EndTime:    s.end,
		Buffers:    s.buffers,
		Events:     s.Placements(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write score: %w", err)
	}
	return nil
}

// Render serializes the score into workDir and runs the external
// non-realtime renderer. A nonzero renderer exit is fatal and carries the
// status code.
func (s *Score) Render(ctx context.Context, runner *exec.Runner, workDir, outputPath string, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	scorePath := filepath.Join(workDir, "score.json")
	if err := s.WriteFile(scorePath, sampleRate); err != nil {
		return err
	}
	result, err := runner.RenderScore(ctx, scorePath, outputPath, sampleRate)
	if err != nil {
		code := 1
		stderr := ""
		if result != nil {
			code = result.ExitCode
			stderr = result.Stderr
		}
		if code == 0 {
			code = 1
		}
		return &serr.RenderError{Status: code, Stderr: stderr}
	}
	return nil
}

type scoreVoice struct{}

func (scoreVoice) Set(map[string]float32) error { return nil }
func (scoreVoice) Release() error               { return nil }
