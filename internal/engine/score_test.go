package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	serr "github.com/dygy/sc-sampler/internal/errors"
)

func writeSample(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScoreLoadBuffers(t *testing.T) {
	dir := t.TempDir()
	a := writeSample(t, dir, "a.wav")
	b := writeSample(t, dir, "b.wav")

	s := NewScore()
	buffers, err := s.LoadBuffers(context.Background(), []string{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if len(buffers) != 2 {
		t.Fatalf("got %d buffers", len(buffers))
	}
	if buffers[0].Num == buffers[1].Num {
		t.Error("buffer numbers not unique")
	}

	_, err = s.LoadBuffers(context.Background(), []string{filepath.Join(dir, "missing.wav")})
	if !errors.Is(err, serr.ErrSampleMissing) {
		t.Errorf("err = %v, want ErrSampleMissing", err)
	}
}

func TestScorePlacements(t *testing.T) {
	s := NewScore()
	if _, err := s.PlayAt(2.0, DefDrumVoiceMono, map[string]float32{"amp": 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PlayAt(0.5, DefDrumVoiceStereo, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PlayAt(-1.0, DefPianoVoice, nil); err != nil {
		t.Fatal(err)
	}

	placements := s.Placements()
	if len(placements) != 3 {
		t.Fatalf("got %d placements", len(placements))
	}
	if placements[0].Time != 0 {
		t.Errorf("negative time not clamped: %f", placements[0].Time)
	}
	for i := 1; i < len(placements); i++ {
		if placements[i].Time < placements[i-1].Time {
			t.Errorf("placements out of order at %d", i)
		}
	}
}

func TestScoreEnd(t *testing.T) {
	s := NewScore()
	if _, err := s.PlayAt(3.0, DefDrumVoiceMono, nil); err != nil {
		t.Fatal(err)
	}
	if s.End() < 3.0 {
		t.Errorf("end = %f, want at least the last placement", s.End())
	}
	s.SetEnd(10.0)
	if s.End() != 10.0 {
		t.Errorf("end = %f, want 10.0", s.End())
	}
	// SetEnd never shortens the score.
	s.SetEnd(1.0)
	if s.End() != 10.0 {
		t.Errorf("end = %f after shorter SetEnd, want 10.0", s.End())
	}
}

func TestScoreWriteFile(t *testing.T) {
	dir := t.TempDir()
	sample := writeSample(t, dir, "hit.wav")

	s := NewScore()
	buffers, err := s.LoadBuffers(context.Background(), []string{sample})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.PlayAt(0.25, DefDrumVoiceMono, map[string]float32{"bufnum": float32(buffers[0].Num)}); err != nil {
		t.Fatal(err)
	}
	s.SetEnd(2.0)

	path := filepath.Join(dir, "score.json")
	if err := s.WriteFile(path, 48000); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		SampleRate int     `json:"sample_rate"`
		EndTime    float64 `json:"end_time"`
		Buffers    []struct {
			Num  int32  `json:"num"`
			Path string `json:"path"`
		} `json:"buffers"`
		Events []struct {
			Time float64            `json:"time"`
			Def  string             `json:"def"`
			Ctls map[string]float32 `json:"ctls"`
		} `json:"events"`
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.SampleRate != 48000 || doc.EndTime != 2.0 {
		t.Errorf("header = %+v", doc)
	}
	if len(doc.Buffers) != 1 || doc.Buffers[0].Path != sample {
		t.Errorf("buffers = %+v", doc.Buffers)
	}
	if len(doc.Events) != 1 || doc.Events[0].Def != DefDrumVoiceMono {
		t.Errorf("events = %+v", doc.Events)
	}
}
