package kit

import (
	"context"
	"math"
	"testing"

	"github.com/dygy/sc-sampler/internal/catalog"
	"github.com/dygy/sc-sampler/internal/engine"
	"github.com/dygy/sc-sampler/internal/midi"
)

// fakeTimeline records placements without touching the filesystem or a
// server.
type fakeTimeline struct {
	placements []engine.Placement
	nextNum    int32
}

func (f *fakeTimeline) Offline() bool { return true }

func (f *fakeTimeline) LoadBuffers(_ context.Context, paths []string) ([]engine.Buffer, error) {
	buffers := make([]engine.Buffer, 0, len(paths))
	for _, p := range paths {
		buffers = append(buffers, engine.Buffer{Num: f.nextNum, Path: p})
		f.nextNum++
	}
	return buffers, nil
}

func (f *fakeTimeline) PlayAt(t float64, def string, ctls map[string]float32) (engine.Voice, error) {
	f.placements = append(f.placements, engine.Placement{Time: t, Def: def, Ctls: ctls})
	return noVoice{}, nil
}

func (f *fakeTimeline) Close() error { return nil }

type noVoice struct{}

func (noVoice) Set(map[string]float32) error { return nil }
func (noVoice) Release() error               { return nil }

func monoProbe(string) (int, error) { return 1, nil }

func newTestKit(t *testing.T) (*Kit, *fakeTimeline) {
	t.Helper()
	cat, err := catalog.New("samples", monoProbe)
	if err != nil {
		t.Fatal(err)
	}
	tl := &fakeTimeline{}
	k := New(cat, tl)
	if err := k.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return k, tl
}

func TestScheduleBuildsPlacements(t *testing.T) {
	k, tl := newTestKit(t)
	pan := 0.5
	events := []midi.DrumEvent{
		{Time: 0.0, Instrument: "kick_open", Velocity: 127},
		{Time: 1.25, Instrument: "snare_bright", Velocity: 64, Pan: &pan},
	}
	end, err := k.Schedule(events)
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.placements) != 2 {
		t.Fatalf("got %d placements, want 2", len(tl.placements))
	}

	first := tl.placements[0]
	if first.Time != 0.0 || first.Def != engine.DefDrumVoiceMono {
		t.Errorf("first placement = %+v", first)
	}
	wantAmp := float32(engine.VelocityAmplitude(127))
	if math.Abs(float64(first.Ctls["amp"]-wantAmp)) > 1e-6 {
		t.Errorf("amp = %f, want %f", first.Ctls["amp"], wantAmp)
	}

	second := tl.placements[1]
	if second.Time != 1.25 {
		t.Errorf("second placement time = %f", second.Time)
	}
	if second.Ctls["pan"] != 0.5 {
		t.Errorf("pan = %f, want explicit override 0.5", second.Ctls["pan"])
	}

	if want := 1.25 + Tail; end != want {
		t.Errorf("end = %f, want %f", end, want)
	}
}

func TestSchedulingTwiceIsIdentical(t *testing.T) {
	events := []midi.DrumEvent{
		{Time: 0.0, Instrument: "side_stick", Velocity: 45},
		{Time: 0.5, Instrument: "side_stick", Velocity: 45},
		{Time: 1.0, Instrument: "side_stick", Velocity: 45},
	}

	k1, tl1 := newTestKit(t)
	if _, err := k1.Schedule(events); err != nil {
		t.Fatal(err)
	}
	k2, tl2 := newTestKit(t)
	if _, err := k2.Schedule(events); err != nil {
		t.Fatal(err)
	}

	for i := range tl1.placements {
		if tl1.placements[i].Ctls["bufnum"] != tl2.placements[i].Ctls["bufnum"] {
			t.Errorf("placement %d chose different layers across runs", i)
		}
	}
}

func TestScheduleUnknownInstrument(t *testing.T) {
	k, _ := newTestKit(t)
	_, err := k.Schedule([]midi.DrumEvent{{Instrument: "cowbell", Velocity: 90}})
	if err == nil {
		t.Fatal("expected error for unknown instrument")
	}
}

func TestTriggerPlaysImmediately(t *testing.T) {
	k, tl := newTestKit(t)
	if err := k.Trigger("kick_open", 100, nil); err != nil {
		t.Fatal(err)
	}
	if len(tl.placements) != 1 || tl.placements[0].Time != 0 {
		t.Fatalf("placements = %+v", tl.placements)
	}
}

func TestKitDemoOrdering(t *testing.T) {
	events := KitDemo([]string{"kick_open", "snare_bright"})
	if len(events) != 2*len(DemoVelocities)+2 {
		t.Fatalf("got %d events", len(events))
	}
	last := -1.0
	for i, ev := range events {
		if ev.Time < last {
			t.Fatalf("event %d goes backwards in time", i)
		}
		last = ev.Time
	}
}
