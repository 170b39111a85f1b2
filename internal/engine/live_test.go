package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	serr "github.com/dygy/sc-sampler/internal/errors"
)

// fakeConn is an in-memory engine connection. Buffers become ready after
// readyAfter polls; zero means immediately.
type fakeConn struct {
	mu         sync.Mutex
	ops        []string
	readyAfter int
	polls      map[int32]int
	spawned    []string
	sets       map[int32][]map[string]float32
	nextID     int32
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		polls: make(map[int32]int),
		sets:  make(map[int32][]map[string]float32),
	}
}

func (c *fakeConn) LoadBuffer(path string, num int32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, fmt.Sprintf("load %d", num))
	return nil
}

func (c *fakeConn) BufferFrames(num int32) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, fmt.Sprintf("poll %d", num))
	c.polls[num]++
	if c.polls[num] > c.readyAfter {
		return 44100, nil
	}
	return 0, nil
}

func (c *fakeConn) Spawn(def string, ctls map[string]float32) (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.spawned = append(c.spawned, def)
	return c.nextID, nil
}

func (c *fakeConn) SetNode(id int32, ctls map[string]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[id] = append(c.sets[id], ctls)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func TestLiveLoadBuffersBatches(t *testing.T) {
	conn := newFakeConn()
	l := NewLive(conn)
	l.BatchSize = 2
	l.PollInterval = time.Millisecond

	paths := []string{"a.wav", "b.wav", "c.wav", "d.wav", "e.wav"}
	buffers, err := l.LoadBuffers(context.Background(), paths)
	if err != nil {
		t.Fatal(err)
	}
	if len(buffers) != 5 {
		t.Fatalf("got %d buffers", len(buffers))
	}

	// Each batch must finish loading before the next batch is issued.
	loads := 0
	for _, op := range conn.ops {
		if op[:4] == "load" {
			loads++
			if loads > l.BatchSize {
				t.Fatalf("saw %d loads without an intervening wait", loads)
			}
		} else {
			loads = 0
		}
	}
}

func TestLiveLoadBuffersWaitsForReadiness(t *testing.T) {
	conn := newFakeConn()
	conn.readyAfter = 2
	l := NewLive(conn)
	l.PollInterval = time.Millisecond

	if _, err := l.LoadBuffers(context.Background(), []string{"a.wav"}); err != nil {
		t.Fatal(err)
	}
	if conn.polls[0] <= conn.readyAfter {
		t.Errorf("polled %d times, want more than %d", conn.polls[0], conn.readyAfter)
	}
}

func TestLiveLoadBuffersTimeout(t *testing.T) {
	conn := newFakeConn()
	conn.readyAfter = 1 << 30 // never ready
	l := NewLive(conn)
	l.PollInterval = time.Millisecond
	l.LoadTimeout = 10 * time.Millisecond

	_, err := l.LoadBuffers(context.Background(), []string{"a.wav"})
	if !errors.Is(err, serr.ErrBufferTimeout) {
		t.Errorf("err = %v, want ErrBufferTimeout", err)
	}
}

func TestLiveVoiceRelease(t *testing.T) {
	conn := newFakeConn()
	l := NewLive(conn)

	v, err := l.PlayAt(0, DefGrainCloud, map[string]float32{"amp": 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Release(); err != nil {
		t.Fatal(err)
	}
	sets := conn.sets[1]
	if len(sets) != 1 || sets[0]["gate"] != 0 {
		t.Errorf("release sets = %+v, want gate 0", sets)
	}
}

func TestPerformOrdersPlacements(t *testing.T) {
	conn := newFakeConn()
	l := NewLive(conn)

	placements := []Placement{
		{Time: 0.02, Def: "b"},
		{Time: 0.0, Def: "a"},
		{Time: 0.04, Def: "c"},
	}
	if err := Perform(context.Background(), l, placements); err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "c"}
	for i, def := range want {
		if conn.spawned[i] != def {
			t.Fatalf("spawn order = %v, want %v", conn.spawned, want)
		}
	}
}

func TestPerformHonorsCancel(t *testing.T) {
	conn := newFakeConn()
	l := NewLive(conn)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Perform(ctx, l, []Placement{{Time: 60.0, Def: "late"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(conn.spawned) != 0 {
		t.Errorf("spawned %v after cancel", conn.spawned)
	}
}
