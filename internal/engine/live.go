package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	serr "github.com/dygy/sc-sampler/internal/errors"
)

// Conn is the command subset the samplers issue against a live engine.
// The engine may be asynchronous internally; this repository treats it as
// a synchronous command queue plus a bounded polling wait for buffer
// readiness.
type Conn interface {
	LoadBuffer(path string, num int32) error
	// BufferFrames reports the frame count the engine sees for a buffer;
	// zero means the asynchronous read has not completed.
	BufferFrames(num int32) (int64, error)
	Spawn(def string, ctls map[string]float32) (int32, error)
	SetNode(id int32, ctls map[string]float32) error
	Close() error
}

// Live is a realtime timeline over an engine connection. "Now" is wall
// clock; late events play late.
type Live struct {
	conn         Conn
	BatchSize    int
	LoadTimeout  time.Duration
	PollInterval time.Duration
	nextBuf      int32
}

// NewLive wraps an engine connection with the default batching and
// load-wait policy.
func NewLive(conn Conn) *Live {
	return &Live{
		conn:         conn,
		BatchSize:    DefaultLoadBatchSize,
		LoadTimeout:  DefaultLoadTimeout,
		PollInterval: 50 * time.Millisecond,
	}
}

func (l *Live) Offline() bool { return false }

// LoadBuffers allocates buffers in bounded batches, then polls until every
// buffer reports a nonzero frame count. Avoids stuffing hundreds of buffer
// allocs into a single command bundle.
func (l *Live) LoadBuffers(ctx context.Context, paths []string) ([]Buffer, error) {
	batchSize := l.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultLoadBatchSize
	}
	buffers := make([]Buffer, 0, len(paths))
	for start := 0; start < len(paths); start += batchSize {
		end := start + batchSize
		if end > len(paths) {
			end = len(paths)
		}
		batch := make([]Buffer, 0, end-start)
		for _, path := range paths[start:end] {
			buf := Buffer{Num: l.nextBuf, Path: path}
			l.nextBuf++
			if err := l.conn.LoadBuffer(path, buf.Num); err != nil {
				return nil, fmt.Errorf("%w: %s", serr.ErrSampleMissing, path)
			}
			batch = append(batch, buf)
		}
		if err := l.waitLoaded(ctx, batch); err != nil {
			return nil, err
		}
		buffers = append(buffers, batch...)
	}
	return buffers, nil
}

// waitLoaded polls buffer frame counts until all are nonzero or the
// deadline passes. Exceeding the deadline is fatal for the run.
func (l *Live) waitLoaded(ctx context.Context, buffers []Buffer) error {
	deadline := time.Now().Add(l.LoadTimeout)
	pending := make([]Buffer, len(buffers))
	copy(pending, buffers)
	for len(pending) > 0 {
		still := pending[:0]
		for _, buf := range pending {
			frames, err := l.conn.BufferFrames(buf.Num)
			if err != nil || frames <= 0 {
				still = append(still, buf)
			}
		}
		pending = still
		if len(pending) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %d buffers still pending", serr.ErrBufferTimeout, len(pending))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.PollInterval):
		}
	}
	return nil
}

// PlayAt spawns a voice immediately. Timed playback against a live
// connection is done by walking sorted placements (see Perform).
func (l *Live) PlayAt(_ float64, def string, ctls map[string]float32) (Voice, error) {
	id, err := l.conn.Spawn(def, ctls)
	if err != nil {
		return nil, err
	}
	return &liveVoice{conn: l.conn, id: id}, nil
}

func (l *Live) Close() error { return l.conn.Close() }

type liveVoice struct {
	conn Conn
	id   int32
}

func (v *liveVoice) Set(ctls map[string]float32) error {
	return v.conn.SetNode(v.id, ctls)
}

func (v *liveVoice) Release() error {
	return v.conn.SetNode(v.id, map[string]float32{"gate": 0})
}

// Perform issues placements against a live timeline in wall-clock time,
// sleeping until each is due. If the host stalls, no catch-up is
// attempted.
func Perform(ctx context.Context, tl Timeline, placements []Placement) error {
	sorted := make([]Placement, len(placements))
	copy(sorted, placements)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	start := time.Now()
	for _, p := range sorted {
		due := start.Add(time.Duration(p.Time * float64(time.Second)))
		if wait := time.Until(due); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if _, err := tl.PlayAt(p.Time, p.Def, p.Ctls); err != nil {
			return err
		}
	}
	return nil
}
