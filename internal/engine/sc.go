package engine

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/mkb218/gosndfile/sndfile"
	"github.com/pkg/errors"
	"github.com/scgolang/sc"
)

// SCConn drives a running scsynth through scgolang/sc. Buffer reads over
// this client block until the server acknowledges them, so BufferFrames
// answers from the frame counts captured at load time.
type SCConn struct {
	client *sc.Client
	group  *sc.Group

	mu     sync.Mutex
	synths map[int32]*sc.Synth
	frames map[int32]int64
}

// DialSC connects to scsynth at addr (host:port), sends the sampler
// synthdefs and sets up the default group.
func DialSC(addr string) (*SCConn, error) {
	client, err := sc.NewClient("udp", "0.0.0.0:0", addr, 5*time.Second)
	if err != nil {
		return nil, errors.Wrap(err, "connect to scsynth")
	}
	group, err := client.AddDefaultGroup()
	if err != nil {
		return nil, errors.Wrap(err, "add default group")
	}
	for _, def := range Defs() {
		if err := client.SendDef(def); err != nil {
			return nil, errors.Wrapf(err, "send synthdef %s", def.Name)
		}
	}
	return &SCConn{
		client: client,
		group:  group,
		synths: map[int32]*sc.Synth{},
		frames: map[int32]int64{},
	}, nil
}

func (c *SCConn) LoadBuffer(path string, num int32) error {
	var info sndfile.Info
	handle, err := sndfile.Open(path, sndfile.Read, &info)
	if err != nil {
		return errors.Wrapf(err, "open sample %s", path)
	}
	_ = handle.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := c.client.ReadBuffer(abs, num); err != nil {
		return errors.Wrapf(err, "read buffer %s", path)
	}
	c.mu.Lock()
	c.frames[num] = info.Frames
	c.mu.Unlock()
	return nil
}

func (c *SCConn) BufferFrames(num int32) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[num], nil
}

func (c *SCConn) Spawn(def string, ctls map[string]float32) (int32, error) {
	id := c.client.NextSynthID()
	synth, err := c.group.Synth(def, id, sc.AddToTail, ctls)
	if err != nil {
		return 0, errors.Wrapf(err, "spawn %s", def)
	}
	c.mu.Lock()
	c.synths[id] = synth
	c.mu.Unlock()
	return id, nil
}

func (c *SCConn) SetNode(id int32, ctls map[string]float32) error {
	c.mu.Lock()
	synth := c.synths[id]
	c.mu.Unlock()
	if synth == nil {
		return errors.Errorf("no synth with id %d", id)
	}
	return synth.Set(ctls)
}

func (c *SCConn) Close() error {
	return c.client.Close()
}

// ChannelCount reads the channel count of an audio file. Used by the
// catalog at construction time so the right voice definition is chosen
// per layer.
func ChannelCount(path string) (int, error) {
	var info sndfile.Info
	handle, err := sndfile.Open(path, sndfile.Read, &info)
	if err != nil {
		return 0, errors.Wrapf(err, "open sample %s", path)
	}
	_ = handle.Close()
	return int(info.Channels), nil
}
