// Package midiin plays a loaded drum kit from a hardware MIDI input port.
package midiin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI driver

	serr "github.com/dygy/sc-sampler/internal/errors"
	"github.com/dygy/sc-sampler/internal/kit"
)

// Ports returns the names of the available MIDI input ports.
func Ports() []string {
	ins := gomidi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// findPort matches port names case-insensitively by substring. An empty
// name selects the first available port.
func findPort(name string) (drivers.In, error) {
	ins := gomidi.GetInPorts()
	if len(ins) == 0 {
		return nil, serr.ErrNoMIDIInput
	}
	if name == "" {
		return ins[0], nil
	}
	want := strings.ToLower(name)
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), want) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: no port matching %q", serr.ErrNoMIDIInput, name)
}

// Listen opens the named input port and triggers the mapped instrument for
// every note-on message until ctx is done. Unmapped notes and zero-velocity
// note-ons are ignored.
func Listen(ctx context.Context, portName string, k *kit.Kit, mapping map[int]string, logger *slog.Logger) error {
	defer gomidi.CloseDriver()

	in, err := findPort(portName)
	if err != nil {
		return err
	}
	logger.Info("listening for MIDI input", slog.String("port", in.String()))

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		var channel, note, velocity uint8
		if !msg.GetNoteOn(&channel, &note, &velocity) || velocity == 0 {
			return
		}
		inst, ok := mapping[int(note)]
		if !ok {
			logger.Debug("unmapped note", slog.Int("note", int(note)))
			return
		}
		if err := k.Trigger(inst, int(velocity), nil); err != nil {
			logger.Warn("trigger failed", slog.String("instrument", inst), slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("open input %s: %w", in.String(), err)
	}
	defer stop()

	<-ctx.Done()
	return nil
}
