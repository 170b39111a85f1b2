package catalog

import (
	"fmt"
	"strconv"
	"strings"

	serr "github.com/dygy/sc-sampler/internal/errors"
)

// DefaultMapping builds the MIDI-note to instrument table from each
// instrument's declared notes, then fills the common General MIDI cymbal
// slots with the open low drum so percussion files do not go half silent.
func (c *Catalog) DefaultMapping() map[int]string {
	mapping := map[int]string{}
	for _, name := range c.names {
		inst := c.instruments[name]
		for _, note := range inst.MIDINotes {
			mapping[note] = inst.Name
		}
	}
	for _, note := range []int{49, 51, 57} {
		if _, ok := mapping[note]; !ok {
			mapping[note] = "ethnic_low_open"
		}
	}
	return mapping
}

// ApplyOverrides applies user "note=instrument" pairs on top of a base
// mapping. Unknown instrument names and malformed pairs are rejected
// before any engine work begins.
func (c *Catalog) ApplyOverrides(base map[int]string, overrides []string) (map[int]string, error) {
	mapping := make(map[int]string, len(base))
	for note, name := range base {
		mapping[note] = name
	}
	for _, item := range overrides {
		noteStr, name, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", serr.ErrBadOverride, item)
		}
		note, err := strconv.Atoi(strings.TrimSpace(noteStr))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", serr.ErrBadOverride, item)
		}
		name = strings.TrimSpace(name)
		if !c.Has(name) {
			return nil, fmt.Errorf("%w: %s", serr.ErrUnknownInstrument, name)
		}
		mapping[note] = name
	}
	return mapping, nil
}
