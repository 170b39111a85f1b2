// Package catalog holds the percussion instrument table: which recorded
// sample layers exist per instrument, which MIDI notes trigger them, and
// how a requested velocity picks a layer. The catalog is immutable after
// construction; selection state (round-robin cursors) lives in a Selector.
package catalog

import (
	"fmt"
	"math"
	"path/filepath"

	serr "github.com/dygy/sc-sampler/internal/errors"
)

// SampleLayer is one recorded take of an instrument, tagged with the
// velocity it was recorded at.
type SampleLayer struct {
	Path          string
	VelocityHint  int // 1-127
	Gain          float64
	TuneSemitones float64
	ChannelCount  int
}

// Rate converts the layer's tuning offset to a playback-rate multiplier.
func (l SampleLayer) Rate() float64 {
	return math.Pow(2, l.TuneSemitones/12)
}

// Instrument is a pitch register of the kit with its velocity layers.
type Instrument struct {
	Name        string
	Description string
	Layers      []SampleLayer
	MIDINotes   []int
	DefaultPan  float64
	BaseGain    float64
}

// Catalog is the process-wide read-only instrument table, constructed
// once at startup and passed to all consumers.
type Catalog struct {
	instruments map[string]*Instrument
	names       []string
}

// ChannelProber reads the channel count of a sample file.
type ChannelProber func(path string) (int, error)

// New builds the VSCO-1 percussion catalog rooted at samplesDir, probing
// each sample's channel count so playback picks the right voice graph.
func New(samplesDir string, probe ChannelProber) (*Catalog, error) {
	if probe == nil {
		return nil, fmt.Errorf("catalog: nil channel prober")
	}
	c := &Catalog{instruments: map[string]*Instrument{}}
	for _, spec := range instrumentTable {
		inst := &Instrument{
			Name:        spec.name,
			Description: spec.description,
			MIDINotes:   spec.midiNotes,
			DefaultPan:  spec.defaultPan,
			BaseGain:    spec.baseGain,
		}
		for _, layer := range spec.layers {
			path := filepath.Join(samplesDir, layer.file)
			channels, err := probe(path)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", serr.ErrSampleMissing, path)
			}
			inst.Layers = append(inst.Layers, SampleLayer{
				Path:         path,
				VelocityHint: layer.velocityHint,
				Gain:         layer.gain,
				ChannelCount: channels,
			})
		}
		c.instruments[inst.Name] = inst
		c.names = append(c.names, inst.Name)
	}
	return c, nil
}

// Instrument looks up an instrument by name. Unknown names are an error,
// never a silent default.
func (c *Catalog) Instrument(name string) (*Instrument, error) {
	inst, ok := c.instruments[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", serr.ErrUnknownInstrument, name)
	}
	return inst, nil
}

// Has reports whether an instrument exists.
func (c *Catalog) Has(name string) bool {
	_, ok := c.instruments[name]
	return ok
}

// Names returns instrument names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

type layerSpec struct {
	file         string
	velocityHint int
	gain         float64
}

type instrumentSpec struct {
	name        string
	description string
	layers      []layerSpec
	midiNotes   []int
	defaultPan  float64
	baseGain    float64
}

func layer(file string, velocityHint int) layerSpec {
	return layerSpec{file: file, velocityHint: velocityHint, gain: 1.0}
}

// instrumentTable is the curated VSCO-1 drum pack. Layer hints follow the
// recorded dynamic markings (ppp..fff).
var instrumentTable = []instrumentSpec{
	{
		name:        "kick_open",
		description: "Open concert bass drum (natural ring)",
		midiNotes:   []int{35, 36},
		baseGain:    1.0,
		layers: []layerSpec{
			layer("375280__sgossner__bass-drum-bdrum_ppp_3.wav", 15),
			layer("375277__sgossner__bass-drum-bdrum_pp_2.wav", 32),
			layer("375275__sgossner__bass-drum-bdrum_p_1.wav", 48),
			layer("375262__sgossner__bass-drum-bdrum_mp_1.wav", 64),
			layer("375257__sgossner__bass-drum-bdrum_f_1.wav", 90),
			layer("375259__sgossner__bass-drum-bdrum_ff_1.wav", 110),
			layer("375260__sgossner__bass-drum-bdrum_fff_1.wav", 124),
		},
	},
	{
		name:        "kick_muted",
		description: "Damped bass drum for tight hits",
		midiNotes:   []int{34},
		baseGain:    1.1,
		layers: []layerSpec{
			layer("375270__sgossner__bass-drum-bdrum_muted_pp_1.wav", 28),
			layer("375268__sgossner__bass-drum-bdrum_muted_mp_1.wav", 52),
			layer("375267__sgossner__bass-drum-bdrum_muted_mf_1.wav", 74),
			layer("375264__sgossner__bass-drum-bdrum_muted_ff_1.wav", 108),
			layer("375265__sgossner__bass-drum-bdrum_muted_fff_1.wav", 123),
		},
	},
	{
		name:        "kick_punchy",
		description: "Smaller bass drum with brighter top",
		midiNotes:   []int{41},
		defaultPan:  -0.1,
		baseGain:    1.0,
		layers: []layerSpec{
			layer("375256__sgossner__bass-drum-bdrum3_ppp_1.wav", 20),
			layer("375255__sgossner__bass-drum-bdrum3_p_1.wav", 45),
			layer("375254__sgossner__bass-drum-bdrum3_mp_1.wav", 72),
			layer("375253__sgossner__bass-drum-bdrum3_fff_1.wav", 118),
		},
	},
	{
		name:        "snare_bright",
		description: "Tight snare with snares on",
		midiNotes:   []int{38},
		defaultPan:  -0.05,
		baseGain:    0.9,
		layers: []layerSpec{
			layer("375425__sgossner__snare-snare2_pp_1.wav", 25),
			layer("375422__sgossner__snare-snare2_p_1.wav", 50),
			layer("375406__sgossner__snare-snare2_mf_1.wav", 75),
			layer("375401__sgossner__snare-snare2_f_1.wav", 95),
			layer("375404__sgossner__snare-snare2_ff_1.wav", 115),
			layer("375405__sgossner__snare-snare2_fff_1.wav", 124),
		},
	},
	{
		name:        "snare_warm",
		description: "Darker snare with longer ring",
		midiNotes:   []int{40},
		defaultPan:  0.05,
		baseGain:    0.92,
		layers: []layerSpec{
			layer("375390__sgossner__snare-snare1_ppp_1.wav", 20),
			layer("375389__sgossner__snare-snare1_pp_1.wav", 40),
			layer("375370__sgossner__snare-snare1_mp_1.wav", 65),
			layer("375364__sgossner__snare-snare1_f_1.wav", 90),
			layer("375367__sgossner__snare-snare1_ff_1.wav", 110),
			layer("375368__sgossner__snare-snare1_fff_1.wav", 124),
		},
	},
	{
		name:        "snare_rimshot",
		description: "Rimshot accent",
		midiNotes:   []int{39},
		defaultPan:  -0.08,
		baseGain:    0.9,
		layers: []layerSpec{
			layer("375398__sgossner__snare-snare1_rimshot_mf.wav", 70),
			layer("375396__sgossner__snare-snare1_rimshot_f.wav", 100),
			layer("375397__sgossner__snare-snare1_rimshot_fff_1.wav", 120),
		},
	},
	{
		name:        "side_stick",
		description: "Side-stick / click",
		midiNotes:   []int{37},
		defaultPan:  -0.12,
		baseGain:    0.75,
		layers: []layerSpec{
			layer("375360__sgossner__snare-snare1_click.wav", 35),
			layer("375361__sgossner__snare-snare1_click2.wav", 55),
			layer("375362__sgossner__snare-snare1_click3.wav", 75),
			layer("375363__sgossner__snare-snare1_click4.wav", 95),
		},
	},
	{
		name:        "tom_high",
		description: "High tenor tom",
		midiNotes:   []int{48, 50},
		defaultPan:  -0.2,
		baseGain:    0.9,
		layers: []layerSpec{
			layer("375473__sgossner__tenor-higher-tenorh_pp_1.wav", 30),
			layer("375468__sgossner__tenor-higher-tenorh_mp_1.wav", 55),
			layer("375465__sgossner__tenor-higher-tenorh_mf_1.wav", 75),
			layer("375452__sgossner__tenor-higher-tenorh_f_1.wav", 95),
			layer("375455__sgossner__tenor-higher-tenorh_ff_1.wav", 115),
		},
	},
	{
		name:        "tom_low",
		description: "Low tenor / floor tom",
		midiNotes:   []int{45, 47},
		defaultPan:  0.2,
		baseGain:    0.9,
		layers: []layerSpec{
			layer("375488__sgossner__tenor-lower-tenor_pp_1.wav", 35),
			layer("375487__sgossner__tenor-lower-tenor_mp_1.wav", 60),
			layer("375483__sgossner__tenor-lower-tenor_mf_1.wav", 78),
			layer("375474__sgossner__tenor-lower-tenor_f_1.wav", 96),
			layer("375476__sgossner__tenor-lower-tenor_ff_1.wav", 116),
		},
	},
	{
		name:        "bongo_hi",
		description: "High bongo (two round-robin layers)",
		midiNotes:   []int{60},
		defaultPan:  -0.25,
		baseGain:    0.8,
		layers: []layerSpec{
			layer("375288__sgossner__bongos-highbongo1.wav", 60),
			layer("375289__sgossner__bongos-highbongo2.wav", 95),
		},
	},
	{
		name:        "bongo_low",
		description: "Low bongo (two round-robin layers)",
		midiNotes:   []int{61},
		defaultPan:  0.25,
		baseGain:    0.85,
		layers: []layerSpec{
			layer("375290__sgossner__bongos-lowbongo1.wav", 55),
			layer("375291__sgossner__bongos-lowbongo2.wav", 90),
		},
	},
	{
		name:        "ethnic_low_open",
		description: "Open low drum (works for open hi-hat / cymbal roles)",
		midiNotes:   []int{46, 49, 51},
		defaultPan:  0.15,
		baseGain:    0.95,
		layers: []layerSpec{
			layer("375308__sgossner__ethnic-ethniclowopen_hit_pp_3.wav", 28),
			layer("375304__sgossner__ethnic-ethniclowopen_hit_mp_1.wav", 64),
			layer("375301__sgossner__ethnic-ethniclowopen_hit_f_2.wav", 100),
			layer("375300__sgossner__ethnic-ethniclowopen_hit_f_1.wav", 118),
		},
	},
	{
		name:        "ethnic_stick",
		description: "Bright stick-on-drum hit (useful stand-in for closed hats / claves)",
		midiNotes:   []int{42, 44},
		defaultPan:  -0.3,
		baseGain:    0.8,
		layers: []layerSpec{
			layer("375343__sgossner__ethnic-ethniclargesticks_hit_ppp_1.wav", 20),
			layer("375341__sgossner__ethnic-ethniclargesticks_hit_p_1.wav", 40),
			layer("375340__sgossner__ethnic-ethniclargesticks_hit_mp_1.wav", 65),
			layer("375338__sgossner__ethnic-ethniclargesticks_hit_mf_1.wav", 85),
			layer("375335__sgossner__ethnic-ethniclargesticks_hit_f_1.wav", 110),
			layer("375337__sgossner__ethnic-ethniclargesticks_hit_fff_1.wav", 124),
		},
	},
	{
		name:        "ethnic_hand",
		description: "Soft hand drum / brush texture",
		midiNotes:   []int{68},
		baseGain:    0.7,
		layers: []layerSpec{
			layer("375329__sgossner__ethnic-ethniclargehand_hit_ppp_2.wav", 15),
			layer("375324__sgossner__ethnic-ethniclargehand_hit_pp_1.wav", 35),
			layer("375323__sgossner__ethnic-ethniclargehand_hit_p_1.wav", 55),
			layer("375319__sgossner__ethnic-ethniclargehand_hit_mp_1.wav", 75),
			layer("375314__sgossner__ethnic-ethniclargehand_hit_f_1.wav", 100),
		},
	},
}
