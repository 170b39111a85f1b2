// Package piano maps MIDI notes onto the upright piano sample pack and
// schedules note events as timeline placements.
//
// The pack covers notes 20 through 110 with 23 samples per dynamic
// level, each sample serving a handful of neighboring notes through
// playback-rate repitching.
package piano

import "math"

const (
	NoteLow  = 20
	NoteHigh = 110

	SamplesPerDynamic = 23
)

const noteRangeLen = NoteHigh - NoteLow + 1

// sampledNote and noteDeltas describe which sample inside an octave
// serves each scale degree and how many semitones to repitch it.
var (
	sampledNote = [12]int{1, 1, 1, 1, 2, 2, 2, 3, 3, 3, 3, 3}
	noteDeltas  = [12]int{-1, 0, 1, 2, -1, 0, 1, -2, -1, 0, 1, 2}
)

// Lookup resolves (note, dynamic) pairs to a sample index and a
// repitch ratio.
type Lookup struct {
	indices    []int
	pitches    []int
	maxDynamic int
}

// BuildLookup precomputes the sample table. With quiet set only the two
// soft dynamic levels are used.
func BuildLookup(quiet bool) *Lookup {
	dynamicCount := 3
	maxDynamic := 2
	if quiet {
		dynamicCount = 2
		maxDynamic = 1
	}
	l := &Lookup{
		indices:    make([]int, 0, dynamicCount*noteRangeLen),
		pitches:    make([]int, 0, dynamicCount*noteRangeLen),
		maxDynamic: maxDynamic,
	}
	for dynamic := 0; dynamic < dynamicCount; dynamic++ {
		for note := NoteLow; note <= NoteHigh; note++ {
			index, pitch := lookupOne(note, dynamic)
			l.indices = append(l.indices, index)
			l.pitches = append(l.pitches, pitch)
		}
	}
	return l
}

func lookupOne(note, dynamic int) (int, int) {
	octave := int(math.Floor(float64(note)/12)) - 2
	degree := note % 12
	index := octave*3 + sampledNote[degree] + dynamic*SamplesPerDynamic
	return index, noteDeltas[degree]
}

// MaxDynamic is the highest dynamic level the lookup was built with.
func (l *Lookup) MaxDynamic() int { return l.maxDynamic }

// SelectSample resolves a possibly fractional note and dynamic to a
// sample index and playback rate. Notes outside the supported range are
// clamped; the fractional part of the note folds into the rate.
func (l *Lookup) SelectSample(note, dynamic float64) (int, float64) {
	clampedNote := math.Max(math.Min(note, NoteHigh), NoteLow)
	clampedDynamic := int(math.Max(math.Min(math.Floor(dynamic), float64(l.maxDynamic)), 0))
	noteFloor := int(math.Floor(clampedNote))
	index := noteFloor - NoteLow + clampedDynamic*noteRangeLen
	rate := midiRatio(float64(l.pitches[index]) + (clampedNote - float64(noteFloor)))
	return l.indices[index], rate
}

func midiRatio(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}

// VelocityToDynamic maps a MIDI velocity onto a dynamic level. Curve
// bends the velocity response before scaling; bias shifts the result
// before rounding.
func VelocityToDynamic(velocity, maxDynamic int, curve, bias float64) int {
	if maxDynamic <= 0 {
		return 0
	}
	if velocity < 0 {
		velocity = 0
	} else if velocity > 127 {
		velocity = 127
	}
	normalized := math.Pow(float64(velocity)/127.0, math.Max(0.0001, curve))
	dynamic := int(math.Round(normalized*float64(maxDynamic) + bias))
	if dynamic < 0 {
		return 0
	}
	if dynamic > maxDynamic {
		return maxDynamic
	}
	return dynamic
}

// NoteToPan spreads notes across the stereo field, low keys left.
func NoteToPan(note int, panLow, panHigh float64) float64 {
	position := float64(note-NoteLow) / float64(noteRangeLen-1)
	return panLow + position*(panHigh-panLow)
}
