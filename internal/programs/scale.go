package programs

import "fmt"

// EuclideanPattern distributes pulses as evenly as possible across
// steps. Pulses are clamped into [0, steps].
func EuclideanPattern(pulses, steps int) []int {
	if steps <= 0 {
		return nil
	}
	if pulses < 0 {
		pulses = 0
	}
	if pulses > steps {
		pulses = steps
	}
	pattern := make([]int, steps)
	if pulses == 0 {
		return pattern
	}
	for i := range pattern {
		if (i*pulses)%steps < pulses {
			pattern[i] = 1
		}
	}
	return pattern
}

// Rotate shifts a pattern left by n steps.
func Rotate(pattern []int, n int) []int {
	if len(pattern) == 0 {
		return pattern
	}
	n = ((n % len(pattern)) + len(pattern)) % len(pattern)
	out := make([]int, 0, len(pattern))
	out = append(out, pattern[n:]...)
	out = append(out, pattern[:n]...)
	return out
}

// BuildScaleNotes lists every note in [low, high] whose pitch class
// belongs to the scale rooted at root.
func BuildScaleNotes(root int, offsets []int, low, high int) ([]int, error) {
	if low > high {
		return nil, fmt.Errorf("scale range inverted: %d > %d", low, high)
	}
	classes := make(map[int]bool, len(offsets))
	rootPC := ((root % 12) + 12) % 12
	for _, offset := range offsets {
		classes[(rootPC+offset)%12] = true
	}
	var notes []int
	for note := low; note <= high; note++ {
		if classes[note%12] {
			notes = append(notes, note)
		}
	}
	return notes, nil
}

// chordIntervals stacks thirds within the scale: root, third, fifth,
// seventh as scale-degree offsets.
var chordIntervals = [4]int{0, 2, 4, 6}

// BuildScaleChord picks a four-note chord from scale degrees starting at
// rootIndex, clamped so the chord never runs off the top of the scale.
func BuildScaleChord(scaleNotes []int, rootIndex int) []int {
	maxRoot := len(scaleNotes) - chordIntervals[len(chordIntervals)-1] - 1
	if maxRoot < 0 {
		maxRoot = 0
	}
	if rootIndex < 0 {
		rootIndex = 0
	} else if rootIndex > maxRoot {
		rootIndex = maxRoot
	}
	chord := make([]int, 0, len(chordIntervals))
	for _, interval := range chordIntervals {
		idx := rootIndex + interval
		if idx >= len(scaleNotes) {
			break
		}
		chord = append(chord, scaleNotes[idx])
	}
	return chord
}
