package programs

import (
	"reflect"
	"testing"
)

func TestEuclideanPattern(t *testing.T) {
	t.Run("EvenSpread", func(t *testing.T) {
		got := EuclideanPattern(4, 8)
		want := []int{1, 0, 1, 0, 1, 0, 1, 0}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("pattern = %v, want %v", got, want)
		}
	})

	t.Run("PulseCount", func(t *testing.T) {
		for pulses := 0; pulses <= 12; pulses++ {
			pattern := EuclideanPattern(pulses, 12)
			count := 0
			for _, v := range pattern {
				count += v
			}
			if count != pulses {
				t.Errorf("pulses=%d produced %d hits", pulses, count)
			}
		}
	})

	t.Run("ClampsPulses", func(t *testing.T) {
		if got := EuclideanPattern(20, 8); !reflect.DeepEqual(got, []int{1, 1, 1, 1, 1, 1, 1, 1}) {
			t.Errorf("pattern = %v", got)
		}
		if got := EuclideanPattern(-3, 4); !reflect.DeepEqual(got, []int{0, 0, 0, 0}) {
			t.Errorf("pattern = %v", got)
		}
	})

	t.Run("ZeroSteps", func(t *testing.T) {
		if got := EuclideanPattern(3, 0); got != nil {
			t.Errorf("pattern = %v, want nil", got)
		}
	})
}

func TestRotate(t *testing.T) {
	p := []int{1, 0, 0, 1}
	if got := Rotate(p, 1); !reflect.DeepEqual(got, []int{0, 0, 1, 1}) {
		t.Errorf("rotate 1 = %v", got)
	}
	if got := Rotate(p, 4); !reflect.DeepEqual(got, p) {
		t.Errorf("full rotation = %v, want original", got)
	}
	if got := Rotate(p, -1); !reflect.DeepEqual(got, []int{1, 1, 0, 0}) {
		t.Errorf("rotate -1 = %v", got)
	}
}

func TestBuildScaleNotes(t *testing.T) {
	t.Run("DDorian", func(t *testing.T) {
		notes, err := BuildScaleNotes(62, []int{0, 2, 3, 5, 7, 9, 10}, 60, 72)
		if err != nil {
			t.Fatal(err)
		}
		want := []int{60, 62, 64, 65, 67, 69, 71, 72}
		if !reflect.DeepEqual(notes, want) {
			t.Errorf("notes = %v, want %v", notes, want)
		}
	})

	t.Run("InvertedRange", func(t *testing.T) {
		if _, err := BuildScaleNotes(60, []int{0}, 72, 60); err == nil {
			t.Error("expected error for inverted range")
		}
	})
}

func TestBuildScaleChord(t *testing.T) {
	scale := []int{60, 62, 64, 65, 67, 69, 71, 72, 74}

	t.Run("StacksThirds", func(t *testing.T) {
		chord := BuildScaleChord(scale, 0)
		want := []int{60, 64, 67, 71}
		if !reflect.DeepEqual(chord, want) {
			t.Errorf("chord = %v, want %v", chord, want)
		}
	})

	t.Run("ClampsRootNearTop", func(t *testing.T) {
		chord := BuildScaleChord(scale, 50)
		want := BuildScaleChord(scale, len(scale)-7)
		if !reflect.DeepEqual(chord, want) {
			t.Errorf("chord = %v, want %v", chord, want)
		}
	})

	t.Run("NegativeRoot", func(t *testing.T) {
		if chord := BuildScaleChord(scale, -5); !reflect.DeepEqual(chord, BuildScaleChord(scale, 0)) {
			t.Errorf("chord = %v", chord)
		}
	})
}
