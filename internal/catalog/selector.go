package catalog

import "sort"

// Selector picks sample layers by velocity. It owns the per-instrument
// round-robin cursors so the shared catalog stays immutable; thread one
// selector through each scheduling context.
type Selector struct {
	catalog  *Catalog
	rotation map[string]int
}

// NewSelector creates a selector over a catalog with zeroed cursors.
func NewSelector(c *Catalog) *Selector {
	return &Selector{catalog: c, rotation: map[string]int{}}
}

// Choose picks the layer whose velocity hint is nearest the request.
// Equidistant layers rotate: repeated live triggers with no timeline
// context cycle through the tied layers.
func (s *Selector) Choose(name string, velocity int) (SampleLayer, error) {
	nearest, err := s.nearest(name, velocity)
	if err != nil {
		return SampleLayer{}, err
	}
	if len(nearest) == 1 {
		return nearest[0], nil
	}
	s.rotation[name] = (s.rotation[name] + 1) % len(nearest)
	return nearest[s.rotation[name]], nil
}

// ChooseIndexed is the deterministic variant for pre-built timelines: a
// tie resolves to nearest[eventIndex mod count], reproducible across runs.
func (s *Selector) ChooseIndexed(name string, velocity, eventIndex int) (SampleLayer, error) {
	nearest, err := s.nearest(name, velocity)
	if err != nil {
		return SampleLayer{}, err
	}
	if len(nearest) == 1 {
		return nearest[0], nil
	}
	if eventIndex < 0 {
		eventIndex = -eventIndex
	}
	return nearest[eventIndex%len(nearest)], nil
}

// nearest returns all layers tied at the minimum velocity distance, in
// catalog layer order.
func (s *Selector) nearest(name string, velocity int) ([]SampleLayer, error) {
	inst, err := s.catalog.Instrument(name)
	if err != nil {
		return nil, err
	}
	target := clampVelocity(velocity)
	ranked := make([]SampleLayer, len(inst.Layers))
	copy(ranked, inst.Layers)
	sort.SliceStable(ranked, func(i, j int) bool {
		return absInt(ranked[i].VelocityHint-target) < absInt(ranked[j].VelocityHint-target)
	})
	minDist := absInt(ranked[0].VelocityHint - target)
	nearest := ranked[:0]
	for _, l := range ranked {
		if absInt(l.VelocityHint-target) == minDist {
			nearest = append(nearest, l)
		}
	}
	return nearest, nil
}

func clampVelocity(v int) int {
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
