package placement

import "github.com/ChicagoDave/crowpitcher/pkg/geo"

// Registry is the append-only list of world positions occupied this session.
type Registry struct {
	positions []geo.Vec3
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a position.
func (r *Registry) Add(p geo.Vec3) {
	r.positions = append(r.positions, p)
}

// Len returns the number of recorded positions.
func (r *Registry) Len() int {
	return len(r.positions)
}

// Positions returns a copy of the recorded positions in insertion order.
func (r *Registry) Positions() []geo.Vec3 {
	out := make([]geo.Vec3, len(r.positions))
	copy(out, r.positions)
	return out
}

// TooClose reports whether p lies closer than minDistance to any recorded
// position.
func (r *Registry) TooClose(p geo.Vec3, minDistance float64) bool {
	for _, q := range r.positions {
		if p.Distance(q) < minDistance {
			return true
		}
	}
	return false
}
