// Package area keeps the running total of tracked surface area that gates
// gameplay, and the one-shot latch that records when the gate opened.
package area

import (
	"go.uber.org/zap"

	"github.com/ChicagoDave/crowpitcher/pkg/surface"
)

// Accumulator tracks the last known size of every surface and the sum of
// their areas. It is not safe for concurrent use.
type Accumulator struct {
	sizes  map[surface.ID]surface.Size
	total  float64
	logger *zap.Logger
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator(logger *zap.Logger) *Accumulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accumulator{
		sizes:  make(map[surface.ID]surface.Size),
		logger: logger,
	}
}

// OnSurfaceAdded records size for id and adds its area to the total.
// A repeated add for a known id replaces the old size.
func (a *Accumulator) OnSurfaceAdded(id surface.ID, size surface.Size) {
	a.replace(id, size)
}

// OnSurfaceUpdated swaps the old area for the new one. Unknown ids are
// treated as adds.
func (a *Accumulator) OnSurfaceUpdated(id surface.ID, size surface.Size) {
	if _, ok := a.sizes[id]; !ok {
		a.logger.Debug("update for untracked surface, treating as add", zap.String("id", string(id)))
	}
	a.replace(id, size)
}

// OnSurfaceRemoved subtracts the surface's area. Unknown ids are ignored.
func (a *Accumulator) OnSurfaceRemoved(id surface.ID) {
	old, ok := a.sizes[id]
	if !ok {
		a.logger.Debug("remove for untracked surface ignored", zap.String("id", string(id)))
		return
	}
	delete(a.sizes, id)
	a.total -= old.Area()
	a.settle()
}

// Apply feeds every event of a tracking frame through the accumulator.
func (a *Accumulator) Apply(f surface.Frame) {
	for _, e := range f.Events() {
		switch e.Kind {
		case surface.EventAdded:
			a.OnSurfaceAdded(e.Surface.ID, e.Surface.Size)
		case surface.EventUpdated:
			a.OnSurfaceUpdated(e.Surface.ID, e.Surface.Size)
		case surface.EventRemoved:
			a.OnSurfaceRemoved(e.Surface.ID)
		}
	}
}

// CurrentTotal returns the running total area.
func (a *Accumulator) CurrentTotal() float64 {
	return a.total
}

// CheckThreshold reports whether the total has reached threshold.
func (a *Accumulator) CheckThreshold(threshold float64) bool {
	return a.total >= threshold
}

// Recompute sums the recorded areas from scratch. It always agrees with
// CurrentTotal up to floating-point rounding.
func (a *Accumulator) Recompute() float64 {
	sum := 0.0
	for _, s := range a.sizes {
		sum += s.Area()
	}
	return sum
}

// Tracked returns the number of surfaces with a recorded size.
func (a *Accumulator) Tracked() int {
	return len(a.sizes)
}

func (a *Accumulator) replace(id surface.ID, size surface.Size) {
	if !(size.Width >= 0) || !(size.Depth >= 0) {
		a.logger.Warn("invalid surface size clamped to zero",
			zap.String("id", string(id)),
			zap.Float64("width", size.Width),
			zap.Float64("depth", size.Depth))
		size.Width = nonNegative(size.Width)
		size.Depth = nonNegative(size.Depth)
	}
	if old, ok := a.sizes[id]; ok {
		a.total -= old.Area()
	}
	a.sizes[id] = size
	a.total += size.Area()
	a.settle()
}

// settle keeps rounding drift from pushing the total below zero.
func (a *Accumulator) settle() {
	switch {
	case len(a.sizes) == 0:
		a.total = 0
	case a.total < 0:
		a.total = max(0, a.Recompute())
	}
}

// nonNegative maps negative values and NaN to zero.
func nonNegative(v float64) float64 {
	if v >= 0 {
		return v
	}
	return 0
}
