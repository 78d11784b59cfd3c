package surface

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/ChicagoDave/crowpitcher/pkg/geo"
	"github.com/ChicagoDave/crowpitcher/pkg/validation"
)

// DefaultPlaneTolerance is how far (meters, along the surface normal) a world
// point may sit from a plane and still resolve to it.
const DefaultPlaneTolerance = 0.05

// ErrNoSurfaceHit is returned by Resolve when no live surface contains the point.
var ErrNoSurfaceHit = errors.New("surface: no tracked surface at point")

// Hit is the result of resolving a world point against the live set.
type Hit struct {
	SurfaceID ID       `json:"surface_id"`
	Position  geo.Vec3 `json:"position"` // the point projected onto the surface plane
	Offset    float64  `json:"offset"`   // distance from the plane before projection
}

// Set is the live collection of tracked surfaces. It is not safe for
// concurrent use; a session owns it.
type Set struct {
	surfaces  map[ID]Surface
	tolerance float64
	logger    *zap.Logger
}

// NewSet creates an empty set. A non-positive tolerance selects
// DefaultPlaneTolerance.
func NewSet(tolerance float64, logger *zap.Logger) *Set {
	if tolerance <= 0 {
		tolerance = DefaultPlaneTolerance
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Set{
		surfaces:  make(map[ID]Surface),
		tolerance: tolerance,
		logger:    logger,
	}
}

// Apply folds one tracking frame into the set.
func (s *Set) Apply(f Frame) {
	for _, e := range f.Events() {
		switch e.Kind {
		case EventAdded, EventUpdated:
			s.surfaces[e.Surface.ID] = e.Surface
			s.logger.Debug("surface "+string(e.Kind),
				zap.String("id", string(e.Surface.ID)),
				zap.Int("boundary_points", e.Surface.Boundary.Len()),
				zap.Float64("width", e.Surface.Size.Width),
				zap.Float64("depth", e.Surface.Size.Depth))
		case EventRemoved:
			delete(s.surfaces, e.Surface.ID)
			s.logger.Debug("surface removed", zap.String("id", string(e.Surface.ID)))
		}
	}
	s.logger.Debug("active surfaces", zap.Int("count", len(s.surfaces)))
}

// Get returns the surface with the given ID.
func (s *Set) Get(id ID) (Surface, bool) {
	sf, ok := s.surfaces[id]
	return sf, ok
}

// Len returns the number of tracked surfaces.
func (s *Set) Len() int {
	return len(s.surfaces)
}

// All returns every tracked surface sorted by ID.
func (s *Set) All() []Surface {
	out := make([]Surface, 0, len(s.surfaces))
	for _, sf := range s.surfaces {
		out = append(out, sf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Candidates returns the surfaces usable for placement: those whose boundary
// has at least 3 points. Every skipped surface is reported as a warning.
func (s *Set) Candidates() ([]Surface, *validation.Report) {
	report := validation.NewReport()
	var out []Surface
	for _, sf := range s.All() {
		if !sf.HasBoundary() {
			report.AddWarning(validation.Result{
				Level:       validation.LevelTracking,
				Message:     fmt.Sprintf("skipping surface %s: invalid boundary", sf.ID),
				ActualValue: sf.Boundary.Len(),
				Expected:    ">= 3 boundary points",
			})
			continue
		}
		out = append(out, sf)
	}
	if len(out) == 0 {
		report.AddWarning(validation.Result{
			Level:   validation.LevelTracking,
			Message: "no valid surfaces with boundaries",
		})
	}
	return out, report
}

// Resolve projects a world point onto every live surface and returns the one
// whose boundary contains it, preferring the closest plane.
func (s *Set) Resolve(world geo.Vec3) (Hit, error) {
	best := Hit{Offset: math.Inf(1)}
	found := false
	for _, sf := range s.All() {
		if !sf.HasBoundary() {
			continue
		}
		local := sf.Pose.InverseTransformPoint(world)
		offset := math.Abs(local.Y)
		if offset > s.tolerance || offset >= best.Offset {
			continue
		}
		flat := local.Flatten()
		if !sf.Boundary.Contains(flat) {
			continue
		}
		best = Hit{
			SurfaceID: sf.ID,
			Position:  sf.Pose.TransformPoint(flat.Lift()),
			Offset:    offset,
		}
		found = true
	}
	if !found {
		return Hit{}, ErrNoSurfaceHit
	}
	return best, nil
}
