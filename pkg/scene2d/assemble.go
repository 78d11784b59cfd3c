package scene2d

import (
	"math"
	"time"

	"github.com/ChicagoDave/crowpitcher/pkg/geo"
	"github.com/ChicagoDave/crowpitcher/pkg/placement"
	"github.com/ChicagoDave/crowpitcher/pkg/session"
	"github.com/ChicagoDave/crowpitcher/pkg/surface"
)

// Assemble2D flattens a session snapshot into a top-down scene. Surface
// boundaries are transformed to world space before the height is dropped.
func Assemble2D(snap session.Snapshot) *Scene2D {
	s := &Scene2D{
		Surfaces:   assembleSurfaces(snap.Surfaces),
		Items:      assembleItems(snap.Items),
		Summary:    assembleSummary(snap.Items),
		Objectives: make([]Objective2D, 0, len(snap.Objectives)),
	}
	if snap.Crow != nil {
		crow := toItem(*snap.Crow)
		s.Crow = &crow
	}
	for _, o := range snap.Objectives {
		s.Objectives = append(s.Objectives, Objective2D{Text: o.Text(), Completed: o.Completed})
	}

	s.Metadata = Metadata{
		SessionID:   snap.ID,
		TrackedArea: snap.Total,
		Threshold:   snap.Threshold,
		Unlocked:    snap.Unlocked,
		WaterLevel:  snap.Fill,
		Bounds:      computeBounds(s),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return s
}

func assembleSurfaces(surfaces []surface.Surface) []Surface2D {
	result := make([]Surface2D, 0, len(surfaces))
	for _, sf := range surfaces {
		world := make([]geo.Point2D, 0, sf.Boundary.Len())
		for _, p := range sf.Boundary.Vertices {
			world = append(world, sf.Pose.TransformPoint(p.Lift()).Flatten())
		}
		c := sf.Center()
		result = append(result, Surface2D{
			ID:        string(sf.ID),
			Boundary:  polygonToCoords(world),
			Center:    [2]float64{c.X, c.Z},
			Elevation: c.Y,
			AreaM2:    sf.Size.Area(),
		})
	}
	return result
}

func assembleItems(items []placement.Placement) []Item2D {
	result := make([]Item2D, 0, len(items))
	for _, p := range items {
		result = append(result, toItem(p))
	}
	return result
}

func assembleSummary(items []placement.Placement) ItemSummary {
	sum := ItemSummary{Total: len(items), ByKind: make(map[string]int)}
	for _, p := range items {
		sum.ByKind[string(p.Kind)]++
	}
	return sum
}

func toItem(p placement.Placement) Item2D {
	return Item2D{
		ID:        p.ID,
		Kind:      string(p.Kind),
		Surface:   string(p.SurfaceID),
		Position:  [2]float64{p.Position.X, p.Position.Z},
		Elevation: p.Position.Y,
	}
}

func computeBounds(s *Scene2D) [2][2]float64 {
	minX, minZ := math.Inf(1), math.Inf(1)
	maxX, maxZ := math.Inf(-1), math.Inf(-1)
	extend := func(p [2]float64) {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minZ, maxZ = math.Min(minZ, p[1]), math.Max(maxZ, p[1])
	}
	for _, sf := range s.Surfaces {
		for _, p := range sf.Boundary {
			extend(p)
		}
	}
	for _, it := range s.Items {
		extend(it.Position)
	}
	if s.Crow != nil {
		extend(s.Crow.Position)
	}
	if math.IsInf(minX, 1) {
		return [2][2]float64{}
	}
	return [2][2]float64{{minX, minZ}, {maxX, maxZ}}
}

func polygonToCoords(pts []geo.Point2D) [][2]float64 {
	coords := make([][2]float64, len(pts))
	for i, p := range pts {
		coords[i] = [2]float64{p.X, p.Z}
	}
	return coords
}
