package scene2d

import (
	"math"
	"testing"

	"github.com/ChicagoDave/crowpitcher/pkg/geo"
	"github.com/ChicagoDave/crowpitcher/pkg/placement"
	"github.com/ChicagoDave/crowpitcher/pkg/session"
	"github.com/ChicagoDave/crowpitcher/pkg/story"
	"github.com/ChicagoDave/crowpitcher/pkg/surface"
)

func testSnapshot() session.Snapshot {
	poly := geo.NewPolygon(geo.Pt(0, 0), geo.Pt(0, 2), geo.Pt(2, 2), geo.Pt(2, 0))
	floor := surface.Surface{ID: "floor", Boundary: poly, Size: surface.SizeFromBoundary(poly)}
	table := surface.Surface{
		ID: "table", Boundary: poly, Size: surface.SizeFromBoundary(poly),
		Pose: geo.Pose{Position: geo.V3(5, 0.75, 0), Rotation: geo.YawQuat(math.Pi / 2)},
	}
	crow := placement.Placement{ID: "crow_001", Kind: placement.KindCrow, SurfaceID: "floor", Position: geo.V3(1, 0, 1)}
	return session.Snapshot{
		ID:        "s",
		Total:     8,
		Threshold: 1,
		Unlocked:  true,
		Surfaces:  []surface.Surface{floor, table},
		Crow:      &crow,
		Items: []placement.Placement{
			{ID: "rock_002", Kind: placement.KindRock, SurfaceID: "floor", Position: geo.V3(0.5, 0, 0.5)},
			{ID: "rock_003", Kind: placement.KindRock, SurfaceID: "floor", Position: geo.V3(1.5, 0, 0.5)},
			{ID: "pitcher_004", Kind: placement.KindPitcher, SurfaceID: "table", Position: geo.V3(6, 0.75, -1)},
		},
		Objectives: []story.Objective{{Type: story.FindWaterSource, Description: "Find the water resources."}},
		Fill:       0.1,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAssemble2D(t *testing.T) {
	s := Assemble2D(testSnapshot())

	if len(s.Surfaces) != 2 {
		t.Fatalf("surfaces = %d, want 2", len(s.Surfaces))
	}
	if s.Summary.Total != 3 || s.Summary.ByKind["rock"] != 2 {
		t.Errorf("summary = %+v", s.Summary)
	}
	if s.Crow == nil || s.Crow.Position != [2]float64{1, 1} {
		t.Errorf("crow = %+v", s.Crow)
	}
	if len(s.Objectives) != 1 || s.Objectives[0].Completed {
		t.Errorf("objectives = %+v", s.Objectives)
	}
}

func TestAssemble2DRotatedSurface(t *testing.T) {
	s := Assemble2D(testSnapshot())
	table := s.Surfaces[1]
	if table.Elevation != 0.75 {
		t.Errorf("elevation = %v, want 0.75", table.Elevation)
	}
	// Local (0, 2) sits at world (5+2, -0) after a 90 degree yaw.
	got := table.Boundary[1]
	if !approx(got[0], 7) || !approx(got[1], 0) {
		t.Errorf("boundary[1] = %v, want [7 0]", got)
	}
	if !approx(table.AreaM2, 4) {
		t.Errorf("area = %v, want 4", table.AreaM2)
	}
}

func TestAssemble2DBounds(t *testing.T) {
	s := Assemble2D(testSnapshot())
	b := s.Metadata.Bounds
	if !approx(b[0][0], 0) || !approx(b[1][0], 7) {
		t.Errorf("x bounds = %v", b)
	}
	if !approx(b[0][1], -2) || !approx(b[1][1], 2) {
		t.Errorf("z bounds = %v", b)
	}
}

func TestAssemble2DEmpty(t *testing.T) {
	s := Assemble2D(session.Snapshot{})
	if s.Metadata.Bounds != ([2][2]float64{}) {
		t.Errorf("bounds = %v, want zero", s.Metadata.Bounds)
	}
	if s.Items == nil || s.Surfaces == nil {
		t.Error("empty scene should encode empty arrays, not null")
	}
}
