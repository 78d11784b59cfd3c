package scene

import (
	"encoding/json"
	"testing"

	"github.com/ChicagoDave/crowpitcher/pkg/geo"
	"github.com/ChicagoDave/crowpitcher/pkg/placement"
	"github.com/ChicagoDave/crowpitcher/pkg/session"
	"github.com/ChicagoDave/crowpitcher/pkg/surface"
)

func testSnapshot() session.Snapshot {
	poly := geo.NewPolygon(geo.Pt(0, 0), geo.Pt(0, 3), geo.Pt(3, 3), geo.Pt(3, 0))
	floor := surface.Surface{ID: "floor", Boundary: poly, Size: surface.SizeFromBoundary(poly)}
	table := surface.Surface{ID: "table", Boundary: poly, Size: surface.SizeFromBoundary(poly),
		Pose: geo.Pose{Position: geo.V3(5, 0.75, 0)}}

	crow := placement.Placement{ID: "crow_001", Kind: placement.KindCrow, SurfaceID: "floor", Position: geo.V3(1.5, 0, 1.5)}
	return session.Snapshot{
		ID:         "snap",
		Total:      18,
		Threshold:  1,
		Unlocked:   true,
		Surfaces:   []surface.Surface{floor, table},
		Crow:       &crow,
		Fill:       0.4,
		MinSpacing: 0.25,
		Items: []placement.Placement{
			{ID: "rock_002", Kind: placement.KindRock, SurfaceID: "floor", Position: geo.V3(0.5, 0, 0.5)},
			{ID: "rock_003", Kind: placement.KindRock, SurfaceID: "table", Position: geo.V3(6, 0.75, 1)},
			{ID: "pitcher_004", Kind: placement.KindPitcher, SurfaceID: "floor", Position: geo.V3(2.5, 0, 2.5)},
			{ID: "npc_005", Kind: placement.KindNPC, SurfaceID: "table", Position: geo.V3(7, 0.75, 2)},
		},
	}
}

func TestAssemble(t *testing.T) {
	g := Assemble(testSnapshot())

	if len(g.Entities) != 7 {
		t.Fatalf("entities = %d, want 7", len(g.Entities))
	}
	if n := len(g.Groups.EntityTypes[EntityRock]); n != 2 {
		t.Errorf("rocks = %d, want 2", n)
	}
	if n := len(g.Groups.Surfaces["table"]); n != 2 {
		t.Errorf("table items = %d, want 2", n)
	}

	floor, ok := g.Find("surface-floor")
	if !ok {
		t.Fatal("missing floor slab")
	}
	if floor.Position != geo.V3(1.5, 0, 1.5) {
		t.Errorf("floor center = %+v", floor.Position)
	}
	if len(floor.Children) != 3 {
		t.Errorf("floor children = %v, want crow, rock and pitcher", floor.Children)
	}

	p, ok := g.Find("pitcher_004")
	if !ok {
		t.Fatal("missing pitcher")
	}
	if p.Metadata["water_level"] != 0.4 {
		t.Errorf("water_level = %v, want 0.4", p.Metadata["water_level"])
	}

	if g.Metadata.Bounds.Max.X < 8 || g.Metadata.Bounds.Min.X > 0 {
		t.Errorf("bounds %+v do not cover both surfaces", g.Metadata.Bounds)
	}
	if g.Metadata.SessionID != "snap" || !g.Metadata.Unlocked {
		t.Errorf("metadata = %+v", g.Metadata)
	}
}

func TestAssembleValidates(t *testing.T) {
	g := Assemble(testSnapshot())
	r := ValidateGraph(g)
	if !r.Valid {
		t.Errorf("assembled graph failed validation: %d errors", len(r.Errors))
		for _, e := range r.Errors {
			t.Logf("  error: %s", e.Message)
		}
	}
	if len(r.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", r.Warnings)
	}
}

func TestAssembleOrphanedItem(t *testing.T) {
	snap := testSnapshot()
	snap.Surfaces = snap.Surfaces[:1] // table lost tracking
	g := Assemble(snap)

	r := ValidateGraph(g)
	if !r.Valid {
		t.Errorf("items on an untracked surface should still validate: %v", r.Errors)
	}
	rock, _ := g.Find("rock_003")
	if rock.Surface != "table" {
		t.Errorf("rock surface = %q, want table", rock.Surface)
	}
}

func TestAssembleEmpty(t *testing.T) {
	g := Assemble(session.Snapshot{ID: "empty"})
	if len(g.Entities) != 0 {
		t.Errorf("entities = %d, want 0", len(g.Entities))
	}
	if g.Metadata.Bounds != (BoundingBox{}) {
		t.Errorf("bounds = %+v, want zero", g.Metadata.Bounds)
	}
	if _, err := json.Marshal(g); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}
