package scene

import (
	"testing"

	"github.com/ChicagoDave/crowpitcher/pkg/geo"
)

func validGraph() *Graph {
	g := NewGraph()
	g.Entities = []Entity{
		{
			ID:         "surface-floor",
			Type:       EntitySurface,
			Position:   geo.V3(1, 0, 1),
			Dimensions: geo.V3(2, 0.01, 2),
			Rotation:   [4]float64{0, 0, 0, 1},
			Material:   "plane_scan",
			Children:   []string{"rock_001", "pitcher_002"},
		},
		{
			ID:         "rock_001",
			Type:       EntityRock,
			Position:   geo.V3(0.5, 0, 0.5),
			Dimensions: geo.V3(0.06, 0.04, 0.06),
			Rotation:   [4]float64{0, 0, 0, 1},
			Material:   "stone",
			Surface:    "floor",
		},
		{
			ID:         "pitcher_002",
			Type:       EntityPitcher,
			Position:   geo.V3(1.5, 0, 1.5),
			Dimensions: geo.V3(0.15, 0.3, 0.15),
			Rotation:   [4]float64{0, 0, 0, 1},
			Material:   "clay",
			Surface:    "floor",
		},
	}
	g.Groups.Surfaces["floor"] = []string{"rock_001", "pitcher_002"}
	g.Groups.EntityTypes[EntitySurface] = []string{"surface-floor"}
	g.Groups.EntityTypes[EntityRock] = []string{"rock_001"}
	g.Groups.EntityTypes[EntityPitcher] = []string{"pitcher_002"}
	g.Metadata = Metadata{
		SessionID:     "test",
		MinSeparation: 0.25,
		Bounds: BoundingBox{
			Min: geo.V3(0, -0.01, 0),
			Max: geo.V3(2, 0.15, 2),
		},
	}
	return g
}

func TestValidateGraph_Valid(t *testing.T) {
	r := ValidateGraph(validGraph())
	if !r.Valid {
		t.Errorf("expected valid, got %d errors", len(r.Errors))
		for _, e := range r.Errors {
			t.Logf("  error: %s", e.Message)
		}
	}
}

func TestValidateGraph_Nil(t *testing.T) {
	r := ValidateGraph(nil)
	if r.Valid {
		t.Error("expected invalid for nil graph")
	}
}

func TestValidateGraph_DuplicateID(t *testing.T) {
	g := validGraph()
	dup := g.Entities[1]
	dup.Position = geo.V3(1.9, 0, 0.1)
	g.Entities = append(g.Entities, dup)
	r := ValidateGraph(g)
	if r.Valid {
		t.Error("expected invalid for duplicate ID")
	}
}

func TestValidateGraph_OrphanedGroupReference(t *testing.T) {
	g := validGraph()
	g.Groups.Surfaces["floor"] = append(g.Groups.Surfaces["floor"], "nonexistent")
	r := ValidateGraph(g)
	if r.Valid {
		t.Error("expected invalid for orphaned group reference")
	}
}

func TestValidateGraph_MissingGroupMembership(t *testing.T) {
	g := validGraph()
	g.Groups.Surfaces["floor"] = []string{"pitcher_002"}
	r := ValidateGraph(g)
	if r.Valid {
		t.Error("expected invalid for missing surface membership")
	}
}

func TestValidateGraph_EmptyID(t *testing.T) {
	g := validGraph()
	g.Entities = append(g.Entities, Entity{
		Type:       EntityItem,
		Position:   geo.V3(0.1, 0, 1.9),
		Dimensions: geo.V3(0.1, 0.1, 0.1),
	})
	r := ValidateGraph(g)
	if r.Valid {
		t.Error("expected invalid for empty ID")
	}
}

func TestValidateGraph_MissingChild(t *testing.T) {
	g := validGraph()
	g.Entities[0].Children = append(g.Entities[0].Children, "ghost")
	r := ValidateGraph(g)
	if r.Valid {
		t.Error("expected invalid for missing child")
	}
}

func TestValidateGraph_ZeroDimensionWarning(t *testing.T) {
	g := validGraph()
	g.Entities[1].Dimensions.Y = 0
	r := ValidateGraph(g)
	if len(r.Warnings) == 0 {
		t.Error("expected warning for zero dimension")
	}
}

func TestValidateGraph_OutOfBoundsWarning(t *testing.T) {
	g := validGraph()
	g.Metadata.Bounds.Max.X = 1
	r := ValidateGraph(g)
	if len(r.Warnings) == 0 {
		t.Error("expected warning for entity outside bounds")
	}
}

func TestValidateGraph_TooClose(t *testing.T) {
	g := validGraph()
	g.Entities[2].Position = geo.V3(0.6, 0, 0.5)
	r := ValidateGraph(g)
	if r.Valid {
		t.Fatal("expected invalid for items closer than min separation")
	}
	if r.Errors[0].ConflictWith != "pitcher_002" {
		t.Errorf("conflict = %q, want pitcher_002", r.Errors[0].ConflictWith)
	}
}

func TestValidateGraph_CrowExemptFromSeparation(t *testing.T) {
	g := validGraph()
	g.Entities = append(g.Entities, Entity{
		ID:         "crow_003",
		Type:       EntityCrow,
		Position:   geo.V3(0.55, 0, 0.5),
		Dimensions: geo.V3(0.15, 0.2, 0.25),
		Surface:    "floor",
	})
	g.Entities[0].Children = append(g.Entities[0].Children, "crow_003")
	g.Groups.Surfaces["floor"] = append(g.Groups.Surfaces["floor"], "crow_003")
	g.Groups.EntityTypes[EntityCrow] = []string{"crow_003"}
	r := ValidateGraph(g)
	if !r.Valid {
		for _, e := range r.Errors {
			t.Logf("  error: %s", e.Message)
		}
		t.Error("a crow next to a rock should not fail validation")
	}
}
