package scene

import (
	"math"
	"time"

	"github.com/ChicagoDave/crowpitcher/pkg/geo"
	"github.com/ChicagoDave/crowpitcher/pkg/placement"
	"github.com/ChicagoDave/crowpitcher/pkg/session"
)

// surfaceThickness is the rendered height of a tracked plane, in meters.
const surfaceThickness = 0.01

// Rendered sizes of spawned items, in meters.
var itemDimensions = map[EntityType]geo.Vec3{
	EntityCrow:    {X: 0.15, Y: 0.2, Z: 0.25},
	EntityNPC:     {X: 0.15, Y: 0.2, Z: 0.25},
	EntityRock:    {X: 0.06, Y: 0.04, Z: 0.06},
	EntityPitcher: {X: 0.15, Y: 0.3, Z: 0.15},
	EntityItem:    {X: 0.1, Y: 0.1, Z: 0.1},
}

var itemMaterials = map[EntityType]string{
	EntityCrow:    "feather_black",
	EntityNPC:     "feather_grey",
	EntityRock:    "stone",
	EntityPitcher: "clay",
	EntityItem:    "default",
}

// Assemble converts a session snapshot into a scene graph. Surfaces become
// flat slabs that list the items resting on them as children.
func Assemble(snap session.Snapshot) *Graph {
	g := NewGraph()

	assembleSurfaces(snap, g)
	if snap.Crow != nil {
		assembleItem(*snap.Crow, snap, g)
	}
	for _, p := range snap.Items {
		assembleItem(p, snap, g)
	}

	g.Metadata = Metadata{
		SessionID:     snap.ID,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		Bounds:        computeBounds(g.Entities),
		TrackedArea:   snap.Total,
		Unlocked:      snap.Unlocked,
		MinSeparation: snap.MinSpacing,
		WaterLevel:    snap.Fill,
	}
	return g
}

func assembleSurfaces(snap session.Snapshot, g *Graph) {
	for _, sf := range snap.Surfaces {
		rot := sf.Pose.Rotation
		if rot.IsZero() {
			rot = geo.IdentityQuat
		}
		addEntity(g, Entity{
			ID:         surfaceEntityID(string(sf.ID)),
			Type:       EntitySurface,
			Position:   sf.Center(),
			Dimensions: geo.V3(sf.Size.Width, surfaceThickness, sf.Size.Depth),
			Rotation:   rot.Array(),
			Material:   "plane_scan",
			Metadata: map[string]any{
				"area":            sf.Size.Area(),
				"boundary_points": sf.Boundary.Len(),
			},
		})
	}
}

func assembleItem(p placement.Placement, snap session.Snapshot, g *Graph) {
	et := entityType(p.Kind)
	e := Entity{
		ID:         p.ID,
		Type:       et,
		Position:   p.Position,
		Dimensions: itemDimensions[et],
		Rotation:   geo.IdentityQuat.Array(),
		Material:   itemMaterials[et],
		Surface:    string(p.SurfaceID),
	}
	switch et {
	case EntityPitcher:
		e.Metadata = map[string]any{"water_level": snap.Fill, "full": snap.Finished}
	case EntityCrow:
		e.Metadata = map[string]any{"carrying": snap.Carrying}
	}
	addEntity(g, e)

	// Attach to the parent slab when it is still tracked.
	parent := surfaceEntityID(string(p.SurfaceID))
	for i := range g.Entities {
		if g.Entities[i].ID == parent {
			g.Entities[i].Children = append(g.Entities[i].Children, p.ID)
			break
		}
	}
}

func addEntity(g *Graph, e Entity) {
	g.Entities = append(g.Entities, e)
	g.Groups.EntityTypes[e.Type] = append(g.Groups.EntityTypes[e.Type], e.ID)
	if e.Surface != "" {
		g.Groups.Surfaces[e.Surface] = append(g.Groups.Surfaces[e.Surface], e.ID)
	}
}

func entityType(k placement.Kind) EntityType {
	switch k {
	case placement.KindCrow:
		return EntityCrow
	case placement.KindRock:
		return EntityRock
	case placement.KindPitcher:
		return EntityPitcher
	case placement.KindNPC:
		return EntityNPC
	default:
		return EntityItem
	}
}

func surfaceEntityID(id string) string {
	return "surface-" + id
}

func computeBounds(entities []Entity) BoundingBox {
	if len(entities) == 0 {
		return BoundingBox{}
	}
	minV := geo.V3(math.Inf(1), math.Inf(1), math.Inf(1))
	maxV := geo.V3(math.Inf(-1), math.Inf(-1), math.Inf(-1))
	for _, e := range entities {
		half := e.Dimensions.Scale(0.5)
		lo := e.Position.Sub(half)
		hi := e.Position.Add(half)
		minV = geo.V3(math.Min(minV.X, lo.X), math.Min(minV.Y, lo.Y), math.Min(minV.Z, lo.Z))
		maxV = geo.V3(math.Max(maxV.X, hi.X), math.Max(maxV.Y, hi.Y), math.Max(maxV.Z, hi.Z))
	}
	return BoundingBox{Min: minV, Max: maxV}
}
