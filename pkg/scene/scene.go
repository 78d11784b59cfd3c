package scene

import "github.com/ChicagoDave/crowpitcher/pkg/geo"

// EntityType identifies the kind of entity.
type EntityType string

const (
	EntitySurface EntityType = "surface"
	EntityCrow    EntityType = "crow"
	EntityRock    EntityType = "rock"
	EntityPitcher EntityType = "pitcher"
	EntityNPC     EntityType = "npc"
	EntityItem    EntityType = "item"
)

// BoundingBox defines an axis-aligned bounding box.
type BoundingBox struct {
	Min geo.Vec3 `json:"min"`
	Max geo.Vec3 `json:"max"`
}

// Entity is a single element in the scene graph.
type Entity struct {
	ID         string         `json:"id"`
	Type       EntityType     `json:"type"`
	Position   geo.Vec3       `json:"position"`
	Dimensions geo.Vec3       `json:"dimensions"`
	Rotation   [4]float64     `json:"rotation"` // quaternion [x, y, z, w]
	Material   string         `json:"material"`
	Surface    string         `json:"surface,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Children   []string       `json:"children,omitempty"`
}

// Graph is the renderable scene for one session.
type Graph struct {
	Metadata Metadata `json:"metadata"`
	Entities []Entity `json:"entities"`
	Groups   Groups   `json:"groups"`
}

// Metadata holds scene-level information.
type Metadata struct {
	SessionID     string      `json:"session_id"`
	GeneratedAt   string      `json:"generated_at"`
	Bounds        BoundingBox `json:"bounds"`
	TrackedArea   float64     `json:"tracked_area"`
	Unlocked      bool        `json:"unlocked"`
	MinSeparation float64     `json:"min_separation"`
	WaterLevel    float64     `json:"water_level"`
}

// Groups organizes entity IDs for fast filtering.
type Groups struct {
	Surfaces    map[string][]string     `json:"surfaces"`
	EntityTypes map[EntityType][]string `json:"entity_types"`
}

// NewGraph creates an empty scene graph.
func NewGraph() *Graph {
	return &Graph{
		Entities: []Entity{},
		Groups: Groups{
			Surfaces:    make(map[string][]string),
			EntityTypes: make(map[EntityType][]string),
		},
	}
}

// Find returns the entity with the given ID.
func (g *Graph) Find(id string) (Entity, bool) {
	for _, e := range g.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}
