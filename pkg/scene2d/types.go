package scene2d

// Scene2D is a top-down (X, Z) view of a session for an SVG minimap.
type Scene2D struct {
	Metadata   Metadata      `json:"metadata"`
	Surfaces   []Surface2D   `json:"surfaces"`
	Crow       *Item2D       `json:"crow,omitempty"`
	Items      []Item2D      `json:"items"`
	Summary    ItemSummary   `json:"summary"`
	Objectives []Objective2D `json:"objectives"`
}

// Metadata holds session-level summary data.
type Metadata struct {
	SessionID   string        `json:"session_id"`
	TrackedArea float64       `json:"tracked_area_m2"`
	Threshold   float64       `json:"threshold_m2"`
	Unlocked    bool          `json:"unlocked"`
	WaterLevel  float64       `json:"water_level"`
	Bounds      [2][2]float64 `json:"bounds"` // [[minX, minZ], [maxX, maxZ]]
	GeneratedAt string        `json:"generated_at"`
}

// Surface2D is a tracked plane projected onto the ground.
type Surface2D struct {
	ID        string       `json:"id"`
	Boundary  [][2]float64 `json:"boundary"`
	Center    [2]float64   `json:"center"`
	Elevation float64      `json:"elevation"`
	AreaM2    float64      `json:"area_m2"`
}

// Item2D is a placed item.
type Item2D struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Surface   string     `json:"surface"`
	Position  [2]float64 `json:"position"`
	Elevation float64    `json:"elevation"`
}

// ItemSummary holds aggregate item counts.
type ItemSummary struct {
	Total  int            `json:"total"`
	ByKind map[string]int `json:"by_kind"`
}

// Objective2D is one line of the objective panel.
type Objective2D struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}
