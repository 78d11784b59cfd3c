package config

import (
	"errors"
	"fmt"

	"github.com/ChicagoDave/crowpitcher/pkg/geo"
	"github.com/ChicagoDave/crowpitcher/pkg/surface"
)

// GameConfig is the tuning for one crowpitcher project (crowpitcher.yaml).
type GameConfig struct {
	Version     string      `yaml:"version" json:"version"`
	Seed        uint64      `yaml:"seed" json:"seed"`
	Unlock      Unlock      `yaml:"unlock" json:"unlock"`
	Spawn       Spawn       `yaml:"spawn" json:"spawn"`
	Interaction Interaction `yaml:"interaction" json:"interaction"`
	Pitcher     Pitcher     `yaml:"pitcher" json:"pitcher"`
	Server      Server      `yaml:"server" json:"server"`
}

// Unlock controls when the crow may be spawned.
type Unlock struct {
	// AreaThreshold is the total tracked area, in square meters, that unlocks spawning.
	AreaThreshold float64 `yaml:"area_threshold" json:"area_threshold"`
}

type Spawn struct {
	RockCount      int     `yaml:"rock_count" json:"rock_count"`
	MinSeparation  float64 `yaml:"min_separation" json:"min_separation"`
	MaxAttempts    int     `yaml:"max_attempts" json:"max_attempts"`
	SampleTrials   int     `yaml:"sample_trials" json:"sample_trials"`
	PlaneTolerance float64 `yaml:"plane_tolerance" json:"plane_tolerance"`
}

type Interaction struct {
	TapRadius       float64 `yaml:"tap_radius" json:"tap_radius"`
	CollectDistance float64 `yaml:"collect_distance" json:"collect_distance"`
}

type Pitcher struct {
	MaxPebbles  int     `yaml:"max_pebbles" json:"max_pebbles"`
	InitialFill float64 `yaml:"initial_fill" json:"initial_fill"`
}

type Server struct {
	Port        int    `yaml:"port" json:"port"`
	JournalPath string `yaml:"journal_path" json:"journal_path"`
}

// Scenario is a scripted tracking session (scenario.yaml).
type Scenario struct {
	Name  string `yaml:"name" json:"name"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// StepKind names what a scenario step does.
type StepKind string

const (
	StepFrame StepKind = "frame"
	StepTap   StepKind = "tap"
	StepPlace StepKind = "place"
)

// Step is one scenario entry. Frame steps carry surface changes, tap steps
// a world point, place steps an ad-hoc placement request.
type Step struct {
	Kind    StepKind     `yaml:"kind" json:"kind"`
	Added   []SurfaceDef `yaml:"added,omitempty" json:"added,omitempty"`
	Updated []SurfaceDef `yaml:"updated,omitempty" json:"updated,omitempty"`
	Removed []string     `yaml:"removed,omitempty" json:"removed,omitempty"`
	Point   []float64    `yaml:"point,omitempty" json:"point,omitempty"`
	Place   *PlaceDef    `yaml:"place,omitempty" json:"place,omitempty"`
}

// PlaceDef mirrors placement.Request without importing it.
type PlaceDef struct {
	Kind          string  `yaml:"kind" json:"kind"`
	Count         int     `yaml:"count" json:"count"`
	MinSeparation float64 `yaml:"min_separation" json:"min_separation"`
	MaxAttempts   int     `yaml:"max_attempts" json:"max_attempts"`
}

// SurfaceDef is a surface as written in YAML. Boundary points are [x, z]
// pairs in the surface's local plane; Position is [x, y, z]; Yaw is in degrees.
type SurfaceDef struct {
	ID       string      `yaml:"id" json:"id"`
	Boundary [][]float64 `yaml:"boundary" json:"boundary"`
	Width    float64     `yaml:"width,omitempty" json:"width,omitempty"`
	Depth    float64     `yaml:"depth,omitempty" json:"depth,omitempty"`
	Position []float64   `yaml:"position,omitempty" json:"position,omitempty"`
	Yaw      float64     `yaml:"yaw,omitempty" json:"yaw,omitempty"`
}

// ErrInvalidSize is returned for a surface with a negative or NaN width or depth.
var ErrInvalidSize = errors.New("config: surface width and depth must be non-negative")

// CheckSize rejects sizes that would subtract area from the tracked total.
func (d SurfaceDef) CheckSize() error {
	if !(d.Width >= 0) || !(d.Depth >= 0) {
		return fmt.Errorf("surface %q: %w", d.ID, ErrInvalidSize)
	}
	return nil
}

// Surface converts the definition. When width and depth are omitted the size
// is taken from the boundary's bounding box.
func (d SurfaceDef) Surface() surface.Surface {
	pts := make([]geo.Point2D, 0, len(d.Boundary))
	for _, p := range d.Boundary {
		if len(p) >= 2 {
			pts = append(pts, geo.Pt(p[0], p[1]))
		}
	}
	poly := geo.NewPolygon(pts...)

	size := surface.Size{Width: d.Width, Depth: d.Depth}
	if size.Width == 0 && size.Depth == 0 {
		size = surface.SizeFromBoundary(poly)
	}

	pose := geo.Pose{Position: vec3(d.Position)}
	if d.Yaw != 0 {
		pose.Rotation = geo.YawQuat(degToRad(d.Yaw))
	}
	return surface.Surface{ID: surface.ID(d.ID), Boundary: poly, Size: size, Pose: pose}
}

// CheckSurfaces runs CheckSize over every added and updated surface.
func (s Step) CheckSurfaces() error {
	for _, d := range s.Added {
		if err := d.CheckSize(); err != nil {
			return err
		}
	}
	for _, d := range s.Updated {
		if err := d.CheckSize(); err != nil {
			return err
		}
	}
	return nil
}

// Frame converts a frame step into a tracking frame.
func (s Step) Frame() surface.Frame {
	var f surface.Frame
	for _, d := range s.Added {
		f.Added = append(f.Added, d.Surface())
	}
	for _, d := range s.Updated {
		f.Updated = append(f.Updated, d.Surface())
	}
	for _, id := range s.Removed {
		f.Removed = append(f.Removed, surface.ID(id))
	}
	return f
}

// TapPoint returns the tap step's world point.
func (s Step) TapPoint() geo.Vec3 {
	return vec3(s.Point)
}

func vec3(v []float64) geo.Vec3 {
	var out geo.Vec3
	if len(v) > 0 {
		out.X = v[0]
	}
	if len(v) > 1 {
		out.Y = v[1]
	}
	if len(v) > 2 {
		out.Z = v[2]
	}
	return out
}
