// Package surface models the flat regions reported by an AR plane tracker
// and the live set of them a session currently trusts.
package surface

import (
	"github.com/ChicagoDave/crowpitcher/pkg/geo"
)

// ID is the tracker's stable handle for one physical surface.
type ID string

// Size is the axis-aligned extent of a surface in its own plane.
type Size struct {
	Width float64 `json:"width" yaml:"width"`
	Depth float64 `json:"depth" yaml:"depth"`
}

// Area returns Width * Depth.
func (s Size) Area() float64 {
	return s.Width * s.Depth
}

// Surface is one tracked plane. Boundary vertices are in the local XZ plane;
// Pose maps local coordinates to world space.
type Surface struct {
	ID       ID          `json:"id"`
	Boundary geo.Polygon `json:"boundary"`
	Size     Size        `json:"size"`
	Pose     geo.Pose    `json:"pose"`
}

// HasBoundary reports whether the boundary describes a polygon (3+ points).
func (s Surface) HasBoundary() bool {
	return !s.Boundary.IsEmpty()
}

// Center returns the world position of the boundary centroid.
func (s Surface) Center() geo.Vec3 {
	return s.Pose.TransformPoint(s.Boundary.Centroid().Lift())
}

// SizeFromBoundary returns the extent of the boundary's bounding box.
func SizeFromBoundary(poly geo.Polygon) Size {
	minP, maxP := poly.BoundingBox()
	return Size{Width: maxP.X - minP.X, Depth: maxP.Z - minP.Z}
}
