package geo

import (
	"errors"
	"math/rand/v2"
)

// MaxSampleTrials caps the bounding-box draws made by SamplePoint.
const MaxSampleTrials = 50

var (
	// ErrNoInteriorPoint is returned when every trial fell outside the polygon.
	ErrNoInteriorPoint = errors.New("geo: no interior point found")
	// ErrDegeneratePolygon is returned for polygons with fewer than 3 vertices.
	ErrDegeneratePolygon = errors.New("geo: polygon has fewer than 3 vertices")
)

// SamplePoint draws a point uniformly distributed over the polygon's interior
// by rejection sampling its bounding box. It gives up after MaxSampleTrials
// draws; callers usually fall back to Centroid in that case.
func SamplePoint(poly Polygon, rng *rand.Rand) (Point2D, error) {
	return SamplePointN(poly, rng, MaxSampleTrials)
}

// SamplePointN is SamplePoint with an explicit trial cap.
func SamplePointN(poly Polygon, rng *rand.Rand, trials int) (Point2D, error) {
	if poly.IsEmpty() {
		return Point2D{}, ErrDegeneratePolygon
	}
	minP, maxP := poly.BoundingBox()
	for i := 0; i < trials; i++ {
		pt := Point2D{
			X: minP.X + rng.Float64()*(maxP.X-minP.X),
			Z: minP.Z + rng.Float64()*(maxP.Z-minP.Z),
		}
		if poly.Contains(pt) {
			return pt, nil
		}
	}
	return Point2D{}, ErrNoInteriorPoint
}
