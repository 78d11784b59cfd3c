package geo

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

const tolerance = 0.01

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func square10() Polygon {
	return NewPolygon(Pt(0, 0), Pt(0, 10), Pt(10, 10), Pt(10, 0))
}

// --- Point tests ---

func TestPointDistance(t *testing.T) {
	a := Pt(0, 0)
	b := Pt(3, 4)
	if !approxEqual(a.Distance(b), 5.0, tolerance) {
		t.Errorf("expected distance 5.0, got %f", a.Distance(b))
	}
}

func TestVec3Distance(t *testing.T) {
	a := V3(1, 2, 3)
	b := V3(1, 2, 3).Add(V3(2, 3, 6))
	if !approxEqual(a.Distance(b), 7.0, tolerance) {
		t.Errorf("expected distance 7.0, got %f", a.Distance(b))
	}
}

// --- Polygon tests ---

func TestPolygonAreaSquare(t *testing.T) {
	area := square10().Area()
	if !approxEqual(area, 100, tolerance) {
		t.Errorf("expected area 100, got %f", area)
	}
}

func TestPolygonAreaTriangle(t *testing.T) {
	tri := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(0, 10))
	area := tri.Area()
	if !approxEqual(area, 50, tolerance) {
		t.Errorf("expected area 50, got %f", area)
	}
}

func TestPolygonCentroid(t *testing.T) {
	c := square10().Centroid()
	if !approxEqual(c.X, 5, tolerance) || !approxEqual(c.Z, 5, tolerance) {
		t.Errorf("expected centroid (5,5), got (%f,%f)", c.X, c.Z)
	}
}

func TestPolygonCentroidDegenerate(t *testing.T) {
	line := NewPolygon(Pt(0, 0), Pt(4, 0))
	c := line.Centroid()
	if !approxEqual(c.X, 2, tolerance) || !approxEqual(c.Z, 0, tolerance) {
		t.Errorf("expected centroid (2,0), got (%f,%f)", c.X, c.Z)
	}
}

func TestPolygonContains(t *testing.T) {
	sq := square10()
	if !sq.Contains(Pt(5, 5)) {
		t.Error("expected (5,5) inside square")
	}
	if sq.Contains(Pt(15, 5)) {
		t.Error("expected (15,5) outside square")
	}
	if sq.Contains(Pt(-1, 5)) {
		t.Error("expected (-1,5) outside square")
	}
	if sq.Contains(Pt(5, 11)) {
		t.Error("expected (5,11) outside square")
	}
}

func TestPolygonContainsNonConvex(t *testing.T) {
	// L shape: the notch (5..10, 5..10) is outside.
	l := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 5), Pt(5, 5), Pt(5, 10), Pt(0, 10))
	if !l.Contains(Pt(2, 8)) {
		t.Error("expected (2,8) inside L")
	}
	if !l.Contains(Pt(8, 2)) {
		t.Error("expected (8,2) inside L")
	}
	if l.Contains(Pt(8, 8)) {
		t.Error("expected (8,8) in the notch to be outside")
	}
}

func TestPolygonContainsHorizontalEdgeRow(t *testing.T) {
	// Horizontal edges have a zero Z span; the epsilon keeps the crossing
	// test finite next to them.
	sq := square10()
	if !sq.Contains(Pt(5, 0.5)) {
		t.Error("expected (5,0.5) inside square")
	}
	if sq.Contains(Pt(5, 10.5)) {
		t.Error("expected (5,10.5) outside square")
	}
}

func TestPolygonContainsDegenerate(t *testing.T) {
	if NewPolygon(Pt(0, 0), Pt(1, 1)).Contains(Pt(0.5, 0.5)) {
		t.Error("two-vertex polygon should contain nothing")
	}
}

func TestPolygonBoundingBox(t *testing.T) {
	p := NewPolygon(Pt(-5, -3), Pt(10, 0), Pt(7, 12))
	mn, mx := p.BoundingBox()
	if !approxEqual(mn.X, -5, tolerance) || !approxEqual(mn.Z, -3, tolerance) {
		t.Errorf("expected min (-5,-3), got (%f,%f)", mn.X, mn.Z)
	}
	if !approxEqual(mx.X, 10, tolerance) || !approxEqual(mx.Z, 12, tolerance) {
		t.Errorf("expected max (10,12), got (%f,%f)", mx.X, mx.Z)
	}
}

// --- Sampling tests ---

func TestSamplePointStaysInSquare(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	sq := square10()

	var sumX, sumZ float64
	const n = 1000
	for i := 0; i < n; i++ {
		pt, err := SamplePoint(sq, rng)
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if pt.X < 0 || pt.X > 10 || pt.Z < 0 || pt.Z > 10 {
			t.Fatalf("sample %d at (%f,%f) outside square", i, pt.X, pt.Z)
		}
		sumX += pt.X
		sumZ += pt.Z
	}
	mx, mz := sumX/n, sumZ/n
	if !approxEqual(mx, 5, 0.5) || !approxEqual(mz, 5, 0.5) {
		t.Errorf("expected empirical centroid near (5,5), got (%f,%f)", mx, mz)
	}
}

func TestSamplePointNonConvex(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	l := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 5), Pt(5, 5), Pt(5, 10), Pt(0, 10))
	for i := 0; i < 500; i++ {
		pt, err := SamplePoint(l, rng)
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if pt.X > 5.01 && pt.Z > 5.01 {
			t.Fatalf("sample %d at (%f,%f) landed in the notch", i, pt.X, pt.Z)
		}
	}
}

func TestSamplePointDegenerate(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	_, err := SamplePoint(NewPolygon(Pt(0, 0), Pt(1, 0)), rng)
	if !errors.Is(err, ErrDegeneratePolygon) {
		t.Errorf("expected ErrDegeneratePolygon, got %v", err)
	}
}

func TestSamplePointExhaustsTrials(t *testing.T) {
	// A zero-trial cap never draws a point.
	rng := rand.New(rand.NewPCG(3, 4))
	tri := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10))
	_, err := SamplePointN(tri, rng, 0)
	if !errors.Is(err, ErrNoInteriorPoint) {
		t.Errorf("expected ErrNoInteriorPoint, got %v", err)
	}
}

// --- Transform tests ---

func TestPoseIdentity(t *testing.T) {
	p := Pose{Position: V3(1, 2, 3)}
	w := p.TransformPoint(V3(1, 0, 1))
	if !approxEqual(w.X, 2, tolerance) || !approxEqual(w.Y, 2, tolerance) || !approxEqual(w.Z, 4, tolerance) {
		t.Errorf("expected (2,2,4), got (%f,%f,%f)", w.X, w.Y, w.Z)
	}
}

func TestPoseYaw(t *testing.T) {
	p := Pose{Rotation: YawQuat(math.Pi / 2)}
	w := p.TransformPoint(V3(1, 0, 0))
	// +X rotated a quarter turn about +Y lands on -Z.
	if !approxEqual(w.X, 0, tolerance) || !approxEqual(w.Z, -1, tolerance) {
		t.Errorf("expected (0,0,-1), got (%f,%f,%f)", w.X, w.Y, w.Z)
	}
}

func TestPoseRoundTrip(t *testing.T) {
	p := Pose{Position: V3(-2, 0.8, 5), Rotation: YawQuat(0.7)}
	local := V3(0.3, 0, -1.2)
	back := p.InverseTransformPoint(p.TransformPoint(local))
	if back.Distance(local) > 1e-9 {
		t.Errorf("expected round trip to %v, got %v", local, back)
	}
}
