package geo

import "math"

// Vec3 is a world-space vector (Y up).
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// V3 is a shorthand constructor for Vec3.
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Cross returns the cross product v × w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance returns the Euclidean distance from v to w.
func (v Vec3) Distance(w Vec3) float64 {
	return v.Sub(w).Length()
}

// Flatten drops the Y component, returning the point in a local XZ plane.
func (v Vec3) Flatten() Point2D {
	return Point2D{X: v.X, Z: v.Z}
}

// Quat is a rotation quaternion stored as x, y, z, w.
type Quat struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"w" yaml:"w"`
}

// IdentityQuat is the rotation that leaves vectors unchanged.
var IdentityQuat = Quat{W: 1}

// YawQuat returns a rotation of angle radians about the Y axis.
func YawQuat(angle float64) Quat {
	s, c := math.Sincos(angle / 2)
	return Quat{Y: s, W: c}
}

// IsZero reports whether q is the zero value, which is treated as identity.
func (q Quat) IsZero() bool {
	return q == Quat{}
}

// Normalize returns q scaled to unit length. The zero quaternion becomes identity.
func (q Quat) Normalize() Quat {
	l := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l < 1e-12 {
		return IdentityQuat
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Conjugate returns the inverse rotation of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Array returns the quaternion as [x, y, z, w].
func (q Quat) Array() [4]float64 {
	return [4]float64{q.X, q.Y, q.Z, q.W}
}

// Pose is a rigid local-to-world transform.
type Pose struct {
	Position Vec3 `json:"position" yaml:"position"`
	Rotation Quat `json:"rotation" yaml:"rotation"`
}

func (p Pose) rotation() Quat {
	if p.Rotation.IsZero() {
		return IdentityQuat
	}
	return p.Rotation.Normalize()
}

// TransformPoint maps a local point into world space.
func (p Pose) TransformPoint(local Vec3) Vec3 {
	return p.rotation().Rotate(local).Add(p.Position)
}

// InverseTransformPoint maps a world point into the pose's local space.
func (p Pose) InverseTransformPoint(world Vec3) Vec3 {
	return p.rotation().Conjugate().Rotate(world.Sub(p.Position))
}
