// Package transform maps lattice points from mesh space into integer world
// coordinates.
package transform

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Rotation holds angles in degrees about the X, Y and Z axes. They are
// applied X first, then Y, then Z.
type Rotation struct {
	X, Y, Z float64
}

func (r Rotation) String() string { return fmt.Sprintf("(%g,%g,%g)", r.X, r.Y, r.Z) }

// IsZero reports whether r is the identity rotation.
func (r Rotation) IsZero() bool { return r == Rotation{} }

// Matrix returns Rz·Ry·Rx scaled by 1/pitch.
func Matrix(rot Rotation, pitch float64) mgl64.Mat3 {
	rx := mgl64.Rotate3DX(mgl64.DegToRad(rot.X))
	ry := mgl64.Rotate3DY(mgl64.DegToRad(rot.Y))
	rz := mgl64.Rotate3DZ(mgl64.DegToRad(rot.Z))
	return rz.Mul3(ry).Mul3(rx).Mul(1 / pitch)
}

// Transformer applies one fixed rotation, scale and offset. The zero value
// is not usable; build one with New.
type Transformer struct {
	m     mgl64.Mat3
	start mgl64.Vec3
}

// New caches the scaled rotation for repeated Apply calls.
func New(rot Rotation, pitch float64, start mgl64.Vec3) Transformer {
	return Transformer{m: Matrix(rot, pitch), start: start}
}

// Apply rotates and scales p, adds the start offset and truncates each
// component toward zero.
func (t Transformer) Apply(p mgl64.Vec3) [3]int {
	w := t.m.Mul3x1(p).Add(t.start)
	return [3]int{int(w[0]), int(w[1]), int(w[2])}
}

// Exact is Apply without the truncation.
func (t Transformer) Exact(p mgl64.Vec3) mgl64.Vec3 {
	return t.m.Mul3x1(p).Add(t.start)
}

// Transform is the one-shot form of New(rot, pitch, start).Apply(p).
func Transform(p mgl64.Vec3, rot Rotation, pitch float64, start mgl64.Vec3) [3]int {
	return New(rot, pitch, start).Apply(p)
}
