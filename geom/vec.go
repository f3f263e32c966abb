/*
package geom contains the coordinate machinery used by every lensing
calculation: (y, x) vectors, masks, sub-gridded coordinate grids, the fields
that live on them, profile reference frames and contour tracing.

All angular quantities are in arc-seconds unless stated otherwise and every
pair is ordered (y, x).
*/
package geom

import (
	"math"
)

// Vec2 is a (y, x) pair.
type Vec2 [2]float64

// Y returns the y component.
func (v Vec2) Y() float64 { return v[0] }

// X returns the x component.
func (v Vec2) X() float64 { return v[1] }

// Add returns v + u.
func (v Vec2) Add(u Vec2) Vec2 { return Vec2{v[0] + u[0], v[1] + u[1]} }

// Sub returns v - u.
func (v Vec2) Sub(u Vec2) Vec2 { return Vec2{v[0] - u[0], v[1] - u[1]} }

// Scale returns k*v.
func (v Vec2) Scale(k float64) Vec2 { return Vec2{k * v[0], k * v[1]} }

// Norm returns the Euclidean length of v.
func (v Vec2) Norm() float64 { return math.Hypot(v[0], v[1]) }

// Angle returns the angle of v counter-clockwise from the positive x-axis in
// radians.
func (v Vec2) Angle() float64 { return math.Atan2(v[0], v[1]) }

// Polar returns the vector with the given length pointing at theta radians
// counter-clockwise from the positive x-axis.
func Polar(r, theta float64) Vec2 {
	return Vec2{r * math.Sin(theta), r * math.Cos(theta)}
}

// Rotate rotates v counter-clockwise by theta radians.
func (v Vec2) Rotate(theta float64) Vec2 {
	sin, cos := math.Sincos(theta)
	return Vec2{v[1]*sin + v[0]*cos, v[1]*cos - v[0]*sin}
}
