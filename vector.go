package bullet

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	SIMD_EPSILON  = 1.192092896e-07
	SIMD_INFINITY = math.MaxFloat64
	SIMD_PI       = math.Pi
	SIMD_2_PI     = 2 * math.Pi
	SIMD_HALF_PI  = math.Pi / 2

	// Used to detect infinite or exploding values.
	LARGE_FLOAT = 1e18
)

// Vector is a 3 component vector backed by mgl64.
type Vector mgl64.Vec3

func VectorZero() Vector {
	return Vector{}
}

func (v Vector) vec() mgl64.Vec3 {
	return mgl64.Vec3(v)
}

func (v Vector) X() float64 { return v[0] }
func (v Vector) Y() float64 { return v[1] }
func (v Vector) Z() float64 { return v[2] }

func (v Vector) String() string {
	return fmt.Sprintf("%f,%f,%f", v[0], v[1], v[2])
}

func (v Vector) Equal(other Vector) bool {
	return v == other
}

func (v Vector) Add(other Vector) Vector {
	return Vector(v.vec().Add(other.vec()))
}

func (v Vector) Sub(other Vector) Vector {
	return Vector(v.vec().Sub(other.vec()))
}

func (v Vector) Neg() Vector {
	return Vector{-v[0], -v[1], -v[2]}
}

func (v Vector) Mult(s float64) Vector {
	return Vector(v.vec().Mul(s))
}

// MultV is the component-wise product.
func (v Vector) MultV(other Vector) Vector {
	return Vector{v[0] * other[0], v[1] * other[1], v[2] * other[2]}
}

func (v Vector) Dot(other Vector) float64 {
	return v.vec().Dot(other.vec())
}

func (v Vector) Cross(other Vector) Vector {
	return Vector(v.vec().Cross(other.vec()))
}

func (v Vector) LengthSq() float64 {
	return v.vec().LenSqr()
}

func (v Vector) Length() float64 {
	return v.vec().Len()
}

func (v Vector) Lerp(other Vector, t float64) Vector {
	return v.Mult(1.0 - t).Add(other.Mult(t))
}

// Normalize returns the zero vector for zero length input instead of NaNs.
func (v Vector) Normalize() Vector {
	l := v.Length()
	if l < SIMD_EPSILON {
		return Vector{}
	}
	return v.Mult(1.0 / l)
}

// SafeNormalize falls back to the x axis for degenerate input.
func (v Vector) SafeNormalize() Vector {
	l2 := v.LengthSq()
	if l2 >= SIMD_EPSILON*SIMD_EPSILON {
		return v.Mult(1.0 / math.Sqrt(l2))
	}
	return Vector{1, 0, 0}
}

func (v Vector) Distance(other Vector) float64 {
	return v.Sub(other).Length()
}

func (v Vector) DistanceSq(other Vector) float64 {
	return v.Sub(other).LengthSq()
}

func (v Vector) Near(other Vector, d float64) bool {
	return v.DistanceSq(other) < d*d
}

func (v Vector) Abs() Vector {
	return Vector{math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])}
}

func (v Vector) Min(other Vector) Vector {
	return Vector{math.Min(v[0], other[0]), math.Min(v[1], other[1]), math.Min(v[2], other[2])}
}

func (v Vector) Max(other Vector) Vector {
	return Vector{math.Max(v[0], other[0]), math.Max(v[1], other[1]), math.Max(v[2], other[2])}
}

// MaxAxis returns the index of the largest component.
func (v Vector) MaxAxis() int {
	if v[0] < v[1] {
		if v[1] < v[2] {
			return 2
		}
		return 1
	}
	if v[0] < v[2] {
		return 2
	}
	return 0
}

// MinAxis returns the index of the smallest component.
func (v Vector) MinAxis() int {
	if v[0] < v[1] {
		if v[0] < v[2] {
			return 0
		}
		return 2
	}
	if v[1] < v[2] {
		return 1
	}
	return 2
}

func (v Vector) IsFinite() bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func (v Vector) IsZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// Triple returns v . (b x c).
func (v Vector) Triple(b, c Vector) float64 {
	return v.Dot(b.Cross(c))
}

// PlaneSpace returns two unit vectors orthogonal to n and to each other.
func PlaneSpace(n Vector) (p, q Vector) {
	if math.Abs(n[2]) > math.Sqrt2/2 {
		a := n[1]*n[1] + n[2]*n[2]
		k := 1.0 / math.Sqrt(a)
		p = Vector{0, -n[2] * k, n[1] * k}
		q = Vector{a * k, -n[0] * p[2], n[0] * p[1]}
		return
	}
	a := n[0]*n[0] + n[1]*n[1]
	k := 1.0 / math.Sqrt(a)
	p = Vector{-n[1] * k, n[0] * k, 0}
	q = Vector{-n[2] * p[1], n[2] * p[0], a * k}
	return
}

func Clamp(f, min, max float64) float64 {
	return math.Min(math.Max(f, min), max)
}

func Clamp01(f float64) float64 {
	return math.Max(0.0, math.Min(f, 1.0))
}

func Lerp(f1, f2, t float64) float64 {
	return f1*(1.0-t) + f2*t
}

// NormalizeAngle wraps an angle to [-pi, pi].
func NormalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, SIMD_2_PI)
	if angle < -SIMD_PI {
		return angle + SIMD_2_PI
	}
	if angle > SIMD_PI {
		return angle - SIMD_2_PI
	}
	return angle
}
