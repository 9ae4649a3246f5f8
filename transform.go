package bullet

import "math"

// Transform is a rigid transform: rotation basis then translation.
type Transform struct {
	Basis  Matrix3
	Origin Vector
}

func NewTransformIdentity() Transform {
	return Transform{Basis: NewMatrix3Identity()}
}

func NewTransform(rotation Quaternion, origin Vector) Transform {
	return Transform{Basis: rotation.Normalize().Matrix(), Origin: origin}
}

func NewTransformTranslate(translate Vector) Transform {
	return Transform{Basis: NewMatrix3Identity(), Origin: translate}
}

func NewTransformRigid(translate Vector, axis Vector, radians float64) Transform {
	return NewTransform(QuaternionAxisAngle(axis.Normalize(), radians), translate)
}

func (t Transform) Rotation() Quaternion {
	return t.Basis.Rotation()
}

func (t *Transform) SetRotation(q Quaternion) {
	t.Basis = q.Normalize().Matrix()
}

func (t Transform) Inverse() Transform {
	inv := t.Basis.Transpose()
	return Transform{Basis: inv, Origin: inv.MulVec(t.Origin.Neg())}
}

// Mult returns t * t2, applying t2 first.
func (t Transform) Mult(t2 Transform) Transform {
	return Transform{
		Basis:  t.Basis.Mult(t2.Basis),
		Origin: t.Point(t2.Origin),
	}
}

// InverseTimes returns inverse(t) * t2.
func (t Transform) InverseTimes(t2 Transform) Transform {
	v := t2.Origin.Sub(t.Origin)
	inv := t.Basis.Transpose()
	return Transform{Basis: inv.Mult(t2.Basis), Origin: inv.MulVec(v)}
}

func (t Transform) Point(p Vector) Vector {
	return t.Basis.MulVec(p).Add(t.Origin)
}

func (t Transform) Vect(v Vector) Vector {
	return t.Basis.MulVec(v)
}

// InvPoint maps a world point into the local frame of t.
func (t Transform) InvPoint(p Vector) Vector {
	return t.Basis.TransposeMulVec(p.Sub(t.Origin))
}

// InvVect rotates a world direction into the local frame of t.
func (t Transform) InvVect(v Vector) Vector {
	return t.Basis.TransposeMulVec(v)
}

func (t Transform) IsFinite() bool {
	return t.Basis.IsFinite() && t.Origin.IsFinite()
}

const ANGULAR_MOTION_THRESHOLD = 0.5 * SIMD_HALF_PI

// IntegrateTransform predicts the transform after dt at constant velocity.
func IntegrateTransform(cur Transform, linvel, angvel Vector, dt float64) Transform {
	predicted := Transform{Origin: cur.Origin.Add(linvel.Mult(dt))}

	// exponential map
	fAngle := angvel.Length()
	if fAngle*dt > ANGULAR_MOTION_THRESHOLD {
		clamped := ANGULAR_MOTION_THRESHOLD / dt
		angvel = angvel.Mult(clamped / fAngle)
		fAngle = clamped
	}
	var axis Vector
	if fAngle < 0.001 {
		// Taylor expansion of sync function
		axis = angvel.Mult(0.5*dt - (dt*dt*dt)*(0.020833333333)*fAngle*fAngle)
	} else {
		axis = angvel.Mult(math.Sin(0.5*fAngle*dt) / fAngle)
	}
	dorn := Quaternion{W: math.Cos(fAngle * dt * 0.5)}
	dorn.V[0], dorn.V[1], dorn.V[2] = axis[0], axis[1], axis[2]

	orn := dorn.Mult(cur.Rotation()).Normalize()
	predicted.Basis = orn.Matrix()
	return predicted
}

// CalculateVelocity derives the velocities that move t0 to t1 in dt.
func CalculateVelocity(t0, t1 Transform, dt float64) (linvel, angvel Vector) {
	linvel = t1.Origin.Sub(t0.Origin).Mult(1.0 / dt)
	axis, angle := calculateDiffAxisAngle(t0, t1)
	angvel = axis.Mult(angle / dt)
	return
}

func calculateDiffAxisAngle(t0, t1 Transform) (Vector, float64) {
	dmat := t1.Basis.Mult(t0.Basis.Transpose())
	dorn := dmat.Rotation()
	angle := dorn.Angle()
	axis := Vector(dorn.V)
	l2 := axis.LengthSq()
	if l2 < SIMD_EPSILON*SIMD_EPSILON {
		return Vector{1, 0, 0}, 0
	}
	axis = axis.Mult(1.0 / math.Sqrt(l2))
	if angle > SIMD_PI {
		angle -= SIMD_2_PI
	}
	return axis, angle
}
