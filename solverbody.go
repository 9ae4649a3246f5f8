package bullet

// SolverBody is the working copy of a body for one island solve. Static and
// kinematic objects get an infinite mass solver body that is never written
// back.
type SolverBody struct {
	object *CollisionObject
	body   *RigidBody

	invMass         float64
	invInertiaWorld Matrix3
	centerOfMass    Vector

	linearVelocity  Vector
	angularVelocity Vector
}

func newSolverBody(object *CollisionObject) SolverBody {
	sb := SolverBody{object: object, centerOfMass: object.worldTransform.Origin}
	body := object.rigidBody
	if body == nil {
		return sb
	}
	sb.body = body
	sb.linearVelocity = body.linearVelocity
	sb.angularVelocity = body.angularVelocity
	if !object.IsStaticOrKinematicObject() {
		sb.invMass = body.inverseMass
		sb.invInertiaWorld = body.invInertiaTensorWorld
	}
	return sb
}

func (sb *SolverBody) IsDynamic() bool {
	return sb.invMass != 0
}

func (sb *SolverBody) LinearVelocity() Vector {
	return sb.linearVelocity
}

func (sb *SolverBody) AngularVelocity() Vector {
	return sb.angularVelocity
}

// velocityInLocalPoint returns the velocity of the point at rel from the
// center of mass.
func (sb *SolverBody) velocityInLocalPoint(rel Vector) Vector {
	return sb.linearVelocity.Add(sb.angularVelocity.Cross(rel))
}

// applyImpulse adds magnitude times the jacobian row to the velocities.
// angularComponent is the inverse world inertia times the angular jacobian.
func (sb *SolverBody) applyImpulse(linear, angularComponent Vector, magnitude float64) {
	if sb.invMass == 0 {
		return
	}
	sb.linearVelocity = sb.linearVelocity.Add(linear.Mult(magnitude * sb.invMass))
	sb.angularVelocity = sb.angularVelocity.Add(angularComponent.Mult(magnitude))
}

func (sb *SolverBody) writeBack() {
	if sb.body == nil || sb.invMass == 0 {
		return
	}
	sb.body.linearVelocity = sb.linearVelocity
	sb.body.angularVelocity = sb.angularVelocity
}
