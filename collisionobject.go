package bullet

// Collision flags
const (
	CF_STATIC_OBJECT = 1 << iota
	CF_KINEMATIC_OBJECT
	CF_NO_CONTACT_RESPONSE
)

// Activation states
const (
	ACTIVE_TAG = 1 + iota
	ISLAND_SLEEPING
	WANTS_DEACTIVATION
	DISABLE_DEACTIVATION
	DISABLE_SIMULATION
)

// Collision filter groups
const (
	FILTER_DEFAULT = 1 << iota
	FILTER_STATIC
	FILTER_KINEMATIC
	FILTER_DEBRIS
	FILTER_SENSOR
	FILTER_CHARACTER
	FILTER_ALL = -1
)

func ActivationStateName(state int) string {
	switch state {
	case ACTIVE_TAG:
		return "active"
	case ISLAND_SLEEPING:
		return "sleeping"
	case WANTS_DEACTIVATION:
		return "wants deactivation"
	case DISABLE_DEACTIVATION:
		return "disable deactivation"
	case DISABLE_SIMULATION:
		return "disable simulation"
	}
	return "unknown"
}

// CollisionObject is anything that takes part in collision detection. Rigid
// bodies embed it.
type CollisionObject struct {
	worldTransform Transform

	// pose and velocities of the last step, used to interpolate motion states
	interpolationWorldTransform  Transform
	interpolationLinearVelocity  Vector
	interpolationAngularVelocity Vector

	shape CollisionShape
	proxy *BroadphaseProxy

	collisionFlags   int
	activationState  int
	deactivationTime float64

	friction    float64
	restitution float64

	islandTag   int
	companionID int

	ignoreCollision []*CollisionObject

	rigidBody *RigidBody
	world     *World

	UserData interface{}
}

func NewCollisionObject(shape CollisionShape, transform Transform) *CollisionObject {
	o := &CollisionObject{}
	o.init(shape, transform)
	return o
}

func (o *CollisionObject) init(shape CollisionShape, transform Transform) {
	o.shape = shape
	o.worldTransform = transform
	o.interpolationWorldTransform = transform
	o.activationState = ACTIVE_TAG
	o.friction = 0.5
	o.islandTag = -1
	o.companionID = -1
}

func (o *CollisionObject) WorldTransform() Transform {
	return o.worldTransform
}

// SetWorldTransform teleports the object. The broadphase picks up the new
// bounds on the next step.
func (o *CollisionObject) SetWorldTransform(t Transform) {
	o.worldTransform = t
	if o.rigidBody != nil {
		o.rigidBody.UpdateInertiaTensor()
	}
}

func (o *CollisionObject) InterpolationWorldTransform() Transform {
	return o.interpolationWorldTransform
}

func (o *CollisionObject) SetInterpolationWorldTransform(t Transform) {
	o.interpolationWorldTransform = t
}

func (o *CollisionObject) CollisionShape() CollisionShape {
	return o.shape
}

func (o *CollisionObject) BroadphaseHandle() *BroadphaseProxy {
	return o.proxy
}

// RigidBody returns the body embedding this object, or nil.
func (o *CollisionObject) RigidBody() *RigidBody {
	return o.rigidBody
}

func (o *CollisionObject) World() *World {
	return o.world
}

func (o *CollisionObject) CollisionFlags() int {
	return o.collisionFlags
}

func (o *CollisionObject) SetCollisionFlags(flags int) {
	o.collisionFlags = flags
}

func (o *CollisionObject) IsStaticObject() bool {
	return o.collisionFlags&CF_STATIC_OBJECT != 0
}

func (o *CollisionObject) IsKinematicObject() bool {
	return o.collisionFlags&CF_KINEMATIC_OBJECT != 0
}

func (o *CollisionObject) IsStaticOrKinematicObject() bool {
	return o.collisionFlags&(CF_STATIC_OBJECT|CF_KINEMATIC_OBJECT) != 0
}

func (o *CollisionObject) HasContactResponse() bool {
	return o.collisionFlags&CF_NO_CONTACT_RESPONSE == 0
}

// MergesSimulationIslands is false for static, kinematic and sensor objects.
func (o *CollisionObject) MergesSimulationIslands() bool {
	return o.collisionFlags&(CF_STATIC_OBJECT|CF_KINEMATIC_OBJECT|CF_NO_CONTACT_RESPONSE) == 0
}

func (o *CollisionObject) ActivationState() int {
	return o.activationState
}

// SetActivationState does not override DISABLE_DEACTIVATION or DISABLE_SIMULATION.
func (o *CollisionObject) SetActivationState(state int) {
	if o.activationState != DISABLE_DEACTIVATION && o.activationState != DISABLE_SIMULATION {
		o.activationState = state
	}
}

func (o *CollisionObject) ForceActivationState(state int) {
	o.activationState = state
}

// Activate wakes the object. Static and kinematic objects only wake when forced.
func (o *CollisionObject) Activate(forceActivation bool) {
	if forceActivation || o.collisionFlags&(CF_STATIC_OBJECT|CF_KINEMATIC_OBJECT) == 0 {
		o.SetActivationState(ACTIVE_TAG)
		o.deactivationTime = 0
	}
}

func (o *CollisionObject) IsActive() bool {
	return o.activationState != ISLAND_SLEEPING && o.activationState != DISABLE_SIMULATION
}

func (o *CollisionObject) DeactivationTime() float64 {
	return o.deactivationTime
}

func (o *CollisionObject) Friction() float64 {
	return o.friction
}

func (o *CollisionObject) SetFriction(friction float64) {
	o.friction = friction
}

func (o *CollisionObject) Restitution() float64 {
	return o.restitution
}

func (o *CollisionObject) SetRestitution(restitution float64) {
	o.restitution = restitution
}

func (o *CollisionObject) IslandTag() int {
	return o.islandTag
}

func (o *CollisionObject) setIslandTag(tag int) {
	o.islandTag = tag
}

// SetIgnoreCollisionCheck excludes other from narrow phase with this object.
func (o *CollisionObject) SetIgnoreCollisionCheck(other *CollisionObject, ignore bool) {
	for i, obj := range o.ignoreCollision {
		if obj == other {
			if !ignore {
				o.ignoreCollision = append(o.ignoreCollision[:i], o.ignoreCollision[i+1:]...)
			}
			return
		}
	}
	if ignore {
		o.ignoreCollision = append(o.ignoreCollision, other)
	}
}

func (o *CollisionObject) CheckCollideWith(other *CollisionObject) bool {
	for _, obj := range o.ignoreCollision {
		if obj == other {
			return false
		}
	}
	return true
}

func (o *CollisionObject) Aabb() BB {
	return o.shape.Aabb(o.worldTransform)
}
