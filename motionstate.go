package bullet

// MotionState connects a body to the caller's scene graph. The world reads
// the initial (and, for kinematic bodies, every) pose from it and writes back
// an interpolated pose once per step for every active body.
type MotionState interface {
	GetWorldTransform() Transform
	SetWorldTransform(t Transform)
}

// DefaultMotionState stores the graphics transform of a body whose center of
// mass is offset from its graphics origin.
type DefaultMotionState struct {
	GraphicsWorldTrans Transform
	CenterOfMassOffset Transform
	StartWorldTrans    Transform
}

func NewDefaultMotionState(start Transform) *DefaultMotionState {
	return &DefaultMotionState{
		GraphicsWorldTrans: start,
		CenterOfMassOffset: NewTransformIdentity(),
		StartWorldTrans:    start,
	}
}

func NewDefaultMotionStateOffset(start, centerOfMassOffset Transform) *DefaultMotionState {
	return &DefaultMotionState{
		GraphicsWorldTrans: start,
		CenterOfMassOffset: centerOfMassOffset,
		StartWorldTrans:    start,
	}
}

// GetWorldTransform returns the center of mass transform.
func (ms *DefaultMotionState) GetWorldTransform() Transform {
	return ms.GraphicsWorldTrans.Mult(ms.CenterOfMassOffset.Inverse())
}

func (ms *DefaultMotionState) SetWorldTransform(centerOfMassWorldTrans Transform) {
	ms.GraphicsWorldTrans = centerOfMassWorldTrans.Mult(ms.CenterOfMassOffset)
}
