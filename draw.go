package bullet

import "math"

// Draw flags
const (
	DRAW_WIREFRAME      = 1 << 0
	DRAW_AABB           = 1 << 1
	DRAW_CONTACT_POINTS = 1 << 2
	DRAW_CONSTRAINTS    = 1 << 3
)

// 16 bytes
type FColor struct {
	R, G, B, A float32
}

// DebugDrawer receives line primitives from World.DebugDraw.
type DebugDrawer interface {
	DrawLine(from, to Vector, color FColor)
	DrawContactPoint(pointOnB, normalOnB Vector, distance float64, lifeTime int, color FColor)

	ShapeColor(obj *CollisionObject) FColor
	AabbColor() FColor
	ConstraintColor() FColor
	ContactPointColor() FColor
}

// segments per circle
const drawCircleSegments = 16

// DrawAabb draws the 12 edges of a box.
func DrawAabb(drawer DebugDrawer, bb BB, color FColor) {
	var corners [8]Vector
	for i := range corners {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) == 0 {
				corners[i][axis] = bb.Min[axis]
			} else {
				corners[i][axis] = bb.Max[axis]
			}
		}
	}
	drawBoxEdges(drawer, &corners, color)
}

// corners are indexed by bit per axis, edges join corners one bit apart
func drawBoxEdges(drawer DebugDrawer, corners *[8]Vector, color FColor) {
	for i := 0; i < 8; i++ {
		for axis := 0; axis < 3; axis++ {
			j := i | 1<<axis
			if j != i {
				drawer.DrawLine(corners[i], corners[j], color)
			}
		}
	}
}

func drawCircle(drawer DebugDrawer, center, normal Vector, radius float64, color FColor) {
	u, v := PlaneSpace(normal.SafeNormalize())
	prev := center.Add(u.Mult(radius))
	for i := 1; i <= drawCircleSegments; i++ {
		angle := SIMD_2_PI * float64(i) / drawCircleSegments
		next := center.Add(u.Mult(radius * math.Cos(angle))).Add(v.Mult(radius * math.Sin(angle)))
		drawer.DrawLine(prev, next, color)
		prev = next
	}
}

func drawSphere(drawer DebugDrawer, t Transform, radius float64, color FColor) {
	for axis := 0; axis < 3; axis++ {
		drawCircle(drawer, t.Origin, t.Basis.Col(axis), radius, color)
	}
}

// DrawShape draws the outline of a shape placed at t.
func DrawShape(drawer DebugDrawer, t Transform, shape CollisionShape, color FColor) {
	switch s := shape.(type) {
	case *BoxShape:
		var corners [8]Vector
		for i := range corners {
			corners[i] = t.Point(s.Vertex(i))
		}
		drawBoxEdges(drawer, &corners, color)
	case *SphereShape:
		drawSphere(drawer, t, s.Radius(), color)
	case *CapsuleShape:
		up := t.Basis.Col(1)
		top := t.Point(Vector{0, s.HalfHeight(), 0})
		bottom := t.Point(Vector{0, -s.HalfHeight(), 0})
		drawCircle(drawer, top, up, s.Radius(), color)
		drawCircle(drawer, bottom, up, s.Radius(), color)
		for _, side := range []Vector{t.Basis.Col(0), t.Basis.Col(2)} {
			offset := side.Mult(s.Radius())
			drawer.DrawLine(top.Add(offset), bottom.Add(offset), color)
			drawer.DrawLine(top.Sub(offset), bottom.Sub(offset), color)
		}
		drawSphere(drawer, NewTransform(t.Rotation(), top), s.Radius(), color)
		drawSphere(drawer, NewTransform(t.Rotation(), bottom), s.Radius(), color)
	case *TriangleShape:
		drawTriangle(drawer, t, s, color)
	case *ConvexHullShape:
		points := s.Points()
		for i := range points {
			for j := i + 1; j < len(points); j++ {
				drawer.DrawLine(t.Point(points[i]), t.Point(points[j]), color)
			}
		}
	case *TriangleMeshShape:
		s.ProcessAllTriangles(func(tri *TriangleShape, _ int) {
			drawTriangle(drawer, t, tri, color)
		}, s.local)
	case *StaticPlaneShape:
		normal, constant := s.WorldPlane(t)
		center := normal.Mult(constant)
		u, v := PlaneSpace(normal)
		const size = 100
		drawer.DrawLine(center.Sub(u.Mult(size)), center.Add(u.Mult(size)), color)
		drawer.DrawLine(center.Sub(v.Mult(size)), center.Add(v.Mult(size)), color)
		drawer.DrawLine(center, center.Add(normal), color)
	case *CompoundShape:
		for i := 0; i < s.NumChildren(); i++ {
			child := s.Child(i)
			DrawShape(drawer, t.Mult(child.Transform), child.Shape, color)
		}
	}
}

func drawTriangle(drawer DebugDrawer, t Transform, tri *TriangleShape, color FColor) {
	a := t.Point(tri.Vertices[0])
	b := t.Point(tri.Vertices[1])
	c := t.Point(tri.Vertices[2])
	drawer.DrawLine(a, b, color)
	drawer.DrawLine(b, c, color)
	drawer.DrawLine(c, a, color)
}

// DrawConstraint draws the pivots and axes of a joint.
func DrawConstraint(drawer DebugDrawer, c *Constraint) {
	color := drawer.ConstraintColor()
	const axisLength = 0.3
	drawFrame := func(frame Transform) {
		for axis := 0; axis < 3; axis++ {
			drawer.DrawLine(frame.Origin, frame.Origin.Add(frame.Basis.Col(axis).Mult(axisLength)), color)
		}
	}

	switch joint := c.Class.(type) {
	case *Point2PointConstraint:
		pivotA := c.a.worldTransform.Point(joint.PivotInA)
		pivotB := c.b.worldTransform.Point(joint.PivotInB)
		drawFrame(NewTransform(c.a.worldTransform.Rotation(), pivotA))
		drawFrame(NewTransform(c.b.worldTransform.Rotation(), pivotB))
	case *HingeConstraint:
		frameA := c.a.worldTransform.Mult(joint.FrameInA)
		frameB := c.b.worldTransform.Mult(joint.FrameInB)
		drawFrame(frameA)
		drawFrame(frameB)
		drawCircle(drawer, frameA.Origin, frameA.Basis.Col(2), axisLength, color)
	case *Generic6DofConstraint:
		joint.calculateTransforms()
		drawFrame(joint.CalculatedTransformA())
		drawFrame(joint.CalculatedTransformB())
	case *SimpleMotor:
		origin := c.a.worldTransform.Origin
		drawer.DrawLine(origin, origin.Add(c.a.worldTransform.Vect(joint.AxisInA)), color)
	default:
		drawer.DrawLine(c.a.worldTransform.Origin, c.b.worldTransform.Origin, color)
	}
}

// DebugDraw draws the world through drawer, flags select what.
func (w *World) DebugDraw(drawer DebugDrawer, flags int) {
	if flags&(DRAW_WIREFRAME|DRAW_AABB) != 0 {
		for _, obj := range w.objects {
			if flags&DRAW_WIREFRAME != 0 {
				DrawShape(drawer, obj.WorldTransform(), obj.CollisionShape(), drawer.ShapeColor(obj))
			}
			if flags&DRAW_AABB != 0 {
				DrawAabb(drawer, obj.Aabb(), drawer.AabbColor())
			}
		}
	}

	if flags&DRAW_CONTACT_POINTS != 0 {
		color := drawer.ContactPointColor()
		for _, m := range w.Manifolds() {
			for i := 0; i < m.NumContacts(); i++ {
				pt := m.Point(i)
				drawer.DrawContactPoint(pt.PositionWorldOnB, pt.NormalWorldOnB, pt.Distance, pt.LifeTime, color)
			}
		}
	}

	if flags&DRAW_CONSTRAINTS != 0 {
		for _, c := range w.constraints {
			DrawConstraint(drawer, c)
		}
	}
}
