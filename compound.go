package bullet

import "fmt"

type CompoundChild struct {
	Transform Transform
	Shape     CollisionShape
}

// CompoundShape groups child shapes with local transforms.
type CompoundShape struct {
	children []CompoundChild
	local    BB
	margin   float64
}

func NewCompoundShape() *CompoundShape {
	return &CompoundShape{}
}

func (c *CompoundShape) Type() ShapeType {
	return SHAPE_COMPOUND
}

func (c *CompoundShape) AddChildShape(local Transform, shape CollisionShape) {
	bb := shape.Aabb(local)
	if len(c.children) == 0 {
		c.local = bb
	} else {
		c.local = c.local.Merge(bb)
	}
	c.children = append(c.children, CompoundChild{Transform: local, Shape: shape})
}

func (c *CompoundShape) RemoveChildShape(shape CollisionShape) {
	for i := len(c.children) - 1; i >= 0; i-- {
		if c.children[i].Shape == shape {
			c.children = append(c.children[:i], c.children[i+1:]...)
		}
	}
	c.recalculateLocalAabb()
}

func (c *CompoundShape) recalculateLocalAabb() {
	c.local = BB{}
	for i, child := range c.children {
		bb := child.Shape.Aabb(child.Transform)
		if i == 0 {
			c.local = bb
		} else {
			c.local = c.local.Merge(bb)
		}
	}
}

func (c *CompoundShape) NumChildren() int {
	return len(c.children)
}

func (c *CompoundShape) Child(i int) CompoundChild {
	return c.children[i]
}

func (c *CompoundShape) Margin() float64 {
	return c.margin
}

func (c *CompoundShape) SetMargin(margin float64) {
	c.margin = margin
}

func (c *CompoundShape) Aabb(t Transform) BB {
	return TransformLocalAabb(c.local, c.margin, t)
}

// CalculateLocalInertia approximates the compound by its local box.
func (c *CompoundShape) CalculateLocalInertia(mass float64) Vector {
	return boxInertia(mass, c.local.Extents())
}

func (c *CompoundShape) Validate() error {
	if len(c.children) == 0 {
		return fmt.Errorf("%w: compound has no children", ErrInvalidShape)
	}
	for i, child := range c.children {
		if child.Shape == nil {
			return fmt.Errorf("%w: compound child %d is nil", ErrInvalidShape, i)
		}
		if !child.Transform.IsFinite() {
			return fmt.Errorf("%w: compound child %d: %w", ErrInvalidShape, i, ErrNaNTransform)
		}
		if err := child.Shape.Validate(); err != nil {
			return fmt.Errorf("compound child %d: %w", i, err)
		}
	}
	return nil
}
