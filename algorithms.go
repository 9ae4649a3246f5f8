package bullet

import "math"

// CollisionAlgorithm computes the contacts of one overlapping pair. The
// dispatcher caches one per broadphase pair.
type CollisionAlgorithm interface {
	ProcessCollision(body0, body1 *CollisionObjectWrapper, info *DispatcherInfo, result *ManifoldResult)
	// Release gives back the manifolds owned by the algorithm.
	Release()
}

// CollisionAlgorithmCreateFunc builds the algorithm of a shape type pair. A
// non nil manifold is shared with the caller instead of allocating one.
type CollisionAlgorithmCreateFunc func(d *CollisionDispatcher, body0, body1 *CollisionObjectWrapper, manifold *PersistentManifold) CollisionAlgorithm

// angularMotionDisc is the radius of the sphere around the origin of the
// shape that contains it.
func angularMotionDisc(shape CollisionShape) float64 {
	bb := shape.Aabb(NewTransformIdentity())
	return bb.Center().Length() + bb.Extents().Length()
}

func perturbationAngle(threshold, radius float64) float64 {
	const angleLimit = 0.125 * SIMD_PI
	if radius <= SIMD_EPSILON {
		return angleLimit
	}
	return math.Min(threshold/radius, angleLimit)
}

type emptyAlgorithm struct{}

func newEmptyAlgorithm(*CollisionDispatcher, *CollisionObjectWrapper, *CollisionObjectWrapper, *PersistentManifold) CollisionAlgorithm {
	return emptyAlgorithm{}
}

func (emptyAlgorithm) ProcessCollision(*CollisionObjectWrapper, *CollisionObjectWrapper, *DispatcherInfo, *ManifoldResult) {
}

func (emptyAlgorithm) Release() {}

// convexConvexAlgorithm runs GJK with the EPA fallback. When a contact leaves
// the manifold with few points it adds more by slightly rotating the smaller
// shape around the contact normal.
type convexConvexAlgorithm struct {
	dispatcher  *CollisionDispatcher
	manifold    *PersistentManifold
	ownManifold bool

	simplex     *VoronoiSimplexSolver
	penetration *GjkEpaPenetrationDepthSolver
	detector    *GjkPairDetector

	perturbationIterations int
	perturbationThreshold  int
}

func newConvexConvexAlgorithm(d *CollisionDispatcher, body0, body1 *CollisionObjectWrapper, manifold *PersistentManifold) CollisionAlgorithm {
	return &convexConvexAlgorithm{
		dispatcher:             d,
		manifold:               manifold,
		simplex:                NewVoronoiSimplexSolver(),
		penetration:            &GjkEpaPenetrationDepthSolver{},
		perturbationIterations: d.perturbationIterations,
		perturbationThreshold:  d.perturbationThreshold,
	}
}

func (a *convexConvexAlgorithm) ProcessCollision(body0, body1 *CollisionObjectWrapper, info *DispatcherInfo, result *ManifoldResult) {
	if a.manifold == nil {
		a.manifold = a.dispatcher.GetNewManifold(body0.Object, body1.Object)
		a.ownManifold = true
	}
	result.SetPersistentManifold(a.manifold)

	a.collide(body0, body1, info, result)

	if a.ownManifold {
		result.RefreshContactPoints()
	}
}

func (a *convexConvexAlgorithm) collide(body0, body1 *CollisionObjectWrapper, info *DispatcherInfo, result *ManifoldResult) {
	shapeA := body0.Shape.(ConvexShape)
	shapeB := body1.Shape.(ConvexShape)
	if a.detector == nil {
		a.detector = NewGjkPairDetector(shapeA, shapeB, a.simplex, a.penetration)
	} else {
		a.detector.SetShapes(shapeA, shapeB)
	}

	threshold := a.manifold.ContactBreakingThreshold()
	limit := shapeA.Margin() + shapeB.Margin() + threshold
	input := ClosestPointInput{
		TransformA:             body0.Transform,
		TransformB:             body1.Transform,
		MaximumDistanceSquared: limit * limit,
	}

	a.penetration.LastStatus = GJKEPA_SEPARATED
	a.detector.GetClosestPoints(&input, result)
	if info != nil {
		info.GjkQueries++
		if s := a.penetration.LastStatus; s == GJKEPA_GJK_FAILED || s == GJKEPA_EPA_FAILED {
			info.NarrowphaseFailures++
		}
	}

	contacts := a.manifold.NumContacts()
	if a.perturbationIterations == 0 || contacts == 0 || contacts >= a.perturbationThreshold {
		return
	}

	normal := a.detector.CachedSeparatingAxis().SafeNormalize()
	v0, _ := PlaneSpace(normal)

	radiusA := angularMotionDisc(shapeA)
	radiusB := angularMotionDisc(shapeB)
	perturbA := radiusA < radiusB
	angle := perturbationAngle(threshold, math.Min(radiusA, radiusB))

	unperturbed := body1.Transform
	if perturbA {
		unperturbed = body0.Transform
	}
	perturbRot := QuaternionAxisAngle(v0, angle)

	for i := 0; i < a.perturbationIterations; i++ {
		iterationAngle := float64(i) * (SIMD_2_PI / float64(a.perturbationIterations))
		rotq := QuaternionAxisAngle(normal, iterationAngle)
		rot := rotq.Conjugate().Mult(perturbRot).Mult(rotq).Matrix()

		in := input
		if perturbA {
			in.TransformA.Basis = rot.Mult(body0.Transform.Basis)
		} else {
			in.TransformB.Basis = rot.Mult(body1.Transform.Basis)
		}
		a.detector.GetClosestPoints(&in, &perturbedContactResult{
			original:    result,
			transA:      in.TransformA,
			transB:      in.TransformB,
			unperturbed: unperturbed,
			perturbA:    perturbA,
		})
	}
}

func (a *convexConvexAlgorithm) Release() {
	if a.ownManifold && a.manifold != nil {
		a.dispatcher.ReleaseManifold(a.manifold)
		a.manifold = nil
	}
}

// perturbedContactResult maps contacts found with a rotated shape back onto
// the unrotated one.
type perturbedContactResult struct {
	original    *ManifoldResult
	transA      Transform
	transB      Transform
	unperturbed Transform
	perturbA    bool
}

func (r *perturbedContactResult) AddContactPoint(normalOnBInWorld, pointInWorld Vector, depth float64) {
	var startPt Vector
	var newDepth float64
	if r.perturbA {
		endPtOrg := pointInWorld.Add(normalOnBInWorld.Mult(depth))
		endPt := r.unperturbed.Mult(r.transA.Inverse()).Point(endPtOrg)
		newDepth = endPt.Sub(pointInWorld).Dot(normalOnBInWorld)
		startPt = endPt.Sub(normalOnBInWorld.Mult(newDepth))
	} else {
		endPt := pointInWorld.Add(normalOnBInWorld.Mult(depth))
		startPt = r.unperturbed.Mult(r.transB.Inverse()).Point(pointInWorld)
		newDepth = endPt.Sub(startPt).Dot(normalOnBInWorld)
	}
	r.original.AddContactPoint(normalOnBInWorld, startPt, newDepth)
}

type sphereSphereAlgorithm struct {
	dispatcher  *CollisionDispatcher
	manifold    *PersistentManifold
	ownManifold bool
}

func newSphereSphereAlgorithm(d *CollisionDispatcher, body0, body1 *CollisionObjectWrapper, manifold *PersistentManifold) CollisionAlgorithm {
	return &sphereSphereAlgorithm{dispatcher: d, manifold: manifold}
}

func (a *sphereSphereAlgorithm) ProcessCollision(body0, body1 *CollisionObjectWrapper, info *DispatcherInfo, result *ManifoldResult) {
	if a.manifold == nil {
		a.manifold = a.dispatcher.GetNewManifold(body0.Object, body1.Object)
		a.ownManifold = true
	}
	result.SetPersistentManifold(a.manifold)

	r0 := body0.Shape.(*SphereShape).Radius()
	r1 := body1.Shape.(*SphereShape).Radius()
	diff := body0.Transform.Origin.Sub(body1.Transform.Origin)
	length := diff.Length()

	if length <= r0+r1+a.manifold.ContactBreakingThreshold() {
		normal := Vector{1, 0, 0}
		if length > SIMD_EPSILON {
			normal = diff.Mult(1 / length)
		}
		pointOnB := body1.Transform.Origin.Add(normal.Mult(r1))
		result.AddContactPoint(normal, pointOnB, length-(r0+r1))
	}

	if a.ownManifold {
		result.RefreshContactPoints()
	}
}

func (a *sphereSphereAlgorithm) Release() {
	if a.ownManifold && a.manifold != nil {
		a.dispatcher.ReleaseManifold(a.manifold)
		a.manifold = nil
	}
}

// convexPlaneAlgorithm takes the support point of the convex shape against
// the plane. Polyhedral shapes get extra points from perturbed orientations.
type convexPlaneAlgorithm struct {
	dispatcher  *CollisionDispatcher
	manifold    *PersistentManifold
	ownManifold bool
	swapped     bool

	perturbationIterations int
	perturbationThreshold  int
}

func newConvexPlaneCreateFunc(swapped bool) CollisionAlgorithmCreateFunc {
	return func(d *CollisionDispatcher, body0, body1 *CollisionObjectWrapper, manifold *PersistentManifold) CollisionAlgorithm {
		return &convexPlaneAlgorithm{
			dispatcher:             d,
			manifold:               manifold,
			swapped:                swapped,
			perturbationIterations: d.perturbationIterations,
			perturbationThreshold:  d.perturbationThreshold,
		}
	}
}

func (a *convexPlaneAlgorithm) ProcessCollision(body0, body1 *CollisionObjectWrapper, info *DispatcherInfo, result *ManifoldResult) {
	convexW, planeW := body0, body1
	if a.swapped {
		convexW, planeW = body1, body0
	}
	if a.manifold == nil {
		a.manifold = a.dispatcher.GetNewManifold(convexW.Object, planeW.Object)
		a.ownManifold = true
	}
	result.SetPersistentManifold(a.manifold)

	convex := convexW.Shape.(ConvexShape)
	plane := planeW.Shape.(*StaticPlaneShape)

	a.collideSingleContact(QuaternionIdentity(), convex, convexW, plane, planeW, result)

	t := convex.Type()
	polyhedral := t == SHAPE_BOX || t == SHAPE_CONVEX_HULL
	if polyhedral && a.perturbationIterations > 0 && a.manifold.NumContacts() < a.perturbationThreshold {
		normal := plane.Normal()
		v0, _ := PlaneSpace(normal)
		perturbRot := QuaternionAxisAngle(v0, perturbationAngle(a.manifold.ContactBreakingThreshold(), angularMotionDisc(convex)))
		for i := 0; i < a.perturbationIterations; i++ {
			iterationAngle := float64(i) * (SIMD_2_PI / float64(a.perturbationIterations))
			rotq := QuaternionAxisAngle(normal, iterationAngle)
			a.collideSingleContact(rotq.Conjugate().Mult(perturbRot).Mult(rotq), convex, convexW, plane, planeW, result)
		}
	}

	if a.ownManifold {
		result.RefreshContactPoints()
	}
}

func (a *convexPlaneAlgorithm) collideSingleContact(perturbRot Quaternion, convex ConvexShape, convexW *CollisionObjectWrapper, plane *StaticPlaneShape, planeW *CollisionObjectWrapper, result *ManifoldResult) {
	normal := plane.Normal()
	constant := plane.Constant()

	convexInPlane := planeW.Transform.InverseTimes(convexW.Transform)

	perturbed := convexW.Transform
	perturbed.Basis = perturbed.Basis.Mult(perturbRot.Matrix())
	planeInConvex := perturbed.InverseTimes(planeW.Transform)

	vtx := LocalSupportWithMargin(convex, planeInConvex.Basis.MulVec(normal.Neg()))
	vtxInPlane := convexInPlane.Point(vtx)
	distance := normal.Dot(vtxInPlane) - constant
	projected := vtxInPlane.Sub(normal.Mult(distance))

	if distance < a.manifold.ContactBreakingThreshold() {
		result.AddContactPoint(planeW.Transform.Vect(normal), planeW.Transform.Point(projected), distance)
	}
}

func (a *convexPlaneAlgorithm) Release() {
	if a.ownManifold && a.manifold != nil {
		a.dispatcher.ReleaseManifold(a.manifold)
		a.manifold = nil
	}
}

// convexConcaveAlgorithm collides a convex shape with every mesh triangle
// near it, sharing one manifold across triangles.
type convexConcaveAlgorithm struct {
	dispatcher *CollisionDispatcher
	manifold   *PersistentManifold
	swapped    bool
	child      *convexConvexAlgorithm
}

func newConvexConcaveCreateFunc(swapped bool) CollisionAlgorithmCreateFunc {
	return func(d *CollisionDispatcher, body0, body1 *CollisionObjectWrapper, manifold *PersistentManifold) CollisionAlgorithm {
		return &convexConcaveAlgorithm{dispatcher: d, manifold: manifold, swapped: swapped}
	}
}

func (a *convexConcaveAlgorithm) ProcessCollision(body0, body1 *CollisionObjectWrapper, info *DispatcherInfo, result *ManifoldResult) {
	convexW, concaveW := body0, body1
	if a.swapped {
		convexW, concaveW = body1, body0
	}
	if a.manifold == nil {
		a.manifold = a.dispatcher.GetNewManifold(convexW.Object, concaveW.Object)
	}
	if a.child == nil {
		a.child = &convexConvexAlgorithm{
			dispatcher:  a.dispatcher,
			manifold:    a.manifold,
			simplex:     NewVoronoiSimplexSolver(),
			penetration: &GjkEpaPenetrationDepthSolver{},
		}
	}
	result.SetPersistentManifold(a.manifold)

	concave := concaveW.Shape.(ConcaveShape)
	convexInConcave := concaveW.Transform.InverseTimes(convexW.Transform)
	bounds := convexW.Shape.Aabb(convexInConcave).Grow(a.manifold.ContactBreakingThreshold())
	margin := concave.Margin()

	concave.ProcessAllTriangles(func(tri *TriangleShape, index int) {
		tri.SetMargin(margin)
		triW := CollisionObjectWrapper{
			Object:    concaveW.Object,
			Shape:     tri,
			Transform: concaveW.Transform,
			Index:     index,
		}
		a.child.ProcessCollision(convexW, &triW, info, result)
	}, bounds)

	result.RefreshContactPoints()
}

func (a *convexConcaveAlgorithm) Release() {
	if a.manifold != nil {
		a.dispatcher.ReleaseManifold(a.manifold)
		a.manifold = nil
	}
	a.child = nil
}

// compoundAlgorithm keeps one child algorithm per compound child whose bounds
// touch the other object.
type compoundAlgorithm struct {
	dispatcher *CollisionDispatcher
	swapped    bool
	children   []CollisionAlgorithm
}

func newCompoundCreateFunc(swapped bool) CollisionAlgorithmCreateFunc {
	return func(d *CollisionDispatcher, body0, body1 *CollisionObjectWrapper, manifold *PersistentManifold) CollisionAlgorithm {
		return &compoundAlgorithm{dispatcher: d, swapped: swapped}
	}
}

func (a *compoundAlgorithm) ProcessCollision(body0, body1 *CollisionObjectWrapper, info *DispatcherInfo, result *ManifoldResult) {
	compoundW, otherW := body0, body1
	if a.swapped {
		compoundW, otherW = body1, body0
	}
	compound := compoundW.Shape.(*CompoundShape)

	if len(a.children) != compound.NumChildren() {
		a.Release()
		a.children = make([]CollisionAlgorithm, compound.NumChildren())
	}

	otherBounds := otherW.Shape.Aabb(otherW.Transform)
	threshold := a.dispatcher.contactBreakingThreshold
	for i := range a.children {
		child := compound.Child(i)
		childW := CollisionObjectWrapper{
			Object:    compoundW.Object,
			Shape:     child.Shape,
			Transform: compoundW.Transform.Mult(child.Transform),
			Index:     i,
		}
		if !child.Shape.Aabb(childW.Transform).Grow(threshold).Intersects(otherBounds) {
			if a.children[i] != nil {
				a.children[i].Release()
				a.children[i] = nil
			}
			continue
		}
		if a.children[i] == nil {
			a.children[i] = a.dispatcher.FindAlgorithm(&childW, otherW, nil)
		}
		a.children[i].ProcessCollision(&childW, otherW, info, result)
	}
}

func (a *compoundAlgorithm) Release() {
	for i, child := range a.children {
		if child != nil {
			child.Release()
			a.children[i] = nil
		}
	}
}
