package scenarios

import (
	"math"
	"testing"

	. "github.com/jakecoffman/bullet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timeStep = 1.0 / 60.0

func build(t *testing.T, name string) *Setup {
	t.Helper()
	s, err := Lookup(name)
	require.NoError(t, err)
	setup, err := s.Build(DefaultConfig())
	require.NoError(t, err)
	return setup
}

func TestLookup(t *testing.T) {
	_, err := Lookup("nope")
	assert.Error(t, err)

	all := All()
	require.Len(t, all, 5)
	for i, s := range all {
		if i > 0 {
			assert.Less(t, all[i-1].Name, s.Name)
		}
		found, err := Lookup(s.Name)
		require.NoError(t, err)
		assert.Equal(t, s.Description, found.Description)
		assert.Positive(t, s.Steps)
	}
}

func TestRestingBox(t *testing.T) {
	setup := build(t, "resting-box")
	box := setup.Tracked[0]

	setup.Run(120, timeStep)
	rest := 0.5 + GroundHalfExtents.Y()
	assert.InDelta(t, rest, box.CenterOfMassPosition().Y(), 0.02)
	assert.Less(t, math.Abs(box.LinearVelocity().Y()), 0.01)
	assert.InDelta(t, 0, box.CenterOfMassPosition().X(), 0.01)
	assert.InDelta(t, 0, box.CenterOfMassPosition().Z(), 0.01)
}

// penetrationTolerance is how far a resting contact may sink past the slop
// while the solver converges.
const penetrationTolerance = 0.01

func TestStack(t *testing.T) {
	cfg := DefaultConfig()
	setup, err := Stack(cfg)
	require.NoError(t, err)
	require.Len(t, setup.Tracked, 2)
	bottom, top := setup.Tracked[0], setup.Tracked[1]

	deepest := 0.0
	for i := 0; i < 500; i++ {
		setup.Run(1, timeStep)
		gap := top.CenterOfMassPosition().Y() - bottom.CenterOfMassPosition().Y()
		require.Greater(t, gap, 0.97, "boxes sink into each other at step %d", i)

		for _, m := range setup.World.Dispatcher().Manifolds() {
			for j := 0; j < m.NumContacts(); j++ {
				d := m.Point(j).Distance
				deepest = math.Min(deepest, d)
				require.GreaterOrEqual(t, d, -cfg.Solver.LinearSlop-penetrationTolerance, "contact %d penetrates at step %d", j, i)
			}
		}
	}
	t.Logf("deepest contact %.4f", deepest)
	assert.InDelta(t, 1.0, bottom.CenterOfMassPosition().Y(), 0.02)
	assert.InDelta(t, 2.0, top.CenterOfMassPosition().Y(), 0.03)
	for _, box := range setup.Tracked {
		assert.InDelta(t, 0, box.CenterOfMassPosition().X(), 0.02)
		assert.InDelta(t, 0, box.CenterOfMassPosition().Z(), 0.02)
		assert.Greater(t, math.Abs(box.Orientation().W), 0.999, "boxes stay upright")
	}
}

func TestSleepWake(t *testing.T) {
	setup, err := SleepWake(DefaultConfig())
	require.NoError(t, err)
	setup.BeforeStep = nil
	world := setup.World
	box := setup.Tracked[0]

	steps := 0
	for box.ActivationState() != ISLAND_SLEEPING && steps < 600 {
		world.StepSimulation(timeStep, 1, timeStep)
		steps++
	}
	require.Equal(t, ISLAND_SLEEPING, box.ActivationState(), "asleep after %d steps", steps)
	assert.GreaterOrEqual(t, float64(steps)*timeStep, DEFAULT_DEACTIVATION_TIME)
	assert.Zero(t, box.LinearVelocity().Length())

	// asleep, the box neither moves nor is solved
	y := box.CenterOfMassPosition().Y()
	world.StepSimulation(timeStep, 1, timeStep)
	assert.Equal(t, y, box.CenterOfMassPosition().Y())
	assert.Zero(t, world.LastSolverStats().Islands)

	box.ApplyCentralImpulse(Vector{1, 0, 0})
	world.StepSimulation(timeStep, 1, timeStep)
	assert.Equal(t, ACTIVE_TAG, box.ActivationState())
	assert.Positive(t, box.LinearVelocity().X())
	assert.Equal(t, 1, world.LastSolverStats().Islands)
}

func TestSleepWake_BeforeStep(t *testing.T) {
	setup := build(t, "sleep-wake")
	box := setup.Tracked[0]
	setup.Run(300, timeStep)
	assert.Greater(t, box.CenterOfMassPosition().X(), 0.01, "the nudge moved the box")
}

func TestHingeScenario(t *testing.T) {
	setup := build(t, "hinge")
	arm := setup.Tracked[0]
	require.Len(t, setup.World.Constraints(), 1)
	hinge := setup.World.Constraints()[0].Class.(*HingeConstraint)

	setup.Run(300, timeStep)
	angle := math.Abs(hinge.HingeAngle())
	assert.Greater(t, angle, 0.3, "the arm swung")
	assert.LessOrEqual(t, angle, math.Pi/4+0.15)
	assert.Equal(t, DISABLE_DEACTIVATION, arm.ActivationState())
}

func TestPile(t *testing.T) {
	setup := build(t, "pile")
	require.Len(t, setup.Tracked, 40)
	setup.Run(240, timeStep)
	for i, body := range setup.Tracked {
		p := body.CenterOfMassPosition()
		require.True(t, p.IsFinite(), "body %d", i)
		assert.Greater(t, p.Y(), GroundHalfExtents.Y(), "body %d fell through the ground", i)
	}
	assert.Zero(t, setup.World.Dispatcher().StaticPairsRejected())
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.Iterations = 0
	_, err := RestingBox(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
