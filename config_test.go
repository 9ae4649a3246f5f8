package bullet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Vector{0, -10, 0}, cfg.Gravity)
	assert.Equal(t, DEFAULT_DEACTIVATION_TIME, cfg.Sleeping.DeactivationTime)
	assert.Equal(t, DEFAULT_AABB_EXPLOSION_THRESHOLD, cfg.AabbExplosionThreshold)
	assert.Equal(t, DefaultSolverInfo().Iterations, cfg.SolverInfo().Iterations)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
gravity: [0, -9.81, 0]
solver:
  iterations: 20
  randomize_order: true
broadphase:
  type: simple
sleeping:
  enabled: false
log:
  level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, Vector{0, -9.81, 0}, cfg.Gravity)
	assert.Equal(t, 20, cfg.Solver.Iterations)
	assert.True(t, cfg.Solver.RandomizeOrder)
	assert.Equal(t, BROADPHASE_SIMPLE, cfg.Broadphase.Type)
	assert.False(t, cfg.Sleeping.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)

	// untouched keys keep their defaults
	def := DefaultConfig()
	assert.Equal(t, def.FixedTimeStep, cfg.FixedTimeStep)
	assert.Equal(t, def.Solver.Erp, cfg.Solver.Erp)
	assert.Equal(t, def.Collision, cfg.Collision)

	_, err = ParseConfig([]byte("solver: [1, 2"))
	assert.ErrorContains(t, err, "parse config")

	_, err = ParseConfig([]byte("solver:\n  iterations: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_ValidateAggregates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.Iterations = 0
	cfg.Solver.Erp = 2
	cfg.Broadphase.Type = "octree"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.ErrorContains(t, err, "solver.iterations")
	assert.ErrorContains(t, err, `broadphase.type "octree"`)

	cfg = DefaultConfig()
	cfg.Broadphase.WorldMin = Vector{0, 0, 0}
	cfg.Broadphase.WorldMax = Vector{10, 0, 10}
	cfg.FixedTimeStep = 0
	assert.Len(t, multierr.Errors(cfg.Validate()), 2)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_sub_steps: 4\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxSubSteps)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewWorld(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = Vector{0, -1, 0}
	cfg.Broadphase.Type = BROADPHASE_SIMPLE
	cfg.Solver.Iterations = 7
	cfg.Sleeping.Enabled = false
	cfg.Collision.SplitIslands = false

	w, err := NewWorld(cfg)
	require.NoError(t, err)
	assert.Equal(t, Vector{0, -1, 0}, w.Gravity())
	assert.IsType(t, &SimpleBroadphase{}, w.Broadphase())
	assert.Equal(t, 7, w.SolverInfo().Iterations)
	assert.Zero(t, w.DeactivationTime)
	assert.False(t, w.IslandManager().SplitIslands)
	assert.NotNil(t, w.Logger())

	cfg = DefaultConfig()
	w, err = NewWorld(cfg)
	require.NoError(t, err)
	assert.IsType(t, &AxisSweep3{}, w.Broadphase())
	assert.Equal(t, DEFAULT_DEACTIVATION_TIME, w.DeactivationTime)

	cfg.Log.Encoding = "xml"
	_, err = NewWorld(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.MaxSubSteps = -1
	w, err = NewWorld(cfg)
	assert.Nil(t, w)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_RigidBodyInfo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sleeping.LinearThreshold = 0.1
	cfg.Sleeping.AngularThreshold = 0.2
	shape := NewSphereShape(1)
	info := cfg.RigidBodyInfo(2, nil, shape, shape.CalculateLocalInertia(2))

	body, err := NewRigidBody(info)
	require.NoError(t, err)
	assert.Equal(t, 0.1, body.LinearSleepingThreshold())
	assert.Equal(t, 0.2, body.AngularSleepingThreshold())
	assert.Equal(t, 2.0, body.Mass())
}

func TestCombineMode(t *testing.T) {
	for _, tc := range []struct {
		mode CombineMode
		want float64
	}{
		{"", 0.12},
		{COMBINE_MULTIPLY, 0.12},
		{COMBINE_AVERAGE, 0.4},
		{COMBINE_MIN, 0.2},
		{COMBINE_MAX, 0.6},
	} {
		assert.True(t, tc.mode.Valid(), "%q", tc.mode)
		assert.InDelta(t, tc.want, tc.mode.Combine(0.6, 0.2), 1e-12, "%q", tc.mode)
	}
	assert.False(t, CombineMode("median").Valid())
}

func TestConfig_CombineModes(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
solver:
  friction_combine: min
  restitution_combine: average
`))
	require.NoError(t, err)
	assert.Equal(t, COMBINE_MIN, cfg.Solver.FrictionCombine)
	assert.Equal(t, COMBINE_AVERAGE, cfg.Solver.RestitutionCombine)

	w, err := NewWorld(cfg)
	require.NoError(t, err)
	ground := newTestBox(t, 0, Vector{5, 0.5, 5}, Vector{})
	box := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{0, 0.99, 0})
	ground.SetFriction(0.2)
	box.SetFriction(0.8)
	ground.SetRestitution(0.4)
	box.SetRestitution(0.1)
	require.NoError(t, w.AddRigidBody(ground))
	require.NoError(t, w.AddRigidBody(box))

	stepN(w, 1)
	require.Equal(t, 1, w.NumManifolds())
	m := w.Dispatcher().Manifolds()[0]
	require.Positive(t, m.NumContacts())
	for i := 0; i < m.NumContacts(); i++ {
		assert.InDelta(t, 0.2, m.Point(i).CombinedFriction, 1e-12)
		assert.InDelta(t, 0.25, m.Point(i).CombinedRestitution, 1e-12)
	}

	_, err = ParseConfig([]byte("solver:\n  friction_combine: median\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, "solver.friction_combine")
}
