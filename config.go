package bullet

import (
	"fmt"
	"math"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config describes a world. Zero values are not defaults, start from
// DefaultConfig and override.
type Config struct {
	Gravity       Vector  `yaml:"gravity"`
	FixedTimeStep float64 `yaml:"fixed_time_step"`
	MaxSubSteps   int     `yaml:"max_sub_steps"`

	Solver     SolverConfig     `yaml:"solver"`
	Broadphase BroadphaseConfig `yaml:"broadphase"`
	Collision  CollisionConfig  `yaml:"collision"`
	Sleeping   SleepingConfig   `yaml:"sleeping"`

	AabbExplosionThreshold float64 `yaml:"aabb_explosion_threshold"`
	ParallelIslands        bool    `yaml:"parallel_islands"`

	Log LogConfig `yaml:"log"`
}

type SolverConfig struct {
	Iterations           int     `yaml:"iterations"`
	Erp                  float64 `yaml:"erp"`
	WarmStartingFactor   float64 `yaml:"warm_starting_factor"`
	LinearSlop           float64 `yaml:"linear_slop"`
	RestitutionThreshold float64 `yaml:"restitution_threshold"`
	RandomizeOrder       bool    `yaml:"randomize_order"`
	ResidualThreshold    float64 `yaml:"residual_threshold"`

	FrictionCombine    CombineMode `yaml:"friction_combine"`
	RestitutionCombine CombineMode `yaml:"restitution_combine"`
}

// Broadphase types
const (
	BROADPHASE_AXIS_SWEEP = "axis_sweep"
	BROADPHASE_SIMPLE     = "simple"
)

type BroadphaseConfig struct {
	Type             string `yaml:"type"`
	WorldMin         Vector `yaml:"world_min"`
	WorldMax         Vector `yaml:"world_max"`
	MaxHandles       int    `yaml:"max_handles"`
	QuantizationBits uint   `yaml:"quantization_bits"`
}

type CollisionConfig struct {
	ContactBreakingThreshold float64 `yaml:"contact_breaking_threshold"`
	MultipointIterations     int     `yaml:"multipoint_iterations"`
	MultipointThreshold      int     `yaml:"multipoint_threshold"`
	SplitIslands             bool    `yaml:"split_islands"`
}

type SleepingConfig struct {
	Enabled          bool    `yaml:"enabled"`
	LinearThreshold  float64 `yaml:"linear_threshold"`
	AngularThreshold float64 `yaml:"angular_threshold"`
	DeactivationTime float64 `yaml:"deactivation_time"`
}

func DefaultConfig() Config {
	info := DefaultSolverInfo()
	return Config{
		Gravity:       Vector{0, -10, 0},
		FixedTimeStep: 1.0 / 60.0,
		MaxSubSteps:   1,
		Solver: SolverConfig{
			Iterations:           info.Iterations,
			Erp:                  info.Erp,
			WarmStartingFactor:   info.WarmStartingFactor,
			LinearSlop:           info.LinearSlop,
			RestitutionThreshold: info.RestitutionThreshold,
			FrictionCombine:      COMBINE_MULTIPLY,
			RestitutionCombine:   COMBINE_MULTIPLY,
		},
		Broadphase: BroadphaseConfig{
			Type:             BROADPHASE_AXIS_SWEEP,
			WorldMin:         Vector{-1000, -1000, -1000},
			WorldMax:         Vector{1000, 1000, 1000},
			MaxHandles:       16384,
			QuantizationBits: AXIS_SWEEP_DEFAULT_BITS,
		},
		Collision: CollisionConfig{
			ContactBreakingThreshold: CONTACT_BREAKING_THRESHOLD,
			MultipointIterations:     3,
			MultipointThreshold:      3,
			SplitIslands:             true,
		},
		Sleeping: SleepingConfig{
			Enabled:          true,
			LinearThreshold:  DEFAULT_LINEAR_SLEEPING_THRESHOLD,
			AngularThreshold: DEFAULT_ANGULAR_SLEEPING_THRESHOLD,
			DeactivationTime: DEFAULT_DEACTIVATION_TIME,
		},
		AabbExplosionThreshold: DEFAULT_AABB_EXPLOSION_THRESHOLD,
		Log:                    DefaultLogConfig(),
	}
}

// LoadConfig reads a yaml file over the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes yaml over the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func finitePositive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}

// Validate reports every problem of the config at once.
func (c Config) Validate() error {
	var err error
	if !c.Gravity.IsFinite() {
		err = multierr.Append(err, invalid("gravity %v", c.Gravity))
	}
	if !finitePositive(c.FixedTimeStep) {
		err = multierr.Append(err, invalid("fixed_time_step %v must be positive", c.FixedTimeStep))
	}
	if c.MaxSubSteps < 0 {
		err = multierr.Append(err, invalid("max_sub_steps %v must not be negative", c.MaxSubSteps))
	}

	s := c.Solver
	if s.Iterations < 1 {
		err = multierr.Append(err, invalid("solver.iterations %v must be at least 1", s.Iterations))
	}
	if s.Erp < 0 || s.Erp > 1 {
		err = multierr.Append(err, invalid("solver.erp %v must be in [0, 1]", s.Erp))
	}
	if s.WarmStartingFactor < 0 || s.WarmStartingFactor > 1 {
		err = multierr.Append(err, invalid("solver.warm_starting_factor %v must be in [0, 1]", s.WarmStartingFactor))
	}
	if s.LinearSlop < 0 {
		err = multierr.Append(err, invalid("solver.linear_slop %v must not be negative", s.LinearSlop))
	}
	if s.RestitutionThreshold < 0 {
		err = multierr.Append(err, invalid("solver.restitution_threshold %v must not be negative", s.RestitutionThreshold))
	}
	if !s.FrictionCombine.Valid() {
		err = multierr.Append(err, invalid("solver.friction_combine %q", s.FrictionCombine))
	}
	if !s.RestitutionCombine.Valid() {
		err = multierr.Append(err, invalid("solver.restitution_combine %q", s.RestitutionCombine))
	}

	b := c.Broadphase
	switch b.Type {
	case BROADPHASE_AXIS_SWEEP:
		if !b.WorldMin.IsFinite() || !b.WorldMax.IsFinite() ||
			b.WorldMin.X() >= b.WorldMax.X() || b.WorldMin.Y() >= b.WorldMax.Y() || b.WorldMin.Z() >= b.WorldMax.Z() {
			err = multierr.Append(err, invalid("broadphase world bounds %v %v", b.WorldMin, b.WorldMax))
		}
		if b.MaxHandles < 1 {
			err = multierr.Append(err, invalid("broadphase.max_handles %v must be at least 1", b.MaxHandles))
		}
		if b.QuantizationBits < 2 || b.QuantizationBits > 32 {
			err = multierr.Append(err, invalid("broadphase.quantization_bits %v must be in [2, 32]", b.QuantizationBits))
		}
	case BROADPHASE_SIMPLE:
	default:
		err = multierr.Append(err, invalid("broadphase.type %q", b.Type))
	}

	if !finitePositive(c.Collision.ContactBreakingThreshold) {
		err = multierr.Append(err, invalid("collision.contact_breaking_threshold %v must be positive", c.Collision.ContactBreakingThreshold))
	}
	if c.Collision.MultipointIterations < 0 || c.Collision.MultipointThreshold < 0 {
		err = multierr.Append(err, invalid("collision multipoint settings must not be negative"))
	}

	if c.Sleeping.LinearThreshold < 0 || c.Sleeping.AngularThreshold < 0 || c.Sleeping.DeactivationTime < 0 {
		err = multierr.Append(err, invalid("sleeping thresholds must not be negative"))
	}
	if !finitePositive(c.AabbExplosionThreshold) {
		err = multierr.Append(err, invalid("aabb_explosion_threshold %v must be positive", c.AabbExplosionThreshold))
	}
	if _, lerr := c.Log.zapLevel(); lerr != nil {
		err = multierr.Append(err, lerr)
	}
	return err
}

// SolverInfo returns the solver parameters of the config.
func (c Config) SolverInfo() SolverInfo {
	return SolverInfo{
		TimeStep:             c.FixedTimeStep,
		Iterations:           c.Solver.Iterations,
		Erp:                  c.Solver.Erp,
		WarmStartingFactor:   c.Solver.WarmStartingFactor,
		LinearSlop:           c.Solver.LinearSlop,
		RestitutionThreshold: c.Solver.RestitutionThreshold,
		RandomizeOrder:       c.Solver.RandomizeOrder,
		ResidualThreshold:    c.Solver.ResidualThreshold,
	}
}

// RigidBodyInfo is NewRigidBodyConstructionInfo with the sleeping
// thresholds of the config.
func (c Config) RigidBodyInfo(mass float64, motionState MotionState, shape CollisionShape, localInertia Vector) RigidBodyConstructionInfo {
	info := NewRigidBodyConstructionInfo(mass, motionState, shape, localInertia)
	info.LinearSleepingThreshold = c.Sleeping.LinearThreshold
	info.AngularSleepingThreshold = c.Sleeping.AngularThreshold
	return info
}

// NewWorld validates cfg and builds a world from it.
func NewWorld(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	var broadphase Broadphase
	pairCache := NewHashedOverlappingPairCache()
	switch cfg.Broadphase.Type {
	case BROADPHASE_SIMPLE:
		broadphase = NewSimpleBroadphase(pairCache)
	default:
		bounds := NewBB(cfg.Broadphase.WorldMin, cfg.Broadphase.WorldMax)
		broadphase = NewAxisSweep3Bits(bounds, cfg.Broadphase.MaxHandles, cfg.Broadphase.QuantizationBits, pairCache)
	}

	dispatcher := NewCollisionDispatcher(logger)
	dispatcher.SetContactBreakingThreshold(cfg.Collision.ContactBreakingThreshold)
	dispatcher.SetConvexConvexMultipointIterations(cfg.Collision.MultipointIterations, cfg.Collision.MultipointThreshold)
	dispatcher.SetCombineModes(cfg.Solver.FrictionCombine, cfg.Solver.RestitutionCombine)

	world := NewDynamicsWorld(broadphase, dispatcher, nil)
	world.SetLogger(logger)
	world.SetGravity(cfg.Gravity)
	world.solverInfo = cfg.SolverInfo()
	world.islands.SplitIslands = cfg.Collision.SplitIslands
	world.AabbExplosionThreshold = cfg.AabbExplosionThreshold
	world.ParallelIslands = cfg.ParallelIslands
	world.FixedTimeStep = cfg.FixedTimeStep
	world.MaxSubSteps = cfg.MaxSubSteps
	world.DeactivationTime = 0
	if cfg.Sleeping.Enabled {
		world.DeactivationTime = cfg.Sleeping.DeactivationTime
	}
	return world, nil
}

// NewDefaultWorld builds a world from DefaultConfig, logging nothing.
func NewDefaultWorld() *World {
	cfg := DefaultConfig()
	bounds := NewBB(cfg.Broadphase.WorldMin, cfg.Broadphase.WorldMax)
	world := NewDynamicsWorld(NewAxisSweep3(bounds, cfg.Broadphase.MaxHandles), nil, nil)
	world.SetGravity(cfg.Gravity)
	world.solverInfo = cfg.SolverInfo()
	return world
}
