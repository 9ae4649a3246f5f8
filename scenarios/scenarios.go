// Package scenarios builds small canned worlds used by bulletbench and the
// world tests.
package scenarios

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	. "github.com/jakecoffman/bullet"
)

// GroundHalfExtents sizes the 20x1x20 static ground box. It is centered at the
// origin with its top face at y=0.5.
var GroundHalfExtents = Vector{10, 0.5, 10}

// Setup is a built scenario.
type Setup struct {
	World *World
	// bodies reported by the runner
	Tracked []*RigidBody
	// called before every step when set
	BeforeStep func(setup *Setup, step int)
}

// Scenario builds a Setup from a config.
type Scenario struct {
	Name        string
	Description string
	Steps       int
	Build       func(cfg Config) (*Setup, error)
}

var registry = map[string]Scenario{}

func register(s Scenario) {
	if _, ok := registry[s.Name]; ok {
		panic("scenario registered twice: " + s.Name)
	}
	registry[s.Name] = s
}

// Lookup finds a scenario by name.
func Lookup(name string) (Scenario, error) {
	s, ok := registry[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario %q", name)
	}
	return s, nil
}

// All returns every scenario sorted by name.
func All() []Scenario {
	all := make([]Scenario, 0, len(registry))
	for _, s := range registry {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})
	return all
}

// AddGround adds the static ground box to world.
func AddGround(world *World) (*RigidBody, error) {
	return AddBox(world, Config{}, 0, GroundHalfExtents, Vector{})
}

// AddBox adds a box body with its center at origin. Mass 0 makes it static.
func AddBox(world *World, cfg Config, mass float64, halfExtents, origin Vector) (*RigidBody, error) {
	shape := NewBoxShape(halfExtents)
	return addBody(world, cfg, mass, shape, NewTransformTranslate(origin))
}

func addBody(world *World, cfg Config, mass float64, shape CollisionShape, start Transform) (*RigidBody, error) {
	var inertia Vector
	if mass > 0 {
		inertia = shape.CalculateLocalInertia(mass)
	}
	ms := NewDefaultMotionState(start)
	info := NewRigidBodyConstructionInfo(mass, ms, shape, inertia)
	if cfg.Sleeping.LinearThreshold > 0 || cfg.Sleeping.AngularThreshold > 0 {
		info = cfg.RigidBodyInfo(mass, ms, shape, inertia)
	}
	body, err := NewRigidBody(info)
	if err != nil {
		return nil, err
	}
	if err := world.AddRigidBody(body); err != nil {
		return nil, err
	}
	return body, nil
}

func init() {
	register(Scenario{
		Name:        "resting-box",
		Description: "a unit box dropped from y=2 onto the ground",
		Steps:       120,
		Build:       RestingBox,
	})
	register(Scenario{
		Name:        "stack",
		Description: "two unit boxes stacked on the ground",
		Steps:       500,
		Build:       Stack,
	})
	register(Scenario{
		Name:        "sleep-wake",
		Description: "a resting box falls asleep and is nudged awake",
		Steps:       300,
		Build:       SleepWake,
	})
	register(Scenario{
		Name:        "hinge",
		Description: "a box swinging on a limited hinge",
		Steps:       300,
		Build:       Hinge,
	})
	register(Scenario{
		Name:        "pile",
		Description: "boxes and capsules dropped in a pile",
		Steps:       600,
		Build:       Pile,
	})
}

func newSetup(cfg Config) (*Setup, error) {
	world, err := NewWorld(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := AddGround(world); err != nil {
		return nil, err
	}
	return &Setup{World: world}, nil
}

func RestingBox(cfg Config) (*Setup, error) {
	setup, err := newSetup(cfg)
	if err != nil {
		return nil, err
	}
	box, err := AddBox(setup.World, cfg, 1, Vector{0.5, 0.5, 0.5}, Vector{0, 2, 0})
	if err != nil {
		return nil, err
	}
	setup.Tracked = append(setup.Tracked, box)
	return setup, nil
}

func Stack(cfg Config) (*Setup, error) {
	setup, err := newSetup(cfg)
	if err != nil {
		return nil, err
	}
	top := GroundHalfExtents.Y()
	for i := 0; i < 2; i++ {
		box, err := AddBox(setup.World, cfg, 1, Vector{0.5, 0.5, 0.5}, Vector{0, top + 0.5 + float64(i), 0})
		if err != nil {
			return nil, err
		}
		setup.Tracked = append(setup.Tracked, box)
	}
	return setup, nil
}

// SleepWake nudges the box once it is asleep.
func SleepWake(cfg Config) (*Setup, error) {
	setup, err := newSetup(cfg)
	if err != nil {
		return nil, err
	}
	box, err := AddBox(setup.World, cfg, 1, Vector{0.5, 0.5, 0.5}, Vector{0, GroundHalfExtents.Y() + 0.5, 0})
	if err != nil {
		return nil, err
	}
	setup.Tracked = append(setup.Tracked, box)

	nudged := false
	setup.BeforeStep = func(setup *Setup, step int) {
		if !nudged && box.ActivationState() == ISLAND_SLEEPING {
			box.Activate(false)
			box.ApplyCentralImpulse(Vector{1, 0, 0})
			nudged = true
		}
	}
	return setup, nil
}

// Hinge hangs a box from a static anchor on a hinge limited to 45 degrees either way.
func Hinge(cfg Config) (*Setup, error) {
	setup, err := newSetup(cfg)
	if err != nil {
		return nil, err
	}
	world := setup.World
	anchor, err := AddBox(world, cfg, 0, Vector{0.1, 0.1, 0.1}, Vector{0, 4, 0})
	if err != nil {
		return nil, err
	}
	arm, err := AddBox(world, cfg, 1, Vector{1, 0.1, 0.1}, Vector{1.2, 4, 0})
	if err != nil {
		return nil, err
	}
	arm.ForceActivationState(DISABLE_DEACTIVATION)

	hinge := NewHingeConstraint(anchor, arm, Vector{0, 0, 0}, Vector{-1.2, 0, 0}, Vector{0, 0, 1}, Vector{0, 0, 1})
	hinge.SetLimit(-math.Pi/4, math.Pi/4)
	if err := world.AddConstraint(hinge.Constraint, true); err != nil {
		return nil, err
	}
	setup.Tracked = append(setup.Tracked, arm)
	return setup, nil
}

// Pile drops a seeded random mix of boxes and capsules.
func Pile(cfg Config) (*Setup, error) {
	setup, err := newSetup(cfg)
	if err != nil {
		return nil, err
	}
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 40; i++ {
		origin := Vector{r.Float64()*6 - 3, 2 + float64(i)*0.6, r.Float64()*6 - 3}
		rotation := QuaternionAxisAngle(Vector{r.Float64(), r.Float64(), r.Float64()}.SafeNormalize(), r.Float64()*math.Pi)
		var shape CollisionShape
		if i%3 == 0 {
			shape = NewCapsuleShape(0.25, 0.6)
		} else {
			shape = NewBoxShape(Vector{0.3 + 0.2*r.Float64(), 0.3, 0.3 + 0.2*r.Float64()})
		}
		body, err := addBody(setup.World, cfg, 1, shape, NewTransform(rotation, origin))
		if err != nil {
			return nil, err
		}
		setup.Tracked = append(setup.Tracked, body)
	}
	return setup, nil
}

// Run steps setup at the fixed time step of the world.
func (setup *Setup) Run(steps int, timeStep float64) {
	for i := 0; i < steps; i++ {
		if setup.BeforeStep != nil {
			setup.BeforeStep(setup, i)
		}
		setup.World.StepSimulation(timeStep, 1, timeStep)
	}
}
