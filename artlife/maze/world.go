package maze

import (
	"fmt"
	"math"

	"github.com/baldhumanity/artlife-go/artlife"
)

// Action indices of a controller's output vector.
const (
	TurnLeft = iota
	TurnRight
	Throttle
)

// Agent is the body of one controller.
type Agent struct {
	X, Y   float64 // position in tiles
	Angle  float64 // heading in radians
	Reward float64 // distance travelled this epoch
	Status artlife.Status
}

// World runs every agent of a population on the same map. It implements
// artlife.Environment; agents do not collide with each other.
type World struct {
	Map    *Map
	Config artlife.MazeConfig
	Agents []Agent
}

var _ artlife.Environment = (*World)(nil)

// NewWorld creates a world over m.
func NewWorld(m *Map, cfg artlife.MazeConfig) (*World, error) {
	if m == nil {
		return nil, fmt.Errorf("world needs a map")
	}
	if cfg.NumRays <= 0 {
		return nil, fmt.Errorf("num_rays must be positive, got %d", cfg.NumRays)
	}
	if cfg.MaxDepth <= 0 {
		return nil, fmt.Errorf("max_depth must be positive")
	}
	return &World{Map: m, Config: cfg}, nil
}

// Reset places n agents on the start tile, facing up.
func (w *World) Reset(n int) error {
	if n <= 0 {
		return fmt.Errorf("cannot reset world with %d agents", n)
	}
	w.Agents = make([]Agent, n)
	for i := range w.Agents {
		w.Agents[i] = Agent{
			X:      float64(w.Map.StartX) + 0.5,
			Y:      float64(w.Map.StartY) + 0.5,
			Angle:  -math.Pi / 2,
			Status: artlife.Alive,
		}
	}
	return nil
}

// Sense casts num_rays rays spread evenly across the field of view and returns
// each distance divided by max_depth.
func (w *World) Sense(i int) []float64 {
	a := &w.Agents[i]
	n := w.Config.NumRays
	fov := w.Config.FOVDegrees * math.Pi / 180
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		angle := a.Angle
		if n > 1 {
			angle = a.Angle - fov/2 + fov*float64(k)/float64(n-1)
		}
		out[k] = w.Map.CastRay(a.X, a.Y, angle, w.Config.MaxDepth) / w.Config.MaxDepth
	}
	return out
}

// Step turns the agent by the difference of its turn outputs, moves it forward
// by its throttle and updates its status. Terminal agents do not move.
func (w *World) Step(i int, action []float64) {
	a := &w.Agents[i]
	if a.Status.Terminal() {
		return
	}
	a.Angle += (output(action, TurnRight) - output(action, TurnLeft)) * w.Config.TurnRate
	dist := clamp(output(action, Throttle), 0, 1) * w.Config.Speed
	a.X += math.Cos(a.Angle) * dist
	a.Y += math.Sin(a.Angle) * dist
	a.Reward += dist

	switch {
	case w.touchesWall(a.X, a.Y):
		a.Status = artlife.Dead
	case w.Map.At(int(math.Floor(a.X)), int(math.Floor(a.Y))) == Finish:
		a.Status = artlife.ReachedGoal
	}
}

// Results reports every agent's reward and status.
func (w *World) Results() []artlife.FitnessResult {
	out := make([]artlife.FitnessResult, len(w.Agents))
	for i, a := range w.Agents {
		out[i] = artlife.FitnessResult{Reward: a.Reward, Status: a.Status}
	}
	return out
}

// touchesWall checks the corners of the agent's collision box.
func (w *World) touchesWall(x, y float64) bool {
	r := w.Config.CollisionRadius
	for _, p := range [4][2]float64{{x - r, y - r}, {x + r, y - r}, {x - r, y + r}, {x + r, y + r}} {
		if w.Map.At(int(math.Floor(p[0])), int(math.Floor(p[1]))) == Wall {
			return true
		}
	}
	return false
}

func output(action []float64, idx int) float64 {
	if idx < len(action) {
		return action[idx]
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
