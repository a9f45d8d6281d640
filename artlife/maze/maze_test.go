package maze

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/artlife-go/artlife"
)

func testConfig() artlife.MazeConfig {
	return artlife.MazeConfig{
		NumRays:         3,
		FOVDegrees:      90,
		MaxDepth:        4,
		Speed:           0.5,
		TurnRate:        0.1,
		CollisionRadius: 0.2,
	}
}

func TestNewMapValidation(t *testing.T) {
	_, err := NewMap("empty", nil)
	assert.Error(t, err)

	_, err = NewMap("ragged", []string{"111", "1S", "121"})
	assert.ErrorContains(t, err, "row 1")

	_, err = NewMap("nostart", []string{"111", "121", "111"})
	assert.ErrorContains(t, err, "no start")

	_, err = NewMap("twostarts", []string{"1111", "1SS1", "1211"})
	assert.ErrorContains(t, err, "second start")

	_, err = NewMap("nofinish", []string{"111", "1S1", "111"})
	assert.ErrorContains(t, err, "no finish")

	_, err = NewMap("badtile", []string{"111", "1Sx", "121"})
	assert.ErrorContains(t, err, "unknown tile")

	m, err := NewMap("ok", []string{"1111", "1S21", "1111"})
	require.NoError(t, err)
	assert.Equal(t, 1, m.StartX)
	assert.Equal(t, 1, m.StartY)
	assert.Equal(t, 4, m.Width())
	assert.Equal(t, 3, m.Height())
	assert.Equal(t, Wall, m.At(-1, 0))
	assert.Equal(t, Wall, m.At(0, 10))
	assert.Equal(t, Finish, m.At(2, 1))
}

func TestLoadMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.yaml")
	doc := "name: tiny\nrows:\n  - \"111\"\n  - \"121\"\n  - \"1S1\"\n  - \"111\"\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	m, err := LoadMap(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", m.Name)
	assert.Equal(t, 1, m.StartX)
	assert.Equal(t, 2, m.StartY)

	_, err = LoadMap(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultMap(t *testing.T) {
	m := DefaultMap()
	assert.Equal(t, "level0", m.Name)
	assert.Equal(t, Start, m.At(m.StartX, m.StartY))
}

func TestCastRay(t *testing.T) {
	m, err := NewMap("room", []string{
		"11111",
		"1...1",
		"1.S.1",
		"11211",
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.5, m.CastRay(2.5, 2.5, -math.Pi/2, 10), 1e-9, "up")
	assert.InDelta(t, 1.5, m.CastRay(2.5, 2.5, 0, 10), 1e-9, "right")
	assert.InDelta(t, 1.5, m.CastRay(2.5, 2.5, math.Pi, 10), 1e-9, "left")
	// Finish tiles do not stop rays.
	assert.InDelta(t, 1.5, m.CastRay(2.5, 2.5, math.Pi/2, 10), 1e-9, "down")
	assert.InDelta(t, 1.0, m.CastRay(2.5, 2.5, -math.Pi/2, 1), 1e-9, "depth limit")
}

func TestWorldResetAndSense(t *testing.T) {
	m, err := NewMap("room", []string{
		"11111",
		"1...1",
		"1.S.1",
		"11211",
	})
	require.NoError(t, err)
	w, err := NewWorld(m, testConfig())
	require.NoError(t, err)

	require.Error(t, w.Reset(0))
	require.NoError(t, w.Reset(2))
	require.Len(t, w.Agents, 2)
	assert.Equal(t, 2.5, w.Agents[0].X)
	assert.Equal(t, 2.5, w.Agents[0].Y)

	sensors := w.Sense(0)
	require.Len(t, sensors, 3)
	// Middle ray looks straight up: 1.5 tiles of a 4 tile depth.
	assert.InDelta(t, 1.5/4, sensors[1], 1e-9)
	for _, s := range sensors {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestWorldAgentCrashes(t *testing.T) {
	m, err := NewMap("room", []string{
		"11111",
		"1...1",
		"1.S.1",
		"11211",
	})
	require.NoError(t, err)
	w, err := NewWorld(m, testConfig())
	require.NoError(t, err)
	require.NoError(t, w.Reset(1))

	for i := 0; i < 3; i++ {
		w.Step(0, []float64{0, 0, 1})
	}
	res := w.Results()
	assert.Equal(t, artlife.Dead, res[0].Status)
	assert.InDelta(t, 1.5, res[0].Reward, 1e-9)

	// Dead agents stay put.
	w.Step(0, []float64{0, 0, 1})
	assert.InDelta(t, 1.5, w.Results()[0].Reward, 1e-9)
}

func TestWorldAgentReachesFinish(t *testing.T) {
	m, err := NewMap("corridor", []string{
		"111",
		"121",
		"1.1",
		"1S1",
		"111",
	})
	require.NoError(t, err)
	w, err := NewWorld(m, testConfig())
	require.NoError(t, err)
	require.NoError(t, w.Reset(1))

	for i := 0; i < 4; i++ {
		w.Step(0, []float64{0, 0, 1})
	}
	res := w.Results()
	assert.Equal(t, artlife.ReachedGoal, res[0].Status)
	assert.InDelta(t, 2.0, res[0].Reward, 1e-9)
}

func TestWorldTurning(t *testing.T) {
	w, err := NewWorld(DefaultMap(), testConfig())
	require.NoError(t, err)
	require.NoError(t, w.Reset(1))

	w.Step(0, []float64{1, 0, 0})
	assert.InDelta(t, -math.Pi/2-0.1, w.Agents[0].Angle, 1e-9)
	w.Step(0, []float64{0, 1})
	assert.InDelta(t, -math.Pi/2, w.Agents[0].Angle, 1e-9)
	assert.Equal(t, 0.0, w.Agents[0].Reward)
	assert.Equal(t, artlife.Alive, w.Agents[0].Status)
}
