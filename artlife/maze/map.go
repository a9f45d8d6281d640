// Package maze is the tile-map world the evolved controllers drive through.
// Agents see the walls through distance rays, steer with two turn outputs and
// a throttle, and are scored by the distance they cover before they crash or
// reach a finish tile.
package maze

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tile is one map cell.
type Tile byte

const (
	Road   Tile = '.'
	Wall   Tile = '1'
	Finish Tile = '2'
	Start  Tile = 'S'
)

// Map is a rectangular tile grid with exactly one start tile.
type Map struct {
	Name   string
	Tiles  [][]Tile // indexed [row][col]
	StartX int      // column of the start tile
	StartY int      // row of the start tile
}

type mapFile struct {
	Name string   `yaml:"name"`
	Rows []string `yaml:"rows"`
}

//go:embed maps/level0.yaml
var level0 []byte

// DefaultMap returns the built-in level used when no map file is configured.
func DefaultMap() *Map {
	m, err := ParseMap(level0)
	if err != nil {
		panic(fmt.Sprintf("built-in map is invalid: %v", err))
	}
	return m
}

// LoadMap reads a YAML map file.
func LoadMap(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file '%s': %w", path, err)
	}
	m, err := ParseMap(data)
	if err != nil {
		return nil, fmt.Errorf("map file '%s': %w", path, err)
	}
	return m, nil
}

// ParseMap decodes a YAML document of the form
//
//	name: level0
//	rows:
//	  - "11111"
//	  - "1S..1"
func ParseMap(data []byte) (*Map, error) {
	var f mapFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse map: %w", err)
	}
	return NewMap(f.Name, f.Rows)
}

// NewMap builds a map from text rows.
func NewMap(name string, rows []string) (*Map, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("map has no tiles")
	}
	m := &Map{Name: name, Tiles: make([][]Tile, len(rows)), StartX: -1, StartY: -1}
	finishes := 0
	for y, row := range rows {
		if len(row) != len(rows[0]) {
			return nil, fmt.Errorf("row %d has %d tiles, expected %d", y, len(row), len(rows[0]))
		}
		m.Tiles[y] = make([]Tile, len(row))
		for x := 0; x < len(row); x++ {
			t := Tile(row[x])
			switch t {
			case Road, Wall:
			case Finish:
				finishes++
			case Start:
				if m.StartX >= 0 {
					return nil, fmt.Errorf("second start tile at row %d col %d", y, x)
				}
				m.StartX, m.StartY = x, y
			default:
				return nil, fmt.Errorf("unknown tile %q at row %d col %d", row[x], y, x)
			}
			m.Tiles[y][x] = t
		}
	}
	if m.StartX < 0 {
		return nil, fmt.Errorf("map has no start tile")
	}
	if finishes == 0 {
		return nil, fmt.Errorf("map has no finish tile")
	}
	return m, nil
}

// Width is the number of columns.
func (m *Map) Width() int { return len(m.Tiles[0]) }

// Height is the number of rows.
func (m *Map) Height() int { return len(m.Tiles) }

// At returns the tile at column x, row y. Everything outside the grid is wall.
func (m *Map) At(x, y int) Tile {
	if y < 0 || y >= len(m.Tiles) || x < 0 || x >= len(m.Tiles[y]) {
		return Wall
	}
	return m.Tiles[y][x]
}
