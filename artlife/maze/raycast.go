package maze

import "math"

// CastRay returns the distance, in tiles, from (x, y) along angle to the first
// wall, or maxDepth if no wall is closer. Angles are radians with 0 pointing
// along +x and -pi/2 pointing up the map.
func (m *Map) CastRay(x, y, angle, maxDepth float64) float64 {
	dx, dy := math.Cos(angle), math.Sin(angle)
	col, row := int(math.Floor(x)), int(math.Floor(y))

	// Grid traversal: advance to whichever cell boundary the ray crosses next.
	stepX, sideX, deltaX := rayAxis(x, col, dx)
	stepY, sideY, deltaY := rayAxis(y, row, dy)
	for {
		var dist float64
		if sideX < sideY {
			dist = sideX
			sideX += deltaX
			col += stepX
		} else {
			dist = sideY
			sideY += deltaY
			row += stepY
		}
		if dist >= maxDepth {
			return maxDepth
		}
		if m.At(col, row) == Wall {
			return dist
		}
	}
}

// rayAxis returns the cell step, the distance to the first boundary and the
// distance between boundaries along one axis.
func rayAxis(pos float64, cell int, dir float64) (int, float64, float64) {
	if dir == 0 {
		return 0, math.Inf(1), math.Inf(1)
	}
	delta := math.Abs(1 / dir)
	if dir < 0 {
		return -1, (pos - float64(cell)) * delta, delta
	}
	return 1, (float64(cell) + 1 - pos) * delta, delta
}
