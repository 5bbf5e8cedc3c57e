package points

import "math"

// spatialGrid buckets point indices into square cells for neighbour checks.
type spatialGrid struct {
	cell  float64
	cols  int
	rows  int
	cells [][]int
}

func newSpatialGrid(b Bounds, cell float64) *spatialGrid {
	cols := int(math.Ceil(b.Width / cell))
	rows := int(math.Ceil(b.Height / cell))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &spatialGrid{cell: cell, cols: cols, rows: rows, cells: make([][]int, cols*rows)}
}

func (g *spatialGrid) coords(p Point) (int, int) {
	cx := int(p.X / g.cell)
	cy := int(p.Y / g.cell)
	return min(max(cx, 0), g.cols-1), min(max(cy, 0), g.rows-1)
}

func (g *spatialGrid) add(idx int, p Point) {
	cx, cy := g.coords(p)
	g.cells[cy*g.cols+cx] = append(g.cells[cy*g.cols+cx], idx)
}

// tooClose reports whether any stored point lies strictly closer than d to p.
func (g *spatialGrid) tooClose(p Point, d float64, pts []Point) bool {
	span := int(math.Ceil(d / g.cell))
	cx, cy := g.coords(p)
	for y := max(cy-span, 0); y <= min(cy+span, g.rows-1); y++ {
		for x := max(cx-span, 0); x <= min(cx+span, g.cols-1); x++ {
			for _, idx := range g.cells[y*g.cols+x] {
				if pts[idx].DistanceTo(p) < d {
					return true
				}
			}
		}
	}
	return false
}
