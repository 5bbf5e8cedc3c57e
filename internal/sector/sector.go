// Package sector partitions the galaxy canvas into a square grid of cells.
package sector

import (
	"fmt"
	"math"
)

const (
	DefaultGridSize = 10
	MinGridSize     = 2
	MaxGridSize     = 100
)

var greekRows = []string{
	"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta", "Theta",
	"Iota", "Kappa", "Lambda", "Mu", "Nu", "Xi", "Omicron", "Pi",
	"Rho", "Sigma", "Tau", "Upsilon", "Phi", "Chi", "Psi", "Omega",
}

// Cell is one grid cell with half-open bounds [XMin,XMax) x [YMin,YMax).
// Cells in the last column or row also hold the canvas edge itself.
type Cell struct {
	Index int     `json:"index"`
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Name  string  `json:"name"`
	XMin  float64 `json:"x_min"`
	XMax  float64 `json:"x_max"`
	YMin  float64 `json:"y_min"`
	YMax  float64 `json:"y_max"`

	closedX, closedY bool
}

func (c Cell) Contains(x, y float64) bool {
	return x >= c.XMin && (x < c.XMax || c.closedX && x == c.XMax) &&
		y >= c.YMin && (y < c.YMax || c.closedY && y == c.YMax)
}

func (c Cell) Center() (float64, float64) {
	return (c.XMin + c.XMax) / 2, (c.YMin + c.YMax) / 2
}

func (c Cell) Width() float64 { return c.XMax - c.XMin }

func (c Cell) Height() float64 { return c.YMax - c.YMin }

type Grid struct {
	width  float64
	height float64
	size   int
}

func NewGrid(width, height float64, size int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %vx%v", width, height)
	}
	if size < MinGridSize || size > MaxGridSize {
		return nil, fmt.Errorf("grid size must be between %d and %d, got %d", MinGridSize, MaxGridSize, size)
	}
	return &Grid{width: width, height: height, size: size}, nil
}

func (g *Grid) Size() int { return g.size }

// bound returns the i-th grid line along an axis of the given extent. The last
// line is the extent itself so the cells tile the canvas exactly.
func (g *Grid) bound(i int, extent float64) float64 {
	if i >= g.size {
		return extent
	}
	return float64(i) * extent / float64(g.size)
}

func (g *Grid) Cell(row, col int) Cell {
	return Cell{
		Index: row*g.size + col,
		Row:   row,
		Col:   col,
		Name:  Name(row, col),
		XMin:  g.bound(col, g.width),
		XMax:  g.bound(col+1, g.width),
		YMin:  g.bound(row, g.height),
		YMax:  g.bound(row+1, g.height),

		closedX: col == g.size-1,
		closedY: row == g.size-1,
	}
}

// Cells lists every cell in row-major order.
func (g *Grid) Cells() []Cell {
	cells := make([]Cell, 0, g.size*g.size)
	for row := 0; row < g.size; row++ {
		for col := 0; col < g.size; col++ {
			cells = append(cells, g.Cell(row, col))
		}
	}
	return cells
}

// Assign returns the index of the cell containing (x,y), or false when the
// coordinate lies outside [0,width] x [0,height]. Points on the right or
// bottom edge land in the last column or row.
func (g *Grid) Assign(x, y float64) (int, bool) {
	col, ok := g.axisIndex(x, g.width)
	if !ok {
		return 0, false
	}
	row, ok := g.axisIndex(y, g.height)
	if !ok {
		return 0, false
	}
	return row*g.size + col, true
}

func (g *Grid) axisIndex(v, extent float64) (int, bool) {
	if math.IsNaN(v) || v < 0 || v > extent {
		return 0, false
	}
	i := int(v * float64(g.size) / extent)
	if i >= g.size {
		i = g.size - 1
	}
	// The division can land one cell off where v sits on a grid line.
	for i > 0 && v < g.bound(i, extent) {
		i--
	}
	for i < g.size-1 && v >= g.bound(i+1, extent) {
		i++
	}
	return i, true
}

// Name is the Greek row label and 1-based column, e.g. "Gamma-4". Rows past
// the alphabet repeat it with a cycle suffix, e.g. "Alpha-2-3".
func Name(row, col int) string {
	letter := greekRows[row%len(greekRows)]
	if cycle := row / len(greekRows); cycle > 0 {
		return fmt.Sprintf("%s-%d-%d", letter, cycle+1, col+1)
	}
	return fmt.Sprintf("%s-%d", letter, col+1)
}
