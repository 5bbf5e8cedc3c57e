package warpgate

import "math"

// index is a uniform bucket grid over the node bounding box used for
// nearest-neighbour and radius queries.
type index struct {
	nodes      []Node
	cell       float64
	minX, minY float64
	cols, rows int
	cells      [][]int
}

func newIndex(nodes []Node) *index {
	ix := &index{nodes: nodes, cols: 1, rows: 1, cell: 1}
	if len(nodes) == 0 {
		ix.cells = make([][]int, 1)
		return ix
	}

	minX, minY := nodes[0].X, nodes[0].Y
	maxX, maxY := minX, minY
	for _, n := range nodes[1:] {
		minX, maxX = math.Min(minX, n.X), math.Max(maxX, n.X)
		minY, maxY = math.Min(minY, n.Y), math.Max(maxY, n.Y)
	}
	w, h := maxX-minX, maxY-minY
	cell := math.Sqrt(math.Max(w*h, 1) / float64(len(nodes)))
	cell = math.Max(cell, math.Max(w, h)/4096)
	if cell <= 0 || math.IsNaN(cell) {
		cell = 1
	}

	ix.minX, ix.minY, ix.cell = minX, minY, cell
	ix.cols = int(w/cell) + 1
	ix.rows = int(h/cell) + 1
	ix.cells = make([][]int, ix.cols*ix.rows)
	for i, n := range nodes {
		cx, cy := ix.coords(n.X, n.Y)
		ix.cells[cy*ix.cols+cx] = append(ix.cells[cy*ix.cols+cx], i)
	}
	return ix
}

func (ix *index) coords(x, y float64) (int, int) {
	cx := int((x - ix.minX) / ix.cell)
	cy := int((y - ix.minY) / ix.cell)
	return min(max(cx, 0), ix.cols-1), min(max(cy, 0), ix.rows-1)
}

// nearest returns the distance from node i to its closest other node.
func (ix *index) nearest(i int) (float64, bool) {
	p := ix.nodes[i]
	cx, cy := ix.coords(p.X, p.Y)
	best := math.Inf(1)
	found := false

	for ring := 0; ring <= max(ix.cols, ix.rows); ring++ {
		for y := cy - ring; y <= cy+ring; y++ {
			if y < 0 || y >= ix.rows {
				continue
			}
			for x := cx - ring; x <= cx+ring; x++ {
				if x < 0 || x >= ix.cols {
					continue
				}
				if ring > 0 && y != cy-ring && y != cy+ring && x != cx-ring && x != cx+ring {
					continue
				}
				for _, j := range ix.cells[y*ix.cols+x] {
					if j == i {
						continue
					}
					if d := p.distanceTo(ix.nodes[j]); d < best {
						best = d
						found = true
					}
				}
			}
		}
		// nodes in later rings are at least ring*cell away
		if found && best <= float64(ring)*ix.cell {
			break
		}
	}
	return best, found
}

// within calls fn for every other node no farther than radius from node i.
func (ix *index) within(i int, radius float64, fn func(j int, d float64)) {
	p := ix.nodes[i]
	x0, y0 := ix.coords(p.X-radius, p.Y-radius)
	x1, y1 := ix.coords(p.X+radius, p.Y+radius)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			for _, j := range ix.cells[y*ix.cols+x] {
				if j == i {
					continue
				}
				if d := p.distanceTo(ix.nodes[j]); d <= radius {
					fn(j, d)
				}
			}
		}
	}
}
