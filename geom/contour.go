package geom

import (
	"math"
)

// Contour is an ordered sequence of points tracing an iso-line. Closed
// contours repeat their first point at the end.
type Contour []Vec2

// Closed returns true if the contour ends where it starts.
func (c Contour) Closed() bool {
	return len(c) > 2 && c[0] == c[len(c)-1]
}

// Area returns the area enclosed by the contour using the shoelace formula.
// Open contours are closed with a straight segment.
func (c Contour) Area() float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		a, b := c[i], c[(i+1)%n]
		sum += a[1]*b[0] - b[1]*a[0]
	}
	return math.Abs(sum) / 2
}

// Centroid returns the mean of the contour's vertices. The repeated end
// point of a closed contour is counted once.
func (c Contour) Centroid() Vec2 {
	if c.Closed() {
		c = c[:len(c)-1]
	}
	var sum Vec2
	for _, p := range c {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(c)))
}

// edge identifies a grid edge by the index of its first corner and its
// direction. Two neighbouring cells share an edge, which is how segments get
// joined into contours.
type edge struct {
	row, col int
	vertical bool
}

// segment tables for the marching squares cases. Corners are numbered
// top-left = 1, top-right = 2, bottom-right = 4, bottom-left = 8 and the
// edges top = 0, right = 1, bottom = 2, left = 3.
var squareSegments = [16][][2]int{
	0: nil, 15: nil,
	1: {{3, 0}}, 14: {{3, 0}},
	2: {{0, 1}}, 13: {{0, 1}},
	4: {{1, 2}}, 11: {{1, 2}},
	8: {{2, 3}}, 7: {{2, 3}},
	3: {{3, 1}}, 12: {{3, 1}},
	6: {{0, 2}}, 9: {{0, 2}},
}

// FindContours traces every iso-line of field at the given level with the
// marching squares algorithm. The field is indexed [row][col]; cells with a
// NaN corner are skipped, so NaN can be used to exclude masked regions.
// Points are returned in continuous (row, col) pixel coordinates stored as
// Vec2{row, col}. Contour order follows the order in which cells are
// scanned and carries no other meaning.
func FindContours(field [][]float64, level float64) []Contour {
	rows := len(field)
	if rows < 2 || len(field[0]) < 2 {
		return nil
	}
	cols := len(field[0])

	adj := map[edge][]edge{}
	order := []edge{}
	link := func(a, b edge) {
		if _, ok := adj[a]; !ok {
			order = append(order, a)
		}
		if _, ok := adj[b]; !ok {
			order = append(order, b)
		}
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}

	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			ul, ur := field[r][c], field[r][c+1]
			ll, lr := field[r+1][c], field[r+1][c+1]
			if math.IsNaN(ul) || math.IsNaN(ur) ||
				math.IsNaN(ll) || math.IsNaN(lr) {
				continue
			}

			idx := 0
			if ul > level {
				idx |= 1
			}
			if ur > level {
				idx |= 2
			}
			if lr > level {
				idx |= 4
			}
			if ll > level {
				idx |= 8
			}

			edges := [4]edge{
				{r, c, false}, {r, c + 1, true},
				{r + 1, c, false}, {r, c, true},
			}

			switch idx {
			case 5, 10:
				// Saddle: disambiguate with the cell-centre average.
				above := (ul+ur+ll+lr)/4 > level
				if (idx == 5) == above {
					link(edges[3], edges[2])
					link(edges[0], edges[1])
				} else {
					link(edges[3], edges[0])
					link(edges[1], edges[2])
				}
			default:
				for _, s := range squareSegments[idx] {
					link(edges[s[0]], edges[s[1]])
				}
			}
		}
	}

	pos := func(e edge) Vec2 {
		if e.vertical {
			a, b := field[e.row][e.col], field[e.row+1][e.col]
			return Vec2{float64(e.row) + (level-a)/(b-a), float64(e.col)}
		}
		a, b := field[e.row][e.col], field[e.row][e.col+1]
		return Vec2{float64(e.row), float64(e.col) + (level-a)/(b-a)}
	}

	seen := map[edge]bool{}
	contours := []Contour{}
	trace := func(start edge) {
		chain := Contour{pos(start)}
		seen[start] = true
		prev, cur := start, start
		for {
			next, ok := edge{}, false
			for _, e := range adj[cur] {
				if e != prev && !seen[e] {
					next, ok = e, true
					break
				}
			}
			if !ok {
				break
			}
			prev, cur = cur, next
			seen[cur] = true
			chain = append(chain, pos(cur))
		}
		if len(chain) > 2 && len(adj[cur]) == 2 {
			for _, e := range adj[cur] {
				if e == start {
					chain = append(chain, chain[0])
					break
				}
			}
		}
		contours = append(contours, chain)
	}

	// Open contours start at the boundary, so trace those first.
	for _, e := range order {
		if !seen[e] && len(adj[e]) == 1 {
			trace(e)
		}
	}
	for _, e := range order {
		if !seen[e] {
			trace(e)
		}
	}
	return contours
}
