package segment

import (
	"image"

	"gocv.io/x/gocv"
)

// floodFill performs a 4-connected, floating-range flood fill on a
// single-channel 8-bit Mat. A neighbor joins the region when its value
// differs from the original value of the pixel it was reached from by at
// most tol. Filled pixels are overwritten with newVal. Returns the number of
// pixels filled, 0 when the seed is out of bounds.
//
// gocv carries no floodFill binding, so the fill is done in Go the same way
// the rest of this package walks Mats.
func floodFill(m *gocv.Mat, seed image.Point, newVal uint8, tol int) int {
	rows, cols := m.Rows(), m.Cols()
	if seed.X < 0 || seed.X >= cols || seed.Y < 0 || seed.Y >= rows {
		return 0
	}

	// Snapshot original values; comparisons must not see newVal.
	orig := make([]uint8, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			orig[y*cols+x] = m.GetUCharAt(y, x)
		}
	}

	visited := make([]bool, rows*cols)
	queue := make([]image.Point, 0, 64)

	idx := seed.Y*cols + seed.X
	visited[idx] = true
	m.SetUCharAt(seed.Y, seed.X, newVal)
	queue = append(queue, seed)
	area := 1

	dirs := [4]image.Point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curVal := int(orig[cur.Y*cols+cur.X])

		for _, d := range dirs {
			nx, ny := cur.X+d.X, cur.Y+d.Y
			if nx < 0 || nx >= cols || ny < 0 || ny >= rows {
				continue
			}
			ni := ny*cols + nx
			if visited[ni] {
				continue
			}
			diff := int(orig[ni]) - curVal
			if diff < -tol || diff > tol {
				continue
			}
			visited[ni] = true
			m.SetUCharAt(ny, nx, newVal)
			queue = append(queue, image.Point{X: nx, Y: ny})
			area++
		}
	}
	return area
}
