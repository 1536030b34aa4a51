package strokewidth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocv.io/x/gocv"
)

// label builds a mask plus the matching component labeling from a list of
// rectangles given as [x0, y0, x1, y1].
func label(rows, cols int, rects [][4]int) (gocv.Mat, gocv.Mat, int, gocv.Mat) {
	mask := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	for _, r := range rects {
		for y := r[1]; y < r[3]; y++ {
			for x := r[0]; x < r[2]; x++ {
				mask.SetUCharAt(y, x, 255)
			}
		}
	}
	labels := gocv.NewMat()
	stats := gocv.NewMat()
	centroids := gocv.NewMat()
	numLabels := gocv.ConnectedComponentsWithStatsWithParams(mask, &labels, &stats, &centroids,
		4, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)
	centroids.Close()
	return mask, labels, numLabels, stats
}

func countIn(mask gocv.Mat, x0, y0, x1, y1 int) int {
	n := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if mask.GetUCharAt(y, x) != 0 {
				n++
			}
		}
	}
	return n
}

func TestFilterDropsOutlierWidths(t *testing.T) {
	// Three 6 px wide strokes and one 60 px blob: the blob's stroke width
	// is ten times the median and must go.
	rects := [][4]int{
		{10, 10, 16, 40},
		{24, 10, 30, 40},
		{38, 10, 44, 40},
		{60, 60, 120, 120},
	}
	mask, labels, numLabels, stats := label(140, 140, rects)
	defer mask.Close()
	defer labels.Close()
	defer stats.Close()

	out := Filter(mask, labels, numLabels, stats)
	defer out.Close()

	assert.Greater(t, countIn(out, 10, 10, 16, 40), 0)
	assert.Greater(t, countIn(out, 24, 10, 30, 40), 0)
	assert.Greater(t, countIn(out, 38, 10, 44, 40), 0)
	assert.Zero(t, countIn(out, 60, 60, 120, 120))
}

func TestFilterKeepsUniformStrokes(t *testing.T) {
	rects := [][4]int{
		{10, 10, 16, 40},
		{24, 10, 30, 40},
		{38, 10, 44, 40},
	}
	mask, labels, numLabels, stats := label(60, 60, rects)
	defer mask.Close()
	defer labels.Close()
	defer stats.Close()

	out := Filter(mask, labels, numLabels, stats)
	defer out.Close()

	assert.Equal(t, gocv.CountNonZero(mask), gocv.CountNonZero(out))
}

func TestFilterDropsSpeckle(t *testing.T) {
	// A 1x2 sliver is below the minimum component area and never survives,
	// whatever its width.
	rects := [][4]int{
		{10, 10, 16, 40},
		{24, 10, 30, 40},
		{50, 50, 51, 52},
	}
	mask, labels, numLabels, stats := label(60, 60, rects)
	defer mask.Close()
	defer labels.Close()
	defer stats.Close()

	out := Filter(mask, labels, numLabels, stats)
	defer out.Close()

	assert.Zero(t, countIn(out, 50, 50, 51, 52))
	assert.Greater(t, countIn(out, 10, 10, 16, 40), 0)
}

func TestFilterEmptyMask(t *testing.T) {
	mask, labels, numLabels, stats := label(20, 20, nil)
	defer mask.Close()
	defer labels.Close()
	defer stats.Close()

	out := Filter(mask, labels, numLabels, stats)
	defer out.Close()

	require.Equal(t, 20, out.Rows())
	assert.Zero(t, gocv.CountNonZero(out))
}
