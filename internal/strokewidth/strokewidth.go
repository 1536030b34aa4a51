// Package strokewidth drops connected components whose stroke geometry is
// implausible for glyph strokes: filled blobs, hairline noise, and speckles
// survive color-channel thresholding but have stroke widths far from the
// consensus of real letters.
package strokewidth

import (
	"sort"

	"gocv.io/x/gocv"
)

const (
	// minComponentArea is the smallest pixel count a component may have
	// inside the mask before it is treated as speckle.
	minComponentArea = 4
	// widthSpread bounds accepted stroke widths to [median/spread,
	// median*spread].
	widthSpread = 3.0
)

// Filter removes implausible components from a binary text mask. labels and
// stats are the connected-component labeling the mask was derived from
// (stats rows are the usual left/top/width/height/area columns). The stroke
// width of a component is twice the largest distance-transform radius of its
// pixels still present in the mask; components whose width strays more than
// a factor of three from the median width, or which have nearly no pixels
// left, are dropped. The caller owns the returned mask.
func Filter(mask, labels gocv.Mat, numLabels int, stats gocv.Mat) gocv.Mat {
	rows, cols := mask.Rows(), mask.Cols()
	out := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)

	if gocv.CountNonZero(mask) == 0 || numLabels <= 1 {
		return out
	}

	dist := gocv.NewMat()
	defer dist.Close()
	distLabels := gocv.NewMat()
	defer distLabels.Close()
	gocv.DistanceTransform(mask, &dist, &distLabels, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelCComp)

	// Per-label max stroke radius and pixel count, restricted to pixels
	// that actually survived into the mask.
	maxRadius := make([]float32, numLabels)
	area := make([]int, numLabels)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) != 255 {
				continue
			}
			lab := int(labels.GetIntAt(y, x))
			if lab < 0 || lab >= numLabels {
				continue
			}
			area[lab]++
			if r := dist.GetFloatAt(y, x); r > maxRadius[lab] {
				maxRadius[lab] = r
			}
		}
	}

	var widths []float64
	for lab := 0; lab < numLabels; lab++ {
		if area[lab] >= minComponentArea {
			widths = append(widths, 2*float64(maxRadius[lab]))
		}
	}
	if len(widths) == 0 {
		return out
	}
	sort.Float64s(widths)
	median := widths[len(widths)/2]

	keep := make([]bool, numLabels)
	for lab := 0; lab < numLabels; lab++ {
		if area[lab] < minComponentArea {
			continue
		}
		w := 2 * float64(maxRadius[lab])
		keep[lab] = w >= median/widthSpread && w <= median*widthSpread
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) != 255 {
				continue
			}
			lab := int(labels.GetIntAt(y, x))
			if lab >= 0 && lab < numLabels && keep[lab] {
				out.SetUCharAt(y, x, 255)
			}
		}
	}
	return out
}
