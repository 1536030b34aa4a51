package segment

import (
	"image"

	"gocv.io/x/gocv"
)

// Tuning for channel selection.
const (
	chMaxHeight     = 100  // crops taller than this are downsampled first
	chInvertMean    = 160  // mean thresholded intensity above which polarity flips
	chGlyphSizeGate = 0.5  // glyph bbox ceiling, fraction of largest component
	chGlyphAreaGate = 0.001 // glyph bbox floor, fraction of crop area
)

// SelectChannel scores the blue, green, red and grayscale channels by how
// many plausible glyph-sized connected components their Otsu threshold
// produces, and returns the winning channel index (3 means grayscale) with a
// polarity flag indicating the threshold must be inverted so text comes out
// bright. A straight grayscale conversion can make text and background
// indistinguishable (red letters over a luma-matched fill); some single
// channel usually still separates them.
//
// Ties keep the earliest channel in B, G, R, gray order.
func SelectChannel(img gocv.Mat) (int, bool) {
	im := img
	if img.Rows() > chMaxHeight {
		scale := float64(chMaxHeight) / float64(img.Rows())
		im = gocv.NewMat()
		gocv.Resize(img, &im,
			image.Pt(int(float64(img.Cols())*scale), int(float64(img.Rows())*scale)),
			0, 0, gocv.InterpolationArea)
		defer im.Close()
	}
	rows, cols := im.Rows(), im.Cols()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(im, &gray, gocv.ColorBGRToGray)

	// A pseudo outer mask from the grayscale channel anchors the polarity
	// test for every candidate.
	grayThresh := gocv.NewMat()
	defer grayThresh.Close()
	gocv.Threshold(gray, &grayThresh, 1, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	_, pl, ps, pseudoOuter := findOuterMask(grayThresh)
	pl.Close()
	ps.Close()
	defer pseudoOuter.Close()

	bestChannel, bestCount := 0, 0
	bestInvert := false

	for idx := 0; idx < 4; idx++ {
		channel := extractChannel(im, idx)
		thresh := gocv.NewMat()
		gocv.Threshold(channel, &thresh, 1, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
		channel.Close()

		invert := false
		if mean, n := meanWhere(thresh, pseudoOuter); n > 0 && mean > chInvertMean {
			gocv.BitwiseNot(thresh, &thresh)
			invert = true
		}

		labels := gocv.NewMat()
		stats := gocv.NewMat()
		centroids := gocv.NewMat()
		numLabels := gocv.ConnectedComponentsWithStatsWithParams(thresh, &labels, &stats, &centroids,
			ccConnectivity, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)
		centroids.Close()
		labels.Close()
		thresh.Close()

		// The largest component sets the glyph size ceiling; anything with
		// a bbox close to it is background, anything below the area floor
		// is speckle.
		maxInd := largestComponent(stats, numLabels)
		maxW := float64(stats.GetIntAt(maxInd, 2)) * chGlyphSizeGate
		maxH := float64(stats.GetIntAt(maxInd, 3)) * chGlyphSizeGate
		minArea := float64(rows*cols) * chGlyphAreaGate

		count := 0
		for lab := 0; lab < numLabels; lab++ {
			w := float64(stats.GetIntAt(lab, 2))
			h := float64(stats.GetIntAt(lab, 3))
			if w < maxW && h < maxH && w*h > minArea {
				count++
			}
		}
		stats.Close()

		if count > bestCount {
			bestCount = count
			bestChannel = idx
			bestInvert = invert
		}
	}

	return bestChannel, bestInvert
}

// meanWhere returns the mean of src over pixels where the mask equals 255,
// with the number of pixels selected.
func meanWhere(src, mask gocv.Mat) (float64, int) {
	rows, cols := src.Rows(), src.Cols()
	var sum float64
	count := 0
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) != 255 {
				continue
			}
			sum += float64(src.GetUCharAt(y, x))
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return sum / float64(count), count
}
