package segment

import (
	"image"

	"bubble-cleaner/pkg/colorutil"

	"gocv.io/x/gocv"
)

// Tuning for the connected-components pipeline.
const (
	ccOuterContourGate = 0.3 // min contour bbox area, fraction of crop
	ccTextAreaGate     = 0.4 // max component pixel count, fraction of crop
	ccConnectivity     = 4
)

// ConnectedComponents segments a bubble crop by component labeling: the best
// separating color channel is Otsu-thresholded, the largest blob yields the
// outer mask, and every other small component becomes candidate text. The
// stroke-width filter optionally drops components that cannot be glyph
// strokes. Colors are estimated from the masks and the crop is repaired by
// flat fill or inpainting depending on how flat the background is.
//
// The input Mat is never mutated. See Result for ownership of the outputs.
func ConnectedComponents(img gocv.Mat, opts Options) (*Result, error) {
	if err := validateInput(img); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	chIdx, invert := SelectChannel(img)
	channel := extractChannel(img, chIdx)
	defer channel.Close()

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(channel, &thresh, 1, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	if invert {
		gocv.BitwiseNot(thresh, &thresh)
	}
	snap(opts.Debug, "thresh", thresh)

	numLabels, labels, stats, outer := findOuterMask(thresh)
	defer labels.Close()
	defer stats.Close()
	defer outer.Close()
	snap(opts.Debug, "outer", outer)

	rows, cols := img.Rows(), img.Cols()
	imgArea := rows * cols

	// Every component except the dominant blob, small enough to be text,
	// is marked foreground.
	maxInd := largestComponent(stats, numLabels)
	keep := make([]bool, numLabels)
	for lab := 0; lab < numLabels; lab++ {
		area := int(stats.GetIntAt(lab, 4))
		keep[lab] = lab != maxInd && float64(area) < float64(imgArea)*ccTextAreaGate
	}
	textMask := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if keep[labels.GetIntAt(y, x)] {
				textMask.SetUCharAt(y, x, 255)
			}
		}
	}
	gocv.BitwiseAnd(textMask, outer, &textMask)

	if opts.ApplyStrokeFilter {
		filtered := opts.StrokeFilter(textMask, labels, numLabels, stats)
		textMask.Close()
		textMask = filtered
	}
	snap(opts.Debug, "textmask", textMask)

	foreground := ForegroundSharpened(img, textMask)

	kernel := kernel3()
	defer kernel.Close()
	dilated := gocv.NewMat()
	gocv.Dilate(textMask, &dilated, kernel)
	innerRect := maskBoundingBox(dilated)
	dilated.Close()

	notOuter := gocv.NewMat()
	gocv.BitwiseNot(outer, &notOuter)
	bgMask := gocv.NewMat()
	gocv.BitwiseOr(textMask, notOuter, &bgMask)
	notOuter.Close()

	background, sd := EstimateBackground(img, bgMask, true)
	bgMask.Close()

	// Blur-and-rebinarize pads the text mask by a pixel so inpainting
	// covers anti-aliased stroke edges.
	roiMask := gocv.NewMat()
	gocv.GaussianBlur(textMask, &roiMask, image.Pt(3, 3), 0, 0, gocv.BorderDefault)
	binarize(&roiMask, 1)

	var painted gocv.Mat
	usedInpaint := false
	if sd != -1 && sd < opts.InpaintSDThresh {
		painted = img.Clone()
		paintWhere(&painted, outer, background)
	} else {
		painted = opts.Inpaint(img, roiMask)
		usedInpaint = true
	}
	roiMask.Close()
	snap(opts.Debug, "painted", painted)

	return &Result{
		TextMask:     textMask,
		Painted:      painted,
		Foreground:   foreground,
		Background:   background,
		InnerRect:    innerRect,
		BackgroundSD: sd,
		UsedInpaint:  usedInpaint,
	}, nil
}

// findOuterMask isolates the dominant blob of a binary image and refloods
// its qualifying contours from the center into a closed outer mask. The
// component labeling of the input is returned alongside so callers can reuse
// it; the caller owns labels, stats and the mask.
func findOuterMask(bin gocv.Mat) (int, gocv.Mat, gocv.Mat, gocv.Mat) {
	rows, cols := bin.Rows(), bin.Cols()

	labels := gocv.NewMat()
	stats := gocv.NewMat()
	centroids := gocv.NewMat()
	numLabels := gocv.ConnectedComponentsWithStatsWithParams(bin, &labels, &stats, &centroids,
		ccConnectivity, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)
	centroids.Close()

	maxInd := largestComponent(stats, numLabels)

	blob := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	defer blob.Close()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if int(labels.GetIntAt(y, x)) == maxInd {
				blob.SetUCharAt(y, x, 255)
			}
		}
	}
	gocv.Rectangle(&blob, image.Rect(0, 0, cols-1, rows-1), colorutil.Black, 1)

	contours := gocv.FindContours(blob, gocv.RetrievalCComp, gocv.ChainApproxNone)
	defer contours.Close()

	imgArea := rows * cols
	outer := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		if float64(r.Dx()*r.Dy()) > float64(imgArea)*ccOuterContourGate {
			gocv.DrawContours(&outer, contours, i, colorutil.White, 2)
		}
	}

	floodFill(&outer, image.Pt(cols/2, rows/2), 127, floodTol)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if outer.GetUCharAt(y, x) == 127 {
				outer.SetUCharAt(y, x, 255)
			} else {
				outer.SetUCharAt(y, x, 0)
			}
		}
	}

	return numLabels, labels, stats, outer
}

// largestComponent returns the label with the greatest pixel count,
// including the background label.
func largestComponent(stats gocv.Mat, numLabels int) int {
	maxInd := 0
	maxArea := int32(-1)
	for lab := 0; lab < numLabels; lab++ {
		if area := stats.GetIntAt(lab, 4); area > maxArea {
			maxArea = area
			maxInd = lab
		}
	}
	return maxInd
}

// extractChannel returns the requested BGR channel, or the grayscale
// conversion for index 3. The caller owns the returned Mat.
func extractChannel(img gocv.Mat, idx int) gocv.Mat {
	if idx >= 3 {
		gray := gocv.NewMat()
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
		return gray
	}
	channels := gocv.Split(img)
	out := channels[idx].Clone()
	for _, ch := range channels {
		ch.Close()
	}
	return out
}
