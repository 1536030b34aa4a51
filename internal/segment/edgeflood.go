package segment

import (
	"image"

	"bubble-cleaner/pkg/colorutil"
	"bubble-cleaner/pkg/geometry"

	"gocv.io/x/gocv"
)

// Tuning for the edge/flood pipeline. The area gates are fractions of the
// crop area; floodTol is the intensity tolerance used by every fill.
const (
	shrinkScale     = 0.6
	growScale       = 1.4
	shrinkMinDim    = 300
	growMaxDim      = 120
	cannyLow        = 70
	cannyHigh       = 140
	floodTol        = 10
	contourAreaGate = 0.4
	filledAreaGate  = 0.3
	pruneStopRatio  = 0.85
	pruneRounds     = 2
)

// EdgeFlood segments a bubble crop by edge geometry: Canny edges are closed
// through the image border, the tightest contour whose center flood fill
// covers a plausible share of the crop becomes the bubble's outer mask, and
// corner flood fills over the edge map carve out the text mask. Colors are
// estimated from the resulting masks and the crop is repaired by flat fill
// or inpainting depending on how flat the background is.
//
// The input Mat is never mutated. See Result for ownership of the outputs.
func EdgeFlood(img gocv.Mat, opts Options) (*Result, error) {
	if err := validateInput(img); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	orig := img.Clone()
	defer orig.Close()
	oriH, oriW := orig.Rows(), orig.Cols()

	// Downsample large crops for speed and noise, upsample tiny ones so the
	// edge detector has something to work with.
	scale := 1.0
	if oriH > shrinkMinDim && oriW > shrinkMinDim {
		scale = shrinkScale
	} else if oriH < growMaxDim || oriW < growMaxDim {
		scale = growScale
	}
	proc := orig
	if scale != 1 {
		proc = gocv.NewMat()
		gocv.Resize(orig, &proc,
			image.Pt(int(float64(oriW)*scale), int(float64(oriH)*scale)),
			0, 0, gocv.InterpolationArea)
		defer proc.Close()
	}
	h, w := proc.Rows(), proc.Cols()
	imgArea := h * w

	kernel := kernel3()
	defer kernel.Close()

	blurred := gocv.NewMat()
	gocv.GaussianBlur(proc, &blurred, image.Pt(3, 3), 0, 0, gocv.BorderDefault)
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, cannyLow, cannyHigh)
	blurred.Close()

	// Force the border white while hunting contours so the outer region is
	// closed even when the bubble touches the crop edge, then restore it.
	gocv.Rectangle(&edges, image.Rect(0, 0, w-1, h-1), colorutil.White, 1)
	contours := gocv.FindContours(edges, gocv.RetrievalCComp, gocv.ChainApproxNone)
	gocv.Rectangle(&edges, image.Rect(0, 0, w-1, h-1), colorutil.Black, 1)
	snap(opts.Debug, "edges", edges)

	outerFill, found := selectOuterContour(contours, w, h, imgArea)
	contours.Close()

	// Shrink-then-reflood the winning contour into a clean binary mask of
	// the bubble interior. No qualifying contour leaves the mask blank and
	// the rest of the pipeline degrades to sentinels.
	outer := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)
	defer outer.Close()
	outerArea := 0
	if found {
		inv := byteSubFrom(127, outerFill)
		gocv.Dilate(inv, &inv, kernel)
		outerArea = floodFill(&inv, image.Pt(w/2, h/2), 30, floodTol)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if inv.GetUCharAt(y, x) == 30 {
					outer.SetUCharAt(y, x, 255)
				}
			}
		}
		inv.Close()
		outerFill.Close()
	}
	snap(opts.Debug, "outer", outer)

	// Iteratively prune the dilated edge map against the outer mask. The
	// corner fills cover everything reachable from outside; what they never
	// reach is edge ink plus enclosed letter interiors. Stop once that text
	// area is a small fraction of the bubble.
	gocv.Dilate(edges, &edges, kernel)
	fill := gocv.NewMat()
	for i := 0; i < pruneRounds; i++ {
		gocv.BitwiseAnd(edges, outer, &edges)
		fill.Close()
		fill = edges.Clone()
		bg1 := floodFill(&fill, image.Pt(0, 0), 127, floodTol)
		bg2 := floodFill(&fill, image.Pt(w-1, h-1), 127, floodTol)
		textArea := min(imgArea-bg1, imgArea-bg2)
		gocv.Erode(outer, &outer, kernel)
		if outerArea == 0 || float64(textArea)/float64(outerArea) < pruneStopRatio {
			break
		}
	}

	textRaw := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)
	defer textRaw.Close()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if fill.GetUCharAt(y, x) != 127 {
				textRaw.SetUCharAt(y, x, 255)
			}
		}
	}
	fill.Close()

	// Back to the original resolution; color work always runs on the
	// unscaled crop.
	if scale != 1 {
		gocv.Resize(outer, &outer, image.Pt(oriW, oriH), 0, 0, gocv.InterpolationLinear)
		binarize(&outer, 127)
		gocv.Resize(textRaw, &textRaw, image.Pt(oriW, oriH), 0, 0, gocv.InterpolationLinear)
		binarize(&textRaw, 127)
	}

	notOuter := gocv.NewMat()
	gocv.BitwiseNot(outer, &notOuter)
	bgMask := gocv.NewMat()
	gocv.BitwiseOr(textRaw, notOuter, &bgMask)
	notOuter.Close()
	textMask := gocv.NewMat()
	defer textMask.Close()
	gocv.BitwiseAnd(textRaw, outer, &textMask)
	snap(opts.Debug, "textmask", textMask)

	background, sd := EstimateBackground(orig, bgMask, true)
	bgMask.Close()

	foreground := colorutil.BGR{}
	innerRect := geometry.SentinelRect
	refined := gocv.NewMatWithSize(oriH, oriW, gocv.MatTypeCV8U)
	paintMask := textMask
	var dilated gocv.Mat
	haveDilated := false
	if background.Valid() {
		refined.Close()
		foreground, refined = ForegroundOtsu(orig, textMask, background)
		if foreground.Valid() {
			dilated = gocv.NewMat()
			haveDilated = true
			gocv.Dilate(refined, &dilated, kernel)
			innerRect = maskBoundingBox(dilated)
			paintMask = dilated
		}
	}
	snap(opts.Debug, "refined", refined)

	var painted gocv.Mat
	usedInpaint := false
	if sd != -1 && sd < opts.InpaintSDThresh {
		painted = orig.Clone()
		paintWhere(&painted, outer, background)
	} else {
		painted = opts.Inpaint(orig, paintMask)
		usedInpaint = true
	}
	if haveDilated {
		dilated.Close()
	}
	snap(opts.Debug, "painted", painted)

	return &Result{
		TextMask:     refined,
		Painted:      painted,
		Foreground:   foreground,
		Background:   background,
		InnerRect:    innerRect,
		BackgroundSD: sd,
		UsedInpaint:  usedInpaint,
	}, nil
}

// selectOuterContour draws each sufficiently large contour and flood fills
// from the crop center; among contours whose fill covers more than the
// filled-area gate it keeps the one with the smallest fill, the tightest
// plausible bubble boundary. Contours whose fill stayed too small are erased
// from the accumulator so they cannot block later candidates.
func selectOuterContour(contours gocv.PointsVector, w, h, imgArea int) (gocv.Mat, bool) {
	accum := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)
	defer accum.Close()

	seed := image.Pt(w/2, h/2)
	var best gocv.Mat
	minFilled := 0
	found := false

	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		if float64(r.Dx()*r.Dy()) < float64(imgArea)*contourAreaGate {
			continue
		}
		gocv.DrawContours(&accum, contours, i, colorutil.White, 2)
		cand := accum.Clone()
		gocv.Rectangle(&accum, image.Rect(0, 0, w-1, h-1), colorutil.White, 1)
		filled := floodFill(&cand, seed, 127, floodTol)
		if float64(filled) <= float64(imgArea)*filledAreaGate {
			gocv.DrawContours(&accum, contours, i, colorutil.Black, 2)
			cand.Close()
			continue
		}
		if !found || filled < minFilled {
			if found {
				best.Close()
			}
			best = cand
			minFilled = filled
			found = true
		} else {
			cand.Close()
		}
	}
	if !found {
		return gocv.Mat{}, false
	}
	return best, true
}

// byteSubFrom returns a new mask whose pixels are uint8(c - v), with the
// same wraparound arithmetic the mask algebra of this pipeline relies on.
func byteSubFrom(c int, src gocv.Mat) gocv.Mat {
	rows, cols := src.Rows(), src.Cols()
	dst := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			dst.SetUCharAt(y, x, uint8(c-int(src.GetUCharAt(y, x))))
		}
	}
	return dst
}
