// Package segment extracts text masks and clean backgrounds from speech
// bubble crops. Two alternative pipelines are provided: EdgeFlood works from
// Canny edges and directional flood fills, ConnectedComponents works from a
// thresholded color channel and component labeling. Both estimate the text
// and background colors and repair the crop so replacement text can be
// rendered in place.
package segment

import (
	"errors"
	"fmt"
	"image"

	"bubble-cleaner/internal/strokewidth"
	"bubble-cleaner/pkg/colorutil"
	"bubble-cleaner/pkg/geometry"

	"gocv.io/x/gocv"
)

// MinDim is the smallest crop dimension either segmenter accepts.
const MinDim = 4

var (
	// ErrEmptyImage is returned for an empty input Mat.
	ErrEmptyImage = errors.New("segment: empty input image")
	// ErrImageTooSmall is returned for crops below MinDim on either side.
	ErrImageTooSmall = errors.New("segment: image smaller than minimum size")
)

// StrokeFilterFunc removes connected components whose geometry is implausible
// for glyph strokes. It receives the candidate text mask together with the
// component labeling it was derived from and returns a new mask.
type StrokeFilterFunc func(mask, labels gocv.Mat, numLabels int, stats gocv.Mat) gocv.Mat

// Options configures a segmentation run. The zero value is usable; nil
// function fields fall back to the defaults.
type Options struct {
	// InpaintSDThresh is the background variance below which the bubble is
	// considered flat and painted with the mean color instead of inpainted.
	InpaintSDThresh float64

	// Inpaint repairs the masked region of the image. Defaults to
	// Navier-Stokes inpainting with a 3 px radius.
	Inpaint InpaintFunc

	// ApplyStrokeFilter enables the stroke-width plausibility filter in the
	// connected-components pipeline.
	ApplyStrokeFilter bool

	// StrokeFilter is the filter invoked when ApplyStrokeFilter is set.
	StrokeFilter StrokeFilterFunc

	// Debug receives named intermediate masks. A nil sink disables all
	// diagnostics; the sink never affects the returned result.
	Debug DebugSink
}

// DefaultOptions returns the default segmentation options.
func DefaultOptions() Options {
	return Options{
		InpaintSDThresh: 10,
		Inpaint:         NSInpaint,
		StrokeFilter:    strokewidth.Filter,
	}
}

// WithInpaint returns a copy of the options with a custom inpaint strategy.
func (o Options) WithInpaint(f InpaintFunc) Options {
	o.Inpaint = f
	return o
}

// WithStrokeFilter returns a copy of the options with the stroke-width
// filter enabled or disabled.
func (o Options) WithStrokeFilter(enabled bool) Options {
	o.ApplyStrokeFilter = enabled
	return o
}

// WithDebug returns a copy of the options with a debug sink attached.
func (o Options) WithDebug(sink DebugSink) Options {
	o.Debug = sink
	return o
}

func (o Options) withDefaults() Options {
	if o.InpaintSDThresh == 0 {
		o.InpaintSDThresh = 10
	}
	if o.Inpaint == nil {
		o.Inpaint = NSInpaint
	}
	if o.StrokeFilter == nil {
		o.StrokeFilter = strokewidth.Filter
	}
	return o
}

// Result holds the output of one segmentation run. TextMask and Painted are
// owned by the caller; Close releases them.
type Result struct {
	// TextMask is a binary mask (0/255) of pixels classified as glyph
	// strokes, with the same spatial dimensions as the input.
	TextMask gocv.Mat

	// Painted is the repaired crop with the text removed.
	Painted gocv.Mat

	// Foreground is the estimated text color, or the sentinel when no
	// letter pixels could be isolated.
	Foreground colorutil.BGR

	// Background is the estimated bubble background color, or the sentinel
	// when no background pixels were found.
	Background colorutil.BGR

	// InnerRect bounds the detected text, or the sentinel.
	InnerRect geometry.RectInt

	// BackgroundSD is the population variance of the background grayscale
	// values, or -1 when no background pixels were found.
	BackgroundSD float64

	// UsedInpaint reports which repair branch was taken: true for
	// content-aware inpainting, false for a flat fill.
	UsedInpaint bool
}

// Close releases the Mats held by the result.
func (r *Result) Close() {
	if r == nil {
		return
	}
	if !r.TextMask.Empty() {
		r.TextMask.Close()
	}
	if !r.Painted.Empty() {
		r.Painted.Close()
	}
}

func validateInput(img gocv.Mat) error {
	if img.Empty() {
		return ErrEmptyImage
	}
	if img.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("segment: expected 8UC3 input, got type %d", int(img.Type()))
	}
	if img.Rows() < MinDim || img.Cols() < MinDim {
		return fmt.Errorf("%w: %dx%d, need at least %dx%d",
			ErrImageTooSmall, img.Cols(), img.Rows(), MinDim, MinDim)
	}
	return nil
}

func kernel3() gocv.Mat {
	return gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
}

// maskBoundingBox returns the bounding box of the nonzero pixels of a
// single-channel mask, or the sentinel when the mask is blank.
func maskBoundingBox(mask gocv.Mat) geometry.RectInt {
	rows, cols := mask.Rows(), mask.Cols()
	minX, minY := cols, rows
	maxX, maxY := -1, -1
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return geometry.SentinelRect
	}
	return geometry.RectInt{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}

// meanBGRWhere returns the per-channel mean of img over the pixels where the
// mask equals 255, and the number of pixels selected.
func meanBGRWhere(img, mask gocv.Mat) (colorutil.BGR, int) {
	rows, cols := img.Rows(), img.Cols()
	var sumB, sumG, sumR float64
	count := 0
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) != 255 {
				continue
			}
			vec := img.GetVecbAt(y, x)
			sumB += float64(vec[0])
			sumG += float64(vec[1])
			sumR += float64(vec[2])
			count++
		}
	}
	if count == 0 {
		return colorutil.SentinelBGR, 0
	}
	n := float64(count)
	return colorutil.ClampBGR(sumB/n, sumG/n, sumR/n), count
}

// paintWhere overwrites img pixels with the given color wherever the mask
// equals 255.
func paintWhere(img *gocv.Mat, mask gocv.Mat, c colorutil.BGR) {
	rows, cols := img.Rows(), img.Cols()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) != 255 {
				continue
			}
			img.SetUCharAt(y, x*3+0, uint8(c.B))
			img.SetUCharAt(y, x*3+1, uint8(c.G))
			img.SetUCharAt(y, x*3+2, uint8(c.R))
		}
	}
}

// binarize thresholds a mask in place so values above the cutoff become 255
// and everything else 0. Used after interpolating resizes to restore strict
// binary masks.
func binarize(mask *gocv.Mat, cutoff float32) {
	gocv.Threshold(*mask, mask, cutoff, 255, gocv.ThresholdBinary)
}
