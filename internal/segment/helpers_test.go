package segment

import (
	"bubble-cleaner/pkg/colorutil"

	"gocv.io/x/gocv"
)

// uniformMat builds a BGR Mat filled with a single color.
func uniformMat(rows, cols int, b, g, r float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), rows, cols, gocv.MatTypeCV8UC3)
}

// fillRect paints a filled axis-aligned rectangle onto a BGR Mat.
func fillRect(m *gocv.Mat, x0, y0, x1, y1 int, b, g, r uint8) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.SetUCharAt(y, x*3+0, b)
			m.SetUCharAt(y, x*3+1, g)
			m.SetUCharAt(y, x*3+2, r)
		}
	}
}

// fillMaskRect paints a filled rectangle of 255s onto a single-channel mask.
func fillMaskRect(m *gocv.Mat, x0, y0, x1, y1 int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.SetUCharAt(y, x, 255)
		}
	}
}

// colorNear reports whether every component of got is within tol of want.
func colorNear(got, want colorutil.BGR, tol int) bool {
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	return abs(got.B-want.B) <= tol && abs(got.G-want.G) <= tol && abs(got.R-want.R) <= tol
}

// recordingInpaint returns an InpaintFunc that counts invocations and
// remembers the nonzero pixel count of the last mask it was handed.
func recordingInpaint(calls *int, lastMaskNonzero *int) InpaintFunc {
	return func(img, mask gocv.Mat) gocv.Mat {
		*calls++
		*lastMaskNonzero = gocv.CountNonZero(mask)
		return img.Clone()
	}
}
