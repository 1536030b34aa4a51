package segment

import (
	"gocv.io/x/gocv"
)

// InpaintFunc reconstructs the pixels of img selected by the binary mask
// using surrounding context. Implementations must not mutate img and must
// return a new Mat of identical dimensions and type; the caller owns it.
type InpaintFunc func(img, mask gocv.Mat) gocv.Mat

// NSInpaint is the default repair strategy: Navier-Stokes inpainting with a
// 3-pixel radius.
func NSInpaint(img, mask gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Inpaint(img, mask, &dst, 3, gocv.NS)
	return dst
}
