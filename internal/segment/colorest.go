package segment

import (
	"image"

	"bubble-cleaner/pkg/colorutil"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// ForegroundOtsu estimates the mean letter color inside mask. The grayscale
// image is Otsu-thresholded and the polarity normalized against the supplied
// background color: the threshold map is inverted once when the background
// luma is dark, then inverted once more unconditionally, so letters land in
// the 255-valued class unless the background is dark. The refined map,
// intersected with mask, is returned alongside the color; the color is the
// sentinel when the intersection selects no pixels.
func ForegroundOtsu(img, mask gocv.Mat, background colorutil.BGR) (colorutil.BGR, gocv.Mat) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	threshed := gocv.NewMat()
	gocv.Threshold(gray, &threshed, 127, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	if background.Luma() < 127 {
		gocv.BitwiseNot(threshed, &threshed)
	}
	gocv.BitwiseNot(threshed, &threshed)

	gocv.BitwiseAnd(threshed, mask, &threshed)

	mean, count := meanBGRWhere(img, threshed)
	if count == 0 {
		return colorutil.SentinelBGR, threshed
	}
	return mean, threshed
}

// ForegroundSharpened estimates the mean letter color over mask after
// sharpening the image with an unsharp mask (Gaussian blur sigma 5, weights
// 1.5/-0.5). The mask is eroded by one 3x3 step first so anti-aliased stroke
// edges do not bleed into the mean. Returns the sentinel when the eroded
// mask selects no pixels.
func ForegroundSharpened(img, mask gocv.Mat) colorutil.BGR {
	kernel := kernel3()
	defer kernel.Close()

	eroded := gocv.NewMat()
	defer eroded.Close()
	gocv.Erode(mask, &eroded, kernel)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(img, &blurred, image.Pt(0, 0), 5, 5, gocv.BorderDefault)

	sharpened := gocv.NewMat()
	defer sharpened.Close()
	gocv.AddWeighted(img, 1.5, blurred, -0.5, 0, &sharpened)

	mean, count := meanBGRWhere(sharpened, eroded)
	if count == 0 {
		return colorutil.SentinelBGR
	}
	return mean
}

// EstimateBackground estimates the mean background color and the population
// variance of the background grayscale values. The background region is the
// set of pixels where exclusion is zero; when dilate is true the exclusion
// mask is first dilated by one 3x3 step as a safety margin against
// foreground bleed. Returns (sentinel, -1) when no background pixels remain.
func EstimateBackground(img, exclusion gocv.Mat, dilate bool) (colorutil.BGR, float64) {
	excl := exclusion.Clone()
	defer excl.Close()
	if dilate {
		kernel := kernel3()
		defer kernel.Close()
		gocv.Dilate(excl, &excl, kernel)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	rows, cols := img.Rows(), img.Cols()
	var sumB, sumG, sumR float64
	grays := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if excl.GetUCharAt(y, x) != 0 {
				continue
			}
			vec := img.GetVecbAt(y, x)
			sumB += float64(vec[0])
			sumG += float64(vec[1])
			sumR += float64(vec[2])
			grays = append(grays, float64(gray.GetUCharAt(y, x)))
		}
	}
	if len(grays) == 0 {
		return colorutil.SentinelBGR, -1
	}

	n := float64(len(grays))
	mean := colorutil.ClampBGR(sumB/n, sumG/n, sumR/n)

	grayMean := stat.Mean(grays, nil)
	// Population variance: mean squared deviation, not the n-1 sample form.
	sd := stat.MomentAbout(2, grays, grayMean, nil)

	return mean, sd
}
