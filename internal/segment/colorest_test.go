package segment

import (
	"testing"

	"bubble-cleaner/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocv.io/x/gocv"
)

func TestEstimateBackgroundUniform(t *testing.T) {
	img := uniformMat(50, 50, 200, 200, 200)
	defer img.Close()
	exclusion := gocv.NewMatWithSize(50, 50, gocv.MatTypeCV8U)
	defer exclusion.Close()

	bg, sd := EstimateBackground(img, exclusion, true)
	require.True(t, bg.Valid())
	assert.True(t, colorNear(bg, colorutil.BGR{B: 200, G: 200, R: 200}, 1), "got %v", bg)
	assert.InDelta(t, 0, sd, 0.01)
}

func TestEstimateBackgroundFullExclusion(t *testing.T) {
	// All pixels excluded: degenerate but legal, must yield sentinels.
	for _, v := range []float64{0, 255} {
		img := uniformMat(20, 20, v, v, v)
		exclusion := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 20, 20, gocv.MatTypeCV8U)

		bg, sd := EstimateBackground(img, exclusion, true)
		assert.Equal(t, colorutil.SentinelBGR, bg)
		assert.Equal(t, float64(-1), sd)

		img.Close()
		exclusion.Close()
	}
}

func TestEstimateBackgroundDilationMargin(t *testing.T) {
	img := uniformMat(20, 20, 100, 100, 100)
	defer img.Close()
	fillRect(&img, 8, 8, 12, 12, 0, 0, 0)

	exclusion := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8U)
	defer exclusion.Close()
	fillMaskRect(&exclusion, 8, 8, 12, 12)

	// Without the dilated margin the mean would still be exact; with it the
	// ring of pixels around the excluded block is dropped too, so the
	// result stays the clean background color either way.
	bg, sd := EstimateBackground(img, exclusion, true)
	require.True(t, bg.Valid())
	assert.True(t, colorNear(bg, colorutil.BGR{B: 100, G: 100, R: 100}, 1), "got %v", bg)
	assert.InDelta(t, 0, sd, 0.01)
}

func TestEstimateBackgroundVariance(t *testing.T) {
	// Two equally frequent gray levels 90 and 110: population variance 100.
	img := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer img.Close()
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			v := uint8(90)
			if (x+y)%2 == 0 {
				v = 110
			}
			img.SetUCharAt(y, x*3+0, v)
			img.SetUCharAt(y, x*3+1, v)
			img.SetUCharAt(y, x*3+2, v)
		}
	}
	exclusion := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8U)
	defer exclusion.Close()

	bg, sd := EstimateBackground(img, exclusion, false)
	require.True(t, bg.Valid())
	assert.True(t, colorNear(bg, colorutil.BGR{B: 100, G: 100, R: 100}, 1), "got %v", bg)
	assert.InDelta(t, 100, sd, 1)
}

func TestForegroundOtsuTwoTone(t *testing.T) {
	img := uniformMat(100, 100, 255, 255, 255)
	defer img.Close()
	fillRect(&img, 35, 40, 65, 60, 0, 0, 0)

	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 100, 100, gocv.MatTypeCV8U)
	defer mask.Close()

	fg, refined := ForegroundOtsu(img, mask, colorutil.BGR{B: 255, G: 255, R: 255})
	defer refined.Close()

	require.True(t, fg.Valid())
	assert.True(t, colorNear(fg, colorutil.BGR{B: 0, G: 0, R: 0}, 2), "got %v", fg)

	box := maskBoundingBox(refined)
	require.True(t, box.Valid())
	assert.InDelta(t, 35, box.X, 1)
	assert.InDelta(t, 40, box.Y, 1)
	assert.InDelta(t, 30, box.Width, 2)
	assert.InDelta(t, 20, box.Height, 2)
}

func TestForegroundOtsuEmptySelection(t *testing.T) {
	img := uniformMat(30, 30, 128, 128, 128)
	defer img.Close()
	mask := gocv.NewMatWithSize(30, 30, gocv.MatTypeCV8U)
	defer mask.Close()

	fg, refined := ForegroundOtsu(img, mask, colorutil.BGR{B: 128, G: 128, R: 128})
	defer refined.Close()

	assert.Equal(t, colorutil.SentinelBGR, fg)
	assert.Equal(t, 30, refined.Rows())
	assert.Equal(t, 30, refined.Cols())
}

func TestForegroundSharpenedSolid(t *testing.T) {
	img := uniformMat(60, 60, 250, 250, 250)
	defer img.Close()
	fillRect(&img, 15, 20, 45, 40, 5, 5, 5)

	mask := gocv.NewMatWithSize(60, 60, gocv.MatTypeCV8U)
	defer mask.Close()
	fillMaskRect(&mask, 15, 20, 45, 40)

	fg := ForegroundSharpened(img, mask)
	require.True(t, fg.Valid())
	// Erosion keeps the mean on the stroke interior, away from edge bleed.
	assert.Less(t, fg.B, 40)
	assert.Less(t, fg.G, 40)
	assert.Less(t, fg.R, 40)
}

func TestForegroundSharpenedEmptyMask(t *testing.T) {
	img := uniformMat(20, 20, 10, 10, 10)
	defer img.Close()
	mask := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8U)
	defer mask.Close()

	assert.Equal(t, colorutil.SentinelBGR, ForegroundSharpened(img, mask))
}

func TestColorTripleNeverPartiallyValid(t *testing.T) {
	// Estimators either return the full sentinel or a fully in-range triple.
	cases := []colorutil.BGR{}

	img := uniformMat(20, 20, 0, 0, 0)
	defer img.Close()
	full := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 20, 20, gocv.MatTypeCV8U)
	defer full.Close()
	empty := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8U)
	defer empty.Close()

	bg1, _ := EstimateBackground(img, full, true)
	bg2, _ := EstimateBackground(img, empty, true)
	fg1, r1 := ForegroundOtsu(img, full, colorutil.BGR{B: 0, G: 0, R: 0})
	r1.Close()
	cases = append(cases, bg1, bg2, fg1, ForegroundSharpened(img, empty))

	for _, c := range cases {
		if c.Valid() {
			assert.True(t, c.B <= 255 && c.G <= 255 && c.R <= 255)
		} else {
			assert.Equal(t, colorutil.SentinelBGR, c)
		}
	}
}
