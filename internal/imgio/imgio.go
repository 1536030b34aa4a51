// Package imgio converts between Go images and gocv Mats and handles crop
// file I/O for the command-line tools.
package imgio

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"gocv.io/x/gocv"
)

// ImageToMat converts a Go image.Image to a gocv.Mat in BGR format.
func ImageToMat(img image.Image) gocv.Mat {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat
}

// MatToImage converts a BGR or single-channel Mat to a Go image.
func MatToImage(m gocv.Mat) (image.Image, error) {
	rows, cols := m.Rows(), m.Cols()
	switch m.Type() {
	case gocv.MatTypeCV8UC3:
		out := image.NewRGBA(image.Rect(0, 0, cols, rows))
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				vec := m.GetVecbAt(y, x)
				out.Set(x, y, color.RGBA{R: vec[2], G: vec[1], B: vec[0], A: 255})
			}
		}
		return out, nil
	case gocv.MatTypeCV8U:
		out := image.NewGray(image.Rect(0, 0, cols, rows))
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				out.SetGray(x, y, color.Gray{Y: m.GetUCharAt(y, x)})
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("imgio: unsupported mat type %d", int(m.Type()))
	}
}

// Load decodes an image file into a BGR Mat. Decoders must be registered by
// the caller (the CLI registers PNG, JPEG and TIFF).
func Load(path string) (gocv.Mat, error) {
	f, err := os.Open(path)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("imgio: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("imgio: decode %s: %w", path, err)
	}
	return ImageToMat(img), nil
}

// Save writes a Mat to disk; the format follows the file extension.
func Save(path string, m gocv.Mat) error {
	if ok := gocv.IMWrite(path, m); !ok {
		return fmt.Errorf("imgio: write %s failed", path)
	}
	return nil
}
