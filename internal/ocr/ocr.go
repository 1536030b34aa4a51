// Package ocr provides text recognition for detected bubble regions.
package ocr

import (
	"fmt"
	"image"
	"strings"

	"bubble-cleaner/pkg/geometry"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// Recognizer maps an image region to recognized text. The segmentation core
// only produces the inputs (repaired crop, inner rectangle); recognition
// itself is pluggable.
type Recognizer interface {
	Recognize(img gocv.Mat, region geometry.RectInt) (string, error)
	Close() error
}

// Config holds explicit engine configuration. Model storage and device
// selection are deliberately not process-wide state; everything the engine
// needs is passed here.
type Config struct {
	// Language is the Tesseract language code, e.g. "eng", "jpn", "chi_sim".
	Language string
	// Whitelist restricts recognition to the given characters when non-empty.
	Whitelist string
}

// DefaultConfig returns the default recognition configuration.
func DefaultConfig() Config {
	return Config{Language: "eng"}
}

// Engine recognizes text using Tesseract.
type Engine struct {
	client *gosseract.Client
	cfg    Config
}

// NewEngine creates a recognition engine for the given configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(cfg.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("ocr: set language %q: %w", cfg.Language, err)
	}
	return &Engine{client: client, cfg: cfg}, nil
}

// Close releases Tesseract resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Recognize performs OCR on a region of a BGR Mat. The region is clamped to
// the image bounds; an empty clamped region is an error.
func (e *Engine) Recognize(img gocv.Mat, region geometry.RectInt) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("ocr: empty image")
	}

	x, y, w, h := region.X, region.Y, region.Width, region.Height
	imgH, imgW := img.Rows(), img.Cols()
	x = max(0, x)
	y = max(0, y)
	w = min(w, imgW-x)
	h = min(h, imgH-y)
	if w <= 0 || h <= 0 {
		return "", fmt.Errorf("ocr: region %v outside image bounds", region)
	}

	roi := img.Region(image.Rect(x, y, x+w, y+h))
	defer roi.Close()

	prepared := prepare(roi)
	defer prepared.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, prepared)
	if err != nil {
		return "", fmt.Errorf("ocr: encode region: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("ocr: set page seg mode: %w", err)
	}
	if e.cfg.Whitelist != "" {
		if err := e.client.SetWhitelist(e.cfg.Whitelist); err != nil {
			return "", fmt.Errorf("ocr: set whitelist: %w", err)
		}
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("ocr: set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: recognition: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// RecognizeImage performs OCR on an entire Mat.
func (e *Engine) RecognizeImage(img gocv.Mat) (string, error) {
	return e.Recognize(img, geometry.NewRectInt(0, 0, img.Cols(), img.Rows()))
}

// prepare upscales small regions and binarizes them so Tesseract sees dark
// text on a light background.
func prepare(region gocv.Mat) gocv.Mat {
	h, w := region.Rows(), region.Cols()

	var scaled gocv.Mat
	if minDim := min(h, w); minDim < 150 {
		scale := 150.0 / float64(minDim)
		scaled = gocv.NewMat()
		gocv.Resize(region, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		scaled = region.Clone()
	}

	gray := gocv.NewMat()
	gocv.CvtColor(scaled, &gray, gocv.ColorBGRToGray)
	scaled.Close()

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	gray.Close()

	// Tesseract expects dark text on light background. A mostly-dark binary
	// means the bright class is the text, so flip it.
	whiteRatio := float64(gocv.CountNonZero(binary)) / float64(binary.Rows()*binary.Cols())
	if whiteRatio < 0.5 {
		gocv.BitwiseNot(binary, &binary)
	}

	result := gocv.NewMat()
	gocv.CvtColor(binary, &result, gocv.ColorGrayToBGR)
	binary.Close()
	return result
}
