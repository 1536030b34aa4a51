// Package render draws replacement text into a repaired bubble crop using
// the colors and inner rectangle produced by segmentation.
package render

import (
	"fmt"
	"image"
	"strings"

	"bubble-cleaner/pkg/colorutil"
	"bubble-cleaner/pkg/geometry"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Options configures text rendering.
type Options struct {
	// FontPath points to a TTF file. When empty a small built-in bitmap
	// face is used and no size fitting happens.
	FontPath string
	// LineSpacing multiplies the font line height. Defaults to 1.2.
	LineSpacing float64
	// MaxFontSize caps the fitted font size in points. Defaults to 72.
	MaxFontSize float64
}

// DefaultOptions returns the default rendering options.
func DefaultOptions() Options {
	return Options{LineSpacing: 1.2, MaxFontSize: 72}
}

// Text draws the string centered and word-wrapped inside rect, filled with
// the given color, and returns the composited image. With a TTF font the
// size is fitted by shrinking until the wrapped block stays inside the
// rectangle. The input image is not modified.
func Text(img image.Image, rect geometry.RectInt, text string, fg colorutil.BGR, opts Options) (image.Image, error) {
	if !rect.Valid() {
		return nil, fmt.Errorf("render: invalid target rectangle %v", rect)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return img, nil
	}
	if opts.LineSpacing <= 0 {
		opts.LineSpacing = 1.2
	}
	if opts.MaxFontSize <= 0 {
		opts.MaxFontSize = 72
	}

	dc := gg.NewContextForImage(img)
	c := fg.ToRGBA()
	dc.SetRGB255(int(c.R), int(c.G), int(c.B))

	w := float64(rect.Width)
	h := float64(rect.Height)
	if opts.FontPath == "" {
		dc.SetFontFace(basicfont.Face7x13)
	} else if err := fitFontFace(dc, opts, text, w, h); err != nil {
		return nil, err
	}

	cx := float64(rect.X) + w/2
	cy := float64(rect.Y) + h/2
	dc.DrawStringWrapped(text, cx, cy, 0.5, 0.5, w, opts.LineSpacing, gg.AlignCenter)

	return dc.Image(), nil
}

// fitFontFace loads the TTF face at decreasing sizes until the wrapped text
// block fits the target box.
func fitFontFace(dc *gg.Context, opts Options, text string, w, h float64) error {
	for size := opts.MaxFontSize; size >= 6; size -= 2 {
		if err := dc.LoadFontFace(opts.FontPath, size); err != nil {
			return fmt.Errorf("render: load font %s: %w", opts.FontPath, err)
		}
		lines := dc.WordWrap(text, w)
		fits := true
		var blockH float64
		for _, line := range lines {
			lw, lh := dc.MeasureString(line)
			if lw > w {
				fits = false
				break
			}
			blockH += lh * opts.LineSpacing
		}
		if fits && blockH <= h {
			return nil
		}
	}
	// Smallest size still does not fit; draw anyway rather than fail.
	return dc.LoadFontFace(opts.FontPath, 6)
}
