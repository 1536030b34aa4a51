// Package colorutil provides shared color types and utilities for the bubble cleaner.
package colorutil

import (
	"image/color"
)

// Common overlay colors used for mask drawing and debug visualization.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// BGR is a color triple in OpenCV channel order. Components are either all
// in [0,255] or all -1, the sentinel for "undeterminable" (a mask that
// selected zero pixels).
type BGR struct {
	B int `json:"b"`
	G int `json:"g"`
	R int `json:"r"`
}

// SentinelBGR marks a color that could not be estimated.
var SentinelBGR = BGR{B: -1, G: -1, R: -1}

// Valid reports whether the triple holds a real color.
func (c BGR) Valid() bool {
	return c.B >= 0 && c.G >= 0 && c.R >= 0
}

// Luma returns the BT.601 grayscale value of the color.
func (c BGR) Luma() float64 {
	return 0.114*float64(c.B) + 0.587*float64(c.G) + 0.299*float64(c.R)
}

// ToRGBA converts the triple to a color.RGBA for drawing. The sentinel
// converts to opaque black.
func (c BGR) ToRGBA() color.RGBA {
	if !c.Valid() {
		return Black
	}
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 255}
}

// ClampBGR builds a BGR triple from float components, clamping to [0,255]
// and rounding to the nearest integer.
func ClampBGR(b, g, r float64) BGR {
	return BGR{B: clamp255(b), G: clamp255(g), R: clamp255(r)}
}

func clamp255(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int(v + 0.5)
}
