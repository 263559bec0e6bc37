package desktop

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// hexColor reads a palette colour, returning fallback when s is malformed.
func hexColor(s string, fallback color.RGBA) color.RGBA {
	c, err := colorful.Hex(s)
	if err != nil {
		return fallback
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
