// Package led holds the pixel model shared by effects, the encoder and the drivers.
package led

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an immutable 8-bit RGB value.
type Color struct {
	R, G, B uint8
}

func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// HSV builds a color from byte-scaled hue, saturation and value.
// h maps onto [0,360) degrees, s and v onto [0,1].
func HSV(h, s, v uint8) Color {
	deg := math.Mod(float64(h)/255.0*360.0, 360.0)
	c := colorful.Hsv(deg, float64(s)/255.0, float64(v)/255.0)
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}
}

func Black() Color { return Color{} }

func White() Color { return Color{R: 255, G: 255, B: 255} }

// Mul scales every channel by f and rounds to the nearest integer.
// Fade curves keep f within [0,1]; results outside the byte range saturate.
func (c Color) Mul(f float64) Color {
	return Color{R: scale(c.R, f), G: scale(c.G, f), B: scale(c.B, f)}
}

// Half halves every channel with integer division.
func (c Color) Half() Color {
	return Color{R: c.R / 2, G: c.G / 2, B: c.B / 2}
}

func (c Color) IsBlack() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func scale(v uint8, f float64) uint8 {
	x := math.Round(float64(v) * f)
	if x <= 0 || math.IsNaN(x) {
		return 0
	}
	if x >= 255 {
		return 255
	}
	return uint8(x)
}
