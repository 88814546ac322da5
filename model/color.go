package model

import (
	"fmt"
	"strconv"
)

// Color is an 8-bit RGBA value.
type Color struct {
	R, G, B, A uint8
}

// DefaultColor is assigned to geometry that carries no color information.
var DefaultColor = Color{R: 102, G: 102, B: 102, A: 255}

// RGBA builds a Color from its components.
func RGBA(r, g, b, a uint8) Color { return Color{R: r, G: g, B: b, A: a} }

// Float returns the color as normalized floats, the layout glTF COLOR_0 uses.
func (c Color) Float() [4]float32 {
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}

// Hex formats the color as #rrggbbaa.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%d)", c.R, c.G, c.B, c.A)
}

// ParseHex parses #rrggbb or #rrggbbaa. Alpha defaults to 255.
func ParseHex(hex string) (Color, error) {
	if len(hex) == 0 || hex[0] != '#' {
		return Color{}, fmt.Errorf("invalid hex color %q", hex)
	}
	h := hex[1:]
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("invalid hex color length %q", hex)
	}
	var ch [4]uint8
	ch[3] = 255
	for i := 0; i < len(h)/2; i++ {
		v, err := strconv.ParseUint(h[2*i:2*i+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		ch[i] = uint8(v)
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// scale multiplies the color by a normalized factor, as glTF base color factors do.
func (c Color) scale(f [4]float32) Color {
	mul := func(v uint8, k float32) uint8 {
		x := float32(v) * k
		if x <= 0 {
			return 0
		}
		if x >= 255 {
			return 255
		}
		return uint8(x + 0.5)
	}
	return Color{R: mul(c.R, f[0]), G: mul(c.G, f[1]), B: mul(c.B, f[2]), A: mul(c.A, f[3])}
}

func colorFromFactor(f [4]float32) Color {
	return Color{R: 255, G: 255, B: 255, A: 255}.scale(f)
}
