package model

import (
	"image"
	"image/color"
	"math"

	// texture formats beyond png/jpeg that glTF extensions reference
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	_ "image/jpeg"
	_ "image/png"
)

// ResolveColors converts texture based appearance into per-vertex colors.
// Meshes that already carry vertex colors are left untouched, so calling it
// twice is harmless.
func (m *Mesh) ResolveColors() {
	if m.HasColors() {
		return
	}
	base := DefaultColor
	factor := [4]float32{1, 1, 1, 1}
	if m.BaseColor != nil {
		base = *m.BaseColor
		factor = base.Float()
	}
	colors := make([]Color, len(m.Vertices))
	switch {
	case m.Texture != nil && len(m.UVs) == len(m.Vertices):
		for i, uv := range m.UVs {
			colors[i] = sampleTexel(m.Texture, uv).scale(factor)
		}
	default:
		for i := range colors {
			colors[i] = base
		}
	}
	m.Colors = colors
}

// sampleTexel returns the nearest texel for a glTF uv coordinate, wrapping
// outside [0,1) like the default REPEAT sampler.
func sampleTexel(img image.Image, uv [2]float32) Color {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return DefaultColor
	}
	u := wrap(float64(uv[0]))
	v := wrap(float64(uv[1]))
	x := b.Min.X + min(int(u*float64(w)), w-1)
	y := b.Min.Y + min(int(v*float64(h)), h-1)
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

func wrap(f float64) float64 {
	f -= math.Floor(f)
	if f < 0 || f >= 1 {
		return 0
	}
	return f
}
