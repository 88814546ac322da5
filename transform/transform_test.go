package transform

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestIdentityTruncates(t *testing.T) {
	points := []mgl64.Vec3{
		{0, 0, 0},
		{1.9, 2.1, 3},
		{-1.9, -0.5, -2.0},
		{12.999, -12.999, 0.0001},
	}
	for _, p := range points {
		got := Transform(p, Rotation{}, 1, mgl64.Vec3{})
		want := [3]int{int(math.Trunc(p[0])), int(math.Trunc(p[1])), int(math.Trunc(p[2]))}
		assert.Equal(t, want, got, "%v", p)
	}
	assert.Equal(t, [3]int{0, 0, -1}, Transform(mgl64.Vec3{0.9, -0.9, -1.2}, Rotation{}, 1, mgl64.Vec3{}))
}

func TestOffsetLinearity(t *testing.T) {
	points := []mgl64.Vec3{{0, 0, 0}, {3, 4, 5}, {-2, 7, -9}, {10, 0, 1}}
	starts := []mgl64.Vec3{{0, -60, 0}, {100, 64, -100}, {-5, -5, -5}}
	for _, p := range points {
		base := Transform(p, Rotation{}, 1, mgl64.Vec3{})
		for _, s := range starts {
			got := Transform(p, Rotation{}, 1, s)
			assert.Equal(t, [3]int{base[0] + int(s[0]), base[1] + int(s[1]), base[2] + int(s[2])}, got, "p=%v s=%v", p, s)
		}
	}
}

// truncation happens after the offset is added
func TestTruncateAfterOffset(t *testing.T) {
	got := Transform(mgl64.Vec3{0.5, 0, 0}, Rotation{}, 1, mgl64.Vec3{0.6, 0, 0})
	assert.Equal(t, [3]int{1, 0, 0}, got)
}

func TestRotationY90(t *testing.T) {
	got := Transform(mgl64.Vec3{1, 0, 0}, Rotation{Y: 90}, 1, mgl64.Vec3{})
	assert.Equal(t, [3]int{0, 0, -1}, got)

	exact := New(Rotation{Y: 90}, 1, mgl64.Vec3{}).Exact(mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, 0, exact[0], 1e-12)
	assert.InDelta(t, 0, exact[1], 1e-12)
	assert.InDelta(t, -1, exact[2], 1e-12)
}

func TestRotationOrder(t *testing.T) {
	// X then Z: (0,1,0) -> (0,0,1) -> (0,0,1)
	// a Z-first order would give (-1,0,0) -> (-1,0,0)
	exact := New(Rotation{X: 90, Z: 90}, 1, mgl64.Vec3{}).Exact(mgl64.Vec3{0, 1, 0})
	assert.InDelta(t, 0, exact[0], 1e-12)
	assert.InDelta(t, 0, exact[1], 1e-12)
	assert.InDelta(t, 1, exact[2], 1e-12)
}

func TestPitchScales(t *testing.T) {
	got := Transform(mgl64.Vec3{0.5, 1, -1.5}, Rotation{}, 0.5, mgl64.Vec3{0, -60, 0})
	assert.Equal(t, [3]int{1, -58, -3}, got)
	assert.True(t, Rotation{}.IsZero())
	assert.Equal(t, "(0,90,0)", Rotation{Y: 90}.String())
}
