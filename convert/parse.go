package convert

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Ivans-11/Minecraftify/transform"
	"github.com/Ivans-11/Minecraftify/world"
)

// ParseVec3 reads "x,y,z". Surrounding parentheses or brackets and blanks
// around the numbers are allowed; anything else is an ErrConfiguration.
func ParseVec3(s string) (mgl64.Vec3, error) {
	body := strings.TrimSpace(s)
	if n := len(body); n >= 2 && (body[0] == '(' && body[n-1] == ')' || body[0] == '[' && body[n-1] == ']') {
		body = body[1 : n-1]
	}
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return mgl64.Vec3{}, configErrorf("%q: want three comma separated numbers", s)
	}
	var v mgl64.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return mgl64.Vec3{}, configErrorf("%q: component %d is not a finite number", s, i+1)
		}
		v[i] = f
	}
	return v, nil
}

// ParseRotation reads "x,y,z" Euler angles in degrees.
func ParseRotation(s string) (transform.Rotation, error) {
	v, err := ParseVec3(s)
	if err != nil {
		return transform.Rotation{}, err
	}
	return transform.Rotation{X: v[0], Y: v[1], Z: v[2]}, nil
}

// ParseVersion reads "major.minor.patch" for the given edition.
func ParseVersion(edition, s string) (world.GameVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return world.GameVersion{}, configErrorf("version %q: want major.minor.patch", s)
	}
	var n [3]uint32
	for i, p := range parts {
		u, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return world.GameVersion{}, configErrorf("version %q: %q is not a non-negative integer", s, p)
		}
		n[i] = uint32(u)
	}
	v := world.GameVersion{Edition: edition, Major: n[0], Minor: n[1], Patch: n[2]}
	if err := v.Validate(); err != nil {
		return world.GameVersion{}, configErrorf("%v", err)
	}
	return v, nil
}
