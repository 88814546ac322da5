package model

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Ivans-11/Minecraftify/logging"
)

// LoadOBJ opens a Wavefront OBJ file together with the material libraries it
// names. Library and texture paths are resolved against the directory of the
// file that references them. Missing libraries, materials and textures are
// logged to the logger attached to ctx and the affected faces fall back to
// the diffuse color or DefaultColor.
func LoadOBJ(ctx context.Context, path string) (Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rd := &objReader{
		name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		dir:  filepath.Dir(path),
		lg:   logging.FromContext(ctx),
	}
	return rd.read(f)
}

// ReadOBJ parses Wavefront OBJ geometry. Vertex colors are read from the
// common "v x y z r g b [a]" extension, with components either in [0,1] or
// [0,255]. Each "o" or "g" statement starts a new mesh, and so does a
// "usemtl" inside a group that already has faces; a file with a single mesh
// is returned as *Mesh, otherwise as a Scene. Material libraries need a
// directory to resolve against and are only read by LoadOBJ.
func ReadOBJ(r io.Reader, name string) (Geometry, error) {
	rd := &objReader{name: name, lg: logging.Default()}
	return rd.read(r)
}

type objReader struct {
	name string
	dir  string
	lg   *log.Logger

	verts     []mgl64.Vec3
	colors    []Color
	colored   []bool
	uvs       [][2]float32
	materials map[string]*objMaterial
	textures  map[string]image.Image
}

// objCorner is one face corner: a vertex index and an optional texture
// coordinate index (-1 when absent).
type objCorner struct {
	v, vt int
}

type objGroup struct {
	name     string
	base     string
	material string
	faces    [][3]objCorner
}

type objMaterial struct {
	diffuse *Color
	alpha   float64
	texture string
	dir     string
}

func (rd *objReader) read(r io.Reader) (Geometry, error) {
	var (
		cur      *objGroup
		groups   []*objGroup
		material string
	)
	rd.materials = make(map[string]*objMaterial)
	newGroup := func(name string) {
		cur = &objGroup{name: name, base: name, material: material}
		groups = append(groups, cur)
	}
	err := scanLines(r, func(line int, fields []string) error {
		switch fields[0] {
		case "v":
			v, c, ok, err := parseOBJVertex(fields[1:])
			if err != nil {
				return err
			}
			rd.verts = append(rd.verts, v)
			rd.colors = append(rd.colors, c)
			rd.colored = append(rd.colored, ok)
		case "vt":
			uv, err := parseOBJTexCoord(fields[1:])
			if err != nil {
				return err
			}
			rd.uvs = append(rd.uvs, uv)
		case "o", "g":
			gname := rd.name
			if len(fields) > 1 {
				gname = strings.Join(fields[1:], " ")
			}
			newGroup(gname)
		case "usemtl":
			if len(fields) < 2 {
				return errors.New("usemtl without a name")
			}
			material = fields[1]
			switch {
			case cur == nil:
				newGroup(rd.name)
			case len(cur.faces) > 0 && cur.material != material:
				base := cur.base
				newGroup(base + "." + material)
				cur.base = base
			default:
				cur.material = material
			}
		case "mtllib":
			for _, lib := range fields[1:] {
				rd.loadLibrary(lib)
			}
		case "f":
			if cur == nil {
				newGroup(rd.name)
			}
			corners := make([]objCorner, 0, len(fields)-1)
			for _, f := range fields[1:] {
				c, err := parseOBJCorner(f, len(rd.verts), len(rd.uvs))
				if err != nil {
					return err
				}
				corners = append(corners, c)
			}
			for k := 2; k < len(corners); k++ {
				cur.faces = append(cur.faces, [3]objCorner{corners[0], corners[k-1], corners[k]})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", rd.name, err)
	}

	var meshes []*Mesh
	for _, g := range groups {
		if len(g.faces) == 0 {
			continue
		}
		meshes = append(meshes, rd.build(g))
	}
	if len(meshes) == 1 {
		return meshes[0], nil
	}
	if len(meshes) == 0 && len(rd.verts) > 0 {
		return &PointCloud{Name: rd.name, Vertices: rd.verts, Colors: rd.colors}, nil
	}
	return Scene(meshes), nil
}

// scanLines feeds every non-blank, non-comment line to fn, prefixing errors
// with the line number.
func scanLines(r io.Reader, fn func(line int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if err := fn(line, fields); err != nil {
			return fmt.Errorf("%d: %w", line, err)
		}
	}
	return sc.Err()
}

// build compacts the shared OBJ vertex list down to the corners this group
// references, keeping first-use order. Vertex colors are kept only when every
// referenced vertex has one; otherwise the group's material describes the
// surface and ResolveColors turns it into colors later.
func (rd *objReader) build(g *objGroup) *Mesh {
	remap := make(map[objCorner]uint32)
	m := &Mesh{Name: g.name}
	colored, textured := true, true
	var colors []Color
	var uvs [][2]float32
	for _, f := range g.faces {
		var face [3]uint32
		for k, c := range f {
			ni, ok := remap[c]
			if !ok {
				ni = uint32(len(m.Vertices))
				remap[c] = ni
				m.Vertices = append(m.Vertices, rd.verts[c.v])
				colors = append(colors, rd.colors[c.v])
				colored = colored && rd.colored[c.v]
				if c.vt >= 0 {
					uvs = append(uvs, rd.uvs[c.vt])
				} else {
					textured = false
				}
			}
			face[k] = ni
		}
		m.Faces = append(m.Faces, face)
	}
	if colored {
		m.Colors = colors
		return m
	}
	if g.material == "" {
		return m
	}
	mat, ok := rd.materials[g.material]
	if !ok {
		rd.lg.Warn("material not defined", "mesh", g.name, "material", g.material)
		return m
	}
	if mat.texture != "" {
		switch img, err := rd.texture(mat); {
		case err != nil:
			rd.lg.Warn("texture not loaded", "mesh", g.name, "material", g.material, "err", err)
		case !textured:
			rd.lg.Warn("faces without texture coordinates", "mesh", g.name, "material", g.material)
		default:
			m.Texture = img
			m.UVs = uvs
			return m
		}
	}
	if mat.diffuse != nil {
		c := *mat.diffuse
		c.A = uint8(math.Round(255 * math.Max(0, math.Min(1, mat.alpha))))
		m.BaseColor = &c
	}
	return m
}

func (rd *objReader) loadLibrary(lib string) {
	if rd.dir == "" {
		rd.lg.Warn("material library needs a file path", "mtllib", lib)
		return
	}
	path := lib
	if !filepath.IsAbs(path) {
		path = filepath.Join(rd.dir, filepath.FromSlash(lib))
	}
	f, err := os.Open(path)
	if err != nil {
		rd.lg.Warn("material library not loaded", "mtllib", lib, "err", err)
		return
	}
	defer f.Close()
	if err := readMTL(f, filepath.Dir(path), rd.materials); err != nil {
		rd.lg.Warn("material library not loaded", "mtllib", lib, "err", err)
	}
}

// texture loads and caches a material's diffuse map.
func (rd *objReader) texture(mat *objMaterial) (image.Image, error) {
	path := mat.texture
	if !filepath.IsAbs(path) {
		path = filepath.Join(mat.dir, filepath.FromSlash(path))
	}
	if img, ok := rd.textures[path]; ok {
		return img, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	if rd.textures == nil {
		rd.textures = make(map[string]image.Image)
	}
	rd.textures[path] = img
	return img, nil
}

// readMTL adds the materials of one library to into. Only the statements
// that decide a surface color are read: Kd, d, Tr and map_Kd.
func readMTL(r io.Reader, dir string, into map[string]*objMaterial) error {
	var cur *objMaterial
	return scanLines(r, func(line int, fields []string) error {
		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				return errors.New("newmtl without a name")
			}
			cur = &objMaterial{alpha: 1, dir: dir}
			into[fields[1]] = cur
			return nil
		}
		if cur == nil {
			return nil
		}
		switch fields[0] {
		case "Kd":
			if len(fields) < 4 {
				return fmt.Errorf("Kd needs 3 components, got %d", len(fields)-1)
			}
			var f [4]float32
			f[3] = 1
			for i := 0; i < 3; i++ {
				x, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return fmt.Errorf("bad Kd component %q", fields[i+1])
				}
				f[i] = float32(x)
			}
			c := colorFromFactor(f)
			cur.diffuse = &c
		case "d", "Tr":
			if len(fields) < 2 {
				return fmt.Errorf("%s without a value", fields[0])
			}
			x, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return fmt.Errorf("bad %s value %q", fields[0], fields[1])
			}
			if fields[0] == "Tr" {
				x = 1 - x
			}
			cur.alpha = x
		case "map_Kd":
			// options such as -s and -o come first; the file name is last
			if len(fields) < 2 {
				return errors.New("map_Kd without a file")
			}
			cur.texture = fields[len(fields)-1]
		}
		return nil
	})
}

func parseOBJVertex(f []string) (mgl64.Vec3, Color, bool, error) {
	if len(f) < 3 {
		return mgl64.Vec3{}, Color{}, false, fmt.Errorf("vertex needs 3 coordinates, got %d", len(f))
	}
	var v mgl64.Vec3
	for i := 0; i < 3; i++ {
		x, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return v, Color{}, false, fmt.Errorf("bad vertex coordinate %q", f[i])
		}
		v[i] = x
	}
	// "v x y z w" carries a homogeneous weight, not a color
	if len(f) < 6 {
		return v, DefaultColor, false, nil
	}
	rgba := []float64{0, 0, 0, 1}
	unit := true
	for i := 3; i < len(f) && i < 7; i++ {
		x, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return v, Color{}, false, fmt.Errorf("bad vertex color %q", f[i])
		}
		rgba[i-3] = x
		if x > 1 {
			unit = false
		}
	}
	if len(f) < 7 && !unit {
		rgba[3] = 255
	}
	var c [4]uint8
	for i, x := range rgba {
		if unit {
			x *= 255
		}
		c[i] = uint8(math.Round(math.Max(0, math.Min(255, x))))
	}
	return v, Color{R: c[0], G: c[1], B: c[2], A: c[3]}, true, nil
}

// parseOBJTexCoord reads "vt u [v [w]]". OBJ puts v=0 at the bottom of the
// image, so v is flipped to the top-left origin sampleTexel expects.
func parseOBJTexCoord(f []string) ([2]float32, error) {
	if len(f) < 1 {
		return [2]float32{}, errors.New("texture coordinate needs at least 1 component")
	}
	var uv [2]float64
	for i := 0; i < 2 && i < len(f); i++ {
		x, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return [2]float32{}, fmt.Errorf("bad texture coordinate %q", f[i])
		}
		uv[i] = x
	}
	return [2]float32{float32(uv[0]), float32(1 - uv[1])}, nil
}

// parseOBJCorner reads "v", "v/vt", "v//vn" or "v/vt/vn".
func parseOBJCorner(tok string, nv, nvt int) (objCorner, error) {
	parts := strings.Split(tok, "/")
	v, err := parseOBJIndex(parts[0], nv, "face")
	if err != nil {
		return objCorner{}, err
	}
	c := objCorner{v: v, vt: -1}
	if len(parts) > 1 && parts[1] != "" {
		if c.vt, err = parseOBJIndex(parts[1], nvt, "texture"); err != nil {
			return objCorner{}, err
		}
	}
	return c, nil
}

func parseOBJIndex(tok string, n int, what string) (int, error) {
	i, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("bad %s index %q", what, tok)
	}
	if i < 0 {
		i = n + i
	} else {
		i--
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%s index %s out of range", what, tok)
	}
	return i, nil
}
