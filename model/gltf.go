package model

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Ivans-11/Minecraftify/logging"
)

// LoadGLTF opens a .gltf or .glb file. Relative image URIs are resolved
// against the file's directory. Skipped content is logged to the logger
// attached to ctx.
func LoadGLTF(ctx context.Context, path string) (Geometry, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return fromDocument(doc, filepath.Dir(path), logging.FromContext(ctx))
}

// DecodeGLTF reads a self-contained glTF document (typically a .glb) from
// memory.
func DecodeGLTF(data []byte) (Geometry, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}
	return fromDocument(doc, "", logging.Default())
}

// FromDocument converts an already decoded glTF document.
func FromDocument(doc *gltf.Document) (Geometry, error) {
	return fromDocument(doc, "", logging.Default())
}

func fromDocument(doc *gltf.Document, dir string, lg *log.Logger) (Geometry, error) {
	var (
		meshes []*Mesh
		cloud  *PointCloud
		points int
	)
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			name := primitiveName(gm.Name, mi, pi, len(gm.Primitives))
			switch prim.Mode {
			case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
				m, err := readPrimitive(doc, dir, prim, name)
				if err != nil {
					return nil, err
				}
				if len(m.Vertices) == 0 {
					lg.Warn("primitive has no vertices", "mesh", name)
				}
				meshes = append(meshes, m)
			case gltf.PrimitivePoints:
				m, err := readPrimitive(doc, dir, prim, name)
				if err != nil {
					return nil, err
				}
				m.ResolveColors()
				if cloud == nil {
					cloud = &PointCloud{Name: name}
				}
				cloud.Vertices = append(cloud.Vertices, m.Vertices...)
				cloud.Colors = append(cloud.Colors, m.Colors...)
				points++
			case gltf.PrimitiveLines, gltf.PrimitiveLineLoop, gltf.PrimitiveLineStrip:
				lg.Warn("line primitive skipped", "mesh", name)
			}
		}
	}
	if len(meshes) > 0 && cloud != nil {
		lg.Warn("point primitives skipped in a file with triangle meshes",
			"primitives", points, "points", len(cloud.Vertices))
	}
	switch {
	case len(meshes) == 1:
		return meshes[0], nil
	case len(meshes) == 0 && cloud != nil:
		return cloud, nil
	default:
		return Scene(meshes), nil
	}
}

func primitiveName(mesh string, mi, pi, count int) string {
	if mesh == "" {
		mesh = fmt.Sprintf("mesh%d", mi)
	}
	if count > 1 {
		return fmt.Sprintf("%s.%d", mesh, pi)
	}
	return mesh
}

func readPrimitive(doc *gltf.Document, dir string, prim *gltf.Primitive, name string) (*Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("%s: primitive has no POSITION attribute", name)
	}
	pos, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("%s: read positions: %w", name, err)
	}
	m := &Mesh{Name: name, Vertices: make([]mgl64.Vec3, len(pos))}
	for i, p := range pos {
		m.Vertices[i] = mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
	}

	if ci, ok := prim.Attributes[gltf.COLOR_0]; ok {
		cols, err := modeler.ReadColor(doc, doc.Accessors[ci], nil)
		if err != nil {
			return nil, fmt.Errorf("%s: read colors: %w", name, err)
		}
		m.Colors = make([]Color, len(cols))
		for i, c := range cols {
			m.Colors[i] = Color{R: c[0], G: c[1], B: c[2], A: c[3]}
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("%s: read indices: %w", name, err)
		}
	} else {
		indices = make([]uint32, len(pos))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	m.Faces = triangulate(prim.Mode, indices)

	if prim.Material != nil && int(*prim.Material) < len(doc.Materials) {
		if err := readMaterial(doc, dir, doc.Materials[*prim.Material], prim, m); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	if len(m.Vertices) == 0 {
		return m, nil
	}
	return m, m.Validate()
}

func triangulate(mode gltf.PrimitiveMode, idx []uint32) [][3]uint32 {
	var faces [][3]uint32
	switch mode {
	case gltf.PrimitiveTriangleStrip:
		for i := 2; i < len(idx); i++ {
			if i%2 == 0 {
				faces = append(faces, [3]uint32{idx[i-2], idx[i-1], idx[i]})
			} else {
				faces = append(faces, [3]uint32{idx[i-1], idx[i-2], idx[i]})
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 2; i < len(idx); i++ {
			faces = append(faces, [3]uint32{idx[0], idx[i-1], idx[i]})
		}
	case gltf.PrimitivePoints:
	default:
		faces = make([][3]uint32, 0, len(idx)/3)
		for i := 0; i+2 < len(idx); i += 3 {
			faces = append(faces, [3]uint32{idx[i], idx[i+1], idx[i+2]})
		}
	}
	return faces
}

func readMaterial(doc *gltf.Document, dir string, mat *gltf.Material, prim *gltf.Primitive, m *Mesh) error {
	pbr := mat.PBRMetallicRoughness
	if pbr == nil {
		return nil
	}
	if pbr.BaseColorFactor != nil {
		c := colorFromFactor(*pbr.BaseColorFactor)
		m.BaseColor = &c
	}
	ti := pbr.BaseColorTexture
	if ti == nil || m.HasColors() || int(ti.Index) >= len(doc.Textures) {
		return nil
	}
	uvIdx, ok := prim.Attributes[fmt.Sprintf("TEXCOORD_%d", ti.TexCoord)]
	if !ok {
		return nil
	}
	uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
	if err != nil {
		return fmt.Errorf("read texture coordinates: %w", err)
	}
	src := doc.Textures[ti.Index].Source
	if src == nil || int(*src) >= len(doc.Images) {
		return nil
	}
	img, err := readImage(doc, dir, doc.Images[*src])
	if err != nil {
		return err
	}
	m.UVs = uvs
	m.Texture = img
	return nil
}

func readImage(doc *gltf.Document, dir string, img *gltf.Image) (image.Image, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case img.BufferView != nil:
		data, err = modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
	case img.IsEmbeddedResource():
		data, err = img.MarshalData()
	case dir != "":
		var p string
		if p, err = url.PathUnescape(img.URI); err == nil {
			data, err = os.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
		}
	default:
		return nil, fmt.Errorf("image %q is not embedded", img.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return decodeImage(data)
}

func decodeImage(data []byte) (image.Image, error) {
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return decoded, nil
}
