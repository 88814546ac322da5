package model

import (
	"bytes"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// EncodeGLB writes meshes as a binary glTF with one node per mesh. Colors go
// to COLOR_0; normals are flat per face.
func EncodeGLB(meshes []*Mesh, generator string) ([]byte, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = generator

	translucent := false
	for _, m := range meshes {
		for _, c := range m.Colors {
			if c.A < 255 {
				translucent = true
			}
		}
	}
	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float32{1, 1, 1, 1},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	material := &gltf.Material{PBRMetallicRoughness: pbr, AlphaMode: gltf.AlphaOpaque}
	if translucent {
		material.AlphaMode = gltf.AlphaBlend
	}
	doc.Materials = []*gltf.Material{material}

	for _, m := range meshes {
		if len(m.Vertices) == 0 {
			continue
		}
		m.ResolveColors()
		positions := make([][3]float32, len(m.Vertices))
		for i, v := range m.Vertices {
			positions[i] = [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
		}
		colors := make([][4]uint8, len(m.Colors))
		for i, c := range m.Colors {
			colors[i] = [4]uint8{c.R, c.G, c.B, c.A}
		}
		indices := make([]uint32, 0, len(m.Faces)*3)
		for _, f := range m.Faces {
			indices = append(indices, f[0], f[1], f[2])
		}

		prim := &gltf.Primitive{
			Attributes: map[string]uint32{
				gltf.POSITION: uint32(modeler.WritePosition(doc, positions)),
				gltf.COLOR_0:  uint32(modeler.WriteColor(doc, colors)),
			},
			Material: gltf.Index(0),
		}
		if len(indices) > 0 {
			prim.Attributes[gltf.NORMAL] = uint32(modeler.WriteNormal(doc, flatNormals(positions, indices)))
			prim.Indices = gltf.Index(uint32(modeler.WriteIndices(doc, indices)))
		} else {
			prim.Mode = gltf.PrimitivePoints
		}
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: m.Name, Primitives: []*gltf.Primitive{prim}})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: m.Name, Mesh: gltf.Index(uint32(len(doc.Meshes) - 1))})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	}

	var out bytes.Buffer
	enc := gltf.NewEncoder(&out)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func flatNormals(positions [][3]float32, indices []uint32) [][3]float32 {
	normals := make([][3]float32, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		v0, v1, v2 := indices[i], indices[i+1], indices[i+2]
		p0, p1, p2 := positions[v0], positions[v1], positions[v2]
		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
		n := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		length := float32(math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
		if length > 0 {
			n[0] /= length
			n[1] /= length
			n[2] /= length
		}
		normals[v0] = n
		normals[v1] = n
		normals[v2] = n
	}
	return normals
}
