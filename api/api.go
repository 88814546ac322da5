package api

import (
	"context"
	"fmt"
	"sort"

	"github.com/Ivans-11/Minecraftify/chunk"
	"github.com/Ivans-11/Minecraftify/convert"
	"github.com/Ivans-11/Minecraftify/model"
	"github.com/Ivans-11/Minecraftify/world"
	"github.com/Ivans-11/Minecraftify/world/chunkstore"
	"github.com/Ivans-11/Minecraftify/world/memstore"
)

const previewGenerator = "Minecraftify preview"

// ConvertGLB converts a .glb held in memory and returns the result as a zstd
// compressed chunk pack.
func ConvertGLB(ctx context.Context, glb []byte, opts convert.Options) ([]byte, convert.Report, error) {
	g, err := model.DecodeGLTF(glb)
	if err != nil {
		return nil, convert.Report{}, fmt.Errorf("%w: %w", convert.ErrLoad, err)
	}
	store := memstore.New()
	rep, err := convert.ConvertGeometry(ctx, g, store.Opener(), "memory", opts)
	if err != nil {
		return nil, rep, err
	}
	r, err := chunkstore.RegionFromPlacements(opts.Version, store.Persisted())
	if err != nil {
		return nil, rep, err
	}
	out, err := r.Pack(chunk.LayoutRaw, chunk.PackCompZstd)
	return out, rep, err
}

// PackToGLB renders a pack as a .glb using greedy meshing, one node per
// chunk. An empty dim renders every dimension.
func PackToGLB(pack []byte, dim world.Dimension) ([]byte, error) {
	r, err := chunkstore.UnpackRegion(pack)
	if err != nil {
		return nil, err
	}
	meshes, err := r.Meshes(dim)
	if err != nil {
		return nil, err
	}
	return model.EncodeGLB(meshes, previewGenerator)
}

// Repack re-encodes a pack with another layout and compression.
func Repack(pack []byte, layout chunk.PackLayout, comp chunk.PackCompression) ([]byte, error) {
	r, err := chunkstore.UnpackRegion(pack)
	if err != nil {
		return nil, err
	}
	return r.Pack(layout, comp)
}

// PackInfo summarises a pack.
type PackInfo struct {
	Version     string
	Compression chunk.PackCompression
	Blocks      []string
	// Chunks counts chunks per dimension.
	Chunks map[world.Dimension]int
	// Counts is the number of cells per block identifier.
	Counts       map[string]int
	PayloadBytes int
}

// Dimensions returns the dimensions present in the pack, sorted.
func (p PackInfo) Dimensions() []world.Dimension {
	out := make([]world.Dimension, 0, len(p.Chunks))
	for d := range p.Chunks {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// InspectPack decodes a pack and counts what it holds.
func InspectPack(pack []byte) (PackInfo, error) {
	p, comp, err := chunk.UnmarshalPack(pack)
	if err != nil {
		return PackInfo{}, err
	}
	r, err := chunkstore.UnpackRegion(pack)
	if err != nil {
		return PackInfo{}, err
	}
	info := PackInfo{
		Version:      r.Version,
		Compression:  comp,
		Blocks:       r.Blocks,
		Chunks:       make(map[world.Dimension]int),
		Counts:       make(map[string]int),
		PayloadBytes: p.PayloadSize(),
	}
	for id, g := range r.Chunks {
		info.Chunks[id.Dim]++
		for y := 0; y < chunk.Size; y++ {
			for x := 0; x < chunk.Size; x++ {
				for z := 0; z < chunk.Size; z++ {
					if v := g.At(x, y, z); v != 0 {
						info.Counts[r.Blocks[v-1]]++
					}
				}
			}
		}
	}
	return info, nil
}
