package model

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// FileSource loads a model file, picking the reader by extension.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (Geometry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch ext := strings.ToLower(filepath.Ext(s.Path)); ext {
	case ".glb", ".gltf":
		return LoadGLTF(ctx, s.Path)
	case ".obj":
		return LoadOBJ(ctx, s.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, ext)
	}
}

// Loaded wraps geometry that is already in memory.
type Loaded struct {
	Geometry Geometry
}

func (s Loaded) Load(ctx context.Context) (Geometry, error) {
	return s.Geometry, ctx.Err()
}
