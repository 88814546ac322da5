package utils

import (
	"fmt"
	"os"

	"github.com/Ivans-11/Minecraftify/model"
	"github.com/Ivans-11/Minecraftify/world"
)

// RunPreview renders a world or chunk pack as a .glb, one node per chunk.
// An empty dim renders every dimension.
func RunPreview(inPath, outPath string, dim world.Dimension) error {
	r, err := LoadRegion(inPath)
	if err != nil {
		return err
	}
	meshes, err := r.Meshes(dim)
	if err != nil {
		return err
	}
	if len(meshes) == 0 {
		return fmt.Errorf("%s: nothing to preview", inPath)
	}
	glb, err := model.EncodeGLB(meshes, "Minecraftify preview")
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, glb, 0o644)
}
