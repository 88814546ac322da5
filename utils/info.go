package utils

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	humanize "github.com/dustin/go-humanize"

	"github.com/Ivans-11/Minecraftify/world"
)

// RunInfo describes a world or pack: version, palette, chunks per dimension
// and the most used blocks.
func RunInfo(w io.Writer, path string) error {
	r, err := LoadRegion(path)
	if err != nil {
		return err
	}
	size, err := diskSize(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "  version   %s\n", r.Version)
	fmt.Fprintf(w, "  size      %s\n", humanize.Bytes(uint64(size)))
	fmt.Fprintf(w, "  palette   %d blocks\n", len(r.Blocks))
	fmt.Fprintf(w, "  blocks    %s\n", humanize.Comma(int64(r.BlockCount())))

	perDim := make(map[world.Dimension]int)
	var dims []world.Dimension
	counts := make(map[string]int)
	for _, id := range r.IDs() {
		if perDim[id.Dim] == 0 {
			dims = append(dims, id.Dim)
		}
		perDim[id.Dim]++
		g := r.Chunks[id]
		for y := range g {
			for x := range g[y] {
				for _, v := range g[y][x] {
					if v != 0 {
						counts[r.Blocks[v-1]]++
					}
				}
			}
		}
	}
	for _, d := range dims {
		fmt.Fprintf(w, "  %-9s %d chunks\n", d, perDim[d])
	}
	printCounts(w, counts, 10)
	return nil
}

// diskSize is the file size, or the total of a directory tree.
func diskSize(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
