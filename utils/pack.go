package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"

	"github.com/Ivans-11/Minecraftify/chunk"
	"github.com/Ivans-11/Minecraftify/world/chunkstore"
)

// ParseLayout accepts "raw" and "cdc".
func ParseLayout(s string) (chunk.PackLayout, error) {
	switch strings.ToLower(s) {
	case "raw", "":
		return chunk.LayoutRaw, nil
	case "cdc":
		return chunk.LayoutCDC, nil
	}
	return 0, fmt.Errorf("unknown pack layout %q (want raw or cdc)", s)
}

// RunPack writes every chunk of a world (chunk directory or SQLite file)
// into one pack file.
func RunPack(w io.Writer, worldPath, outPath string, layout chunk.PackLayout, comp chunk.PackCompression) error {
	r, err := LoadRegion(worldPath)
	if err != nil {
		return err
	}
	start := time.Now()
	data, err := r.Pack(layout, comp)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d chunks, %s blocks, %s (%s) in %d ms\n",
		outPath, len(r.Chunks), humanize.Comma(int64(r.BlockCount())), humanize.Bytes(uint64(len(data))), comp, time.Since(start).Milliseconds())
	return nil
}

// RunUnpack restores a pack as a new world of the given store kind.
func RunUnpack(packPath, worldPath, kind string) error {
	data, err := os.ReadFile(packPath)
	if err != nil {
		return err
	}
	r, err := chunkstore.UnpackRegion(data)
	if err != nil {
		return err
	}
	return writeRegion(r, worldPath, kind)
}
