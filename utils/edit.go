package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Ivans-11/Minecraftify/world"
)

// editsJSON is { "<dimension>": { "<x>,<y>,<z>": "<block id>", ... }, ... }
type editsJSON map[string]map[string]string

type edit struct {
	dim     world.Dimension
	x, y, z int
	block   string
}

func parseEdits(blob []byte) ([]edit, error) {
	var raw editsJSON
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, fmt.Errorf("invalid edits JSON: %w", err)
	}
	var out []edit
	for dim, cells := range raw {
		for key, block := range cells {
			parts := strings.Split(key, ",")
			if len(parts) != 3 {
				return nil, fmt.Errorf("edit %q: want x,y,z", key)
			}
			var xyz [3]int
			for i, p := range parts {
				n, err := strconv.Atoi(strings.TrimSpace(p))
				if err != nil {
					return nil, fmt.Errorf("edit %q: %w", key, err)
				}
				xyz[i] = n
			}
			out = append(out, edit{world.Dimension(dim), xyz[0], xyz[1], xyz[2], block})
		}
	}
	// JSON objects are unordered; apply in a stable order
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.dim != b.dim {
			return a.dim < b.dim
		}
		if a.x != b.x {
			return a.x < b.x
		}
		if a.y != b.y {
			return a.y < b.y
		}
		return a.z < b.z
	})
	return out, nil
}

// RunApplyEdits places the blocks listed in a JSON edits file into an
// existing world and persists them together. Nothing is written when any
// edit is rejected.
func RunApplyEdits(worldPath, editsPath, kind string, ver world.GameVersion) (int, error) {
	blob, err := os.ReadFile(editsPath)
	if err != nil {
		return 0, err
	}
	edits, err := parseEdits(blob)
	if err != nil {
		return 0, err
	}
	open, err := opener(kind, false, ver)
	if err != nil {
		return 0, err
	}
	s, err := open(worldPath)
	if err != nil {
		return 0, err
	}
	defer s.Close()
	for _, e := range edits {
		if err := s.SetBlock(e.x, e.y, e.z, e.dim, ver, e.block); err != nil {
			return 0, fmt.Errorf("%s (%d,%d,%d): %w", e.dim, e.x, e.y, e.z, err)
		}
	}
	if err := s.Persist(); err != nil {
		return 0, err
	}
	return len(edits), nil
}
