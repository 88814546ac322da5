package chunkstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Ivans-11/Minecraftify/palette"
	"github.com/Ivans-11/Minecraftify/world"
)

const (
	manifestName = "level.yaml"
	formatV1     = 1
)

// Manifest is the level.yaml at the root of a world directory.
type Manifest struct {
	Format     int               `yaml:"format"`
	Version    string            `yaml:"version"`
	Dimensions []world.Dimension `yaml:"dimensions"`
	// Generation increases every time Blocks grows.
	Generation uint16 `yaml:"generation"`
	// Blocks is the world palette; chunk value i+1 is Blocks[i].
	Blocks []string `yaml:"blocks"`
}

// NewManifest describes an empty world whose palette is the full block
// registry.
func NewManifest(ver world.GameVersion) Manifest {
	m := Manifest{
		Format:     formatV1,
		Version:    ver.String(),
		Dimensions: append([]world.Dimension(nil), world.DefaultDimensions...),
	}
	for _, e := range palette.All() {
		m.Blocks = append(m.Blocks, e.ID)
	}
	return m
}

func (m Manifest) validate() error {
	if m.Format != formatV1 {
		return fmt.Errorf("unsupported world format %d", m.Format)
	}
	if len(m.Dimensions) == 0 {
		return fmt.Errorf("world has no dimensions")
	}
	if len(m.Blocks) > maxBlocks {
		return fmt.Errorf("world palette has %d blocks, limit is %d", len(m.Blocks), maxBlocks)
	}
	seen := make(map[string]bool, len(m.Blocks))
	for _, b := range m.Blocks {
		if seen[b] {
			return fmt.Errorf("world palette lists %s twice", b)
		}
		seen[b] = true
	}
	return nil
}

func loadManifest(dir string) (Manifest, error) {
	var m Manifest
	raw, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return m, fmt.Errorf("%w: %s has no %s", world.ErrNotWorld, dir, manifestName)
		}
		return m, err
	}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("%w: %s: %w", world.ErrNotWorld, manifestName, err)
	}
	if err := m.validate(); err != nil {
		return m, fmt.Errorf("%w: %s: %w", world.ErrNotWorld, manifestName, err)
	}
	return m, nil
}

func writeManifest(dir string, m Manifest) error {
	raw, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, manifestName), raw)
}

// writeFileAtomic writes to a temp file in the same directory and renames
// it over path.
func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
