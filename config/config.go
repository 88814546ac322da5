// Package config reads the optional YAML run file of the convert command.
//
//	start: [0, -60, 0]       # or "0,-60,0"
//	rotate: "0,90,0"
//	pitch: 0.5
//	edition: java
//	version: 1.20.1
//	categories: {glass: false}
//	dimension: overworld
//	fill: true
//	workers: 4
//	store: chunk
//	create: true
//	log_level: debug
//
// Every field is optional; absent fields keep the value they had before the
// file was applied.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/Ivans-11/Minecraftify/convert"
	"github.com/Ivans-11/Minecraftify/palette"
	"github.com/Ivans-11/Minecraftify/transform"
	"github.com/Ivans-11/Minecraftify/world"
)

// File is the decoded run file.
type File struct {
	Start      *Vec3           `yaml:"start"`
	Rotate     *Vec3           `yaml:"rotate"`
	Pitch      *float64        `yaml:"pitch"`
	Edition    string          `yaml:"edition"`
	Version    string          `yaml:"version"`
	Categories map[string]bool `yaml:"categories"`
	Dimension  string          `yaml:"dimension"`
	Fill       *bool           `yaml:"fill"`
	Workers    int             `yaml:"workers"`
	QueueSize  int             `yaml:"queue_size"`
	BatchSize  int             `yaml:"batch_size"`

	Store    string `yaml:"store"`
	Create   *bool  `yaml:"create"`
	LogLevel string `yaml:"log_level"`
}

// Vec3 decodes from a three element sequence or an "x,y,z" string.
type Vec3 mgl64.Vec3

func (v *Vec3) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var xs []float64
		if err := n.Decode(&xs); err != nil {
			return err
		}
		if len(xs) != 3 {
			return fmt.Errorf("line %d: want three numbers, got %d", n.Line, len(xs))
		}
		*v = Vec3{xs[0], xs[1], xs[2]}
		return nil
	case yaml.ScalarNode:
		p, err := convert.ParseVec3(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*v = Vec3(p)
		return nil
	}
	return fmt.Errorf("line %d: want a sequence or \"x,y,z\"", n.Line)
}

// Load reads and decodes path. Unknown fields are rejected.
func Load(path string) (File, error) {
	var f File
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := Parse(raw, &f); err != nil {
		return f, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// Parse decodes a run file held in memory.
func Parse(raw []byte, f *File) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	// an empty document decodes to io.EOF
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Apply overlays the fields set in f onto opts.
func (f File) Apply(opts convert.Options) (convert.Options, error) {
	if f.Start != nil {
		opts.Start = mgl64.Vec3(*f.Start)
	}
	if f.Rotate != nil {
		opts.Rotation = transform.Rotation{X: f.Rotate[0], Y: f.Rotate[1], Z: f.Rotate[2]}
	}
	if f.Pitch != nil {
		opts.Pitch = *f.Pitch
	}
	if f.Edition != "" || f.Version != "" {
		edition, number := opts.Version.Edition, opts.Version.Number()
		if f.Edition != "" {
			edition = f.Edition
		}
		if f.Version != "" {
			number = f.Version
		}
		v, err := convert.ParseVersion(edition, number)
		if err != nil {
			return opts, err
		}
		opts.Version = v
	}
	for name, on := range f.Categories {
		c, err := palette.ParseCategory(name)
		if err != nil {
			return opts, fmt.Errorf("%w: %w", convert.ErrConfiguration, err)
		}
		opts.Selection.Set(c, on)
	}
	if f.Dimension != "" {
		opts.Dimension = world.Dimension(f.Dimension)
	}
	if f.Fill != nil {
		opts.Fill = *f.Fill
	}
	if f.Workers != 0 {
		opts.Workers = f.Workers
	}
	if f.QueueSize != 0 {
		opts.QueueSize = f.QueueSize
	}
	if f.BatchSize != 0 {
		opts.BatchSize = f.BatchSize
	}
	return opts, opts.Validate()
}
