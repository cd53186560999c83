package crowd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AnimationManifest lists the animation types in type order: entry i is type i.
type AnimationManifest struct {
	Animations []AnimationSpec `yaml:"animations"`
}

type AnimationSpec struct {
	Name     string       `yaml:"name"`
	Mesh     MeshSpec     `yaml:"mesh"`
	Material MaterialSpec `yaml:"material"`
}

type MeshSpec struct {
	Shape string     `yaml:"shape"` // box, pyramid or quad
	Size  [3]float32 `yaml:"size"`
}

type MaterialSpec struct {
	Shader     string             `yaml:"shader"`
	Color      string             `yaml:"color"` // hex tint, e.g. "#e07a5f"
	Properties map[string]float32 `yaml:"properties"`
}

func LoadAnimationManifest(path string) (*AnimationManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := ParseAnimationManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

func ParseAnimationManifest(data []byte) (*AnimationManifest, error) {
	var m AnimationManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Animations) == 0 {
		return nil, ErrNoAnimations
	}
	for i, a := range m.Animations {
		if a.Name == "" {
			return nil, fmt.Errorf("animation %d has no name", i)
		}
	}
	return &m, nil
}
