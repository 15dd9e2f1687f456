// Package manifest declares the static description of a scene: the baked textures, the material
// catalog and the model assets with their material assignments and named node roles.
//
// A manifest is read once at startup from YAML or TOML (or the embedded default) and is immutable
// afterwards. The texture, material and asset packages convert the plain records defined here into
// their own runtime types.
package manifest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed assets/station.yaml
var defaultManifest []byte

// Group names accepted by Asset.Group.
const (
	GroupVehicle     = "vehicle"
	GroupEnvironment = "environment"
)

// Material kinds accepted by Material.Kind.
const (
	KindTextured        = "textured"
	KindFlat            = "flat"
	KindEmissive        = "emissive"
	KindTransparentMask = "transparent-mask"
)

// Face sides accepted by Material.Side. An empty side means SideFront.
const (
	SideFront  = "front"
	SideDouble = "double"
)

// ErrUnsupportedFormat is returned by Load when the file extension is neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported manifest format")

// Manifest is the root record of a scene description.
type Manifest struct {
	Textures  []Texture  `yaml:"textures" toml:"textures"`
	Materials []Material `yaml:"materials" toml:"materials"`
	Assets    []Asset    `yaml:"assets" toml:"assets"`
}

// Texture names a baked image and where to fetch it from.
type Texture struct {
	Name   string `yaml:"name" toml:"name"`
	Source string `yaml:"source" toml:"source"`
}

// Material describes one catalog entry.
type Material struct {
	Name    string   `yaml:"name" toml:"name"`
	Kind    string   `yaml:"kind" toml:"kind"`
	Texture string   `yaml:"texture,omitempty" toml:"texture,omitempty"`
	Color   string   `yaml:"color,omitempty" toml:"color,omitempty"`
	Side    string   `yaml:"side,omitempty" toml:"side,omitempty"`
	Opacity *float32 `yaml:"opacity,omitempty" toml:"opacity,omitempty"`
}

// Asset describes one model payload and how it is dressed once loaded.
type Asset struct {
	ID      string            `yaml:"id" toml:"id"`
	Source  string            `yaml:"source" toml:"source"`
	Group   string            `yaml:"group" toml:"group"`
	Uniform string            `yaml:"uniform,omitempty" toml:"uniform,omitempty"`
	Nodes   map[string]string `yaml:"nodes,omitempty" toml:"nodes,omitempty"`
	Roles   []Role            `yaml:"roles,omitempty" toml:"roles,omitempty"`
}

// Role binds a symbolic role name to a node the asset is expected to contain.
type Role struct {
	Role     string `yaml:"role" toml:"role"`
	Node     string `yaml:"node" toml:"node"`
	Optional bool   `yaml:"optional,omitempty" toml:"optional,omitempty"`
}

// Default returns the embedded station manifest.
//
// Returns:
//   - *Manifest: the parsed default manifest
//   - error: error if the embedded document does not parse or validate
func Default() (*Manifest, error) {
	return Parse(defaultManifest, ".yaml")
}

// Load reads and validates a manifest file. The format is chosen from the file extension
// (.yaml, .yml or .toml).
//
// Parameters:
//   - path: the manifest file path
//
// Returns:
//   - *Manifest: the parsed manifest
//   - error: error if the file cannot be read, parsed or validated
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	m, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a manifest document and validates it.
//
// Parameters:
//   - data: the raw document
//   - ext: the format hint, a file extension such as ".yaml" or ".toml"
//
// Returns:
//   - *Manifest: the parsed manifest
//   - error: error if the document is malformed or fails validation
func Parse(data []byte, ext string) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks cross references inside the manifest: unique names, known kinds, sides and
// groups, textures referenced by materials, and materials referenced by assets.
// All problems are reported together.
//
// Returns:
//   - error: a joined error listing every problem, or nil
func (m *Manifest) Validate() error {
	var errs []error

	textures := make(map[string]struct{}, len(m.Textures))
	for _, t := range m.Textures {
		if t.Name == "" || t.Source == "" {
			errs = append(errs, fmt.Errorf("texture %q: name and source are required", t.Name))
			continue
		}
		if _, dup := textures[t.Name]; dup {
			errs = append(errs, fmt.Errorf("texture %q declared twice", t.Name))
		}
		textures[t.Name] = struct{}{}
	}

	materials := make(map[string]struct{}, len(m.Materials))
	for _, mat := range m.Materials {
		if mat.Name == "" {
			errs = append(errs, errors.New("material with empty name"))
			continue
		}
		if _, dup := materials[mat.Name]; dup {
			errs = append(errs, fmt.Errorf("material %q declared twice", mat.Name))
		}
		materials[mat.Name] = struct{}{}

		switch mat.Kind {
		case KindTextured:
			if _, ok := textures[mat.Texture]; !ok {
				errs = append(errs, fmt.Errorf("material %q references unknown texture %q", mat.Name, mat.Texture))
			}
		case KindFlat, KindEmissive, KindTransparentMask:
			if mat.Color == "" {
				errs = append(errs, fmt.Errorf("material %q of kind %s needs a color", mat.Name, mat.Kind))
			}
		default:
			errs = append(errs, fmt.Errorf("material %q has unknown kind %q", mat.Name, mat.Kind))
		}
		switch mat.Side {
		case "", SideFront, SideDouble:
		default:
			errs = append(errs, fmt.Errorf("material %q has unknown side %q", mat.Name, mat.Side))
		}
	}

	assets := make(map[string]struct{}, len(m.Assets))
	for _, a := range m.Assets {
		if a.ID == "" || a.Source == "" {
			errs = append(errs, fmt.Errorf("asset %q: id and source are required", a.ID))
			continue
		}
		if _, dup := assets[a.ID]; dup {
			errs = append(errs, fmt.Errorf("asset %q declared twice", a.ID))
		}
		assets[a.ID] = struct{}{}

		if a.Group != GroupVehicle && a.Group != GroupEnvironment {
			errs = append(errs, fmt.Errorf("asset %q has unknown group %q", a.ID, a.Group))
		}
		if a.Uniform != "" {
			if _, ok := materials[a.Uniform]; !ok {
				errs = append(errs, fmt.Errorf("asset %q references unknown material %q", a.ID, a.Uniform))
			}
		}
		for node, mat := range a.Nodes {
			if _, ok := materials[mat]; !ok {
				errs = append(errs, fmt.Errorf("asset %q node %q references unknown material %q", a.ID, node, mat))
			}
		}
		for _, r := range a.Roles {
			if r.Role == "" || r.Node == "" {
				errs = append(errs, fmt.Errorf("asset %q declares a role without name or node", a.ID))
			}
		}
	}

	return errors.Join(errs...)
}
