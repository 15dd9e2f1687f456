package material

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/Carmen-Shannon/oxy-station/engine/manifest"
	"github.com/Carmen-Shannon/oxy-station/engine/texture"
)

var (
	// ErrUnknownMaterial is returned by Get for a name that is not in the catalog.
	ErrUnknownMaterial = errors.New("unknown material")
	// ErrDuplicateMaterial is returned when two materials share a name.
	ErrDuplicateMaterial = errors.New("duplicate material")
)

// TextureSource resolves texture names for textured materials. texture.Registry satisfies it.
type TextureSource interface {
	Get(name string) (texture.Texture, error)
}

// catalog is the implementation of the Catalog interface. It is immutable after construction
// and therefore safe for concurrent reads without locking.
type catalog struct {
	materials map[string]Material
	names     []string
}

// Catalog is the fixed set of named materials available for assignment.
type Catalog interface {
	// Get retrieves a material by name.
	//
	// Parameters:
	//   - name: the material name
	//
	// Returns:
	//   - Material: the material
	//   - error: ErrUnknownMaterial if the name is not in the catalog
	Get(name string) (Material, error)

	// Names lists material names in sorted order.
	//
	// Returns:
	//   - []string: the names
	Names() []string

	// Len returns the number of materials.
	//
	// Returns:
	//   - int: the material count
	Len() int
}

var _ Catalog = &catalog{}

// NewCatalog builds a catalog from already constructed materials.
//
// Parameters:
//   - materials: the catalog entries; names must be unique and non-empty
//
// Returns:
//   - Catalog: the catalog
//   - error: ErrDuplicateMaterial on a repeated name
func NewCatalog(materials ...Material) (Catalog, error) {
	c := &catalog{materials: make(map[string]Material, len(materials))}
	for _, m := range materials {
		if m.Name() == "" {
			return nil, errors.New("material without a name")
		}
		if _, ok := c.materials[m.Name()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMaterial, m.Name())
		}
		c.materials[m.Name()] = m
		c.names = append(c.names, m.Name())
	}
	slices.Sort(c.names)
	return c, nil
}

// CatalogFromManifest builds the catalog declared by a manifest. Textured entries look up their
// texture in textures, so the registry must have finished loading first.
//
// Parameters:
//   - defs: the manifest material records
//   - textures: the texture lookup
//
// Returns:
//   - Catalog: the catalog
//   - error: error if a color does not parse, a texture is missing or a name repeats
func CatalogFromManifest(defs []manifest.Material, textures TextureSource) (Catalog, error) {
	mats := make([]Material, 0, len(defs))
	for _, d := range defs {
		m, err := FromManifest(d, textures)
		if err != nil {
			return nil, fmt.Errorf("material %s: %w", d.Name, err)
		}
		mats = append(mats, m)
	}
	return NewCatalog(mats...)
}

// FromManifest builds one manifest material. Untextured entries accept a nil texture source.
//
// Parameters:
//   - d: the manifest record
//   - textures: the texture lookup, only consulted for textured entries
//
// Returns:
//   - Material: the material
//   - error: error if the record does not describe a valid material
func FromManifest(d manifest.Material, textures TextureSource) (Material, error) {
	opts := []MaterialBuilderOption{WithName(d.Name)}

	switch d.Side {
	case manifest.SideDouble:
		opts = append(opts, WithSide(SideDouble))
	case "", manifest.SideFront:
	default:
		return nil, fmt.Errorf("unknown side %q", d.Side)
	}
	if d.Opacity != nil {
		opts = append(opts, WithOpacity(*d.Opacity))
	}

	if d.Kind == manifest.KindTextured {
		if textures == nil {
			return nil, fmt.Errorf("no texture source for %s", d.Texture)
		}
		tex, err := textures.Get(d.Texture)
		if err != nil {
			return nil, err
		}
		return NewMaterial(append(opts, WithTexture(tex))...), nil
	}

	var kind Kind
	switch d.Kind {
	case manifest.KindFlat:
		kind = KindFlat
	case manifest.KindEmissive:
		kind = KindEmissive
	case manifest.KindTransparentMask:
		kind = KindTransparentMask
	default:
		return nil, fmt.Errorf("unknown kind %q", d.Kind)
	}
	color, err := common.ParseHexColor(d.Color)
	if err != nil {
		return nil, err
	}
	return NewMaterial(append(opts, WithColor(kind, color))...), nil
}

func (c *catalog) Get(name string) (Material, error) {
	m, ok := c.materials[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMaterial, name)
	}
	return m, nil
}

func (c *catalog) Names() []string {
	return slices.Clone(c.names)
}

func (c *catalog) Len() int {
	return len(c.materials)
}
