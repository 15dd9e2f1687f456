package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultManifest(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)

	assert.Len(t, m.Textures, 9)
	assert.Len(t, m.Assets, 10)
	assert.Len(t, m.Materials, 17)

	var body *Asset
	for i := range m.Assets {
		if m.Assets[i].ID == "teslaBody" {
			body = &m.Assets[i]
		}
	}
	require.NotNil(t, body)
	assert.Equal(t, GroupVehicle, body.Group)
	assert.Equal(t, "bakedTeslaBody", body.Uniform)
	assert.Equal(t, "carWindows", body.Nodes["CarWindows"])
}

func TestDefaultManifestPropellerRoleIsOptional(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)

	for _, a := range m.Assets {
		for _, r := range a.Roles {
			if r.Role == "propeller" {
				assert.Equal(t, "Popeller", r.Node)
				assert.True(t, r.Optional)
				return
			}
		}
	}
	t.Fatal("propeller role not declared")
}

func TestParseTOML(t *testing.T) {
	doc := `
[[textures]]
name = "fence"
source = "models/fence.jpg"

[[materials]]
name = "fenceMaterial"
kind = "textured"
texture = "fence"

[[materials]]
name = "glow"
kind = "emissive"
color = "#ffffff"

[[assets]]
id = "fence"
source = "models/fence.glb"
group = "environment"
uniform = "fenceMaterial"
[assets.nodes]
Lamp = "glow"
`
	m, err := Parse([]byte(doc), ".toml")
	require.NoError(t, err)
	require.Len(t, m.Assets, 1)
	assert.Equal(t, "glow", m.Assets[0].Nodes["Lamp"])
}

func TestValidateReportsAllProblems(t *testing.T) {
	m := Manifest{
		Textures: []Texture{{Name: "a", Source: "a.jpg"}, {Name: "a", Source: "b.jpg"}},
		Materials: []Material{
			{Name: "m1", Kind: KindTextured, Texture: "missing"},
			{Name: "m2", Kind: "chrome"},
		},
		Assets: []Asset{
			{ID: "x", Source: "x.glb", Group: "sky", Uniform: "nope"},
		},
	}
	err := m.Validate()
	require.Error(t, err)
	for _, want := range []string{"declared twice", "unknown texture", "unknown kind", "unknown group", "unknown material"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "scene.yml")
	require.NoError(t, os.WriteFile(path, defaultManifest, 0o644))
	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Assets, 10)

	bad := filepath.Join(dir, "scene.json")
	require.NoError(t, os.WriteFile(bad, []byte("{}"), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("textures: []\nextra: 1\n"), ".yaml")
	assert.Error(t, err)
}
