package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-station/engine/loader"
	"github.com/Carmen-Shannon/oxy-station/engine/loader/loadertest"
	"github.com/Carmen-Shannon/oxy-station/engine/model"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-station/engine/source"
	"github.com/Carmen-Shannon/oxy-station/engine/texture"
)

type attached struct {
	group Group
	model model.Model
	roles map[string]*model.Node
}

type fakeAttacher struct {
	mu     sync.Mutex
	assets map[string]attached
	order  []string
}

func newFakeAttacher() *fakeAttacher {
	return &fakeAttacher{assets: make(map[string]attached)}
}

func (f *fakeAttacher) Attach(assetID string, group Group, m model.Model, roles map[string]*model.Node) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.assets[assetID]; ok {
		return errors.New("already attached")
	}
	f.assets[assetID] = attached{group: group, model: m, roles: roles}
	f.order = append(f.order, assetID)
	return nil
}

func writeGLB(t *testing.T, dir, name string, roots ...loadertest.Node) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), loadertest.GLB("", roots...), 0o644))
}

func writeTexture(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 200, G: 100, B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func vehicleDescriptors() []Descriptor {
	return []Descriptor{
		{
			ID: "teslaBody", Source: "tesla.glb", Group: GroupVehicle,
			Assignment: Assignment{Uniform: "stationMaterial", Nodes: map[string]string{"CarWindows": "lineMaterial"}},
			Roles:      []RoleSpec{{Role: "carWindows", Node: "CarWindows"}},
		},
		{
			ID: "buildingParts", Source: "building.glb", Group: GroupEnvironment,
			Assignment: Assignment{Uniform: "stationMaterial"},
			Roles:      []RoleSpec{{Role: "propeller", Node: "Popeller", Optional: true}},
		},
	}
}

func writeVehicleModels(t *testing.T, dir string) {
	writeGLB(t, dir, "tesla.glb", loadertest.Node{Name: "Tesla", Children: []loadertest.Node{{Name: "CarWindows"}}})
	writeGLB(t, dir, "building.glb", loadertest.Node{Name: "Building"})
}

func TestCoordinatorLoadsAndAttaches(t *testing.T) {
	dir := t.TempDir()
	writeVehicleModels(t, dir)

	s := &sinkRecorder{}
	att := newFakeAttacher()
	c := NewCoordinator(
		WithAttacher(att),
		WithCatalog(testCatalog(t)),
		WithLoader(loader.NewLoader(loader.WithFetcher(source.NewFetcher(source.WithRoot(dir))))),
		WithWorkers(2),
		WithProgressSink(s.onProgress),
		WithReadySink(s.onReady),
		WithErrorSink(s.onError),
	)
	require.NoError(t, c.RegisterAssets(vehicleDescriptors()...))
	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	assert.Empty(t, s.errs)
	assert.Equal(t, 1, s.ready)
	assert.Equal(t, []int{50, 100}, s.progress)
	assert.Equal(t, LoadProgressState{ItemsTotal: 2, ItemsLoaded: 2, Completed: true}, c.Progress())

	tesla := att.assets["teslaBody"]
	assert.Equal(t, GroupVehicle, tesla.group)
	require.Contains(t, tesla.roles, "carWindows")
	assert.Equal(t, "lineMaterial", tesla.roles["carWindows"].Material.Name())
	assert.Equal(t, "stationMaterial", tesla.model.Find("Tesla").Material.Name())

	building := att.assets["buildingParts"]
	assert.Equal(t, GroupEnvironment, building.group)
	assert.Empty(t, building.roles)
	assert.NotNil(t, c.Materials())
}

func TestCoordinatorFailureWithholdsReady(t *testing.T) {
	dir := t.TempDir()
	writeGLB(t, dir, "tesla.glb", loadertest.Node{Name: "Tesla"})
	writeGLB(t, dir, "building.glb", loadertest.Node{Name: "Building"})

	s := &sinkRecorder{}
	att := newFakeAttacher()
	c := NewCoordinator(
		WithAttacher(att),
		WithCatalog(testCatalog(t)),
		WithLoader(loader.NewLoader(loader.WithFetcher(source.NewFetcher(source.WithRoot(dir))))),
		WithProgressSink(s.onProgress),
		WithReadySink(s.onReady),
		WithErrorSink(s.onError),
	)
	descs := append(vehicleDescriptors(), Descriptor{ID: "fence", Source: "missing.glb", Group: GroupEnvironment})
	require.NoError(t, c.RegisterAssets(descs...))
	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	assert.Zero(t, s.ready)
	require.Len(t, s.errs, 2)

	var missing *MissingNodeError
	var loadErr *LoadError
	for _, err := range s.errs {
		switch {
		case errors.As(err, &missing):
			assert.Equal(t, "teslaBody", missing.AssetID)
		case errors.As(err, &loadErr):
			assert.Equal(t, "fence", loadErr.AssetID)
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	assert.NotContains(t, att.assets, "teslaBody")
	assert.Contains(t, att.assets, "buildingParts")

	st := c.Progress()
	assert.Equal(t, 1, st.ItemsLoaded)
	assert.Equal(t, 2, st.ItemsFailed)
	assert.False(t, st.Completed)
	assert.Less(t, st.Percent(), 100)
}

func TestCoordinatorTexturesCountTowardProgress(t *testing.T) {
	dir := t.TempDir()
	writeVehicleModels(t, dir)
	writeTexture(t, dir, "station.png")

	fetcher := source.NewFetcher(source.WithRoot(dir))
	reg := texture.NewRegistry(texture.WithFetcher(fetcher))

	s := &sinkRecorder{}
	c := NewCoordinator(
		WithAttacher(newFakeAttacher()),
		WithTextureRegistry(reg),
		WithCatalogFactory(func() (MaterialSource, error) {
			tex, err := reg.Get("station")
			if err != nil {
				return nil, err
			}
			return material.NewCatalog(
				material.NewMaterial(material.WithName("stationMaterial"), material.WithTexture(tex)),
				material.NewMaterial(material.WithName("lineMaterial")),
			)
		}),
		WithLoader(loader.NewLoader(loader.WithFetcher(fetcher))),
		WithProgressSink(s.onProgress),
		WithReadySink(s.onReady),
		WithErrorSink(s.onError),
	)
	require.NoError(t, c.RegisterTextures(texture.Spec{Name: "station", Source: "station.png", SRGB: true}))
	require.NoError(t, c.RegisterAssets(vehicleDescriptors()...))
	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	assert.Empty(t, s.errs)
	assert.Equal(t, 1, s.ready)
	assert.Equal(t, []int{33, 67, 100}, s.progress)

	mat, err := c.Materials().Get("stationMaterial")
	require.NoError(t, err)
	require.NotNil(t, mat.Texture())
	assert.Equal(t, "station", mat.Texture().Name())
}

func TestCoordinatorTextureFailureFailsEveryModel(t *testing.T) {
	dir := t.TempDir()
	writeVehicleModels(t, dir)

	fetcher := source.NewFetcher(source.WithRoot(dir))
	s := &sinkRecorder{}
	c := NewCoordinator(
		WithAttacher(newFakeAttacher()),
		WithTextureRegistry(texture.NewRegistry(texture.WithFetcher(fetcher))),
		WithCatalogFactory(func() (MaterialSource, error) { return testCatalog(t), nil }),
		WithLoader(loader.NewLoader(loader.WithFetcher(fetcher))),
		WithReadySink(s.onReady),
		WithErrorSink(s.onError),
	)
	require.NoError(t, c.RegisterTextures(texture.Spec{Name: "station", Source: "absent.png"}))
	require.NoError(t, c.RegisterAssets(vehicleDescriptors()...))
	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	assert.Zero(t, s.ready)
	require.Len(t, s.errs, 3)
	unavailable := 0
	for _, err := range s.errs {
		if errors.Is(err, ErrMaterialsUnavailable) {
			unavailable++
		}
	}
	assert.Equal(t, 2, unavailable)
}

func TestCoordinatorRegistrationRules(t *testing.T) {
	c := NewCoordinator(WithAttacher(newFakeAttacher()), WithCatalog(testCatalog(t)))

	err := c.RegisterAssets(Descriptor{ID: "fence"}, Descriptor{ID: "fence"})
	assert.ErrorIs(t, err, ErrDuplicateAsset)

	require.NoError(t, c.RegisterAssets(Descriptor{ID: "fence", Source: "fence.glb"}))
	assert.ErrorIs(t, c.RegisterAssets(Descriptor{ID: "fence"}), ErrDuplicateAsset)
	assert.Error(t, c.RegisterTextures(texture.Spec{Name: "x", Source: "x.png"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, c.Start(ctx))
	c.Wait()

	assert.ErrorIs(t, c.Start(ctx), ErrAlreadyStarted)
	assert.ErrorIs(t, c.RegisterAssets(Descriptor{ID: "tanks"}), ErrAlreadyStarted)
	assert.ErrorIs(t, c.RegisterTextures(), ErrAlreadyStarted)
	assert.Equal(t, 1, c.Progress().ItemsFailed)
}

func TestCoordinatorEmptyLoadIsReady(t *testing.T) {
	s := &sinkRecorder{}
	c := NewCoordinator(
		WithAttacher(newFakeAttacher()),
		WithCatalog(testCatalog(t)),
		WithProgressSink(s.onProgress),
		WithReadySink(s.onReady),
	)
	require.NoError(t, c.Start(context.Background()))
	c.Wait()

	assert.Equal(t, []int{100}, s.progress)
	assert.Equal(t, 1, s.ready)
}

func TestNewCoordinatorRequiresAttacherAndCatalog(t *testing.T) {
	assert.Panics(t, func() { NewCoordinator(WithCatalog(testCatalog(t))) })
	assert.Panics(t, func() { NewCoordinator(WithAttacher(newFakeAttacher())) })
}
