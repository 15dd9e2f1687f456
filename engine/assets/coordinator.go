// Package assets coordinates loading of every texture and model the scene needs and reports them
// as one logical load: one percentage, one ready signal, one error sink.
//
// A model goes through three steps once its payload is decoded, strictly in order: its material
// assignment is applied, its declared roles are resolved, and only then is it attached to the
// scene. Textures load in parallel with model payloads; assignment waits for the material catalog,
// which is built as soon as the textures are in.
package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/rs/zerolog"

	"github.com/Carmen-Shannon/oxy-station/engine/loader"
	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
	"github.com/Carmen-Shannon/oxy-station/engine/model"
	"github.com/Carmen-Shannon/oxy-station/engine/texture"
)

// Attacher receives dressed models. The scene composer satisfies it.
type Attacher interface {
	// Attach inserts the model under the given group and records its role table.
	//
	// Parameters:
	//   - assetID: the asset the model belongs to
	//   - group: the target group
	//   - m: the dressed model
	//   - roles: the resolved role table
	//
	// Returns:
	//   - error: error if the asset is already attached
	Attach(assetID string, group Group, m model.Model, roles map[string]*model.Node) error
}

// CatalogFactory builds the material catalog once the textures have loaded.
type CatalogFactory func() (MaterialSource, error)

// coordinator is the implementation of the Coordinator interface.
type coordinator struct {
	mu          sync.Mutex
	started     bool
	descriptors []Descriptor
	ids         map[string]struct{}

	textures     texture.Registry
	textureSpecs []texture.Spec

	catalog        MaterialSource
	catalogFactory CatalogFactory
	catalogReady   chan struct{}
	catalogErr     error

	loader   loader.Loader
	attacher Attacher
	workers  int
	tracker  *Tracker
	wg       sync.WaitGroup

	onProgress func(int)
	onReady    func()
	onError    func(error)

	logger  zerolog.Logger
	metrics *metrics.Recorder
}

// Coordinator drives the load of all registered assets.
type Coordinator interface {
	// RegisterAssets declares model assets. It must be called before Start.
	//
	// Parameters:
	//   - descs: the asset descriptors
	//
	// Returns:
	//   - error: ErrAlreadyStarted after Start, ErrDuplicateAsset for a repeated ID
	RegisterAssets(descs ...Descriptor) error

	// RegisterTextures declares textures that load through the texture registry and count
	// toward the same progress. It must be called before Start.
	//
	// Parameters:
	//   - specs: the texture specs
	//
	// Returns:
	//   - error: ErrAlreadyStarted after Start
	RegisterTextures(specs ...texture.Spec) error

	// Start begins every load and returns immediately. Progress, ready and errors are delivered
	// to the configured sinks from worker goroutines.
	//
	// Parameters:
	//   - ctx: consulted before each load starts
	//
	// Returns:
	//   - error: ErrAlreadyStarted when called twice
	Start(ctx context.Context) error

	// Wait blocks until every started load has loaded or failed.
	Wait()

	// Progress returns a snapshot of the aggregate progress.
	//
	// Returns:
	//   - LoadProgressState: the snapshot
	Progress() LoadProgressState

	// Materials returns the material catalog once it is built, or nil before.
	//
	// Returns:
	//   - MaterialSource: the catalog
	Materials() MaterialSource
}

var _ Coordinator = &coordinator{}

// NewCoordinator creates a Coordinator configured with the provided options. An attacher and
// either a catalog or a catalog factory are required.
//
// Parameters:
//   - options: variadic list of CoordinatorBuilderOption functions
//
// Returns:
//   - Coordinator: the coordinator
func NewCoordinator(options ...CoordinatorBuilderOption) Coordinator {
	c := &coordinator{
		ids:          make(map[string]struct{}),
		catalogReady: make(chan struct{}),
		workers:      4,
		logger:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.attacher == nil {
		panic("assets: coordinator requires an attacher")
	}
	if c.catalog == nil && c.catalogFactory == nil {
		panic("assets: coordinator requires a material catalog or catalog factory")
	}
	if c.loader == nil {
		c.loader = loader.NewLoader()
	}
	if c.metrics == nil {
		c.metrics = metrics.Noop()
	}
	c.tracker = NewTracker(c.deliverProgress, c.onReady, c.onError)
	return c
}

func (c *coordinator) RegisterAssets(descs ...Descriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	for i, d := range descs {
		if _, ok := c.ids[d.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateAsset, d.ID)
		}
		for _, prev := range descs[:i] {
			if prev.ID == d.ID {
				return fmt.Errorf("%w: %s", ErrDuplicateAsset, d.ID)
			}
		}
	}
	for _, d := range descs {
		c.ids[d.ID] = struct{}{}
		c.descriptors = append(c.descriptors, d)
	}
	return nil
}

func (c *coordinator) RegisterTextures(specs ...texture.Spec) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	if len(specs) > 0 && c.textures == nil {
		return errors.New("textures registered without a texture registry")
	}
	c.textureSpecs = append(c.textureSpecs, specs...)
	return nil
}

func (c *coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	descs := c.descriptors
	specs := c.textureSpecs
	c.mu.Unlock()

	ids := make([]string, 0, len(specs)+len(descs))
	for _, s := range specs {
		ids = append(ids, texture.ItemID(s.Name))
	}
	for _, d := range descs {
		ids = append(ids, ItemID(d.ID))
	}
	if err := c.tracker.Expect(ids...); err != nil {
		return err
	}

	c.logger.Info().Int("textures", len(specs)).Int("models", len(descs)).Msg("asset load started")

	c.wg.Add(1)
	go c.prepareMaterials(ctx, specs)

	pool := worker.NewDynamicWorkerPool(c.workers, max(len(descs), 1), time.Second)
	for i, d := range descs {
		c.wg.Add(1)
		desc := d
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: desc.ID,
			Do: func() (any, error) {
				defer c.wg.Done()
				err := c.loadAsset(ctx, desc)
				return nil, err
			},
		})
	}

	c.tracker.Seal()

	go func() {
		c.wg.Wait()
		pool.Stop()
	}()
	return nil
}

// prepareMaterials loads the textures and then builds the catalog. Texture failures reach the
// error sink through the tracker.
func (c *coordinator) prepareMaterials(ctx context.Context, specs []texture.Spec) {
	defer c.wg.Done()
	defer close(c.catalogReady)

	if len(specs) > 0 {
		if err := c.textures.Load(ctx, c.tracker, specs...); err != nil {
			c.catalogErr = fmt.Errorf("%w: %w", ErrMaterialsUnavailable, err)
			return
		}
	}
	if c.catalog != nil {
		return
	}
	cat, err := c.catalogFactory()
	if err != nil {
		c.catalogErr = fmt.Errorf("%w: %w", ErrMaterialsUnavailable, err)
		c.tracker.ReportError(err)
		return
	}
	c.catalog = cat
}

func (c *coordinator) loadAsset(ctx context.Context, d Descriptor) error {
	id := ItemID(d.ID)
	c.tracker.ItemStart(id)

	fail := func(err error) error {
		c.logger.Error().Err(err).Str("asset", d.ID).Msg("asset load failed")
		c.metrics.ItemFailed(ctx, "model", d.ID)
		c.tracker.ItemFailed(id, err)
		return err
	}

	if err := ctx.Err(); err != nil {
		return fail(&LoadError{AssetID: d.ID, Err: err})
	}

	m, err := c.loader.Load(ctx, d.Source, nil)
	if err != nil {
		return fail(&LoadError{AssetID: d.ID, Err: err})
	}

	<-c.catalogReady
	if c.catalogErr != nil {
		return fail(&LoadError{AssetID: d.ID, Err: c.catalogErr})
	}

	if err := ApplyAssignment(d.ID, m.Root(), d.Assignment, c.catalog); err != nil {
		return fail(err)
	}
	roles, err := ResolveRoles(d.ID, m.Root(), d.Roles)
	if err != nil {
		return fail(err)
	}
	if err := c.attacher.Attach(d.ID, d.Group, m, roles); err != nil {
		return fail(&LoadError{AssetID: d.ID, Err: err})
	}

	c.logger.Debug().Str("asset", d.ID).Str("group", string(d.Group)).Int("roles", len(roles)).Msg("asset attached")
	c.metrics.ItemLoaded(ctx, "model")
	c.tracker.ItemDone(id)
	return nil
}

func (c *coordinator) deliverProgress(pct int) {
	c.metrics.SetProgress(pct)
	if c.onProgress != nil {
		c.onProgress(pct)
	}
}

func (c *coordinator) Wait() {
	c.wg.Wait()
}

func (c *coordinator) Progress() LoadProgressState {
	return c.tracker.State()
}

func (c *coordinator) Materials() MaterialSource {
	select {
	case <-c.catalogReady:
		return c.catalog
	default:
		return nil
	}
}
