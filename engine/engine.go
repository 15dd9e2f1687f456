// Package engine wires the station together. It builds every subsystem from the configuration,
// connects their callbacks and runs the window loop on the main thread while the scheduler, the
// asset load and the control surface run on their own goroutines.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/Carmen-Shannon/oxy-station/engine/assets"
	"github.com/Carmen-Shannon/oxy-station/engine/camera"
	"github.com/Carmen-Shannon/oxy-station/engine/config"
	"github.com/Carmen-Shannon/oxy-station/engine/control"
	"github.com/Carmen-Shannon/oxy-station/engine/loader"
	"github.com/Carmen-Shannon/oxy-station/engine/logging"
	"github.com/Carmen-Shannon/oxy-station/engine/manifest"
	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
	"github.com/Carmen-Shannon/oxy-station/engine/presentation"
	"github.com/Carmen-Shannon/oxy-station/engine/profiler"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-station/engine/scene"
	"github.com/Carmen-Shannon/oxy-station/engine/scheduler"
	"github.com/Carmen-Shannon/oxy-station/engine/source"
	"github.com/Carmen-Shannon/oxy-station/engine/texture"
	"github.com/Carmen-Shannon/oxy-station/engine/window"
)

// OrbitDamping is the damping factor of the orbit controls.
const OrbitDamping float32 = 0.05

// engine implements the Engine interface.
// Owns the window on the main thread and the subsystems driven from it.
type engine struct {
	cfg      *config.Config
	manifest *manifest.Manifest

	window    window.Window
	ownWindow bool
	target    pipeline.Target
	gpu       renderer.Renderer // nil when a target was injected

	cam         camera.Camera
	controls    camera.OrbitControls
	composer    scene.Composer
	pipeline    pipeline.Pipeline
	presenter   presentation.Controller
	coordinator assets.Coordinator
	scheduler   scheduler.Scheduler
	profiler    *profiler.Profiler
	server      control.Server
	watcher     *control.PresetWatcher

	// runCtx bounds the scheduler loop; set by Run before the asset load starts.
	runCtx        context.Context
	pendingResize atomic.Pointer[common.Viewport]

	quitChannel  chan struct{}
	quitOnce     sync.Once
	shutdownOnce sync.Once

	logger    zerolog.Logger
	loggerSet bool
	metrics   *metrics.Recorder
}

// Engine is the main entry point of the station.
type Engine interface {
	// Run starts the asset load and the control surface, then runs the window message loop on
	// the calling goroutine, which must be the main one. The scheduler stays idle until every
	// asset is ready. Run blocks until the window closes, Quit is called or ctx is cancelled.
	//
	// Parameters:
	//   - ctx: the context bounding the run
	//
	// Returns:
	//   - error: error if a subsystem failed to start or stopped with an error
	Run(ctx context.Context) error

	// Quit signals the window loop to shut down.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Window returns the window.
	Window() window.Window

	// Scene returns the scene composer.
	Scene() scene.Composer

	// Pipeline returns the render chain.
	Pipeline() pipeline.Pipeline

	// Presentation returns the responsive presentation controller.
	Presentation() presentation.Controller

	// Scheduler returns the frame scheduler.
	Scheduler() scheduler.Scheduler

	// Coordinator returns the asset load coordinator.
	Coordinator() assets.Coordinator

	// Control returns the control surface. It accepts parameter changes even when the
	// WebSocket listener is disabled.
	Control() control.Server
}

var _ Engine = &engine{}

// NewEngine builds every subsystem from cfg and connects them.
// Without WithWindow a GLFW window is created, so NewEngine must then run on the main goroutine.
// Without WithTarget a WebGPU renderer is created on the window's surface.
//
// Parameters:
//   - cfg: the runtime configuration, config.Default() when nil
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the engine
//   - error: error if the manifest, the window, the renderer or a subsystem cannot be built
func NewEngine(cfg *config.Config, options ...EngineBuilderOption) (Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &engine{
		cfg:         cfg,
		quitChannel: make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	if err := e.initAmbient(); err != nil {
		return nil, err
	}
	if err := e.initWindow(); err != nil {
		return nil, err
	}
	if err := e.initScene(); err != nil {
		e.abort()
		return nil, err
	}
	if err := e.initAssets(); err != nil {
		e.abort()
		return nil, err
	}
	e.connectInput()

	e.logger.Info().
		Int("width", e.window.Viewport().Width).
		Bool("wide", e.presenter.Preset().Wide).
		Int("assets", len(e.manifest.Assets)).
		Int("textures", len(e.manifest.Textures)).
		Msg("station ready to run")
	return e, nil
}

// initAmbient resolves the logger, the metrics recorder and the manifest.
func (e *engine) initAmbient() error {
	if !e.loggerSet {
		l, err := logging.New(nil, e.cfg.Log.Level, e.cfg.Log.Format)
		if err != nil {
			return err
		}
		e.logger = l
	}

	if e.metrics == nil {
		e.metrics = metrics.Noop()
		if e.cfg.Metrics.Enabled {
			m, err := metrics.New(nil)
			if err != nil {
				return fmt.Errorf("error creating metrics: %w", err)
			}
			e.metrics = m
		}
	}

	if e.manifest == nil {
		var err error
		if e.cfg.Assets.Manifest != "" {
			e.manifest, err = manifest.Load(e.cfg.Assets.Manifest)
		} else {
			e.manifest, err = manifest.Default()
		}
		if err != nil {
			return fmt.Errorf("error loading manifest: %w", err)
		}
	}
	return nil
}

// initWindow creates the window and the GPU renderer unless they were injected.
func (e *engine) initWindow() error {
	if e.window == nil {
		w, err := window.NewWindow(
			window.WithTitle(common.Coalesce(e.cfg.Window.Title, "oxy-station")),
			window.WithSize(e.cfg.Window.Width, e.cfg.Window.Height),
			window.WithMinSize(e.cfg.Window.MinWidth, e.cfg.Window.MinHeight),
		)
		if err != nil {
			return fmt.Errorf("error creating window: %w", err)
		}
		e.window = w
		e.ownWindow = true
	}

	if e.target == nil {
		r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, e.window,
			renderer.WithPresentMode(renderer.ParsePresentMode(e.cfg.Window.PresentMode)),
			renderer.WithForceSoftwareRenderer(e.cfg.Window.SoftwareRenderer),
			renderer.WithLogger(logging.Component(e.logger, "renderer")),
		)
		if err != nil {
			e.abort()
			return fmt.Errorf("error creating renderer: %w", err)
		}
		e.gpu = r
		e.target = r
	}
	return nil
}

// initScene builds the camera, the scene, the render chain, the presentation controller, the
// scheduler and the control surface.
// sunMaterial builds the sun proxy's material from the manifest when it declares one. It is
// needed before any texture loads, so the entry must be untextured.
func (e *engine) sunMaterial() (material.Material, bool, error) {
	for _, d := range e.manifest.Materials {
		if d.Name != scene.SunMaterialName {
			continue
		}
		m, err := material.FromManifest(d, nil)
		if err != nil {
			return nil, false, fmt.Errorf("error building %s: %w", d.Name, err)
		}
		return m, true, nil
	}
	return nil, false, nil
}

func (e *engine) initScene() error {
	vp := e.window.Viewport()
	e.cam = camera.NewCamera(camera.WithViewport(vp), camera.WithViewOffset(vp))
	e.controls = camera.NewOrbitControls(camera.WithDamping(true, OrbitDamping))
	composerOptions := []scene.ComposerBuilderOption{scene.WithLogger(logging.Component(e.logger, "scene"))}
	sun, ok, err := e.sunMaterial()
	if err != nil {
		return err
	}
	if ok {
		composerOptions = append(composerOptions, scene.WithSunMaterial(sun))
	}
	e.composer = scene.NewComposer(e.cam, composerOptions...)

	p, err := pipeline.Build(e.target, e.cam, e.composer,
		pipeline.WithPixelRatioCap(e.cfg.Window.PixelRatioCap),
		pipeline.WithLogger(logging.Component(e.logger, "pipeline")),
		pipeline.WithMetrics(e.metrics),
	)
	if err != nil {
		return fmt.Errorf("error building pipeline: %w", err)
	}
	e.pipeline = p

	// The device class is read once; later resizes never switch presets.
	e.presenter = presentation.NewController(e.cam, e.controls, e.window.LogicalWidth(),
		presentation.WithOverlayListener(e.onOverlay),
		presentation.WithControlsListener(e.onControls),
		presentation.WithLogger(logging.Component(e.logger, "presentation")),
	)

	e.profiler = profiler.NewProfiler(
		profiler.WithLogger(logging.Component(e.logger, "profiler")),
		profiler.WithMetrics(e.metrics),
	)

	e.scheduler = scheduler.NewScheduler(e.composer, e.pipeline,
		scheduler.WithTickRate(e.cfg.Scheduler.TickRate),
		scheduler.WithControls(e.controls, e.cam),
		scheduler.WithPresenter(e.presenter),
		scheduler.WithFrameObserver(func() { e.profiler.Tick() }),
		scheduler.WithLogger(logging.Component(e.logger, "scheduler")),
		scheduler.WithMetrics(e.metrics),
	)

	router := control.NewRouter(e.composer)
	router.AddPipeline(e.pipeline)
	controlLogger := logging.Component(e.logger, "control")
	e.server = control.NewServer(router,
		control.WithAddr(e.cfg.Control.Addr),
		control.WithPoster(e.scheduler),
		control.WithLogger(controlLogger),
	)
	if e.cfg.Control.PresetDir != "" {
		e.watcher = control.NewPresetWatcher(e.cfg.Control.PresetDir, e.server, controlLogger)
	}
	return nil
}

// initAssets builds the fetch, decode and load chain and registers the manifest with it.
func (e *engine) initAssets() error {
	fetcher := source.NewFetcher(source.WithRoot(e.cfg.Assets.Root))
	textures := texture.NewRegistry(
		texture.WithFetcher(fetcher),
		texture.WithWorkers(e.cfg.Assets.Workers),
		texture.WithLogger(logging.Component(e.logger, "textures")),
		texture.WithMetrics(e.metrics),
	)
	models := loader.NewLoader(
		loader.WithFetcher(fetcher),
		loader.WithLogger(logging.Component(e.logger, "loader")),
	)

	materials := e.manifest.Materials
	e.coordinator = assets.NewCoordinator(
		assets.WithAttacher(e.composer),
		assets.WithLoader(models),
		assets.WithTextureRegistry(textures),
		assets.WithCatalogFactory(func() (assets.MaterialSource, error) {
			return material.CatalogFromManifest(materials, textures)
		}),
		assets.WithWorkers(e.cfg.Assets.Workers),
		assets.WithProgressSink(e.onProgress),
		assets.WithReadySink(e.onReady),
		assets.WithErrorSink(e.onError),
		assets.WithLogger(logging.Component(e.logger, "assets")),
		assets.WithMetrics(e.metrics),
	)

	if err := e.coordinator.RegisterTextures(texture.SpecsFromManifest(e.manifest.Textures)...); err != nil {
		return fmt.Errorf("error registering textures: %w", err)
	}
	if err := e.coordinator.RegisterAssets(assets.DescriptorsFromManifest(e.manifest.Assets)...); err != nil {
		return fmt.Errorf("error registering assets: %w", err)
	}
	return nil
}

// connectInput routes window events. Resizes go through the scheduler mailbox so a frame never
// renders with a half-applied size; orbit input is buffered by the controls themselves.
func (e *engine) connectInput() {
	// Resizes coalesce: only the newest viewport waits in the mailbox, which stays unread
	// until the scheduler starts.
	e.window.SetResizeCallback(func(vp common.Viewport) {
		if e.pendingResize.Swap(&vp) != nil {
			return
		}
		if !e.scheduler.Post(e.applyResize) {
			e.logger.Debug().Int("width", vp.Width).Int("height", vp.Height).Msg("resize dropped")
		}
	})
	e.window.SetDragCallback(e.controls.Rotate)
	e.window.SetScrollCallback(e.controls.Zoom)
}

func (e *engine) onProgress(pct int) {
	e.presenter.Progress(pct)
}

func (e *engine) applyResize() {
	if vp := e.pendingResize.Swap(nil); vp != nil {
		e.pipeline.Resize(vp.Width, vp.Height, vp.DevicePixelRatio)
	}
}

// onReady reveals the scene and starts the frame loop.
func (e *engine) onReady() {
	e.logger.Info().Msg("all assets loaded")
	e.presenter.Ready()
	e.server.PublishReady()
	if err := e.scheduler.Start(e.runCtx); err != nil {
		e.logger.Warn().Err(err).Msg("scheduler not started")
	}
}

func (e *engine) onError(err error) {
	e.logger.Error().Err(err).Msg("asset load failed")
	e.presenter.Fail(err)
	e.server.PublishError(err)
}

func (e *engine) onOverlay(o presentation.Overlay) {
	e.server.PublishOverlay(o)
}

func (e *engine) onControls() {
	e.server.PublishControls()
}

func (e *engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vp := e.window.Viewport()
	e.pipeline.Resize(vp.Width, vp.Height, vp.DevicePixelRatio)

	g, gctx := errgroup.WithContext(ctx)
	if e.cfg.Control.Enabled {
		g.Go(func() error { return e.server.ListenAndServe(gctx) })
	}
	if e.watcher != nil {
		g.Go(func() error { return e.watcher.Run(gctx, nil) })
	}

	e.runCtx = gctx
	if err := e.coordinator.Start(gctx); err != nil {
		cancel()
		_ = g.Wait()
		e.shutdown()
		return fmt.Errorf("error starting asset load: %w", err)
	}
	// A failed group member or a cancelled caller closes the window loop.
	go func() {
		select {
		case <-gctx.Done():
			e.Quit()
		case <-e.quitChannel:
		}
	}()

	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			e.shutdown()
		default:
		}
	})
	e.window.ProcessMessages()
	e.shutdown()

	cancel()
	err := g.Wait()
	e.coordinator.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Quit signals the window loop to shut down.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// shutdown stops the scheduler before the surface goes away, then releases the GPU and the
// window. It runs on the main thread.
func (e *engine) shutdown() {
	e.shutdownOnce.Do(func() {
		e.Quit()
		e.scheduler.Stop()
		<-e.scheduler.Done()
		e.releaseGPU()
		if err := e.window.Close(); err != nil {
			e.logger.Debug().Err(err).Msg("window already closed")
		}
		e.logger.Info().Uint64("frames", e.scheduler.Ticks()).Msg("station stopped")
	})
}

// abort releases what a failed NewEngine created.
func (e *engine) abort() {
	e.releaseGPU()
	if e.ownWindow {
		_ = e.window.Close()
	}
}

func (e *engine) releaseGPU() {
	if e.gpu != nil {
		e.gpu.Release()
		e.gpu = nil
	}
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Composer {
	return e.composer
}

func (e *engine) Pipeline() pipeline.Pipeline {
	return e.pipeline
}

func (e *engine) Presentation() presentation.Controller {
	return e.presenter
}

func (e *engine) Scheduler() scheduler.Scheduler {
	return e.scheduler
}

func (e *engine) Coordinator() assets.Coordinator {
	return e.coordinator
}

func (e *engine) Control() control.Server {
	return e.server
}
