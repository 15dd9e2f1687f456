package texture

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/rs/zerolog"

	"github.com/Carmen-Shannon/oxy-station/engine/manifest"
	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
	"github.com/Carmen-Shannon/oxy-station/engine/source"
)

// ErrUnknownTexture is returned by Get for a name that was never loaded.
var ErrUnknownTexture = errors.New("unknown texture")

// ErrDuplicateTexture is returned by Load when a name is already registered or repeats within one call.
var ErrDuplicateTexture = errors.New("duplicate texture")

// Spec names one texture to load.
type Spec struct {
	Name   string
	Source string
	// FlipY reverses row order on decode. Baked textures for glTF content keep it false.
	FlipY bool
	// SRGB marks the pixels as sRGB color data.
	SRGB bool
}

// SpecsFromManifest converts manifest texture records into load specs. Every baked texture is
// sRGB and not flipped.
//
// Parameters:
//   - textures: the manifest records
//
// Returns:
//   - []Spec: one spec per record, in order
func SpecsFromManifest(textures []manifest.Texture) []Spec {
	specs := make([]Spec, 0, len(textures))
	for _, t := range textures {
		specs = append(specs, Spec{Name: t.Name, Source: t.Source, FlipY: false, SRGB: true})
	}
	return specs
}

// Progress receives one start and exactly one done-or-failed notification per loaded item.
type Progress interface {
	ItemStart(id string)
	ItemDone(id string)
	ItemFailed(id string, err error)
}

// LoadError tags a texture load failure with the texture name.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("texture %s: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// registry is the implementation of the Registry interface.
type registry struct {
	mu       sync.RWMutex
	textures map[string]Texture

	fetcher source.Fetcher
	workers int
	logger  zerolog.Logger
	metrics *metrics.Recorder
}

// Registry loads baked textures and hands them out by name.
type Registry interface {
	// Load fetches and decodes the given textures concurrently and blocks until every one has
	// finished. Each spec is reported to progress as one item, keyed by ItemID. A failure does
	// not stop the other loads.
	//
	// Parameters:
	//   - ctx: consulted before each load starts
	//   - progress: receives per-item start, done and failure, may be nil
	//   - specs: the textures to load
	//
	// Returns:
	//   - error: every *LoadError joined, or nil
	Load(ctx context.Context, progress Progress, specs ...Spec) error

	// Get retrieves a loaded texture.
	//
	// Parameters:
	//   - name: the texture name
	//
	// Returns:
	//   - Texture: the texture
	//   - error: ErrUnknownTexture if no texture of that name is loaded
	Get(name string) (Texture, error)

	// Names lists the loaded texture names in sorted order.
	//
	// Returns:
	//   - []string: the names
	Names() []string
}

var _ Registry = &registry{}

// ItemID is the progress key a texture is reported under.
func ItemID(name string) string {
	return "texture:" + name
}

// NewRegistry creates a texture Registry configured with the provided options.
//
// Parameters:
//   - options: variadic list of RegistryBuilderOption functions
//
// Returns:
//   - Registry: the registry
func NewRegistry(options ...RegistryBuilderOption) Registry {
	r := &registry{
		textures: make(map[string]Texture),
		workers:  4,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(r)
	}
	if r.fetcher == nil {
		r.fetcher = source.NewFetcher()
	}
	if r.metrics == nil {
		r.metrics = metrics.Noop()
	}
	return r
}

func (r *registry) Load(ctx context.Context, progress Progress, specs ...Spec) error {
	if err := r.reserve(specs); err != nil {
		return err
	}
	if len(specs) == 0 {
		return nil
	}

	pool := worker.NewDynamicWorkerPool(r.workers, len(specs), time.Second)
	defer pool.Stop()

	var (
		wg     sync.WaitGroup
		errMu  sync.Mutex
		errs   []error
		report = func(err error) {
			errMu.Lock()
			errs = append(errs, err)
			errMu.Unlock()
		}
	)

	for i, spec := range specs {
		wg.Add(1)
		s := spec
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: s.Name,
			Do: func() (any, error) {
				defer wg.Done()
				if err := r.loadOne(ctx, progress, s); err != nil {
					report(err)
					return nil, err
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	return errors.Join(errs...)
}

// reserve rejects names already loaded or repeated within specs.
func (r *registry) reserve(specs []Spec) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		if _, ok := r.textures[s.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTexture, s.Name)
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTexture, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

func (r *registry) loadOne(ctx context.Context, progress Progress, s Spec) error {
	id := ItemID(s.Name)
	if progress != nil {
		progress.ItemStart(id)
	}

	t, err := r.decode(ctx, s)
	if err != nil {
		lerr := &LoadError{Name: s.Name, Err: err}
		r.logger.Error().Err(err).Str("texture", s.Name).Str("source", s.Source).Msg("texture load failed")
		r.metrics.ItemFailed(ctx, "texture", s.Name)
		if progress != nil {
			progress.ItemFailed(id, lerr)
		}
		return lerr
	}

	r.mu.Lock()
	r.textures[s.Name] = t
	r.mu.Unlock()

	r.logger.Debug().Str("texture", s.Name).Uint32("width", t.Width()).Uint32("height", t.Height()).Msg("texture loaded")
	r.metrics.ItemLoaded(ctx, "texture")
	if progress != nil {
		progress.ItemDone(id)
	}
	return nil
}

func (r *registry) decode(ctx context.Context, s Spec) (Texture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.fetcher.Fetch(ctx, s.Source, nil)
	if err != nil {
		return nil, err
	}
	staging, err := decodeRGBA(data, s.FlipY, s.SRGB)
	if err != nil {
		return nil, err
	}
	return &texture{name: s.Name, source: s.Source, flipY: s.FlipY, staging: staging}, nil
}

func (r *registry) Get(name string) (Texture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.textures[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTexture, name)
	}
	return t, nil
}

func (r *registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.textures))
	for n := range r.textures {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
