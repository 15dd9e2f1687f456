package assets

import (
	"github.com/rs/zerolog"

	"github.com/Carmen-Shannon/oxy-station/engine/loader"
	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
	"github.com/Carmen-Shannon/oxy-station/engine/texture"
)

// CoordinatorBuilderOption is a function that configures a coordinator instance during construction.
type CoordinatorBuilderOption func(*coordinator)

// WithAttacher is an option builder that sets where dressed models are attached. Required.
//
// Parameters:
//   - a: the attacher, normally the scene composer
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the attacher option to a coordinator
func WithAttacher(a Attacher) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.attacher = a
	}
}

// WithLoader is an option builder that sets the model loader.
//
// Parameters:
//   - l: the loader used to fetch and decode payloads
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the loader option to a coordinator
func WithLoader(l loader.Loader) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.loader = l
	}
}

// WithTextureRegistry is an option builder that sets the registry textures registered with
// RegisterTextures load through.
//
// Parameters:
//   - r: the texture registry
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the registry option to a coordinator
func WithTextureRegistry(r texture.Registry) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.textures = r
	}
}

// WithCatalog is an option builder that supplies a ready material catalog.
//
// Parameters:
//   - m: the material lookup
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the catalog option to a coordinator
func WithCatalog(m MaterialSource) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.catalog = m
	}
}

// WithCatalogFactory is an option builder that supplies a function building the material catalog
// after every texture has loaded.
//
// Parameters:
//   - f: the catalog factory
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the factory option to a coordinator
func WithCatalogFactory(f CatalogFactory) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.catalogFactory = f
	}
}

// WithWorkers is an option builder that sets the worker count of a coordinator-owned pool.
//
// Parameters:
//   - n: the maximum number of concurrent model loads, ignored when not positive
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the worker count option to a coordinator
func WithWorkers(n int) CoordinatorBuilderOption {
	return func(c *coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithProgressSink is an option builder that sets the receiver of aggregate percentages.
//
// Parameters:
//   - fn: called with round(loaded/total*100) after every completed item
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the sink option to a coordinator
func WithProgressSink(fn func(pct int)) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.onProgress = fn
	}
}

// WithReadySink is an option builder that sets the function called once every item has loaded.
//
// Parameters:
//   - fn: the ready callback
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the sink option to a coordinator
func WithReadySink(fn func()) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.onReady = fn
	}
}

// WithErrorSink is an option builder that sets the single receiver of load failures.
//
// Parameters:
//   - fn: receives *LoadError, *MissingNodeError and texture load errors
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the sink option to a coordinator
func WithErrorSink(fn func(error)) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.onError = fn
	}
}

// WithLogger is an option builder that sets the coordinator logger.
func WithLogger(l zerolog.Logger) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.logger = l
	}
}

// WithMetrics is an option builder that sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.metrics = m
	}
}
