package texture

import (
	"github.com/rs/zerolog"

	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
	"github.com/Carmen-Shannon/oxy-station/engine/source"
)

// RegistryBuilderOption is a function that configures a registry instance during construction.
type RegistryBuilderOption func(*registry)

// WithFetcher is an option builder that sets the payload fetcher.
//
// Parameters:
//   - f: the fetcher resolving texture sources
//
// Returns:
//   - RegistryBuilderOption: a function that applies the fetcher option to a registry
func WithFetcher(f source.Fetcher) RegistryBuilderOption {
	return func(r *registry) {
		r.fetcher = f
	}
}

// WithWorkers is an option builder that sets the worker count of a registry-owned pool.
//
// Parameters:
//   - n: the maximum number of concurrent decodes, ignored when not positive
//
// Returns:
//   - RegistryBuilderOption: a function that applies the worker count option to a registry
func WithWorkers(n int) RegistryBuilderOption {
	return func(r *registry) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger is an option builder that sets the registry logger.
func WithLogger(l zerolog.Logger) RegistryBuilderOption {
	return func(r *registry) {
		r.logger = l
	}
}

// WithMetrics is an option builder that sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) RegistryBuilderOption {
	return func(r *registry) {
		r.metrics = m
	}
}
