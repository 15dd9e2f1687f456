package loader

import (
	"github.com/rs/zerolog"

	"github.com/Carmen-Shannon/oxy-station/engine/source"
)

// LoaderBuilderOption is a function that configures a Loader instance during construction.
type LoaderBuilderOption func(*loader)

// WithFetcher is an option builder that sets the payload fetcher.
//
// Parameters:
//   - f: the fetcher resolving model sources
//
// Returns:
//   - LoaderBuilderOption: a function that applies the fetcher option to a Loader
func WithFetcher(f source.Fetcher) LoaderBuilderOption {
	return func(l *loader) {
		l.fetcher = f
	}
}

// WithLogger is an option builder that sets the loader logger.
func WithLogger(logger zerolog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.logger = logger
	}
}
