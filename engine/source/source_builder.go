package source

import "net/http"

// FetcherBuilderOption is a function that configures a fetcher instance during construction.
type FetcherBuilderOption func(*fetcher)

// WithRoot is an option builder that sets the directory or http(s) base URL sources resolve against.
//
// Parameters:
//   - root: the asset root
//
// Returns:
//   - FetcherBuilderOption: a function that applies the root option to a fetcher
func WithRoot(root string) FetcherBuilderOption {
	return func(f *fetcher) {
		if root != "" {
			f.root = root
		}
	}
}

// WithHTTPClient is an option builder that sets the client used for remote sources.
//
// Parameters:
//   - client: the http client
//
// Returns:
//   - FetcherBuilderOption: a function that applies the client option to a fetcher
func WithHTTPClient(client *http.Client) FetcherBuilderOption {
	return func(f *fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithChunkSize is an option builder that sets the read granularity, which is also the
// granularity of progress callbacks.
//
// Parameters:
//   - size: the chunk size in bytes, ignored when not positive
//
// Returns:
//   - FetcherBuilderOption: a function that applies the chunk size option to a fetcher
func WithChunkSize(size int) FetcherBuilderOption {
	return func(f *fetcher) {
		if size > 0 {
			f.chunkSize = size
		}
	}
}
