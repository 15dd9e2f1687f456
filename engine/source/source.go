// Package source resolves manifest source paths against an asset root and reads the payloads.
// The root is either a local directory or an http(s) base URL. Payloads whose name ends in
// ".lz4" are LZ4-frame compressed and are decompressed while reading.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// CompressedSuffix marks LZ4-frame compressed payloads.
const CompressedSuffix = ".lz4"

// ErrHTTPStatus is wrapped by Fetch when a remote source answers with a non-2xx status.
var ErrHTTPStatus = errors.New("unexpected http status")

// ProgressFunc receives the number of payload bytes read so far and the expected total.
// total is -1 when the size is unknown.
type ProgressFunc func(read, total int64)

// fetcher is the implementation of the Fetcher interface.
type fetcher struct {
	root      string
	client    *http.Client
	chunkSize int
}

// Fetcher reads payloads named by manifest sources.
type Fetcher interface {
	// Resolve joins a source onto the root. Absolute paths and absolute URLs are returned unchanged.
	//
	// Parameters:
	//   - src: the manifest source
	//
	// Returns:
	//   - string: the resolved file path or URL
	Resolve(src string) string

	// Fetch reads the whole payload, decompressing .lz4 sources. The context is consulted
	// before the read starts and governs http requests; onProgress may be nil.
	//
	// Parameters:
	//   - ctx: the context for the read
	//   - src: the manifest source
	//   - onProgress: optional byte progress callback
	//
	// Returns:
	//   - []byte: the decoded payload
	//   - error: error if the payload cannot be opened, read or decompressed
	Fetch(ctx context.Context, src string, onProgress ProgressFunc) ([]byte, error)
}

var _ Fetcher = &fetcher{}

// NewFetcher creates a Fetcher configured with the given options. The default root is the
// working directory and the default client is http.DefaultClient.
//
// Parameters:
//   - options: variadic list of FetcherBuilderOption functions
//
// Returns:
//   - Fetcher: the configured fetcher
func NewFetcher(options ...FetcherBuilderOption) Fetcher {
	f := &fetcher{
		root:      ".",
		client:    http.DefaultClient,
		chunkSize: 32 * 1024,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// Ext returns the format extension of a source, ignoring a trailing ".lz4".
//
// Parameters:
//   - src: the manifest source
//
// Returns:
//   - string: the lower-cased extension including the dot, e.g. ".glb"
func Ext(src string) string {
	name := strings.TrimSuffix(strings.ToLower(src), CompressedSuffix)
	if u, err := url.Parse(name); err == nil && u.Scheme != "" {
		name = u.Path
	}
	return path.Ext(name)
}

func (f *fetcher) Resolve(src string) string {
	if isURL(src) || filepath.IsAbs(src) {
		return src
	}
	if isURL(f.root) {
		return strings.TrimSuffix(f.root, "/") + "/" + strings.TrimPrefix(src, "/")
	}
	return filepath.Join(f.root, filepath.FromSlash(src))
}

func (f *fetcher) Fetch(ctx context.Context, src string, onProgress ProgressFunc) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved := f.Resolve(src)
	body, total, err := f.open(ctx, resolved)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var r io.Reader = &progressReader{r: body, total: total, onProgress: onProgress}
	if strings.HasSuffix(strings.ToLower(src), CompressedSuffix) {
		r = lz4.NewReader(r)
	}

	var buf bytes.Buffer
	if total > 0 && !strings.HasSuffix(strings.ToLower(src), CompressedSuffix) {
		buf.Grow(int(total))
	}
	chunk := make([]byte, f.chunkSize)
	for {
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", resolved, err)
		}
	}
}

// open returns the payload stream and its size, or -1 when the size is unknown.
func (f *fetcher) open(ctx context.Context, resolved string) (io.ReadCloser, int64, error) {
	if isURL(resolved) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to build request for %s: %w", resolved, err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to fetch %s: %w", resolved, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, 0, fmt.Errorf("%w %d for %s", ErrHTTPStatus, resp.StatusCode, resolved)
		}
		return resp.Body, resp.ContentLength, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", resolved, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("failed to stat %s: %w", resolved, err)
	}
	return file, info.Size(), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// progressReader reports cumulative bytes read from the raw (possibly compressed) stream.
type progressReader struct {
	r          io.Reader
	read       int64
	total      int64
	onProgress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.onProgress != nil {
			p.onProgress(p.read, p.total)
		}
	}
	return n, err
}
