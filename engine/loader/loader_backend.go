package loader

import (
	"context"
	"io"
)

// loaderBackend defines the generic interface for opening image sources.
// Concrete implementations (e.g., httpLoaderBackend) handle transport-specific details.
type loaderBackend interface {
	// Open starts reading the resource at url.
	//
	// Parameters:
	//   - ctx: cancels the request when done
	//   - url: the resource location
	//   - headers: request headers, ignored by transports without headers
	//
	// Returns:
	//   - io.ReadCloser: the encoded image stream, closed by the caller
	//   - error: error if the resource cannot be opened
	Open(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error)
}
