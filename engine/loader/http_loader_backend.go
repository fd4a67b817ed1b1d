package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned when an image request completes with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request for %s failed with status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

type httpLoaderBackend struct {
	client *http.Client
}

var _ loaderBackend = &httpLoaderBackend{}

func newHTTPLoaderBackend(client *http.Client) *httpLoaderBackend {
	return &httpLoaderBackend{client: client}
}

func (b *httpLoaderBackend) Open(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
