package loader

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

// DefaultTimeout bounds a single image request when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	client         *http.Client
	jar            http.CookieJar
	defaultHeaders map[string]string
	logger         *slog.Logger

	httpBackend loaderBackend
	fileBackend loaderBackend

	inFlight int
	loaded   int
	failed   int
}

// Loader defines the public-facing interface for fetching and decoding panorama images.
// It abstracts the transport (HTTP, local files) behind a backend selected from the URL
// and decodes PNG, JPEG and WebP data into RGBA images.
type Loader interface {
	// LoadImage fetches and decodes the image at url.
	// The backend is selected from the URL scheme (http/https → HTTP, file:// or no scheme → file).
	// Headers are merged over the loader defaults and only apply to HTTP requests.
	//
	// Parameters:
	//   - ctx: cancels the request when done
	//   - url: the image location
	//   - headers: extra request headers, may be nil
	//
	// Returns:
	//   - *image.RGBA: the decoded image with bounds starting at the origin
	//   - error: error if fetching or decoding fails
	LoadImage(ctx context.Context, url string, headers map[string]string) (*image.RGBA, error)

	// Stats returns request counters since the loader was created.
	//
	// Returns:
	//   - Stats: the counters
	Stats() Stats
}

// Stats holds request counters of a Loader.
type Stats struct {
	// InFlight is the number of requests currently running.
	InFlight int
	// Loaded is the number of images decoded successfully.
	Loaded int
	// Failed is the number of requests that failed, cancellations excluded.
	Failed int
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with options applied.
// Without WithHTTPClient an http.Client with DefaultTimeout is used.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:             sync.RWMutex{},
		defaultHeaders: make(map[string]string),
		fileBackend:    fileLoaderBackend{},
	}

	for _, option := range options {
		option(l)
	}

	if l.client == nil {
		l.client = &http.Client{Timeout: DefaultTimeout}
	}
	if l.jar != nil {
		c := *l.client
		c.Jar = l.jar
		l.client = &c
	}
	if l.logger == nil {
		l.logger = common.Logger()
	}
	l.httpBackend = newHTTPLoaderBackend(l.client)
	return l
}

func (l *loader) LoadImage(ctx context.Context, url string, headers map[string]string) (*image.RGBA, error) {
	backend, err := l.resolveBackend(url)
	if err != nil {
		return nil, err
	}

	l.track(func(s *loader) { s.inFlight++ })
	img, err := l.load(ctx, backend, url, l.mergeHeaders(headers))
	l.track(func(s *loader) {
		s.inFlight--
		switch {
		case err == nil:
			s.loaded++
		case !errors.Is(err, context.Canceled):
			s.failed++
		}
	})
	return img, err
}

func (l *loader) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Stats{InFlight: l.inFlight, Loaded: l.loaded, Failed: l.failed}
}

func (l *loader) load(ctx context.Context, backend loaderBackend, url string, headers map[string]string) (*image.RGBA, error) {
	start := time.Now()
	rc, err := backend.Open(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, err := common.DecodeRGBA(rc)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to load %s: %w", url, err)
	}

	l.logger.Debug("image loaded", "url", url, "width", img.Rect.Dx(), "height", img.Rect.Dy(), "elapsed", time.Since(start))
	return img, nil
}

func (l *loader) mergeHeaders(headers map[string]string) map[string]string {
	if len(l.defaultHeaders) == 0 {
		return headers
	}
	merged := make(map[string]string, len(l.defaultHeaders)+len(headers))
	for k, v := range l.defaultHeaders {
		merged[k] = v
	}
	for k, v := range headers {
		merged[k] = v
	}
	return merged
}

func (l *loader) track(update func(*loader)) {
	l.mu.Lock()
	update(l)
	l.mu.Unlock()
}

// resolveBackend selects an appropriate loader backend based on the URL scheme.
func (l *loader) resolveBackend(url string) (loaderBackend, error) {
	scheme, _, found := strings.Cut(url, "://")
	if !found {
		return l.fileBackend, nil
	}
	switch strings.ToLower(scheme) {
	case "http", "https":
		return l.httpBackend, nil
	case "file":
		return l.fileBackend, nil
	default:
		return nil, fmt.Errorf("unsupported url scheme: %s", scheme)
	}
}
