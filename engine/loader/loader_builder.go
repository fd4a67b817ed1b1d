package loader

import (
	"log/slog"
	"net/http"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithHTTPClient is an option builder that sets the HTTP client used for remote images.
//
// Parameters:
//   - c: the client
//
// Returns:
//   - LoaderBuilderOption: a function that applies the client option to a loader
func WithHTTPClient(c *http.Client) LoaderBuilderOption {
	return func(l *loader) {
		l.client = c
	}
}

// WithCredentials is an option builder that sends and stores cookies on image requests,
// the equivalent of credentialed cross-origin requests.
//
// Parameters:
//   - jar: the cookie jar
//
// Returns:
//   - LoaderBuilderOption: a function that applies the credentials option to a loader
func WithCredentials(jar http.CookieJar) LoaderBuilderOption {
	return func(l *loader) {
		l.jar = jar
	}
}

// WithDefaultHeaders is an option builder that sets headers sent with every HTTP request.
// Headers passed to LoadImage take precedence.
//
// Parameters:
//   - headers: the headers
//
// Returns:
//   - LoaderBuilderOption: a function that applies the headers option to a loader
func WithDefaultHeaders(headers map[string]string) LoaderBuilderOption {
	return func(l *loader) {
		for k, v := range headers {
			l.defaultHeaders[k] = v
		}
	}
}

// WithLogger is an option builder that sets the logger of the Loader.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.logger = logger
	}
}
