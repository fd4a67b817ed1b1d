package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

type fileLoaderBackend struct{}

var _ loaderBackend = fileLoaderBackend{}

func (fileLoaderBackend) Open(ctx context.Context, url string, _ map[string]string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(url, "file://")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}
