package datasets

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
	"github.com/YuminosukeSato/stackgo/pkg/log"
)

// Fetch downloads url into cachePath unless the file already exists, and
// returns the path to the cached file. The download goes through a temporary
// file and an atomic rename so a cancelled run never leaves a truncated
// cache entry behind.
func Fetch(ctx context.Context, url, cachePath string) (string, error) {
	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	logger := log.GetLoggerWithName("datasets")
	logger.Info("downloading dataset", "url", url, "cache", cachePath)

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return "", errors.Wrap(err, "Fetch: create cache dir")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "Fetch: build request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "Fetch: GET %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("Fetch: GET %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(cachePath), ".fetch-*")
	if err != nil {
		return "", errors.Wrap(err, "Fetch: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", errors.Wrap(err, "Fetch: download")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, "Fetch: close temp file")
	}

	if err := os.Rename(tmpName, cachePath); err != nil {
		return "", errors.Wrap(err, "Fetch: move into cache")
	}

	return cachePath, nil
}
