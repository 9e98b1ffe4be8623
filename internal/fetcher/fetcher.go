// Package fetcher downloads drawing files from plan rooms, which in
// practice still means FTP servers more often than not, with plain HTTP as
// the alternative.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Fetcher retrieves one remote drawing file as a stream.
type Fetcher interface {
	// Download returns a reader for the remote file. The caller must close
	// it to release the underlying connection.
	Download(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// ForURL picks the fetcher for a URL's scheme.
func ForURL(rawURL string, timeout time.Duration) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse url")
	}
	switch u.Scheme {
	case "ftp":
		return NewFTPFetcher(FTPOptions{Timeout: timeout}), nil
	case "http", "https":
		return NewHTTPFetcher(HTTPOptions{Timeout: timeout}), nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

// FetchToDir downloads a drawing into dir, named after the URL's base path.
// Returns the local path and bytes written.
func FetchToDir(ctx context.Context, rawURL, dir string, timeout time.Duration) (string, int64, error) {
	f, err := ForURL(rawURL, timeout)
	if err != nil {
		return "", 0, err
	}

	name, err := drawingFilename(rawURL)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, eris.Wrapf(err, "fetcher: mkdir %s", dir)
	}

	rc, err := f.Download(ctx, rawURL)
	if err != nil {
		return "", 0, err
	}
	defer rc.Close() //nolint:errcheck

	local := filepath.Join(dir, name)
	file, err := os.Create(local)
	if err != nil {
		return "", 0, eris.Wrapf(err, "fetcher: create %s", local)
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, rc)
	if err != nil {
		return local, n, eris.Wrap(err, "fetcher: write file")
	}
	return local, n, nil
}

// drawingFilename derives a safe local filename from the URL path.
func drawingFilename(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: parse url")
	}
	name := filepath.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", eris.Errorf("fetcher: no filename in url %q", rawURL)
	}
	// strip anything path-like that survived Base
	name = strings.ReplaceAll(name, "..", "_")
	return name, nil
}
