package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout time.Duration
}

// FTPFetcher downloads drawing files from FTP plan rooms.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates a new FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &FTPFetcher{opts: opts}
}

// drawingExtensions are the file types we treat as drawings when listing a
// plan-room directory.
var drawingExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".dwg":  true,
}

// parseFTPURL extracts host (with port), path, and credentials from an FTP
// URL. Credentials come from the URL userinfo; anonymous is the default,
// which is still how most public plan rooms are served.
func parseFTPURL(rawURL string) (host, urlPath, user, pass string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", "", eris.Wrap(err, "parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", "", "", eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	urlPath = u.Path
	if urlPath == "" {
		return "", "", "", "", eris.New("empty path in ftp url")
	}

	user = "anonymous"
	pass = "anonymous@"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		} else {
			pass = ""
		}
	}

	return host, urlPath, user, pass, nil
}

// ftpConnReader wraps an FTP response and connection so that closing the reader
// also closes the FTP response and disconnects from the server.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "close ftp response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "quit ftp connection")
	}
	return nil
}

func (f *FTPFetcher) connect(ctx context.Context, rawURL string) (*ftp.ServerConn, string, error) {
	host, urlPath, user, pass, err := parseFTPURL(rawURL)
	if err != nil {
		return nil, "", err
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", urlPath))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, "", eris.Wrap(err, "ftp dial")
	}

	if err := conn.Login(user, pass); err != nil {
		conn.Quit() //nolint:errcheck
		return nil, "", eris.Wrap(err, "ftp login")
	}

	return conn, urlPath, nil
}

// Download connects to the FTP server, retrieves the file, and returns a reader.
// The caller must close the returned ReadCloser to release the FTP connection.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	conn, urlPath, err := f.connect(ctx, ftpURL)
	if err != nil {
		return nil, err
	}

	resp, err := conn.Retr(urlPath)
	if err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrap(err, "ftp retrieve")
	}

	return &ftpConnReader{resp: resp, conn: conn}, nil
}

// ListDrawings lists drawing files in an FTP directory, sorted by name.
// Non-drawing files (indexes, addenda in odd formats) are skipped.
func (f *FTPFetcher) ListDrawings(ctx context.Context, dirURL string) ([]string, error) {
	conn, urlPath, err := f.connect(ctx, dirURL)
	if err != nil {
		return nil, err
	}
	defer conn.Quit() //nolint:errcheck

	entries, err := conn.List(urlPath)
	if err != nil {
		return nil, eris.Wrap(err, "ftp list")
	}

	var names []string
	for _, e := range entries {
		if e.Type != ftp.EntryTypeFile {
			continue
		}
		if !isDrawingFile(e.Name) {
			continue
		}
		names = append(names, path.Join(urlPath, e.Name))
	}
	sort.Strings(names)
	return names, nil
}

func isDrawingFile(name string) bool {
	return drawingExtensions[strings.ToLower(path.Ext(name))]
}
