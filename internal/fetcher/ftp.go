package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// defaultMaxDumpBytes caps a registry dump transfer. Award lists are a
// few megabytes at most; anything past this is a misbehaving server.
const defaultMaxDumpBytes = 64 << 20

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout time.Duration

	// MaxDumpBytes aborts a transfer that exceeds it. Zero means the
	// package default.
	MaxDumpBytes int64
}

// FTPFetcher downloads registry dumps over FTP. Some national tourism
// boards still publish their award lists this way, occasionally behind
// basic credentials carried in the registry URL.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates a new FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxDumpBytes <= 0 {
		opts.MaxDumpBytes = defaultMaxDumpBytes
	}
	return &FTPFetcher{opts: opts}
}

// ftpTarget is a parsed registry dump location.
type ftpTarget struct {
	host string
	path string
	user string
	pass string
}

// parseFTPURL extracts host (with port), path, and optional credentials
// from a registry's FTP URL. Without userinfo the login is anonymous.
func parseFTPURL(rawURL string) (ftpTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ftpTarget{}, eris.Wrap(err, "ftp: parse url")
	}
	if u.Scheme != "ftp" {
		return ftpTarget{}, eris.Errorf("ftp: expected ftp scheme, got %q", u.Scheme)
	}

	t := ftpTarget{host: u.Host, path: u.Path, user: "anonymous", pass: "anonymous@"}
	if _, _, splitErr := net.SplitHostPort(t.host); splitErr != nil {
		t.host = net.JoinHostPort(t.host, "21")
	}
	if u.User != nil && u.User.Username() != "" {
		t.user = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			t.pass = pass
		}
	}

	if t.path == "" {
		return ftpTarget{}, eris.New("ftp: empty path in url")
	}
	return t, nil
}

// cappedReader fails the transfer once it passes the dump-size limit.
type cappedReader struct {
	r     io.Reader
	left  int64
	total int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.left -= int64(n)
	c.total += int64(n)
	if c.left < 0 {
		return n, eris.Errorf("ftp: dump exceeds %d byte limit", c.total+c.left)
	}
	return n, err
}

// ftpConnReader couples the FTP response with its connection so closing
// the reader also disconnects.
type ftpConnReader struct {
	capped *cappedReader
	resp   *ftp.Response
	conn   *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.capped.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "ftp: close response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "ftp: quit connection")
	}
	return nil
}

// Download retrieves the dump and returns a size-capped reader. The
// caller must close the reader to release the FTP connection.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	target, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("ftp: connecting",
		zap.String("host", target.host), zap.String("path", target.path))

	conn, err := ftp.Dial(target.host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "ftp: dial")
	}

	if err := conn.Login(target.user, target.pass); err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "ftp: login")
	}

	resp, err := conn.Retr(target.path)
	if err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "ftp: retrieve")
	}
	return &ftpConnReader{
		capped: &cappedReader{r: resp, left: f.opts.MaxDumpBytes},
		resp:   resp,
		conn:   conn,
	}, nil
}

// DownloadToFile downloads the dump to a local file, typically a temp
// path handed to the XLSX reader. Returns bytes written.
func (f *FTPFetcher) DownloadToFile(ctx context.Context, ftpURL string, path string) (int64, error) {
	start := time.Now()
	rc, err := f.Download(ctx, ftpURL)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "ftp: create file")
	}
	defer file.Close()

	n, err := io.Copy(file, rc)
	if err != nil {
		return n, eris.Wrap(err, "ftp: write file")
	}
	zap.L().Debug("ftp: dump downloaded",
		zap.Int64("bytes", n), zap.Duration("elapsed", time.Since(start)))
	return n, nil
}
