// Package fetch streams package artifacts to disk, hashing them on the way.
// Sources are http(s) URLs or absolute paths on the shared volume. Failures
// surface immediately; there are no transparent retries.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/dnscache"
)

var (
	// ErrNotFound indicates the artifact does not exist at its source.
	ErrNotFound = errors.New("artifact not found")

	// ErrUpstream indicates the remote side failed (5xx).
	ErrUpstream = errors.New("upstream unavailable")
)

// Result describes a completed download.
type Result struct {
	// Path is the local file the artifact was written to.
	Path string

	// Size is the number of bytes written.
	Size int64

	// Checksum is the hex SHA-256 computed while streaming, so verification
	// never needs a second pass over the payload.
	Checksum string
}

// Fetcher downloads artifacts.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// New creates a Fetcher. The default client caches DNS lookups; artifact
// hosts on a campus network resolve slowly and repeat often.
func New(opts ...Option) *Fetcher {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					host, port, err := net.SplitHostPort(addr)
					if err != nil {
						return nil, err
					}
					ips, err := resolver.LookupHost(ctx, host)
					if err != nil {
						return nil, err
					}
					for _, ip := range ips {
						conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
						if err == nil {
							return conn, nil
						}
					}
					return nil, fmt.Errorf("failed to dial any resolved IP for %s", host)
				},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: "diem/1.0",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Download streams the artifact at rawURL into dest, computing its SHA-256
// incrementally. dest's parent directory must exist.
func (f *Fetcher) Download(ctx context.Context, rawURL, dest string) (*Result, error) {
	body, err := f.open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, h), body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("downloading %s: %w", rawURL, err)
	}

	res := &Result{
		Path:     dest,
		Size:     size,
		Checksum: hex.EncodeToString(h.Sum(nil)),
	}
	log.Debug("downloaded artifact", "url", rawURL, "bytes", size, "sha256", res.Checksum)
	return res, nil
}

// open returns the artifact byte stream for either source kind.
func (f *Fetcher) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact source %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		return f.openHTTP(ctx, rawURL)
	case "file":
		return openLocal(u.Path)
	case "":
		if !filepath.IsAbs(rawURL) {
			return nil, fmt.Errorf("artifact path must be absolute: %q", rawURL)
		}
		return openLocal(rawURL)
	default:
		return nil, fmt.Errorf("unsupported artifact source scheme %q", u.Scheme)
	}
}

func openLocal(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Fetcher) openHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching artifact: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil

	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)

	case resp.StatusCode >= 500:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstream, rawURL, resp.StatusCode)

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, rawURL, string(body))
	}
}
