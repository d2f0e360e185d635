// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultMaxBytes  = 20 * 1024 * 1024 // 20MB
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "imagecat/1.0"
)

// Fetcher retrieves and decodes images.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Image, error)
}

// HTTPFetcher fetches images over HTTP(S) or from local paths.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	userAgent string
	logger    *slog.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithTimeout bounds each fetch.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxBytes limits the accepted body size.
func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// New creates a Fetcher.
//
// Returns Fetcher interface to enforce abstraction.
func New(opts ...Option) Fetcher {
	return newHTTPFetcher(opts...)
}

func newHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    http.DefaultClient,
		timeout:   defaultTimeout,
		maxBytes:  defaultMaxBytes,
		userAgent: defaultUserAgent,
		logger:    slog.Default().With("component", "fetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads and decodes the image at rawURL. URLs without a scheme and
// file:// URLs are read from the local filesystem.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Image, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty url", ErrFetch)
	}

	var (
		data []byte
		err  error
	)
	u, perr := url.Parse(rawURL)
	switch {
	case perr == nil && (u.Scheme == "http" || u.Scheme == "https"):
		data, err = f.download(ctx, rawURL)
	case perr == nil && u.Scheme == "file":
		data, err = f.readFile(u.Path)
	case perr == nil && u.Scheme == "":
		data, err = f.readFile(rawURL)
	default:
		err = fmt.Errorf("%w: unsupported url %q", ErrFetch, rawURL)
	}
	if err != nil {
		f.logger.Debug("fetch failed", "url", rawURL, "err", err)
		return nil, err
	}

	img, err := Decode(rawURL, data)
	if err != nil {
		f.logger.Debug("decode failed", "url", rawURL, "bytes", len(data), "err", err)
		return nil, err
	}
	f.logger.Debug("fetched image", "url", rawURL, "format", img.Format,
		"width", img.Dimensions.Width, "height", img.Dimensions.Height)
	return img, nil
}

func (f *HTTPFetcher) download(ctx context.Context, imageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}

	// Storage buckets often serve images as application/octet-stream, so
	// fall back to sniffing the body.
	ct := resp.Header.Get("Content-Type")
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if !strings.HasPrefix(ct, "image/") && !sniffImage(data) {
		return nil, fmt.Errorf("%w: content type %q", ErrNotImage, ct)
	}
	return data, nil
}

func (f *HTTPFetcher) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if info.Size() > f.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return data, nil
}

func sniffImage(data []byte) bool {
	ct := http.DetectContentType(data)
	return strings.HasPrefix(ct, "image/")
}
