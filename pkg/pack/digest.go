package pack

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultMaxSize is the largest pack accepted, matching the client's own limit.
	DefaultMaxSize int64 = 250 << 20
	// DefaultTimeout bounds a single pack download.
	DefaultTimeout = 2 * time.Minute
	// DefaultValidatorTTL is how long download validators (ETag, Last-Modified)
	// are remembered for conditional requests.
	DefaultValidatorTTL = 24 * time.Hour

	userAgent = "serverpacks (+https://gate.minekube.com)"
)

// ErrTooLarge is returned when a pack exceeds the configured size limit.
var ErrTooLarge = errors.New("resource pack exceeds size limit")

// StatusError is returned when the pack host answers with a non-OK status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s fetching %s", e.Code, http.StatusText(e.Code), e.URL)
}

// Hasher computes the content hash of the pack at a URL.
type Hasher interface {
	Digest(ctx context.Context, url string) ([]byte, error)
}

// DigesterOptions are Digester options.
type DigesterOptions struct {
	// Client is used for downloads. Defaults to an otelhttp instrumented
	// client with Timeout.
	Client *http.Client
	// Timeout bounds a download when Client is not set. Defaults to DefaultTimeout.
	Timeout time.Duration
	// MaxSize is the maximum pack size in bytes. Defaults to DefaultMaxSize.
	MaxSize int64
	// ValidatorTTL defaults to DefaultValidatorTTL.
	ValidatorTTL time.Duration
}

// Digester downloads packs and computes their SHA-1 hash.
//
// Responses carrying an ETag or Last-Modified header are remembered so
// that the next digest of the same URL is a conditional request, and an
// unchanged pack is not downloaded again. Concurrent digests of the same
// URL share one download.
type Digester struct {
	client  *http.Client
	maxSize int64

	known *ttlcache.Cache[string, digest]
	group singleflight.Group
}

var _ Hasher = (*Digester)(nil)

type digest struct {
	hash         []byte
	etag         string
	lastModified string
}

// NewDigester returns a new Digester.
func NewDigester(opts DigesterOptions) *Digester {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.ValidatorTTL <= 0 {
		opts.ValidatorTTL = DefaultValidatorTTL
	}
	if opts.Client == nil {
		opts.Client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   opts.Timeout,
		}
	}
	return &Digester{
		client:  opts.Client,
		maxSize: opts.MaxSize,
		known: ttlcache.New[string, digest](
			ttlcache.WithTTL[string, digest](opts.ValidatorTTL),
			ttlcache.WithDisableTouchOnHit[string, digest](),
		),
	}
}

// Digest downloads the pack at url and returns its SHA-1 hash.
func (d *Digester) Digest(ctx context.Context, url string) ([]byte, error) {
	v, err, _ := d.group.Do(url, func() (any, error) {
		return d.fetch(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	hash := v.([]byte)
	return append([]byte(nil), hash...), nil
}

// Forget drops the remembered validators for url so the next
// Digest downloads the pack unconditionally.
func (d *Digester) Forget(url string) {
	d.known.Delete(url)
}

func (d *Digester) fetch(ctx context.Context, url string) (hash []byte, err error) {
	ctx, span := tracer.Start(ctx, "pack.Digest", trace.WithAttributes(
		attribute.String("pack.url", url),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	var prev *digest
	if item := d.known.Get(url); item != nil {
		p := item.Value()
		prev = &p
		if p.etag != "" {
			req.Header.Set("If-None-Match", p.etag)
		}
		if p.lastModified != "" {
			req.Header.Set("If-Modified-Since", p.lastModified)
		}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading resource pack: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotModified && prev != nil:
		span.SetAttributes(attribute.Bool("pack.not_modified", true))
		return prev.hash, nil
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	if resp.ContentLength > d.maxSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, resp.ContentLength, d.maxSize)
	}
	h := sha1.New()
	n, err := io.Copy(h, io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading resource pack: %w", err)
	}
	if n > d.maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, d.maxSize)
	}
	hash = h.Sum(nil)
	span.SetAttributes(attribute.Int64("pack.size", n))

	next := digest{
		hash:         hash,
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}
	if next.etag != "" || next.lastModified != "" {
		d.known.Set(url, next, ttlcache.DefaultTTL)
	} else {
		d.known.Delete(url)
	}
	return hash, nil
}
