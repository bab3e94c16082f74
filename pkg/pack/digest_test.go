package pack

import (
	"bytes"
	"context"
	"crypto/sha1"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type packServer struct {
	mu          sync.Mutex
	body        []byte
	etag        string
	requests    int
	notModified int
}

func (s *packServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	if s.etag != "" {
		if r.Header.Get("If-None-Match") == s.etag {
			s.notModified++
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", s.etag)
	}
	_, _ = w.Write(s.body)
}

func (s *packServer) set(body []byte, etag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body, s.etag = body, etag
}

func sum(b []byte) []byte {
	h := sha1.Sum(b)
	return h[:]
}

func TestDigester_Digest(t *testing.T) {
	ps := &packServer{body: []byte("pack contents")}
	srv := httptest.NewServer(ps)
	defer srv.Close()

	d := NewDigester(DigesterOptions{Client: srv.Client()})
	hash, err := d.Digest(context.Background(), srv.URL+"/pack.zip")
	require.NoError(t, err)
	assert.Equal(t, sum([]byte("pack contents")), hash)
	assert.Len(t, hash, 20)
}

func TestDigester_ConditionalRequest(t *testing.T) {
	ps := &packServer{body: []byte("v1"), etag: `"v1"`}
	srv := httptest.NewServer(ps)
	defer srv.Close()

	d := NewDigester(DigesterOptions{Client: srv.Client()})
	ctx := context.Background()
	url := srv.URL + "/pack.zip"

	first, err := d.Digest(ctx, url)
	require.NoError(t, err)
	second, err := d.Digest(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, ps.notModified, "second digest should be served as not modified")

	ps.set([]byte("v2"), `"v2"`)
	third, err := d.Digest(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, sum([]byte("v2")), third)

	d.Forget(url)
	_, err = d.Digest(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, 1, ps.notModified)
	assert.Equal(t, 4, ps.requests)
}

func TestDigester_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d := NewDigester(DigesterOptions{Client: srv.Client()})
	_, err := d.Digest(context.Background(), srv.URL+"/missing.zip")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestDigester_TooLarge(t *testing.T) {
	ps := &packServer{body: bytes.Repeat([]byte{'x'}, 64)}
	srv := httptest.NewServer(ps)
	defer srv.Close()

	d := NewDigester(DigesterOptions{Client: srv.Client(), MaxSize: 32})
	_, err := d.Digest(context.Background(), srv.URL+"/big.zip")
	require.ErrorIs(t, err, ErrTooLarge)

	// Exactly at the limit is fine.
	d = NewDigester(DigesterOptions{Client: srv.Client(), MaxSize: 64})
	_, err = d.Digest(context.Background(), srv.URL+"/big.zip")
	require.NoError(t, err)
}

func TestDigester_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/pack.zip"
	srv.Close()

	d := NewDigester(DigesterOptions{})
	_, err := d.Digest(context.Background(), url)
	require.Error(t, err)
}
