package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRobotsChecker_DisallowedPath(t *testing.T) {
	var robotsFetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/robots.txt", r.URL.Path)
		robotsFetches.Add(1)
		w.Write([]byte("User-agent: *\nDisallow: /private/\nCrawl-delay: 2\n")) //nolint:errcheck
	}))
	defer srv.Close()

	rc := NewRobotsChecker("placeintel-test", 5*time.Second)

	allowed, delay := rc.CanFetch(context.Background(), srv.URL+"/reviews/aurora")
	assert.True(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	allowed, _ = rc.CanFetch(context.Background(), srv.URL+"/private/data")
	assert.False(t, allowed)

	assert.Equal(t, int32(1), robotsFetches.Load(), "robots.txt is cached per host")
}

func TestRobotsChecker_UnreachableAllowsByDefault(t *testing.T) {
	rc := NewRobotsChecker("placeintel-test", 100*time.Millisecond)

	allowed, delay := rc.CanFetch(context.Background(), "http://127.0.0.1:1/reviews")
	assert.True(t, allowed)
	assert.Zero(t, delay)
}

func TestHostLimiter_SharedPerHost(t *testing.T) {
	h := NewHostLimiter(rate.Limit(1000), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, h.Wait(ctx, "https://reviews.example/a"))
	require.NoError(t, h.Wait(ctx, "https://reviews.example/b"))
	require.NoError(t, h.Wait(ctx, "https://other.example/c"))

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Len(t, h.limiters, 2, "one limiter per host")
}

func TestHostLimiter_InvalidURL(t *testing.T) {
	h := NewHostLimiter(rate.Limit(1), 1)
	assert.Error(t, h.Wait(context.Background(), "://bad"))
}
