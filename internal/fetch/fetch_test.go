package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSuccessParsesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"price": 1.5}`))
	}))
	defer srv.Close()

	resp := NewClient(Options{}).Get(context.Background(), srv.URL, nil, nil)

	require.True(t, resp.OK)
	require.Equal(t, http.StatusOK, resp.Status)
	obj, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, 1.5, obj["price"])
	require.False(t, resp.TimedOut)
}

func TestNonJSONBodyPassesThroughAsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("pong"))
	}))
	defer srv.Close()

	resp := NewClient(Options{}).Get(context.Background(), srv.URL, nil, nil)

	require.True(t, resp.OK)
	require.Equal(t, "pong", resp.Data)
}

func TestRetriesOn500ThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	client := NewClient(Options{MaxRetries: 2, Backoff: time.Millisecond})
	resp := client.Get(context.Background(), srv.URL, nil, nil)

	require.True(t, resp.OK)
	require.Equal(t, int32(3), calls.Load())
}

func TestRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(Options{MaxRetries: 2, Backoff: time.Millisecond})
	resp := client.Get(context.Background(), srv.URL, nil, nil)

	require.True(t, resp.OK)
	require.Equal(t, int32(2), calls.Load())
}

func TestTerminal404NotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(Options{MaxRetries: 2, Backoff: time.Millisecond})
	resp := client.Get(context.Background(), srv.URL, nil, nil)

	require.False(t, resp.OK)
	require.Equal(t, http.StatusNotFound, resp.Status)
	require.Contains(t, resp.Err, "HTTP 404")
	require.Equal(t, int32(1), calls.Load())
}

func TestTimeoutReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(Options{Timeout: 50 * time.Millisecond, MaxRetries: -1})
	start := time.Now()
	resp := client.Get(context.Background(), srv.URL, nil, nil)

	require.False(t, resp.OK)
	require.True(t, resp.TimedOut)
	require.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestOversizedBodyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	client := NewClient(Options{MaxBodyBytes: 1024})
	resp := client.Get(context.Background(), srv.URL, nil, nil)

	require.False(t, resp.OK)
	require.Contains(t, resp.Err, "exceeds limit")
}

func TestValidateHookRejectsEmbeddedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error": "token not found"}`))
	}))
	defer srv.Close()

	validate := func(data any) error {
		if m, ok := data.(map[string]any); ok {
			if msg, ok := m["error"].(string); ok && msg != "" {
				return errors.New("upstream error: " + msg)
			}
		}
		return nil
	}

	resp := NewClient(Options{}).Get(context.Background(), srv.URL, nil, validate)

	require.False(t, resp.OK)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Contains(t, resp.Err, "token not found")
}

func TestMalformedJSONIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"broken":`))
	}))
	defer srv.Close()

	resp := NewClient(Options{}).Get(context.Background(), srv.URL, nil, nil)

	require.False(t, resp.OK)
	require.Contains(t, resp.Err, "invalid JSON")
}

func TestRetryClassification(t *testing.T) {
	// Transient: timeouts and dropped connections.
	require.True(t, retryableNetErr(context.DeadlineExceeded))
	require.True(t, retryableNetErr(&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}))
	require.True(t, retryableNetErr(&net.OpError{Op: "read", Err: syscall.ECONNRESET}))

	// Terminal: resolution and handshake problems will not heal in-window.
	require.False(t, retryableNetErr(&net.DNSError{Err: "no such host", IsNotFound: true}))
	require.False(t, retryableNetErr(errors.New("tls: failed to verify certificate")))
}

func TestHeadersForwarded(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	resp := NewClient(Options{}).Get(context.Background(), srv.URL, map[string]string{"X-API-KEY": "secret"}, nil)

	require.True(t, resp.OK)
	require.Equal(t, "secret", gotKey)
}
