package httpc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, limit int) (*Client, *Throttler) {
	t.Helper()
	rate, err := NewRequestRate(limit, time.Second)
	require.NoError(t, err)
	throttler := NewThrottler(rate)
	throttler.PollInterval = 5 * time.Millisecond
	client := &Client{
		Tickets:  throttler,
		Identity: "Test User test@example.com",
		Retry:    RetryPolicy{MaxAttempts: 5, Timeout: 5 * time.Second, InitialWait: time.Millisecond},
	}
	return client, throttler
}

func TestGetReturnsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "hello")
	}))
	defer server.Close()

	client, _ := testClient(t, 100)
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "hello", string(resp.Body))
	require.Equal(t, "text/plain", resp.Headers.Get("Content-Type"))
	require.NoError(t, InspectResponse(resp))
}

func TestGetFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/b")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "landed")
	})

	client, throttler := testClient(t, 100)
	resp, err := client.Get(context.Background(), server.URL+"/a")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "landed", string(resp.Body))

	// Each hop consumes its own ticket.
	require.Equal(t, uint64(2), throttler.Metrics().TotalCalls)
	require.Equal(t, uint64(1), client.Stats().Redirects)
}

func TestGetRetriesAfter429(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, "finally")
	}))
	defer server.Close()

	client, _ := testClient(t, 100)
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "finally", string(resp.Body))
	require.Equal(t, int64(3), hits.Load())
	require.Equal(t, uint64(2), client.Stats().RateLimited)
}

func TestGetSurfaces429AfterExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := testClient(t, 100)
	client.Retry = RetryPolicy{MaxAttempts: 2, Timeout: 5 * time.Second, InitialWait: time.Millisecond}

	_, err := client.Get(context.Background(), server.URL)
	var tooMany *TooManyRequestsError
	require.ErrorAs(t, err, &tooMany)
	require.Equal(t, server.URL, tooMany.URL)
}

func TestGetReturnsNonSuccessStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	client, _ := testClient(t, 100)
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var statusErr *StatusError
	require.ErrorAs(t, InspectResponse(resp), &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestIdentityHeaderOverwritesCallerValue(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client, _ := testClient(t, 100)
	_, err := client.Get(context.Background(), server.URL,
		WithHeader("User-Agent", "spoofed"),
		WithIdentity("Override User override@example.com"))
	require.NoError(t, err)
	require.Equal(t, "Override User override@example.com", gotAgent)
}

func TestIdentityFailureSkipsRateLimiterAndNetwork(t *testing.T) {
	t.Setenv(identityEnvVar, "")

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client, throttler := testClient(t, 100)
	client.Identity = ""
	client.IdentityFunc = nil

	_, err := client.Get(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrIdentityNotSet)
	require.Equal(t, int64(0), hits.Load())
	require.Equal(t, uint64(0), throttler.Metrics().TotalCalls)
}

func TestRedirectChainIsCapped(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", server.URL)
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer server.Close()

	client, _ := testClient(t, 100)
	client.MaxRedirects = 3

	_, err := client.Get(context.Background(), server.URL)
	var tooDeep *TooManyRedirectsError
	require.ErrorAs(t, err, &tooDeep)
	require.Equal(t, 4, tooDeep.Hops)
}

func TestPostJSON(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, _ := testClient(t, 100)
	resp, err := client.PostJSON(context.Background(), server.URL, map[string]string{"cik": "0000320193"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "application/json", gotContentType)
	require.JSONEq(t, `{"cik":"0000320193"}`, string(gotBody))
}

func TestStreamYieldsLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "first\nsecond\nthird\n")
	}))
	defer server.Close()

	client, _ := testClient(t, 100)
	stream, err := client.Stream(context.Background(), server.URL)
	require.NoError(t, err)
	defer stream.Close() // nolint:errcheck // best-effort cleanup

	var lines []string
	for {
		line, err := stream.NextLine()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
	require.Equal(t, []string{"first", "second", "third"}, lines)
	require.NoError(t, stream.Close())
}

func TestStreamFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/new")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "streamed")
	})

	client, throttler := testClient(t, 100)
	stream, err := client.Stream(context.Background(), server.URL+"/old")
	require.NoError(t, err)
	defer stream.Close() // nolint:errcheck // best-effort cleanup

	body, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.Equal(t, "streamed", string(body))
	require.Equal(t, uint64(2), throttler.Metrics().TotalCalls)
}
