package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"widgetboard/domain/core/entities"
	"widgetboard/infrastructure/config"
	pkgerrors "widgetboard/pkg/errors"
	"widgetboard/pkg/observability"
)

// backendStub emulates the entity backend: CSRF cookie priming plus a
// handful of poll and test endpoints.
type backendStub struct {
	mu               sync.Mutex
	votes            map[int64][]int64 // pollID -> choice ids voted by the stub's single client
	failChoice       int64             // voting this choice returns 500
	csrfCookieNoPath bool              // omit the cookie's Path attribute, scoping it to /api/
	csrfCalls        int
	sawToken         []string
}

func newBackendStub() *backendStub {
	return &backendStub{votes: make(map[int64][]int64)}
}

func (b *backendStub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/csrf/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.csrfCalls++
		b.mu.Unlock()
		cookie := &http.Cookie{Name: "csrftoken", Value: "tok-123", Path: "/"}
		if b.csrfCookieNoPath {
			cookie.Path = ""
		}
		http.SetCookie(w, cookie)
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /api/polls/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []entities.Poll{{ID: 1, Title: "Lunch", Owner: "anon_owner"}})
	})

	mux.HandleFunc("GET /api/polls/{id}/", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]string{"detail": "poll not found"})
			return
		}
		writeJSON(w, entities.Poll{ID: 1, Title: "Lunch", Owner: "anon_owner"})
	})

	mux.HandleFunc("POST /api/polls/1/vote/", func(w http.ResponseWriter, r *http.Request) {
		b.recordToken(r)
		var req struct {
			Choice int64 `json:"choice"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		defer b.mu.Unlock()
		if req.Choice == b.failChoice {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		b.votes[1] = append(b.votes[1], req.Choice)
		writeJSON(w, entities.Poll{ID: 1, Title: "Lunch", Choices: []entities.Choice{{ID: req.Choice, VotesCount: 1}}})
	})

	mux.HandleFunc("POST /api/polls/1/unvote/", func(w http.ResponseWriter, r *http.Request) {
		b.recordToken(r)
		b.mu.Lock()
		b.votes[1] = nil
		b.mu.Unlock()
		writeJSON(w, entities.Poll{ID: 1, Title: "Lunch"})
	})

	mux.HandleFunc("DELETE /api/polls/7/", func(w http.ResponseWriter, r *http.Request) {
		b.recordToken(r)
		var req struct {
			Owner string `json:"owner"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Owner != "anon_owner" {
			w.WriteHeader(http.StatusForbidden)
			writeJSON(w, map[string]string{"detail": "only the owner can delete this poll"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func (b *backendStub) recordToken(r *http.Request) {
	b.mu.Lock()
	b.sawToken = append(b.sawToken, r.Header.Get("X-CSRFToken"))
	b.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := &config.Config{
		BackendBaseURL:      baseURL,
		CSRFPath:            "/api/csrf/",
		RequestTimeout:      2 * time.Second,
		BreakerMaxFailures:  100,
		BreakerOpenInterval: time.Minute,
	}
	client, err := NewClient(cfg, observability.NewMetrics(prometheus.NewRegistry()), zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestListPolls(t *testing.T) {
	stub := newBackendStub()
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	listing := client.ListPolls(context.Background())
	require.False(t, listing.Failed)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, "Lunch", listing.Items[0].Title)
}

func TestListPollsFailureSetsFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	listing := client.ListPolls(context.Background())
	assert.True(t, listing.Failed)
	assert.Error(t, listing.Err)
	assert.Empty(t, listing.Items)
}

func TestListPollsBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := newTestClient(t, srv.URL)
	listing := client.ListPolls(context.Background())
	assert.True(t, listing.Failed)
	assert.True(t, pkgerrors.IsType(listing.Err, pkgerrors.ErrorTypeNetwork))
}

func TestFetchPollNotFound(t *testing.T) {
	stub := newBackendStub()
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.FetchPoll(context.Background(), 999)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestVotePrimesCSRFAndSendsToken(t *testing.T) {
	stub := newBackendStub()
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	poll, err := client.Vote(context.Background(), 1, []int64{10}, "anon_me")
	require.NoError(t, err)
	assert.Equal(t, int64(1), poll.ID)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.GreaterOrEqual(t, stub.csrfCalls, 1)
	require.NotEmpty(t, stub.sawToken)
	assert.Equal(t, "tok-123", stub.sawToken[0])
}

func TestVoteBatchFailsAsSet(t *testing.T) {
	stub := newBackendStub()
	stub.failChoice = 20
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Vote(context.Background(), 1, []int64{10, 20}, "anon_me")
	require.Error(t, err)

	// The vote for choice 10 succeeded before choice 20 failed; the
	// compensation must have cleared it.
	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Empty(t, stub.votes[1])
}

func TestVoteWithPathScopedCSRFCookie(t *testing.T) {
	stub := newBackendStub()
	stub.csrfCookieNoPath = true
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	// Without a Path attribute the cookie is scoped to /api/, not the
	// site root; the token must still be found and replayed.
	client := newTestClient(t, srv.URL)
	_, err := client.Vote(context.Background(), 1, []int64{10}, "anon_me")
	require.NoError(t, err)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.NotEmpty(t, stub.sawToken)
	assert.Equal(t, "tok-123", stub.sawToken[0])
}

func TestBackendRateLimitMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.FetchPoll(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeRateLimit))
	assert.Equal(t, http.StatusTooManyRequests, pkgerrors.GetAppError(err).HTTPStatus)
}

func TestDeleteForbiddenPassesThrough(t *testing.T) {
	stub := newBackendStub()
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.DeletePoll(context.Background(), 7, "anon_stranger")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsForbidden(err))
	assert.Contains(t, err.Error(), "only the owner can delete this poll")

	assert.NoError(t, client.DeletePoll(context.Background(), 7, "anon_owner"))
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := &config.Config{
		BackendBaseURL:      srv.URL,
		CSRFPath:            "/api/csrf/",
		RequestTimeout:      50 * time.Millisecond,
		BreakerMaxFailures:  100,
		BreakerOpenInterval: time.Minute,
	}
	client, err := NewClient(cfg, observability.NewMetrics(prometheus.NewRegistry()), zap.NewNop())
	require.NoError(t, err)

	_, err = client.FetchPoll(context.Background(), 1)
	assert.True(t, pkgerrors.IsTimeout(err))
}

func TestCircuitBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	cfg := &config.Config{
		BackendBaseURL:      srv.URL,
		CSRFPath:            "/api/csrf/",
		RequestTimeout:      time.Second,
		BreakerMaxFailures:  2,
		BreakerOpenInterval: time.Minute,
	}
	client, err := NewClient(cfg, observability.NewMetrics(prometheus.NewRegistry()), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		client.FetchPoll(ctx, 1)
	}

	_, err = client.FetchPoll(ctx, 1)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeNetwork))
}

func TestCircuitBreakerIgnoresUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &config.Config{
		BackendBaseURL:      srv.URL,
		CSRFPath:            "/api/csrf/",
		RequestTimeout:      time.Second,
		BreakerMaxFailures:  2,
		BreakerOpenInterval: time.Minute,
	}
	client, err := NewClient(cfg, observability.NewMetrics(prometheus.NewRegistry()), zap.NewNop())
	require.NoError(t, err)

	// A backend that answers with errors is still answering: the breaker
	// stays closed and every call reaches it.
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := client.FetchPoll(ctx, 1)
		require.Error(t, err)
	}

	_, err = client.FetchPoll(ctx, 1)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
}
