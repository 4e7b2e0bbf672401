package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"widgetboard/application/services"
	"widgetboard/domain/reconcile"
	"widgetboard/infrastructure/config"
	"widgetboard/infrastructure/di"
	"widgetboard/infrastructure/gateway"
	"widgetboard/infrastructure/persistence/snapshot"
	"widgetboard/interfaces/http/rest"
	"widgetboard/pkg/ratelimit"

	"widgetboard/domain/core/widgets"
)

const testClientID = "anon_router_test"

// stubBackend fakes the remote entity backend with one existing poll.
func stubBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	poll := map[string]interface{}{
		"id":    7,
		"title": "Team lunch",
		"owner": "anon_someone_else",
		"choices": []map[string]interface{}{
			{"id": 71, "choice_text": "Ramen", "votes_count": 2},
			{"id": 72, "choice_text": "Tacos", "votes_count": 1},
		},
	}

	mux.HandleFunc("GET /api/csrf/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok-rest", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/polls/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []interface{}{poll})
	})
	mux.HandleFunc("GET /api/polls/7/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, poll)
	})
	mux.HandleFunc("GET /api/tests/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []interface{}{})
	})
	mux.HandleFunc("POST /api/polls/create/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title   string `json:"title"`
			Owner   string `json:"owner"`
			Choices []struct {
				ChoiceText string `json:"choice_text"`
			} `json:"choices"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		created := map[string]interface{}{
			"id":    8,
			"title": req.Title,
			"owner": req.Owner,
		}
		choices := make([]map[string]interface{}, 0, len(req.Choices))
		for i, c := range req.Choices {
			choices = append(choices, map[string]interface{}{
				"id": 80 + i, "choice_text": c.ChoiceText, "votes_count": 0,
			})
		}
		created["choices"] = choices
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, created)
	})
	mux.HandleFunc("DELETE /api/polls/7/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Owner string `json:"owner"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Owner != "anon_someone_else" {
			w.WriteHeader(http.StatusForbidden)
			writeJSON(w, map[string]string{"detail": "only the owner can delete this poll"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// newTestAPI wires the full stack over the stub backend and an in-memory
// snapshot store, then returns the board API as a test server.
func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	backend := stubBackend(t)

	cfg := &config.Config{
		ServerAddress:       ":0",
		Environment:         "development",
		BackendBaseURL:      backend.URL,
		CSRFPath:            "/api/csrf/",
		RequestTimeout:      2 * time.Second,
		BreakerMaxFailures:  5,
		BreakerOpenInterval: time.Second,
		DataDir:             t.TempDir(),
		SnapshotFilename:    "board.json",
		RateLimitBurst:      1000,
		RateLimitInterval:   time.Millisecond,
		LogLevel:            "error",
		EnableMetrics:       true,
		EnableCORS:          false,
	}
	logger := zap.NewNop()
	dc := di.ProvideDomainConfig(cfg)
	registry := di.ProvideRegistry()
	metrics := di.ProvideMetrics(registry)

	client, err := gateway.NewClient(cfg, metrics, logger)
	require.NoError(t, err)

	fsys, err := mem.NewFS()
	require.NoError(t, err)
	store := snapshot.NewStore(fsys, "board.json", logger)

	boards := services.NewBoardService(reconcile.NewEngine(dc), client, store, metrics, logger)
	require.NoError(t, boards.Start(context.Background()))

	widgetSvc := services.NewWidgetService(boards, client, widgets.NewMachine(dc), dc, testClientID, logger)
	edgeSvc := services.NewEdgeService(boards, logger)

	commandBus, err := di.ProvideCommandBus(boards, widgetSvc, logger)
	require.NoError(t, err)
	cache := di.ProvideCache()
	t.Cleanup(cache.Close)
	queryBus, err := di.ProvideQueryBus(boards, client, di.ClientID(testClientID), cache, logger)
	require.NoError(t, err)

	limiter := ratelimit.NewTokenBucketLimiter(cfg.RateLimitBurst, cfg.RateLimitInterval)
	t.Cleanup(limiter.Close)

	router := rest.NewRouter(cfg, commandBus, queryBus, widgetSvc, boards, edgeSvc, limiter, registry, testClientID, logger)
	api := httptest.NewServer(router.Setup())
	t.Cleanup(api.Close)
	return api
}

func apiRequest(t *testing.T, api *httptest.Server, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, api.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type boardResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Nodes []struct {
			ID       string `json:"id"`
			Kind     string `json:"kind"`
			Position struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"position"`
		} `json:"nodes"`
		Edges []struct {
			ID string `json:"id"`
		} `json:"edges"`
	} `json:"data"`
}

func decodeBoard(t *testing.T, resp *http.Response) boardResponse {
	t.Helper()
	var board boardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))
	return board
}

func TestRouterGetBoard(t *testing.T) {
	api := newTestAPI(t)

	resp := apiRequest(t, api, http.MethodGet, "/api/v1/board", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	board := decodeBoard(t, resp)
	assert.True(t, board.Success)

	ids := make(map[string]bool)
	for _, n := range board.Data.Nodes {
		ids[n.ID] = true
	}
	assert.True(t, ids["template-poll-creator"])
	assert.True(t, ids["template-test-creator"])
	assert.True(t, ids["entity-poll-7"])
}

func TestRouterMoveNodePersistsAcrossSync(t *testing.T) {
	api := newTestAPI(t)

	resp := apiRequest(t, api, http.MethodPut, "/api/v1/nodes/entity-poll-7/position",
		map[string]float64{"x": 500, "y": 500})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = apiRequest(t, api, http.MethodPost, "/api/v1/board/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	board := decodeBoard(t, resp)
	for _, n := range board.Data.Nodes {
		if n.ID == "entity-poll-7" {
			assert.Equal(t, 500.0, n.Position.X)
			assert.Equal(t, 500.0, n.Position.Y)
			return
		}
	}
	t.Fatal("entity-poll-7 missing after sync")
}

func TestRouterSaveCreatorDraft(t *testing.T) {
	api := newTestAPI(t)

	draft := map[string]interface{}{
		"kind": "template-poll-creator",
		"data": map[string]interface{}{
			"title":   "Standup time",
			"options": []string{"9:00", "10:00"},
			"mode":    "creator",
		},
	}
	resp := apiRequest(t, api, http.MethodPut, "/api/v1/nodes/template-poll-creator/draft", draft)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = apiRequest(t, api, http.MethodPost, "/api/v1/nodes/template-poll-creator/save", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var save struct {
		Data struct {
			NodeID string `json:"node_id"`
			Poll   *struct {
				ID    int64  `json:"id"`
				Title string `json:"title"`
			} `json:"poll"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&save))
	assert.Equal(t, "entity-poll-8", save.Data.NodeID)
	require.NotNil(t, save.Data.Poll)
	assert.Equal(t, "Standup time", save.Data.Poll.Title)

	// The template was reseeded, and the bound node is on the board.
	resp = apiRequest(t, api, http.MethodGet, "/api/v1/board", nil)
	board := decodeBoard(t, resp)
	ids := make(map[string]bool)
	for _, n := range board.Data.Nodes {
		ids[n.ID] = true
	}
	assert.True(t, ids["template-poll-creator"])
	assert.True(t, ids["entity-poll-8"])
}

func TestRouterDeleteEntityRequiresConfirm(t *testing.T) {
	api := newTestAPI(t)

	resp := apiRequest(t, api, http.MethodDelete, "/api/v1/nodes/entity-poll-7/entity", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouterDeleteEntityForbiddenForNonOwner(t *testing.T) {
	api := newTestAPI(t)

	resp := apiRequest(t, api, http.MethodDelete, "/api/v1/nodes/entity-poll-7/entity?confirm=true", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The node survives a refused delete.
	resp = apiRequest(t, api, http.MethodGet, "/api/v1/board", nil)
	board := decodeBoard(t, resp)
	found := false
	for _, n := range board.Data.Nodes {
		if n.ID == "entity-poll-7" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRouterGetEntity(t *testing.T) {
	api := newTestAPI(t)

	resp := apiRequest(t, api, http.MethodGet, "/api/v1/nodes/entity-poll-7/entity", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entity struct {
		Data struct {
			Poll *struct {
				Title      string `json:"title"`
				IsOwner    bool   `json:"is_owner"`
				TotalVotes int    `json:"total_votes"`
			} `json:"poll"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entity))
	require.NotNil(t, entity.Data.Poll)
	assert.Equal(t, "Team lunch", entity.Data.Poll.Title)
	assert.False(t, entity.Data.Poll.IsOwner)
	assert.Equal(t, 3, entity.Data.Poll.TotalVotes)
}

func TestRouterEdgesLifecycle(t *testing.T) {
	api := newTestAPI(t)

	resp := apiRequest(t, api, http.MethodPost, "/api/v1/edges",
		map[string]string{"source_id": "template-poll-creator", "target_id": "entity-poll-7"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.Data.ID)

	// Self edges are rejected.
	resp = apiRequest(t, api, http.MethodPost, "/api/v1/edges",
		map[string]string{"source_id": "entity-poll-7", "target_id": "entity-poll-7"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = apiRequest(t, api, http.MethodDelete, fmt.Sprintf("/api/v1/edges/%s", created.Data.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	resp := apiRequest(t, api, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = apiRequest(t, api, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = apiRequest(t, api, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
