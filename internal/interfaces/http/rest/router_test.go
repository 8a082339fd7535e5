package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"silkmaker-backend/internal/infrastructure/messaging"
	"silkmaker-backend/internal/infrastructure/observability"
	"silkmaker-backend/internal/repository/memory"
	"silkmaker-backend/internal/service/story"
)

type testServer struct {
	handler http.Handler
	repo    *memory.Store
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	repo := memory.New()
	svc := story.NewService(repo, messaging.NewMemoryPublisher(), nil,
		story.WithClock(func() time.Time { return time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC) }))
	rt := NewRouter(svc, repo, observability.NewCollector("silkmaker_test"), nil, Options{
		ServiceName:    "test",
		Version:        "v-test",
		RequestTimeout: 5 * time.Second,
	})
	return testServer{handler: rt.Setup(), repo: repo}
}

func (s testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s testServer) createProject(t *testing.T, name string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/projects", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]any](t, w)["id"].(string)
}

func (s testServer) createNode(t *testing.T, projectID, id, typ string, connections ...string) {
	t.Helper()
	if connections == nil {
		connections = []string{}
	}
	w := s.do(t, http.MethodPost, "/api/projects/"+projectID+"/nodes", map[string]any{
		"nodeId":      id,
		"title":       strings.ToUpper(id),
		"content":     "text for " + id,
		"type":        typ,
		"position":    map[string]float64{"x": 1, "y": 2},
		"connections": connections,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, w)["status"])

	w = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.repo.SetError("Ping", errors.New("down"))
	w = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "silkmaker_test_http_requests_total")
}

func TestProjectRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	id := s.createProject(t, "Tale")
	s.createNode(t, id, "a", "start")

	w = s.do(t, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]map[string]any](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])
	assert.EqualValues(t, 1, list[0]["nodeCount"])
	assert.Equal(t, "Mar 9, 2024", list[0]["lastModified"])

	w = s.do(t, http.MethodGet, "/api/projects/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[map[string]any](t, w)
	assert.Len(t, detail["nodes"], 1)
	assert.Equal(t, []any{}, detail["groups"])

	w = s.do(t, http.MethodPut, "/api/projects/"+id, map[string]any{"description": "new", "version": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, w)["version"])

	w = s.do(t, http.MethodPut, "/api/projects/"+id, map[string]any{"name": "x", "version": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodDelete, "/api/projects/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())

	w = s.do(t, http.MethodGet, "/api/projects/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Project not found"}`, w.Body.String())
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject(t, "p")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   string
	}{
		{"malformed json", http.MethodPost, "/api/projects", `{"name":`, "Invalid request body"},
		{"empty body", http.MethodPost, "/api/projects", nil, "Request body is required"},
		{"missing name", http.MethodPost, "/api/projects", map[string]any{}, "name is required"},
		{"bad node type", http.MethodPost, "/api/projects/" + id + "/nodes", map[string]any{"type": "x"}, "type must be a known node type"},
		{"bad asset type", http.MethodPost, "/api/projects/" + id + "/assets", map[string]any{"name": "n", "type": "pdf", "url": "u", "mimeType": "m"}, "type must be one of"},
		{"bad project id", http.MethodGet, "/api/projects/abc", nil, "invalid project id"},
		{"bad strict flag", http.MethodPost, "/api/projects/" + id + "/export?strict=maybe", nil, "invalid strict value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode[map[string]string](t, w)["error"], tt.want)
		})
	}
}

func TestNodeRoutes(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject(t, "p")
	base := "/api/projects/" + id + "/nodes"

	s.createNode(t, id, "a", "start", "b")
	s.createNode(t, id, "b", "story", "c")
	s.createNode(t, id, "c", "end")

	w := s.do(t, http.MethodPost, base, map[string]any{"nodeId": "a", "type": "story"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, base+"/a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	node := decode[map[string]any](t, w)
	assert.Equal(t, "a", node["id"])
	assert.EqualValues(t, 3, node["wordCount"])

	w = s.do(t, http.MethodGet, base+"?type=start,end", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 2)

	w = s.do(t, http.MethodGet, base+"?search=text+for+b", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = s.do(t, http.MethodGet, base+"/a/connections", nil)
	require.Equal(t, http.StatusOK, w.Code)
	conns := decode[[]map[string]any](t, w)
	require.Len(t, conns, 1)
	assert.Equal(t, "b", conns[0]["id"])

	w = s.do(t, http.MethodGet, base+"/ghost/connections", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]map[string]any](t, w))

	w = s.do(t, http.MethodPut, base+"/b", map[string]any{"content": "one two three four"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, decode[map[string]any](t, w)["wordCount"])

	w = s.do(t, http.MethodDelete, base+"/b", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, base+"/a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode[map[string]any](t, w)["connections"])

	w = s.do(t, http.MethodGet, base+"/b", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Node not found"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/projects/999/nodes", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/projects/"+id+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]any](t, w)
	assert.EqualValues(t, 2, stats["totalNodes"])
	assert.EqualValues(t, 0, stats["danglingConnections"])
}

func TestGroupAndAssetRoutes(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject(t, "p")

	w := s.do(t, http.MethodPost, "/api/projects/"+id+"/groups", map[string]any{"id": "g1", "name": "Act", "color": "#fff", "nodeIds": []string{}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	group := decode[map[string]any](t, w)
	assert.Equal(t, "g1", group["id"])
	assert.Equal(t, true, group["isVisible"])

	w = s.do(t, http.MethodPut, "/api/projects/"+id+"/groups/g1", map[string]any{"isVisible": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["isVisible"])

	w = s.do(t, http.MethodGet, "/api/projects/"+id+"/groups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = s.do(t, http.MethodDelete, "/api/projects/"+id+"/groups/g1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodDelete, "/api/projects/"+id+"/groups/g1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/projects/"+id+"/assets", map[string]any{
		"assetId": "a1", "name": "bg", "type": "image", "url": "https://cdn/bg.png", "size": 10, "mimeType": "image/png",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	asset := decode[map[string]any](t, w)
	assert.Equal(t, "a1", asset["id"])
	assert.Equal(t, "2024-03-09", asset["uploadDate"])

	w = s.do(t, http.MethodGet, "/api/projects/"+id+"/assets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = s.do(t, http.MethodDelete, "/api/projects/"+id+"/assets/a1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestExportRoute(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject(t, "My Tale")
	s.createNode(t, id, "a", "start", "b")
	s.createNode(t, id, "b", "end")

	w := s.do(t, http.MethodPost, "/api/projects/"+id+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="My Tale.html"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "<!DOCTYPE html>")
	assert.Equal(t, fmt.Sprint(w.Body.Len()), w.Header().Get("Content-Length"))

	empty := s.createProject(t, "empty")
	w = s.do(t, http.MethodPost, "/api/projects/"+empty+"/export?strict=true", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	w = s.do(t, http.MethodPost, "/api/projects/404/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInternalErrorsAreHidden(t *testing.T) {
	s := newTestServer(t)
	s.repo.SetError("ListProjects", errors.New("password=hunter2"))

	w := s.do(t, http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"An internal error occurred"}`, w.Body.String())
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestPanicsAreRecoveredAndLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	repo := memory.New()
	svc := story.NewService(repo, nil, nil)
	handler := NewRouter(svc, repo, nil, zap.New(core), Options{ServiceName: "test"}).Setup()

	mux, ok := handler.(*chi.Mux)
	require.True(t, ok)
	mux.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		panic("exploded")
	})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	assert.EqualValues(t, http.StatusInternalServerError, completed[0].ContextMap()["status"])
}
