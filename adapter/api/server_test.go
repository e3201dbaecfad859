package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/felixgeelhaar/eventline/internal/planning/application/commands"
	"github.com/felixgeelhaar/eventline/internal/planning/application/queries"
	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/felixgeelhaar/eventline/internal/planning/infrastructure/cache"
	"github.com/felixgeelhaar/eventline/internal/planning/infrastructure/persistence"
	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/eventline/pkg/observability"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUnitOfWork struct{}

func (stubUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (stubUnitOfWork) Commit(ctx context.Context) error                   { return nil }
func (stubUnitOfWork) Rollback(ctx context.Context) error                 { return nil }

type testServer struct {
	server *Server
	store  *persistence.MemoryStore
	snap   *persistence.Snapshot
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	snap := &persistence.Snapshot{Timeline: domain.Timeline{
		ID:    uuid.New(),
		Event: domain.Event{ID: uuid.New(), Date: domain.Date(2026, 7, 1)},
	}}
	block := domain.Block{ID: uuid.New(), TimelineID: snap.Timeline.ID, Key: "6-8m", Order: 1}
	snap.Blocks = []domain.Block{block}
	snap.Tasks = []domain.Task{
		{ID: uuid.New(), TimelineID: snap.Timeline.ID, BlockID: block.ID, Title: "Book venue", Weight: 5},
		{ID: uuid.New(), TimelineID: snap.Timeline.ID, BlockID: block.ID, Title: "Send invites", Weight: 1},
	}

	store := persistence.NewMemoryStore()
	require.NoError(t, store.Import(context.Background(), snap))

	summaries := cache.NewMemorySummaryCache()
	handler := NewTimelineHandler(
		commands.NewRecalculateTimelineHandler(store, store, outbox.NewInMemoryRepository(), stubUnitOfWork{}, nil, summaries, nil, nil),
		queries.NewPreviewRecalculationHandler(store, nil),
		queries.NewGetLastRecalculationHandler(store, summaries, nil),
	)

	return &testServer{
		server: NewServer(DefaultServerConfig(), handler, nil, nil),
		store:  store,
		snap:   snap,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRecalculate(t *testing.T) {
	ts := newTestServer(t)
	path := "/api/v1/timelines/" + ts.snap.Timeline.ID.String() + "/recalculate"

	w := ts.do(t, http.MethodPost, path, `{"today":"2026-01-02","distribution":"even"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["persisted"])
	assert.Equal(t, "even", body["distribution"])
	assert.Equal(t, 0.5, body["scale_factor"])
	assert.Len(t, body["blocks"], 1)
	assert.Len(t, body["tasks"], 2)

	block, ok := ts.store.Block(ts.snap.Blocks[0].ID)
	require.True(t, ok)
	require.NotNil(t, block.StartDate)
	assert.Equal(t, "2026-03-01", domain.FormatDate(*block.StartDate))
	assert.Len(t, ts.store.AuditEntries(), 1)
}

func TestRecalculate_EmptyBody(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/v1/timelines/"+ts.snap.Timeline.ID.String()+"/recalculate", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "frontload", body["distribution"])
	assert.Equal(t, true, body["respect_locks"])
}

func TestRecalculate_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"malformed id", "/api/v1/timelines/not-a-uuid/recalculate", "", http.StatusBadRequest},
		{"unknown timeline", "/api/v1/timelines/" + uuid.NewString() + "/recalculate", "", http.StatusNotFound},
		{"unknown distribution", "/api/v1/timelines/" + ts.snap.Timeline.ID.String() + "/recalculate", `{"distribution":"backload"}`, http.StatusBadRequest},
		{"bad today", "/api/v1/timelines/" + ts.snap.Timeline.ID.String() + "/recalculate", `{"today":"tomorrow"}`, http.StatusBadRequest},
		{"malformed json", "/api/v1/timelines/" + ts.snap.Timeline.ID.String() + "/recalculate", `{"distribution":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, false, decode(t, w)["success"])
		})
	}
	assert.Empty(t, ts.store.AuditEntries())
}

func TestPreview_DoesNotPersist(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/v1/timelines/"+ts.snap.Timeline.ID.String()+"/preview", `{"today":"2026-01-02"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, decode(t, w)["persisted"])

	block, _ := ts.store.Block(ts.snap.Blocks[0].ID)
	assert.Nil(t, block.StartDate)
	assert.Empty(t, ts.store.AuditEntries())
}

func TestLastRecalculation(t *testing.T) {
	ts := newTestServer(t)
	last := "/api/v1/timelines/" + ts.snap.Timeline.ID.String() + "/recalculations/last"

	w := ts.do(t, http.MethodGet, last, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/timelines/"+ts.snap.Timeline.ID.String()+"/recalculate", `{"today":"2026-01-02"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, last, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary domain.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, ts.snap.Timeline.ID, summary.TimelineID)
	assert.Equal(t, 2, summary.Tasks)
	assert.True(t, summary.Persisted)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(observability.HealthStatusHealthy), decode(t, w)["status"])
}

func TestCorrelationHeader(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(CorrelationHeader, id)
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(CorrelationHeader))

	w = ts.do(t, http.MethodGet, "/health", "")
	_, err := uuid.Parse(w.Header().Get(CorrelationHeader))
	assert.NoError(t, err)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPanicRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// A handler without its collaborators panics on first use.
	srv := NewServer(DefaultServerConfig(), NewTimelineHandler(nil, nil, nil), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/timelines/"+uuid.NewString()+"/recalculate", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestFromError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, fromError(domain.ErrInvalidDistribution).Status)
	assert.Equal(t, http.StatusNotFound, fromError(domain.NewLoadError(domain.ErrEventNotFound)).Status)
	assert.Equal(t, http.StatusInternalServerError, fromError(domain.NewLoadError(assert.AnError)).Status)
	assert.Equal(t, http.StatusInternalServerError, fromError(assert.AnError).Status)
}
