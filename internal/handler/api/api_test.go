package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"FinEnrich/internal/domain/models"
	xhttp "FinEnrich/pkg/http"
	xlogger "FinEnrich/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuns struct {
	mu       sync.Mutex
	err      error
	last     *models.RunSummary
	records  []models.EnrichedRecord
	triggers []models.Trigger
}

func (f *fakeRuns) TriggerAsync(ctx context.Context, trigger models.Trigger) (models.RunSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.RunSummary{}, f.err
	}
	f.triggers = append(f.triggers, trigger)
	return models.RunSummary{ID: "run-1", Trigger: trigger, Status: models.RunStatusRunning}, nil
}

func (f *fakeRuns) Last() (*models.RunSummary, []models.EnrichedRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.records
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newServer(handlers ...xhttp.Handler) *echo.Echo {
	return xhttp.NewServer(handlers, xhttp.WithMetrics("", nil)).Echo()
}

func do(t *testing.T, e *echo.Echo, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestRunsHandler_Trigger(t *testing.T) {
	runs := &fakeRuns{}
	e := newServer(NewRunsHandler(xlogger.Nop(), runs))

	rec, env := do(t, e, http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, http.StatusAccepted, env.Status)

	var sum models.RunSummary
	require.NoError(t, json.Unmarshal(env.Data, &sum))
	assert.Equal(t, "run-1", sum.ID)
	assert.Equal(t, models.RunStatusRunning, sum.Status)
	assert.Equal(t, []models.Trigger{models.TriggerManual}, runs.triggers)
}

func TestRunsHandler_TriggerConflict(t *testing.T) {
	e := newServer(NewRunsHandler(xlogger.Nop(), &fakeRuns{err: models.ErrRunInProgress}))

	rec, env := do(t, e, http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_CONFLICT")
}

func TestRunsHandler_TriggerLockFailure(t *testing.T) {
	e := newServer(NewRunsHandler(xlogger.Nop(), &fakeRuns{err: errors.New("redis down")}))

	rec, env := do(t, e, http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_INTERNAL")
	assert.NotContains(t, string(env.Data), "redis down")
}

func TestRunsHandler_LastNotFound(t *testing.T) {
	e := newServer(NewRunsHandler(xlogger.Nop(), &fakeRuns{}))

	rec, _ := do(t, e, http.MethodGet, "/api/runs/last")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunsHandler_Last(t *testing.T) {
	runs := &fakeRuns{
		last:    &models.RunSummary{ID: "run-9", Status: models.RunStatusSucceeded, Enriched: 3},
		records: []models.EnrichedRecord{{Symbol: "A"}, {Symbol: "B"}, {Symbol: "C"}},
	}
	e := newServer(NewRunsHandler(xlogger.Nop(), runs))

	tests := []struct {
		name    string
		target  string
		records int
	}{
		{"summary only", "/api/runs/last", 0},
		{"with records", "/api/runs/last?records=true", 3},
		{"with limit", "/api/runs/last?records=true&limit=2", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, e, http.MethodGet, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)

			var res models.LastRunResponse
			require.NoError(t, json.Unmarshal(env.Data, &res))
			assert.Equal(t, "run-9", res.Summary.ID)
			assert.Len(t, res.Records, tt.records)
		})
	}
}

func TestRunsHandler_LastValidation(t *testing.T) {
	runs := &fakeRuns{last: &models.RunSummary{ID: "run-9"}}
	e := newServer(NewRunsHandler(xlogger.Nop(), runs))

	for _, target := range []string{"/api/runs/last?limit=0", "/api/runs/last?limit=5000", "/api/runs/last?limit=abc"} {
		rec, _ := do(t, e, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHealthHandler(t *testing.T) {
	next := time.Date(2024, 3, 1, 14, 29, 0, 0, time.UTC)
	runs := &fakeRuns{last: &models.RunSummary{ID: "run-1", Status: models.RunStatusSucceeded}}

	healthy := newServer(NewHealthHandler(runs, func() time.Time { return next }, map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return nil },
	}))
	rec, env := do(t, healthy, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var st HealthStatus
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, map[string]string{"redis": "ok"}, st.Checks)
	require.NotNil(t, st.NextRun)
	assert.True(t, next.Equal(*st.NextRun))
	assert.Equal(t, "run-1", st.LastRun.ID)

	degraded := newServer(NewHealthHandler(nil, nil, map[string]HealthCheck{
		"mongo": func(ctx context.Context) error { return errors.New("no primary") },
	}))
	rec, env = do(t, degraded, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "degraded", st.Status)
	assert.Equal(t, "no primary", st.Checks["mongo"])
}

func TestRunEventsHub_Broadcast(t *testing.T) {
	hub := NewRunEventsHub(xlogger.Nop())
	srv := httptest.NewServer(newServer(hub))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/runs"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.OnRun(models.RunSummary{ID: "run-7", Status: models.RunStatusSucceeded, Enriched: 4})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type    string            `json:"type"`
		Payload models.RunSummary `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "run_succeeded", msg.Type)
	assert.Equal(t, "run-7", msg.Payload.ID)
	assert.Equal(t, 4, msg.Payload.Enriched)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRunEventsHub_Close(t *testing.T) {
	hub := NewRunEventsHub(xlogger.Nop())
	srv := httptest.NewServer(newServer(hub))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/runs"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
