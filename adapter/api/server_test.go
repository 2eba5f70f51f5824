package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/commands"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/observer"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/services"
	taskPersistence "github.com/felixgeelhaar/taskboard/internal/productivity/infrastructure/persistence"
	"github.com/felixgeelhaar/taskboard/internal/productivity/infrastructure/realtime"
	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/persistence"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)

type testServer struct {
	server  *Server
	hub     *realtime.Hub
	metrics *observability.InMemoryMetrics
	health  *observability.HealthRegistry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	repo := taskPersistence.NewMemoryTaskRepository()
	uow := persistence.NewSerialUnitOfWork()
	bus := eventbus.NewInProcessEventBus(nil)
	scorer := services.NewScoringEngineWithClock(clock)
	metrics := observability.NewInMemoryMetrics()
	health := observability.NewHealthRegistry()
	hub := realtime.NewHub(bus, realtime.DefaultHubConfig(), nil, metrics)
	t.Cleanup(hub.Close)

	tasks := NewTaskHandler(TaskHandlerConfig{
		CreateTask: commands.NewCreateTaskHandler(repo, bus, uow, scorer, commands.WithClock(clock)),
		UpdateTask: commands.NewUpdateTaskHandler(repo, bus, uow, scorer, commands.WithClock(clock)),
		DeleteTask: commands.NewDeleteTaskHandler(repo, bus, uow, commands.WithClock(clock)),
		GetTask:    queries.NewGetTaskHandler(repo),
		ListTasks:  queries.NewListTasksHandler(repo),
		Analytics:  queries.NewAnalyticsHandler(repo),
		Scorer:     scorer,
	})

	cfg := DefaultServerConfig()
	cfg.MetricsEnabled = true
	srv := NewServer(cfg, Dependencies{
		Tasks:   tasks,
		Hub:     hub,
		Health:  health,
		Metrics: metrics,
	}, nil)

	return &testServer{server: srv, hub: hub, metrics: metrics, health: health}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func (s *testServer) create(t *testing.T, body string) queries.TaskDTO {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/tasks", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[queries.TaskDTO](t, rec)
}

func TestCreateTask(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/tasks", `{
		"title": "Ship release",
		"description": "`+strings.Repeat("x", 150)+`",
		"priority": "high",
		"due_date": "2024-06-11"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	dto := decode[queries.TaskDTO](t, rec)
	assert.Equal(t, "/api/tasks/"+dto.ID.String(), rec.Header().Get("Location"))
	assert.Equal(t, "Ship release", dto.Title)
	assert.Equal(t, "high", dto.Priority)
	assert.Equal(t, "pending", dto.Status)
	assert.Equal(t, 100, dto.AIScore)
	require.NotNil(t, dto.DueDate)
	assert.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), dto.DueDate.UTC())

	plain := s.create(t, `{"title": "Read mail"}`)
	assert.Equal(t, 65, plain.AIScore)
	assert.Equal(t, "medium", plain.Priority)
}

func TestCreateTask_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"title":`},
		{"unknown field", `{"title":"x","owner":"me"}`},
		{"empty title", `{"title":"   "}`},
		{"bad priority", `{"title":"x","priority":"urgent"}`},
		{"bad due date", `{"title":"x","due_date":"tomorrow"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/tasks", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			body := decode[map[string]string](t, rec)
			assert.Equal(t, "Bad Request", body["error"])
			assert.NotEmpty(t, body["message"])
		})
	}

	list := decode[[]queries.TaskDTO](t, s.do(t, http.MethodGet, "/api/tasks", ""))
	assert.Empty(t, list)
}

func TestListTasks_SortedAndFiltered(t *testing.T) {
	s := newTestServer(t)
	low := s.create(t, `{"title":"low","priority":"low"}`)
	high := s.create(t, `{"title":"high","priority":"high"}`)
	medium := s.create(t, `{"title":"medium"}`)

	rec := s.do(t, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]queries.TaskDTO](t, rec)
	require.Len(t, list, 3)
	assert.Equal(t, []uuid.UUID{high.ID, medium.ID, low.ID}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})

	list = decode[[]queries.TaskDTO](t, s.do(t, http.MethodGet, "/api/tasks?priority=low", ""))
	require.Len(t, list, 1)
	assert.Equal(t, low.ID, list[0].ID)

	list = decode[[]queries.TaskDTO](t, s.do(t, http.MethodGet, "/api/tasks?limit=2", ""))
	assert.Len(t, list, 2)

	rec = s.do(t, http.MethodGet, "/api/tasks?status=archived", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTask(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, `{"title":"find me"}`)

	rec := s.do(t, http.MethodGet, "/api/tasks/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[queries.TaskDTO](t, rec).ID)

	rec = s.do(t, http.MethodGet, "/api/tasks/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/tasks/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateTask(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, `{"title":"tune","priority":"low","due_date":"2024-06-20"}`)
	assert.Equal(t, 55, created.AIScore)

	rec := s.do(t, http.MethodPatch, "/api/tasks/"+created.ID.String(), `{"priority":"high","status":"in_progress"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[queries.TaskDTO](t, rec)
	assert.Equal(t, 75, updated.AIScore)
	assert.Equal(t, "in-progress", updated.Status)
	assert.NotNil(t, updated.DueDate)

	rec = s.do(t, http.MethodPut, "/api/tasks/"+created.ID.String(), `{"due_date":"2024-06-11"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, decode[queries.TaskDTO](t, rec).AIScore)

	rec = s.do(t, http.MethodPatch, "/api/tasks/"+created.ID.String(), `{"due_date":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := decode[queries.TaskDTO](t, rec)
	assert.Nil(t, cleared.DueDate)
	assert.Equal(t, 75, cleared.AIScore)

	rec = s.do(t, http.MethodPatch, "/api/tasks/"+created.ID.String(), `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/tasks/"+uuid.NewString(), `{"title":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTask(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, `{"title":"remove me"}`)

	rec := s.do(t, http.MethodDelete, "/api/tasks/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[commands.DeleteTaskResult](t, rec)
	assert.True(t, result.Deleted)
	assert.Equal(t, created.ID, result.TaskID)

	rec = s.do(t, http.MethodDelete, "/api/tasks/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/tasks/"+created.ID.String(), `{"title":"back"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalytics(t *testing.T) {
	s := newTestServer(t)

	empty := decode[queries.AnalyticsSummary](t, s.do(t, http.MethodGet, "/api/analytics", ""))
	assert.Equal(t, 0, empty.TotalTasks)
	assert.Zero(t, empty.AverageAIScore)

	s.create(t, `{"title":"a","priority":"high"}`)
	s.create(t, `{"title":"b","priority":"low"}`)

	summary := decode[queries.AnalyticsSummary](t, s.do(t, http.MethodGet, "/api/analytics", ""))
	assert.Equal(t, 2, summary.TotalTasks)
	assert.Equal(t, 1, summary.HighPriority)
	assert.Equal(t, 2, summary.ByStatus["pending"])
	assert.InDelta(t, 65.0, summary.AverageAIScore, 0.001)
}

func TestScore(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/score", `{"priority":"high","due_date":"2024-06-13"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	b := decode[services.ScoreBreakdown](t, rec)
	assert.Equal(t, 50, b.Base)
	assert.Equal(t, 20, b.Urgency)
	assert.Equal(t, 25, b.Priority)
	assert.Equal(t, 95, b.Score)

	rec = s.do(t, http.MethodPost, "/api/score", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	b = decode[services.ScoreBreakdown](t, rec)
	assert.Equal(t, services.UnrecognizedPriorityBonus, b.Priority)

	rec = s.do(t, http.MethodPost, "/api/score", `{"priority":"whenever"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	list := decode[[]queries.TaskDTO](t, s.do(t, http.MethodGet, "/api/tasks", ""))
	assert.Empty(t, list)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, rec)["status"])

	s.health.Register("relay", func(ctx context.Context) observability.HealthCheckResult {
		return observability.HealthCheckResult{Status: observability.HealthStatusUnhealthy}
	})
	rec = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsAndRequestContext(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set(correlationHeader, "corr-123")
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "corr-123", rec.Header().Get(correlationHeader))

	rec = s.do(t, http.MethodGet, "/api/tasks", "")
	assert.NotEmpty(t, rec.Header().Get(correlationHeader))

	count := s.metrics.GetCounter(observability.MetricHTTPRequests,
		observability.T("method", http.MethodGet),
		observability.T("route", "/api/tasks"),
		observability.T("status", "200"),
	)
	assert.Equal(t, int64(2), count)

	rec = s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestClientAndObserverRoundTrip(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.server.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	watcher, err := realtime.Dial(ctx, ts.URL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = watcher.Close() })
	require.Equal(t, 1, s.hub.Count())

	client := NewClient(ts.URL+"/", nil)
	assert.Equal(t, ts.URL, client.BaseURL())

	created, err := client.CreateTask(ctx, CreateTaskRequest{Title: "observe me", Priority: "low"})
	require.NoError(t, err)
	assert.Equal(t, 55, created.AIScore)

	high := "high"
	updated, err := client.UpdateTask(ctx, created.ID, UpdateTaskRequest{Priority: &high})
	require.NoError(t, err)
	assert.Equal(t, 75, updated.AIScore)

	deleted, err := client.DeleteTask(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	view := observer.NewLocalView(nil)
	for _, want := range []observer.EventType{observer.EventTaskCreated, observer.EventTaskUpdated, observer.EventTaskDeleted} {
		frame, err := watcher.Next()
		require.NoError(t, err)
		assert.Equal(t, want, frame.Event)
		view.Apply(frame)
		if want == observer.EventTaskUpdated {
			require.Equal(t, 1, view.Len())
			assert.Equal(t, 75, view.Tasks()[0].AIScore)
		}
	}
	assert.Equal(t, 0, view.Len())

	_, err = client.GetTask(ctx, created.ID)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	tasks, err := client.ListTasks(ctx, queries.ListTasksQuery{Priority: "high"})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	summary, err := client.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalTasks)

	breakdown, err := client.Score(ctx, ScoreRequest{Description: strings.Repeat("y", 101)})
	require.NoError(t, err)
	assert.Equal(t, services.VerbosityBonus, breakdown.Verbosity)
}

func TestUpdateTaskRequest_OmitsUnsetDueDate(t *testing.T) {
	title := "x"
	data, err := json.Marshal(UpdateTaskRequest{Title: &title})
	require.NoError(t, err)
	assert.False(t, bytes.Contains(data, []byte("due_date")))
}

func TestTaskHandler_FailMapsErrors(t *testing.T) {
	h := NewTaskHandler(TaskHandlerConfig{})

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", fmt.Errorf("task x: %w", domain.ErrNotFound), http.StatusNotFound, "task x: not found"},
		{"validation", fmt.Errorf("title: %w", domain.ErrValidation), http.StatusBadRequest, "title: validation failed"},
		{"unexpected", errors.New("store exploded"), http.StatusInternalServerError, internalErrorMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.fail(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil), "failed", tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.message, body["message"])
			assert.NotContains(t, rec.Body.String(), "exploded")
		})
	}
}
