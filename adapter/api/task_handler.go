package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/commands"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/services"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/value_objects"
	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// TaskHandler handles task API requests.
type TaskHandler struct {
	createTask *commands.CreateTaskHandler
	updateTask *commands.UpdateTaskHandler
	deleteTask *commands.DeleteTaskHandler
	getTask    *queries.GetTaskHandler
	listTasks  *queries.ListTasksHandler
	analytics  *queries.AnalyticsHandler
	scorer     *services.ScoringEngine
	logger     *slog.Logger
}

// TaskHandlerConfig holds dependencies for the task handler.
type TaskHandlerConfig struct {
	CreateTask *commands.CreateTaskHandler
	UpdateTask *commands.UpdateTaskHandler
	DeleteTask *commands.DeleteTaskHandler
	GetTask    *queries.GetTaskHandler
	ListTasks  *queries.ListTasksHandler
	Analytics  *queries.AnalyticsHandler
	Scorer     *services.ScoringEngine
	Logger     *slog.Logger
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(cfg TaskHandlerConfig) *TaskHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Scorer == nil {
		cfg.Scorer = services.NewScoringEngine()
	}
	return &TaskHandler{
		createTask: cfg.CreateTask,
		updateTask: cfg.UpdateTask,
		deleteTask: cfg.DeleteTask,
		getTask:    cfg.GetTask,
		listTasks:  cfg.ListTasks,
		analytics:  cfg.Analytics,
		scorer:     cfg.Scorer,
		logger:     cfg.Logger,
	}
}

// Routes mounts the task endpoints on r.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Post("/", h.CreateTask)
		r.Get("/{taskID}", h.GetTask)
		r.Patch("/{taskID}", h.UpdateTask)
		r.Put("/{taskID}", h.UpdateTask)
		r.Delete("/{taskID}", h.DeleteTask)
	})
	r.Get("/analytics", h.Analytics)
	r.Post("/score", h.Score)
}

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// UpdateTaskRequest is the body of PATCH /api/tasks/{taskID}. Omitted
// fields are left unchanged; a null due_date clears it.
type UpdateTaskRequest struct {
	Title        *string         `json:"title,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Priority     *string         `json:"priority,omitempty"`
	Status       *string         `json:"status,omitempty"`
	DueDate      json.RawMessage `json:"due_date,omitempty"`
	ClearDueDate bool            `json:"clear_due_date,omitempty"`
}

// ScoreRequest is the body of POST /api/score.
type ScoreRequest struct {
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// ListTasks handles GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	query := queries.ListTasksQuery{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
		Limit:    parseIntParam(r, "limit", 0),
	}

	result, err := h.listTasks.Handle(r.Context(), query)
	if err != nil {
		h.fail(w, r, "failed to list tasks", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cmd := commands.CreateTaskCommand{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	}
	if req.DueDate != "" {
		due, err := task.ParseDueDate(req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cmd.DueDate = &due
	}

	result, err := h.createTask.Handle(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, "failed to create task", err)
		return
	}

	w.Header().Set("Location", "/api/tasks/"+result.ID.String())
	writeJSON(w, http.StatusCreated, result)
}

// GetTask handles GET /api/tasks/{taskID}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.getTask.Handle(r.Context(), queries.GetTaskQuery{TaskID: taskID})
	if err != nil {
		h.fail(w, r, "failed to get task", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// UpdateTask handles PATCH and PUT /api/tasks/{taskID}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cmd := commands.UpdateTaskCommand{
		TaskID:       taskID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		Status:       req.Status,
		ClearDueDate: req.ClearDueDate,
	}
	if len(req.DueDate) > 0 {
		due, clear, err := parseNullableDate(req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cmd.DueDate = due
		cmd.ClearDueDate = cmd.ClearDueDate || clear
	}

	result, err := h.updateTask.Handle(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, "failed to update task", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DeleteTask handles DELETE /api/tasks/{taskID}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.deleteTask.Handle(r.Context(), commands.DeleteTaskCommand{TaskID: taskID})
	if err != nil {
		h.fail(w, r, "failed to delete task", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Analytics handles GET /api/analytics
func (h *TaskHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	result, err := h.analytics.Handle(r.Context(), queries.AnalyticsQuery{})
	if err != nil {
		h.fail(w, r, "failed to compute analytics", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Score handles POST /api/score. It explains the score the given attributes
// would earn without storing anything.
func (h *TaskHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, err := ScoreInputFrom(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.scorer.Explain(input))
}

// ScoreInputFrom validates an ad-hoc score request. An empty priority is
// scored as unspecified.
func ScoreInputFrom(req ScoreRequest) (task.ScoreInput, error) {
	input := task.ScoreInput{Description: req.Description}
	if req.Priority != "" {
		p, err := value_objects.ParsePriority(req.Priority)
		if err != nil {
			return input, err
		}
		input.Priority = p
	}
	if req.DueDate != "" {
		due, err := task.ParseDueDate(req.DueDate)
		if err != nil {
			return input, err
		}
		due = task.NormalizeDueDate(due)
		input.DueDate = &due
	}
	return input, nil
}

// fail maps application errors onto HTTP statuses.
func (h *TaskHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), msg, "error", err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func taskIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID")
		return uuid.Nil, false
	}
	return id, true
}

func parseNullableDate(raw json.RawMessage) (*time.Time, bool, error) {
	if string(raw) == "null" {
		return nil, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, errors.New("due_date must be a string or null")
	}
	if s == "" {
		return nil, true, nil
	}
	due, err := task.ParseDueDate(s)
	if err != nil {
		return nil, false, err
	}
	return &due, false, nil
}

func parseIntParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
