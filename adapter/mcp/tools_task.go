package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/taskboard/adapter/api"
	"github.com/felixgeelhaar/taskboard/adapter/cli"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/commands"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/services"
)

var errRegistryUnavailable = errors.New("task registry is not available in this process")

type taskCreateInput struct {
	Title       string `json:"title" jsonschema:"required"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

type taskUpdateInput struct {
	TaskID       string  `json:"task_id" jsonschema:"required"`
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	Priority     *string `json:"priority,omitempty"`
	Status       *string `json:"status,omitempty"`
	DueDate      string  `json:"due_date,omitempty"`
	ClearDueDate bool    `json:"clear_due_date,omitempty"`
}

type taskListInput struct {
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"required"`
}

type scoreExplainInput struct {
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

type analyticsInput struct{}

// taskTools implements the task.* tools against in-process handlers.
type taskTools struct {
	app *cli.App
}

func (t taskTools) create(ctx context.Context, input taskCreateInput) (*queries.TaskDTO, error) {
	if t.app == nil || t.app.CreateTaskHandler == nil {
		return nil, errRegistryUnavailable
	}
	due, err := parseOptionalDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}
	return t.app.CreateTaskHandler.Handle(ctx, commands.CreateTaskCommand{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		DueDate:     due,
	})
}

func (t taskTools) update(ctx context.Context, input taskUpdateInput) (*queries.TaskDTO, error) {
	if t.app == nil || t.app.UpdateTaskHandler == nil {
		return nil, errRegistryUnavailable
	}
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, err
	}
	if input.DueDate != "" && input.ClearDueDate {
		return nil, errors.New("due_date and clear_due_date are mutually exclusive")
	}
	due, err := parseOptionalDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}
	return t.app.UpdateTaskHandler.Handle(ctx, commands.UpdateTaskCommand{
		TaskID:       taskID,
		Title:        input.Title,
		Description:  input.Description,
		Priority:     input.Priority,
		Status:       input.Status,
		DueDate:      due,
		ClearDueDate: input.ClearDueDate,
	})
}

func (t taskTools) delete(ctx context.Context, input taskIDInput) (*commands.DeleteTaskResult, error) {
	if t.app == nil || t.app.DeleteTaskHandler == nil {
		return nil, errRegistryUnavailable
	}
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, err
	}
	return t.app.DeleteTaskHandler.Handle(ctx, commands.DeleteTaskCommand{TaskID: taskID})
}

func (t taskTools) list(ctx context.Context, input taskListInput) ([]queries.TaskDTO, error) {
	if t.app == nil || t.app.ListTasksHandler == nil {
		return nil, errRegistryUnavailable
	}
	return t.app.ListTasksHandler.Handle(ctx, queries.ListTasksQuery{
		Status:   input.Status,
		Priority: input.Priority,
		Limit:    input.Limit,
	})
}

func (t taskTools) get(ctx context.Context, input taskIDInput) (*queries.TaskDTO, error) {
	if t.app == nil || t.app.GetTaskHandler == nil {
		return nil, errRegistryUnavailable
	}
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, err
	}
	return t.app.GetTaskHandler.Handle(ctx, queries.GetTaskQuery{TaskID: taskID})
}

func (t taskTools) analytics(ctx context.Context, _ analyticsInput) (queries.AnalyticsSummary, error) {
	if t.app == nil || t.app.AnalyticsHandler == nil {
		return queries.AnalyticsSummary{}, errRegistryUnavailable
	}
	return t.app.AnalyticsHandler.Handle(ctx, queries.AnalyticsQuery{})
}

func (t taskTools) explain(_ context.Context, input scoreExplainInput) (services.ScoreBreakdown, error) {
	scoreInput, err := api.ScoreInputFrom(api.ScoreRequest{
		Description: input.Description,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
	})
	if err != nil {
		return services.ScoreBreakdown{}, err
	}
	engine := services.NewScoringEngine()
	if t.app != nil && t.app.ScoringEngine != nil {
		engine = t.app.ScoringEngine
	}
	return engine.Explain(scoreInput), nil
}

func registerTaskTools(srv *mcp.Server, deps ToolDependencies) error {
	tools := taskTools{app: deps.App}

	srv.Tool("task.create").
		Description("Create a task. The task is scored and broadcast to every observer.").
		Handler(tools.create)

	srv.Tool("task.update").
		Description("Update fields of a task by id. Omitted fields are left unchanged; the task is rescored.").
		Handler(tools.update)

	srv.Tool("task.delete").
		Description("Delete a task by id").
		Handler(tools.delete)

	srv.Tool("task.list").
		Description("List tasks by AI score, highest first, with optional status and priority filters").
		Handler(tools.list)

	srv.Tool("task.get").
		Description("Get a task by id").
		Handler(tools.get)

	srv.Tool("analytics.summary").
		Description("Summarize the registry: totals, counts per status, high priority tasks and average AI score").
		Handler(tools.analytics)

	srv.Tool("score.explain").
		Description("Explain the AI score a task with the given attributes would receive").
		Handler(tools.explain)

	return nil
}
