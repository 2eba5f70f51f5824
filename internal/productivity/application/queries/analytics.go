package queries

import (
	"context"
	"math"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/value_objects"
	sharedApplication "github.com/felixgeelhaar/taskboard/internal/shared/application"
)

// AnalyticsQuery requests the task summary.
type AnalyticsQuery struct{}

func (AnalyticsQuery) QueryName() string { return "analytics" }

// AnalyticsSummary aggregates the current task collection.
type AnalyticsSummary struct {
	TotalTasks int `json:"total_tasks"`
	// ByStatus always contains every status, zero filled.
	ByStatus     map[string]int `json:"by_status"`
	HighPriority int            `json:"high_priority"`
	// AverageAIScore is rounded to two decimals and is 0 for an empty collection.
	AverageAIScore float64 `json:"average_ai_score"`
}

// AnalyticsHandler handles the AnalyticsQuery.
type AnalyticsHandler struct {
	taskRepo task.Repository
}

var _ sharedApplication.QueryHandler[AnalyticsQuery, AnalyticsSummary] = (*AnalyticsHandler)(nil)

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(taskRepo task.Repository) *AnalyticsHandler {
	return &AnalyticsHandler{taskRepo: taskRepo}
}

// Handle executes the AnalyticsQuery.
func (h *AnalyticsHandler) Handle(ctx context.Context, _ AnalyticsQuery) (AnalyticsSummary, error) {
	tasks, err := h.taskRepo.FindAll(ctx)
	if err != nil {
		return AnalyticsSummary{}, err
	}
	return Summarize(tasks), nil
}

// Summarize computes the analytics of tasks.
func Summarize(tasks []*task.Task) AnalyticsSummary {
	summary := AnalyticsSummary{
		TotalTasks: len(tasks),
		ByStatus:   make(map[string]int, len(value_objects.AllStatuses)),
	}
	for _, s := range value_objects.AllStatuses {
		summary.ByStatus[s.String()] = 0
	}

	total := 0
	for _, t := range tasks {
		summary.ByStatus[t.Status().String()]++
		if t.Priority() == value_objects.PriorityHigh {
			summary.HighPriority++
		}
		total += t.AIScore()
	}

	if len(tasks) > 0 {
		avg := float64(total) / float64(len(tasks))
		summary.AverageAIScore = math.Round(avg*100) / 100
	}
	return summary
}
