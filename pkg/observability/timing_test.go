package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	metrics := NewInMemoryMetrics()
	tag := T("operation", "create_task")

	StartTimer("create_task").WithMetrics(metrics).Stop()
	StartTimer("create_task").WithMetrics(metrics).StopWithError(errors.New("boom"))

	assert.Equal(t, int64(2), metrics.GetCounter(MetricOperationTotal, tag))
	assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationErrors, tag))
	assert.Len(t, metrics.GetTimings(MetricOperationDuration, tag), 2)
}

func TestTimer_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	StartTimer("delete_task").WithLogger(logger).StopWithError(errors.New("task not found"))

	assert.Contains(t, buf.String(), "operation failed")
	assert.Contains(t, buf.String(), "delete_task")
	assert.Contains(t, buf.String(), "task not found")
}

func TestTimeOperationResult(t *testing.T) {
	metrics := NewInMemoryMetrics()

	n, err := TimeOperationResult(nil, metrics, "list_tasks", func() (int, error) { return 3, nil })

	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationTotal, T("operation", "list_tasks")))
}
