package value_objects

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
)

// Status represents where a task is in its workflow.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
)

var ErrInvalidStatus = fmt.Errorf("%w: invalid status value", domain.ErrValidation)

// AllStatuses lists every status in workflow order.
var AllStatuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// ParseStatus creates a Status from a string. Both "in-progress" and
// "in_progress" are accepted.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "in-progress", "in_progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return StatusPending, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in-progress"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
