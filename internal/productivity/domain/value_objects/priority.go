package value_objects

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
)

// Priority represents the importance tier a caller assigns to a task.
type Priority int

const (
	// PriorityUnspecified is the zero value. It is never produced by
	// ParsePriority but may reach the scoring engine from older callers.
	PriorityUnspecified Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

var ErrInvalidPriority = fmt.Errorf("%w: invalid priority value", domain.ErrValidation)

var priorityNames = map[Priority]string{
	PriorityLow:    "low",
	PriorityMedium: "medium",
	PriorityHigh:   "high",
}

var priorityValues = map[string]Priority{
	"low":    PriorityLow,
	"medium": PriorityMedium,
	"high":   PriorityHigh,
}

// ParsePriority creates a Priority from a string.
func ParsePriority(s string) (Priority, error) {
	p, ok := priorityValues[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return PriorityUnspecified, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

// String returns the string representation of the priority.
func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return "unknown"
}

// IsValid returns true if the priority is one of the known tiers.
func (p Priority) IsValid() bool {
	_, ok := priorityNames[p]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
