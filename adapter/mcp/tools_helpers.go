package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

func parseOptionalDueDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	due, err := task.ParseDueDate(value)
	if err != nil {
		return nil, err
	}
	return &due, nil
}
