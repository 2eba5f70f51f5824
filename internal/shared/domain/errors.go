package domain

import "errors"

// Base error kinds shared by every bounded context. Context specific errors
// wrap one of these so adapters can map them without knowing the details.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)
