package service

import "errors"

var (
	// ErrTaskNotFound marks lookups for ids that do not exist; user-facing
	// flows map it to a 404.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidInput wraps validation failures on user-supplied fields.
	ErrInvalidInput = errors.New("invalid input")
)
