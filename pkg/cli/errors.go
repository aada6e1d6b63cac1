package cli

import "errors"

// Common CLI errors
var (
	ErrCasesFailed = errors.New("scenario cases failed")
	ErrUsage       = errors.New("invalid usage")
)
