package chat

import "errors"

// Request-validation failures. The orchestrator is only entered with a
// validated principal and prompt; these are produced at the request boundary
// before any store or network access.
var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
)
