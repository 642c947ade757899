package http

const (
	ErrInvalidJsonPayload = "invalid JSON payload"
	ErrInvalidContext     = "invalid context"
)
