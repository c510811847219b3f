package job

import "errors"

var (
	ErrImageRequired  = errors.New("image is required")
	ErrInvalidPayload = errors.New("invalid request payload")
)
