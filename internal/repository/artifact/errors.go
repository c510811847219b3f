package artifact

import "errors"

var (
	ErrArtifactNotFound   = errors.New("artifact not found")
	ErrArtifactTooLarge   = errors.New("artifact too large")
	ErrStorageError       = errors.New("storage error")
	ErrInvalidReference   = errors.New("invalid artifact reference")
	ErrUnsupportedBackend = errors.New("no fetcher for artifact reference")
)

// MaxArtifactSize bounds how much of an artifact is read into memory.
const MaxArtifactSize = 64 << 20
