package asyncreader

import "errors"

var (
	// ErrInvalidArgument reports a bad window, buffer shape or band map.
	// Always detected synchronously in Begin, never later.
	ErrInvalidArgument = errors.New("asyncread: invalid argument")

	// ErrBackendUnavailable reports that the decode engine refused to
	// open a view for the request.
	ErrBackendUnavailable = errors.New("asyncread: backend unavailable")

	// ErrBackendIO reports an engine failure mid transfer. It latches:
	// once surfaced, every later poll keeps reporting it.
	ErrBackendIO = errors.New("asyncread: backend i/o failure")
)
