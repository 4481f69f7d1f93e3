package ffmpeg

import "errors"

// Sentinel errors for classifying FFmpeg failures. MissingBinary and Spawn
// mean the pipeline itself cannot run; everything else is a per-file failure.
var (
	ErrMissingBinary     = errors.New("ffmpeg binary not found")
	ErrSpawn             = errors.New("failed to spawn ffmpeg")
	ErrExecution         = errors.New("ffmpeg exited with error")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// IsCatastrophic reports whether err indicates that no processing can
// proceed at all, as opposed to a failure scoped to a single file.
func IsCatastrophic(err error) bool {
	return errors.Is(err, ErrMissingBinary) || errors.Is(err, ErrSpawn)
}
