package ffmpeg

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var imageExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "webp"}

var videoExtensions = []string{"mp4", "avi", "mov", "mkv", "webm", "flv"}

// DetectFileType classifies path by extension, returning true for videos and
// false for still images. Anything else is an unsupported format.
func DetectFileType(path string) (bool, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false, errors.Wrap(ErrUnsupportedFormat, "missing file extension")
	}
	ext = strings.ToLower(ext)

	for _, e := range imageExtensions {
		if ext == e {
			return false, nil
		}
	}
	for _, e := range videoExtensions {
		if ext == e {
			return true, nil
		}
	}
	return false, errors.Wrap(ErrUnsupportedFormat, ext)
}
