package watermark

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/watermarktools/bulk-watermark/pkg/types"
)

// Validate checks a watermark configuration before any processing starts.
// Checks run in order and the first failure wins. The configuration is
// shared across a batch, so this runs once per request rather than per file.
func Validate(cfg *types.WatermarkConfig) error {
	switch cfg.Type {
	case types.WatermarkText:
		if strings.TrimSpace(cfg.Text) == "" {
			return errors.New("text watermark requires non-empty text")
		}
	case types.WatermarkImage:
		if cfg.ImagePath == "" {
			return errors.New("image watermark requires imagePath")
		}
		if _, err := os.Stat(cfg.ImagePath); err != nil {
			return errors.Errorf("watermark image not found at %s", cfg.ImagePath)
		}
	default:
		return errors.Errorf("unknown watermark type %q", cfg.Type)
	}

	if cfg.Opacity < 0 || cfg.Opacity > 100 {
		return errors.New("opacity must be between 0 and 100")
	}

	if cfg.IsCustomPosition() {
		pos := cfg.CustomPosition
		if pos == nil {
			return errors.New("custom position mode requires customPosition field")
		}
		if pos.X < 0.0 || pos.X > 1.0 {
			return errors.Errorf("custom position x must be between 0.0 and 1.0, got %v", pos.X)
		}
		if pos.Y < 0.0 || pos.Y > 1.0 {
			return errors.Errorf("custom position y must be between 0.0 and 1.0, got %v", pos.Y)
		}
	}

	return nil
}
