package watermark

import (
	"github.com/pkg/errors"

	"github.com/watermarktools/bulk-watermark/internal/ffmpeg"
	"github.com/watermarktools/bulk-watermark/pkg/types"
)

// BuildCommand assembles the full ffmpeg argument vector for watermarking
// one input. Video inputs copy the audio stream untouched; still images are
// capped to a single output frame. The destination is always overwritten.
func BuildCommand(inputPath, outputPath string, cfg *types.WatermarkConfig, isVideo bool) ([]string, error) {
	args := []string{"-i", inputPath}

	switch cfg.Type {
	case types.WatermarkImage:
		if cfg.ImagePath == "" {
			return nil, errors.Wrap(ffmpeg.ErrInvalidConfig, "image watermark requires imagePath")
		}
		filter, err := BuildImageFilter(cfg)
		if err != nil {
			return nil, err
		}
		args = append(args, "-i", cfg.ImagePath, "-filter_complex", filter)
	case types.WatermarkText:
		filter, err := BuildTextFilter(cfg)
		if err != nil {
			return nil, err
		}
		args = append(args, "-vf", filter)
	default:
		return nil, errors.Wrapf(ffmpeg.ErrInvalidConfig, "unknown watermark type %q", cfg.Type)
	}

	if isVideo {
		args = append(args, "-c:a", "copy")
	} else {
		args = append(args, "-frames:v", "1")
	}

	args = append(args, "-y", outputPath)
	return args, nil
}
