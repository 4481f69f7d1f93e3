package watermark

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/watermarktools/bulk-watermark/internal/ffmpeg"
	"github.com/watermarktools/bulk-watermark/pkg/types"
)

// edgePadding is the fixed distance in pixels between a preset-positioned
// watermark and the frame edge.
const edgePadding = "20"

// defaultImageScale is the watermark width as a percentage of the source
// width when the configuration does not specify one.
const defaultImageScale = 20

// escapeFilterText escapes a literal for use inside a drawtext filter so the
// text cannot be misread as filter syntax. Backslashes must be escaped
// before anything else.
func escapeFilterText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `{`, `\{`)
	s = strings.ReplaceAll(s, `}`, `\}`)
	return s
}

func escapeFontFamily(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	return s
}

// normalizeColor converts a "#rrggbb" color to ffmpeg's 0x notation and
// appends the alpha channel derived from opacity.
func normalizeColor(color string, opacity int) string {
	alpha := clampUnit(float64(opacity) / 100.0)
	base := color
	if stripped, ok := strings.CutPrefix(color, "#"); ok {
		base = "0x" + stripped
	}
	return fmt.Sprintf("%s@%.3f", base, alpha)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// textPositionExpression returns the drawtext x/y expressions. Custom
// positions center the text on the fractional point while clamping it fully
// inside the frame.
func textPositionExpression(cfg *types.WatermarkConfig) (string, string) {
	if cfg.IsCustomPosition() && cfg.CustomPosition != nil {
		x := fmt.Sprintf("max(0, min(w-text_w, w*%.6f-text_w/2))", cfg.CustomPosition.X)
		y := fmt.Sprintf("max(0, min(h-text_h, h*%.6f-text_h/2))", cfg.CustomPosition.Y)
		return x, y
	}
	return presetExpression(cfg.Position, "w", "h", "text_w", "text_h")
}

// overlayPositionExpression returns the overlay x/y expressions. The overlay
// filter names the base frame W/H and the watermark w/h.
func overlayPositionExpression(cfg *types.WatermarkConfig) (string, string) {
	if cfg.IsCustomPosition() && cfg.CustomPosition != nil {
		x := fmt.Sprintf("max(0, min(W-w, W*%.6f-w/2))", cfg.CustomPosition.X)
		y := fmt.Sprintf("max(0, min(H-h, H*%.6f-h/2))", cfg.CustomPosition.Y)
		return x, y
	}
	return presetExpression(cfg.Position, "W", "H", "w", "h")
}

func presetExpression(pos types.WatermarkPosition, frameW, frameH, markW, markH string) (string, string) {
	left := edgePadding
	centerX := fmt.Sprintf("(%s-%s)/2", frameW, markW)
	right := fmt.Sprintf("%s-%s-%s", frameW, markW, edgePadding)
	top := edgePadding
	centerY := fmt.Sprintf("(%s-%s)/2", frameH, markH)
	bottom := fmt.Sprintf("%s-%s-%s", frameH, markH, edgePadding)

	switch pos {
	case types.PositionTopLeft:
		return left, top
	case types.PositionTopCenter:
		return centerX, top
	case types.PositionTopRight:
		return right, top
	case types.PositionCenterLeft:
		return left, centerY
	case types.PositionCenter:
		return centerX, centerY
	case types.PositionCenterRight:
		return right, centerY
	case types.PositionBottomLeft:
		return left, bottom
	case types.PositionBottomCenter:
		return centerX, bottom
	case types.PositionBottomRight:
		return right, bottom
	default:
		return right, bottom
	}
}

// quoteExpr wraps an expression in single quotes when it contains a comma,
// which drawtext would otherwise parse as an argument separator.
func quoteExpr(axis, expr string) string {
	if strings.Contains(expr, ",") {
		return fmt.Sprintf("%s='%s'", axis, expr)
	}
	return fmt.Sprintf("%s=%s", axis, expr)
}

// BuildTextFilter produces the drawtext filter for a text watermark.
func BuildTextFilter(cfg *types.WatermarkConfig) (string, error) {
	if strings.TrimSpace(cfg.Text) == "" {
		return "", errors.Wrap(ffmpeg.ErrInvalidConfig, "text watermark requires non-empty text")
	}

	escapedText := escapeFilterText(cfg.Text)
	escapedFont := escapeFontFamily(cfg.FontFamily)
	fontColor := normalizeColor(cfg.TextColor, cfg.Opacity)
	xExpr, yExpr := textPositionExpression(cfg)

	filter := fmt.Sprintf(
		"drawtext=text='%s':font='%s':fontsize=%d:fontcolor=%s:shadowcolor=black@0.5:shadowx=2:shadowy=2:%s:%s",
		escapedText,
		escapedFont,
		cfg.FontSize,
		fontColor,
		quoteExpr("x", xExpr),
		quoteExpr("y", yExpr),
	)

	return filter, nil
}

// BuildImageFilter produces the filter graph compositing an image watermark:
// scale the watermark relative to the source width, multiply in the opacity,
// then overlay at the configured position.
func BuildImageFilter(cfg *types.WatermarkConfig) (string, error) {
	if strings.TrimSpace(cfg.ImagePath) == "" {
		return "", errors.Wrap(ffmpeg.ErrInvalidConfig, "image watermark requires an image path")
	}
	if _, err := os.Stat(cfg.ImagePath); err != nil {
		return "", errors.Wrapf(ffmpeg.ErrInvalidConfig, "watermark image not found at %s", cfg.ImagePath)
	}

	xExpr, yExpr := overlayPositionExpression(cfg)
	opacity := clampUnit(float64(cfg.Opacity) / 100.0)

	scalePercent := defaultImageScale
	if cfg.ImageScale != nil {
		scalePercent = *cfg.ImageScale
	}
	scaleExpr := fmt.Sprintf("iw*%d/100:-1", scalePercent)

	return fmt.Sprintf(
		"[1:v]scale=%s[wm];[wm]format=rgba,colorchannelmixer=aa=%.3f[wm_alpha];[0:v][wm_alpha]overlay=%s:%s",
		scaleExpr,
		opacity,
		xExpr,
		yExpr,
	), nil
}
