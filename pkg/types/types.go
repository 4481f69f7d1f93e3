package types

// WatermarkType selects between a text overlay and an image overlay.
type WatermarkType string

const (
	WatermarkText  WatermarkType = "text"
	WatermarkImage WatermarkType = "image"
)

// WatermarkPosition is one of the nine preset anchor positions.
type WatermarkPosition string

const (
	PositionTopLeft      WatermarkPosition = "top-left"
	PositionTopCenter    WatermarkPosition = "top-center"
	PositionTopRight     WatermarkPosition = "top-right"
	PositionCenterLeft   WatermarkPosition = "center-left"
	PositionCenter       WatermarkPosition = "center"
	PositionCenterRight  WatermarkPosition = "center-right"
	PositionBottomLeft   WatermarkPosition = "bottom-left"
	PositionBottomCenter WatermarkPosition = "bottom-center"
	PositionBottomRight  WatermarkPosition = "bottom-right"
)

// PositionModeCustom enables fractional positioning via CustomPosition.
const PositionModeCustom = "custom"

// CustomPosition is a normalized fractional position; both coordinates
// must be within [0.0, 1.0].
type CustomPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WatermarkConfig describes a watermark to apply. It is validated once per
// request and treated as read-only for the duration of a batch.
type WatermarkConfig struct {
	Type           WatermarkType     `json:"watermarkType"`
	Text           string            `json:"text"`
	ImagePath      string            `json:"imagePath,omitempty"`
	Position       WatermarkPosition `json:"position"`
	Opacity        int               `json:"opacity"`
	TextColor      string            `json:"textColor"`
	FontSize       int               `json:"fontSize"`
	FontFamily     string            `json:"fontFamily"`
	ImageScale     *int              `json:"imageScale,omitempty"`
	PositionMode   string            `json:"positionMode,omitempty"`
	CustomPosition *CustomPosition   `json:"customPosition,omitempty"`
}

// IsCustomPosition reports whether fractional positioning is active.
func (c *WatermarkConfig) IsCustomPosition() bool {
	return c.PositionMode == PositionModeCustom
}

// DefaultConfig returns the stock text watermark configuration.
func DefaultConfig() *WatermarkConfig {
	scale := 20
	return &WatermarkConfig{
		Type:         WatermarkText,
		Text:         "Watermark",
		Position:     PositionBottomRight,
		Opacity:      80,
		TextColor:    "#ffffff",
		FontSize:     48,
		FontFamily:   "Arial",
		ImageScale:   &scale,
		PositionMode: "preset",
	}
}

// FileItem is one caller-supplied entry of a batch manifest.
type FileItem struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size *int64 `json:"size,omitempty"`
}

// ProcessingStatus is the terminal state of one processed file.
type ProcessingStatus string

const (
	StatusSuccess ProcessingStatus = "success"
	StatusFailed  ProcessingStatus = "failed"
	StatusSkipped ProcessingStatus = "skipped"
)

// FileResult records the outcome for a single input file.
type FileResult struct {
	InputPath  string           `json:"inputPath"`
	OutputPath string           `json:"outputPath,omitempty"`
	Status     ProcessingStatus `json:"status"`
	Error      string           `json:"error,omitempty"`
}

// BatchResult aggregates per-file results in manifest order.
// Total always equals Successful + Failed.
type BatchResult struct {
	Files      []FileResult `json:"files"`
	Total      int          `json:"total"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
}

// ProgressPayload is a transient per-file progress notification. Status is
// "processing" when a file is picked up and "complete" or "error" when it
// finishes.
type ProgressPayload struct {
	FilePath   string `json:"filePath"`
	FileIndex  int    `json:"fileIndex"`
	TotalFiles int    `json:"totalFiles"`
	Status     string `json:"status"`
	BatchID    string `json:"batchId,omitempty"`
}

// WatermarkPreset is a named, shareable watermark configuration.
type WatermarkPreset struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Config      WatermarkConfig `json:"config"`
}

// PresetMetadata identifies a preset without carrying its full config.
type PresetMetadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
