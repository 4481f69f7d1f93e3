package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	appconfig "github.com/watermarktools/bulk-watermark/internal/config"
	"github.com/watermarktools/bulk-watermark/internal/ffmpeg"
	"github.com/watermarktools/bulk-watermark/internal/preset"
	"github.com/watermarktools/bulk-watermark/internal/processor"
	"github.com/watermarktools/bulk-watermark/internal/thumbcache"
	"github.com/watermarktools/bulk-watermark/pkg/types"
)

var (
	rootCmd = &cobra.Command{
		Use:   "bulk-watermark",
		Short: "Apply text or image watermarks to images and videos",
		Long: `bulk-watermark applies text or image watermarks to images and videos
using an external ffmpeg binary, and caches generated video thumbnails.

Examples:
  # Watermark a single video with text
  bulk-watermark apply -i input.mp4 -o output.mp4 --text "© 2026"

  # Watermark a folder of files with an image watermark
  bulk-watermark batch -o ./out --image logo.png *.jpg *.mp4

  # Generate (or reuse) a cached thumbnail for a video
  bulk-watermark thumbnail -i input.mp4`,
	}

	applyCmd = &cobra.Command{
		Use:   "apply",
		Short: "Watermark a single image or video",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			inputPath, _ := cmd.Flags().GetString("input")
			outputPath, _ := cmd.Flags().GetString("output")
			if inputPath == "" || outputPath == "" {
				return fmt.Errorf("input and output paths are required")
			}

			wm, err := watermarkConfigFromFlags(cmd, cfg)
			if err != nil {
				return err
			}

			verbose := verboseFlag(cmd, cfg)
			proc := processor.New(ffmpeg.NewRunner(cfg.FFmpegPath, verbose), nil, verbose)
			result, err := proc.ProcessFile(inputPath, outputPath, wm)
			if err != nil {
				return err
			}

			if result.Status == types.StatusFailed {
				return fmt.Errorf("failed to watermark %s: %s", result.InputPath, result.Error)
			}
			fmt.Printf("Created %s\n", result.OutputPath)
			return nil
		},
	}

	batchCmd = &cobra.Command{
		Use:   "batch [files...]",
		Short: "Watermark multiple files into an output directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			outputDir, _ := cmd.Flags().GetString("output")
			if outputDir == "" {
				outputDir = cfg.OutputDir
			}

			wm, err := watermarkConfigFromFlags(cmd, cfg)
			if err != nil {
				return err
			}

			verbose := verboseFlag(cmd, cfg)
			files := buildFileItems(args)
			proc := processor.New(ffmpeg.NewRunner(cfg.FFmpegPath, verbose), logEmitter{}, verbose)

			result, err := proc.ProcessBatch(files, wm, outputDir)
			if err != nil {
				return err
			}

			renderBatchResult(result)
			if result.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", result.Failed, result.Total)
			}
			return nil
		},
	}

	thumbnailCmd = &cobra.Command{
		Use:   "thumbnail",
		Short: "Generate (or reuse) a cached thumbnail for a video",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			inputPath, _ := cmd.Flags().GetString("input")
			if inputPath == "" {
				return fmt.Errorf("input path is required")
			}

			manager := newCacheManager(cmd, cfg)
			manager.CleanupAsync()

			path, err := manager.Thumbnail(inputPath)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}

	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage the thumbnail cache",
	}

	cacheCleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old and orphaned thumbnails",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			maxAgeDays, _ := cmd.Flags().GetInt("max-age-days")
			report, err := newCacheManager(cmd, cfg).Cleanup(maxAgeDays)
			if err != nil {
				return err
			}
			fmt.Println(report)
			return nil
		},
	}

	presetsCmd = &cobra.Command{
		Use:   "presets",
		Short: "List available watermark presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			presets, err := preset.NewStore(cfg.PresetDir).List()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"ID", "Name", "Description"})
			for _, p := range presets {
				t.AppendRow(table.Row{p.ID, p.Name, p.Description})
			}
			t.Render()
			return nil
		},
	}
)

// logEmitter delivers progress events to the terminal. Aggregate results are
// rendered by the batch command itself.
type logEmitter struct{}

func (logEmitter) Emit(recipient, event string, payload interface{}) {
	if event != processor.EventProgress {
		return
	}
	if p, ok := payload.(types.ProgressPayload); ok {
		log.Printf("[%d/%d] %s: %s\n", p.FileIndex+1, p.TotalFiles, p.Status, p.FilePath)
	}
}

func renderBatchResult(result *types.BatchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Input", "Status", "Output", "Error"})
	for _, file := range result.Files {
		t.AppendRow(table.Row{file.InputPath, file.Status, file.OutputPath, file.Error})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("total %d", result.Total), "",
		fmt.Sprintf("ok %d", result.Successful),
		fmt.Sprintf("failed %d", result.Failed),
	})
	t.Render()
}

func loadConfig(cmd *cobra.Command) (*appconfig.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return appconfig.Load(path)
}

func verboseFlag(cmd *cobra.Command, cfg *appconfig.Config) bool {
	if cmd.Flags().Changed("verbose") {
		v, _ := cmd.Flags().GetBool("verbose")
		return v
	}
	return cfg.Verbose
}

func newCacheManager(cmd *cobra.Command, cfg *appconfig.Config) *thumbcache.Manager {
	runner := ffmpeg.NewRunner(cfg.FFmpegPath, verboseFlag(cmd, cfg))
	return thumbcache.NewManager(runner, thumbcache.Options{
		Dir:        cfg.Thumbnails.CacheDir,
		MaxEntries: cfg.Thumbnails.MaxEntries,
		MaxBytes:   cfg.Thumbnails.MaxSizeMB * 1024 * 1024,
	})
}

// watermarkConfigFromFlags builds the watermark configuration from the
// defaults (or a named preset), overridden by any flags the user set.
func watermarkConfigFromFlags(cmd *cobra.Command, cfg *appconfig.Config) (*types.WatermarkConfig, error) {
	wm := types.DefaultConfig()

	if presetID, _ := cmd.Flags().GetString("preset"); presetID != "" {
		loaded, err := preset.NewStore(cfg.PresetDir).Load(presetID)
		if err != nil {
			return nil, err
		}
		wm = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("text") {
		wm.Text, _ = flags.GetString("text")
		wm.Type = types.WatermarkText
	}
	if flags.Changed("image") {
		wm.ImagePath, _ = flags.GetString("image")
		wm.Type = types.WatermarkImage
	}
	if flags.Changed("position") {
		pos, _ := flags.GetString("position")
		wm.Position = types.WatermarkPosition(pos)
	}
	if flags.Changed("opacity") {
		wm.Opacity, _ = flags.GetInt("opacity")
	}
	if flags.Changed("color") {
		wm.TextColor, _ = flags.GetString("color")
	}
	if flags.Changed("font-size") {
		wm.FontSize, _ = flags.GetInt("font-size")
	}
	if flags.Changed("font-family") {
		wm.FontFamily, _ = flags.GetString("font-family")
	}
	if flags.Changed("image-scale") {
		scale, _ := flags.GetInt("image-scale")
		wm.ImageScale = &scale
	}
	if flags.Changed("x") || flags.Changed("y") {
		x, _ := flags.GetFloat64("x")
		y, _ := flags.GetFloat64("y")
		wm.PositionMode = types.PositionModeCustom
		wm.CustomPosition = &types.CustomPosition{X: x, Y: y}
	}

	return wm, nil
}

// buildFileItems turns CLI arguments into a batch manifest. Existence is
// checked at processing time, not here.
func buildFileItems(paths []string) []types.FileItem {
	items := make([]types.FileItem, 0, len(paths))
	for _, path := range paths {
		item := types.FileItem{
			Path: path,
			Name: filepath.Base(path),
			Type: "unknown",
		}
		if isVideo, err := ffmpeg.DetectFileType(path); err == nil {
			if isVideo {
				item.Type = "video"
			} else {
				item.Type = "image"
			}
		}
		if info, err := os.Stat(path); err == nil {
			size := info.Size()
			item.Size = &size
		}
		items = append(items, item)
	}
	return items
}

func addWatermarkFlags(cmd *cobra.Command) {
	cmd.Flags().String("preset", "", "Load a named watermark preset first")
	cmd.Flags().String("text", "", "Text watermark content")
	cmd.Flags().String("image", "", "Image watermark file")
	cmd.Flags().String("position", "", "Preset position (e.g. bottom-right, center, top-left)")
	cmd.Flags().Int("opacity", 80, "Watermark opacity (0-100)")
	cmd.Flags().String("color", "#ffffff", "Text color (hex or named)")
	cmd.Flags().Int("font-size", 48, "Text font size")
	cmd.Flags().String("font-family", "Arial", "Text font family")
	cmd.Flags().Int("image-scale", 20, "Image watermark width as percent of source width")
	cmd.Flags().Float64("x", 0, "Custom position x fraction (0.0-1.0)")
	cmd.Flags().Float64("y", 0, "Custom position y fraction (0.0-1.0)")
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	applyCmd.Flags().StringP("input", "i", "", "Input image or video file")
	applyCmd.Flags().StringP("output", "o", "", "Output file path")
	addWatermarkFlags(applyCmd)
	applyCmd.MarkFlagRequired("input")
	applyCmd.MarkFlagRequired("output")

	batchCmd.Flags().StringP("output", "o", "", "Output directory")
	addWatermarkFlags(batchCmd)

	thumbnailCmd.Flags().StringP("input", "i", "", "Input video file")
	thumbnailCmd.MarkFlagRequired("input")

	cacheCleanupCmd.Flags().Int("max-age-days", -1, "Remove thumbnails older than this many days (default 7)")
	cacheCmd.AddCommand(cacheCleanupCmd)

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(thumbnailCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(presetsCmd)
}

func main() {
	log.SetFlags(log.LstdFlags)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
