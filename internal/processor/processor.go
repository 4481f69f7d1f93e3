package processor

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/watermarktools/bulk-watermark/internal/ffmpeg"
	"github.com/watermarktools/bulk-watermark/internal/watermark"
	"github.com/watermarktools/bulk-watermark/pkg/types"
)

// CommandRunner executes the external processor with an ordered argument
// vector, returning its stdout.
type CommandRunner interface {
	Run(args []string) (string, error)
}

// Processor drives watermarking for single files and batches. Files are
// processed one at a time in manifest order; each call blocks until ffmpeg
// exits.
type Processor struct {
	runner  CommandRunner
	emitter Emitter
	verbose bool
}

// New creates a processor. A nil emitter discards progress events.
func New(runner CommandRunner, emitter Emitter, verbose bool) *Processor {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &Processor{
		runner:  runner,
		emitter: emitter,
		verbose: verbose,
	}
}

// ProcessFile watermarks a single file. Recoverable failures, including an
// invalid configuration, come back as a failed FileResult; only catastrophic
// failures (missing or unspawnable ffmpeg) are returned as errors.
func (p *Processor) ProcessFile(inputPath, outputPath string, cfg *types.WatermarkConfig) (types.FileResult, error) {
	if err := watermark.Validate(cfg); err != nil {
		return types.FileResult{
			InputPath: inputPath,
			Status:    types.StatusFailed,
			Error:     err.Error(),
		}, nil
	}

	if err := p.processInternal(inputPath, outputPath, cfg); err != nil {
		if ffmpeg.IsCatastrophic(err) {
			return types.FileResult{}, err
		}
		return types.FileResult{
			InputPath: inputPath,
			Status:    types.StatusFailed,
			Error:     err.Error(),
		}, nil
	}

	return types.FileResult{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Status:     types.StatusSuccess,
	}, nil
}

// ProcessBatch watermarks every file in manifest order, emitting a progress
// event pair per file and a single aggregate event on completion. A
// catastrophic failure aborts the whole batch immediately: no further files
// are attempted and no aggregate event is emitted.
func (p *Processor) ProcessBatch(files []types.FileItem, cfg *types.WatermarkConfig, outputDir string) (*types.BatchResult, error) {
	if err := watermark.Validate(cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "error creating output directory")
	}

	batchID := uuid.NewString()
	total := len(files)
	successful := 0
	failed := 0
	results := make([]types.FileResult, 0, total)

	for index, file := range files {
		p.emitProgress(types.ProgressPayload{
			FilePath:   file.Path,
			FileIndex:  index,
			TotalFiles: total,
			Status:     "processing",
			BatchID:    batchID,
		})

		outputPath := buildOutputPath(outputDir, file.Path)

		var result types.FileResult
		var statusLabel string

		err := p.processInternal(file.Path, outputPath, cfg)
		switch {
		case err == nil:
			successful++
			result = types.FileResult{
				InputPath:  file.Path,
				OutputPath: outputPath,
				Status:     types.StatusSuccess,
			}
			statusLabel = "complete"
		case ffmpeg.IsCatastrophic(err):
			return nil, err
		default:
			failed++
			result = types.FileResult{
				InputPath: file.Path,
				Status:    types.StatusFailed,
				Error:     err.Error(),
			}
			statusLabel = "error"
		}

		p.emitProgress(types.ProgressPayload{
			FilePath:   file.Path,
			FileIndex:  index,
			TotalFiles: total,
			Status:     statusLabel,
			BatchID:    batchID,
		})

		results = append(results, result)
	}

	batchResult := &types.BatchResult{
		Files:      results,
		Total:      total,
		Successful: successful,
		Failed:     failed,
	}

	p.emitter.Emit(Recipient, EventComplete, batchResult)

	return batchResult, nil
}

// processInternal runs the per-file pipeline: existence check, output
// directory creation, media classification, command synthesis, execution.
func (p *Processor) processInternal(inputPath, outputPath string, cfg *types.WatermarkConfig) error {
	if _, err := os.Stat(inputPath); err != nil {
		return errors.New("input file not found")
	}

	if parent := filepath.Dir(outputPath); parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return errors.Wrap(err, "error creating output directory")
		}
	}

	isVideo, err := ffmpeg.DetectFileType(inputPath)
	if err != nil {
		return err
	}

	if p.verbose && isVideo {
		if metadata, err := ffmpeg.Probe(inputPath); err == nil {
			log.Printf("Input metadata: Duration=%.2fs, Resolution=%dx%d, Codec=%s\n",
				metadata.Duration, metadata.Width, metadata.Height, metadata.Codec)
		} else {
			log.Printf("Warning: could not probe %s: %v", inputPath, err)
		}
	}

	args, err := watermark.BuildCommand(inputPath, outputPath, cfg, isVideo)
	if err != nil {
		return err
	}

	_, err = p.runner.Run(args)
	return err
}

func (p *Processor) emitProgress(payload types.ProgressPayload) {
	p.emitter.Emit(Recipient, EventProgress, payload)
}

// buildOutputPath derives {outputDir}/{stem}_watermarked.{ext} from the
// input filename, defaulting stem and extension when absent.
func buildOutputPath(outputDir, inputPath string) string {
	base := filepath.Base(inputPath)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if stem == "" {
		stem = "watermarked"
	}
	if ext == "" {
		ext = "out"
	}

	return filepath.Join(outputDir, fmt.Sprintf("%s_watermarked.%s", stem, ext))
}
