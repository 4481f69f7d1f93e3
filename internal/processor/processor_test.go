package processor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/watermarktools/bulk-watermark/internal/ffmpeg"
	"github.com/watermarktools/bulk-watermark/pkg/types"
)

// fakeRunner records invocations and fails according to its script.
type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(args []string) (string, error) {
	f.calls = append(f.calls, args)
	return "", f.err
}

// recordingEmitter captures every emitted event in order.
type recordingEmitter struct {
	events []emittedEvent
}

type emittedEvent struct {
	recipient string
	event     string
	payload   interface{}
}

func (r *recordingEmitter) Emit(recipient, event string, payload interface{}) {
	r.events = append(r.events, emittedEvent{recipient, event, payload})
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func textConfig() *types.WatermarkConfig {
	cfg := types.DefaultConfig()
	cfg.Text = "mark"
	return cfg
}

func TestProcessFileSuccess(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "clip.mp4")
	output := filepath.Join(dir, "out", "clip_watermarked.mp4")

	runner := &fakeRunner{}
	proc := New(runner, nil, false)

	result, err := proc.ProcessFile(input, output, textConfig())
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if result.Status != types.StatusSuccess {
		t.Fatalf("status = %s, want success (error: %s)", result.Status, result.Error)
	}
	if result.OutputPath != output {
		t.Errorf("output path = %q, want %q", result.OutputPath, output)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected exactly one ffmpeg invocation, got %d", len(runner.calls))
	}
	// The output directory must exist before ffmpeg runs.
	if _, err := os.Stat(filepath.Dir(output)); err != nil {
		t.Errorf("output directory was not created: %v", err)
	}
}

func TestProcessFileInvalidConfigIsRecoverable(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "clip.mp4")

	cfg := textConfig()
	cfg.Opacity = 150

	runner := &fakeRunner{}
	proc := New(runner, nil, false)

	result, err := proc.ProcessFile(input, filepath.Join(dir, "out.mp4"), cfg)
	if err != nil {
		t.Fatalf("invalid config must not be a hard error: %v", err)
	}
	if result.Status != types.StatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if result.OutputPath != "" {
		t.Error("failed result must not carry an output path")
	}
	if len(runner.calls) != 0 {
		t.Error("ffmpeg must not run for an invalid config")
	}
}

func TestProcessFileMissingInput(t *testing.T) {
	dir := t.TempDir()

	proc := New(&fakeRunner{}, nil, false)
	result, err := proc.ProcessFile(filepath.Join(dir, "gone.mp4"), filepath.Join(dir, "out.mp4"), textConfig())
	if err != nil {
		t.Fatalf("missing input must not be a hard error: %v", err)
	}
	if result.Status != types.StatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if !strings.Contains(result.Error, "not found") {
		t.Errorf("error should mention the missing file, got %q", result.Error)
	}
}

func TestProcessFileCatastrophic(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "clip.mp4")

	runner := &fakeRunner{err: errors.Wrap(ffmpeg.ErrMissingBinary, "ffmpeg")}
	proc := New(runner, nil, false)

	_, err := proc.ProcessFile(input, filepath.Join(dir, "out.mp4"), textConfig())
	if err == nil {
		t.Fatal("a missing binary must surface as a hard error")
	}
	if !ffmpeg.IsCatastrophic(err) {
		t.Errorf("error should remain catastrophic, got %v", err)
	}
}

func TestProcessBatchMixedResults(t *testing.T) {
	dir := t.TempDir()
	outputDir := filepath.Join(dir, "out")

	files := []types.FileItem{
		{Path: writeInput(t, dir, "one.mp4"), Name: "one.mp4", Type: "video"},
		{Path: writeInput(t, dir, "two.txt"), Name: "two.txt", Type: "unknown"},
		{Path: writeInput(t, dir, "three.png"), Name: "three.png", Type: "image"},
	}

	emitter := &recordingEmitter{}
	proc := New(&fakeRunner{}, emitter, false)

	result, err := proc.ProcessBatch(files, textConfig(), outputDir)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if result.Total != 3 || result.Successful != 2 || result.Failed != 1 {
		t.Fatalf("counts = %d/%d/%d, want 3/2/1", result.Total, result.Successful, result.Failed)
	}
	if result.Total != result.Successful+result.Failed {
		t.Error("total must equal successful + failed")
	}

	failed := result.Files[1]
	if failed.Status != types.StatusFailed {
		t.Fatalf("file 2 status = %s, want failed", failed.Status)
	}
	if failed.OutputPath != "" {
		t.Error("failed entry must have no output path")
	}

	wantOutput := filepath.Join(outputDir, "one_watermarked.mp4")
	if result.Files[0].OutputPath != wantOutput {
		t.Errorf("output path = %q, want %q", result.Files[0].OutputPath, wantOutput)
	}
}

func TestProcessBatchProgressEvents(t *testing.T) {
	dir := t.TempDir()
	files := []types.FileItem{
		{Path: writeInput(t, dir, "one.mp4"), Name: "one.mp4"},
		{Path: writeInput(t, dir, "two.txt"), Name: "two.txt"},
	}

	emitter := &recordingEmitter{}
	proc := New(&fakeRunner{}, emitter, false)

	if _, err := proc.ProcessBatch(files, textConfig(), filepath.Join(dir, "out")); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	// Two events per file plus the aggregate.
	if len(emitter.events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(emitter.events))
	}

	wantStatus := []string{"processing", "complete", "processing", "error"}
	for i, want := range wantStatus {
		ev := emitter.events[i]
		if ev.recipient != Recipient || ev.event != EventProgress {
			t.Fatalf("event %d: got %s/%s", i, ev.recipient, ev.event)
		}
		payload, ok := ev.payload.(types.ProgressPayload)
		if !ok {
			t.Fatalf("event %d: payload is %T", i, ev.payload)
		}
		if payload.Status != want {
			t.Errorf("event %d: status = %q, want %q", i, payload.Status, want)
		}
		if payload.TotalFiles != 2 {
			t.Errorf("event %d: totalFiles = %d, want 2", i, payload.TotalFiles)
		}
		if payload.FileIndex != i/2 {
			t.Errorf("event %d: fileIndex = %d, want %d", i, payload.FileIndex, i/2)
		}
		if payload.BatchID == "" {
			t.Errorf("event %d: missing batch id", i)
		}
	}

	last := emitter.events[4]
	if last.event != EventComplete {
		t.Fatalf("final event = %s, want %s", last.event, EventComplete)
	}
	if _, ok := last.payload.(*types.BatchResult); !ok {
		t.Fatalf("aggregate payload is %T", last.payload)
	}
}

func TestProcessBatchCatastrophicAborts(t *testing.T) {
	dir := t.TempDir()
	files := []types.FileItem{
		{Path: writeInput(t, dir, "one.mp4"), Name: "one.mp4"},
		{Path: writeInput(t, dir, "two.mp4"), Name: "two.mp4"},
		{Path: writeInput(t, dir, "three.mp4"), Name: "three.mp4"},
	}

	runner := &fakeRunner{err: errors.Wrap(ffmpeg.ErrSpawn, "fork failed")}
	emitter := &recordingEmitter{}
	proc := New(runner, emitter, false)

	result, err := proc.ProcessBatch(files, textConfig(), filepath.Join(dir, "out"))
	if err == nil {
		t.Fatal("expected a hard error")
	}
	if result != nil {
		t.Error("no partial batch result may be returned on catastrophic failure")
	}

	// Only file one was attempted.
	if len(runner.calls) != 1 {
		t.Errorf("expected 1 ffmpeg invocation, got %d", len(runner.calls))
	}
	// The "processing" event for file one was emitted, nothing else.
	if len(emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(emitter.events))
	}
	if emitter.events[0].event != EventProgress {
		t.Errorf("unexpected event %s", emitter.events[0].event)
	}
	for _, ev := range emitter.events {
		if ev.event == EventComplete {
			t.Error("no aggregate event may be emitted on catastrophic failure")
		}
	}
}

func TestProcessBatchInvalidConfigFailsCall(t *testing.T) {
	dir := t.TempDir()
	cfg := textConfig()
	cfg.Text = ""

	proc := New(&fakeRunner{}, nil, false)
	if _, err := proc.ProcessBatch(nil, cfg, filepath.Join(dir, "out")); err == nil {
		t.Fatal("an invalid config must fail the whole batch call")
	}
}

func TestBuildOutputPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/videos/clip.mp4", "clip_watermarked.mp4"},
		{"photo.jpeg", "photo_watermarked.jpeg"},
		{"noext", "noext_watermarked.out"},
		{"archive.tar.gz", "archive.tar_watermarked.gz"},
	}

	for _, tt := range tests {
		got := buildOutputPath("out", tt.input)
		want := filepath.Join("out", tt.want)
		if got != want {
			t.Errorf("buildOutputPath(%q) = %q, want %q", tt.input, got, want)
		}
	}
}
