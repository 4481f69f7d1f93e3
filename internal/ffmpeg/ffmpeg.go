package ffmpeg

import (
	"bytes"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Runner invokes the external ffmpeg binary with an ordered argument vector.
// Stderr is captured for diagnostics; stdout is returned on success.
type Runner struct {
	binary  string
	verbose bool
}

// NewRunner creates a runner. An empty binary means "ffmpeg" from PATH.
func NewRunner(binary string, verbose bool) *Runner {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Runner{binary: binary, verbose: verbose}
}

// Resolve locates the ffmpeg binary, failing with ErrMissingBinary when it
// cannot be found.
func (r *Runner) Resolve() (string, error) {
	path, err := exec.LookPath(r.binary)
	if err != nil {
		return "", errors.Wrap(ErrMissingBinary, r.binary)
	}
	return path, nil
}

// Run executes ffmpeg with args and blocks until it exits. A non-zero exit
// yields ErrExecution carrying the stderr text; inability to start the
// process yields ErrSpawn.
func (r *Runner) Run(args []string) (string, error) {
	path, err := r.Resolve()
	if err != nil {
		return "", err
	}

	if r.verbose {
		log.Printf("Running %s %s\n", path, strings.Join(args, " "))
	}

	cmd := exec.Command(path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", errors.Wrap(ErrSpawn, err.Error())
	}

	if err := cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return "", errors.Wrap(ErrExecution, strings.TrimSpace(stderr.String()))
		}
		return "", errors.Wrap(ErrExecution, err.Error())
	}

	return stdout.String(), nil
}

// ExtractFrame writes the first frame of videoPath to outputPath. This is
// the only ffmpeg path the thumbnail cache uses.
func (r *Runner) ExtractFrame(videoPath, outputPath string) error {
	if _, err := os.Stat(videoPath); err != nil {
		return errors.Errorf("video file not found: %s", videoPath)
	}

	isVideo, err := DetectFileType(videoPath)
	if err != nil {
		return err
	}
	if !isVideo {
		return errors.Wrap(ErrUnsupportedFormat, "file is not a video")
	}

	args := []string{
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "3",
		"-y", outputPath,
	}

	_, err = r.Run(args)
	return err
}
