// Package transcoder drives the external ffmpeg engine for the two transform
// capabilities the service needs: a time-windowed re-encode (trim) and a
// list-based stream-copy concatenation (merge).
package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// TrimJob describes a single trim invocation. Start and End are optional
// offsets in seconds into the source; SourceDuration is the authoritative
// duration of the input.
type TrimJob struct {
	InputPath      string
	OutputPath     string
	Start          *float64
	End            *float64
	SourceDuration float64
}

// Engine is the narrow capability surface of the external transcoding
// process. Each call blocks until the engine reports completion or failure,
// exactly once. Implementations do not clean up partial output; the caller
// owns the final artifact.
type Engine interface {
	Trim(ctx context.Context, job TrimJob) error
	Merge(ctx context.Context, inputPaths []string, outputPath string) error
}

// ClipDuration computes the output duration of a trim window over a source
// of the given duration: (end ?? source) - (start ?? 0).
func ClipDuration(start, end *float64, source float64) float64 {
	s := 0.0
	if start != nil {
		s = *start
	}
	e := source
	if end != nil {
		e = *end
	}
	return e - s
}

// FFmpeg implements Engine by shelling out to the ffmpeg binary.
type FFmpeg struct {
	binary string

	// run executes one engine invocation. Replaced in tests.
	run func(ctx context.Context, binary string, args ...string) error
}

// NewFFmpeg creates an Engine using the given ffmpeg binary
// (usually just "ffmpeg").
func NewFFmpeg(binary string) *FFmpeg {
	return &FFmpeg{
		binary: binary,
		run:    runEngine,
	}
}

// Trim re-encodes a time window of the input into the output. The engine is
// always configured with a start offset plus a duration limit, never an
// absolute end time: end offsets are translated via ClipDuration. This keeps
// the window unambiguous regardless of how the engine would interpret end
// timestamps across variable frame rates.
func (f *FFmpeg) Trim(ctx context.Context, job TrimJob) error {
	args := []string{}
	if job.Start != nil {
		args = append(args, "-ss", formatSeconds(*job.Start))
	}
	args = append(args, "-i", job.InputPath)
	if job.End != nil {
		args = append(args, "-t", formatSeconds(ClipDuration(job.Start, job.End, job.SourceDuration)))
	}
	args = append(args, "-y", job.OutputPath)

	if err := f.run(ctx, f.binary, args...); err != nil {
		return fmt.Errorf("trimming %s: %w", job.InputPath, err)
	}
	return nil
}

// Merge concatenates the inputs into the output without re-encoding. The
// inputs are listed in a temporary concat manifest which is removed again on
// both the success and the engine-failure path.
func (f *FFmpeg) Merge(ctx context.Context, inputPaths []string, outputPath string) error {
	manifest := filepath.Join(os.TempDir(), fmt.Sprintf("concat-%s.txt", uuid.NewString()))

	if err := os.WriteFile(manifest, []byte(concatManifest(inputPaths)), 0o644); err != nil {
		// A partially written manifest may still be on disk.
		if _, statErr := os.Stat(manifest); statErr == nil {
			_ = os.Remove(manifest)
		}
		return fmt.Errorf("writing concat manifest: %w", err)
	}
	defer os.Remove(manifest)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		"-y", outputPath,
	}

	if err := f.run(ctx, f.binary, args...); err != nil {
		return fmt.Errorf("merging %d inputs: %w", len(inputPaths), err)
	}
	return nil
}

// concatManifest renders the ffmpeg concat-demuxer input list: one
// `file '<absolute forward-slash path>'` per line, newline-joined with no
// trailing newline.
func concatManifest(inputPaths []string) string {
	lines := make([]string, len(inputPaths))
	for i, p := range inputPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		lines[i] = fmt.Sprintf("file '%s'", filepath.ToSlash(abs))
	}
	return strings.Join(lines, "\n")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func runEngine(ctx context.Context, binary string, args ...string) error {
	cmd := exec.CommandContext(ctx, binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %v, %s", err, stderr.String())
	}
	return nil
}
