// Package media inspects uploaded files with ffprobe.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Prober reports the container-level duration of a media file. It reads the
// file and nothing else; an unreadable or non-media file is an error.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFprobe implements Prober by shelling out to the ffprobe binary.
type FFprobe struct {
	binary string

	// run executes the probe and returns its stdout. Replaced in tests.
	run func(ctx context.Context, binary, path string) (string, error)
}

// NewFFprobe creates a Prober using the given ffprobe binary
// (usually just "ffprobe").
func NewFFprobe(binary string) *FFprobe {
	return &FFprobe{
		binary: binary,
		run:    runProbe,
	}
}

// Duration returns the media duration in seconds.
func (p *FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	out, err := p.run(ctx, p.binary, path)
	if err != nil {
		return 0, err
	}
	return parseDuration(out)
}

func runProbe(ctx context.Context, binary, path string) (string, error) {
	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffprobe failed: %v, %s", err, stderr.String())
	}
	return stdout.String(), nil
}

func parseDuration(out string) (float64, error) {
	s := strings.TrimSpace(out)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing ffprobe duration %q: %w", s, err)
	}
	return d, nil
}
