package service

import (
	"context"
	"errors"
	"testing"
	"videoverse/internal/config"
)

// fakeProber implements media.Prober with a canned result.
type fakeProber struct {
	duration float64
	err      error
}

func (p *fakeProber) Duration(_ context.Context, _ string) (float64, error) {
	return p.duration, p.err
}

func testPolicy() config.UploadConfig {
	return config.UploadConfig{
		MaxSizeBytes:       25 * 1024 * 1024,
		MinDurationSeconds: 5,
		MaxDurationSeconds: 25,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		size     int64
		duration float64
		probeErr error
		wantErr  error
	}{
		{"NoFile", "", 1024, 15, nil, ErrNoFileUploaded},
		{"TooLarge", "clip.mp4", 26 * 1024 * 1024, 15, nil, ErrUploadTooLarge},
		{"AtSizeLimit", "clip.mp4", 25 * 1024 * 1024, 15, nil, nil},
		{"ProbeFailure", "clip.mp4", 1024, 0, errors.New("not a media file"), ErrProbeFailed},
		{"TooShort", "clip.mp4", 1024, 3, nil, nil},
		{"TooLong", "clip.mp4", 1024, 30, nil, nil},
		{"AtLowerBound", "clip.mp4", 1024, 5, nil, nil},
		{"AtUpperBound", "clip.mp4", 1024, 25, nil, nil},
		{"WithinBounds", "clip.mp4", 1024, 15, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewUploadValidator(&fakeProber{duration: tt.duration, err: tt.probeErr}, testPolicy())

			admitted, err := v.Validate(context.Background(), tt.path, "clip.mp4", tt.size)

			if tt.name == "TooShort" || tt.name == "TooLong" {
				var boundsErr *DurationOutOfBoundsError
				if !errors.As(err, &boundsErr) {
					t.Fatalf("Validate() error = %v, want DurationOutOfBoundsError", err)
				}
				if boundsErr.Min != 5 || boundsErr.Max != 25 || boundsErr.Actual != tt.duration {
					t.Errorf("bounds error = %+v", boundsErr)
				}
				return
			}

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if admitted.Path != tt.path || admitted.OriginalName != "clip.mp4" || admitted.Size != tt.size || admitted.Duration != tt.duration {
				t.Errorf("Validate() admitted %+v", admitted)
			}
		})
	}
}

func TestDurationOutOfBoundsMessage(t *testing.T) {
	err := &DurationOutOfBoundsError{Min: 5, Max: 25, Actual: 3.5}
	want := "video duration must be between 5 and 25 seconds (got 3.5s)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
