package service

import (
	"context"
	"errors"
	"fmt"
	"videoverse/internal/config"
	"videoverse/internal/media"
)

// --- Error Definitions ---
var (
	ErrNoFileUploaded = errors.New("no video file uploaded")
	ErrUploadTooLarge = errors.New("uploaded video exceeds the maximum allowed size")
	ErrProbeFailed    = errors.New("error processing video")
)

// DurationOutOfBoundsError reports an upload whose media duration falls
// outside the configured admission window.
type DurationOutOfBoundsError struct {
	Min    float64
	Max    float64
	Actual float64
}

func (e *DurationOutOfBoundsError) Error() string {
	return fmt.Sprintf("video duration must be between %g and %g seconds (got %gs)", e.Min, e.Max, e.Actual)
}

// AdmittedUpload is a received file that passed the admission policy.
type AdmittedUpload struct {
	Path         string
	OriginalName string
	Size         int64
	Duration     float64
}

// UploadValidator enforces size and duration policy on an incoming upload
// before it is admitted. Validation failures are terminal per request; the
// caller owns removal of the rejected file.
type UploadValidator struct {
	prober media.Prober
	policy config.UploadConfig
}

// NewUploadValidator creates a validator with the given probe and policy.
func NewUploadValidator(prober media.Prober, policy config.UploadConfig) *UploadValidator {
	return &UploadValidator{
		prober: prober,
		policy: policy,
	}
}

// Validate admits or rejects a received file. The size limit is normally
// enforced at the transport layer already; it is re-checked here so the
// policy holds for every caller.
func (v *UploadValidator) Validate(ctx context.Context, path, originalName string, size int64) (*AdmittedUpload, error) {
	if path == "" {
		return nil, ErrNoFileUploaded
	}
	if size > v.policy.MaxSizeBytes {
		return nil, ErrUploadTooLarge
	}

	duration, err := v.prober.Duration(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	if duration < v.policy.MinDurationSeconds || duration > v.policy.MaxDurationSeconds {
		return nil, &DurationOutOfBoundsError{
			Min:    v.policy.MinDurationSeconds,
			Max:    v.policy.MaxDurationSeconds,
			Actual: duration,
		}
	}

	return &AdmittedUpload{
		Path:         path,
		OriginalName: originalName,
		Size:         size,
		Duration:     duration,
	}, nil
}
