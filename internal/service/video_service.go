package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"videoverse/internal/domain"
	"videoverse/internal/messaging"
	"videoverse/internal/repository"
	"videoverse/internal/storage"
	"videoverse/internal/transcoder"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrVideoNotFound      = errors.New("video not found")
	ErrVideosNotFound     = errors.New("one or more video IDs do not exist")
	ErrBoundsOutOfRange   = errors.New("start and end time should be in original video duration limits")
	ErrSourceFileMissing  = errors.New("video file not found in store")
	ErrSourceFilesMissing = errors.New("one or more video files are missing from the store")
	ErrStorageUnavailable = errors.New("storage directory unavailable")
	ErrTranscodeFailed    = errors.New("transcode failed")

	// ErrMetadataSave marks the partial-success hazard: the engine produced
	// an output file but its metadata could not be persisted. The file is
	// left in place.
	ErrMetadataSave = errors.New("video produced but metadata could not be saved")
)

// VideoService orchestrates ingestion and the trim/merge transforms.
// Transforms either fully succeed (file produced and metadata persisted) or
// fail before any metadata is written; the one exception is surfaced as
// ErrMetadataSave.
type VideoService interface {
	Ingest(ctx context.Context, admitted *AdmittedUpload) (*domain.Video, error)
	Trim(ctx context.Context, videoID string, start, end *float64) (*domain.Video, error)
	Merge(ctx context.Context, videoIDs []string) (*domain.Video, error)
}

// videoService implements the VideoService interface.
type videoService struct {
	videoRepo repository.VideoRepository
	store     *storage.Store
	engine    transcoder.Engine
	events    *messaging.Producer // nil when messaging is disabled
}

// NewVideoService creates a new instance of videoService. events may be nil.
func NewVideoService(videoRepo repository.VideoRepository, store *storage.Store, engine transcoder.Engine, events *messaging.Producer) VideoService {
	return &videoService{
		videoRepo: videoRepo,
		store:     store,
		engine:    engine,
		events:    events,
	}
}

// Ingest persists metadata for an admitted upload whose file is already in
// the store.
func (s *videoService) Ingest(ctx context.Context, admitted *AdmittedUpload) (*domain.Video, error) {
	if admitted == nil || admitted.Path == "" {
		return nil, ErrNoFileUploaded
	}

	video := &domain.Video{
		Name:     admitted.OriginalName,
		Size:     admitted.Size,
		Duration: admitted.Duration,
		Path:     admitted.Path,
	}

	if _, err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("saving video metadata: %w", err)
	}

	s.publish(messaging.EventTypeVideoUploaded, video)
	return video, nil
}

// Trim produces a new video covering a time window of the source. The source
// record is never mutated; re-issuing the same request produces a new,
// distinct video each time.
func (s *videoService) Trim(ctx context.Context, videoID string, start, end *float64) (*domain.Video, error) {
	if videoID == "" || (start == nil && end == nil) {
		return nil, ErrInvalidRequest
	}

	id, err := primitive.ObjectIDFromHex(videoID)
	if err != nil {
		return nil, ErrVideoNotFound
	}

	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("looking up video %s: %w", videoID, err)
	}

	if err := checkTrimBounds(start, end, video.Duration); err != nil {
		return nil, err
	}

	if !s.store.Exists(video.Path) {
		return nil, ErrSourceFileMissing
	}
	if err := s.store.EnsureDir(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	name := storage.DerivedName(video.Name)
	outputPath := s.store.PathFor(name)

	err = s.engine.Trim(ctx, transcoder.TrimJob{
		InputPath:      video.Path,
		OutputPath:     outputPath,
		Start:          start,
		End:            end,
		SourceDuration: video.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}

	size, err := s.store.FileSize(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading output size: %v", ErrMetadataSave, err)
	}

	trimmed := &domain.Video{
		Name:     name,
		Size:     size,
		Duration: transcoder.ClipDuration(start, end, video.Duration),
		Path:     outputPath,
	}
	if _, err := s.videoRepo.Create(ctx, trimmed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataSave, err)
	}

	s.publish(messaging.EventTypeVideoTrimmed, trimmed)
	return trimmed, nil
}

// Merge concatenates two or more videos, in request order, into a new one.
func (s *videoService) Merge(ctx context.Context, videoIDs []string) (*domain.Video, error) {
	if len(videoIDs) < 2 {
		return nil, ErrInvalidRequest
	}

	ids := make([]primitive.ObjectID, 0, len(videoIDs))
	for _, raw := range videoIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, ErrVideosNotFound
		}
		ids = append(ids, id)
	}

	videos, err := s.videoRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("looking up videos: %w", err)
	}
	if len(videos) != len(videoIDs) {
		return nil, ErrVideosNotFound
	}

	// Re-order the fetched records to match the requested order.
	byID := make(map[primitive.ObjectID]*domain.Video, len(videos))
	for i := range videos {
		byID[videos[i].ID] = &videos[i]
	}

	inputPaths := make([]string, 0, len(ids))
	totalDuration := 0.0
	for _, id := range ids {
		video := byID[id]
		if !s.store.Exists(video.Path) {
			return nil, ErrSourceFilesMissing
		}
		inputPaths = append(inputPaths, video.Path)
		totalDuration += video.Duration
	}

	if err := s.store.EnsureDir(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	name := storage.MergedName()
	outputPath := s.store.PathFor(name)

	if err := s.engine.Merge(ctx, inputPaths, outputPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}

	size, err := s.store.FileSize(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading output size: %v", ErrMetadataSave, err)
	}

	merged := &domain.Video{
		Name:     name,
		Size:     size,
		Duration: totalDuration,
		Path:     outputPath,
	}
	if _, err := s.videoRepo.Create(ctx, merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataSave, err)
	}

	s.publish(messaging.EventTypeVideoMerged, merged)
	return merged, nil
}

// checkTrimBounds validates a trim window against the source duration:
// 0 <= start < (end ?? duration) and (start ?? 0) < end <= duration.
func checkTrimBounds(start, end *float64, duration float64) error {
	if start != nil {
		upper := duration
		if end != nil {
			upper = *end
		}
		if *start < 0 || *start >= upper {
			return ErrBoundsOutOfRange
		}
	}
	if end != nil {
		lower := 0.0
		if start != nil {
			lower = *start
		}
		if *end <= lower || *end > duration {
			return ErrBoundsOutOfRange
		}
	}
	return nil
}

// publish emits a lifecycle event; failures are logged, never surfaced to
// the caller.
func (s *videoService) publish(eventType string, video *domain.Video) {
	err := s.events.Publish(eventType, messaging.VideoPayload{
		ID:       video.ID.Hex(),
		Name:     video.Name,
		Size:     video.Size,
		Duration: video.Duration,
	})
	if err != nil {
		log.Printf("WARN: publishing %s event for video %s: %v", eventType, video.ID.Hex(), err)
	}
}
