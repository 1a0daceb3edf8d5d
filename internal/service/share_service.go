package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"videoverse/internal/domain"
	"videoverse/internal/messaging"
	"videoverse/internal/repository"
	"videoverse/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrLinkNotFound = errors.New("link not found")
	// ErrLinkExpired is deliberately distinct from ErrLinkNotFound so callers
	// can render the two cases differently.
	ErrLinkExpired       = errors.New("link expired")
	ErrSharedFileMissing = errors.New("shared video file not found in store")
)

// ShareService issues and resolves time-bounded share links. A link's id is
// the public access token; expiry is checked at resolve time only.
type ShareService interface {
	Create(ctx context.Context, videoID string) (*domain.SharedLink, error)
	Resolve(ctx context.Context, linkID string) (*domain.Video, error)
}

// shareService implements the ShareService interface.
type shareService struct {
	videoRepo repository.VideoRepository
	linkRepo  repository.SharedLinkRepository
	store     *storage.Store
	ttl       time.Duration
	events    *messaging.Producer // nil when messaging is disabled
	now       func() time.Time
}

// NewShareService creates a new instance of shareService. events may be nil.
func NewShareService(videoRepo repository.VideoRepository, linkRepo repository.SharedLinkRepository, store *storage.Store, ttl time.Duration, events *messaging.Producer) ShareService {
	return &shareService{
		videoRepo: videoRepo,
		linkRepo:  linkRepo,
		store:     store,
		ttl:       ttl,
		events:    events,
		now:       time.Now,
	}
}

// Create issues a new share link for an existing video.
func (s *shareService) Create(ctx context.Context, videoID string) (*domain.SharedLink, error) {
	if videoID == "" {
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

	link := &domain.SharedLink{
		VideoID:    video.ID,
		ExpiryDate: s.now().Add(s.ttl).UTC(),
	}
	if _, err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("saving share link: %w", err)
	}

	err = s.events.Publish(messaging.EventTypeLinkCreated, messaging.VideoPayload{
		ID:       video.ID.Hex(),
		Name:     video.Name,
		Size:     video.Size,
		Duration: video.Duration,
	})
	if err != nil {
		log.Printf("WARN: publishing %s event for link %s: %v", messaging.EventTypeLinkCreated, link.ID.Hex(), err)
	}

	return link, nil
}

// Resolve exchanges a link id for the backing file's video record, enforcing
// expiry and the presence of the file on disk.
func (s *shareService) Resolve(ctx context.Context, linkID string) (*domain.Video, error) {
	id, err := primitive.ObjectIDFromHex(linkID)
	if err != nil {
		return nil, ErrLinkNotFound
	}

	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("looking up link %s: %w", linkID, err)
	}

	if link.Expired(s.now()) {
		return nil, ErrLinkExpired
	}

	video, err := s.videoRepo.GetByID(ctx, link.VideoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("looking up video %s: %w", link.VideoID.Hex(), err)
	}

	if !s.store.Exists(video.Path) {
		return nil, ErrSharedFileMissing
	}

	return video, nil
}
