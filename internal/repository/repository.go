package repository

import (
	"context"
	"videoverse/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound = RepositoryError("not found")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// VideoRepository defines the interface for interacting with video metadata.
// Create and the finders are individually atomic; callers never need
// multi-record transactions.
type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error)
	// GetByIDs returns the videos matching the given ids, in no particular
	// order. Ids with no matching record are simply absent from the result.
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Video, error)
}

// SharedLinkRepository defines the interface for interacting with share links.
type SharedLinkRepository interface {
	Create(ctx context.Context, link *domain.SharedLink) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SharedLink, error)
}
