package mongo

import (
	"context"
	"errors"
	"videoverse/internal/domain"
	"videoverse/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sharedLinkCollectionName = "shared_links"

// mongoSharedLinkRepository implements repository.SharedLinkRepository
type mongoSharedLinkRepository struct {
	collection *mongo.Collection
}

// NewMongoSharedLinkRepository creates a new SharedLink repository backed by MongoDB.
func NewMongoSharedLinkRepository(db *mongo.Database) repository.SharedLinkRepository {
	return &mongoSharedLinkRepository{
		collection: db.Collection(sharedLinkCollectionName),
	}
}

// Create inserts a new share link into the database.
func (r *mongoSharedLinkRepository) Create(ctx context.Context, link *domain.SharedLink) (primitive.ObjectID, error) {
	if link.VideoID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("shared link requires videoId")
	}
	if link.ExpiryDate.IsZero() {
		return primitive.NilObjectID, errors.New("shared link requires expiryDate")
	}

	link.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, link)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a share link by its ID. Expiry is not evaluated here;
// that is the share service's concern.
func (r *mongoSharedLinkRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SharedLink, error) {
	var link domain.SharedLink
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// EnsureSharedLinkIndexes creates necessary indexes for the shared_links collection.
func EnsureSharedLinkIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Lookup of all links pointing at one video.
			Keys:    bson.D{{Key: "videoId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "expiryDate", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
