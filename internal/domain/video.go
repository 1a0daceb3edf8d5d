package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video stores metadata about a clip held in the local store. The backing
// file lives at Path; the record itself is immutable once created. Trim and
// merge never touch an existing Video, they always produce a new one.
type Video struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`         // Display name (original upload name or a derived name)
	Size      int64              `bson:"size" json:"size"`         // File size in bytes at persistence time
	Duration  float64            `bson:"duration" json:"duration"` // Authoritative media duration in seconds
	Path      string             `bson:"path" json:"path"`         // Backing file path, unique per video, never reused
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
