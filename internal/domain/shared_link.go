package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SharedLink grants time-bounded access to a Video. The hex form of ID is the
// public access token; many links may reference the same video. Links expire
// passively: ExpiryDate is checked when the link is resolved, there is no
// background reaper.
type SharedLink struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VideoID    primitive.ObjectID `bson:"videoId" json:"videoId"`
	ExpiryDate time.Time          `bson:"expiryDate" json:"expiryDate"`
}

// Expired reports whether the link is unusable at the given instant.
// A link is valid through its expiry date and unusable strictly after it.
func (l *SharedLink) Expired(now time.Time) bool {
	return now.After(l.ExpiryDate)
}
