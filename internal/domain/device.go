package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Device is a push delivery target registered by a signed-in user.
type Device struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Platform    string             `bson:"platform" json:"platform"`    // "android" | "ios" | "web"
	TokenHash   string             `bson:"tokenHash" json:"-"`          // sha256 of the FCM token
	EndpointARN string             `bson:"endpointArn" json:"-"`        // SNS platform endpoint
	Enabled     bool               `bson:"enabled" json:"enabled"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
