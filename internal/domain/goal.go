package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Goal holds a user's daily targets. A user without stored goals has the
// zero Goal.
type Goal struct {
	UserID    primitive.ObjectID `bson:"_id" json:"userId"`
	Steps     float64            `bson:"steps" json:"steps"`
	Calories  float64            `bson:"calories" json:"calories"`
	Water     float64            `bson:"water" json:"water"` // Litres
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt,omitempty"`
}
