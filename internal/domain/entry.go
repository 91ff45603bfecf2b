package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecentEntriesLimit caps the recent-entries list held by a tracker view.
const RecentEntriesLimit = 5

// UnknownOwner groups entries that were stored without an owner email.
const UnknownOwner = "unknown"

// Entry is one fitness log record.
// Field names in BSON follow the documents the web client has always written.
type Entry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	OwnerEmail  string             `bson:"userEmail" json:"userEmail"`
	Steps       float64            `bson:"steps" json:"steps"`
	WaterIntake float64            `bson:"waterIntake" json:"waterIntake"` // Litres
	Calories    float64            `bson:"calories" json:"calories"`
	RecordedAt  time.Time          `bson:"timestamp" json:"timestamp"`
}

// EntryInput is the free-text form submitted by a user.
type EntryInput struct {
	Steps       string `json:"steps"`
	WaterIntake string `json:"waterIntake"`
	Calories    string `json:"calories"`
}

// ParseEntryInput validates the form and converts it to an Entry without owner or timestamp.
// All three fields are required and must parse as finite numbers.
func ParseEntryInput(in EntryInput) (*Entry, error) {
	entry := &Entry{}
	fields := []struct {
		name  string
		value string
		dst   *float64
	}{
		{"steps", in.Steps, &entry.Steps},
		{"waterIntake", in.WaterIntake, &entry.WaterIntake},
		{"calories", in.Calories, &entry.Calories},
	}

	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing, Message: "All fields are required."}
	}

	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.value), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ValidationError{Fields: []string{f.name}, Message: f.name + " must be a number."}
		}
		*f.dst = v
	}
	return entry, nil
}
