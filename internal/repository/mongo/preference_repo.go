package mongo

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const preferenceCollectionName = "preferences"

type mongoPreferenceRepository struct {
	collection *mongo.Collection
}

// NewMongoPreferenceRepository creates a preference repository keyed by app instance.
func NewMongoPreferenceRepository(db *mongo.Database) repository.PreferenceRepository {
	return &mongoPreferenceRepository{
		collection: db.Collection(preferenceCollectionName),
	}
}

// Get returns the stored preference or repository.ErrNotFound.
func (r *mongoPreferenceRepository) Get(ctx context.Context, instanceID string) (*domain.Preference, error) {
	var pref domain.Preference
	err := r.collection.FindOne(ctx, bson.M{"_id": instanceID}).Decode(&pref)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &pref, nil
}

// SetDarkMode upserts the dark mode flag for the instance.
func (r *mongoPreferenceRepository) SetDarkMode(ctx context.Context, instanceID string, darkMode bool) error {
	if instanceID == "" {
		return errors.New("instance ID is required")
	}
	update := bson.M{
		"$set": bson.M{
			"darkMode":  darkMode,
			"updatedAt": time.Now().UTC(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": instanceID}, update, options.Update().SetUpsert(true))
	return err
}
