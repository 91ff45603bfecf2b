package mongo

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Goals are keyed by user id, one document per user.
const goalCollectionName = "userGoals"

type mongoGoalRepository struct {
	collection *mongo.Collection
}

func NewMongoGoalRepository(db *mongo.Database) repository.GoalRepository {
	return &mongoGoalRepository{collection: db.Collection(goalCollectionName)}
}

func (r *mongoGoalRepository) Get(ctx context.Context, userID primitive.ObjectID) (*domain.Goal, error) {
	var goal domain.Goal
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&goal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &goal, nil
}

// Upsert replaces the user's targets, creating the document on first save.
func (r *mongoGoalRepository) Upsert(ctx context.Context, goal *domain.Goal) error {
	if goal.UserID.IsZero() {
		return errors.New("goal requires a user ID")
	}
	goal.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"steps":     goal.Steps,
			"calories":  goal.Calories,
			"water":     goal.Water,
			"updatedAt": goal.UpdatedAt,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": goal.UserID}, update, options.Update().SetUpsert(true))
	return err
}
