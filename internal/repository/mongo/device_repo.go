package mongo

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/repository"
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const deviceCollectionName = "devices"

type mongoDeviceRepository struct {
	collection *mongo.Collection
}

// NewMongoDeviceRepository creates a repository for push delivery targets.
func NewMongoDeviceRepository(db *mongo.Database) repository.DeviceRepository {
	return &mongoDeviceRepository{
		collection: db.Collection(deviceCollectionName),
	}
}

// Upsert stores the device keyed by (userId, tokenHash), refreshing its endpoint
// if the same token was registered before.
func (r *mongoDeviceRepository) Upsert(ctx context.Context, device *domain.Device) (*domain.Device, error) {
	if device.UserID == primitive.NilObjectID || device.TokenHash == "" || device.EndpointARN == "" {
		return nil, errors.New("device requires userId, tokenHash and endpointArn")
	}

	now := time.Now().UTC()
	filter := bson.M{"userId": device.UserID, "tokenHash": device.TokenHash}
	update := bson.M{
		"$set": bson.M{
			"platform":    device.Platform,
			"endpointArn": device.EndpointARN,
			"enabled":     true,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.Device
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetEnabledByUserID lists the user's enabled devices, most recently refreshed first.
func (r *mongoDeviceRepository) GetEnabledByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Device, error) {
	filter := bson.M{"userId": userID, "enabled": true}
	findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	devices := []domain.Device{}
	if err = cursor.All(ctx, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// EnsureDeviceIndexes creates necessary indexes. Call during startup.
func EnsureDeviceIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "tokenHash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
