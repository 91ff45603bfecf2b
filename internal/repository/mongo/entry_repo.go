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

// Collection name kept from the web client so existing documents stay readable.
const entryCollectionName = "fitnessData"

// mongoEntryRepository implements repository.EntryRepository
type mongoEntryRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoEntryRepository creates a new Entry repository.
func NewMongoEntryRepository(db *mongo.Database) repository.EntryRepository {
	return &mongoEntryRepository{
		collection: db.Collection(entryCollectionName),
		now:        time.Now,
	}
}

// Create inserts a new entry. RecordedAt is always assigned here, on the server.
func (r *mongoEntryRepository) Create(ctx context.Context, entry *domain.Entry) (primitive.ObjectID, error) {
	if entry.OwnerEmail == "" {
		return primitive.NilObjectID, errors.New("entry requires an owner email")
	}
	entry.ID = primitive.NewObjectID()
	entry.RecordedAt = r.now().UTC()

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted entry ID")
	}
	return insertedID, nil
}

// GetRecent retrieves up to limit entries, newest first.
func (r *mongoEntryRepository) GetRecent(ctx context.Context, ownerEmail string, limit int) ([]domain.Entry, error) {
	filter := bson.M{}
	if ownerEmail != "" {
		filter["userEmail"] = ownerEmail
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		findOptions = findOptions.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeEntries(ctx, cursor)
}

// GetAll retrieves every entry of every owner.
func (r *mongoEntryRepository) GetAll(ctx context.Context) ([]domain.Entry, error) {
	// Natural order keeps first-occurrence grouping stable for the summary.
	findOptions := options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeEntries(ctx, cursor)
}

func decodeEntries(ctx context.Context, cursor *mongo.Cursor) ([]domain.Entry, error) {
	entries := []domain.Entry{}
	for cursor.Next(ctx) {
		entry, problems := decodeEntry(cursor.Current)
		for _, p := range problems {
			log.Printf("WARN: entry %s: %s", entry.ID.Hex(), p)
		}
		entries = append(entries, entry)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureEntryIndexes creates necessary indexes. Call during startup.
func EnsureEntryIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Recent entries across all owners
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index(),
		},
		{
			// Recent entries of one owner
			Keys:    bson.D{{Key: "userEmail", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
