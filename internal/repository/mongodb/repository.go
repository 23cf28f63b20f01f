// Package mongodb holds the local history store: the fallback of record
// for saved shifts when the sheet backend is unreachable, plus the daily
// summary snapshots produced by the scheduler.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bfall/sawshift/internal/domain/models"
)

// Repository defines local persistence for shift history and summaries.
type Repository interface {
	Upsert(ctx context.Context, entry models.HistoryEntry) error
	MarkDeleted(ctx context.Context, boardID string) error
	Get(ctx context.Context, boardID string) (models.HistoryEntry, error)
	List(ctx context.Context, from, to time.Time) ([]models.HistoryEntry, error)
	SaveDailySummary(ctx context.Context, summary models.DailySummary) error
	Close(ctx context.Context) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client        *mongo.Client
	dbName        string
	historyColl   string
	summariesColl string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:        client,
		dbName:        dbName,
		historyColl:   "shift_history",
		summariesColl: "daily_summaries",
	}, nil
}

// Upsert stores a history entry, replacing any earlier record for the same
// board id so a repeated save yields one logical record.
func (r *MongoDBRepository) Upsert(ctx context.Context, entry models.HistoryEntry) error {
	collection := r.client.Database(r.dbName).Collection(r.historyColl)

	filter := bson.M{"board_id": entry.BoardID}
	opts := options.Replace().SetUpsert(true)

	if _, err := collection.ReplaceOne(ctx, filter, entry, opts); err != nil {
		return fmt.Errorf("failed to upsert history entry %s: %w", entry.BoardID, err)
	}
	return nil
}

// MarkDeleted flips an entry's status to deleted without removing the row.
func (r *MongoDBRepository) MarkDeleted(ctx context.Context, boardID string) error {
	collection := r.client.Database(r.dbName).Collection(r.historyColl)

	update := bson.M{"$set": bson.M{
		"status":        models.EntryDeleted,
		"earnings":      0,
		"yield_percent": 0,
		"item_count":    0,
		"cart":          nil,
	}}

	if _, err := collection.UpdateOne(ctx, bson.M{"board_id": boardID}, update); err != nil {
		return fmt.Errorf("failed to mark entry %s deleted: %w", boardID, err)
	}
	return nil
}

// Get fetches one history entry by board id.
func (r *MongoDBRepository) Get(ctx context.Context, boardID string) (models.HistoryEntry, error) {
	collection := r.client.Database(r.dbName).Collection(r.historyColl)

	var entry models.HistoryEntry
	if err := collection.FindOne(ctx, bson.M{"board_id": boardID}).Decode(&entry); err != nil {
		return models.HistoryEntry{}, fmt.Errorf("failed to load history entry %s: %w", boardID, err)
	}
	return entry, nil
}

// List returns history entries saved within [from, to), newest first.
func (r *MongoDBRepository) List(ctx context.Context, from, to time.Time) ([]models.HistoryEntry, error) {
	collection := r.client.Database(r.dbName).Collection(r.historyColl)

	filter := bson.M{"saved_at": bson.M{"$gte": from, "$lt": to}}
	opts := options.Find().SetSort(bson.M{"saved_at": -1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.HistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history entries: %w", err)
	}
	return entries, nil
}

// SaveDailySummary stores the aggregated day snapshot.
func (r *MongoDBRepository) SaveDailySummary(ctx context.Context, summary models.DailySummary) error {
	collection := r.client.Database(r.dbName).Collection(r.summariesColl)
	if _, err := collection.InsertOne(ctx, summary); err != nil {
		return fmt.Errorf("failed to insert daily summary: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
