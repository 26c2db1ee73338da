package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/caltrack/internal/domain/models"
	"github.com/mamadbah2/caltrack/internal/repository"
)

const (
	kvCollection      = "kv"
	summaryCollection = "daily_summaries"
)

// MongoDBRepository stores key-value snapshots and archives daily summaries.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

type kvDocument struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
	}, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// Get returns the value stored under key or repository.ErrNotFound.
func (r *MongoDBRepository) Get(ctx context.Context, key string) (string, error) {
	var doc kvDocument
	err := r.collection(kvCollection).FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return doc.Value, nil
}

// Set upserts the value under key.
func (r *MongoDBRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.collection(kvCollection).ReplaceOne(ctx,
		bson.M{"_id": key},
		kvDocument{Key: key, Value: value},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// Delete removes key if present.
func (r *MongoDBRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.collection(kvCollection).DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// SaveDailySummary upserts the summary for its calendar day.
func (r *MongoDBRepository) SaveDailySummary(ctx context.Context, summary models.DailySummary) error {
	_, err := r.collection(summaryCollection).ReplaceOne(ctx,
		bson.M{"date": summary.Date},
		summary,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save daily summary: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
