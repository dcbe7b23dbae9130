package db

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"brewspot/config"
)

const (
	ListingsCollection  = "listings"
	AuditLogsCollection = "ai_audit_logs"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
)

// Init initializes the global Mongo client and database using config values.
func Init(ctx context.Context) error {
	var initErr error
	clientOnce.Do(func() {
		cfg := config.GetConfig()

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		cl, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			initErr = err
			return
		}
		// Ping to verify connection
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			initErr = err
			return
		}
		client = cl
		db = client.Database(cfg.Mongo.DBName)

		if err := ensureIndexes(ctx, db); err != nil {
			initErr = err
			return
		}
		config.Logger.Info("MongoDB connected and indexes ensured")
	})
	return initErr
}

func Client() *mongo.Client     { return client }
func Database() *mongo.Database { return db }

// Disconnect closes the global client if it was initialized.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	// listings: explore queries filter on status and sort by created_at
	listings := d.Collection(ListingsCollection)
	{
		if _, err := listings.Indexes().CreateMany(ctx, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_status_created_at"),
			},
			{
				Keys:    bson.D{{Key: "tags", Value: 1}},
				Options: options.Index().SetName("idx_tags"),
			},
			{
				Keys:    bson.D{{Key: "ai_meta.tags", Value: 1}},
				Options: options.Index().SetName("idx_ai_meta_tags"),
			},
			{
				Keys:    bson.D{{Key: "ai_meta.version", Value: 1}},
				Options: options.Index().SetName("idx_ai_meta_version"),
			},
		}); err != nil {
			return err
		}
	}

	// ai_audit_logs: lookups by entity and recent-first browsing
	{
		if _, err := d.Collection(AuditLogsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_entity_created_at"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_status_created_at"),
			},
		}); err != nil {
			return err
		}
	}
	return nil
}
