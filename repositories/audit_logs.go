package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brewspot/models"
)

// AuditLogRepository is append-only: entries are inserted and read, never
// updated or deleted.
type AuditLogRepository struct {
	col *mongo.Collection
}

func NewAuditLogRepository(db *mongo.Database) *AuditLogRepository {
	return &AuditLogRepository{col: db.Collection("ai_audit_logs")}
}

// Insert appends one audit entry and returns its ID.
func (r *AuditLogRepository) Insert(ctx context.Context, entry models.AuditLog) (primitive.ObjectID, error) {
	entry.ID = primitive.NilObjectID
	res, err := r.col.InsertOne(ctx, entry)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

type ListAuditLogsOptions struct {
	Page     int
	PageSize int
	EntityID string
	Status   models.AuditStatus
}

// List returns audit entries newest first.
func (r *AuditLogRepository) List(ctx context.Context, opt ListAuditLogsOptions) ([]models.AuditLog, int64, error) {
	filter := bson.M{}
	if opt.EntityID != "" {
		filter["entity_id"] = opt.EntityID
	}
	if opt.Status != "" {
		filter["status"] = opt.Status
	}

	if opt.Page <= 0 {
		opt.Page = 1
	}
	if opt.PageSize <= 0 || opt.PageSize > 100 {
		opt.PageSize = 50
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOpts := options.Find().
		SetSkip(int64((opt.Page - 1) * opt.PageSize)).
		SetLimit(int64(opt.PageSize)).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	results := []models.AuditLog{}
	if err := cur.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
