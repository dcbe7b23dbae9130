package repositories

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brewspot/models"
)

var ErrListingNotFound = errors.New("listing not found")

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("listings")}
}

// Insert inserts a new listing document and sets its ID.
func (r *ListingRepository) Insert(ctx context.Context, l *models.Listing) error {
	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, l)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		l.ID = id
	}
	return nil
}

// FindByID returns a listing by its ObjectID
func (r *ListingRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error) {
	var l models.Listing
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// UpdateStatus sets the moderation state. reviewedBy and reason are stored as given.
func (r *ListingRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.ListingStatus, reviewedBy, reason string) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"status":           status,
			"reviewed_by":      reviewedBy,
			"rejection_reason": reason,
			"updated_at":       time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrListingNotFound
	}
	return nil
}

// AIMetaUpdate is the single write produced by a successful AI refresh.
// Tags and Description are left untouched when nil.
type AIMetaUpdate struct {
	Meta        models.AIMeta
	Tags        []string
	Description *string
}

// ApplyAIMeta replaces ai_meta as a whole and optionally the merged user
// fields, in one update.
func (r *ListingRepository) ApplyAIMeta(ctx context.Context, id primitive.ObjectID, u AIMetaUpdate) error {
	set := bson.M{
		"ai_meta":    u.Meta,
		"updated_at": time.Now(),
	}
	if u.Tags != nil {
		set["tags"] = u.Tags
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrListingNotFound
	}
	return nil
}

// FindStale returns IDs of approved listings whose ai_meta is missing or was
// generated under a different data version, oldest first.
func (r *ListingRepository) FindStale(ctx context.Context, dataVersion string, limit int) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"status": models.ListingApproved,
		"$or": []bson.M{
			{"ai_meta": bson.M{"$exists": false}},
			{"ai_meta": nil},
			{"ai_meta.version": bson.M{"$ne": dataVersion}},
		},
	}
	findOpts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

type ListListingsOptions struct {
	Page     int
	PageSize int
	Status   models.ListingStatus
	Tag      string
	City     string
}

// List returns listings with filters and pagination, newest first.
// Tag matches either user tags or AI tags, case-insensitively.
func (r *ListingRepository) List(ctx context.Context, opt ListListingsOptions) ([]models.Listing, int64, error) {
	filter := bson.M{}
	if opt.Status != "" {
		filter["status"] = opt.Status
	}
	if opt.Tag != "" {
		rx := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(opt.Tag) + "$", Options: "i"}
		filter["$or"] = []bson.M{
			{"tags": rx},
			{"ai_meta.tags": rx},
		}
	}
	if opt.City != "" {
		filter["city"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(opt.City) + "$", Options: "i"}
	}

	if opt.Page <= 0 {
		opt.Page = 1
	}
	if opt.PageSize <= 0 || opt.PageSize > 100 {
		opt.PageSize = 20
	}
	skip := int64((opt.Page - 1) * opt.PageSize)
	limit := int64(opt.PageSize)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOpts := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	results := []models.Listing{}
	if err := cur.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
