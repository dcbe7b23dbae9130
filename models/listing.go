package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListingStatus is the moderation state of a listing.
type ListingStatus string

const (
	ListingDraft    ListingStatus = "draft"
	ListingPending  ListingStatus = "pending"
	ListingApproved ListingStatus = "approved"
	ListingRejected ListingStatus = "rejected"
)

// Valid reports whether s is a known moderation state.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingDraft, ListingPending, ListingApproved, ListingRejected:
		return true
	}
	return false
}

// Sentiment is the AI-assigned overall tone of a listing.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Listing represents a submitted coffee spot
// Collection: listings
type Listing struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
	Name            string             `bson:"name" json:"name"`
	Address         string             `bson:"address" json:"address"`
	City            string             `bson:"city" json:"city"`
	Description     string             `bson:"description" json:"description"`
	Photos          []string           `bson:"photos" json:"photos"`
	Tags            []string           `bson:"tags" json:"tags"`
	Status          ListingStatus      `bson:"status" json:"status"`
	SubmittedBy     string             `bson:"submitted_by" json:"submitted_by"`
	ReviewedBy      string             `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	RejectionReason string             `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
	AIMeta          *AIMeta            `bson:"ai_meta,omitempty" json:"ai_meta,omitempty"`
}

// AIMeta is machine-generated metadata, kept apart from user-authored fields.
// Stored under listings.ai_meta and always written as a whole.
type AIMeta struct {
	Tags        []string  `bson:"tags" json:"tags"`
	Summary     string    `bson:"summary" json:"summary"`
	Sentiment   Sentiment `bson:"sentiment" json:"sentiment"`
	Version     string    `bson:"version" json:"version"`
	GeneratedAt time.Time `bson:"generated_at" json:"generated_at"`
}
