package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	ActionTagGeneration     AuditAction = "TAG_GENERATION"
	ActionReviewSummary     AuditAction = "REVIEW_SUMMARY"
	ActionSentimentAnalysis AuditAction = "SENTIMENT_ANALYSIS"
	ActionGenerateTags      AuditAction = "generate_tags"
	ActionAnalyzeReviews    AuditAction = "analyze_reviews"
)

type AuditEntityType string

const (
	EntityBrewSpot AuditEntityType = "brewspot"
	EntityReview   AuditEntityType = "review"
)

type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditFailed  AuditStatus = "failed"
	AuditSkipped AuditStatus = "skipped"
)

// Valid reports whether s is a known attempt outcome.
func (s AuditStatus) Valid() bool {
	switch s {
	case AuditSuccess, AuditFailed, AuditSkipped:
		return true
	}
	return false
}

type TriggeredBy string

const (
	TriggeredBySystem     TriggeredBy = "system"
	TriggeredByAdmin      TriggeredBy = "admin"
	TriggeredByUserAction TriggeredBy = "user_action"
)

type FailureReason string

const (
	FailureTimeout       FailureReason = "timeout"
	FailureValidation    FailureReason = "validation"
	FailureRateLimit     FailureReason = "rate_limit"
	FailureDisabled      FailureReason = "disabled"
	FailureProviderError FailureReason = "provider_error"
	FailureLockActive    FailureReason = "lock_active"
	FailureUnknown       FailureReason = "unknown"
)

// AuditLog records a single AI invocation attempt. Append-only.
// Collection: ai_audit_logs
type AuditLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action        AuditAction        `bson:"action" json:"action"`
	EntityID      string             `bson:"entity_id" json:"entity_id"`
	EntityType    AuditEntityType    `bson:"entity_type" json:"entity_type"`
	PromptVersion string             `bson:"prompt_version" json:"prompt_version"`
	Status        AuditStatus        `bson:"status" json:"status"`
	TriggeredBy   TriggeredBy        `bson:"triggered_by" json:"triggered_by"`
	DurationMs    *int64             `bson:"duration_ms,omitempty" json:"duration_ms,omitempty"`
	TokensUsed    *int64             `bson:"tokens_used,omitempty" json:"tokens_used,omitempty"`
	FailureReason *FailureReason     `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	Meta          map[string]any     `bson:"meta,omitempty" json:"meta,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
