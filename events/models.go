package events

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"brewspot/models"
)

// EventType 이벤트 타입을 정의하는 열거형
type EventType string

const (
	// 관리자가 리스팅을 승인했을 때
	ListingApproved EventType = "listing.approved"
	// 사용자/관리자가 AI 메타데이터 재생성을 요청했을 때
	ListingAIMetaRefreshRequested EventType = "listing.ai_meta_refresh_requested"
	// 파이프라인이 ai_meta 를 저장했을 때
	ListingAIMetaGenerated EventType = "listing.ai_meta_generated"
)

const eventVersion = "1.0"

// BaseEvent 모든 이벤트의 기본 구조
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "api", "processor"
	Version   string    `json:"version"`
}

func newBase(t EventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   eventVersion,
	}
}

// ListingApprovedEvent 리스팅 승인 이벤트
type ListingApprovedEvent struct {
	BaseEvent
	ListingID  primitive.ObjectID `json:"listing_id"`
	ReviewedBy string             `json:"reviewed_by,omitempty"`
}

func NewListingApproved(source string, id primitive.ObjectID, reviewedBy string) ListingApprovedEvent {
	return ListingApprovedEvent{
		BaseEvent:  newBase(ListingApproved, source),
		ListingID:  id,
		ReviewedBy: reviewedBy,
	}
}

// ListingAIMetaRefreshRequestedEvent 는 명시적인 재생성 요청이다.
type ListingAIMetaRefreshRequestedEvent struct {
	BaseEvent
	ListingID   primitive.ObjectID `json:"listing_id"`
	TriggeredBy models.TriggeredBy `json:"triggered_by"`
}

func NewListingAIMetaRefreshRequested(source string, id primitive.ObjectID, by models.TriggeredBy) ListingAIMetaRefreshRequestedEvent {
	return ListingAIMetaRefreshRequestedEvent{
		BaseEvent:   newBase(ListingAIMetaRefreshRequested, source),
		ListingID:   id,
		TriggeredBy: by,
	}
}

// ListingAIMetaGeneratedEvent AI 메타데이터 저장 완료 이벤트
type ListingAIMetaGeneratedEvent struct {
	BaseEvent
	ListingID primitive.ObjectID `json:"listing_id"`
	Version   string             `json:"ai_meta_version"`
	Tags      []string           `json:"tags"`
	Sentiment models.Sentiment   `json:"sentiment"`
	ModelName string             `json:"model_name"`
}

func NewListingAIMetaGenerated(source string, id primitive.ObjectID, meta models.AIMeta, modelName string) ListingAIMetaGeneratedEvent {
	return ListingAIMetaGeneratedEvent{
		BaseEvent: newBase(ListingAIMetaGenerated, source),
		ListingID: id,
		Version:   meta.Version,
		Tags:      meta.Tags,
		Sentiment: meta.Sentiment,
		ModelName: modelName,
	}
}
