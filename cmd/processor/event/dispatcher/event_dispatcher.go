package dispatcher

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"brewspot/eventbus"
	"brewspot/events"
	"brewspot/models"
)

// EventDispatcher Processor용 이벤트 발행 서비스
type EventDispatcher struct {
	bus   eventbus.Publisher
	topic eventbus.Topic
}

// NewEventDispatcher 새로운 이벤트 디스패처 생성
func NewEventDispatcher(bus eventbus.Publisher, topic eventbus.Topic) *EventDispatcher {
	return &EventDispatcher{bus: bus, topic: topic}
}

// RequestRefresh 재생성 요청 이벤트 발행 (backfill 용)
func (d *EventDispatcher) RequestRefresh(ctx context.Context, id primitive.ObjectID, by models.TriggeredBy) error {
	e := events.NewListingAIMetaRefreshRequested("processor", id, by)
	if err := eventbus.PublishJSON(ctx, d.bus, d.topic, e); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

// AIMetaGenerated ai_meta 저장 완료 이벤트 발행
func (d *EventDispatcher) AIMetaGenerated(ctx context.Context, listing *models.Listing, meta models.AIMeta, modelName string) error {
	e := events.NewListingAIMetaGenerated("processor", listing.ID, meta, modelName)
	if err := eventbus.PublishJSON(ctx, d.bus, d.topic, e); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}
