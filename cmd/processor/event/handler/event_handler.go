package handler

import (
	"context"
	"errors"

	"brewspot/config"
	"brewspot/eventbus"
	"brewspot/events"
	"brewspot/models"
	"brewspot/pipeline"
	"brewspot/repositories"
)

// Refresher is satisfied by *pipeline.Refresher.
type Refresher interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Outcome, error)
}

type EventHandlers struct {
	refresher Refresher
}

func NewEventHandlers(refresher Refresher) *EventHandlers {
	return &EventHandlers{refresher: refresher}
}

// Handle 은 토픽의 이벤트를 타입별로 분기한다.
// 알 수 없는 타입이나 processor 가 발행한 이벤트는 무시한다 (커밋).
func (h *EventHandlers) Handle(ctx context.Context, ev eventbus.Event) error {
	typ, err := eventbus.PeekType(ev)
	if err != nil {
		return err
	}
	switch events.EventType(typ) {
	case events.ListingApproved:
		v, err := eventbus.DecodeJSON[events.ListingApprovedEvent](ev)
		if err != nil {
			return err
		}
		return h.HandleListingApproved(ctx, &v)
	case events.ListingAIMetaRefreshRequested:
		v, err := eventbus.DecodeJSON[events.ListingAIMetaRefreshRequestedEvent](ev)
		if err != nil {
			return err
		}
		return h.HandleRefreshRequested(ctx, &v)
	default:
		return nil
	}
}

// HandleListingApproved 승인 직후 최초 생성을 시도한다.
func (h *EventHandlers) HandleListingApproved(ctx context.Context, event *events.ListingApprovedEvent) error {
	config.Logger.Infof("handling ListingApproved event for listing: %s", event.ListingID.Hex())
	return h.run(ctx, pipeline.Request{ListingID: event.ListingID, TriggeredBy: models.TriggeredBySystem})
}

func (h *EventHandlers) HandleRefreshRequested(ctx context.Context, event *events.ListingAIMetaRefreshRequestedEvent) error {
	config.Logger.Infof("handling AIMetaRefreshRequested event for listing: %s (by %s)", event.ListingID.Hex(), event.TriggeredBy)
	by := event.TriggeredBy
	if by == "" {
		by = models.TriggeredBySystem
	}
	return h.run(ctx, pipeline.Request{ListingID: event.ListingID, TriggeredBy: by})
}

func (h *EventHandlers) run(ctx context.Context, req pipeline.Request) error {
	out, err := h.refresher.Run(ctx, req)
	if err != nil {
		// 삭제된 리스팅은 재시도해도 소용없다.
		if errors.Is(err, repositories.ErrListingNotFound) {
			config.Logger.Warnf("listing %s not found, dropping event", req.ListingID.Hex())
			return nil
		}
		config.Logger.Errorf("ai_meta refresh failed for %s: %v", req.ListingID.Hex(), err)
		return err
	}
	config.Logger.Debugf("ai_meta refresh for %s: %s %s", req.ListingID.Hex(), out.Status, out.FailureReason)
	return nil
}
