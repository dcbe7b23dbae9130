package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NewJSONEvent 는 payload 를 JSON 으로 인코딩하여 Event 를 구성한다.
// id 가 빈 문자열이면 UUID 를 생성한다.
func NewJSONEvent(id string, payload any) (Event, error) {
	if id == "" {
		id = uuid.NewString()
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return Event{ID: id, Payload: b}, nil
}

// DecodeJSON 은 Event.Payload 를 제네릭 타입으로 언마샬한다.
func DecodeJSON[T any](evt Event) (T, error) {
	var out T
	if err := json.Unmarshal(evt.Payload, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return out, nil
}

// PeekType reads the top-level "type" field of the payload.
func PeekType(evt Event) (string, error) {
	var peek struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(evt.Payload, &peek); err != nil {
		return "", err
	}
	return peek.Type, nil
}

// PublishJSON wraps payload in an Event and publishes it on topic.
func PublishJSON(ctx context.Context, p Publisher, topic Topic, payload any) error {
	evt, err := NewJSONEvent("", payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, topic.Base(), evt)
}

// handleWithRetry runs handler, waiting RetryDelays between failed attempts.
// It returns ErrMaxRetryExceeded wrapped with the last error once every delay is used.
func handleWithRetry(ctx context.Context, evt *Event, handler EventHandler, sleep func(context.Context, int) error) error {
	for {
		err := handler(ctx, *evt)
		if err == nil {
			return nil
		}
		evt.LastError = err.Error()
		if evt.Retry >= len(RetryDelays) {
			return fmt.Errorf("%w: %v", ErrMaxRetryExceeded, err)
		}
		if serr := sleep(ctx, evt.Retry); serr != nil {
			return serr
		}
		evt.Retry++
	}
}
