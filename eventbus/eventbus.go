package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// RetryDelays 는 핸들러 실패 시 같은 메시지를 다시 처리하기 전까지의 대기 시간 목록이다.
// 모두 소진하면 이벤트는 DLQ 로 보내진다.
var RetryDelays = []time.Duration{
	1 * time.Second,
	5 * time.Second,
	15 * time.Second,
}

// Topic 은 기본 토픽과 DLQ 토픽 이름을 관리한다.
type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// DLQ returns the dead-letter topic name (e.g. my_topic.dlq).
func (t Topic) DLQ() string {
	return t.base + ".dlq"
}

// Event 는 Kafka 메시지의 페이로드로 사용되는 구조체다.
type Event struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Retry     int             `json:"retry"`
	LastError string          `json:"last_error,omitempty"`
}

// EventHandler 는 이벤트 처리 함수의 시그니처다.
type EventHandler func(ctx context.Context, event Event) error

// Publisher is the publishing half of EventBus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
}

// EventBus 인터페이스는 이벤트 발행 및 구독의 추상화를 정의한다.
type EventBus interface {
	Publisher
	// Subscribe 는 기본 토픽을 구독하여 handler 를 실행한다.
	Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error
	Close()
}

// ErrMaxRetryExceeded 는 재시도 횟수를 모두 소진했을 때 반환된다.
var ErrMaxRetryExceeded = errors.New("max retry exceeded")
