package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"brewspot/models"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []models.AuditLog
	err     error
	panicV  any
	block   chan struct{}
}

func (s *recordingSink) Append(ctx context.Context, entry models.AuditLog) error {
	if s.block != nil {
		<-s.block
	}
	if s.panicV != nil {
		panic(s.panicV)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *recordingSink) Entries() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.entries...)
}

func sampleEntry() models.AuditLog {
	return models.AuditLog{
		Action:        models.ActionGenerateTags,
		EntityID:      "652f1c2e9b1e8a0012345678",
		EntityType:    models.EntityBrewSpot,
		PromptVersion: "1.0",
		Status:        models.AuditSuccess,
		TriggeredBy:   models.TriggeredBySystem,
	}
}

func TestLogAICallStampsAndAppends(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fixed := time.Date(2026, 10, 15, 9, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	sink := &recordingSink{}
	emitter := NewEmitter(sink, WithClock(func() time.Time { return fixed }))

	emitter.LogAICall(sampleEntry())
	emitter.Wait()

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, fixed.UTC(), entries[0].CreatedAt)
	assert.Equal(t, models.ActionGenerateTags, entries[0].Action)
}

func TestLogAICallSinkFailureGoesToDiagnostics(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sinkErr := errors.New("mongo unavailable")
	sink := &recordingSink{err: sinkErr}

	var mu sync.Mutex
	var failures []Failure
	emitter := NewEmitter(sink, WithDiagnostics(func(f Failure) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, f)
	}))

	assert.NotPanics(t, func() { emitter.LogAICall(sampleEntry()) })
	emitter.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, sinkErr)
	assert.Equal(t, "652f1c2e9b1e8a0012345678", failures[0].Entry.EntityID)
	assert.False(t, failures[0].Entry.CreatedAt.IsZero())
}

func TestLogAICallRecoversSinkPanic(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sink := &recordingSink{panicV: "boom"}
	got := make(chan Failure, 1)
	emitter := NewEmitter(sink, WithDiagnostics(func(f Failure) { got <- f }))

	emitter.LogAICall(sampleEntry())
	emitter.Wait()

	select {
	case f := <-got:
		assert.Contains(t, f.Err.Error(), "boom")
	default:
		t.Fatalf("expected panic to be reported as a failure")
	}
}

func TestLogAICallDoesNotBlockCaller(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sink := &recordingSink{block: make(chan struct{})}
	emitter := NewEmitter(sink)

	done := make(chan struct{})
	go func() {
		emitter.LogAICall(sampleEntry())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("LogAICall blocked on a slow sink")
	}

	close(sink.block)
	emitter.Wait()
	assert.Len(t, sink.Entries(), 1)
}
