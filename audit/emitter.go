// Package audit appends AI invocation records to an append-only sink without
// ever failing the workflow that produced them.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"brewspot/config"
	"brewspot/metrics"
	"brewspot/models"
)

// Sink is an append-only store of audit entries.
type Sink interface {
	Append(ctx context.Context, entry models.AuditLog) error
}

// Failure describes an audit write that did not reach the sink.
type Failure struct {
	Entry models.AuditLog
	Err   error
}

// DiagnosticFunc receives audit write failures.
type DiagnosticFunc func(Failure)

// Emitter writes audit entries on detached goroutines.
// Delivery is at most once: failed writes are reported, never retried.
type Emitter struct {
	sink         Sink
	writeTimeout time.Duration
	now          func() time.Time
	diagnostic   DiagnosticFunc
	wg           sync.WaitGroup
}

type Option func(*Emitter)

// WithDiagnostics routes write failures to fn in addition to the logger.
func WithDiagnostics(fn DiagnosticFunc) Option {
	return func(e *Emitter) { e.diagnostic = fn }
}

// WithClock overrides the time source used to stamp CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Emitter) { e.now = now }
}

// WithWriteTimeout bounds each sink write.
func WithWriteTimeout(d time.Duration) Option {
	return func(e *Emitter) {
		if d > 0 {
			e.writeTimeout = d
		}
	}
}

func NewEmitter(sink Sink, opts ...Option) *Emitter {
	e := &Emitter{
		sink:         sink,
		writeTimeout: 5 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LogAICall stamps entry.CreatedAt and appends it in the background.
// It returns immediately; sink errors and panics are reported to the
// diagnostic channel and never reach the caller.
func (e *Emitter) LogAICall(entry models.AuditLog) {
	entry.CreatedAt = e.now().UTC()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.report(entry, fmt.Errorf("audit sink panic: %v", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), e.writeTimeout)
		defer cancel()

		if err := e.sink.Append(ctx, entry); err != nil {
			e.report(entry, err)
		}
	}()
}

// Wait blocks until every in-flight write has finished. Used on shutdown.
func (e *Emitter) Wait() {
	e.wg.Wait()
}

func (e *Emitter) report(entry models.AuditLog, err error) {
	metrics.AuditWriteFailures.WithLabelValues(string(entry.Action)).Inc()
	config.ErrorWithFields("failed to write ai audit log", config.Fields{
		"action":      entry.Action,
		"entity_id":   entry.EntityID,
		"entity_type": entry.EntityType,
		"status":      entry.Status,
		"error":       err.Error(),
	})
	if e.diagnostic != nil {
		e.diagnostic(Failure{Entry: entry, Err: err})
	}
}
