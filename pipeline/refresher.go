// Package pipeline runs one AI metadata refresh for a listing: guards, lock,
// quota, provider call, validation, ownership-aware persistence and audit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"brewspot/aimeta"
	"brewspot/config"
	"brewspot/generator"
	"brewspot/lock"
	"brewspot/metrics"
	"brewspot/models"
	"brewspot/repositories"
)

type ListingStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error)
	ApplyAIMeta(ctx context.Context, id primitive.ObjectID, u repositories.AIMetaUpdate) error
}

type Provider interface {
	Generate(ctx context.Context, listing *models.Listing) (*generator.Result, error)
	ModelName() string
}

type Locker interface {
	Acquire(ctx context.Context, listingID string) (token string, ok bool, err error)
	Release(ctx context.Context, listingID, token string) error
}

type Quota interface {
	WaitAndReserve(ctx context.Context) (bool, error)
}

type AuditLogger interface {
	LogAICall(entry models.AuditLog)
}

// Notifier is told about every persisted ai_meta.
type Notifier interface {
	AIMetaGenerated(ctx context.Context, listing *models.Listing, meta models.AIMeta, modelName string) error
}

type Options struct {
	Enabled                      bool
	DataVersion                  string
	MergeTags                    bool
	SummaryOverwritesDescription bool
	ProviderTimeout              time.Duration
}

func OptionsFromConfig(cfg config.AppConfig) Options {
	return Options{
		Enabled:                      cfg.AIMeta.Enabled,
		DataVersion:                  cfg.AIMeta.DataVersion,
		MergeTags:                    cfg.AIMeta.MergeTags,
		SummaryOverwritesDescription: cfg.AIMeta.SummaryOverwritesDescription,
		ProviderTimeout:              time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}
}

type Request struct {
	ListingID   primitive.ObjectID
	TriggeredBy models.TriggeredBy
}

// Outcome mirrors the audit entry written for the attempt.
type Outcome struct {
	Status        models.AuditStatus
	FailureReason models.FailureReason
	AIMeta        *models.AIMeta
	Meta          map[string]any
}

const (
	skipIneligible = "ineligible"
	skipUpToDate   = "up_to_date"
)

type Refresher struct {
	store    ListingStore
	provider Provider
	audit    AuditLogger
	locker   Locker
	quota    Quota
	notifier Notifier
	opts     Options
	now      func() time.Time
}

type Option func(*Refresher)

func WithLocker(l Locker) Option     { return func(r *Refresher) { r.locker = l } }
func WithQuota(q Quota) Option       { return func(r *Refresher) { r.quota = q } }
func WithNotifier(n Notifier) Option { return func(r *Refresher) { r.notifier = n } }
func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

func NewRefresher(store ListingStore, provider Provider, audit AuditLogger, opts Options, extra ...Option) *Refresher {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 30 * time.Second
	}
	r := &Refresher{
		store:    store,
		provider: provider,
		audit:    audit,
		opts:     opts,
		now:      time.Now,
	}
	for _, o := range extra {
		o(r)
	}
	return r
}

// attempt accumulates the audit fields of one Run.
type attempt struct {
	req        Request
	outcome    Outcome
	durationMs *int64
	tokens     *int64
}

func (a *attempt) set(status models.AuditStatus, reason models.FailureReason) {
	a.outcome.Status = status
	a.outcome.FailureReason = reason
}

func (a *attempt) meta(k string, v any) {
	if a.outcome.Meta == nil {
		a.outcome.Meta = map[string]any{}
	}
	a.outcome.Meta[k] = v
}

// Run performs a single refresh attempt and emits exactly one audit entry.
// An error is returned only when the listing could not be loaded or saved.
func (r *Refresher) Run(ctx context.Context, req Request) (Outcome, error) {
	if req.TriggeredBy == "" {
		req.TriggeredBy = models.TriggeredBySystem
	}
	a := &attempt{req: req}
	defer r.finish(a)

	listing, err := r.store.FindByID(ctx, req.ListingID)
	if err != nil {
		a.set(models.AuditFailed, models.FailureUnknown)
		a.meta("error", err.Error())
		return a.outcome, fmt.Errorf("load listing %s: %w", req.ListingID.Hex(), err)
	}

	if !r.opts.Enabled {
		a.set(models.AuditSkipped, models.FailureDisabled)
		return a.outcome, nil
	}
	if !aimeta.CanGenerateAIMeta(listing) {
		a.set(models.AuditSkipped, "")
		a.meta("skip_reason", skipIneligible)
		return a.outcome, nil
	}
	if !aimeta.ShouldRefreshAIMeta(listing, r.opts.DataVersion) {
		a.set(models.AuditSkipped, "")
		a.meta("skip_reason", skipUpToDate)
		return a.outcome, nil
	}

	if r.locker != nil {
		id := listing.ID.Hex()
		token, ok, err := r.locker.Acquire(ctx, id)
		if err != nil {
			a.set(models.AuditFailed, models.FailureUnknown)
			a.meta("error", err.Error())
			return a.outcome, nil
		}
		if !ok {
			a.set(models.AuditSkipped, models.FailureLockActive)
			return a.outcome, nil
		}
		defer r.release(id, token)
	}

	if r.quota != nil {
		ok, err := r.quota.WaitAndReserve(ctx)
		if err != nil {
			a.set(models.AuditFailed, models.FailureTimeout)
			a.meta("error", err.Error())
			return a.outcome, nil
		}
		if !ok {
			a.set(models.AuditSkipped, models.FailureRateLimit)
			return a.outcome, nil
		}
	}

	a.meta("model", r.provider.ModelName())
	result, err := r.generate(ctx, a, listing)
	if err != nil {
		if isTimeout(ctx, err) {
			a.set(models.AuditFailed, models.FailureTimeout)
		} else {
			a.set(models.AuditFailed, models.FailureProviderError)
		}
		a.meta("error", err.Error())
		return a.outcome, nil
	}
	if result.ModelVersion != "" {
		a.meta("model_version", result.ModelVersion)
	}

	meta, invalid := r.validate(result.Raw)
	if len(invalid) > 0 {
		a.set(models.AuditFailed, models.FailureValidation)
		a.meta("invalid_fields", invalid)
		return a.outcome, nil
	}

	update := repositories.AIMetaUpdate{Meta: meta}
	if r.opts.MergeTags {
		update.Tags = aimeta.MergeAITags(listing.Tags, meta.Tags)
	}
	if r.opts.SummaryOverwritesDescription && aimeta.CanOverwriteSummary(listing) {
		summary := meta.Summary
		update.Description = &summary
	}

	if err := r.store.ApplyAIMeta(ctx, listing.ID, update); err != nil {
		a.set(models.AuditFailed, models.FailureUnknown)
		a.meta("error", err.Error())
		return a.outcome, fmt.Errorf("save ai_meta %s: %w", listing.ID.Hex(), err)
	}

	a.set(models.AuditSuccess, "")
	a.outcome.AIMeta = &meta

	if r.notifier != nil {
		if err := r.notifier.AIMetaGenerated(ctx, listing, meta, result.ModelName); err != nil {
			config.Logger.Warnf("ai_meta generated notification failed for %s: %v", listing.ID.Hex(), err)
		}
	}
	return a.outcome, nil
}

func (r *Refresher) generate(ctx context.Context, a *attempt, listing *models.Listing) (*generator.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.ProviderTimeout)
	defer cancel()

	start := r.now()
	result, err := r.provider.Generate(callCtx, listing)
	elapsed := r.now().Sub(start)

	ms := elapsed.Milliseconds()
	a.durationMs = &ms
	metrics.GenerationDuration.WithLabelValues(string(models.ActionGenerateTags)).Observe(elapsed.Seconds())

	if err != nil {
		if callCtx.Err() != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return nil, err
	}
	if result == nil {
		return nil, generator.ErrEmptyResponse
	}

	tokens := result.TokenUsage.TotalTokens
	a.tokens = &tokens
	metrics.TokensUsed.WithLabelValues(result.ModelName).Add(float64(tokens))
	return result, nil
}

// validate runs every validator; the returned meta is only usable when invalid is empty.
func (r *Refresher) validate(raw generator.RawMetadata) (models.AIMeta, []string) {
	var invalid []string
	tags, ok := aimeta.ValidateAITags(raw.Tags)
	if !ok {
		invalid = append(invalid, "tags")
	}
	summary, ok := aimeta.ValidateAISummary(raw.Summary)
	if !ok {
		invalid = append(invalid, "summary")
	}
	sentiment, ok := aimeta.ValidateAISentiment(raw.Sentiment)
	if !ok {
		invalid = append(invalid, "sentiment")
	}
	return models.AIMeta{
		Tags:        tags,
		Summary:     summary,
		Sentiment:   sentiment,
		Version:     r.opts.DataVersion,
		GeneratedAt: r.now().UTC(),
	}, invalid
}

func (r *Refresher) release(listingID, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.locker.Release(ctx, listingID, token); err != nil {
		if errors.Is(err, lock.ErrNotHeld) {
			config.Logger.Warnf("generation lock for %s expired before release", listingID)
			return
		}
		config.Logger.Errorf("failed to release generation lock for %s: %v", listingID, err)
	}
}

func (r *Refresher) finish(a *attempt) {
	entry := models.AuditLog{
		Action:        models.ActionGenerateTags,
		EntityID:      a.req.ListingID.Hex(),
		EntityType:    models.EntityBrewSpot,
		PromptVersion: r.opts.DataVersion,
		Status:        a.outcome.Status,
		TriggeredBy:   a.req.TriggeredBy,
		DurationMs:    a.durationMs,
		TokensUsed:    a.tokens,
		Meta:          maps.Clone(a.outcome.Meta),
	}
	if a.outcome.FailureReason != "" {
		reason := a.outcome.FailureReason
		entry.FailureReason = &reason
	}
	r.audit.LogAICall(entry)

	metrics.GenerationAttempts.WithLabelValues(
		string(entry.Action),
		string(entry.Status),
		string(a.outcome.FailureReason),
		string(entry.TriggeredBy),
	).Inc()

	config.InfoWithFields("ai_meta refresh finished", config.Fields{
		"listing_id":     entry.EntityID,
		"status":         entry.Status,
		"failure_reason": a.outcome.FailureReason,
		"triggered_by":   entry.TriggeredBy,
	})
}

func isTimeout(parent context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return parent.Err() != nil
}
