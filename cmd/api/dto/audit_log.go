package dto

import (
	"time"

	"brewspot/models"
)

type AuditLogDTO struct {
	ID            string         `json:"id"`
	Action        string         `json:"action"`
	EntityID      string         `json:"entity_id"`
	EntityType    string         `json:"entity_type"`
	PromptVersion string         `json:"prompt_version"`
	Status        string         `json:"status"`
	TriggeredBy   string         `json:"triggered_by"`
	DurationMs    *int64         `json:"duration_ms,omitempty"`
	TokensUsed    *int64         `json:"tokens_used,omitempty"`
	FailureReason *string        `json:"failure_reason,omitempty"`
	Meta          map[string]any `json:"meta,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func NewAuditLogDTO(e models.AuditLog) AuditLogDTO {
	d := AuditLogDTO{
		ID:            e.ID.Hex(),
		Action:        string(e.Action),
		EntityID:      e.EntityID,
		EntityType:    string(e.EntityType),
		PromptVersion: e.PromptVersion,
		Status:        string(e.Status),
		TriggeredBy:   string(e.TriggeredBy),
		DurationMs:    e.DurationMs,
		TokensUsed:    e.TokensUsed,
		Meta:          e.Meta,
		CreatedAt:     e.CreatedAt,
	}
	if e.FailureReason != nil {
		r := string(*e.FailureReason)
		d.FailureReason = &r
	}
	return d
}
