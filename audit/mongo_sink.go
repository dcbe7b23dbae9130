package audit

import (
	"context"

	"brewspot/models"
	"brewspot/repositories"
)

// MongoSink appends audit entries to the ai_audit_logs collection.
type MongoSink struct {
	repo *repositories.AuditLogRepository
}

func NewMongoSink(repo *repositories.AuditLogRepository) *MongoSink {
	return &MongoSink{repo: repo}
}

func (s *MongoSink) Append(ctx context.Context, entry models.AuditLog) error {
	_, err := s.repo.Insert(ctx, entry)
	return err
}
