package services

import (
	"context"
	"fmt"
	"strings"

	"brewspot/cmd/api/dto"
	"brewspot/config"
	"brewspot/eventbus"
	"brewspot/events"
	"brewspot/models"
	"brewspot/repositories"
)

type AuditLogStore interface {
	List(ctx context.Context, opt repositories.ListAuditLogsOptions) ([]models.AuditLog, int64, error)
}

// AdminService encapsulates moderation and audit browsing.
type AdminService struct {
	listings  *ListingService
	auditLogs AuditLogStore
}

func NewAdminService(listings *ListingService, auditLogs AuditLogStore) *AdminService {
	return &AdminService{listings: listings, auditLogs: auditLogs}
}

// -------------------- Listings --------------------

type AdminListListingsInput struct {
	Page     int
	PageSize int
	Status   string
}

func (s *AdminService) ListListings(ctx context.Context, in AdminListListingsInput) (dto.Pagination[dto.AdminListingDTO], error) {
	status := models.ListingStatus(strings.TrimSpace(in.Status))
	if status != "" && !status.Valid() {
		return dto.Pagination[dto.AdminListingDTO]{}, fmt.Errorf("%w: unknown status %q", ErrInvalidListing, in.Status)
	}
	items, total, err := s.listings.store.List(ctx, repositories.ListListingsOptions{
		Page:     in.Page,
		PageSize: in.PageSize,
		Status:   status,
	})
	if err != nil {
		return dto.Pagination[dto.AdminListingDTO]{}, err
	}
	page, pageSize := normalizePage(in.Page, in.PageSize, 20)

	out := make([]dto.AdminListingDTO, 0, len(items))
	for i := range items {
		out = append(out, dto.NewAdminListingDTO(&items[i]))
	}
	return dto.Pagination[dto.AdminListingDTO]{Data: out, Page: page, PageSize: pageSize, Total: total}, nil
}

// Approve publishes the listing and emits listing.approved so the processor
// generates its first ai_meta. Approving twice re-emits the event.
func (s *AdminService) Approve(ctx context.Context, id, reviewer string) error {
	l, err := s.listings.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.listings.store.UpdateStatus(ctx, l.ID, models.ListingApproved, reviewer, ""); err != nil {
		return err
	}
	e := events.NewListingApproved("api", l.ID, reviewer)
	if err := eventbus.PublishJSON(ctx, s.listings.publisher, s.listings.topic, e); err != nil {
		config.Logger.Errorf("failed to publish listing.approved for %s: %v", l.ID.Hex(), err)
		return fmt.Errorf("listing approved but event not published: %w", err)
	}
	config.InfoWithFields("listing approved", config.Fields{"listing_id": l.ID.Hex(), "reviewed_by": reviewer})
	return nil
}

func (s *AdminService) Reject(ctx context.Context, id, reviewer, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: rejection reason is required", ErrInvalidListing)
	}
	l, err := s.listings.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.listings.store.UpdateStatus(ctx, l.ID, models.ListingRejected, reviewer, reason); err != nil {
		return err
	}
	config.InfoWithFields("listing rejected", config.Fields{"listing_id": l.ID.Hex(), "reviewed_by": reviewer})
	return nil
}

func (s *AdminService) RequestRefresh(ctx context.Context, id string) error {
	l, err := s.listings.find(ctx, id)
	if err != nil {
		return err
	}
	return s.listings.publishRefresh(ctx, l, models.TriggeredByAdmin)
}

// -------------------- Audit logs --------------------

type AdminListAuditLogsInput struct {
	Page     int
	PageSize int
	EntityID string
	Status   string
}

func (s *AdminService) ListAuditLogs(ctx context.Context, in AdminListAuditLogsInput) (dto.Pagination[dto.AuditLogDTO], error) {
	status := models.AuditStatus(strings.TrimSpace(in.Status))
	if status != "" && !status.Valid() {
		return dto.Pagination[dto.AuditLogDTO]{}, fmt.Errorf("%w: unknown audit status %q", ErrInvalidListing, in.Status)
	}
	items, total, err := s.auditLogs.List(ctx, repositories.ListAuditLogsOptions{
		Page:     in.Page,
		PageSize: in.PageSize,
		EntityID: strings.TrimSpace(in.EntityID),
		Status:   status,
	})
	if err != nil {
		return dto.Pagination[dto.AuditLogDTO]{}, err
	}
	page, pageSize := normalizePage(in.Page, in.PageSize, 50)

	out := make([]dto.AuditLogDTO, 0, len(items))
	for _, e := range items {
		out = append(out, dto.NewAuditLogDTO(e))
	}
	return dto.Pagination[dto.AuditLogDTO]{Data: out, Page: page, PageSize: pageSize, Total: total}, nil
}
