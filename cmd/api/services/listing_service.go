package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"brewspot/cmd/api/dto"
	"brewspot/config"
	"brewspot/eventbus"
	"brewspot/events"
	"brewspot/models"
	"brewspot/repositories"
)

const (
	maxDescriptionLength = 2000
	maxPhotos            = 10
	maxTags              = 20
)

// ErrInvalidListing wraps every input validation failure; handlers map it to 400.
var ErrInvalidListing = errors.New("invalid listing")

type ListingStore interface {
	Insert(ctx context.Context, l *models.Listing) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.ListingStatus, reviewedBy, reason string) error
	List(ctx context.Context, opt repositories.ListListingsOptions) ([]models.Listing, int64, error)
}

// ListingService encapsulates explore/submit logic for public listings.
type ListingService struct {
	store     ListingStore
	publisher eventbus.Publisher
	topic     eventbus.Topic
}

func NewListingService(store ListingStore, publisher eventbus.Publisher, topic eventbus.Topic) *ListingService {
	return &ListingService{store: store, publisher: publisher, topic: topic}
}

type ListListingsInput struct {
	Page     int
	PageSize int
	Tag      string
	City     string
}

// ListApproved returns approved listings only, newest first.
func (s *ListingService) ListApproved(ctx context.Context, in ListListingsInput) (dto.Pagination[dto.ListingDTO], error) {
	opt := repositories.ListListingsOptions{
		Page:     in.Page,
		PageSize: in.PageSize,
		Status:   models.ListingApproved,
		Tag:      strings.TrimSpace(in.Tag),
		City:     strings.TrimSpace(in.City),
	}
	items, total, err := s.store.List(ctx, opt)
	if err != nil {
		return dto.Pagination[dto.ListingDTO]{}, err
	}
	page, pageSize := normalizePage(in.Page, in.PageSize, 20)

	out := make([]dto.ListingDTO, 0, len(items))
	for i := range items {
		out = append(out, dto.NewListingDTO(&items[i]))
	}
	return dto.Pagination[dto.ListingDTO]{Data: out, Page: page, PageSize: pageSize, Total: total}, nil
}

// GetApproved returns an approved listing with its SEO block. Listings in any
// other state are reported as not found.
func (s *ListingService) GetApproved(ctx context.Context, id string) (dto.ListingDTO, error) {
	l, err := s.find(ctx, id)
	if err != nil {
		return dto.ListingDTO{}, err
	}
	if l.Status != models.ListingApproved {
		return dto.ListingDTO{}, repositories.ErrListingNotFound
	}
	return dto.NewListingDTO(l).WithSEO(l), nil
}

// Submit stores a new listing awaiting moderation.
func (s *ListingService) Submit(ctx context.Context, req dto.SubmitListingRequest) (dto.ListingDTO, error) {
	l, err := newListingFromRequest(req)
	if err != nil {
		return dto.ListingDTO{}, err
	}
	if err := s.store.Insert(ctx, l); err != nil {
		return dto.ListingDTO{}, err
	}
	config.InfoWithFields("listing submitted", config.Fields{"listing_id": l.ID.Hex(), "submitted_by": l.SubmittedBy})
	return dto.NewListingDTO(l), nil
}

// RequestRefresh publishes a user-triggered ai_meta refresh request. Like
// GetApproved, listings that are not approved are reported as not found.
func (s *ListingService) RequestRefresh(ctx context.Context, id string) error {
	l, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if l.Status != models.ListingApproved {
		return repositories.ErrListingNotFound
	}
	return s.publishRefresh(ctx, l, models.TriggeredByUserAction)
}

// publishRefresh 재생성 요청 이벤트 발행. 대상 여부는 processor 가 판단한다.
func (s *ListingService) publishRefresh(ctx context.Context, l *models.Listing, by models.TriggeredBy) error {
	e := events.NewListingAIMetaRefreshRequested("api", l.ID, by)
	if err := eventbus.PublishJSON(ctx, s.publisher, s.topic, e); err != nil {
		return fmt.Errorf("failed to publish refresh request: %w", err)
	}
	return nil
}

func (s *ListingService) find(ctx context.Context, id string) (*models.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed id %q", ErrInvalidListing, id)
	}
	return s.store.FindByID(ctx, oid)
}

func newListingFromRequest(req dto.SubmitListingRequest) (*models.Listing, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidListing)
	}
	description := strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidListing, maxDescriptionLength)
	}
	if len(req.Photos) > maxPhotos {
		return nil, fmt.Errorf("%w: at most %d photos", ErrInvalidListing, maxPhotos)
	}
	photos := make([]string, 0, len(req.Photos))
	for _, p := range req.Photos {
		p = strings.TrimSpace(p)
		u, err := url.Parse(p)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: photo %q is not an http(s) url", ErrInvalidListing, p)
		}
		photos = append(photos, p)
	}
	if len(req.Tags) > maxTags {
		return nil, fmt.Errorf("%w: at most %d tags", ErrInvalidListing, maxTags)
	}
	tags := make([]string, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	return &models.Listing{
		Name:        name,
		Address:     strings.TrimSpace(req.Address),
		City:        strings.TrimSpace(req.City),
		Description: description,
		Photos:      photos,
		Tags:        tags,
		Status:      models.ListingPending,
		SubmittedBy: strings.TrimSpace(req.SubmittedBy),
	}, nil
}

// normalizePage mirrors the repository's clamping so the envelope reports
// the page actually served.
func normalizePage(page, pageSize, def int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = def
	}
	return page, pageSize
}
