package dto

import (
	"time"

	"brewspot/aimeta"
	"brewspot/models"
)

type AIMetaDTO struct {
	Tags        []string  `json:"tags"`
	Summary     string    `json:"summary"`
	Sentiment   string    `json:"sentiment"`
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
}

type SEODTO struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// ListingDTO is the public view of a listing. ID is a hex string.
// User-authored fields and ai_meta are kept apart.
type ListingDTO struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Description string     `json:"description"`
	Photos      []string   `json:"photos"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status"`
	AIMeta      *AIMetaDTO `json:"ai_meta,omitempty"`
	SEO         *SEODTO    `json:"seo,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AdminListingDTO adds moderation fields for the admin console.
type AdminListingDTO struct {
	ListingDTO
	SubmittedBy     string `json:"submitted_by"`
	ReviewedBy      string `json:"reviewed_by,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

func NewListingDTO(l *models.Listing) ListingDTO {
	d := ListingDTO{
		ID:          l.ID.Hex(),
		Name:        l.Name,
		Address:     l.Address,
		City:        l.City,
		Description: l.Description,
		Photos:      nonNil(l.Photos),
		Tags:        nonNil(l.Tags),
		Status:      string(l.Status),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if l.AIMeta != nil {
		d.AIMeta = &AIMetaDTO{
			Tags:        nonNil(l.AIMeta.Tags),
			Summary:     l.AIMeta.Summary,
			Sentiment:   string(l.AIMeta.Sentiment),
			Version:     l.AIMeta.Version,
			GeneratedAt: l.AIMeta.GeneratedAt,
		}
	}
	return d
}

// WithSEO attaches the computed SEO block.
func (d ListingDTO) WithSEO(l *models.Listing) ListingDTO {
	seo := aimeta.ComputeSEO(l)
	d.SEO = &SEODTO{Title: seo.Title, Description: seo.Description, Keywords: nonNil(seo.Keywords)}
	return d
}

func NewAdminListingDTO(l *models.Listing) AdminListingDTO {
	return AdminListingDTO{
		ListingDTO:      NewListingDTO(l),
		SubmittedBy:     l.SubmittedBy,
		ReviewedBy:      l.ReviewedBy,
		RejectionReason: l.RejectionReason,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type SubmitListingRequest struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
	Tags        []string `json:"tags"`
	SubmittedBy string   `json:"submitted_by"`
}

type RejectListingRequest struct {
	Reason string `json:"reason" binding:"required"`
}
