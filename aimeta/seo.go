package aimeta

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"brewspot/models"
)

const seoDescriptionLength = 160

// SEO holds the meta tags rendered for a listing page.
type SEO struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// ComputeSEO builds page metadata, preferring AI output and falling back to
// user-authored fields.
func ComputeSEO(listing *models.Listing) SEO {
	if listing == nil {
		return SEO{}
	}

	title := listing.Name
	if city := strings.TrimSpace(listing.City); city != "" {
		title = fmt.Sprintf("%s - %s", title, city)
	}
	title += " | BrewSpot"

	var aiTags []string
	description := ""
	if listing.AIMeta != nil {
		aiTags = listing.AIMeta.Tags
		description = listing.AIMeta.Summary
	}
	if description == "" {
		description = strings.TrimSpace(listing.Description)
		if utf8.RuneCountInString(description) > seoDescriptionLength {
			description = truncateRunes(description, seoDescriptionLength-len(ellipsis)) + ellipsis
		}
	}
	if description == "" {
		description = fmt.Sprintf("Discover %s on BrewSpot.", listing.Name)
	}

	return SEO{
		Title:       title,
		Description: description,
		Keywords:    MergeAITags(listing.Tags, aiTags),
	}
}
