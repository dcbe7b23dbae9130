// Package aimeta decides when AI metadata may be generated for a listing,
// sanitizes provider output and keeps AI data from clobbering user-authored fields.
package aimeta

import (
	"unicode/utf8"

	"brewspot/models"
)

// MinDescriptionLength is the shortest description worth summarizing.
const MinDescriptionLength = 50

// CanGenerateAIMeta reports whether a listing is eligible for AI generation:
// it must be approved, carry a description of at least MinDescriptionLength
// characters and have at least one photo for vision analysis.
func CanGenerateAIMeta(listing *models.Listing) bool {
	if listing == nil {
		return false
	}
	if listing.Status != models.ListingApproved {
		return false
	}
	if utf8.RuneCountInString(listing.Description) < MinDescriptionLength {
		return false
	}
	return len(listing.Photos) > 0
}

// ShouldRefreshAIMeta reports whether the listing's AI metadata is missing or
// was produced under a different data version than currentVersion.
//
// Changes to the description alone do not trigger a refresh; bumping the
// configured data version is the way to force regeneration.
func ShouldRefreshAIMeta(listing *models.Listing, currentVersion string) bool {
	if listing == nil {
		return false
	}
	if listing.AIMeta == nil {
		return true
	}
	return listing.AIMeta.Version != currentVersion
}
