package aimeta

import (
	"strings"

	"brewspot/models"
)

// MergeAITags appends AI tags to the user's tags without removing or
// reordering anything the user wrote. Matching is case-insensitive, and an AI
// tag is skipped once an equal tag is already present, including one added
// earlier in the same merge.
func MergeAITags(userTags, aiTags []string) []string {
	merged := make([]string, 0, len(userTags)+len(aiTags))
	seen := make(map[string]struct{}, len(userTags)+len(aiTags))

	for _, t := range userTags {
		merged = append(merged, t)
		seen[strings.ToLower(t)] = struct{}{}
	}
	for _, t := range aiTags {
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, t)
	}
	return merged
}

// CanOverwriteSummary reports whether an AI summary may replace the listing's
// description: only when there is no description, or when the current one
// already came from AI (ai_meta.summary is set). Callers still check the
// refresh guard before regenerating.
func CanOverwriteSummary(listing *models.Listing) bool {
	if listing == nil {
		return false
	}
	if listing.Description == "" {
		return true
	}
	return listing.AIMeta != nil && listing.AIMeta.Summary != ""
}
