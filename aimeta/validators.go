package aimeta

import (
	"strings"
	"unicode/utf8"

	"brewspot/models"
)

const (
	maxAITags          = 8
	minTagLength       = 2
	maxTagLength       = 30
	minSummaryLength   = 10
	maxSummaryLength   = 300
	ellipsis           = "..."
	truncSummaryLength = maxSummaryLength - len(ellipsis)
)

// ValidateAITags accepts a list of tags from the provider.
// Entries that are not strings, or whose length is not strictly between 2 and
// 30, are dropped. Survivors are trimmed and lowercased, entries left empty by
// trimming are dropped, and the result is capped at 8 entries. Duplicates are
// kept. ok is false when nothing survives.
func ValidateAITags(raw any) (tags []string, ok bool) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	default:
		return nil, false
	}

	for _, item := range items {
		s, isString := item.(string)
		if !isString {
			continue
		}
		n := utf8.RuneCountInString(s)
		if n <= minTagLength || n >= maxTagLength {
			continue
		}
		tag := strings.ToLower(strings.TrimSpace(s))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxAITags {
			break
		}
	}
	if len(tags) == 0 {
		return nil, false
	}
	return tags, true
}

// ValidateAISummary accepts a summary string from the provider.
// The text is trimmed; anything shorter than 10 characters is rejected and
// anything longer than 300 is cut to 297 characters followed by "...".
func ValidateAISummary(raw any) (string, bool) {
	s, isString := raw.(string)
	if !isString {
		return "", false
	}
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n < minSummaryLength {
		return "", false
	}
	if n > maxSummaryLength {
		return truncateRunes(s, truncSummaryLength) + ellipsis, true
	}
	return s, true
}

// ValidateAISentiment accepts only the exact labels positive, neutral and negative.
func ValidateAISentiment(raw any) (models.Sentiment, bool) {
	s, isString := raw.(string)
	if !isString {
		return "", false
	}
	switch sentiment := models.Sentiment(s); sentiment {
	case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
		return sentiment, true
	}
	return "", false
}

// truncateRunes returns the first max runes of s.
func truncateRunes(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max])
}
