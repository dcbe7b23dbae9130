package aimeta

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"brewspot/models"
)

func TestMergeAITags(t *testing.T) {
	merged := MergeAITags([]string{"Cozy", "wifi"}, []string{"COZY", "quiet"})

	assert.Equal(t, []string{"Cozy", "wifi", "quiet"}, merged)
}

func TestMergeAITagsKeepsUserPrefix(t *testing.T) {
	user := []string{"WiFi", "Outdoor", "wifi"}
	merged := MergeAITags(user, []string{"brunch", "outdoor", "brunch", "v60"})

	assert.Equal(t, user, merged[:len(user)])
	assert.Equal(t, []string{"WiFi", "Outdoor", "wifi", "brunch", "v60"}, merged)
}

func TestMergeAITagsEmptyInputs(t *testing.T) {
	assert.Empty(t, MergeAITags(nil, nil))
	assert.Equal(t, []string{"quiet"}, MergeAITags(nil, []string{"quiet"}))
	assert.Equal(t, []string{"Cozy"}, MergeAITags([]string{"Cozy"}, nil))
}

func TestMergeAITagsDoesNotMutateInput(t *testing.T) {
	user := make([]string, 1, 4)
	user[0] = "Cozy"

	_ = MergeAITags(user, []string{"quiet", "bright"})

	assert.Equal(t, []string{"Cozy"}, user)
	assert.Equal(t, "", user[:2][1])
}

func TestCanOverwriteSummary(t *testing.T) {
	longText := strings.Repeat("Handwritten notes about the place. ", 2)

	testCases := []struct {
		name    string
		listing *models.Listing
		want    bool
	}{
		{name: "empty description", listing: &models.Listing{}, want: true},
		{name: "human description", listing: &models.Listing{Description: longText}, want: false},
		{
			name:    "human description with ai meta but no summary",
			listing: &models.Listing{Description: longText, AIMeta: &models.AIMeta{Tags: []string{"cozy"}}},
			want:    false,
		},
		{
			name:    "description with ai summary",
			listing: &models.Listing{Description: longText, AIMeta: &models.AIMeta{Summary: "A calm cafe near the park."}},
			want:    true,
		},
		{name: "nil listing", listing: nil, want: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := CanOverwriteSummary(testCase.listing); got != testCase.want {
				t.Fatalf("expected %v, got %v", testCase.want, got)
			}
		})
	}
}
