package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoPhotos is returned when none of the listing photos could be fetched.
	ErrNoPhotos = errors.New("no usable listing photos")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("empty response from model")
)

// RawMetadata is the provider payload before validation. Field values are
// left untyped so the validators decide what is acceptable.
type RawMetadata struct {
	Tags      any `json:"tags"`
	Summary   any `json:"summary"`
	Sentiment any `json:"sentiment"`
}

type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Result 는 한 번의 생성 호출 결과이다.
type Result struct {
	Raw          RawMetadata
	TokenUsage   TokenUsage
	ModelName    string
	ModelVersion string
}

func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %q", text)
	}
	return text[start : end+1], nil
}

// ParseRawMetadata reads the model text, tolerating code fences or prose
// around the JSON object.
func ParseRawMetadata(text string) (RawMetadata, error) {
	if strings.TrimSpace(text) == "" {
		return RawMetadata{}, ErrEmptyResponse
	}
	obj, err := extractJSONObject(text)
	if err != nil {
		return RawMetadata{}, err
	}
	var raw RawMetadata
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return RawMetadata{}, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	return raw, nil
}
