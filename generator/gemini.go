package generator

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"brewspot/config"
	"brewspot/models"
)

const SYSTEM_INSTRUCTION = `
You are a metadata assistant for a coffee shop discovery platform.
You receive a listing (name, city, owner description, owner tags) and photos of the place.
The response MUST be a valid JSON object with three keys:

1. tags: A list of 3-8 short lowercase descriptors of the place (e.g., "cozy", "latte art", "outdoor seating").
   Each tag must be between 3 and 29 characters. Do not repeat the owner's tags verbatim.
2. summary: A neutral, factual summary of the place in 1-3 sentences, between 10 and 300 characters.
3. sentiment: The overall tone of the listing. MUST be exactly one of "positive", "neutral", "negative".

Additional constraints:
- Describe only what is supported by the description or visible in the photos.
- You MUST NOT wrap the JSON output in a markdown code block (e.g., ` + "```json ... ```" + `).
- The response should contain ONLY the raw JSON string.
`

// photoSource is satisfied by PhotoFetcher.
type photoSource interface {
	Fetch(ctx context.Context, urls []string) ([]Photo, error)
}

// GeminiProvider generates listing metadata with the Gemini API.
type GeminiProvider struct {
	client    *genai.Client
	modelName string
	photos    photoSource
}

func NewGeminiProvider(ctx context.Context, cfg config.AppConfig, photos photoSource) (*GeminiProvider, error) {
	if cfg.LLM.Provider != "google" {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiProvider{client: client, modelName: cfg.LLM.ModelName, photos: photos}, nil
}

func (g *GeminiProvider) ModelName() string { return g.modelName }

// Generate asks the model for tags, summary and sentiment of the listing.
// The returned RawMetadata is not validated.
func (g *GeminiProvider) Generate(ctx context.Context, listing *models.Listing) (*Result, error) {
	photos, err := g.photos.Fetch(ctx, listing.Photos)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{genai.NewPartFromText(BuildPrompt(listing))}
	for _, p := range photos {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: p.Data, MIMEType: p.MIMEType}})
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SYSTEM_INSTRUCTION}}},
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrEmptyResponse
	}

	text := result.Text()
	raw, err := ParseRawMetadata(text)
	if err != nil {
		return nil, err
	}

	out := &Result{
		Raw:          raw,
		ModelName:    g.modelName,
		ModelVersion: result.ModelVersion,
	}
	if result.UsageMetadata != nil {
		out.TokenUsage = TokenUsage{
			InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// BuildPrompt renders the listing's user-authored fields for the model.
func BuildPrompt(listing *models.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", listing.Name)
	if listing.City != "" {
		fmt.Fprintf(&b, "City: %s\n", listing.City)
	}
	if len(listing.Tags) > 0 {
		fmt.Fprintf(&b, "Owner tags: %s\n", strings.Join(listing.Tags, ", "))
	}
	fmt.Fprintf(&b, "Description:\n%s\n", listing.Description)
	return b.String()
}
