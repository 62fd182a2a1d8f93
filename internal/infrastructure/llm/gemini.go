package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"DisclosureScanner/internal/ports"
)

// GeminiClassifier asks a Gemini model for a structured label ranking.
type GeminiClassifier struct {
	client *genai.Client
	model  string
	prompt string
}

var _ ports.SentimentClassifier = (*GeminiClassifier)(nil)

// NewGeminiClassifier creates the genai client once per run.
func NewGeminiClassifier(ctx context.Context, apiKey, model, systemPrompt string) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClassifier{client: client, model: model, prompt: safePrompt(systemPrompt)}, nil
}

// Rank sends the prefix with the candidate labels and decodes the JSON answer.
func (g *GeminiClassifier) Rank(ctx context.Context, text string, labels []string) ([]ports.LabelScore, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt(text, labels), genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.prompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    rankingSchema(labels),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return parseRanking(resp.Text())
}

func rankingSchema(labels []string) *genai.Schema {
	entry := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"label": {Type: genai.TypeString, Enum: labels, Description: "One of the candidate labels."},
			"score": {Type: genai.TypeNumber, Description: "Confidence between 0 and 1."},
		},
		Required: []string{"label", "score"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"labels": {
				Type:        genai.TypeArray,
				Items:       entry,
				Description: "Every candidate label with its score, best first.",
			},
		},
		Required: []string{"labels"},
	}
}
