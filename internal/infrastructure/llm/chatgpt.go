package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"DisclosureScanner/internal/config"
	"DisclosureScanner/internal/ports"
)

// ChatClassifier implements ports.SentimentClassifier backed by OpenAI-compatible chat APIs.
type ChatClassifier struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.SentimentClassifier = (*ChatClassifier)(nil)

// NewChatClassifier builds a client from configuration.
func NewChatClassifier(cfg config.SentimentConfig) *ChatClassifier {
	return &ChatClassifier{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Rank asks the model to score every candidate label and parses its JSON answer.
func (c *ChatClassifier) Rank(ctx context.Context, text string, labels []string) ([]ports.LabelScore, error) {
	if c == nil {
		return nil, fmt.Errorf("chat classifier is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return nil, fmt.Errorf("chat classifier misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": userPrompt(text, labels)},
		},
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send classification request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("chat error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, nil
	}

	return parseRanking(decoded.Choices[0].Message.Content)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a zero-shot classifier for Japanese corporate disclosures. " +
			`Answer only with JSON of the form {"labels":[{"label":"...","score":0.0}]}.`
	}
	return prompt
}

func userPrompt(text string, labels []string) string {
	return fmt.Sprintf("Candidate labels: %s\nScore each label between 0 and 1 for the text below.\n---\n%s",
		strings.Join(labels, ", "), text)
}
