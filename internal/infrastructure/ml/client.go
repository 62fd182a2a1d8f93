package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"DisclosureScanner/internal/ports"
)

// Client talks to a hosted zero-shot classification endpoint (Hugging Face inference format).
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.SentimentClassifier = (*Client)(nil)

// NewClient creates a reusable HTTP client. A zero timeout waits indefinitely.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

type zeroShotResponse struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// Rank submits text with the candidate labels and returns the ranked answer.
func (c *Client) Rank(ctx context.Context, text string, labels []string) ([]ports.LabelScore, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("inference endpoint is not configured")
	}

	payload := zeroShotRequest{
		Inputs:     text,
		Parameters: zeroShotParameters{CandidateLabels: labels},
	}

	var resp zeroShotResponse
	if err := c.post(ctx, payload, &resp); err != nil {
		return nil, err
	}

	if len(resp.Labels) != len(resp.Scores) {
		return nil, fmt.Errorf("malformed response: %d labels, %d scores", len(resp.Labels), len(resp.Scores))
	}

	ranked := make([]ports.LabelScore, 0, len(resp.Labels))
	for i, label := range resp.Labels {
		ranked = append(ranked, ports.LabelScore{Label: label, Score: resp.Scores[i]})
	}
	return ranked, nil
}

func (c *Client) post(ctx context.Context, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(preview)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
