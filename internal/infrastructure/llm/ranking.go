package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"DisclosureScanner/internal/ports"
)

type rankingPayload struct {
	Labels []struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	} `json:"labels"`
}

// parseRanking decodes the {"labels":[{"label","score"}]} answer shared by the LLM backends.
// Models sometimes wrap JSON in a markdown fence; it is stripped first.
func parseRanking(content string) ([]ports.LabelScore, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	var payload rankingPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal ranking: %w", err)
	}

	ranked := make([]ports.LabelScore, 0, len(payload.Labels))
	for _, l := range payload.Labels {
		ranked = append(ranked, ports.LabelScore{Label: l.Label, Score: l.Score})
	}
	return ranked, nil
}
