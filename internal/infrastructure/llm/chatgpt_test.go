package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DisclosureScanner/internal/config"
	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/ports"
)

func TestChatClassifierRank(t *testing.T) {
	t.Parallel()

	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"` +
			"```json\\n" + `{\"labels\":[{\"label\":\"ネガティブ\",\"score\":0.81}]}` + "\\n```" + `"}}]}`))
	}))
	defer server.Close()

	c := NewChatClassifier(config.SentimentConfig{
		Endpoint: server.URL,
		Model:    "gpt-4o-mini",
		APIKey:   "key",
		Timeout:  time.Second,
	})

	ranked, err := c.Rank(context.Background(), "特別損失の計上", domain.SentimentLabels())
	require.NoError(t, err)
	assert.Equal(t, []ports.LabelScore{{Label: domain.SentimentNegative, Score: 0.81}}, ranked)
	assert.Equal(t, "gpt-4o-mini", body["model"])
}

func TestChatClassifierMisconfigured(t *testing.T) {
	t.Parallel()

	_, err := NewChatClassifier(config.SentimentConfig{}).Rank(context.Background(), "x", nil)
	assert.ErrorContains(t, err, "misconfigured")

	var nilClient *ChatClassifier
	_, err = nilClient.Rank(context.Background(), "x", nil)
	assert.Error(t, err)
}

func TestChatClassifierHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewChatClassifier(config.SentimentConfig{Endpoint: server.URL, Model: "m", APIKey: "k", Timeout: time.Second})
	_, err := c.Rank(context.Background(), "x", nil)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestParseRanking(t *testing.T) {
	t.Parallel()

	ranked, err := parseRanking(`{"labels":[{"label":"中立","score":0.5},{"label":"ポジティブ","score":0.3}]}`)
	require.NoError(t, err)
	assert.Len(t, ranked, 2)

	ranked, err = parseRanking("  ")
	require.NoError(t, err)
	assert.Nil(t, ranked)

	_, err = parseRanking("not json")
	assert.Error(t, err)
}

func TestRankingSchemaRestrictsLabels(t *testing.T) {
	t.Parallel()

	schema := rankingSchema(domain.SentimentLabels())
	item := schema.Properties["labels"].Items
	assert.Equal(t, domain.SentimentLabels(), item.Properties["label"].Enum)
}
