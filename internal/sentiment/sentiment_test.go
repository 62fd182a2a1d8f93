package sentiment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/ports"
)

type stubBackend struct {
	ranked   []ports.LabelScore
	err      error
	gotText  string
	gotLabel []string
}

func (s *stubBackend) Rank(_ context.Context, text string, labels []string) ([]ports.LabelScore, error) {
	s.gotText = text
	s.gotLabel = labels
	return s.ranked, s.err
}

func TestAnalyzerTruncatesAndRounds(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{ranked: []ports.LabelScore{
		{Label: domain.SentimentNeutral, Score: 0.12},
		{Label: domain.SentimentPositive, Score: 0.87654},
	}}
	a := NewAnalyzer(backend, nil, 0)

	text := strings.Repeat("増", 600)
	label, score, err := a.Classify(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, domain.SentimentPositive, label)
	assert.Equal(t, 0.877, score)
	assert.Equal(t, 512, len([]rune(backend.gotText)))
	assert.Equal(t, domain.SentimentLabels(), backend.gotLabel)
}

func TestAnalyzerEmptyRanking(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(&stubBackend{}, nil, 0)

	label, score, err := a.Classify(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, label)
	assert.Zero(t, score)
}

func TestAnalyzerDropsUnknownLabels(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(&stubBackend{ranked: []ports.LabelScore{
		{Label: "positive", Score: 0.99},
		{Label: domain.SentimentNegative, Score: 0.4},
	}}, nil, 0)

	label, score, err := a.Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentNegative, label)
	assert.Equal(t, 0.4, score)
}

func TestAnalyzerWrapsBackendError(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(&stubBackend{err: errors.New("model load failed")}, nil, 0)

	_, _, err := a.Classify(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrClassifier)

	_, _, err = NewAnalyzer(nil, nil, 0).Classify(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrClassifier)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "公開", Truncate("公開買付", 2))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "", Truncate("", 3))
}

func TestVaderRanking(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []ports.LabelScore{{Label: domain.SentimentPositive, Score: 0.6}}, vaderRanking(0.6))
	assert.Equal(t, []ports.LabelScore{{Label: domain.SentimentNegative, Score: 0.5}}, vaderRanking(-0.5))
	assert.Equal(t, []ports.LabelScore{{Label: domain.SentimentNeutral, Score: 0.1}}, vaderRanking(-0.1))
	assert.Equal(t, []ports.LabelScore{{Label: domain.SentimentNeutral, Score: 0}}, vaderRanking(0))
}

func TestVaderClassifierSkipsJapanese(t *testing.T) {
	t.Parallel()

	v := NewVaderClassifier()
	ranked, err := v.Rank(context.Background(), "業績予想の修正に関するお知らせ", domain.SentimentLabels())
	require.NoError(t, err)
	assert.Empty(t, ranked)

	label, score, err := NewAnalyzer(v, nil, 0).Classify(context.Background(), "公開買付けの開始に関するお知らせ (TOB)")
	require.NoError(t, err)
	assert.Empty(t, label)
	assert.Zero(t, score)
}

func TestVaderClassifierScoresEnglish(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(NewVaderClassifier(), nil, 0)

	label, score, err := a.Classify(context.Background(), "Record profit and a great, excellent dividend increase!")
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentPositive, label)
	assert.Greater(t, score, vaderThreshold)

	label, score, err = a.Classify(context.Background(), "Terrible loss, horrible impairment and a bad outlook.")
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentNegative, label)
	assert.Greater(t, score, vaderThreshold)
}

func TestMostlyLatin(t *testing.T) {
	t.Parallel()

	assert.True(t, mostlyLatin("Notice of tender offer by ABC Holdings"))
	assert.True(t, mostlyLatin("Notice 公開買付"))
	assert.False(t, mostlyLatin("株式会社ABCによる公開買付けの開始"))
	assert.False(t, mostlyLatin("1,500 / 2,000"))
	assert.False(t, mostlyLatin(""))
}
