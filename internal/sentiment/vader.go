package sentiment

import (
	"context"
	"math"
	"unicode"

	"github.com/jonreiter/govader"

	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/ports"
)

const (
	vaderThreshold = 0.20
	// Share of letters that must be Latin before the English lexicon is consulted.
	vaderMinLatinShare = 0.5
)

// VaderClassifier is an offline lexicon backend. The lexicon is English, so text that is
// not mostly Latin script gets an empty ranking instead of a meaningless 中立.
type VaderClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

var _ ports.SentimentClassifier = (*VaderClassifier)(nil)

// NewVaderClassifier builds the lexicon once.
func NewVaderClassifier() *VaderClassifier {
	return &VaderClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Rank maps the compound polarity onto positive/negative/neutral.
func (v *VaderClassifier) Rank(_ context.Context, text string, _ []string) ([]ports.LabelScore, error) {
	if !mostlyLatin(text) {
		return nil, nil
	}
	compound := v.analyzer.PolarityScores(text).Compound
	return vaderRanking(compound), nil
}

func mostlyLatin(text string) bool {
	var letters, latin int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Latin, r) {
			latin++
		}
	}
	return letters > 0 && float64(latin) >= vaderMinLatinShare*float64(letters)
}

func vaderRanking(compound float64) []ports.LabelScore {
	label := domain.SentimentNeutral
	switch {
	case compound >= vaderThreshold:
		label = domain.SentimentPositive
	case compound <= -vaderThreshold:
		label = domain.SentimentNegative
	}
	return []ports.LabelScore{{Label: label, Score: math.Min(math.Abs(compound), 1)}}
}
