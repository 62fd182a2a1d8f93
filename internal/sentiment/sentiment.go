// Package sentiment turns a ranked zero-shot classifier answer into the label and
// confidence stored on each record.
package sentiment

import (
	"context"
	"fmt"
	"math"
	"sort"

	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/ports"
)

// DefaultPrefixLength is the number of characters sent to the classifier.
// Anything after the prefix is invisible to sentiment.
const DefaultPrefixLength = 512

// Analyzer truncates, classifies and rounds.
type Analyzer struct {
	backend ports.SentimentClassifier
	labels  []string
	prefix  int
}

// NewAnalyzer binds a backend to a candidate label set. Nil labels mean domain.SentimentLabels.
func NewAnalyzer(backend ports.SentimentClassifier, labels []string, prefix int) *Analyzer {
	if len(labels) == 0 {
		labels = domain.SentimentLabels()
	}
	if prefix <= 0 {
		prefix = DefaultPrefixLength
	}
	return &Analyzer{backend: backend, labels: labels, prefix: prefix}
}

// Classify returns the top-ranked label with its score rounded to 3 decimals.
// An empty ranking yields ("", 0, nil).
func (a *Analyzer) Classify(ctx context.Context, text string) (string, float64, error) {
	if a.backend == nil {
		return "", 0, fmt.Errorf("%w: no backend configured", domain.ErrClassifier)
	}

	ranked, err := a.backend.Rank(ctx, Truncate(text, a.prefix), a.labels)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", domain.ErrClassifier, err)
	}

	ranked = a.filter(ranked)
	if len(ranked) == 0 {
		return "", 0, nil
	}

	top := ranked[0]
	return top.Label, Round3(top.Score), nil
}

// filter drops labels outside the candidate set and orders by score, stable on ties.
func (a *Analyzer) filter(ranked []ports.LabelScore) []ports.LabelScore {
	allowed := make(map[string]struct{}, len(a.labels))
	for _, l := range a.labels {
		allowed[l] = struct{}{}
	}

	kept := make([]ports.LabelScore, 0, len(ranked))
	for _, r := range ranked {
		if _, ok := allowed[r.Label]; ok {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	return kept
}

// Truncate keeps the first n characters of text.
func Truncate(text string, n int) string {
	if n <= 0 {
		return text
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

// Round3 rounds half away from zero to 3 decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
