// Package rules holds the deterministic part of disclosure triage: the keyword genre
// table, genre-conditioned signal extraction and the score table.
package rules

import (
	"strings"

	"DisclosureScanner/internal/domain"
)

// GenreRule maps a genre to the keywords that select it.
type GenreRule struct {
	Genre    domain.Genre
	Keywords []string
}

// DefaultGenreRules returns the built-in table. Order is the tie-break.
func DefaultGenreRules() []GenreRule {
	return []GenreRule{
		{Genre: domain.GenreTenderOffer, Keywords: []string{"公開買付", "TOB"}},
		{Genre: domain.GenreBuyback, Keywords: []string{"自己株式取得", "自己株"}},
		{Genre: domain.GenreDividendRaise, Keywords: []string{"増配", "配当予想"}},
		{Genre: domain.GenreUpgrade, Keywords: []string{"上方修正", "業績予想の修正"}},
		{Genre: domain.GenreAlliance, Keywords: []string{"業務提携", "提携", "協業"}},
	}
}

// GenreClassifier evaluates an ordered rule list top to bottom.
type GenreClassifier struct {
	rules    []GenreRule
	fallback domain.Genre
}

// NewGenreClassifier copies rules; an empty fallback means domain.GenreOther.
func NewGenreClassifier(rules []GenreRule, fallback domain.Genre) *GenreClassifier {
	if fallback == "" {
		fallback = domain.GenreOther
	}
	copied := make([]GenreRule, len(rules))
	copy(copied, rules)
	return &GenreClassifier{rules: copied, fallback: fallback}
}

// Classify returns the first genre whose keywords appear in title or body.
// Matching is a raw substring test with no normalisation.
func (g *GenreClassifier) Classify(title, body string) domain.Genre {
	for _, rule := range g.rules {
		for _, kw := range rule.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(title, kw) || strings.Contains(body, kw) {
				return rule.Genre
			}
		}
	}
	return g.fallback
}
