package rules

import "DisclosureScanner/internal/domain"

// OfferPriceBonus is added when a tender offer price was extracted.
const OfferPriceBonus = 2

// DefaultScoreTable returns base scores per genre; unlisted genres score 0.
func DefaultScoreTable() map[domain.Genre]int {
	return map[domain.Genre]int{
		domain.GenreTenderOffer: 8,
		domain.GenreBuyback:     6,
		domain.GenreAlliance:    4,
		domain.GenreUpgrade:     5,
	}
}

// Scorer is the additive base-plus-bonus rule.
type Scorer struct {
	base  map[domain.Genre]int
	bonus int
}

// NewScorer copies table. A nil table falls back to DefaultScoreTable.
func NewScorer(table map[domain.Genre]int) *Scorer {
	if table == nil {
		table = DefaultScoreTable()
	}
	base := make(map[domain.Genre]int, len(table))
	for genre, score := range table {
		base[genre] = score
	}
	return &Scorer{base: base, bonus: OfferPriceBonus}
}

// Score computes the priority of a record.
func (s *Scorer) Score(genre domain.Genre, hasOfferPrice bool) int {
	score := s.base[genre]
	if hasOfferPrice {
		score += s.bonus
	}
	return score
}
