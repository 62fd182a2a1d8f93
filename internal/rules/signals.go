package rules

import (
	"regexp"

	"DisclosureScanner/internal/domain"
)

var (
	offerPriceExpr    = regexp.MustCompile(`(\p{Nd}{3,5})円[^\n]{0,10}(買付|買い付け)`)
	buybackAmountExpr = regexp.MustCompile(`([0-9０-９億,，.円]+)[^\n]{0,10}(取得|買[付い])`)
)

// ExtractOfferPrice finds the first "<digits>円 ... 買付" phrase and returns the digits.
func ExtractOfferPrice(text string) (string, bool) {
	return firstGroup(offerPriceExpr, text)
}

// ExtractBuybackAmount finds the first amount followed by an acquisition marker.
func ExtractBuybackAmount(text string) (string, bool) {
	return firstGroup(buybackAmountExpr, text)
}

func firstGroup(expr *regexp.Regexp, text string) (string, bool) {
	match := expr.FindStringSubmatch(text)
	if len(match) < 2 {
		return "", false
	}
	return match[1], true
}

// Signals are the genre-conditioned values pulled from a document body.
type Signals struct {
	OfferPrice    string
	BuybackAmount string
}

// ExtractSignals runs only the extractor that belongs to genre.
func ExtractSignals(genre domain.Genre, text string) Signals {
	var s Signals
	switch genre {
	case domain.GenreTenderOffer:
		s.OfferPrice, _ = ExtractOfferPrice(text)
	case domain.GenreBuyback:
		s.BuybackAmount, _ = ExtractBuybackAmount(text)
	}
	return s
}
