package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"DisclosureScanner/internal/domain"
)

func TestGenreClassifierFirstMatchWins(t *testing.T) {
	t.Parallel()

	g := NewGenreClassifier(DefaultGenreRules(), "")

	// Alliance keyword in title, tender offer keyword in body: table order decides.
	got := g.Classify("業務提携に関するお知らせ", "当社株式に対する公開買付の開始")
	assert.Equal(t, domain.GenreTenderOffer, got)

	got = g.Classify("資本業務提携及び自己株式取得のお知らせ", "")
	assert.Equal(t, domain.GenreBuyback, got)
}

func TestGenreClassifierFallback(t *testing.T) {
	t.Parallel()

	g := NewGenreClassifier(DefaultGenreRules(), "")

	assert.Equal(t, domain.GenreOther, g.Classify("", ""))
	assert.Equal(t, domain.GenreOther, g.Classify("役員人事のお知らせ", "代表取締役の異動"))
}

func TestGenreClassifierIsCaseSensitive(t *testing.T) {
	t.Parallel()

	g := NewGenreClassifier(DefaultGenreRules(), "")

	assert.Equal(t, domain.GenreOther, g.Classify("tob", ""))
	assert.Equal(t, domain.GenreTenderOffer, g.Classify("TOB", ""))
}

func TestGenreClassifierCustomTable(t *testing.T) {
	t.Parallel()

	g := NewGenreClassifier([]GenreRule{
		{Genre: domain.GenreAlliance, Keywords: []string{"", "協業"}},
		{Genre: domain.GenreTenderOffer, Keywords: []string{"協業"}},
	}, "misc")

	assert.Equal(t, domain.GenreAlliance, g.Classify("", "新会社との協業"))
	assert.Equal(t, domain.Genre("misc"), g.Classify("x", "y"))
}

func TestScorer(t *testing.T) {
	t.Parallel()

	s := NewScorer(nil)

	cases := []struct {
		genre    domain.Genre
		hasPrice bool
		want     int
	}{
		{domain.GenreTenderOffer, true, 10},
		{domain.GenreTenderOffer, false, 8},
		{domain.GenreBuyback, false, 6},
		{domain.GenreUpgrade, false, 5},
		{domain.GenreAlliance, false, 4},
		{domain.GenreDividendRaise, false, 0},
		{domain.Genre("unlisted-genre"), false, 0},
		{domain.GenreOther, true, 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, s.Score(tc.genre, tc.hasPrice), "genre %s price %t", tc.genre, tc.hasPrice)
	}
}

func TestExtractOfferPrice(t *testing.T) {
	t.Parallel()

	price, ok := ExtractOfferPrice("1500円で買付を実施")
	assert.True(t, ok)
	assert.Equal(t, "1500", price)

	price, ok = ExtractOfferPrice("買付価格は普通株式1株につき２４５０円（以下「本公開買付価格」）とし、2450円にて買い付けを行います")
	assert.True(t, ok)
	assert.Equal(t, "２４５０", price)

	price, ok = ExtractOfferPrice("１２００円で買付")
	assert.True(t, ok)
	assert.Equal(t, "１２００", price)

	_, ok = ExtractOfferPrice("本日開催の取締役会において決議しました")
	assert.False(t, ok)

	// Marker on the next line does not count.
	_, ok = ExtractOfferPrice("1500円\n買付")
	assert.False(t, ok)

	// Two digits are too short.
	_, ok = ExtractOfferPrice("99円で買付")
	assert.False(t, ok)
}

func TestExtractBuybackAmount(t *testing.T) {
	t.Parallel()

	amount, ok := ExtractBuybackAmount("1,000,000株を上限として取得")
	assert.True(t, ok)
	assert.Equal(t, "1,000,000", amount)

	amount, ok = ExtractBuybackAmount("取得価額の総額　５０億円を上限に買付")
	assert.True(t, ok)
	assert.Equal(t, "５０億円", amount)

	_, ok = ExtractBuybackAmount("自己株式の消却に関するお知らせ")
	assert.False(t, ok)
}

func TestExtractSignalsIsGenreConditioned(t *testing.T) {
	t.Parallel()

	text := "1500円で買付を実施し、1,000,000株を上限として取得"

	assert.Equal(t, Signals{OfferPrice: "1500"}, ExtractSignals(domain.GenreTenderOffer, text))
	assert.Equal(t, Signals{BuybackAmount: "1500円"}, ExtractSignals(domain.GenreBuyback, text))
	assert.Equal(t, Signals{}, ExtractSignals(domain.GenreAlliance, text))
}
