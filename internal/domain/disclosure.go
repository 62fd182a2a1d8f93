package domain

// Entry is one row of the disclosure listing, before its document is fetched.
type Entry struct {
	Date        string
	Code        string
	Title       string
	DocumentURL string
}

// Genre buckets a disclosure by topic.
type Genre string

const (
	GenreTenderOffer   Genre = "TOB"
	GenreBuyback       Genre = "自社株買い"
	GenreDividendRaise Genre = "増配"
	GenreUpgrade       Genre = "上方修正"
	GenreAlliance      Genre = "業務提携"
	GenreOther         Genre = "その他"
)

// Sentiment labels offered to the classifier as candidates.
const (
	SentimentPositive = "ポジティブ"
	SentimentNegative = "ネガティブ"
	SentimentNeutral  = "中立"
)

// SentimentLabels is the fixed candidate set, in the order sent to classifiers.
func SentimentLabels() []string {
	return []string{SentimentPositive, SentimentNegative, SentimentNeutral}
}

// Classification captures genre and sentiment for one document.
type Classification struct {
	Genre          Genre
	SentimentLabel string
	SentimentScore float64
}

// ScoredRecord is the persisted unit: one fully enriched entry.
type ScoredRecord struct {
	Entry
	Classification
	OfferPrice    string
	BuybackAmount string
	Score         int
	DocumentPath  string
}
