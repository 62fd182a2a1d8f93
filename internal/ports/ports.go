package ports

import (
	"context"

	"DisclosureScanner/internal/domain"
)

// EntrySource lists the most recent disclosure entries in listing order.
type EntrySource interface {
	ListRecentEntries(ctx context.Context) ([]domain.Entry, error)
}

// DocumentFetcher retrieves an entry's document into the local cache and returns its path.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, entry domain.Entry) (string, error)
}

// TextExtractor turns a cached document into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// LabelScore is one ranked answer of a zero-shot classifier.
type LabelScore struct {
	Label string
	Score float64
}

// SentimentClassifier scores text against a candidate label set.
// Implementations return labels ranked best first; an empty slice is a valid answer.
type SentimentClassifier interface {
	Rank(ctx context.Context, text string, labels []string) ([]LabelScore, error)
}

// RecordSink persists the complete record set of a run.
type RecordSink interface {
	Persist(ctx context.Context, records []domain.ScoredRecord) error
}

// Notifier streams high-priority digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Progress observes per-entry completion. progressbar.ProgressBar satisfies it.
type Progress interface {
	Add(n int) error
}
