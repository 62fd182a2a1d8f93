package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/ports"
	"DisclosureScanner/internal/rules"
	"DisclosureScanner/internal/sentiment"
)

// DefaultMaxEntries caps how many listing rows one run processes.
const DefaultMaxEntries = 30

// PipelineDeps wires all driven adapters into the batch pipeline.
type PipelineDeps struct {
	Source    ports.EntrySource
	Fetcher   ports.DocumentFetcher
	Extractor ports.TextExtractor
	Genres    *rules.GenreClassifier
	Sentiment *sentiment.Analyzer
	Scorer    *rules.Scorer
	Sink      ports.RecordSink

	// Optional.
	Mirror   ports.RecordSink
	Notifier ports.Notifier
	Progress ports.Progress

	MaxEntries int
	MinScore   int
	Logger     *slog.Logger
}

// Pipeline implements the disclosure batch: list, fetch, extract, classify, score, persist.
type Pipeline struct {
	source     ports.EntrySource
	fetcher    ports.DocumentFetcher
	extractor  ports.TextExtractor
	genres     *rules.GenreClassifier
	sentiment  *sentiment.Analyzer
	scorer     *rules.Scorer
	sink       ports.RecordSink
	mirror     ports.RecordSink
	notifier   ports.Notifier
	progress   ports.Progress
	maxEntries int
	minScore   int
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	genres := deps.Genres
	if genres == nil {
		genres = rules.NewGenreClassifier(rules.DefaultGenreRules(), domain.GenreOther)
	}
	scorer := deps.Scorer
	if scorer == nil {
		scorer = rules.NewScorer(nil)
	}
	maxEntries := deps.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		source:     deps.Source,
		fetcher:    deps.Fetcher,
		extractor:  deps.Extractor,
		genres:     genres,
		sentiment:  deps.Sentiment,
		scorer:     scorer,
		sink:       deps.Sink,
		mirror:     deps.Mirror,
		notifier:   deps.Notifier,
		progress:   deps.Progress,
		maxEntries: maxEntries,
		minScore:   deps.MinScore,
		logger:     logger,
	}
}

// SetProgress replaces the per-entry progress observer.
func (p *Pipeline) SetProgress(progress ports.Progress) {
	p.progress = progress
}

// Entries lists the entries a run would process, already capped at MaxEntries.
func (p *Pipeline) Entries(ctx context.Context) ([]domain.Entry, error) {
	if p.source == nil {
		return nil, fmt.Errorf("%w: no source configured", domain.ErrSourceUnavailable)
	}

	entries, err := p.source.ListRecentEntries(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) > p.maxEntries {
		entries = entries[:p.maxEntries]
	}
	return entries, nil
}

// Run processes the listing once and hands every successful record to the sink in listing order.
// Only a listing failure or a sink failure is returned; per-entry failures are logged and skipped.
func (p *Pipeline) Run(ctx context.Context) ([]domain.ScoredRecord, error) {
	entries, err := p.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return p.Process(ctx, entries)
}

// Process runs the per-entry stages over entries, then persists once.
func (p *Pipeline) Process(ctx context.Context, entries []domain.Entry) ([]domain.ScoredRecord, error) {
	p.logger.Info("batch started", "entries", len(entries))

	records := make([]domain.ScoredRecord, 0, len(entries))
	failed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		rec, err := p.processSafely(ctx, entry)
		p.tick()
		if err != nil {
			failed++
			p.logger.Warn("entry skipped", "title", entry.Title, "code", entry.Code, "error", err)
			continue
		}
		records = append(records, rec)
	}

	if err := ctx.Err(); err != nil {
		return records, fmt.Errorf("batch interrupted: %w", err)
	}

	if p.sink == nil {
		return records, errors.New("no sink configured")
	}
	if err := p.sink.Persist(ctx, records); err != nil {
		return records, fmt.Errorf("persist records: %w", err)
	}
	p.logger.Info("batch finished", "records", len(records), "failed", failed)

	if p.mirror != nil {
		if err := p.mirror.Persist(ctx, records); err != nil {
			p.logger.Error("mirror records", "error", err)
		}
	}

	p.notify(ctx, records)
	return records, nil
}

func (p *Pipeline) processSafely(ctx context.Context, entry domain.Entry) (rec domain.ScoredRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.processEntry(ctx, entry)
}

func (p *Pipeline) processEntry(ctx context.Context, entry domain.Entry) (domain.ScoredRecord, error) {
	if p.fetcher == nil || p.extractor == nil || p.sentiment == nil {
		return domain.ScoredRecord{}, errors.New("pipeline misconfigured: fetcher, extractor and sentiment are required")
	}

	path, err := p.fetcher.FetchDocument(ctx, entry)
	if err != nil {
		return domain.ScoredRecord{}, err
	}

	body, err := p.extractor.ExtractText(ctx, path)
	if err != nil {
		return domain.ScoredRecord{}, err
	}

	genre := p.genres.Classify(entry.Title, body)

	label, confidence, err := p.sentiment.Classify(ctx, body)
	if err != nil {
		return domain.ScoredRecord{}, err
	}

	signals := rules.ExtractSignals(genre, body)
	score := p.scorer.Score(genre, signals.OfferPrice != "")

	p.logger.Debug("entry scored", "code", entry.Code, "genre", genre, "sentiment", label, "score", score)

	return domain.ScoredRecord{
		Entry: entry,
		Classification: domain.Classification{
			Genre:          genre,
			SentimentLabel: label,
			SentimentScore: confidence,
		},
		OfferPrice:    signals.OfferPrice,
		BuybackAmount: signals.BuybackAmount,
		Score:         score,
		DocumentPath:  path,
	}, nil
}

func (p *Pipeline) tick() {
	if p.progress == nil {
		return
	}
	if err := p.progress.Add(1); err != nil {
		p.logger.Debug("progress update", "error", err)
	}
}

func (p *Pipeline) notify(ctx context.Context, records []domain.ScoredRecord) {
	if p.notifier == nil {
		return
	}

	message := buildDigestMessage(HighPriority(records, p.minScore))
	if message == "" {
		return
	}
	if err := p.notifier.PublishDigest(ctx, message); err != nil {
		p.logger.Error("publish digest", "error", err)
	}
}

// HighPriority keeps records scoring at least minScore, in listing order.
func HighPriority(records []domain.ScoredRecord, minScore int) []domain.ScoredRecord {
	var out []domain.ScoredRecord
	for _, r := range records {
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	return out
}

func buildDigestMessage(records []domain.ScoredRecord) string {
	if len(records) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "注目の適時開示 %d件\n\n", len(records))
	for _, r := range records {
		fmt.Fprintf(&b, "[%s] %d点 %s %s\n%s\n", r.Genre, r.Score, r.Code, r.Title, r.DocumentURL)
		if r.OfferPrice != "" {
			fmt.Fprintf(&b, "買付価格: %s円\n", r.OfferPrice)
		}
		if r.BuybackAmount != "" {
			fmt.Fprintf(&b, "取得額: %s\n", r.BuybackAmount)
		}
		if r.SentimentLabel != "" {
			fmt.Fprintf(&b, "センチメント: %s (%.3f)\n", r.SentimentLabel, r.SentimentScore)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
