package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"DisclosureScanner/internal/config"
	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/infrastructure/fetcher"
	"DisclosureScanner/internal/infrastructure/llm"
	"DisclosureScanner/internal/infrastructure/ml"
	"DisclosureScanner/internal/infrastructure/parser"
	"DisclosureScanner/internal/infrastructure/pdf"
	"DisclosureScanner/internal/infrastructure/storage"
	"DisclosureScanner/internal/infrastructure/telegram"
	"DisclosureScanner/internal/logging"
	"DisclosureScanner/internal/ports"
	"DisclosureScanner/internal/rules"
	"DisclosureScanner/internal/sentiment"
	"DisclosureScanner/internal/usecase"
)

// Application wires configs to the batch pipeline.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	closers  []func() error
}

// New builds every adapter named by cfg. Optional adapters that fail to start are logged and left out.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	client := &http.Client{Timeout: cfg.Source.Timeout}

	source, err := parser.NewTDnetScanner(client, parser.ScannerOptions{
		ListingURL:    cfg.Source.ListingURL,
		BaseURL:       cfg.Source.BaseURL,
		TableSelector: cfg.Source.TableSelector,
		UserAgent:     cfg.Source.UserAgent,
	}, baseLogger.With("component", "scanner.tdnet"))
	if err != nil {
		return nil, fmt.Errorf("listing source: %w", err)
	}

	cache := fetcher.NewDocumentCache(client, fetcher.Options{
		Dir:            cfg.Cache.Dir,
		Delay:          cfg.Cache.FetchDelay,
		StrictKey:      cfg.Cache.StrictKey,
		TitlePrefixLen: cfg.Cache.TitlePrefixLen,
		UserAgent:      cfg.Source.UserAgent,
	}, baseLogger.With("component", "fetcher"))

	extractor, err := pdf.NewExtractor(cfg.Extract.Binary, baseLogger.With("component", "extractor"))
	if err != nil {
		return nil, fmt.Errorf("text extractor: %w", err)
	}

	backend, err := NewSentimentBackend(ctx, cfg.Sentiment)
	if err != nil {
		return nil, fmt.Errorf("sentiment backend: %w", err)
	}

	genreRules, scores := RulesFromConfig(cfg.Rules)

	a := &Application{cfg: cfg, logger: baseLogger}

	var mirror ports.RecordSink
	if cfg.Storage.SQLite.Enabled {
		repo, err := storage.OpenSQLite(cfg.Storage.SQLite.Path)
		if err != nil {
			baseLogger.Error("sqlite mirror disabled", "path", cfg.Storage.SQLite.Path, "error", err)
		} else {
			mirror = repo
			a.closers = append(a.closers, repo.Close)
		}
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Fetcher:    cache,
		Extractor:  extractor,
		Genres:     rules.NewGenreClassifier(genreRules, domain.Genre(cfg.Rules.DefaultGenre)),
		Sentiment:  sentiment.NewAnalyzer(backend, cfg.Sentiment.Labels, cfg.Sentiment.PrefixLength),
		Scorer:     rules.NewScorer(scores),
		Sink:       storage.NewCSVSink(cfg.Output.CSVPath),
		Mirror:     mirror,
		Notifier:   notifier,
		MaxEntries: cfg.Batch.MaxEntries,
		MinScore:   cfg.Notifications.MinScore,
		Logger:     baseLogger.With("component", "pipeline"),
	})
	return a, nil
}

// NewSentimentBackend selects the zero-shot classifier named by cfg.Backend.
func NewSentimentBackend(ctx context.Context, cfg config.SentimentConfig) (ports.SentimentClassifier, error) {
	switch cfg.Backend {
	case "", config.BackendInference:
		if cfg.Endpoint == "" {
			return nil, errors.New("inference backend requires sentiment.endpoint")
		}
		return ml.NewClient(cfg.Endpoint, cfg.APIKey, cfg.Timeout), nil
	case config.BackendChat:
		return llm.NewChatClassifier(cfg), nil
	case config.BackendGemini:
		return llm.NewGeminiClassifier(ctx, cfg.APIKey, cfg.Model, cfg.SystemPrompt)
	case config.BackendVader:
		return sentiment.NewVaderClassifier(), nil
	default:
		return nil, fmt.Errorf("unknown sentiment backend %q", cfg.Backend)
	}
}

// RulesFromConfig converts the configured genre table into classifier rules and base scores.
func RulesFromConfig(cfg config.RulesConfig) ([]rules.GenreRule, map[domain.Genre]int) {
	if len(cfg.Genres) == 0 {
		return rules.DefaultGenreRules(), rules.DefaultScoreTable()
	}

	genreRules := make([]rules.GenreRule, 0, len(cfg.Genres))
	scores := make(map[domain.Genre]int, len(cfg.Genres))
	for _, g := range cfg.Genres {
		if g.Name == "" {
			continue
		}
		genre := domain.Genre(g.Name)
		genreRules = append(genreRules, rules.GenreRule{Genre: genre, Keywords: g.Keywords})
		scores[genre] = g.Score
	}
	return genreRules, scores
}

// Run performs one batch. newProgress, when set, receives the number of entries about to be processed.
func (a *Application) Run(ctx context.Context, newProgress func(total int) ports.Progress) ([]domain.ScoredRecord, error) {
	entries, err := a.pipeline.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	if newProgress != nil {
		a.pipeline.SetProgress(newProgress(len(entries)))
	}
	return a.pipeline.Process(ctx, entries)
}

// OutputPath is where the result table is written.
func (a *Application) OutputPath() string {
	return a.cfg.Output.CSVPath
}

// Close releases optional adapters.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
