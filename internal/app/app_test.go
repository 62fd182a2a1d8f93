package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DisclosureScanner/internal/config"
	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/infrastructure/llm"
	"DisclosureScanner/internal/infrastructure/ml"
	"DisclosureScanner/internal/infrastructure/storage"
	"DisclosureScanner/internal/ports"
	"DisclosureScanner/internal/sentiment"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubPdftotext puts an executable named like the extractor binary in a temp dir, so the
// startup lookup succeeds on hosts without poppler.
func stubPdftotext(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell stub needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "pdftotext")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return path
}

func TestRulesFromConfig(t *testing.T) {
	t.Parallel()

	genreRules, scores := RulesFromConfig(config.Default().Rules)
	require.Len(t, genreRules, 5)
	assert.Equal(t, domain.GenreTenderOffer, genreRules[0].Genre)
	assert.Equal(t, 8, scores[domain.GenreTenderOffer])
	assert.Equal(t, 4, scores[domain.GenreAlliance])

	genreRules, scores = RulesFromConfig(config.RulesConfig{Genres: []config.GenreConfig{
		{Name: "株式分割", Keywords: []string{"株式分割"}, Score: 3},
		{Name: "", Keywords: []string{"ignored"}},
	}})
	require.Len(t, genreRules, 1)
	assert.Equal(t, map[domain.Genre]int{"株式分割": 3}, scores)
}

func TestNewSentimentBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	b, err := NewSentimentBackend(ctx, config.SentimentConfig{Backend: config.BackendInference, Endpoint: "http://localhost"})
	require.NoError(t, err)
	assert.IsType(t, &ml.Client{}, b)

	b, err = NewSentimentBackend(ctx, config.SentimentConfig{Backend: config.BackendChat})
	require.NoError(t, err)
	assert.IsType(t, &llm.ChatClassifier{}, b)

	b, err = NewSentimentBackend(ctx, config.SentimentConfig{Backend: config.BackendVader})
	require.NoError(t, err)
	assert.IsType(t, &sentiment.VaderClassifier{}, b)

	_, err = NewSentimentBackend(ctx, config.SentimentConfig{Backend: config.BackendInference})
	assert.Error(t, err)

	_, err = NewSentimentBackend(ctx, config.SentimentConfig{Backend: "bert"})
	assert.ErrorContains(t, err, "unknown sentiment backend")
}

const listingPage = `<html><body><table class="tdnet_news_table">
<tr><th>時刻</th><th>コード</th><th>会社名</th><th>表題</th></tr>
<tr><td>2025/10/17</td><td>13010</td><td>極洋</td><td><a href="doc1.pdf">定時株主総会招集ご通知</a></td></tr>
</table></body></html>`

func TestApplicationRunWritesOutputs(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/list.html" {
			_, _ = w.Write([]byte(listingPage))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Source.ListingURL = server.URL + "/list.html"
	cfg.Source.BaseURL = server.URL + "/"
	cfg.Cache.Dir = filepath.Join(dir, "pdfs")
	cfg.Cache.FetchDelay = 0
	cfg.Output.CSVPath = filepath.Join(dir, "scores.csv")
	cfg.Extract.Binary = stubPdftotext(t)
	cfg.Sentiment.Backend = config.BackendVader
	cfg.Storage.SQLite.Enabled = true
	cfg.Storage.SQLite.Path = filepath.Join(dir, "scores.db")
	cfg.Notifications.Telegram = config.TelegramConfig{}

	application, err := New(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	var total int
	records, err := application.Run(context.Background(), func(n int) ports.Progress {
		total = n
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, records, "the only document is missing upstream")

	persisted, err := storage.ReadCSV(application.OutputPath())
	require.NoError(t, err)
	assert.Empty(t, persisted)

	_, err = os.Stat(cfg.Storage.SQLite.Path)
	assert.NoError(t, err)
}

func TestApplicationRunSourceUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Source.ListingURL = server.URL
	cfg.Cache.Dir = filepath.Join(dir, "pdfs")
	cfg.Output.CSVPath = filepath.Join(dir, "scores.csv")
	cfg.Extract.Binary = stubPdftotext(t)
	cfg.Sentiment.Backend = config.BackendVader
	cfg.Notifications.Telegram = config.TelegramConfig{}

	application, err := New(context.Background(), cfg, discardLogger())
	require.NoError(t, err)

	_, err = application.Run(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.NoFileExists(t, cfg.Output.CSVPath)
}

func TestNewFailsWithoutTextExtractor(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "pdfs")
	cfg.Extract.Binary = "pdftotext-does-not-exist"
	cfg.Sentiment.Backend = config.BackendVader
	cfg.Notifications.Telegram = config.TelegramConfig{}

	_, err := New(context.Background(), cfg, discardLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "text extractor")
	assert.ErrorContains(t, err, "poppler-utils")
}
