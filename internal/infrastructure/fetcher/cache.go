// Package fetcher downloads disclosure documents into a local cache keyed by entry identity.
package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/ports"
)

const defaultTitlePrefixLen = 30

var unsafeChars = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// Options configures a DocumentCache.
type Options struct {
	Dir            string
	Delay          time.Duration
	StrictKey      bool
	TitlePrefixLen int
	UserAgent      string
}

// DocumentCache fetches each document at most once per derived filename.
type DocumentCache struct {
	client *http.Client
	opts   Options
	logger *slog.Logger
	wait   func(ctx context.Context, d time.Duration) error
}

var _ ports.DocumentFetcher = (*DocumentCache)(nil)

// NewDocumentCache wires an HTTP client; a nil client gets a 60s timeout.
func NewDocumentCache(client *http.Client, opts Options, logger *slog.Logger) *DocumentCache {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.TitlePrefixLen <= 0 {
		opts.TitlePrefixLen = defaultTitlePrefixLen
	}
	return &DocumentCache{client: client, opts: opts, logger: logger, wait: sleepContext}
}

// Path returns the cache location for entry without touching the filesystem.
func (c *DocumentCache) Path(entry domain.Entry) string {
	return filepath.Join(c.opts.Dir, CacheFileName(entry, c.opts.TitlePrefixLen, c.opts.StrictKey))
}

// FetchDocument returns the cached path, downloading first when the file is absent.
// Only network downloads are followed by the courtesy delay.
func (c *DocumentCache) FetchDocument(ctx context.Context, entry domain.Entry) (string, error) {
	path := c.Path(entry)

	if _, err := os.Stat(path); err == nil {
		c.debug("cache hit", "path", path)
		return path, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: stat %s: %v", domain.ErrFetchFailed, path, err)
	}

	if err := os.MkdirAll(c.opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create cache dir: %v", domain.ErrFetchFailed, err)
	}

	if err := c.download(ctx, entry.DocumentURL, path); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	c.debug("document downloaded", "url", entry.DocumentURL, "path", path)

	if c.opts.Delay > 0 {
		if err := c.wait(ctx, c.opts.Delay); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
		}
	}
	return path, nil
}

func (c *DocumentCache) download(ctx context.Context, docURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("document %s returned %s", docURL, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("move document into cache: %w", err)
	}
	return nil
}

// CacheFileName derives "<date>_<code>_<title prefix>.pdf". With strict set, an 8 hex
// char digest of the document URL is appended so truncated titles cannot collide.
func CacheFileName(entry domain.Entry, titlePrefixLen int, strict bool) string {
	date := strings.ReplaceAll(entry.Date, "/", "-")
	title := unsafeChars.Replace(entry.Title)
	if runes := []rune(title); len(runes) > titlePrefixLen {
		title = string(runes[:titlePrefixLen])
	}

	name := fmt.Sprintf("%s_%s_%s", date, entry.Code, title)
	if strict {
		sum := sha256.Sum256([]byte(entry.DocumentURL))
		name += "_" + hex.EncodeToString(sum[:4])
	}
	return name + ".pdf"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *DocumentCache) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
