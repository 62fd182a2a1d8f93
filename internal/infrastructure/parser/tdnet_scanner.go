package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/ports"
)

const minColumns = 4

// TDnetScanner reads the disclosure listing table.
type TDnetScanner struct {
	client        *http.Client
	listingURL    string
	baseURL       *url.URL
	tableSelector string
	userAgent     string
	logger        *slog.Logger
}

var _ ports.EntrySource = (*TDnetScanner)(nil)

// ScannerOptions configures a TDnetScanner.
type ScannerOptions struct {
	ListingURL    string
	BaseURL       string
	TableSelector string
	UserAgent     string
}

// NewTDnetScanner wires an HTTP client; a nil client gets a 30s timeout.
func NewTDnetScanner(client *http.Client, opts ScannerOptions, logger *slog.Logger) (*TDnetScanner, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %s: %w", opts.BaseURL, err)
	}
	if opts.TableSelector == "" {
		opts.TableSelector = "table"
	}
	return &TDnetScanner{
		client:        client,
		listingURL:    opts.ListingURL,
		baseURL:       base,
		tableSelector: opts.TableSelector,
		userAgent:     opts.UserAgent,
		logger:        logger,
	}, nil
}

// ListRecentEntries fetches the listing and returns its well-formed rows in page order.
func (s *TDnetScanner) ListRecentEntries(ctx context.Context) ([]domain.Entry, error) {
	doc, err := s.fetchDocument(ctx, s.listingURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	table := doc.Find(s.tableSelector)
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no table matches %q", domain.ErrSourceUnavailable, s.tableSelector)
	}

	entries := s.extractEntries(table.First())
	s.debug("listing parsed", "url", s.listingURL, "entries", len(entries))
	return entries, nil
}

func (s *TDnetScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// extractEntries skips the header row and every row that is too short or has no link.
func (s *TDnetScanner) extractEntries(table *goquery.Selection) []domain.Entry {
	var entries []domain.Entry

	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		entry, ok := s.parseRow(tr)
		if !ok {
			return
		}
		entries = append(entries, entry)
	})

	return entries
}

func (s *TDnetScanner) parseRow(tr *goquery.Selection) (domain.Entry, bool) {
	cols := tr.Find("td")
	if cols.Length() < minColumns {
		return domain.Entry{}, false
	}

	titleCell := cols.Eq(3)
	href, ok := titleCell.Find("a").First().Attr("href")
	if !ok {
		return domain.Entry{}, false
	}

	link, err := s.resolve(href)
	if err != nil {
		s.debug("skip row with bad link", "href", href, "error", err)
		return domain.Entry{}, false
	}

	return domain.Entry{
		Date:        strings.TrimSpace(cols.Eq(0).Text()),
		Code:        strings.TrimSpace(cols.Eq(1).Text()),
		Title:       strings.TrimSpace(titleCell.Text()),
		DocumentURL: link,
	}, true
}

func (s *TDnetScanner) resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return s.baseURL.ResolveReference(ref).String(), nil
}

func (s *TDnetScanner) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
