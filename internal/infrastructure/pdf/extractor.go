// Package pdf extracts plain text from cached disclosure PDFs.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/ports"
)

const defaultBinary = "pdftotext"

// Extractor reads the page tree with pdfcpu and pulls each page's text with poppler's pdftotext.
type Extractor struct {
	binary string
	logger *slog.Logger
	open   func(path string) (int, error)
	page   func(ctx context.Context, path string, n int) (string, error)
}

var _ ports.TextExtractor = (*Extractor)(nil)

// NewExtractor resolves binary (default "pdftotext") on PATH and fails when it is missing,
// so a broken installation stops the run before any document is touched.
func NewExtractor(binary string, logger *slog.Logger) (*Extractor, error) {
	e := newExtractor(binary, logger)
	resolved, err := exec.LookPath(e.binary)
	if err != nil {
		return nil, fmt.Errorf("%s not found, install poppler-utils: %w", e.binary, err)
	}
	e.binary = resolved
	return e, nil
}

func newExtractor(binary string, logger *slog.Logger) *Extractor {
	if binary == "" {
		binary = defaultBinary
	}
	e := &Extractor{binary: binary, logger: logger, open: pageCount}
	e.page = e.pdftotextPage
	return e
}

// ExtractText joins the text of every page that yields any, in page order, with newlines.
// A document without any text yields "".
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	count, err := e.open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrUnreadableDocument, path, err)
	}

	pages := make([]string, 0, count)
	for n := 1; n <= count; n++ {
		text, err := e.page(ctx, path, n)
		if err != nil {
			return "", fmt.Errorf("%w: %s page %d: %v", domain.ErrUnreadableDocument, path, n, err)
		}
		pages = append(pages, text)
	}

	text := joinPages(pages)
	if e.logger != nil {
		e.logger.Debug("text extracted", "path", path, "pages", count, "chars", len([]rune(text)))
	}
	return text, nil
}

func pageCount(path string) (int, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("read pdf context: %w", err)
	}
	return ctx.PageCount, nil
}

func (e *Extractor) pdftotextPage(ctx context.Context, path string, n int) (string, error) {
	page := strconv.Itoa(n)
	cmd := exec.CommandContext(ctx, e.binary, "-layout", "-enc", "UTF-8", "-f", page, "-l", page, path, "-")

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", e.binary, err, strings.TrimSpace(stderr.String()))
	}

	// pdftotext ends every page with a form feed.
	return strings.TrimSuffix(out.String(), "\f"), nil
}

func joinPages(pages []string) string {
	kept := make([]string, 0, len(pages))
	for _, p := range pages {
		p = strings.TrimRight(p, "\n")
		if strings.TrimSpace(p) == "" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "\n")
}
