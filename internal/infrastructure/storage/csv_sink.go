package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/ports"
)

// Header is the column layout of the result table.
var Header = []string{
	"date", "code", "title", "genre", "sentiment", "sentiment_score",
	"TOB価格", "自己株取得額", "スコア", "PDFパス",
}

// CSVSink rewrites the whole result table on every run.
type CSVSink struct {
	path string
}

var _ ports.RecordSink = (*CSVSink)(nil)

// NewCSVSink targets path; its directory is created on demand.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Path reports where the table is written.
func (s *CSVSink) Path() string {
	return s.path
}

// Persist writes a UTF-8 (with BOM) CSV with one header row and replaces any previous file.
func (s *CSVSink) Persist(_ context.Context, records []domain.ScoredRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".records-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := writeRecords(tmp, records); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func writeRecords(f *os.File, records []domain.ScoredRecord) error {
	bom := transform.NewWriter(f, unicode.UTF8BOM.NewEncoder())
	w := csv.NewWriter(bom)

	if err := w.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(Row(r)); err != nil {
			return fmt.Errorf("write record %s: %w", r.Code, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := bom.Close(); err != nil {
		return fmt.Errorf("flush encoder: %w", err)
	}
	return nil
}

// Row renders a record in Header order.
func Row(r domain.ScoredRecord) []string {
	return []string{
		r.Date,
		r.Code,
		r.Title,
		string(r.Genre),
		r.SentimentLabel,
		strconv.FormatFloat(r.SentimentScore, 'f', -1, 64),
		r.OfferPrice,
		r.BuybackAmount,
		strconv.Itoa(r.Score),
		r.DocumentPath,
	}
}

// ReadCSV loads a table written by CSVSink. A leading BOM is optional.
func ReadCSV(path string) ([]domain.ScoredRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read %s: missing header", path)
	}

	records := make([]domain.ScoredRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", path, i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (domain.ScoredRecord, error) {
	if len(row) != len(Header) {
		return domain.ScoredRecord{}, fmt.Errorf("expected %d columns, got %d", len(Header), len(row))
	}

	var sentimentScore float64
	if row[5] != "" {
		v, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return domain.ScoredRecord{}, fmt.Errorf("sentiment_score: %w", err)
		}
		sentimentScore = v
	}

	score, err := strconv.Atoi(row[8])
	if err != nil {
		return domain.ScoredRecord{}, fmt.Errorf("score: %w", err)
	}

	return domain.ScoredRecord{
		Entry: domain.Entry{Date: row[0], Code: row[1], Title: row[2]},
		Classification: domain.Classification{
			Genre:          domain.Genre(row[3]),
			SentimentLabel: row[4],
			SentimentScore: sentimentScore,
		},
		OfferPrice:    row[6],
		BuybackAmount: row[7],
		Score:         score,
		DocumentPath:  row[9],
	}, nil
}
