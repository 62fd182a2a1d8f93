// Package report renders the scored disclosure table for the terminal.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/infrastructure/storage"
)

// All disables a filter.
const All = "all"

// ChartRows is how many rows of the view the bar chart shows.
const ChartRows = 20

// DefaultStoreLimit caps how many rows are read from a record store.
const DefaultStoreLimit = 1000

const barWidth = 30

// MissingFileWarning is printed when the result table has not been produced yet.
const MissingFileWarning = "スコアCSVが見つかりません。先に run を実行してください。"

// Options narrows and orders the view.
type Options struct {
	Genre     string
	Sentiment string
	Ascending bool
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")).MarginTop(1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	genreColors = map[domain.Genre]lipgloss.Color{
		domain.GenreTenderOffer:   lipgloss.Color("196"),
		domain.GenreBuyback:       lipgloss.Color("214"),
		domain.GenreDividendRaise: lipgloss.Color("42"),
		domain.GenreUpgrade:       lipgloss.Color("39"),
		domain.GenreAlliance:      lipgloss.Color("135"),
	}
)

// Show loads the CSV at path and renders it to w.
// A missing file is reported on w and is not an error.
func Show(w io.Writer, path string, opts Options) error {
	records, err := storage.ReadCSV(path)
	if errors.Is(err, fs.ErrNotExist) {
		_, werr := fmt.Fprintln(w, MissingFileWarning)
		return werr
	}
	if err != nil {
		return err
	}
	return Render(w, View(records, opts))
}

// RecordStore is a queryable copy of the result table, such as the SQLite mirror.
type RecordStore interface {
	TopScored(ctx context.Context, limit uint64) ([]domain.ScoredRecord, error)
}

// ShowStore renders the limit best-scored rows of store.
// When the query fails it says so on w and falls back to the CSV at csvPath.
func ShowStore(ctx context.Context, w io.Writer, store RecordStore, limit uint64, csvPath string, opts Options) error {
	if limit == 0 {
		limit = DefaultStoreLimit
	}

	records, err := store.TopScored(ctx, limit)
	if err != nil {
		if _, werr := fmt.Fprintln(w, mutedStyle.Render("SQLiteを読み込めません。CSVを表示します: "+err.Error())); werr != nil {
			return werr
		}
		return Show(w, csvPath, opts)
	}
	return Render(w, View(records, opts))
}

// View filters records and sorts them by score. Ties keep file order.
func View(records []domain.ScoredRecord, opts Options) []domain.ScoredRecord {
	out := make([]domain.ScoredRecord, 0, len(records))
	for _, r := range records {
		if !matches(opts.Genre, string(r.Genre)) || !matches(opts.Sentiment, r.SentimentLabel) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if opts.Ascending {
			return out[i].Score < out[j].Score
		}
		return out[i].Score > out[j].Score
	})
	return out
}

func matches(filter, value string) bool {
	return filter == "" || filter == All || filter == value
}

// Render writes the table and the bar chart.
func Render(w io.Writer, records []domain.ScoredRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("該当する開示はありません。"))
		return err
	}

	sections := []string{
		headerStyle.Render(fmt.Sprintf("適時開示スコア一覧 (%d件)", len(records))),
		recordTable(records),
		titleStyle.Render(fmt.Sprintf("スコア上位%d件", min(ChartRows, len(records)))),
		barChart(records[:min(ChartRows, len(records))]),
	}

	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, sections...))
	return err
}

func recordTable(records []domain.ScoredRecord) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("日付", "コード", "タイトル", "ジャンル", "センチメント", "スコア", "TOB価格", "自己株取得額").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			style := lipgloss.NewStyle().Padding(0, 1)
			if col == 3 && row >= 0 && row < len(records) {
				style = style.Foreground(genreColor(records[row].Genre))
			}
			return style
		})

	for _, r := range records {
		t.Row(
			r.Date,
			r.Code,
			truncate(r.Title, 40),
			string(r.Genre),
			sentimentCell(r),
			strconv.Itoa(r.Score),
			r.OfferPrice,
			r.BuybackAmount,
		)
	}
	return t.Render()
}

func sentimentCell(r domain.ScoredRecord) string {
	if r.SentimentLabel == "" {
		return "-"
	}
	return fmt.Sprintf("%s %.3f", r.SentimentLabel, r.SentimentScore)
}

func barChart(records []domain.ScoredRecord) string {
	maxScore := 0
	for _, r := range records {
		maxScore = max(maxScore, r.Score)
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		length := 0
		if maxScore > 0 {
			length = r.Score * barWidth / maxScore
		}
		bar := lipgloss.NewStyle().Foreground(genreColor(r.Genre)).Render(strings.Repeat("█", length))
		label := lipgloss.NewStyle().Width(30).Render(truncate(r.Code+" "+r.Title, 14))
		lines = append(lines, fmt.Sprintf("%s %s %d", label, bar, r.Score))
	}
	return strings.Join(lines, "\n")
}

func genreColor(g domain.Genre) lipgloss.Color {
	if c, ok := genreColors[g]; ok {
		return c
	}
	return lipgloss.Color("245")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
