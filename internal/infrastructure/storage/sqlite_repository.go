package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"DisclosureScanner/internal/domain"
	"DisclosureScanner/internal/ports"
)

const recordsTable = "scored_records"

// insertBatchSize rows of 11 columns stay far below SQLite's 32766 bound-variable limit.
const insertBatchSize = 500

var recordColumns = []string{
	"position", "date", "code", "title", "genre", "sentiment", "sentiment_score",
	"offer_price", "buyback_amount", "score", "document_path",
}

const schema = `CREATE TABLE IF NOT EXISTS scored_records (
	position        INTEGER PRIMARY KEY,
	date            TEXT NOT NULL,
	code            TEXT NOT NULL,
	title           TEXT NOT NULL,
	genre           TEXT NOT NULL,
	sentiment       TEXT NOT NULL,
	sentiment_score REAL NOT NULL,
	offer_price     TEXT NOT NULL,
	buyback_amount  TEXT NOT NULL,
	score           INTEGER NOT NULL,
	document_path   TEXT NOT NULL
)`

// SQLiteRepository mirrors the result table into SQLite, rebuilt per run.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.RecordSink = (*SQLiteRepository)(nil)

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Persist replaces all rows with records in one transaction.
func (r *SQLiteRepository) Persist(ctx context.Context, records []domain.ScoredRecord) error {
	if r.db == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := replaceRecords(ctx, tx, records); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func replaceRecords(ctx context.Context, tx *sql.Tx, records []domain.ScoredRecord) error {
	query, args, err := sq.Delete(recordsTable).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	for start := 0; start < len(records); start += insertBatchSize {
		end := min(start+insertBatchSize, len(records))
		if err := insertRecords(ctx, tx, start, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// insertRecords writes one multi-row INSERT; offset is the listing position of batch[0].
func insertRecords(ctx context.Context, tx *sql.Tx, offset int, batch []domain.ScoredRecord) error {
	insert := sq.Insert(recordsTable).Columns(recordColumns...)
	for i, rec := range batch {
		insert = insert.Values(
			offset+i, rec.Date, rec.Code, rec.Title, string(rec.Genre), rec.SentimentLabel, rec.SentimentScore,
			rec.OfferPrice, rec.BuybackAmount, rec.Score, rec.DocumentPath,
		)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert records %d-%d: %w", offset, offset+len(batch)-1, err)
	}
	return nil
}

// TopScored returns up to limit records ordered by score, highest first.
func (r *SQLiteRepository) TopScored(ctx context.Context, limit uint64) ([]domain.ScoredRecord, error) {
	query, args, err := sq.Select(
		"date", "code", "title", "genre", "sentiment", "sentiment_score",
		"offer_price", "buyback_amount", "score", "document_path",
	).From(recordsTable).OrderBy("score DESC", "position ASC").Limit(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var result []domain.ScoredRecord
	for rows.Next() {
		var (
			rec   domain.ScoredRecord
			genre string
		)
		if err := rows.Scan(
			&rec.Date, &rec.Code, &rec.Title, &genre, &rec.SentimentLabel, &rec.SentimentScore,
			&rec.OfferPrice, &rec.BuybackAmount, &rec.Score, &rec.DocumentPath,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Genre = domain.Genre(genre)
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}
