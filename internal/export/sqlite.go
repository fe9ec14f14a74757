package export

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/bighogz/form4-sales/internal/models"
)

// SQLiteSink keeps sale rows keyed by target date.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens the database at dsn and configures WAL mode.
func OpenSQLite(dsn string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSink{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS form4_sales (
	id                    TEXT PRIMARY KEY,
	run_id                TEXT NOT NULL,
	target_date           TEXT NOT NULL,
	reporting_person      TEXT NOT NULL,
	officer_title         TEXT NOT NULL,
	issuer_name           TEXT NOT NULL,
	shares_sold           REAL NOT NULL,
	price_per_share       REAL NOT NULL,
	total_sale_value      REAL NOT NULL,
	transaction_date      TEXT NOT NULL,
	transaction_table     TEXT NOT NULL,
	percent_holdings_sold REAL NOT NULL,
	filing_url            TEXT NOT NULL,
	direct_or_indirect    TEXT NOT NULL,
	nature_of_ownership   TEXT NOT NULL,
	created_at            DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_form4_sales_target_date ON form4_sales(target_date);
`

func (s *SQLiteSink) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// Replace swaps the stored rows for date with sales in one transaction.
func (s *SQLiteSink) Replace(ctx context.Context, runID, date string, sales []models.SaleRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM form4_sales WHERE target_date = ?`, date); err != nil {
		return eris.Wrap(err, "sqlite: clear date")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO form4_sales (
		id, run_id, target_date, reporting_person, officer_title, issuer_name,
		shares_sold, price_per_share, total_sale_value, transaction_date,
		transaction_table, percent_holdings_sold, filing_url,
		direct_or_indirect, nature_of_ownership, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, sale := range sales {
		rec := newSaleRecord(sale)
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), runID, date,
			rec.ReportingPerson, rec.OfficerTitle, rec.IssuerName,
			rec.SharesSold, rec.PricePerShare, rec.TotalSaleValue, rec.TransactionDate,
			rec.TransactionTable, rec.PercentHoldingsSold, rec.FilingURL,
			rec.DirectOrIndirect, rec.NatureOfOwnership, now,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert sale")
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// Count returns the number of stored rows for date.
func (s *SQLiteSink) Count(ctx context.Context, date string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM form4_sales WHERE target_date = ?`, date).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count")
}
