// Package sqlite mirrors the trade journal into a SQLite database so
// trades can be queried offline (cmd/analyze) without parsing the JSONL
// file. The JSONL journal remains the durable source of truth.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"crypto-agentv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Journal persists trade records to SQLite.
type Journal struct {
	db *sql.DB
}

// NewJournal opens (or creates) the journal database with WAL mode and a
// single-writer connection pool.
func NewJournal(dbPath string) (*Journal, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		ts            TEXT NOT NULL,
		action        TEXT NOT NULL,
		price         REAL NOT NULL,
		size          REAL NOT NULL,
		fee           REAL NOT NULL,
		slippage      REAL NOT NULL,
		cost          REAL,
		revenue       REAL,
		pnl           REAL,
		pnl_pct       REAL,
		hold_hours    REAL,
		reason        TEXT,
		balance_quote REAL NOT NULL,
		balance_base  REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(ts);
	CREATE INDEX IF NOT EXISTS idx_trades_action ON trades(action);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	slog.Info("opened trade journal mirror", slog.String("path", dbPath))
	return &Journal{db: db}, nil
}

// Record inserts one trade. Implements ledger.Recorder.
func (j *Journal) Record(tr model.TradeRecord) error {
	_, err := j.db.Exec(
		`INSERT INTO trades (ts, action, price, size, fee, slippage, cost, revenue, pnl, pnl_pct, hold_hours, reason, balance_quote, balance_base)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.Timestamp.UTC().Format(time.RFC3339Nano),
		tr.Action, tr.Price, tr.Size, tr.Fee, tr.Slippage,
		tr.Cost, tr.Revenue, tr.PnL, tr.PnLPct, tr.HoldHours,
		tr.Reason, tr.BalanceQuote, tr.BalanceBase,
	)
	return err
}

// Trades returns all recorded trades in insertion order. limit <= 0
// returns everything.
func (j *Journal) Trades(limit int) ([]model.TradeRecord, error) {
	q := `SELECT ts, action, price, size, fee, slippage, cost, revenue, pnl, pnl_pct, hold_hours, reason, balance_quote, balance_base
	      FROM trades ORDER BY id`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = j.db.Query(q+" LIMIT ?", limit)
	} else {
		rows, err = j.db.Query(q)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TradeRecord
	for rows.Next() {
		var tr model.TradeRecord
		var ts string
		if err := rows.Scan(&ts, &tr.Action, &tr.Price, &tr.Size, &tr.Fee, &tr.Slippage,
			&tr.Cost, &tr.Revenue, &tr.PnL, &tr.PnLPct, &tr.HoldHours,
			&tr.Reason, &tr.BalanceQuote, &tr.BalanceBase); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			tr.Timestamp = t
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
