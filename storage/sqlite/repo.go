package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"pairs/storage"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  pair TEXT NOT NULL,
  symbol_a TEXT NOT NULL,
  symbol_b TEXT NOT NULL,
  start_date TEXT NOT NULL,
  end_date TEXT NOT NULL,
  trades INTEGER NOT NULL,
  total_return REAL NOT NULL,
  sharpe REAL,
  max_drawdown REAL NOT NULL,
  payload TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_pair ON runs(pair);
`)
	return err
}

func (r *Repo) SaveRun(ctx context.Context, run storage.Run) error {
	row, err := storage.ToRow(run)
	if err != nil {
		return err
	}
	var sharpe sql.NullFloat64
	if row.Sharpe != nil {
		sharpe = sql.NullFloat64{Float64: *row.Sharpe, Valid: true}
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO runs(id, pair, symbol_a, symbol_b, start_date, end_date, trades, total_return, sharpe, max_drawdown, payload, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  payload=excluded.payload,
  trades=excluded.trades,
  total_return=excluded.total_return,
  sharpe=excluded.sharpe,
  max_drawdown=excluded.max_drawdown
`, row.ID, row.Pair, row.SymbolA, row.SymbolB, row.Start, row.End, row.Trades, row.TotalReturn, sharpe, row.MaxDrawdown, row.Payload, row.CreatedAtMs)
	return err
}

func (r *Repo) GetRun(ctx context.Context, id string) (storage.Run, error) {
	var (
		createdAt int64
		payload   string
	)
	err := r.db.QueryRowContext(ctx, `SELECT created_at, payload FROM runs WHERE id = ?`, id).Scan(&createdAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Run{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Run{}, err
	}
	return storage.FromRow(id, createdAt, payload)
}

func (r *Repo) ListRuns(ctx context.Context, limit int) ([]storage.Run, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, created_at, payload FROM runs ORDER BY created_at DESC, id LIMIT ?`, storage.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []storage.Run{}
	for rows.Next() {
		var (
			id        string
			createdAt int64
			payload   string
		)
		if err := rows.Scan(&id, &createdAt, &payload); err != nil {
			return nil, err
		}
		run, err := storage.FromRow(id, createdAt, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

var _ storage.Repository = (*Repo)(nil)
