package postgres

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pairs/storage"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

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
CREATE TABLE IF NOT EXISTS pair_runs (
  id TEXT PRIMARY KEY,
  pair TEXT NOT NULL,
  symbol_a TEXT NOT NULL,
  symbol_b TEXT NOT NULL,
  start_date TEXT NOT NULL,
  end_date TEXT NOT NULL,
  trades INTEGER NOT NULL,
  total_return DOUBLE PRECISION NOT NULL,
  sharpe DOUBLE PRECISION,
  max_drawdown DOUBLE PRECISION NOT NULL,
  payload JSONB NOT NULL,
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pair_runs_created ON pair_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_pair_runs_pair ON pair_runs(pair);
`)
	return err
}

func (r *Repo) SaveRun(ctx context.Context, run storage.Run) error {
	row, err := storage.ToRow(run)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO pair_runs(id, pair, symbol_a, symbol_b, start_date, end_date, trades, total_return, sharpe, max_drawdown, payload, created_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT(id) DO UPDATE SET
  payload=EXCLUDED.payload,
  trades=EXCLUDED.trades,
  total_return=EXCLUDED.total_return,
  sharpe=EXCLUDED.sharpe,
  max_drawdown=EXCLUDED.max_drawdown
`, row.ID, row.Pair, row.SymbolA, row.SymbolB, row.Start, row.End, row.Trades, row.TotalReturn, row.Sharpe, row.MaxDrawdown, row.Payload, row.CreatedAtMs)
	return err
}

func (r *Repo) GetRun(ctx context.Context, id string) (storage.Run, error) {
	var (
		createdAt int64
		payload   string
	)
	err := r.db.QueryRowContext(ctx, `SELECT created_at, payload::text FROM pair_runs WHERE id = $1`, id).Scan(&createdAt, &payload)
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
SELECT id, created_at, payload::text FROM pair_runs ORDER BY created_at DESC, id LIMIT $1`, storage.ClampLimit(limit))
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
