package state

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type sqlKV struct {
	db *sql.DB
}

// NewSQLKV stores values in the kv_state table (sqlite or postgres).
func NewSQLKV(db *sql.DB) KV {
	return &sqlKV{db: db}
}

func (s *sqlKV) Get(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv_state WHERE k=$1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoKey
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

func (s *sqlKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_state (k, v, updated_at) VALUES ($1,$2,$3)
		 ON CONFLICT (k) DO UPDATE SET v=EXCLUDED.v, updated_at=EXCLUDED.updated_at`,
		key, string(value), time.Now().Unix())
	return err
}

func (s *sqlKV) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_state WHERE k=$1`, key)
	return err
}
