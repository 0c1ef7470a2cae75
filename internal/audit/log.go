// Package audit appends CMS mutations to the event_log table so authoring
// changes stay traceable.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

type Event struct {
	Seq       int64
	Actor     string
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

type Log struct{ db *sql.DB }

func NewLog(db *sql.DB) *Log { return &Log{db: db} }

// Append records one event. data is marshalled to JSON; a nil data records
// an empty object.
func (l *Log) Append(ctx context.Context, actor, typ, key string, data any) error {
	payload := []byte("{}")
	if data != nil {
		if buf, err := json.Marshal(data); err == nil {
			payload = buf
		}
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO event_log (actor, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		actor, typ, key, string(payload), time.Now().Unix())
	return err
}

// Recent returns the latest n events, newest first.
func (l *Log) Recent(ctx context.Context, n int) ([]Event, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT seq, actor, typ, key, data, created_at FROM event_log ORDER BY seq DESC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.Actor, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
