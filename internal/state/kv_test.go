package state

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // driver for "sqlite"

	"github.com/vertechie/vertechie-learn/internal/db"
)

func testBackends(t *testing.T) map[string]KV {
	t.Helper()
	dbh, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { dbh.Close() })
	if err := db.EnsureSchema(context.Background(), dbh, db.DriverSQLite); err != nil {
		t.Fatal(err)
	}
	return map[string]KV{
		"memory": NewMemoryKV(),
		"sql":    NewSQLKV(dbh),
	}
}

func TestKVRoundtrip(t *testing.T) {
	for name, kv := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNoKey) {
				t.Fatalf("missing key err = %v, want ErrNoKey", err)
			}

			if err := kv.Set(ctx, "k", []byte("v1")); err != nil {
				t.Fatal(err)
			}
			got, err := kv.Get(ctx, "k")
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != "v1" {
				t.Fatalf("got %q", got)
			}

			// overwrite
			if err := kv.Set(ctx, "k", []byte("v2")); err != nil {
				t.Fatal(err)
			}
			got, _ = kv.Get(ctx, "k")
			if string(got) != "v2" {
				t.Fatalf("after overwrite got %q", got)
			}

			if err := kv.Delete(ctx, "k"); err != nil {
				t.Fatal(err)
			}
			if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrNoKey) {
				t.Fatalf("deleted key err = %v, want ErrNoKey", err)
			}
		})
	}
}

func TestMemoryKVCopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	buf := []byte("original")
	if err := kv.Set(ctx, "k", buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'X'

	got, err := kv.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "original" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}
}
