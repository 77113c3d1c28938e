package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	authclient "github.com/goliatone/go-auth-client"
)

type kvEntry struct {
	bun.BaseModel `bun:"table:kv_entries"`

	Name      string    `bun:"name,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Bun keeps entries in the kv_entries table of a SQLite database.
type Bun struct {
	db  *bun.DB
	now func() time.Time
}

var _ authclient.Storage = (*Bun)(nil)

// OpenBun opens the SQLite database at dsn. Use ":memory:" for an ephemeral
// database.
func OpenBun(ctx context.Context, dsn string) (*Bun, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	sqldb.SetMaxOpenConns(1)

	store, err := NewBun(ctx, bun.NewDB(sqldb, sqlitedialect.New()))
	if err != nil {
		sqldb.Close()
		return nil, err
	}
	return store, nil
}

// NewBun wraps an existing bun database and creates the table if needed.
func NewBun(ctx context.Context, db *bun.DB) (*Bun, error) {
	_, err := db.NewCreateTable().
		Model((*kvEntry)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("create kv_entries: %w", err)
	}
	return &Bun{db: db, now: time.Now}, nil
}

func (b *Bun) Get(ctx context.Context, key string) (string, bool, error) {
	entry := &kvEntry{}
	err := b.db.NewSelect().
		Model(entry).
		Where("name = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (b *Bun) Set(ctx context.Context, key, value string) error {
	entry := &kvEntry{Name: key, Value: value, UpdatedAt: b.now().UTC()}
	_, err := b.db.NewInsert().
		Model(entry).
		On("CONFLICT (name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (b *Bun) Delete(ctx context.Context, key string) error {
	_, err := b.db.NewDelete().
		Model((*kvEntry)(nil)).
		Where("name = ?", key).
		Exec(ctx)
	return err
}

// Close closes the underlying database
func (b *Bun) Close() error {
	return b.db.Close()
}
