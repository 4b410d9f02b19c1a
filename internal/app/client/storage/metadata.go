package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const cursorKeyPrefix = "sync_cursor:"

// Metadata - key/value настройки клиента, в том числе курсор синхронизации.
type Metadata struct {
	db DBTX
}

func NewMetadata(db DBTX) *Metadata {
	return &Metadata{db: db}
}

// Get возвращает nil, если ключа нет.
func (r *Metadata) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *Metadata) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *Metadata) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete metadata[%s]: %w", key, err)
	}
	return nil
}

// Cursor возвращает сохраненный курсор владельца; пустая строка - с начала.
func (r *Metadata) Cursor(ctx context.Context, owner string) (string, error) {
	v, err := r.Get(ctx, cursorKeyPrefix+owner)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (r *Metadata) SetCursor(ctx context.Context, owner, cursor string) error {
	return r.Set(ctx, cursorKeyPrefix+owner, []byte(cursor))
}
