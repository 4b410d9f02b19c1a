package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"wordsync/internal/app/client/engine"
	"wordsync/internal/model"
	"wordsync/internal/utils/clock"
)

const recordColumns = `id, owner, kind, natural_key, payload, sync_status,
	client_modified_at, server_modified_at, deleted`

// Records - журнал синхронизируемых записей. Доменные операции (Create,
// Update, Delete) ведут статусы local_*, а из local_* записи выводит
// только движок синхронизации.
type Records struct {
	conn  *sql.DB
	db    DBTX
	clock clock.Clock
	inTx  bool
}

func NewRecords(s *Storage, clk clock.Clock) *Records {
	if clk == nil {
		clk = clock.System{}
	}
	return &Records{conn: s.db, db: s.db, clock: clk}
}

var _ engine.Store = (*Records)(nil)

func (r *Records) InTx(ctx context.Context, fn func(tx engine.Store) error) error {
	if r.inTx {
		return fn(r)
	}
	return WithTx(ctx, r.conn, nil, func(ctx context.Context, tx DBTX) error {
		return fn(&Records{conn: r.conn, db: tx, clock: r.clock, inTx: true})
	})
}

// QueryByStatus возвращает записи владельца с указанными статусами в порядке
// client_modified_at, при равенстве - по id.
func (r *Records) QueryByStatus(ctx context.Context, owner string, statuses ...model.SyncStatus) ([]model.Record, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(statuses)+1)
	args = append(args, owner)
	marks := make([]string, 0, len(statuses))
	for _, s := range statuses {
		args = append(args, string(s))
		marks = append(marks, "?")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records
		WHERE owner = ? AND sync_status IN (`+strings.Join(marks, ",")+`)
		ORDER BY client_modified_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}

	return collect(rows)
}

func (r *Records) Get(ctx context.Context, id string) (*model.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	return scanOptional(row)
}

func (r *Records) FindLive(ctx context.Context, owner string, kind model.Kind, naturalKey string) (*model.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records
		WHERE owner = ? AND kind = ? AND natural_key = ? AND deleted = 0`,
		owner, string(kind), naturalKey)
	return scanOptional(row)
}

func (r *Records) Upsert(ctx context.Context, rec model.Record) error {
	if !rec.SyncStatus.Valid() {
		return fmt.Errorf("record %s: invalid sync status %q", rec.ID, rec.SyncStatus)
	}
	if err := rec.CheckSynced(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			natural_key = excluded.natural_key,
			payload = excluded.payload,
			sync_status = excluded.sync_status,
			client_modified_at = excluded.client_modified_at,
			server_modified_at = excluded.server_modified_at,
			deleted = excluded.deleted
		WHERE records.owner = excluded.owner`,
		rec.ID, rec.Owner, string(rec.Kind), rec.NaturalKey, payloadText(rec.Payload),
		string(rec.SyncStatus), rec.ClientModifiedAt, rec.ServerModifiedAt, rec.Deleted)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %s", ErrDuplicate, rec.Kind, rec.NaturalKey)
		}
		return fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	return nil
}

func (r *Records) MarkSynced(ctx context.Context, id string, serverModifiedAt int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE records SET sync_status = ?, server_modified_at = ?
		WHERE id = ? AND client_modified_at <= ?`,
		string(model.StatusSynced), serverModifiedAt, id, serverModifiedAt)
	if err != nil {
		return fmt.Errorf("mark synced %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark synced %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *Records) Remove(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

// Create заводит новую запись со статусом local_new.
func (r *Records) Create(ctx context.Context, owner string, kind model.Kind, payload json.RawMessage) (model.Record, error) {
	key, err := model.NaturalKey(kind, payload)
	if err != nil {
		return model.Record{}, err
	}

	rec := model.Record{
		ID:               uuid.NewString(),
		Owner:            owner,
		Kind:             kind,
		NaturalKey:       key,
		Payload:          payload,
		SyncStatus:       model.StatusLocalNew,
		ClientModifiedAt: r.clock.NowMillis(),
	}

	err = r.InTx(ctx, func(tx engine.Store) error {
		existing, err := tx.FindLive(ctx, owner, kind, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s %s", ErrDuplicate, kind, key)
		}
		return tx.Upsert(ctx, rec)
	})
	if err != nil {
		return model.Record{}, err
	}

	return rec, nil
}

// Update меняет payload живой записи. Новая запись остается local_new,
// остальные становятся local_modified.
func (r *Records) Update(ctx context.Context, id string, payload json.RawMessage) (model.Record, error) {
	var out model.Record

	err := r.InTx(ctx, func(tx engine.Store) error {
		rec, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil || rec.Deleted {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		key, err := model.NaturalKey(rec.Kind, payload)
		if err != nil {
			return err
		}
		if key != rec.NaturalKey {
			other, err := tx.FindLive(ctx, rec.Owner, rec.Kind, key)
			if err != nil {
				return err
			}
			if other != nil && other.ID != rec.ID {
				return fmt.Errorf("%w: %s %s", ErrDuplicate, rec.Kind, key)
			}
		}

		rec.NaturalKey = key
		rec.Payload = payload
		rec.ClientModifiedAt = r.bump(rec.ClientModifiedAt)
		if rec.SyncStatus != model.StatusLocalNew {
			rec.SyncStatus = model.StatusLocalModified
		}

		out = *rec
		return tx.Upsert(ctx, *rec)
	})

	return out, err
}

// Delete превращает живую запись в надгробие local_deleted. Физически
// запись удаляет только Purge после подтверждения сервером.
func (r *Records) Delete(ctx context.Context, id string) error {
	return r.InTx(ctx, func(tx engine.Store) error {
		rec, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil || rec.Deleted {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		rec.Deleted = true
		rec.SyncStatus = model.StatusLocalDeleted
		rec.ClientModifiedAt = r.bump(rec.ClientModifiedAt)
		return tx.Upsert(ctx, *rec)
	})
}

// ListLive - доменный запрос: надгробия не возвращаются. Пустой kind - все типы.
func (r *Records) ListLive(ctx context.Context, owner string, kind model.Kind) ([]model.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE owner = ? AND deleted = 0`
	args := []any{owner}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY kind, natural_key`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list live: %w", err)
	}

	return collect(rows)
}

// Purge удаляет надгробия, удаление которых сервер уже подтвердил.
func (r *Records) Purge(ctx context.Context, owner string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM records WHERE owner = ? AND deleted = 1 AND sync_status = ?`,
		owner, string(model.StatusSynced))
	if err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}
	return n, nil
}

// Counts возвращает число записей владельца по статусам.
func (r *Records) Counts(ctx context.Context, owner string) (map[model.SyncStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sync_status, COUNT(*) FROM records WHERE owner = ? GROUP BY sync_status`, owner)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	out := make(map[model.SyncStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[model.SyncStatus(status)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return out, nil
}

// bump выдает метку локальной правки, строго большую предыдущей.
func (r *Records) bump(prev int64) int64 {
	now := r.clock.NowMillis()
	if now <= prev {
		return prev + 1
	}
	return now
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (model.Record, error) {
	var (
		rec          model.Record
		kind, status string
		payload      sql.NullString
	)
	err := s.Scan(&rec.ID, &rec.Owner, &kind, &rec.NaturalKey, &payload, &status,
		&rec.ClientModifiedAt, &rec.ServerModifiedAt, &rec.Deleted)
	if err != nil {
		return model.Record{}, err
	}

	rec.Kind = model.Kind(kind)
	rec.SyncStatus = model.SyncStatus(status)
	if payload.Valid {
		rec.Payload = json.RawMessage(payload.String)
	}
	return rec, nil
}

func scanOptional(row *sql.Row) (*model.Record, error) {
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	return &rec, nil
}

func collect(rows *sql.Rows) ([]model.Record, error) {
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func payloadText(p json.RawMessage) any {
	if len(p) == 0 {
		return nil
	}
	return string(p)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
