package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"wordsync/internal/domain/sync"
	"wordsync/internal/model"
)

const recordColumns = `id::text, owner_id, kind, natural_key, payload, deleted,
	client_modified_at, server_modified_at, seq`

// SyncRepository реализация репозитория синхронизации для PostgreSQL
type SyncRepository struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
	log  *slog.Logger
}

// NewSyncRepository создает новый репозиторий синхронизации
func NewSyncRepository(pool *pgxpool.Pool, log *slog.Logger) *SyncRepository {
	return &SyncRepository{
		pool: pool,
		q:    pool,
		log:  log,
	}
}

// InTx открывает транзакцию. Вложенный вызов использует уже открытую.
func (r *SyncRepository) InTx(ctx context.Context, fn func(tx sync.Repository) error) (err error) {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.log.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(&SyncRepository{pool: r.pool, q: tx, inTx: true, log: r.log}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *SyncRepository) GetForUpdate(ctx context.Context, id string) (*sync.StoredRecord, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM sync_records WHERE id = $1::uuid FOR UPDATE`, id)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SyncRepository) FindLiveForUpdate(ctx context.Context, ownerID int, kind model.Kind, naturalKey string) (*sync.StoredRecord, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM sync_records
		WHERE owner_id = $1 AND kind = $2 AND natural_key = $3 AND NOT deleted
		FOR UPDATE`, ownerID, string(kind), naturalKey)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save выполняет upsert и выдает записи следующий seq. Записи одного
// владельца сериализуются advisory-блокировкой до конца транзакции, так что
// порядок seq совпадает с порядком фиксации.
func (r *SyncRepository) Save(ctx context.Context, rec *sync.StoredRecord) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(rec.OwnerID)); err != nil {
		return fmt.Errorf("lock owner %d: %w", rec.OwnerID, err)
	}

	err := r.q.QueryRow(ctx, `
		INSERT INTO sync_records
			(id, owner_id, kind, natural_key, payload, deleted, client_modified_at, server_modified_at, seq)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, nextval('sync_records_seq'))
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			natural_key = EXCLUDED.natural_key,
			payload = EXCLUDED.payload,
			deleted = EXCLUDED.deleted,
			client_modified_at = EXCLUDED.client_modified_at,
			server_modified_at = EXCLUDED.server_modified_at,
			seq = EXCLUDED.seq
		WHERE sync_records.owner_id = EXCLUDED.owner_id
		RETURNING seq`,
		rec.ID, rec.OwnerID, string(rec.Kind), rec.NaturalKey, payloadParam(rec.Payload),
		rec.Deleted, rec.ClientModifiedAt, rec.ServerModifiedAt,
	).Scan(&rec.Seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("record %s belongs to another owner", rec.ID)
		}
		return fmt.Errorf("upsert record: %w", err)
	}

	return nil
}

func (r *SyncRepository) ChangesSince(ctx context.Context, ownerID int, afterSeq int64, limit int) ([]sync.StoredRecord, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+recordColumns+` FROM sync_records
		WHERE owner_id = $1 AND seq > $2
		ORDER BY seq
		LIMIT $3`, ownerID, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}

	return collectRecords(rows)
}

func (r *SyncRepository) GetMany(ctx context.Context, ownerID int, ids []string) ([]sync.StoredRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.q.Query(ctx,
		`SELECT `+recordColumns+` FROM sync_records
		WHERE owner_id = $1 AND id = ANY($2::text[]::uuid[])
		ORDER BY seq`, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	return collectRecords(rows)
}

func scanRecord(row pgx.Row) (sync.StoredRecord, error) {
	var (
		rec     sync.StoredRecord
		kind    string
		payload []byte
	)
	err := row.Scan(&rec.ID, &rec.OwnerID, &kind, &rec.NaturalKey, &payload, &rec.Deleted,
		&rec.ClientModifiedAt, &rec.ServerModifiedAt, &rec.Seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sync.StoredRecord{}, sync.ErrRecordNotFound
		}
		return sync.StoredRecord{}, fmt.Errorf("scan record: %w", err)
	}

	rec.Kind = model.Kind(kind)
	rec.Payload = payload
	return rec, nil
}

func collectRecords(rows pgx.Rows) ([]sync.StoredRecord, error) {
	defer rows.Close()

	var out []sync.StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// payloadParam передает jsonb как текст, пустой payload - как NULL.
func payloadParam(p []byte) any {
	if len(p) == 0 {
		return nil
	}
	return string(p)
}
