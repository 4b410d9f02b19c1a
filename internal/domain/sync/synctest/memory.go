// Package synctest содержит хранилище в памяти для тестов сервиса
// синхронизации и сквозных тестов клиента.
package synctest

import (
	"context"
	"sort"
	"sync"

	domainsync "wordsync/internal/domain/sync"
	"wordsync/internal/model"
)

type state struct {
	records map[string]domainsync.StoredRecord
	seq     int64
}

func (s *state) clone() *state {
	c := &state{records: make(map[string]domainsync.StoredRecord, len(s.records)), seq: s.seq}
	for k, v := range s.records {
		c.records[k] = v
	}
	return c
}

// MemoryRepository реализует domainsync.Repository поверх map.
type MemoryRepository struct {
	mu    *sync.Mutex
	st    **state
	inTx  bool
	saves int
}

func NewMemoryRepository() *MemoryRepository {
	st := &state{records: make(map[string]domainsync.StoredRecord)}
	return &MemoryRepository{mu: &sync.Mutex{}, st: &st}
}

func (m *MemoryRepository) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *MemoryRepository) InTx(ctx context.Context, fn func(tx domainsync.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := (*m.st).clone()
	tx := &MemoryRepository{mu: m.mu, st: m.st, inTx: true}
	if err := fn(tx); err != nil {
		*m.st = snapshot
		return err
	}
	m.saves += tx.saves
	return nil
}

func (m *MemoryRepository) GetForUpdate(_ context.Context, id string) (*domainsync.StoredRecord, error) {
	defer m.lock()()

	rec, ok := (*m.st).records[id]
	if !ok {
		return nil, domainsync.ErrRecordNotFound
	}
	return &rec, nil
}

func (m *MemoryRepository) FindLiveForUpdate(_ context.Context, ownerID int, kind model.Kind, naturalKey string) (*domainsync.StoredRecord, error) {
	defer m.lock()()

	for _, rec := range (*m.st).records {
		if rec.OwnerID == ownerID && rec.Kind == kind && rec.NaturalKey == naturalKey && !rec.Deleted {
			found := rec
			return &found, nil
		}
	}
	return nil, domainsync.ErrRecordNotFound
}

func (m *MemoryRepository) Save(_ context.Context, rec *domainsync.StoredRecord) error {
	defer m.lock()()

	st := *m.st
	st.seq++
	rec.Seq = st.seq
	st.records[rec.ID] = *rec
	m.saves++
	return nil
}

func (m *MemoryRepository) ChangesSince(_ context.Context, ownerID int, afterSeq int64, limit int) ([]domainsync.StoredRecord, error) {
	defer m.lock()()

	out := make([]domainsync.StoredRecord, 0)
	for _, rec := range (*m.st).records {
		if rec.OwnerID == ownerID && rec.Seq > afterSeq {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) GetMany(_ context.Context, ownerID int, ids []string) ([]domainsync.StoredRecord, error) {
	defer m.lock()()

	out := make([]domainsync.StoredRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := (*m.st).records[id]; ok && rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Seed кладет запись напрямую, минуя сервис.
func (m *MemoryRepository) Seed(rec domainsync.StoredRecord) {
	_ = m.Save(context.Background(), &rec)
}

// Record возвращает сохраненную копию записи.
func (m *MemoryRepository) Record(id string) (domainsync.StoredRecord, bool) {
	defer m.lock()()

	rec, ok := (*m.st).records[id]
	return rec, ok
}

// Live возвращает живые записи владельца с данным естественным ключом.
func (m *MemoryRepository) Live(ownerID int, kind model.Kind, naturalKey string) []domainsync.StoredRecord {
	defer m.lock()()

	out := make([]domainsync.StoredRecord, 0, 1)
	for _, rec := range (*m.st).records {
		if rec.OwnerID == ownerID && rec.Kind == kind && rec.NaturalKey == naturalKey && !rec.Deleted {
			out = append(out, rec)
		}
	}
	return out
}

// Saves - число успешных записей, зафиксированных транзакциями.
func (m *MemoryRepository) Saves() int {
	defer m.lock()()
	return m.saves
}
