package engine

import (
	"context"

	"wordsync/internal/model"
)

// Store - локальное хранилище записей в том объеме, который нужен движку.
// Get и FindLive возвращают (nil, nil), если записи нет.
type Store interface {
	QueryByStatus(ctx context.Context, owner string, statuses ...model.SyncStatus) ([]model.Record, error)
	Get(ctx context.Context, id string) (*model.Record, error)
	FindLive(ctx context.Context, owner string, kind model.Kind, naturalKey string) (*model.Record, error)
	Upsert(ctx context.Context, rec model.Record) error
	MarkSynced(ctx context.Context, id string, serverModifiedAt int64) error
	// Remove физически удаляет запись, которую сервер никогда не видел.
	Remove(ctx context.Context, id string) error
	// InTx выполняет fn в одной локальной транзакции.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// CursorStore хранит курсор последнего полученного серверного состояния.
type CursorStore interface {
	Cursor(ctx context.Context, owner string) (string, error)
	SetCursor(ctx context.Context, owner, cursor string) error
}

// Transport выполняет обмен с сервером целиком, со всеми страницами.
type Transport interface {
	Exchange(ctx context.Context, cursor string, changes []model.Change) (*model.ExchangeResult, error)
}

// Auth сообщает, можно ли сейчас синхронизироваться и от чьего имени.
type Auth interface {
	IsAuthenticated() bool
	Owner() string
	Subscribe(fn func(authenticated bool)) (unsubscribe func())
}

// Connectivity сообщает о состоянии сети.
type Connectivity interface {
	Online() bool
	Subscribe(fn func(online bool)) (unsubscribe func())
}
