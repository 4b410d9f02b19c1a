package sync

import (
	"context"

	"wordsync/internal/model"
)

// Repository - хранилище серверных копий записей.
type Repository interface {
	// InTx выполняет fn в одной транзакции; ошибка fn откатывает ее.
	InTx(ctx context.Context, fn func(tx Repository) error) error

	// GetForUpdate блокирует запись по id. ErrRecordNotFound, если ее нет.
	GetForUpdate(ctx context.Context, id string) (*StoredRecord, error)

	// FindLiveForUpdate ищет живую запись владельца по естественному ключу.
	FindLiveForUpdate(ctx context.Context, ownerID int, kind model.Kind, naturalKey string) (*StoredRecord, error)

	// Save вставляет или обновляет запись и присваивает ей новый Seq.
	Save(ctx context.Context, rec *StoredRecord) error

	// ChangesSince возвращает записи владельца с Seq > afterSeq по возрастанию Seq.
	ChangesSince(ctx context.Context, ownerID int, afterSeq int64, limit int) ([]StoredRecord, error)

	// GetMany возвращает записи владельца по списку id.
	GetMany(ctx context.Context, ownerID int, ids []string) ([]StoredRecord, error)
}
