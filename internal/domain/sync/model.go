package sync

import (
	"encoding/json"

	"wordsync/internal/model"
)

// StoredRecord - авторитетная серверная копия записи.
// Seq растет при каждой записи и служит курсором выдачи изменений.
type StoredRecord struct {
	ID               string
	OwnerID          int
	Kind             model.Kind
	NaturalKey       string
	Payload          json.RawMessage
	Deleted          bool
	ClientModifiedAt int64
	ServerModifiedAt int64
	Seq              int64
}

func (r StoredRecord) ToServerRecord() model.ServerRecord {
	return model.ServerRecord{
		ID:               r.ID,
		Kind:             r.Kind,
		NaturalKey:       r.NaturalKey,
		Payload:          r.Payload,
		Deleted:          r.Deleted,
		ClientModifiedAt: r.ClientModifiedAt,
		ServerModifiedAt: r.ServerModifiedAt,
	}
}

// ServiceConfig конфигурация сервиса синхронизации
type ServiceConfig struct {
	PageLimit    int
	MaxPageLimit int
	MaxChanges   int
}

func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		PageLimit:    200,
		MaxPageLimit: 500,
		MaxChanges:   500,
	}
}
