package model

import (
	"encoding/json"
	"fmt"
)

// SyncStatus - состояние записи относительно сервера.
type SyncStatus string

const (
	StatusSynced        SyncStatus = "synced"
	StatusLocalNew      SyncStatus = "local_new"
	StatusLocalModified SyncStatus = "local_modified"
	StatusLocalDeleted  SyncStatus = "local_deleted"
)

// PendingStatuses - все статусы, означающие неотправленную локальную мутацию.
var PendingStatuses = []SyncStatus{StatusLocalNew, StatusLocalModified, StatusLocalDeleted}

func (s SyncStatus) Valid() bool {
	switch s {
	case StatusSynced, StatusLocalNew, StatusLocalModified, StatusLocalDeleted:
		return true
	}
	return false
}

// Pending сообщает, ждет ли запись отправки на сервер.
func (s SyncStatus) Pending() bool {
	return s.Valid() && s != StatusSynced
}

// Record - синхронизируемая запись вместе с метаданными журнала мутаций.
//
// Временные метки хранятся в миллисекундах Unix. ServerModifiedAt == 0
// означает, что сервер запись еще не подтверждал.
type Record struct {
	ID               string          `json:"id"`
	Owner            string          `json:"owner"`
	Kind             Kind            `json:"kind"`
	NaturalKey       string          `json:"natural_key"`
	Payload          json.RawMessage `json:"payload"`
	SyncStatus       SyncStatus      `json:"sync_status"`
	ClientModifiedAt int64           `json:"client_modified_at"`
	ServerModifiedAt int64           `json:"server_modified_at,omitempty"`
	Deleted          bool            `json:"deleted"`
}

// Live - запись видна доменным запросам.
func (r Record) Live() bool {
	return !r.Deleted
}

// Acknowledged - сервер хотя бы раз принял запись.
func (r Record) Acknowledged() bool {
	return r.ServerModifiedAt > 0
}

// CheckSynced проверяет инвариант synced => clientModifiedAt <= serverModifiedAt.
func (r Record) CheckSynced() error {
	if r.SyncStatus != StatusSynced {
		return nil
	}
	if r.ClientModifiedAt > r.ServerModifiedAt {
		return fmt.Errorf("record %s: synced with client_modified_at %d > server_modified_at %d",
			r.ID, r.ClientModifiedAt, r.ServerModifiedAt)
	}
	return nil
}
