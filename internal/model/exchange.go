package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInconsistentRecord - серверная версия не может стать synced-записью.
var ErrInconsistentRecord = errors.New("inconsistent server record")

// Статусы ответа API.
const (
	StatusOk    = "Ok"
	StatusError = "Error"
)

// Коды отказа по отдельной записи.
const (
	RejectInvalid   = "ServerRejected"
	RejectForbidden = "Forbidden"
)

// Change - локальная мутация в том виде, в каком она уходит на сервер.
// BaseServerModifiedAt - версия сервера, от которой клиент делал правку
// (0, если запись сервер еще не видел).
type Change struct {
	ID                   string          `json:"id" doc:"UUID записи"`
	Kind                 Kind            `json:"kind"`
	NaturalKey           string          `json:"natural_key,omitempty"`
	Payload              json.RawMessage `json:"payload,omitempty"`
	Deleted              bool            `json:"deleted,omitempty"`
	ClientModifiedAt     int64           `json:"client_modified_at"`
	BaseServerModifiedAt int64           `json:"base_server_modified_at,omitempty"`
}

// ChangeFromRecord переводит запись журнала в формат отправки.
func ChangeFromRecord(r Record) Change {
	return Change{
		ID:                   r.ID,
		Kind:                 r.Kind,
		NaturalKey:           r.NaturalKey,
		Payload:              r.Payload,
		Deleted:              r.Deleted,
		ClientModifiedAt:     r.ClientModifiedAt,
		BaseServerModifiedAt: r.ServerModifiedAt,
	}
}

// ServerRecord - состояние записи на сервере.
type ServerRecord struct {
	ID               string          `json:"id"`
	Kind             Kind            `json:"kind"`
	NaturalKey       string          `json:"natural_key"`
	Payload          json.RawMessage `json:"payload,omitempty"`
	Deleted          bool            `json:"deleted,omitempty"`
	ClientModifiedAt int64           `json:"client_modified_at"`
	ServerModifiedAt int64           `json:"server_modified_at"`
}

// Check проверяет, что из серверной версии получится корректная synced-запись:
// известный тип, clientModifiedAt <= serverModifiedAt, а у живой записи
// payload-объект, из которого выводится ровно присланный естественный ключ.
func (s ServerRecord) Check() error {
	if s.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInconsistentRecord)
	}
	if err := s.Kind.Validate(); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInconsistentRecord, s.ID, err)
	}
	if s.ServerModifiedAt <= 0 {
		return fmt.Errorf("%w %q: missing server_modified_at", ErrInconsistentRecord, s.ID)
	}
	if s.ClientModifiedAt > s.ServerModifiedAt {
		return fmt.Errorf("%w %q: client_modified_at %d > server_modified_at %d",
			ErrInconsistentRecord, s.ID, s.ClientModifiedAt, s.ServerModifiedAt)
	}
	if s.Deleted {
		return nil
	}

	key, err := NaturalKey(s.Kind, s.Payload)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInconsistentRecord, s.ID, err)
	}
	if key != s.NaturalKey {
		return fmt.Errorf("%w %q: natural key %q, payload gives %q", ErrInconsistentRecord, s.ID, s.NaturalKey, key)
	}
	return nil
}

// ToRecord превращает серверную версию в синхронизированную локальную запись.
func (s ServerRecord) ToRecord(owner string) Record {
	return Record{
		ID:               s.ID,
		Owner:            owner,
		Kind:             s.Kind,
		NaturalKey:       s.NaturalKey,
		Payload:          s.Payload,
		SyncStatus:       StatusSynced,
		ClientModifiedAt: s.ClientModifiedAt,
		ServerModifiedAt: s.ServerModifiedAt,
		Deleted:          s.Deleted,
	}
}

// Ack - сервер принял изменение и проставил свою отметку времени.
type Ack struct {
	ID               string `json:"id"`
	ServerModifiedAt int64  `json:"server_modified_at"`
}

// Supersession - изменение проиграло более свежей серверной версии.
// WinnerID совпадает с ID, если конфликт был по той же записи, и отличается
// при коллизии естественного ключа.
type Supersession struct {
	ID       string `json:"id"`
	WinnerID string `json:"winner_id"`
}

// Rejection - сервер отклонил конкретную запись.
type Rejection struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ExchangeRequest - тело POST /api/v1/sync.
type ExchangeRequest struct {
	Cursor  string   `json:"cursor" doc:"Непрозрачный курсор последнего полученного состояния; пустой - с начала"`
	Limit   int      `json:"limit,omitempty" minimum:"0" maximum:"500" doc:"Размер страницы серверных изменений"`
	Changes []Change `json:"changes" maxItems:"500" nullable:"true"`
}

// ExchangeResponse - ответ POST /api/v1/sync.
type ExchangeResponse struct {
	Status        string         `json:"status"`
	Error         string         `json:"error,omitempty"`
	Accepted      []Ack          `json:"accepted,omitempty"`
	Superseded    []Supersession `json:"superseded,omitempty"`
	Rejected      []Rejection    `json:"rejected,omitempty"`
	ServerChanges []ServerRecord `json:"server_changes,omitempty"`
	NewCursor     string         `json:"new_cursor,omitempty"`
	HasMore       bool           `json:"has_more,omitempty"`
}

// ExchangeResult - итог одного (возможно многостраничного) обмена,
// собранный транспортом целиком до передачи в Reconciler.
type ExchangeResult struct {
	Acks          []Ack
	Superseded    []Supersession
	Rejected      []Rejection
	ServerChanges []ServerRecord
	NewCursor     string
	RoundTrips    int
}

// AcceptedIDs возвращает идентификаторы принятых сервером изменений.
func (r *ExchangeResult) AcceptedIDs() []string {
	ids := make([]string, 0, len(r.Acks))
	for _, a := range r.Acks {
		ids = append(ids, a.ID)
	}
	return ids
}
