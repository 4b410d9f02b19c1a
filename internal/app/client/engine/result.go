package engine

import (
	"time"

	"wordsync/internal/domain/conflict"
	"wordsync/internal/model"
)

type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateSuccess State = "success"
	StateError   State = "error"
)

type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerTimer     Trigger = "timer"
	TriggerReconnect Trigger = "reconnect"
	TriggerStartup   Trigger = "startup"
)

// Conflict - расхождение, разрешенное по last-write-wins.
// OtherID отличается от ID при коллизии естественного ключа.
type Conflict struct {
	ID      string        `json:"id" yaml:"id"`
	OtherID string        `json:"other_id,omitempty" yaml:"other_id,omitempty"`
	Kind    model.Kind    `json:"kind" yaml:"kind"`
	Type    conflict.Type `json:"type" yaml:"type"`
	Winner  string        `json:"winner" yaml:"winner"`
}

// Summary - что сделал один цикл.
type Summary struct {
	Applied   int           `json:"applied" yaml:"applied"`
	Accepted  int           `json:"accepted" yaml:"accepted"`
	Conflicts []Conflict    `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Rejected  []RecordError `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

type Result struct {
	Success   bool          `json:"success" yaml:"success"`
	Error     *Error        `json:"error,omitempty" yaml:"error,omitempty"`
	Summary   Summary       `json:"summary" yaml:"summary"`
	Trigger   Trigger       `json:"trigger" yaml:"trigger"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Event - переход состояния оркестратора. Result заполнен для success и error.
type Event struct {
	State   State
	Trigger Trigger
	Result  *Result
}
