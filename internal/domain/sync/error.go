package sync

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidCursor  = errors.New("invalid cursor")
	ErrNoUser         = errors.New("user is not authenticated")
	ErrTooManyChanges = errors.New("too many changes in one request")
)

// RejectError - отказ по одной записи пакета. Остальные записи пакета
// обрабатываются дальше.
type RejectError struct {
	ID      string
	Code    string
	Message string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("record %s rejected (%s): %s", e.ID, e.Code, e.Message)
}

func reject(id, code, format string, args ...any) *RejectError {
	return &RejectError{ID: id, Code: code, Message: fmt.Sprintf(format, args...)}
}
