package engine

import (
	"errors"
	"fmt"

	"wordsync/internal/app/client/transport"
)

// Code - класс ошибки цикла синхронизации.
type Code string

const (
	CodeNotAuthenticated  Code = "NotAuthenticated"
	CodeAlreadyInProgress Code = "AlreadyInProgress"
	CodeTransport         Code = "TransportError"
	CodeServerRejected    Code = "ServerRejected"
	CodeReconciliation    Code = "ReconciliationError"
)

// Error - ошибка, которую видит вызывающий Sync. Наружу движок ничего
// другого не возвращает.
type Error struct {
	Code    Code   `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Err     error  `json:"-" yaml:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// transportError раскладывает ошибку обмена по кодам.
func transportError(err error) *Error {
	switch {
	case errors.Is(err, transport.ErrUnauthorized):
		return newError(CodeNotAuthenticated, "server rejected credentials", err)
	case errors.Is(err, transport.ErrMalformedResponse):
		return newError(CodeReconciliation, "inconsistent server response", err)
	default:
		return newError(CodeTransport, "exchange failed", err)
	}
}

// RecordError - отказ по отдельной записи; цикл при этом не прерывается.
type RecordError struct {
	ID      string `json:"id" yaml:"id"`
	Code    Code   `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}
