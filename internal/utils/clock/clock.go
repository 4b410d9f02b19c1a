package clock

import (
	"sync/atomic"
	"time"
)

// Clock возвращает текущее время в миллисекундах Unix.
// Все отметки clientModifiedAt/serverModifiedAt берутся отсюда.
type Clock interface {
	NowMillis() int64
}

// System - настенные часы процесса.
type System struct{}

func (System) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Manual - часы, которые двигаются только вручную. Используются в тестах.
type Manual struct {
	ms atomic.Int64
}

// NewManual создает часы, стоящие на start.
func NewManual(start int64) *Manual {
	c := &Manual{}
	c.ms.Store(start)
	return c
}

func (c *Manual) NowMillis() int64 {
	return c.ms.Load()
}

// Set переставляет часы.
func (c *Manual) Set(ms int64) {
	c.ms.Store(ms)
}

// Advance сдвигает часы на d миллисекунд и возвращает новое значение.
func (c *Manual) Advance(d int64) int64 {
	return c.ms.Add(d)
}
