package engine

import "time"

const (
	DefaultOnlineInterval  = 30 * time.Second
	DefaultOfflineInterval = 5 * time.Minute
)

// IntervalStrategy задает паузу до следующего планового цикла.
type IntervalStrategy interface {
	Next(online bool) time.Duration
}

// Polling - фиксированные интервалы для онлайна и офлайна.
type Polling struct {
	Online  time.Duration
	Offline time.Duration
}

func DefaultPolling() Polling {
	return Polling{Online: DefaultOnlineInterval, Offline: DefaultOfflineInterval}
}

func (p Polling) Next(online bool) time.Duration {
	if online {
		if p.Online <= 0 {
			return DefaultOnlineInterval
		}
		return p.Online
	}
	if p.Offline <= 0 {
		return DefaultOfflineInterval
	}
	return p.Offline
}
