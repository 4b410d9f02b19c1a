// Package connectivity следит за доступностью сервера.
package connectivity

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"wordsync/internal/utils/notify"
)

const DefaultInterval = 3 * time.Second

// Pinger проверяет, отвечает ли сервер.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher опрашивает сервер и оповещает о переходах online/offline.
// Первая проверка только фиксирует состояние, переходом она не считается.
type Watcher struct {
	pinger   Pinger
	interval time.Duration
	log      *slog.Logger

	mu      sync.RWMutex
	online  bool
	checked bool

	listeners notify.Listeners[bool]
}

func NewWatcher(pinger Pinger, interval time.Duration, log *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		pinger:   pinger,
		interval: interval,
		log:      log.With(slog.String("component", "connectivity")),
	}
}

func (w *Watcher) Online() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.online
}

// Subscribe регистрирует обработчик переходов.
func (w *Watcher) Subscribe(fn func(online bool)) func() {
	return w.listeners.Add(fn)
}

// Check выполняет одну проверку и возвращает текущее состояние.
func (w *Watcher) Check(ctx context.Context) bool {
	online := w.pinger.Ping(ctx) == nil

	w.mu.Lock()
	changed := w.checked && online != w.online
	w.online = online
	w.checked = true
	w.mu.Unlock()

	if changed {
		w.log.Info("connectivity changed", "online", online)
		w.listeners.Notify(online)
	}
	return online
}

// Run проверяет связь сразу и затем каждые interval, пока жив ctx.
func (w *Watcher) Run(ctx context.Context) error {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
