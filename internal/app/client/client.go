package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"wordsync/internal/app/client/auth"
	"wordsync/internal/app/client/config"
	"wordsync/internal/app/client/connectivity"
	"wordsync/internal/app/client/engine"
	"wordsync/internal/app/client/storage"
	"wordsync/internal/app/client/transport"
	"wordsync/internal/model"
)

var ErrNotLoggedIn = errors.New("не выполнен вход. Выполните: wordsync auth login")

const lastResultKeyPrefix = "last_sync:"

// App - клиент одного пользователя: локальный словарь и его синхронизация.
type App struct {
	cfg *config.Config
	log *slog.Logger

	storage   *storage.Storage
	records   *storage.Records
	meta      *storage.Metadata
	tokens    *auth.TokenStore
	transport *transport.Client
	watcher   *connectivity.Watcher
	orch      *engine.Orchestrator

	unsubscribe func()
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, err
	}

	st, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenStore(cfg.TokenPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	tr := transport.New(transport.Config{
		BaseURL:   cfg.BaseURL(),
		Timeout:   cfg.RequestTimeout,
		BatchSize: cfg.BatchSize,
	}, tokens, log)

	records := storage.NewRecords(st, nil)
	meta := storage.NewMetadata(st.DB())
	watcher := connectivity.NewWatcher(tr, cfg.OnlineCheckInterval, log)

	orch := engine.New(engine.Deps{
		Store:        records,
		Cursors:      meta,
		Transport:    tr,
		Auth:         tokens,
		Connectivity: watcher,
		Interval:     engine.Polling{Online: cfg.SyncInterval, Offline: cfg.OfflineInterval},
	}, log)

	app := &App{
		cfg:       cfg,
		log:       log,
		storage:   st,
		records:   records,
		meta:      meta,
		tokens:    tokens,
		transport: tr,
		watcher:   watcher,
		orch:      orch,
	}
	app.unsubscribe = orch.Subscribe(app.rememberResult)

	return app, nil
}

func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	return a.storage.Close()
}

// Run крутит проверку связи и плановую синхронизацию до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("client started", "server", a.cfg.BaseURL(), "env", a.cfg.Env)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.watcher.Run(ctx)
	})
	g.Go(func() error {
		return a.orch.Run(ctx)
	})

	err := g.Wait()
	a.log.Info("client stopped")
	return err
}

// Subscribe - переходы состояния синхронизации.
func (a *App) Subscribe(fn func(engine.Event)) func() {
	return a.orch.Subscribe(fn)
}

func (a *App) Register(ctx context.Context, login, password string) (int, error) {
	id, err := a.transport.Register(ctx, login, password)
	if err != nil {
		return 0, err
	}
	a.log.Info("user registered", "login", login, "user_id", id)
	return id, nil
}

// Login получает токен и сохраняет его; после входа цикл можно запускать.
func (a *App) Login(ctx context.Context, login, password string) error {
	sess, err := a.transport.Login(ctx, login, password)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(sess.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	a.log.Info("logged in", "login", login, "user_id", sess.UserID)
	return nil
}

// Logout забывает токен. Локальные данные и очередь изменений остаются.
func (a *App) Logout() error {
	return a.tokens.Clear()
}

// Sync - один ручной цикл.
func (a *App) Sync(ctx context.Context) engine.Result {
	return a.orch.Sync(ctx, engine.TriggerManual)
}

// TriggerSync запускает ручной цикл в фоне, не дожидаясь его конца. Итог
// приходит в канал и подписчикам Subscribe.
func (a *App) TriggerSync(ctx context.Context) <-chan engine.Result {
	return a.orch.Trigger(ctx, engine.TriggerManual)
}

// Status - сводка для `sync --status`.
type Status struct {
	Owner         string                   `json:"owner" yaml:"owner"`
	Authenticated bool                     `json:"authenticated" yaml:"authenticated"`
	Online        bool                     `json:"online" yaml:"online"`
	Server        string                   `json:"server" yaml:"server"`
	Pending       int                      `json:"pending" yaml:"pending"`
	Counts        map[model.SyncStatus]int `json:"counts" yaml:"counts"`
	LastResult    *engine.Result           `json:"last_result,omitempty" yaml:"last_result,omitempty"`
}

func (a *App) Status(ctx context.Context) (*Status, error) {
	owner := a.tokens.Owner()
	st := &Status{
		Owner:         owner,
		Authenticated: a.tokens.IsAuthenticated(),
		Online:        a.watcher.Check(ctx),
		Server:        a.cfg.BaseURL(),
		Counts:        map[model.SyncStatus]int{},
	}
	if owner == "" {
		return st, nil
	}

	counts, err := a.records.Counts(ctx, owner)
	if err != nil {
		return nil, err
	}
	st.Counts = counts
	for _, s := range model.PendingStatuses {
		st.Pending += counts[s]
	}

	if last := a.orch.LastResult(); last != nil {
		st.LastResult = last
		return st, nil
	}
	raw, err := a.meta.Get(ctx, lastResultKeyPrefix+owner)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		var res engine.Result
		if err := json.Unmarshal(raw, &res); err != nil {
			a.log.Warn("stored sync result is unreadable", "error", err)
		} else {
			st.LastResult = &res
		}
	}

	return st, nil
}

// rememberResult сохраняет итог цикла, чтобы его видели следующие запуски CLI.
func (a *App) rememberResult(e engine.Event) {
	if e.Result == nil {
		return
	}
	raw, err := json.Marshal(e.Result)
	if err != nil {
		a.log.Warn("encode sync result", "error", err)
		return
	}
	if err := a.meta.Set(context.Background(), lastResultKeyPrefix+a.tokens.Owner(), raw); err != nil {
		a.log.Warn("save sync result", "error", err)
	}
}

func (a *App) owner() (string, error) {
	owner := a.tokens.Owner()
	if owner == "" {
		return "", ErrNotLoggedIn
	}
	return owner, nil
}
