package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"wordsync/internal/model"
	"wordsync/internal/utils/notify"
)

// Deps - все, что нужно оркестратору. Interval и Now необязательны.
type Deps struct {
	Store        Store
	Cursors      CursorStore
	Transport    Transport
	Auth         Auth
	Connectivity Connectivity
	Interval     IntervalStrategy
	Now          func() time.Time
}

// Orchestrator запускает циклы синхронизации: вручную, по таймеру, при
// появлении сети и на старте. Одновременно идет не больше одного цикла;
// лишние запросы получают AlreadyInProgress, очереди нет.
type Orchestrator struct {
	collector  *Collector
	reconciler *Reconciler
	transport  Transport
	cursors    CursorStore
	auth       Auth
	conn       Connectivity
	interval   IntervalStrategy
	now        func() time.Time
	log        *slog.Logger

	mu      sync.Mutex
	running bool
	state   State
	last    *Result

	listeners notify.Listeners[Event]
}

func New(deps Deps, log *slog.Logger) *Orchestrator {
	if deps.Interval == nil {
		deps.Interval = DefaultPolling()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Orchestrator{
		collector:  NewCollector(deps.Store),
		reconciler: NewReconciler(deps.Store, log),
		transport:  deps.Transport,
		cursors:    deps.Cursors,
		auth:       deps.Auth,
		conn:       deps.Connectivity,
		interval:   deps.Interval,
		now:        deps.Now,
		log:        log.With(slog.String("component", "orchestrator")),
		state:      StateIdle,
	}
}

// Subscribe регистрирует наблюдателя переходов состояния.
func (o *Orchestrator) Subscribe(fn func(Event)) func() {
	return o.listeners.Add(fn)
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastResult - итог последнего выполненного цикла, nil если циклов не было.
func (o *Orchestrator) LastResult() *Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return nil
	}
	res := *o.last
	return &res
}

// Trigger запускает цикл в фоне. Канал получает ровно один Result и закрывается.
func (o *Orchestrator) Trigger(ctx context.Context, trigger Trigger) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- o.Sync(ctx, trigger)
	}()
	return ch
}

// Sync выполняет один цикл и ждет его завершения. Отказ по входу
// (NotAuthenticated, AlreadyInProgress) состояние не меняет.
func (o *Orchestrator) Sync(ctx context.Context, trigger Trigger) Result {
	start := o.now()

	if !o.auth.IsAuthenticated() {
		return refused(trigger, start, CodeNotAuthenticated, "not authenticated")
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return refused(trigger, start, CodeAlreadyInProgress, "sync already in progress")
	}
	o.running = true
	o.mu.Unlock()

	o.transition(StateSyncing, trigger, nil)
	res := o.cycle(ctx, trigger, start)

	o.mu.Lock()
	o.last = &res
	o.mu.Unlock()

	if res.Success {
		o.log.Info("sync finished",
			"trigger", trigger,
			"accepted", res.Summary.Accepted,
			"applied", res.Summary.Applied,
			"conflicts", len(res.Summary.Conflicts),
			"rejected", len(res.Summary.Rejected),
			"duration", res.Duration,
		)
		o.transition(StateSuccess, trigger, &res)
	} else {
		o.log.Warn("sync failed", "trigger", trigger, "code", res.Error.Code, "error", res.Error)
		o.transition(StateError, trigger, &res)
	}
	o.transition(StateIdle, trigger, nil)

	// следующий цикл допускается только после публикации idle
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()

	return res
}

func (o *Orchestrator) cycle(ctx context.Context, trigger Trigger, start time.Time) (res Result) {
	res = Result{Trigger: trigger, StartedAt: start}
	defer func() {
		if p := recover(); p != nil {
			o.log.Error("sync cycle panicked", "panic", p)
			res.Success = false
			res.Error = newError(CodeReconciliation, fmt.Sprintf("internal failure: %v", p), nil)
		}
		res.Duration = o.now().Sub(start)
	}()

	owner := o.auth.Owner()

	pending, err := o.collector.CollectPending(ctx, owner)
	if err != nil {
		res.Error = newError(CodeReconciliation, "read local changes", err)
		return res
	}

	cursor, err := o.cursors.Cursor(ctx, owner)
	if err != nil {
		res.Error = newError(CodeReconciliation, "read cursor", err)
		return res
	}

	changes := make([]model.Change, 0, len(pending))
	for _, rec := range pending {
		changes = append(changes, model.ChangeFromRecord(rec))
	}

	exchanged, err := o.transport.Exchange(ctx, cursor, changes)
	if err != nil {
		res.Error = transportError(err)
		return res
	}

	summary, err := o.reconciler.Reconcile(ctx, owner, pending, exchanged)
	res.Summary = summary
	if err != nil {
		res.Error = newError(CodeReconciliation, "apply server response", err)
		return res
	}

	if err := o.cursors.SetCursor(ctx, owner, exchanged.NewCursor); err != nil {
		res.Error = newError(CodeReconciliation, "save cursor", err)
		return res
	}

	res.Success = true
	if n := len(summary.Rejected); n > 0 {
		res.Error = newError(CodeServerRejected, fmt.Sprintf("%d change(s) rejected by server", n), nil)
	}
	return res
}

func (o *Orchestrator) transition(state State, trigger Trigger, res *Result) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()

	o.listeners.Notify(Event{State: state, Trigger: trigger, Result: res})
}

func refused(trigger Trigger, start time.Time, code Code, msg string) Result {
	return Result{
		Trigger:   trigger,
		StartedAt: start,
		Error:     newError(code, msg, nil),
	}
}

// HasPending сообщает, есть ли неотправленные изменения у текущего владельца.
func (o *Orchestrator) HasPending(ctx context.Context) (bool, error) {
	pending, err := o.collector.CollectPending(ctx, o.auth.Owner())
	if err != nil {
		return false, err
	}
	return len(pending) > 0, nil
}

// Run планирует циклы, пока жив ctx. Без входа таймер не взводится; переход
// офлайн -> онлайн запускает цикл сразу.
func (o *Orchestrator) Run(ctx context.Context) error {
	authCh := make(chan bool, 1)
	onlineCh := make(chan bool, 1)

	unsubscribeAuth := o.auth.Subscribe(func(ok bool) { offer(authCh, ok) })
	defer unsubscribeAuth()
	unsubscribeConn := o.conn.Subscribe(func(online bool) { offer(onlineCh, online) })
	defer unsubscribeConn()

	if o.auth.IsAuthenticated() {
		pending, err := o.HasPending(ctx)
		if err != nil {
			o.log.Warn("check pending changes", "error", err)
		}
		if pending {
			o.Sync(ctx, TriggerStartup)
		}
	}

	var timer *time.Timer
	var tick <-chan time.Time
	arm := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, tick = nil, nil
		if !o.auth.IsAuthenticated() {
			return
		}
		timer = time.NewTimer(o.interval.Next(o.conn.Online()))
		tick = timer.C
	}
	arm()
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			o.Sync(ctx, TriggerTimer)
			arm()
		case <-authCh:
			arm()
		case online := <-onlineCh:
			if online && o.auth.IsAuthenticated() {
				o.Sync(ctx, TriggerReconnect)
			}
			arm()
		}
	}
}

// offer кладет в канал последнее значение, вытесняя непрочитанное.
func offer(ch chan bool, v bool) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
