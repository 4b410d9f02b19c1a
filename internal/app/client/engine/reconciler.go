package engine

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"

	"wordsync/internal/domain/conflict"
	"wordsync/internal/model"
)

// Reconciler применяет результат обмена к локальному журналу. Каждая запись
// фиксируется в своей транзакции; курсор сохраняет вызывающий.
type Reconciler struct {
	store Store
	log   *slog.Logger
}

func NewReconciler(store Store, log *slog.Logger) *Reconciler {
	return &Reconciler{
		store: store,
		log:   log.With(slog.String("component", "reconciler")),
	}
}

// Reconcile разбирает подтверждения, вытеснения, отказы и серверные изменения.
// pushed - те версии записей, что ушли на сервер.
func (r *Reconciler) Reconcile(ctx context.Context, owner string, pushed []model.Record, res *model.ExchangeResult) (Summary, error) {
	var sum Summary

	sent := make(map[string]model.Record, len(pushed))
	for _, rec := range pushed {
		sent[rec.ID] = rec
	}
	if err := checkResult(sent, res); err != nil {
		return sum, err
	}

	remote, order := latestByID(res.ServerChanges)
	handled := make(map[string]struct{})

	for _, ack := range res.Acks {
		err := r.store.InTx(ctx, func(tx Store) error {
			return r.applyAck(ctx, tx, sent[ack.ID], ack)
		})
		if err != nil {
			return sum, fmt.Errorf("apply ack %s: %w", ack.ID, err)
		}
		sum.Accepted++
	}

	for _, s := range res.Superseded {
		err := r.store.InTx(ctx, func(tx Store) error {
			return r.applySupersession(ctx, tx, owner, sent[s.ID], s, remote, handled, &sum)
		})
		if err != nil {
			return sum, fmt.Errorf("apply supersession %s: %w", s.ID, err)
		}
	}

	for _, rej := range res.Rejected {
		r.log.Warn("change rejected", "id", rej.ID, "code", rej.Code, "message", rej.Message)
		sum.Rejected = append(sum.Rejected, RecordError{
			ID:      rej.ID,
			Code:    CodeServerRejected,
			Message: fmt.Sprintf("%s: %s", rej.Code, rej.Message),
		})
	}

	for _, id := range order {
		if _, ok := handled[id]; ok {
			continue
		}
		rec := remote[id]
		err := r.store.InTx(ctx, func(tx Store) error {
			return r.applyRemote(ctx, tx, owner, rec, false, &sum)
		})
		if err != nil {
			return sum, fmt.Errorf("apply server change %s: %w", id, err)
		}
	}

	r.log.Debug("reconciled",
		"accepted", sum.Accepted,
		"applied", sum.Applied,
		"conflicts", len(sum.Conflicts),
		"rejected", len(sum.Rejected),
	)
	return sum, nil
}

// checkResult отбраковывает ответ целиком до первой локальной записи.
func checkResult(sent map[string]model.Record, res *model.ExchangeResult) error {
	for _, ack := range res.Acks {
		if pushed, ok := sent[ack.ID]; ok && ack.ServerModifiedAt < pushed.ClientModifiedAt {
			return fmt.Errorf("%w %q: acknowledged at %d before change at %d",
				model.ErrInconsistentRecord, ack.ID, ack.ServerModifiedAt, pushed.ClientModifiedAt)
		}
	}
	for _, rec := range res.ServerChanges {
		if err := rec.Check(); err != nil {
			return err
		}
	}
	return nil
}

// applyAck переводит запись в synced, если за время обмена ее не трогали.
// Иначе запись остается в очереди, а ее база сдвигается на подтвержденную версию.
func (r *Reconciler) applyAck(ctx context.Context, tx Store, pushed model.Record, ack model.Ack) error {
	cur, err := tx.Get(ctx, ack.ID)
	if err != nil {
		return err
	}
	if cur == nil {
		return nil
	}

	if cur.SyncStatus.Pending() && cur.ClientModifiedAt == pushed.ClientModifiedAt {
		return tx.MarkSynced(ctx, ack.ID, ack.ServerModifiedAt)
	}

	if ack.ServerModifiedAt > cur.ServerModifiedAt {
		cur.ServerModifiedAt = ack.ServerModifiedAt
		return tx.Upsert(ctx, *cur)
	}
	return nil
}

func (r *Reconciler) applySupersession(
	ctx context.Context,
	tx Store,
	owner string,
	pushed model.Record,
	s model.Supersession,
	remote map[string]model.ServerRecord,
	handled map[string]struct{},
	sum *Summary,
) error {
	cur, err := tx.Get(ctx, s.ID)
	if err != nil {
		return err
	}
	if cur == nil || cur.ClientModifiedAt != pushed.ClientModifiedAt {
		// запись успели изменить: она разойдется с сервером обычным путем
		return nil
	}

	winner := remote[s.WinnerID]
	c := Conflict{
		ID:     s.ID,
		Kind:   cur.Kind,
		Type:   conflict.Classify(localVersion(*cur), remoteVersion(winner)),
		Winner: conflict.Remote.String(),
	}
	if s.WinnerID != s.ID {
		c.OtherID = s.WinnerID
	}
	sum.Conflicts = append(sum.Conflicts, c)

	if s.WinnerID == s.ID {
		handled[s.ID] = struct{}{}
		return r.applyRemote(ctx, tx, owner, winner, true, sum)
	}

	// проиграл по естественному ключу
	own, ok := remote[s.ID]
	if !cur.Acknowledged() || !ok {
		return tx.Remove(ctx, s.ID)
	}
	handled[s.ID] = struct{}{}
	return r.applyRemote(ctx, tx, owner, own, true, sum)
}

// applyRemote применяет серверную версию. force - версия уже признана
// победителем и перезаписывает локальную без сравнения.
func (r *Reconciler) applyRemote(ctx context.Context, tx Store, owner string, rec model.ServerRecord, force bool, sum *Summary) error {
	local, err := tx.Get(ctx, rec.ID)
	if err != nil {
		return err
	}
	if local != nil && local.Owner != owner {
		r.log.Warn("server change for foreign record ignored", "id", rec.ID)
		return nil
	}

	if local == nil && rec.Deleted {
		return nil
	}

	if local != nil && !force {
		if rec.ServerModifiedAt <= local.ServerModifiedAt {
			return nil
		}
		if local.SyncStatus.Pending() {
			side := conflict.Resolve(localVersion(*local), remoteVersion(rec))
			sum.Conflicts = append(sum.Conflicts, Conflict{
				ID:     rec.ID,
				Kind:   rec.Kind,
				Type:   conflict.Classify(localVersion(*local), remoteVersion(rec)),
				Winner: side.String(),
			})
			if side == conflict.Local {
				local.ServerModifiedAt = rec.ServerModifiedAt
				return tx.Upsert(ctx, *local)
			}
		}
	}

	if !rec.Deleted {
		apply, err := r.clearNaturalKey(ctx, tx, owner, rec, sum)
		if err != nil {
			return err
		}
		if !apply {
			return nil
		}
	}

	if err := tx.Upsert(ctx, rec.ToRecord(owner)); err != nil {
		return err
	}
	sum.Applied++
	return nil
}

// clearNaturalKey освобождает естественный ключ под живую серверную запись.
// false - локальная запись с тем же ключом победила, серверную не применяем.
func (r *Reconciler) clearNaturalKey(ctx context.Context, tx Store, owner string, rec model.ServerRecord, sum *Summary) (bool, error) {
	other, err := tx.FindLive(ctx, owner, rec.Kind, rec.NaturalKey)
	if err != nil {
		return false, err
	}
	if other == nil || other.ID == rec.ID {
		return true, nil
	}

	if !other.SyncStatus.Pending() {
		// сервер уже заменил эту запись; ее надгробие придет позже или не нужно
		other.Deleted = true
		return true, tx.Upsert(ctx, *other)
	}

	side := conflict.Resolve(localVersion(*other), remoteVersion(rec))
	sum.Conflicts = append(sum.Conflicts, Conflict{
		ID:      other.ID,
		OtherID: rec.ID,
		Kind:    rec.Kind,
		Type:    conflict.EditEdit,
		Winner:  side.String(),
	})
	if side == conflict.Local {
		return false, nil
	}

	if !other.Acknowledged() {
		return true, tx.Remove(ctx, other.ID)
	}
	other.Deleted = true
	other.SyncStatus = model.StatusLocalDeleted
	return true, tx.Upsert(ctx, *other)
}

func localVersion(rec model.Record) conflict.Version {
	return conflict.Version{ID: rec.ID, ModifiedAt: rec.ClientModifiedAt, Deleted: rec.Deleted}
}

func remoteVersion(rec model.ServerRecord) conflict.Version {
	return conflict.Version{ID: rec.ID, ModifiedAt: rec.ServerModifiedAt, Deleted: rec.Deleted}
}

// latestByID оставляет по каждому id самую свежую версию, сохраняя порядок
// первого появления.
func latestByID(changes []model.ServerRecord) (map[string]model.ServerRecord, []string) {
	latest := make(map[string]model.ServerRecord, len(changes))
	order := make([]string, 0, len(changes))
	for _, rec := range changes {
		prev, ok := latest[rec.ID]
		if !ok {
			order = append(order, rec.ID)
		}
		if !ok || rec.ServerModifiedAt > prev.ServerModifiedAt {
			latest[rec.ID] = rec
		}
	}
	return latest, order
}
