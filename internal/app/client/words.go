package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wordsync/internal/app/client/storage"
	"wordsync/internal/model"
)

// MarkFamiliar создает или обновляет отметку "слово знакомо".
func (a *App) MarkFamiliar(ctx context.Context, dict, word string, familiar bool) (model.Record, error) {
	payload, err := json.Marshal(model.FamiliarWord{Dict: dict, Word: word, Familiar: familiar})
	if err != nil {
		return model.Record{}, err
	}
	return a.put(ctx, model.KindFamiliarWord, payload)
}

// Practice добавляет попытку набора слова в его историю.
func (a *App) Practice(ctx context.Context, dict, word string, wrong int, mistakes []string) (model.Record, error) {
	owner, err := a.owner()
	if err != nil {
		return model.Record{}, err
	}

	key, err := model.NaturalKey(model.KindWordRecord, mustJSON(model.WordRecord{Dict: dict, Word: word}))
	if err != nil {
		return model.Record{}, err
	}

	wr := model.WordRecord{Dict: strings.TrimSpace(dict), Word: strings.TrimSpace(word)}
	existing, err := a.records.FindLive(ctx, owner, model.KindWordRecord, key)
	if err != nil {
		return model.Record{}, err
	}
	if existing != nil {
		if err := json.Unmarshal(existing.Payload, &wr); err != nil {
			return model.Record{}, fmt.Errorf("decode word record %s: %w", existing.ID, err)
		}
	}

	wr.WrongCount += wrong
	wr.History = append(wr.History, model.PerformanceEntry{
		EntryUUID:  uuid.NewString(),
		TimeStamp:  time.Now().UnixMilli(),
		WrongCount: wrong,
		Mistakes:   mistakes,
	})

	payload, err := json.Marshal(wr)
	if err != nil {
		return model.Record{}, err
	}
	if existing != nil {
		return a.records.Update(ctx, existing.ID, payload)
	}
	return a.records.Create(ctx, owner, model.KindWordRecord, payload)
}

// Review открывает сессию повторения словаря или закрывает последнюю открытую.
func (a *App) Review(ctx context.Context, dict string, finish bool) (model.Record, error) {
	owner, err := a.owner()
	if err != nil {
		return model.Record{}, err
	}

	if !finish {
		payload := mustJSON(model.ReviewRecord{Dict: dict, CreateTime: time.Now().UnixMilli()})
		return a.records.Create(ctx, owner, model.KindReviewRecord, payload)
	}

	recs, err := a.records.ListLive(ctx, owner, model.KindReviewRecord)
	if err != nil {
		return model.Record{}, err
	}

	var (
		open   *model.Record
		review model.ReviewRecord
	)
	for i := range recs {
		var r model.ReviewRecord
		if err := json.Unmarshal(recs[i].Payload, &r); err != nil {
			continue
		}
		if r.Dict == dict && !r.IsFinished && (open == nil || r.CreateTime > review.CreateTime) {
			open, review = &recs[i], r
		}
	}
	if open == nil {
		return model.Record{}, fmt.Errorf("%w: no open review for %s", storage.ErrNotFound, dict)
	}

	review.IsFinished = true
	return a.records.Update(ctx, open.ID, mustJSON(review))
}

// Remove удаляет запись по id.
func (a *App) Remove(ctx context.Context, id string) error {
	return a.records.Delete(ctx, id)
}

// RemoveWord удаляет запись данного типа по словарю и слову. Для
// word_review_record словарь не учитывается.
func (a *App) RemoveWord(ctx context.Context, kind model.Kind, dict, word string) error {
	owner, err := a.owner()
	if err != nil {
		return err
	}
	payload := mustJSON(model.FamiliarWord{Dict: dict, Word: word})
	if kind == model.KindWordReviewRecord {
		payload = mustJSON(model.WordReviewRecord{Word: word})
	}
	key, err := model.NaturalKey(kind, payload)
	if err != nil {
		return err
	}
	rec, err := a.records.FindLive(ctx, owner, kind, key)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: %s %s", storage.ErrNotFound, kind, key)
	}
	return a.records.Delete(ctx, rec.ID)
}

// List - живые записи владельца; пустой kind - все типы.
func (a *App) List(ctx context.Context, kind model.Kind) ([]model.Record, error) {
	owner, err := a.owner()
	if err != nil {
		return nil, err
	}
	if kind != "" {
		if err := kind.Validate(); err != nil {
			return nil, err
		}
	}
	return a.records.ListLive(ctx, owner, kind)
}

// Purge физически удаляет подтвержденные сервером надгробия.
func (a *App) Purge(ctx context.Context) (int64, error) {
	owner, err := a.owner()
	if err != nil {
		return 0, err
	}
	return a.records.Purge(ctx, owner)
}

// put создает запись или обновляет живую запись с тем же естественным ключом.
func (a *App) put(ctx context.Context, kind model.Kind, payload json.RawMessage) (model.Record, error) {
	owner, err := a.owner()
	if err != nil {
		return model.Record{}, err
	}

	key, err := model.NaturalKey(kind, payload)
	if err != nil {
		return model.Record{}, err
	}
	existing, err := a.records.FindLive(ctx, owner, kind, key)
	if err != nil {
		return model.Record{}, err
	}
	if existing != nil {
		return a.records.Update(ctx, existing.ID, payload)
	}
	return a.records.Create(ctx, owner, kind, payload)
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
