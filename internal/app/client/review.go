package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"wordsync/internal/model"
)

// SaveChapter записывает результат прохождения главы. Каждая попытка -
// отдельная запись.
func (a *App) SaveChapter(ctx context.Context, ch model.ChapterRecord) (model.Record, error) {
	if ch.TimeStamp == 0 {
		ch.TimeStamp = time.Now().UnixMilli()
	}
	return a.put(ctx, model.KindChapterRecord, mustJSON(ch))
}

// ReviewConfig - настройки повторения пользователя либо значения по умолчанию.
func (a *App) ReviewConfig(ctx context.Context) (model.ReviewConfig, error) {
	owner, err := a.owner()
	if err != nil {
		return model.ReviewConfig{}, err
	}
	rec, err := a.records.FindLive(ctx, owner, model.KindReviewConfig, model.ReviewConfigKey)
	if err != nil {
		return model.ReviewConfig{}, err
	}
	if rec == nil {
		return model.DefaultReviewConfig(), nil
	}

	var cfg model.ReviewConfig
	if err := json.Unmarshal(rec.Payload, &cfg); err != nil {
		return model.ReviewConfig{}, fmt.Errorf("decode review config %s: %w", rec.ID, err)
	}
	return cfg, nil
}

func (a *App) SetReviewConfig(ctx context.Context, cfg model.ReviewConfig) (model.Record, error) {
	return a.put(ctx, model.KindReviewConfig, mustJSON(cfg))
}

// ReviewWord учитывает ответ при повторении слова: сдвигает его расписание
// и добавляет попытку в историю. Возвращает обновленное расписание.
func (a *App) ReviewWord(ctx context.Context, dict, word string, correct bool, responseTime time.Duration) (model.Record, error) {
	owner, err := a.owner()
	if err != nil {
		return model.Record{}, err
	}
	word = strings.TrimSpace(word)
	key, err := model.NaturalKey(model.KindWordReviewRecord, mustJSON(model.WordReviewRecord{Word: word}))
	if err != nil {
		return model.Record{}, err
	}

	now := time.Now()
	existing, err := a.records.FindLive(ctx, owner, model.KindWordReviewRecord, key)
	if err != nil {
		return model.Record{}, err
	}

	var wr model.WordReviewRecord
	if existing != nil {
		if err := json.Unmarshal(existing.Payload, &wr); err != nil {
			return model.Record{}, fmt.Errorf("decode word review %s: %w", existing.ID, err)
		}
		// время попытки входит в ключ истории и должно расти
		if now.UnixMilli() <= wr.LastReviewedAt {
			now = time.UnixMilli(wr.LastReviewedAt + 1)
		}
	} else {
		cfg, err := a.ReviewConfig(ctx)
		if err != nil {
			return model.Record{}, err
		}
		wr = model.NewWordReview(word, dict, cfg.BaseIntervals, now)
	}

	before := wr.CurrentIntervalIndex
	wr.Apply(correct, dict, now)

	var rec model.Record
	if existing != nil {
		rec, err = a.records.Update(ctx, existing.ID, mustJSON(wr))
	} else {
		rec, err = a.records.Create(ctx, owner, model.KindWordReviewRecord, mustJSON(wr))
	}
	if err != nil {
		return model.Record{}, err
	}

	result := model.ReviewIncorrect
	if correct {
		result = model.ReviewCorrect
	}
	_, err = a.records.Create(ctx, owner, model.KindReviewHistory, mustJSON(model.ReviewHistory{
		WordReviewRecordID: rec.ID,
		Word:               word,
		Dict:               dict,
		ReviewedAt:         now.UnixMilli(),
		ReviewResult:       result,
		ResponseTime:       responseTime.Milliseconds(),
		ReviewLevelBefore:  before,
		ReviewLevelAfter:   wr.CurrentIntervalIndex,
		ReviewType:         "scheduled",
	}))
	if err != nil {
		return model.Record{}, fmt.Errorf("save review history: %w", err)
	}
	return rec, nil
}

// Due - расписания слов, которые пора повторить, самые просроченные первыми.
func (a *App) Due(ctx context.Context) ([]model.Record, error) {
	owner, err := a.owner()
	if err != nil {
		return nil, err
	}
	recs, err := a.records.ListLive(ctx, owner, model.KindWordReviewRecord)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	type due struct {
		rec  model.Record
		next int64
	}
	var pending []due
	for _, rec := range recs {
		var wr model.WordReviewRecord
		if err := json.Unmarshal(rec.Payload, &wr); err != nil {
			a.log.Warn("skip unreadable word review", "id", rec.ID, "error", err)
			continue
		}
		if wr.IsDue(now) {
			pending = append(pending, due{rec: rec, next: wr.NextReviewAt})
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].next < pending[j].next })

	out := make([]model.Record, 0, len(pending))
	for _, d := range pending {
		out = append(out, d.rec)
	}
	return out, nil
}
