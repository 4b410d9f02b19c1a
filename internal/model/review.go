package model

import "time"

const day = 24 * time.Hour

// NewWordReview - расписание для слова, которое еще ни разу не повторяли.
// Первое повторение назначается через intervals[0] дней.
func NewWordReview(word, dict string, intervals []int, now time.Time) WordReviewRecord {
	if len(intervals) == 0 {
		intervals = DefaultIntervals
	}
	return WordReviewRecord{
		Word:             word,
		IntervalSequence: append([]int(nil), intervals...),
		NextReviewAt:     now.Add(time.Duration(intervals[0]) * day).UnixMilli(),
		SourceDicts:      []string{dict},
		PreferredDict:    dict,
		FirstSeenAt:      now.UnixMilli(),
	}
}

// Apply учитывает одно повторение. Верный ответ сдвигает слово на следующий
// интервал, после последнего слово выпускается и больше не повторяется.
// Ошибка возвращает слово к первому интервалу.
func (r *WordReviewRecord) Apply(correct bool, dict string, now time.Time) {
	r.TotalReviews++
	r.LastReviewedAt = now.UnixMilli()
	r.AddSourceDict(dict)

	if correct {
		r.ConsecutiveCorrect++
		r.CurrentIntervalIndex++
	} else {
		r.ConsecutiveCorrect = 0
		r.CurrentIntervalIndex = 0
		r.IsGraduated = false
	}

	if r.CurrentIntervalIndex >= len(r.IntervalSequence) {
		r.CurrentIntervalIndex = len(r.IntervalSequence)
		r.IsGraduated = true
		r.NextReviewAt = 0
		return
	}
	r.NextReviewAt = now.Add(time.Duration(r.IntervalSequence[r.CurrentIntervalIndex]) * day).UnixMilli()
}

func (r *WordReviewRecord) AddSourceDict(dict string) {
	if dict == "" {
		return
	}
	for _, d := range r.SourceDicts {
		if d == dict {
			return
		}
	}
	r.SourceDicts = append(r.SourceDicts, dict)
	if r.PreferredDict == "" {
		r.PreferredDict = dict
	}
}

// IsDue сообщает, пора ли повторять слово.
func (r WordReviewRecord) IsDue(now time.Time) bool {
	return !r.IsGraduated && r.NextReviewAt <= now.UnixMilli()
}
